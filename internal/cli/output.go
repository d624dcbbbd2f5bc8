package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"infinite-experiment/hangar/internal/models/dtos"
	"infinite-experiment/hangar/internal/stats"

	"github.com/fatih/color"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the portal answered with an error
	ExitCommandError = 2 // bad flags or profile
	ExitUnauthorized = 3
)

type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// GetExitCode returns ExitFailure for errors that carry no code.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// CLIResponse is the JSON output shape.
type CLIResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

var (
	headerColor = color.New(color.Bold)
	overColor   = color.New(color.FgRed)
	underColor  = color.New(color.FgGreen)
	dimColor    = color.New(color.Faint)
	adminColor  = color.New(color.FgYellow, color.Bold)
)

// Printer renders results as text tables or JSON.
type Printer struct {
	Format string
	Writer io.Writer
}

func (p *Printer) json(data interface{}) error {
	enc := json.NewEncoder(p.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(CLIResponse{Status: "ok", Data: data})
}

func (p *Printer) Identity(id dtos.Identity, fromCache bool) error {
	if p.Format == "json" {
		return p.json(id)
	}

	name := id.Name
	if name == "" {
		name = "(no pilot profile)"
	}
	fmt.Fprintf(p.Writer, "%s %s\n", headerColor.Sprint("Signed in as"), name)
	fmt.Fprintf(p.Writer, "  user:  %s\n", id.UserID)
	if id.Email != "" {
		fmt.Fprintf(p.Writer, "  email: %s\n", id.Email)
	}
	if id.PilotID != "" {
		fmt.Fprintf(p.Writer, "  pilot: %s\n", id.PilotID)
	}
	fmt.Fprintf(p.Writer, "  role:  %s\n", id.Role)
	if id.IsAdmin {
		fmt.Fprintf(p.Writer, "  %s\n", adminColor.Sprint("administrator"))
	}
	if fromCache {
		fmt.Fprintln(p.Writer, dimColor.Sprint("  (cached, the server did not answer)"))
	}
	return nil
}

func (p *Printer) Flights(flights []dtos.Flight) error {
	if p.Format == "json" {
		return p.json(flights)
	}
	if len(flights) == 0 {
		fmt.Fprintln(p.Writer, "No flights.")
		return nil
	}

	tw := tabwriter.NewWriter(p.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tROUTE\tPILOT\tAIRCRAFT\tHOBBS\tTACH")
	for _, f := range flights {
		pilot := f.PilotName
		if pilot == "" {
			pilot = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f\t%.1f-%.1f\n",
			f.Date.Format("2006-01-02"), f.Route, pilot, f.AircraftID, f.HobbsTime, f.TachStart, f.TachEnd)
	}
	return tw.Flush()
}

func (p *Printer) RouteStats(rows []stats.RouteStat) error {
	if p.Format == "json" {
		return p.json(rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(p.Writer, "No flights in scope.")
		return nil
	}

	tw := tabwriter.NewWriter(p.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ROUTE\tFLIGHTS\tTOTAL\tAVERAGE\tTARGET\tVARIANCE\tVS TARGET")
	for _, r := range rows {
		target := "-"
		if r.TargetTime != nil {
			target = fmt.Sprintf("%.1f", *r.TargetTime)
		}
		vs := r.FormattedPercentFromTarget
		switch {
		case r.VarianceFromTarget > 0:
			vs = overColor.Sprint(vs)
		case r.VarianceFromTarget < 0:
			vs = underColor.Sprint(vs)
		}
		fmt.Fprintf(tw, "%s\t%d\t%.1f\t%.2f\t%s\t%+.2f\t%s\n",
			r.Route, r.FlightCount, r.TotalHobbs, r.AverageHobbs, target, r.VarianceFromTarget, vs)
	}
	return tw.Flush()
}

func (p *Printer) SafetyReport(r dtos.SafetyReport) error {
	if p.Format == "json" {
		return p.json(r)
	}

	fmt.Fprintf(p.Writer, "%s %s is now %s\n", headerColor.Sprint("Report"), r.ID, r.Status)
	if r.AdminReview != nil {
		fmt.Fprintf(p.Writer, "  reviewed by %s at %s\n", r.AdminReview.Reviewer, r.AdminReview.ReviewedAt.Format("2006-01-02 15:04"))
		if r.AdminReview.Notes != "" {
			fmt.Fprintf(p.Writer, "  notes: %s\n", r.AdminReview.Notes)
		}
	}
	return nil
}

// Change prints one realtime event per line.
func (p *Printer) Change(kind, table string, row map[string]any) error {
	if p.Format == "json" {
		return json.NewEncoder(p.Writer).Encode(map[string]any{"event": kind, "table": table, "record": row})
	}

	id, _ := row["id"].(string)
	label := kind
	switch kind {
	case "INSERT":
		label = underColor.Sprint(kind)
	case "DELETE":
		label = overColor.Sprint(kind)
	}
	_, err := fmt.Fprintf(p.Writer, "%-6s %s %s\n", label, table, id)
	return err
}
