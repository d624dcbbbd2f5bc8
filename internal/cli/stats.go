package cli

import (
	"infinite-experiment/hangar/internal/models/dtos"

	"github.com/spf13/cobra"
)

type StatsOptions struct {
	*RootOptions
	PilotID    string
	AircraftID string
	Month      int
	Year       int
}

func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Average Hobbs time per route against its target",
		Long: `Average Hobbs time per route against its target.

The flags narrow the flights considered and select the most specific
matching target for each route. --month requires --year.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request()
			if err != nil {
				return err
			}
			res := opts.portal().RouteStats(cmd.Context(), req)
			if err := res.Err(); err != nil {
				return &ExitError{Code: ExitFailure, Message: "failed to compute route stats", Err: err}
			}
			return opts.printer(cmd.OutOrStdout()).RouteStats(res.Data)
		},
	}

	cmd.Flags().StringVar(&opts.PilotID, "pilot", "", "pilot scope")
	cmd.Flags().StringVar(&opts.AircraftID, "aircraft", "", "aircraft scope")
	cmd.Flags().IntVar(&opts.Month, "month", 0, "month scope (1-12)")
	cmd.Flags().IntVar(&opts.Year, "year", 0, "year scope")

	return cmd
}

func (o *StatsOptions) request() (dtos.RouteStatsRequest, error) {
	var req dtos.RouteStatsRequest
	if o.Month != 0 && o.Year == 0 {
		return req, NewExitError(ExitCommandError, "--month requires --year")
	}
	if o.Month < 0 || o.Month > 12 {
		return req, NewExitError(ExitCommandError, "--month must be between 1 and 12")
	}
	if o.PilotID != "" {
		req.PilotID = &o.PilotID
	}
	if o.AircraftID != "" {
		req.AircraftID = &o.AircraftID
	}
	if o.Month != 0 {
		req.Month = &o.Month
	}
	if o.Year != 0 {
		req.Year = &o.Year
	}
	return req, nil
}
