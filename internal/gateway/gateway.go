// Package gateway is the typed data access layer over the named procedures.
// Every operation returns a Result; nothing is returned as a Go error and
// nothing panics past the boundary.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"infinite-experiment/hangar/internal/client"
	"infinite-experiment/hangar/internal/models/dtos"
	"infinite-experiment/hangar/internal/stats"

	"go.uber.org/zap"
)

// Result is the outcome of one gateway call.
type Result[T any] struct {
	Success bool
	Data    T
	Error   string
	// Unauthorized is set when the server rejected the credentials, as
	// opposed to the call failing in transit.
	Unauthorized bool
}

// Err returns the failure as an error, or nil on success.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	return errors.New(r.Error)
}

// Invoker is satisfied by *client.Client.
type Invoker interface {
	Invoke(ctx context.Context, procedure string, in, out any) error
}

type Gateway struct {
	c   Invoker
	log *zap.SugaredLogger
}

// New wraps c. A nil client yields a gateway whose calls all fail.
func New(c *client.Client) *Gateway {
	if c == nil {
		return NewWithInvoker(nil, nil)
	}
	return NewWithInvoker(c, c.Logger())
}

// NewWithInvoker accepts any transport, which tests use for doubles.
func NewWithInvoker(c Invoker, log *zap.SugaredLogger) *Gateway {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Gateway{c: c, log: log}
}

const errNoClient = "No server connection is configured"

func call[T any](ctx context.Context, g *Gateway, procedure string, in any) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Errorw("Gateway call panicked", "procedure", procedure, "panic", r)
			res = Result[T]{Error: fmt.Sprintf("%s failed unexpectedly", procedure)}
		}
	}()

	if g.c == nil {
		return Result[T]{Error: errNoClient}
	}

	var out T
	if err := g.c.Invoke(ctx, procedure, in, &out); err != nil {
		g.log.Warnw("Gateway call failed", "procedure", procedure, "error", err)
		return Result[T]{Error: message(err), Unauthorized: errors.Is(err, client.ErrUnauthorized)}
	}
	return Result[T]{Success: true, Data: out}
}

// message is the human-readable text of err.
func message(err error) string {
	var remote *client.RemoteError
	switch {
	case errors.As(err, &remote):
		return remote.Message
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out"
	case errors.Is(err, context.Canceled):
		return "The request was cancelled"
	default:
		return err.Error()
	}
}

func (g *Gateway) WhoAmI(ctx context.Context) Result[dtos.Identity] {
	return call[dtos.Identity](ctx, g, "whoami", nil)
}

// CheckAdmin is the privileged, server-side role lookup.
func (g *Gateway) CheckAdmin(ctx context.Context) Result[bool] {
	res := call[dtos.AdminCheck](ctx, g, "check-admin", nil)
	return Result[bool]{Success: res.Success, Data: res.Data.IsAdmin, Error: res.Error, Unauthorized: res.Unauthorized}
}

func (g *Gateway) ListPilots(ctx context.Context, in dtos.ListPilotsRequest) Result[[]dtos.Pilot] {
	return call[[]dtos.Pilot](ctx, g, "get-pilots", in)
}

func (g *Gateway) RegisterPilot(ctx context.Context, in dtos.RegisterPilotRequest) Result[dtos.Pilot] {
	return call[dtos.Pilot](ctx, g, "register-pilot", in)
}

func (g *Gateway) UpdateProfile(ctx context.Context, in dtos.UpdateProfileRequest) Result[dtos.Pilot] {
	return call[dtos.Pilot](ctx, g, "update-profile", in)
}

func (g *Gateway) UpdatePilot(ctx context.Context, in dtos.UpdatePilotRequest) Result[dtos.Pilot] {
	return call[dtos.Pilot](ctx, g, "update-pilot", in)
}

func (g *Gateway) HidePilot(ctx context.Context, id string) Result[dtos.Pilot] {
	return call[dtos.Pilot](ctx, g, "hide-pilot", dtos.IDRequest{ID: id})
}

func (g *Gateway) LinkPilot(ctx context.Context, in dtos.LinkPilotRequest) Result[dtos.Pilot] {
	return call[dtos.Pilot](ctx, g, "link-pilot", in)
}

// ListFlights returns flights newest first. PilotName is empty for any
// flight whose pilot lookup failed on the server.
func (g *Gateway) ListFlights(ctx context.Context, in dtos.ListFlightsRequest) Result[[]dtos.Flight] {
	return call[[]dtos.Flight](ctx, g, "get-flights", in)
}

func (g *Gateway) GetFlight(ctx context.Context, id string) Result[dtos.Flight] {
	return call[dtos.Flight](ctx, g, "get-flight", dtos.IDRequest{ID: id})
}

func (g *Gateway) CreateFlight(ctx context.Context, in dtos.FlightInput) Result[dtos.Flight] {
	return call[dtos.Flight](ctx, g, "create-flight", dtos.CreateFlightRequest{FlightInput: in})
}

func (g *Gateway) UpdateFlight(ctx context.Context, id string, in dtos.FlightInput) Result[dtos.Flight] {
	return call[dtos.Flight](ctx, g, "update-flight", dtos.UpdateFlightRequest{ID: id, FlightInput: in})
}

func (g *Gateway) DeleteFlight(ctx context.Context, id string) Result[dtos.IDRequest] {
	return call[dtos.IDRequest](ctx, g, "delete-flight", dtos.IDRequest{ID: id})
}

func (g *Gateway) ListAircraft(ctx context.Context) Result[[]dtos.Aircraft] {
	return call[[]dtos.Aircraft](ctx, g, "get-aircraft", nil)
}

func (g *Gateway) ListSafetyReports(ctx context.Context, in dtos.ListSafetyReportsRequest) Result[[]dtos.SafetyReport] {
	return call[[]dtos.SafetyReport](ctx, g, "get-safety-reports", in)
}

func (g *Gateway) CreateSafetyReport(ctx context.Context, in dtos.CreateSafetyReportRequest) Result[dtos.SafetyReport] {
	return call[dtos.SafetyReport](ctx, g, "create-safety-report", in)
}

func (g *Gateway) ReviewSafetyReport(ctx context.Context, in dtos.ReviewSafetyReportRequest) Result[dtos.SafetyReport] {
	return call[dtos.SafetyReport](ctx, g, "review-safety-report", in)
}

func (g *Gateway) ListRouteTargets(ctx context.Context) Result[[]dtos.RouteTarget] {
	return call[[]dtos.RouteTarget](ctx, g, "get-route-targets", nil)
}

func (g *Gateway) UpsertRouteTarget(ctx context.Context, in dtos.UpsertRouteTargetRequest) Result[dtos.RouteTarget] {
	return call[dtos.RouteTarget](ctx, g, "upsert-route-target", in)
}

func (g *Gateway) RouteStats(ctx context.Context, in dtos.RouteStatsRequest) Result[[]stats.RouteStat] {
	return call[[]stats.RouteStat](ctx, g, "get-route-stats", in)
}
