// Package cli implements portalctl, a terminal client for the portal API.
package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"infinite-experiment/hangar/internal/authgate"
	"infinite-experiment/hangar/internal/client"
	"infinite-experiment/hangar/internal/gateway"
	"infinite-experiment/hangar/internal/models/dtos"
	"infinite-experiment/hangar/internal/stats"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Portal is the subset of *gateway.Gateway the commands use.
type Portal interface {
	WhoAmI(ctx context.Context) gateway.Result[dtos.Identity]
	CheckAdmin(ctx context.Context) gateway.Result[bool]
	ListFlights(ctx context.Context, in dtos.ListFlightsRequest) gateway.Result[[]dtos.Flight]
	RouteStats(ctx context.Context, in dtos.RouteStatsRequest) gateway.Result[[]stats.RouteStat]
	ReviewSafetyReport(ctx context.Context, in dtos.ReviewSafetyReportRequest) gateway.Result[dtos.SafetyReport]
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ProfilePath string
	BaseURL     string
	APIKey      string
	AccessToken string
	Format      string // "json" | "text"
	NoColor     bool
	Timeout     time.Duration

	profile *Profile

	// Overridable in tests.
	newPortal   func(c *client.Client) Portal
	newIdentity func(p *Profile) authgate.IdentityCache
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	if opts.newPortal == nil {
		opts.newPortal = func(c *client.Client) Portal { return gateway.New(c) }
	}
	if opts.newIdentity == nil {
		opts.newIdentity = func(p *Profile) authgate.IdentityCache {
			return authgate.NewFileIdentityCache(p.IdentityCachePath())
		}
	}

	cmd := &cobra.Command{
		Use:   "portalctl",
		Short: "portalctl - flight operations portal from the terminal",
		Long:  "Query flights and route stats, review safety reports and watch live changes.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.NoColor {
				color.NoColor = true
			}

			p, err := LoadProfile(opts.ProfilePath)
			if err != nil {
				return err
			}
			p.Merge(opts)
			if err := p.Validate(); err != nil {
				return err
			}
			opts.profile = p
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ProfilePath, "profile", DefaultProfilePath(), "profile file")
	cmd.PersistentFlags().StringVar(&opts.BaseURL, "url", "", "portal base URL (overrides profile)")
	cmd.PersistentFlags().StringVar(&opts.APIKey, "api-key", "", "public api key (overrides profile)")
	cmd.PersistentFlags().StringVar(&opts.AccessToken, "token", "", "access token (overrides profile)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 0, "sign-in check timeout (overrides profile)")

	cmd.AddCommand(NewWhoAmICommand(opts))
	cmd.AddCommand(NewFlightsCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewReviewCommand(opts))

	return cmd
}

func (o *RootOptions) client() *client.Client {
	return client.New(o.profile.BaseURL, o.profile.APIKey, client.WithAccessToken(o.profile.AccessToken))
}

func (o *RootOptions) portal() Portal {
	return o.newPortal(o.client())
}

func (o *RootOptions) printer(w io.Writer) *Printer {
	return &Printer{Format: o.Format, Writer: w}
}

// gate resolves the session before a command runs.
func (o *RootOptions) gate(ctx context.Context, p Portal, requireAdmin bool) authgate.Decision {
	g := authgate.New(p, authgate.Config{
		Timeout:             o.profile.AuthTimeout,
		RequireAdmin:        requireAdmin,
		AllowCachedFallback: o.profile.AllowCachedFallback,
		MaxCachedAge:        o.profile.MaxCachedAge,
	}, authgate.WithCache(o.newIdentity(o.profile)))
	defer g.Close()
	return g.Resolve(ctx)
}

func requireAccess(d authgate.Decision) error {
	switch d.Outcome {
	case authgate.OutcomeRender:
		return nil
	case authgate.OutcomeRedirectUnauthorized:
		return NewExitError(ExitUnauthorized, "admin access required")
	}
	if d.State == authgate.StateTimedOut {
		return NewExitError(ExitUnauthorized, "sign-in check timed out; sign in again")
	}
	return NewExitError(ExitUnauthorized, "not signed in; set access_token in the profile or pass --token")
}
