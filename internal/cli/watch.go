package cli

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"infinite-experiment/hangar/internal/constants"
	"infinite-experiment/hangar/internal/realtime"

	"github.com/spf13/cobra"
)

type WatchOptions struct {
	*RootOptions
	Filters []string
}

func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <table>",
		Short: "Stream live row changes until interrupted",
		Example: `  portalctl watch flights --filter pilot_id=3b0e...
  portalctl watch safety_reports --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := args[0]
			if !constants.KnownTables[table] {
				return NewExitError(ExitCommandError, fmt.Sprintf("unknown table %q", table))
			}
			filter, err := parseFilters(opts.Filters)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			b, err := realtime.Connect(ctx, opts.client())
			if err != nil {
				return &ExitError{Code: ExitFailure, Message: "failed to connect", Err: err}
			}
			defer b.Close()

			out := opts.printer(cmd.OutOrStdout())
			w := realtime.NewWatch[map[string]any](b, table, realtime.HandlerFuncs[map[string]any]{
				Insert: func(c realtime.Insert[map[string]any]) { _ = out.Change(string(c.Kind()), c.Table, c.New) },
				Update: func(c realtime.Update[map[string]any]) { _ = out.Change(string(c.Kind()), c.Table, c.New) },
				Delete: func(c realtime.Delete[map[string]any]) { _ = out.Change(string(c.Kind()), c.Table, c.Old) },
			})
			defer w.Close()

			if err := w.SetFilter(ctx, filter); err != nil {
				return &ExitError{Code: ExitFailure, Message: "failed to subscribe", Err: err}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s, press Ctrl-C to stop\n", table)

			select {
			case <-ctx.Done():
				return nil
			case <-b.Done():
				return &ExitError{Code: ExitFailure, Message: "realtime connection lost", Err: b.Err()}
			}
		},
	}

	cmd.Flags().StringArrayVar(&opts.Filters, "filter", nil, "column=value equality filter, repeatable")

	return cmd
}

func parseFilters(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	filter := make(map[string]string, len(raw))
	for _, f := range raw {
		col, val, ok := strings.Cut(f, "=")
		if !ok || col == "" {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid filter %q, expected column=value", f))
		}
		filter[col] = val
	}
	return filter, nil
}
