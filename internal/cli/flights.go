package cli

import (
	"infinite-experiment/hangar/internal/models/dtos"

	"github.com/spf13/cobra"
)

type FlightsOptions struct {
	*RootOptions
	PilotID    string
	AircraftID string
	Limit      int
}

func NewFlightsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FlightsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "flights",
		Short: "List logged flights, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res := opts.portal().ListFlights(cmd.Context(), dtos.ListFlightsRequest{
				PilotID:    opts.PilotID,
				AircraftID: opts.AircraftID,
				Limit:      opts.Limit,
			})
			if err := res.Err(); err != nil {
				return &ExitError{Code: ExitFailure, Message: "failed to list flights", Err: err}
			}
			return opts.printer(cmd.OutOrStdout()).Flights(res.Data)
		},
	}

	cmd.Flags().StringVar(&opts.PilotID, "pilot", "", "only this pilot's flights")
	cmd.Flags().StringVar(&opts.AircraftID, "aircraft", "", "only this aircraft's flights")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "maximum number of flights")

	return cmd
}
