package cli

import (
	"github.com/spf13/cobra"
)

func NewWhoAmICommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := opts.gate(cmd.Context(), opts.portal(), false)
			if err := requireAccess(d); err != nil {
				return err
			}
			return opts.printer(cmd.OutOrStdout()).Identity(*d.Identity, d.FromCache)
		},
	}
}
