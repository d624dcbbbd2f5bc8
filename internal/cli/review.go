package cli

import (
	"infinite-experiment/hangar/internal/models/dtos"

	"github.com/spf13/cobra"
)

type ReviewOptions struct {
	*RootOptions
	Status string
	Notes  string
}

func NewReviewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReviewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "review <report-id>",
		Short: "Review a safety report (admin)",
		Example: `  portalctl review 6f1c... --status under-review --notes "Checking the logbook"
  portalctl review 6f1c... --status resolved`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := opts.portal()
			if err := requireAccess(opts.gate(cmd.Context(), p, true)); err != nil {
				return err
			}

			res := p.ReviewSafetyReport(cmd.Context(), dtos.ReviewSafetyReportRequest{
				ID:     args[0],
				Status: opts.Status,
				Notes:  opts.Notes,
			})
			if err := res.Err(); err != nil {
				return &ExitError{Code: ExitFailure, Message: "failed to review report", Err: err}
			}
			return opts.printer(cmd.OutOrStdout()).SafetyReport(res.Data)
		},
	}

	cmd.Flags().StringVar(&opts.Status, "status", "under-review", "new status (submitted|under-review|resolved|closed)")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "review notes")

	return cmd
}
