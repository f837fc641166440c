package cli

import (
	"fmt"

	"github.com/lumenflow/lumenflow/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewRecoverCmd creates the wu:recover command.
func NewRecoverCmd(app *App) *cobra.Command {
	var id, action string

	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Reconcile a work unit stuck mid-lifecycle (resume, reset, or cleanup)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return fmt.Errorf("--id is required")
			}
			deps, _, err := app.deps()
			if err != nil {
				return err
			}

			result, err := pipeline.RecoverPipeline(cmd.Context(), deps, id, pipeline.RecoverAction(action))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s recover(%s):\n", result.WuID, result.Action)
			for _, n := range result.Notes {
				fmt.Fprintf(out, "  - %s\n", n)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Work unit ID (e.g. WU-12)")
	cmd.Flags().StringVar(&action, "action", string(pipeline.RecoverResume), "one of resume, reset, cleanup")
	return cmd
}
