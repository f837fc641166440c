package cli

import (
	"fmt"

	"github.com/lumenflow/lumenflow/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewDoneCmd creates the wu:done command.
func NewDoneCmd(app *App) *cobra.Command {
	var id string
	var noPush bool
	var force bool

	cmd := &cobra.Command{
		Use:   "done",
		Short: "Run gates, commit, rebase, and merge a work unit back to main",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return fmt.Errorf("--id is required")
			}
			deps, _, err := app.deps()
			if err != nil {
				return err
			}
			deps.NoPush = noPush

			result, err := pipeline.DonePipeline(cmd.Context(), deps, id, force)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed at tier %s\n", result.Tier)
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s merged: gates=%d pushed=%v worktree_removed=%v\n",
				id, len(result.Gates.Results), result.Pushed, result.WorktreeRemoved)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Work unit ID (e.g. WU-12)")
	cmd.Flags().BoolVar(&noPush, "no-push", false, "Merge to the local main checkout without pushing")
	cmd.Flags().BoolVar(&force, "force", false, "Bypass the dirty-main guard (audited)")
	return cmd
}
