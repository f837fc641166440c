package cli

import (
	"fmt"

	"github.com/lumenflow/lumenflow/internal/errs"
	"github.com/lumenflow/lumenflow/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewClaimCmd creates the wu:claim command.
func NewClaimCmd(app *App) *cobra.Command {
	var id, lane string

	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Claim a ready work unit into an isolated worktree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" || lane == "" {
				return fmt.Errorf("--id and --lane are required")
			}
			deps, wd, err := app.deps()
			if err != nil {
				return err
			}

			result, err := pipeline.ClaimPipeline(cmd.Context(), deps, wd, id)
			if err != nil {
				return err
			}
			if result.Lane != lane {
				return errs.New(errs.KindInconsistentState,
					fmt.Sprintf("%s is on lane %q, not --lane %q", id, result.Lane, lane))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "claimed %s on lane %q\n  branch:   %s\n  worktree: %s\n",
				result.WuID, result.Lane, result.Branch, result.WorktreePath)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Work unit ID (e.g. WU-12)")
	cmd.Flags().StringVar(&lane, "lane", "", "Lane the work unit is expected to be on")
	return cmd
}
