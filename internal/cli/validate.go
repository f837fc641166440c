package cli

import (
	"fmt"
	"sort"

	"github.com/lumenflow/lumenflow/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewValidateCmd creates the wu:validate command.
func NewValidateCmd(app *App) *cobra.Command {
	var id string
	var noStrict bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Schema- and preflight-check every work unit in the workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, _, err := app.deps()
			if err != nil {
				return err
			}

			reports, err := pipeline.ValidatePipeline(deps.Config.WuDir, deps.MainCheckout)
			if err != nil {
				return err
			}

			ids := make([]string, 0, len(reports))
			for rid := range reports {
				if id != "" && rid != id {
					continue
				}
				ids = append(ids, rid)
			}
			sort.Strings(ids)
			if id != "" && len(ids) == 0 {
				return fmt.Errorf("no such work unit: %s", id)
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, rid := range ids {
				r := reports[rid]
				if r.Valid() {
					fmt.Fprintf(out, "%s  ok\n", rid)
					continue
				}
				failed++
				fmt.Fprintf(out, "%s  FAIL\n", rid)
				for _, issue := range r.Schema.Issues {
					fmt.Fprintf(out, "  schema:    %s: %s\n", issue.Field, issue.Message)
				}
				for _, issue := range r.Preflight.Issues {
					fmt.Fprintf(out, "  preflight: %s: %s\n", issue.Field, issue.Message)
				}
			}

			if failed > 0 && !noStrict {
				return fmt.Errorf("%d work unit(s) failed validation", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Validate only this work unit (default: all)")
	cmd.Flags().BoolVar(&noStrict, "no-strict", false, "Report issues without a nonzero exit code")
	return cmd
}
