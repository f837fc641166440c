package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/lumenflow/lumenflow/internal/pipeline"
	"github.com/lumenflow/lumenflow/internal/wu"
	"github.com/spf13/cobra"
)

// NewStatusCmd creates the wu:status command.
func NewStatusCmd(app *App) *cobra.Command {
	var id string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show a work unit's YAML state, projected event-store state, and location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, wd, err := app.deps()
			if err != nil {
				return err
			}

			if id != "" {
				report, err := pipeline.StatusPipeline(cmd.Context(), deps, wd, id)
				if err != nil {
					return err
				}
				return printStatus(cmd, []pipeline.StatusReport{report}, asJSON)
			}

			units, err := wu.LoadAll(deps.Config.WuDir)
			if err != nil {
				return err
			}
			sort.Slice(units, func(i, j int) bool { return units[i].ID < units[j].ID })

			reports := make([]pipeline.StatusReport, 0, len(units))
			for _, u := range units {
				report, err := pipeline.StatusPipeline(cmd.Context(), deps, wd, u.ID)
				if err != nil {
					return err
				}
				reports = append(reports, report)
			}
			return printStatus(cmd, reports, asJSON)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Show only this work unit (default: all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON instead of formatted text")
	return cmd
}

func printStatus(cmd *cobra.Command, reports []pipeline.StatusReport, asJSON bool) error {
	out := cmd.OutOrStdout()

	if asJSON {
		type jsonReport struct {
			ID            string `json:"id"`
			Title         string `json:"title"`
			Lane          string `json:"lane"`
			YAMLStatus    string `json:"yamlStatus"`
			Projected     string `json:"projectedStatus"`
			Location      string `json:"location"`
			Inconsistency string `json:"inconsistency,omitempty"`
		}
		encoded := make([]jsonReport, 0, len(reports))
		for _, r := range reports {
			encoded = append(encoded, jsonReport{
				ID:            r.Wu.ID,
				Title:         r.Wu.Title,
				Lane:          r.Wu.Lane,
				YAMLStatus:    string(r.Wu.Status),
				Projected:     string(r.Projected.Status),
				Location:      string(r.Location.Type),
				Inconsistency: r.Inconsistency,
			})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(encoded)
	}

	for _, r := range reports {
		fmt.Fprintf(out, "%s  %s\n", r.Wu.ID, r.Wu.Title)
		fmt.Fprintf(out, "  lane:      %s\n", r.Wu.Lane)
		fmt.Fprintf(out, "  yaml:      %s\n", r.Wu.Status)
		fmt.Fprintf(out, "  projected: %s\n", r.Projected.Status)
		fmt.Fprintf(out, "  location:  %s\n", r.Location.Type)
		if r.Inconsistency != "" {
			fmt.Fprintf(out, "  inconsistency: %s\n", r.Inconsistency)
		}
	}
	return nil
}
