package cli

import (
	"os"
	"time"

	"github.com/lumenflow/lumenflow/internal/cliui"
	"github.com/lumenflow/lumenflow/internal/wu"
	"github.com/spf13/cobra"
)

// NewWatchCmd creates the wu:watch command.
func NewWatchCmd(app *App) *cobra.Command {
	var intervalSec int
	var lane string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show a live view of every work unit's lane and status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, _, err := app.deps()
			if err != nil {
				return err
			}

			refresh := func() ([]cliui.Row, error) {
				units, err := wu.LoadAll(deps.Config.WuDir)
				if err != nil {
					return nil, err
				}
				rows := make([]cliui.Row, 0, len(units))
				for _, u := range units {
					if lane != "" && u.Lane != lane {
						continue
					}
					projected, perr := deps.WuStore.ProjectOne(u.ID)
					updatedAt := time.Time{}
					if perr == nil && projected.HasCheckpoint {
						updatedAt = projected.LastCheckpointAt
					}
					rows = append(rows, cliui.Row{
						WuID:      u.ID,
						Lane:      u.Lane,
						Status:    string(u.Status),
						Title:     u.Title,
						UpdatedAt: updatedAt,
					})
				}
				return rows, nil
			}

			return cliui.Run(cmd.Context(), app.interactive(), refresh, time.Duration(intervalSec)*time.Second, os.Stdout)
		},
	}

	cmd.Flags().IntVar(&intervalSec, "interval", 2, "Refresh interval in seconds")
	cmd.Flags().StringVar(&lane, "lane", "", "Show only this lane (default: all)")
	return cmd
}
