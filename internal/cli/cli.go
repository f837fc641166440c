// Package cli wires lumenflow's pipeline package into a cobra command tree:
// one App holding shared flags and lazily-wired dependencies, one
// NewXCmd(app) per subcommand (§6's CLI surface).
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/lumenflow/lumenflow/internal/errs"
	"github.com/lumenflow/lumenflow/internal/gate"
	"github.com/lumenflow/lumenflow/internal/git"
	"github.com/lumenflow/lumenflow/internal/pipeline"
	"github.com/spf13/cobra"
)

// App holds the CLI's shared state: the cobra root command, global flags,
// and the pipeline.Deps wired lazily on first use so `lumenflow --help`
// doesn't require a git repository.
type App struct {
	rootCmd *cobra.Command

	verbose bool
	ciFlag  bool
	deps    *pipeline.Deps

	version string
	commit  string
	date    string
}

// New creates the CLI application and registers every subcommand.
func New() *App {
	app := &App{}
	app.setupRootCmd()
	return app
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.rootCmd.Execute()
}

// SetVersion sets the version string reported by `lumenflow version`.
func (a *App) SetVersion(version, commit, date string) {
	a.version = version
	a.commit = commit
	a.date = date
}

func (a *App) setupRootCmd() {
	a.rootCmd = &cobra.Command{
		Use:   "lumenflow",
		Short: "Work-unit orchestrator: claim, gate, and merge parallel work",
		Long: `lumenflow manages Work Units through a claim -> work -> gates -> done
lifecycle, isolating each in a git worktree and serializing merges back to
main through a single merge lock.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	a.rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose output")
	a.rootCmd.PersistentFlags().BoolVar(&a.ciFlag, "ci", false, "Force non-interactive output")

	a.rootCmd.AddCommand(
		newVersionCmd(a),
		NewClaimCmd(a),
		NewDoneCmd(a),
		NewStatusCmd(a),
		NewRecoverCmd(a),
		NewValidateCmd(a),
		NewWatchCmd(a),
	)
}

func newVersionCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "lumenflow %s (%s, %s)\n", a.version, a.commit, a.date)
			return nil
		},
	}
}

// deps lazily wires a pipeline.Deps rooted at the current git repository.
// Every subcommand goes through this rather than constructing its own
// collaborators, so the CLI wires collaborators exactly once per process.
func (a *App) deps() (*pipeline.Deps, string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("get working directory: %w", err)
	}

	root, ok := git.ShowTopLevel(context.Background(), git.DefaultRunner(), wd)
	if !ok {
		return nil, "", errs.New(errs.KindWrongLocation, "not inside a git repository")
	}

	if a.deps == nil {
		deps, err := WireDeps(root)
		if err != nil {
			return nil, "", err
		}
		a.deps = deps
	}
	return a.deps, wd, nil
}

// interactive reports whether output should stream a live view rather than
// print flat snapshots (§2a), honoring --ci and a CI-environment-variable
// the same way the gate runner does.
func (a *App) interactive() bool {
	ciSet := a.ciFlag || os.Getenv("CI") != ""
	return gate.IsInteractive(ciSet, a.verbose)
}
