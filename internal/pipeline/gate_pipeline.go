package pipeline

import (
	"context"

	"github.com/lumenflow/lumenflow/internal/config"
	"github.com/lumenflow/lumenflow/internal/gate"
	"github.com/lumenflow/lumenflow/internal/git"
	"github.com/lumenflow/lumenflow/internal/ports"
)

// BuildGateChain translates the workspace's GatesConfig into a gate.Chain,
// the one place that decides which Definition.Command each configured gate
// name actually runs.
func BuildGateChain(cfg config.GatesConfig, runner ports.ProcessRunner) gate.Chain {
	defs := make([]gate.Definition, 0, len(cfg.Chain))
	for _, g := range cfg.Chain {
		defs = append(defs, gate.Definition{
			Name:       g.Name,
			Command:    g.Command,
			TimeoutSec: g.TimeoutSec,
			// Workspace config doesn't expose safety-critical yet; no
			// shipped gate needs to run on a docs-only change.
			SafetyCritical: false,
		})
	}
	return gate.Chain{Gates: defs, FailFast: cfg.FailFast, Runner: runner}
}

// GatePipeline runs the configured gate chain against worktreePath,
// honoring the workspace's parallel/max_parallel configuration (§4.6).
func GatePipeline(ctx context.Context, deps *Deps, worktreePath, baseRef string) (gate.RunResult, error) {
	changed, err := git.ChangedFiles(ctx, deps.Runner, worktreePath, baseRef)
	if err != nil {
		return gate.RunResult{}, err
	}
	if deps.Config.Gates.Parallel {
		return deps.Gates.RunParallel(ctx, worktreePath, changed, deps.Config.Gates.MaxParallel), nil
	}
	return deps.Gates.Run(ctx, worktreePath, changed), nil
}
