package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lumenflow/lumenflow/internal/config"
	"github.com/lumenflow/lumenflow/internal/escalate"
	"github.com/lumenflow/lumenflow/internal/eventstore"
	"github.com/lumenflow/lumenflow/internal/git"
	"github.com/lumenflow/lumenflow/internal/lock"
	"github.com/lumenflow/lumenflow/internal/pipeline"
	"github.com/lumenflow/lumenflow/internal/ports"
	"github.com/lumenflow/lumenflow/internal/registry"
	"github.com/lumenflow/lumenflow/internal/signal"
)

// WireDeps assembles a pipeline.Deps for a workspace rooted at repoRoot:
// config first, then each collaborator built from it in dependency order.
func WireDeps(repoRoot string) (*pipeline.Deps, error) {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// Pipeline functions treat Config's paths as already resolved, so make
	// every workspace-relative path absolute once here rather than joining
	// repoRoot back in at every call site.
	absolutize(&cfg.WuDir, repoRoot)
	absolutize(&cfg.BacklogPath, repoRoot)
	absolutize(&cfg.InitiativeDir, repoRoot)
	absolutize(&cfg.WorktreesDir, repoRoot)
	absolutize(&cfg.StateDir, repoRoot)
	absolutize(&cfg.StampsDir, repoRoot)
	absolutize(&cfg.LogDir, repoRoot)

	runner := git.DefaultRunner()

	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	wtMgr := git.NewWorktreeManager(runner, repoRoot, cfg.WorktreesDir, cfg.Git.DefaultRemote, cfg.Git.RequireRemote)
	gates := pipeline.BuildGateChain(cfg.Gates, ports.OSProcessRunner{})

	escalator, err := escalate.FromConfig(escalate.Config{
		Backend:    cfg.Escalate.Backend,
		WebhookURL: cfg.Escalate.WebhookURL,
	})
	if err != nil {
		return nil, fmt.Errorf("configure escalation backend: %w", err)
	}

	return &pipeline.Deps{
		Config:       cfg,
		Runner:       runner,
		Registry:     registry.NewStandard(),
		WuStore:      eventstore.NewStore(filepath.Join(cfg.StateDir, "wu-events.jsonl")),
		SignalLog:    signal.NewLog(filepath.Join(cfg.StateDir, "signals.jsonl")),
		WorktreeMgr:  wtMgr,
		MergeLock:    lock.NewMerge(filepath.Join(cfg.StateDir, "merge.lock")),
		Gates:        gates,
		MainCheckout: repoRoot,
		Remote:       cfg.Git.DefaultRemote,
		Escalator:    escalator,
	}, nil
}

// absolutize rewrites *path to be rooted at repoRoot unless it is already
// absolute, matching how the workspace config file documents these paths
// (relative to the repository root).
func absolutize(path *string, repoRoot string) {
	if *path == "" || filepath.IsAbs(*path) {
		return
	}
	*path = filepath.Join(repoRoot, *path)
}
