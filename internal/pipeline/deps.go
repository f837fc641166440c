// Package pipeline wires the context resolver, command registry, event
// store, worktree manager, gate runner, and merge lock into the operations
// the CLI exposes: claiming a ready WU into an isolated worktree
// (§4.1-§4.5), merging a completed one back into main (§4.8), and the
// recover, gate, status and validate pipelines.
package pipeline

import (
	"context"

	"github.com/lumenflow/lumenflow/internal/config"
	"github.com/lumenflow/lumenflow/internal/escalate"
	"github.com/lumenflow/lumenflow/internal/eventstore"
	"github.com/lumenflow/lumenflow/internal/gate"
	"github.com/lumenflow/lumenflow/internal/git"
	"github.com/lumenflow/lumenflow/internal/lock"
	"github.com/lumenflow/lumenflow/internal/registry"
	"github.com/lumenflow/lumenflow/internal/signal"
)

// Deps bundles every collaborator a pipeline needs, assembled by
// internal/cli's WireDeps and passed down rather than constructed ad hoc
// inside each pipeline function.
type Deps struct {
	Config       *config.Config
	Runner       git.Runner
	Registry     *registry.Registry
	WuStore      *eventstore.Store
	SignalLog    *signal.Log
	WorktreeMgr  *git.WorktreeManager
	MergeLock    *lock.Merge
	Gates        gate.Chain
	MainCheckout string
	Remote       string
	NoPush       bool
	Escalator    escalate.Escalator
}

// escalate sends e through the configured Escalator, swallowing delivery
// errors: a failed notification must never turn a completed pipeline step
// into a pipeline error.
func (d *Deps) escalate(ctx context.Context, e escalate.Escalation) {
	if d.Escalator == nil {
		return
	}
	_ = d.Escalator.Escalate(ctx, e)
}

func (d *Deps) lockOptions() lock.Options {
	return lock.Options{
		WaitMs:         d.Config.Lock.WaitMs,
		StaleMs:        d.Config.Lock.StaleMs,
		PollIntervalMs: d.Config.Lock.PollIntervalMs,
	}
}

func (d *Deps) remote() string {
	if d.Remote != "" {
		return d.Remote
	}
	if d.Config.Git.DefaultRemote != "" {
		return d.Config.Git.DefaultRemote
	}
	return "origin"
}
