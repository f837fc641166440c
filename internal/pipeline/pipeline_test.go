package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenflow/lumenflow/internal/config"
	"github.com/lumenflow/lumenflow/internal/errs"
	"github.com/lumenflow/lumenflow/internal/eventstore"
	"github.com/lumenflow/lumenflow/internal/gate"
	"github.com/lumenflow/lumenflow/internal/git"
	"github.com/lumenflow/lumenflow/internal/lock"
	"github.com/lumenflow/lumenflow/internal/registry"
	"github.com/lumenflow/lumenflow/internal/signal"
	"github.com/lumenflow/lumenflow/internal/testutil"
	"github.com/lumenflow/lumenflow/internal/wu"
)

type fakeProcessRunner struct {
	byCommand map[string]struct {
		exitCode int
		err      error
	}
}

func newFakeProcessRunner() *fakeProcessRunner {
	return &fakeProcessRunner{byCommand: make(map[string]struct {
		exitCode int
		err      error
	})}
}

func (f *fakeProcessRunner) stub(cmd string, exitCode int, err error) {
	f.byCommand[cmd] = struct {
		exitCode int
		err      error
	}{exitCode, err}
}

func (f *fakeProcessRunner) Run(ctx context.Context, dir, shellCommand string) (string, int, error) {
	if r, ok := f.byCommand[shellCommand]; ok {
		return "", r.exitCode, r.err
	}
	return "", 0, nil
}

func writeWU(t *testing.T, wuDir string, w *wu.WorkUnit) {
	t.Helper()
	require.NoError(t, wu.Save(wu.Path(wuDir, w.ID), w))
}

func newTestDeps(t *testing.T, runner git.Runner, procRunner *fakeProcessRunner, gates []gate.Definition) (*Deps, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.WuDir = filepath.Join(dir, "wu")
	cfg.BacklogPath = filepath.Join(dir, "backlog.md")
	cfg.InitiativeDir = filepath.Join(dir, "initiatives")
	cfg.StampsDir = filepath.Join(dir, "stamps")
	cfg.Lock.WaitMs = 50
	cfg.Lock.StaleMs = 60000
	cfg.Lock.PollIntervalMs = 5
	require.NoError(t, os.MkdirAll(cfg.WuDir, 0o755))

	deps := &Deps{
		Config:       cfg,
		Runner:       runner,
		Registry:     registry.NewStandard(),
		WuStore:      eventstore.NewStore(filepath.Join(dir, "wu-events.jsonl")),
		MergeLock:    lock.NewMerge(filepath.Join(dir, "merge.lock")),
		WorktreeMgr:  git.NewWorktreeManager(runner, filepath.Join(dir, "main"), "worktrees", "origin", false),
		Gates:        gate.Chain{Gates: gates, FailFast: true, Runner: procRunner},
		MainCheckout: filepath.Join(dir, "main"),
		NoPush:       true,
	}
	return deps, dir
}

func TestClaimPipeline_LaneOccupiedBlocksClaim(t *testing.T) {
	runner := testutil.NewStubRunner()
	runner.StubDefault("rev-parse --show-toplevel", "/repo", nil)
	runner.StubDefault("rev-parse --git-dir", ".git", nil)
	runner.StubDefault("symbolic-ref HEAD", "refs/heads/main", nil)

	deps, _ := newTestDeps(t, runner, newFakeProcessRunner(), nil)

	writeWU(t, deps.Config.WuDir, &wu.WorkUnit{
		ID: "WU-2", Title: "second", Lane: "core", Type: wu.TypeFeature,
		Status: wu.StatusReady, Created: "2026-01-01",
	})

	require.NoError(t, deps.WuStore.Append(eventstore.Event{
		Type: eventstore.EventClaim, WuID: "WU-1", Lane: "core", Timestamp: time.Now().UTC(),
	}))

	_, err := ClaimPipeline(context.Background(), deps, "/repo", "WU-2")
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindLaneOccupied))
}

func TestClaimPipeline_WrongLocationIsRejected(t *testing.T) {
	runner := testutil.NewStubRunner()
	runner.StubDefault("rev-parse --show-toplevel", "/repo/worktrees/core-wu-2", nil)
	runner.StubDefault("rev-parse --git-dir", "/repo/.git/worktrees/core-wu-2", nil)
	runner.StubDefault("symbolic-ref HEAD", "refs/heads/lane/core/wu-2", nil)
	runner.StubDefault("worktree list --porcelain", "worktree /repo\nHEAD abc\nbranch refs/heads/main\n", nil)

	deps, _ := newTestDeps(t, runner, newFakeProcessRunner(), nil)

	writeWU(t, deps.Config.WuDir, &wu.WorkUnit{
		ID: "WU-2", Title: "second", Lane: "core", Type: wu.TypeFeature,
		Status: wu.StatusReady, Created: "2026-01-01",
	})

	_, err := ClaimPipeline(context.Background(), deps, "/repo/worktrees/core-wu-2", "WU-2")
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindWrongLocation))
}

func TestDonePipeline_FailingGateBlocksCommit(t *testing.T) {
	runner := testutil.NewStubRunner()
	runner.StubDefault("status --porcelain", "", nil)
	runner.StubDefault("diff --name-only main...HEAD", "internal/foo.go\n", nil)

	proc := newFakeProcessRunner()
	proc.stub("exit 1", 1, nil)

	deps, dir := newTestDeps(t, runner, proc, []gate.Definition{{Name: "test", Command: "exit 1"}})

	worktreePath := filepath.Join(dir, "main", "worktrees", "core-wu-2")
	require.NoError(t, os.MkdirAll(worktreePath, 0o755))

	w := &wu.WorkUnit{
		ID: "WU-2", Title: "second", Lane: "core", Type: wu.TypeFeature,
		Status: wu.StatusInProgress, Created: "2026-01-01",
		ClaimedBranch: "lane/core/wu-2", WorktreePath: worktreePath,
	}
	writeWU(t, deps.Config.WuDir, w)

	result, err := DonePipeline(context.Background(), deps, "WU-2", false)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindGatesNotPassed))
	assert.Equal(t, TierPreCommit, result.Tier)
	assert.False(t, result.MergeSucceeded)

	reloaded, loadErr := wu.Load(wu.Path(deps.Config.WuDir, "WU-2"))
	require.NoError(t, loadErr)
	assert.Equal(t, wu.StatusInProgress, reloaded.Status, "a pre-commit failure must not touch the WU YAML")
}

func TestDonePipeline_HappyPathMergesAndRetiresWorktree(t *testing.T) {
	runner := testutil.NewStubRunner()
	runner.StubDefault("status --porcelain", "", nil)
	runner.StubDefault("diff --name-only main...HEAD", "docs/readme.md\n", nil)
	runner.StubDefault("rev-parse HEAD", "abc123", nil)
	runner.StubDefault("add .", "", nil)
	runner.StubDefault(`commit -m WU-2: mark done`, "", nil)
	runner.StubDefault("status --porcelain=v1 -b", "## lane/core/wu-2...origin/lane/core/wu-2\n", nil)
	runner.StubDefault("fetch origin main", "", nil)
	runner.StubDefault("rebase origin/main", "", nil)
	runner.StubDefault("merge --ff-only lane/core/wu-2", "", nil)

	proc := newFakeProcessRunner()
	proc.stub("true", 0, nil)

	deps, dir := newTestDeps(t, runner, proc, []gate.Definition{{Name: "lint", Command: "true"}})

	worktreePath := filepath.Join(dir, "main", "worktrees", "core-wu-2")
	require.NoError(t, os.MkdirAll(worktreePath, 0o755))
	runner.StubDefault("worktree remove "+worktreePath+" --force", "", nil)
	runner.StubDefault("branch -D lane/core/wu-2", "", nil)

	w := &wu.WorkUnit{
		ID: "WU-2", Title: "second", Lane: "core", Type: wu.TypeFeature,
		Status: wu.StatusInProgress, Created: "2026-01-01",
		ClaimedBranch: "lane/core/wu-2", WorktreePath: worktreePath,
	}
	writeWU(t, deps.Config.WuDir, w)
	require.NoError(t, deps.WuStore.Append(eventstore.Event{
		Type: eventstore.EventClaim, WuID: "WU-2", Lane: "core", Timestamp: time.Now().UTC(),
	}))

	result, err := DonePipeline(context.Background(), deps, "WU-2", false)
	require.NoError(t, err)
	assert.True(t, result.MergeSucceeded)
	assert.True(t, result.WorktreeRemoved)
	assert.False(t, result.Pushed, "NoPush was set")

	reloaded, loadErr := wu.Load(wu.Path(deps.Config.WuDir, "WU-2"))
	require.NoError(t, loadErr)
	assert.Equal(t, wu.StatusDone, reloaded.Status)

	projected, projErr := deps.WuStore.ProjectOne("WU-2")
	require.NoError(t, projErr)
	assert.Equal(t, eventstore.StatusDone, projected.Status)

	_, statErr := os.Stat(filepath.Join(deps.Config.StampsDir, "WU-2.done"))
	assert.NoError(t, statErr)
}

func TestRecoverPipeline_CleanupRemovesWorktreeAndClearsLock(t *testing.T) {
	runner := testutil.NewStubRunner()
	runner.StubDefault("status --porcelain=v1 -b", "## lane/core/wu-2\n", nil)

	deps, dir := newTestDeps(t, runner, newFakeProcessRunner(), nil)

	worktreePath := filepath.Join(dir, "main", "worktrees", "core-wu-2")
	require.NoError(t, os.MkdirAll(worktreePath, 0o755))
	runner.StubDefault("worktree remove "+worktreePath+" --force", "", nil)
	runner.StubDefault("branch -D lane/core/wu-2", "", nil)

	w := &wu.WorkUnit{
		ID: "WU-2", Title: "second", Lane: "core", Type: wu.TypeFeature,
		Status: wu.StatusInProgress, Created: "2026-01-01",
		ClaimedBranch: "lane/core/wu-2", WorktreePath: worktreePath,
	}
	writeWU(t, deps.Config.WuDir, w)

	result, err := RecoverPipeline(context.Background(), deps, "WU-2", RecoverCleanup)
	require.NoError(t, err)
	assert.Contains(t, result.Notes, "worktree removed")
	assert.Contains(t, result.Notes, "merge lock cleared")
}

func TestStatusPipeline_ReportsInconsistency(t *testing.T) {
	runner := testutil.NewStubRunner()
	runner.StubDefault("rev-parse --show-toplevel", "/repo", nil)
	runner.StubDefault("rev-parse --git-dir", ".git", nil)
	runner.StubDefault("symbolic-ref HEAD", "refs/heads/main", nil)

	deps, _ := newTestDeps(t, runner, newFakeProcessRunner(), nil)

	writeWU(t, deps.Config.WuDir, &wu.WorkUnit{
		ID: "WU-3", Title: "third", Lane: "core", Type: wu.TypeFeature,
		Status: wu.StatusReady, Created: "2026-01-01",
	})
	require.NoError(t, deps.WuStore.Append(eventstore.Event{
		Type: eventstore.EventClaim, WuID: "WU-3", Timestamp: time.Now().UTC(),
	}))

	report, err := StatusPipeline(context.Background(), deps, "/repo", "WU-3")
	require.NoError(t, err)
	assert.NotEmpty(t, report.Inconsistency)
	assert.Equal(t, eventstore.StatusInProgress, report.Projected.Status)
}

func TestDonePipeline_RebaseConflictRollsBackToPreCommitSHA(t *testing.T) {
	runner := testutil.NewStubRunner()
	runner.StubDefault("status --porcelain", "", nil)
	runner.StubDefault("diff --name-only main...HEAD", "internal/foo.go\n", nil)
	runner.StubDefault("rev-parse HEAD", "abc123", nil)
	runner.StubDefault("add .", "", nil)
	runner.StubDefault(`commit -m WU-2: mark done`, "", nil)
	runner.StubDefault("status --porcelain=v1 -b", "## lane/core/wu-2...origin/lane/core/wu-2\n", nil)
	runner.StubDefault("fetch origin main", "", nil)
	runner.StubDefault("rebase origin/main", "", errors.New("conflict"))
	runner.StubDefault("diff --name-only --diff-filter=U", "internal/foo.go\n", nil)
	runner.StubDefault("rebase --abort", "", nil)
	runner.StubDefault("reset --hard abc123", "", nil)

	proc := newFakeProcessRunner()
	proc.stub("true", 0, nil)

	deps, dir := newTestDeps(t, runner, proc, []gate.Definition{{Name: "lint", Command: "true"}})

	worktreePath := filepath.Join(dir, "main", "worktrees", "core-wu-2")
	require.NoError(t, os.MkdirAll(worktreePath, 0o755))

	w := &wu.WorkUnit{
		ID: "WU-2", Title: "second", Lane: "core", Type: wu.TypeFeature,
		Status: wu.StatusInProgress, Created: "2026-01-01",
		ClaimedBranch: "lane/core/wu-2", WorktreePath: worktreePath,
	}
	writeWU(t, deps.Config.WuDir, w)

	result, err := DonePipeline(context.Background(), deps, "WU-2", false)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindInconsistentState))
	assert.Equal(t, TierPostCommitPreMerge, result.Tier)
	assert.False(t, result.MergeSucceeded)
	assert.Equal(t, 1, runner.CallsFor("reset", "--hard", "abc123"))

	reloaded, loadErr := wu.Load(wu.Path(deps.Config.WuDir, "WU-2"))
	require.NoError(t, loadErr)
	assert.Equal(t, wu.StatusInProgress, reloaded.Status, "a rolled-back rebase must leave the WU YAML untouched")
}

func TestDonePipeline_DirtyMainBlocksUnrelatedChange(t *testing.T) {
	runner := testutil.NewStubRunner()
	runner.StubDefault("status --porcelain", " M packages/memory/src/memory-store.ts\n", nil)

	deps, dir := newTestDeps(t, runner, newFakeProcessRunner(), nil)

	worktreePath := filepath.Join(dir, "main", "worktrees", "core-wu-2")
	require.NoError(t, os.MkdirAll(worktreePath, 0o755))

	w := &wu.WorkUnit{
		ID: "WU-2", Title: "second", Lane: "core", Type: wu.TypeFeature,
		Status: wu.StatusInProgress, Created: "2026-01-01",
		ClaimedBranch: "lane/core/wu-2", WorktreePath: worktreePath,
		CodePaths: []string{"packages/cli/src/wu-done.ts"},
	}
	writeWU(t, deps.Config.WuDir, w)

	result, err := DonePipeline(context.Background(), deps, "WU-2", false)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindDirtyGit))
	assert.Equal(t, TierNone, result.Tier)
}

func TestDonePipeline_ForceBypassesDirtyMainGuardAndRecordsSignal(t *testing.T) {
	runner := testutil.NewStubRunner()
	runner.StubDefault("status --porcelain", " M packages/memory/src/memory-store.ts\n", nil)
	runner.StubDefault("diff --name-only main...HEAD", "docs/readme.md\n", nil)
	runner.StubDefault("rev-parse HEAD", "abc123", nil)
	runner.StubDefault("add .", "", nil)
	runner.StubDefault(`commit -m WU-2: mark done`, "", nil)
	runner.StubDefault("status --porcelain=v1 -b", "## lane/core/wu-2...origin/lane/core/wu-2\n", nil)
	runner.StubDefault("fetch origin main", "", nil)
	runner.StubDefault("rebase origin/main", "", nil)
	runner.StubDefault("merge --ff-only lane/core/wu-2", "", nil)

	proc := newFakeProcessRunner()
	proc.stub("true", 0, nil)

	deps, dir := newTestDeps(t, runner, proc, []gate.Definition{{Name: "lint", Command: "true"}})
	deps.SignalLog = signal.NewLog(filepath.Join(dir, "signals.jsonl"))

	worktreePath := filepath.Join(dir, "main", "worktrees", "core-wu-2")
	require.NoError(t, os.MkdirAll(worktreePath, 0o755))
	runner.StubDefault("worktree remove "+worktreePath+" --force", "", nil)
	runner.StubDefault("branch -D lane/core/wu-2", "", nil)

	w := &wu.WorkUnit{
		ID: "WU-2", Title: "second", Lane: "core", Type: wu.TypeFeature,
		Status: wu.StatusInProgress, Created: "2026-01-01",
		ClaimedBranch: "lane/core/wu-2", WorktreePath: worktreePath,
	}
	writeWU(t, deps.Config.WuDir, w)

	result, err := DonePipeline(context.Background(), deps, "WU-2", true)
	require.NoError(t, err)
	assert.True(t, result.MergeSucceeded)

	signals, signalErr := deps.SignalLog.All()
	require.NoError(t, signalErr)
	require.Len(t, signals, 1)
	assert.Equal(t, "force-done", signals[0].Type)
}
