package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lumenflow/lumenflow/internal/backlog"
	"github.com/lumenflow/lumenflow/internal/errs"
	"github.com/lumenflow/lumenflow/internal/escalate"
	"github.com/lumenflow/lumenflow/internal/eventstore"
	"github.com/lumenflow/lumenflow/internal/gate"
	"github.com/lumenflow/lumenflow/internal/git"
	"github.com/lumenflow/lumenflow/internal/initiative"
	"github.com/lumenflow/lumenflow/internal/lock"
	"github.com/lumenflow/lumenflow/internal/signal"
	"github.com/lumenflow/lumenflow/internal/wu"
)

// FailureTier classifies where in the §4.8 algorithm a DonePipeline run
// failed, so a caller (wu:recover) knows how much state to reconcile.
type FailureTier string

const (
	TierNone                      FailureTier = ""
	TierPreCommit                 FailureTier = "pre-commit"
	TierPostCommitPreMerge        FailureTier = "post-commit-pre-merge"
	TierPostMergePrePush          FailureTier = "post-merge-pre-push"
	TierPostMergePostPushPreClean FailureTier = "post-merge-post-push-pre-cleanup"
)

// DoneResult is the outcome of DonePipeline.
type DoneResult struct {
	WuID            string
	MergeSucceeded  bool
	Pushed          bool
	WorktreeRemoved bool
	Gates           gate.RunResult
	Tier            FailureTier
}

// DonePipeline implements wu:done's 11-step merge algorithm (§4.8):
// acquire lock, run gates, preflight, snapshot+update metadata, commit,
// auto-rebase with rollback-on-conflict, append the complete event,
// fast-forward merge onto main, push, retire the worktree, release the
// lock. Failure before the git commit leaves the worktree byte-identical
// to before the call (§8); failure after is classified by Tier so
// wu:recover knows what to reconcile.
func DonePipeline(ctx context.Context, deps *Deps, wuID string, force bool) (DoneResult, error) {
	wuYAMLPath := wu.Path(deps.Config.WuDir, wuID)
	w, err := wu.Load(wuYAMLPath)
	if err != nil {
		return DoneResult{WuID: wuID}, errs.Wrap(errs.KindWuNotFound, fmt.Sprintf("load %s", wuID), err)
	}
	if w.WorktreePath == "" || w.ClaimedBranch == "" {
		return DoneResult{WuID: wuID}, errs.New(errs.KindWorktreeMissing, fmt.Sprintf("%s has no recorded worktree/branch", wuID))
	}

	if !force {
		guard, err := checkDirtyMainGuard(ctx, deps, w, wuYAMLPath)
		if err != nil {
			return DoneResult{WuID: wuID}, errs.Wrap(errs.KindInconsistentState, "check dirty-main guard", err)
		}
		if !guard.Valid {
			return DoneResult{WuID: wuID}, errs.New(errs.KindDirtyGit, fmt.Sprintf("main has unrelated changes, blocking done: %v (use --force to override)", guard.UnrelatedFiles))
		}
	} else if deps.SignalLog != nil {
		_ = deps.SignalLog.Append(signal.Signal{
			ID:        wuID + "-force-done-" + time.Now().UTC().Format("20060102T150405"),
			Message:   "dirty-main guard bypassed with --force",
			CreatedAt: time.Now().UTC(),
			WuID:      wuID,
			Type:      "force-done",
			Origin:    signal.OriginLocal,
		})
	}

	result := DoneResult{WuID: wuID}
	err = deps.MergeLock.WithMergeLock(wuID, deps.lockOptions(), func() error {
		return runDoneSteps(ctx, deps, w, wuYAMLPath, &result)
	})
	if err != nil && result.Tier == TierNone {
		deps.escalate(ctx, escalate.Escalation{
			Severity: escalate.SeverityWarning,
			Unit:     wuID,
			Title:    "merge lock unavailable",
			Message:  err.Error(),
		})
		return result, errs.Wrap(errs.KindLockError, "acquire merge lock", err)
	}
	return result, err
}

// checkDirtyMainGuard runs the §4.8 dirty-main guard against deps.MainCheckout:
// any unstaged or staged change there must lie under w's code_paths or the
// metadata allowlist, or wu:done refuses to proceed.
func checkDirtyMainGuard(ctx context.Context, deps *Deps, w *wu.WorkUnit, wuYAMLPath string) (wu.GuardResult, error) {
	out, err := deps.Runner.Exec(ctx, deps.MainCheckout, "status", "--porcelain")
	if err != nil {
		return wu.GuardResult{}, fmt.Errorf("read main status: %w", err)
	}

	stampPath := filepath.Join(deps.Config.StampsDir, w.ID+".done")
	eventsLogPath := filepath.Join(deps.Config.StateDir, "wu-events.jsonl")
	var initiativePath string
	if w.Initiative != "" {
		initiativePath = initiative.Path(deps.Config.InitiativeDir, w.Initiative)
	}

	allowlist := wu.MetadataAllowlist(
		relToMainCheckout(deps.MainCheckout, wuYAMLPath),
		"status.md",
		relToMainCheckout(deps.MainCheckout, deps.Config.BacklogPath),
		relToMainCheckout(deps.MainCheckout, stampPath),
		relToMainCheckout(deps.MainCheckout, eventsLogPath),
		relToMainCheckout(deps.MainCheckout, initiativePath),
	)
	return wu.CheckDirtyMain(strings.Split(out, "\n"), w.CodePaths, allowlist), nil
}

// relToMainCheckout expresses an absolute metadata path relative to the main
// checkout, matching the paths `git status --porcelain` reports; paths
// outside the checkout (or empty) are passed through unchanged.
func relToMainCheckout(mainCheckout, path string) string {
	if path == "" {
		return ""
	}
	rel, err := filepath.Rel(mainCheckout, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func runDoneSteps(ctx context.Context, deps *Deps, w *wu.WorkUnit, wuYAMLPath string, result *DoneResult) error {
	worktreePath := w.WorktreePath
	branch := w.ClaimedBranch

	changedFiles, err := git.ChangedFiles(ctx, deps.Runner, worktreePath, deps.Config.MainBranch)
	if err != nil {
		result.Tier = TierPreCommit
		return errs.Wrap(errs.KindGatesNotPassed, "list changed files", err)
	}

	var gateRun gate.RunResult
	if deps.Config.Gates.Parallel {
		gateRun = deps.Gates.RunParallel(ctx, worktreePath, changedFiles, deps.Config.Gates.MaxParallel)
	} else {
		gateRun = deps.Gates.Run(ctx, worktreePath, changedFiles)
	}
	result.Gates = gateRun
	if !gateRun.Passed {
		result.Tier = TierPreCommit
		deps.escalate(ctx, escalate.Escalation{
			Severity: escalate.SeverityCritical,
			Unit:     w.ID,
			Title:    "gates failed",
			Message:  fmt.Sprintf("%d of %d gates failed", gateRun.FailedCount, len(gateRun.Results)),
		})
		return errs.New(errs.KindGatesNotPassed, fmt.Sprintf("%d of %d gates failed", gateRun.FailedCount, len(gateRun.Results)))
	}

	if r := wu.ValidateSchema(w); !r.Valid() {
		result.Tier = TierPreCommit
		return errs.New(errs.KindInconsistentState, fmt.Sprintf("schema validation failed: %+v", r.Issues))
	}
	if r := wu.PreflightCodePaths(w, worktreePath); !r.Valid() {
		result.Tier = TierPreCommit
		return errs.New(errs.KindInconsistentState, fmt.Sprintf("code_paths preflight failed: %+v", r.Issues))
	}

	backlogPath := deps.Config.BacklogPath
	stampPath := filepath.Join(deps.Config.StampsDir, w.ID+".done")
	var initiativePath string
	if w.Initiative != "" {
		initiativePath = initiative.Path(deps.Config.InitiativeDir, w.Initiative)
	}

	snapshotPaths := []string{wuYAMLPath, backlogPath, stampPath}
	if initiativePath != "" {
		snapshotPaths = append(snapshotPaths, initiativePath)
	}
	txn, err := lock.Begin(snapshotPaths)
	if err != nil {
		result.Tier = TierPreCommit
		return errs.Wrap(errs.KindInconsistentState, "snapshot metadata", err)
	}

	if err := writeDoneMetadata(deps, w, wuYAMLPath, backlogPath, stampPath, initiativePath); err != nil {
		_ = txn.Restore()
		result.Tier = TierPreCommit
		return errs.Wrap(errs.KindInconsistentState, "write done metadata", err)
	}

	preCommitSHA, err := git.HeadSHA(ctx, deps.Runner, worktreePath)
	if err != nil {
		_ = txn.Restore()
		result.Tier = TierPreCommit
		return errs.Wrap(errs.KindInconsistentState, "resolve pre-commit HEAD", err)
	}

	if err := git.Add(ctx, deps.Runner, worktreePath, "."); err != nil {
		_ = txn.Restore()
		result.Tier = TierPreCommit
		return errs.Wrap(errs.KindInconsistentState, "stage done metadata", err)
	}
	if err := git.Commit(ctx, deps.Runner, worktreePath, git.CommitOptions{Message: fmt.Sprintf("%s: mark done", w.ID)}); err != nil {
		_ = txn.Restore()
		result.Tier = TierPreCommit
		return errs.Wrap(errs.KindInconsistentState, "commit done metadata", err)
	}
	txn.Commit()

	rebase, err := deps.WorktreeMgr.AutoRebase(ctx, worktreePath, branch, w.ID, nil)
	if err != nil {
		result.Tier = TierPostCommitPreMerge
		return errs.Wrap(errs.KindInconsistentState, "auto-rebase onto main", err)
	}
	if !rebase.Success {
		_ = git.ResetHard(ctx, deps.Runner, worktreePath, preCommitSHA)
		_ = txn.Restore()
		result.Tier = TierPostCommitPreMerge
		return errs.New(errs.KindInconsistentState, "rebase conflict: "+rebase.ConflictSummary)
	}

	if err := deps.WuStore.Append(eventstore.Event{
		Type:      eventstore.EventComplete,
		WuID:      w.ID,
		Timestamp: time.Now().UTC(),
		Lane:      w.Lane,
	}); err != nil {
		result.Tier = TierPostCommitPreMerge
		return errs.Wrap(errs.KindInconsistentState, "append complete event", err)
	}

	if err := git.MergeFastForwardOnly(ctx, deps.Runner, deps.MainCheckout, branch); err != nil {
		result.Tier = TierPostCommitPreMerge
		return errs.Wrap(errs.KindInconsistentState, "fast-forward merge", err)
	}
	result.MergeSucceeded = true

	if !deps.NoPush {
		retry := RetryWithBackoff(ctx, DefaultRetryConfig, func(ctx context.Context) error {
			return git.Push(ctx, deps.Runner, deps.MainCheckout, deps.remote(), deps.Config.MainBranch)
		})
		if !retry.Success {
			result.Tier = TierPostMergePrePush
			return errs.Wrap(errs.KindRemoteUnavailable, "push main after merge", retry.LastErr)
		}
		result.Pushed = true
	}

	if err := deps.WorktreeMgr.Delete(ctx, w.ID, w.Lane, git.DeleteOptions{Force: true}); err != nil {
		result.Tier = TierPostMergePostPushPreClean
		return errs.Wrap(errs.KindWorktreeMissing, "retire worktree", err)
	}
	result.WorktreeRemoved = true

	return nil
}

func writeDoneMetadata(deps *Deps, w *wu.WorkUnit, wuYAMLPath, backlogPath, stampPath, initiativePath string) error {
	w.Status = wu.StatusDone
	if err := wu.Save(wuYAMLPath, w); err != nil {
		return err
	}

	doc, err := backlog.LoadDocument(backlogPath)
	if err != nil {
		return err
	}
	doc.MoveEntry(w.ID, w.Title, "Done")
	if err := backlog.SaveDocument(backlogPath, doc); err != nil {
		return err
	}

	if initiativePath != "" {
		if err := updateInitiativeForDone(deps, w, initiativePath); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(stampPath), 0o755); err != nil {
		return err
	}
	stamp := w.Title + "\t" + time.Now().UTC().Format(time.RFC3339) + "\n"
	return os.WriteFile(stampPath, []byte(stamp), 0o644)
}

func updateInitiativeForDone(deps *Deps, w *wu.WorkUnit, initiativePath string) error {
	ini, err := initiative.Load(initiativePath)
	if err != nil {
		return err
	}

	allUnits, err := wu.LoadAll(deps.Config.WuDir)
	if err != nil {
		return err
	}

	var phaseMembers, allMembers []wu.Status
	for _, u := range allUnits {
		if u.Initiative != w.Initiative {
			continue
		}
		allMembers = append(allMembers, u.Status)
		if u.Phase == w.Phase {
			phaseMembers = append(phaseMembers, u.Status)
		}
	}

	for i := range ini.Phases {
		if ini.Phases[i].ID == w.Phase {
			ini.Phases[i].Status = initiative.ProjectPhaseStatus(phaseMembers)
		}
	}
	ini.Status = initiative.ProjectInitiativeStatus(allMembers, ini.Phases, ini.Status)

	return initiative.Save(initiativePath, ini)
}
