package pipeline

import (
	"context"
	"fmt"

	"github.com/lumenflow/lumenflow/internal/errs"
	"github.com/lumenflow/lumenflow/internal/eventstore"
	"github.com/lumenflow/lumenflow/internal/git"
	"github.com/lumenflow/lumenflow/internal/wu"
)

// RecoverAction selects what RecoverPipeline does for a stuck WU.
type RecoverAction string

const (
	RecoverResume  RecoverAction = "resume"
	RecoverReset   RecoverAction = "reset"
	RecoverCleanup RecoverAction = "cleanup"
)

// RecoverResult is the outcome of RecoverPipeline.
type RecoverResult struct {
	WuID   string
	Action RecoverAction
	Notes  []string
}

// RecoverPipeline implements wu:recover: it never runs the merge pipeline,
// only reconciles the three kinds of stuck state a failed wu:done tier can
// leave behind (§4.8's failure tiers; §7's INCONSISTENT_STATE).
//
//   - resume:  the worktree/branch/lock are all intact; just report where
//     the WU left off (YAML/event-store consistency, worktree git status)
//     so work can continue.
//   - reset:   roll the worktree back to its lane branch's last known-good
//     commit and release a stale merge lock, without touching main.
//   - cleanup: a merge that DID land on main (MergeSucceeded) but left its
//     worktree or lock behind; finish the cleanup steps idempotently.
func RecoverPipeline(ctx context.Context, deps *Deps, wuID string, action RecoverAction) (RecoverResult, error) {
	wuYAMLPath := wu.Path(deps.Config.WuDir, wuID)
	w, err := wu.Load(wuYAMLPath)
	if err != nil {
		return RecoverResult{}, errs.Wrap(errs.KindWuNotFound, fmt.Sprintf("load %s", wuID), err)
	}

	result := RecoverResult{WuID: wuID, Action: action}

	switch action {
	case RecoverResume:
		projected, perr := deps.WuStore.ProjectOne(wuID)
		if perr != nil {
			return result, errs.Wrap(errs.KindInconsistentState, "project WU state", perr)
		}
		if reason := eventstore.DetectInconsistency(eventstore.Status(w.Status), projected.Status); reason != "" {
			result.Notes = append(result.Notes, reason)
		}
		if w.WorktreePath != "" {
			st := git.ReadStatus(ctx, deps.Runner, w.WorktreePath)
			if st.HasError {
				result.Notes = append(result.Notes, "worktree status unreadable: "+st.ErrorMessage)
			} else if st.IsDirty {
				result.Notes = append(result.Notes, fmt.Sprintf("worktree has %d uncommitted change(s)", len(st.ModifiedFiles)))
			}
		}
		return result, nil

	case RecoverReset:
		if w.WorktreePath == "" || w.ClaimedBranch == "" {
			return result, errs.New(errs.KindWorktreeMissing, fmt.Sprintf("%s has no worktree to reset", wuID))
		}
		if err := deps.WorktreeMgr.EnsureOnBranch(ctx, w.WorktreePath, w.ClaimedBranch); err != nil {
			return result, errs.Wrap(errs.KindInconsistentState, "ensure on lane branch", err)
		}
		head, err := git.HeadSHA(ctx, deps.Runner, w.WorktreePath)
		if err != nil {
			return result, errs.Wrap(errs.KindInconsistentState, "resolve lane HEAD", err)
		}
		if err := git.ResetHard(ctx, deps.Runner, w.WorktreePath, head); err != nil {
			return result, errs.Wrap(errs.KindInconsistentState, "reset worktree", err)
		}
		if acquireErr := releaseStaleLock(deps, wuID, &result); acquireErr != nil {
			return result, acquireErr
		}
		return result, nil

	case RecoverCleanup:
		if w.WorktreePath != "" {
			if err := deps.WorktreeMgr.Delete(ctx, wuID, w.Lane, git.DeleteOptions{Force: true}); err != nil {
				return result, errs.Wrap(errs.KindWorktreeMissing, "retire worktree", err)
			}
			result.Notes = append(result.Notes, "worktree removed")
		}
		if err := releaseStaleLock(deps, wuID, &result); err != nil {
			return result, err
		}
		return result, nil

	default:
		return result, errs.New(errs.KindUnknownCommand, fmt.Sprintf("unknown recover action %q", action))
	}
}

// releaseStaleLock acquires (idempotently, since the same wuId re-enters)
// and immediately releases the merge lock, clearing it if it was left
// behind by a crashed wu:done run.
func releaseStaleLock(deps *Deps, wuID string, result *RecoverResult) error {
	acquired, err := deps.MergeLock.Acquire(wuID, deps.lockOptions())
	if err != nil {
		return errs.Wrap(errs.KindLockError, "acquire merge lock for recovery", err)
	}
	if !acquired.Acquired {
		result.Notes = append(result.Notes, fmt.Sprintf("merge lock still held by %s", acquired.HeldBy))
		return nil
	}
	if err := deps.MergeLock.Release(acquired.LockID); err != nil {
		return errs.Wrap(errs.KindLockError, "release merge lock", err)
	}
	result.Notes = append(result.Notes, "merge lock cleared")
	return nil
}
