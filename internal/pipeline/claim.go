package pipeline

import (
	"context"
	"fmt"
	"time"

	lfcontext "github.com/lumenflow/lumenflow/internal/context"
	"github.com/lumenflow/lumenflow/internal/errs"
	"github.com/lumenflow/lumenflow/internal/eventstore"
	"github.com/lumenflow/lumenflow/internal/git"
	"github.com/lumenflow/lumenflow/internal/registry"
	"github.com/lumenflow/lumenflow/internal/wu"
)

// ClaimResult is the outcome of ClaimPipeline.
type ClaimResult struct {
	WuID         string
	Lane         string
	Branch       string
	WorktreePath string
}

// ClaimPipeline implements wu:claim. It re-scans the event store for lane
// occupancy while holding the merge lock (§5's "lane-rescan-under-lock
// before claim side-effects"), so two concurrent claims on the same lane
// can't both observe it free.
func ClaimPipeline(ctx context.Context, deps *Deps, cwd, wuID string) (ClaimResult, error) {
	w, err := wu.Load(wu.Path(deps.Config.WuDir, wuID))
	if err != nil {
		return ClaimResult{}, errs.Wrap(errs.KindWuNotFound, fmt.Sprintf("load %s", wuID), err)
	}

	loc := lfcontext.ResolveLocation(ctx, deps.Runner, cwd)

	replay, err := deps.WuStore.Replay()
	if err != nil {
		return ClaimResult{}, errs.Wrap(errs.KindInconsistentState, "replay event store", err)
	}
	projected, hasProjection := replay.States[wuID]
	var inconsistency string
	if hasProjection {
		inconsistency = eventstore.DetectInconsistency(eventstore.Status(w.Status), projected.Status)
	}
	occupant, occupied := eventstore.LaneOccupant(replay, w.Lane)

	valCtx := registry.WuContext{
		Location:            loc,
		Wu:                  w,
		Consistent:          inconsistency == "",
		InconsistencyReason: inconsistency,
		LaneOccupied:        occupied,
		LaneOccupant:        occupant,
	}
	result, err := deps.Registry.ValidateWithPredicates("wu:claim", valCtx, registry.LaneAvailable())
	if err != nil {
		return ClaimResult{}, err
	}
	if !result.Valid {
		return ClaimResult{}, errs.New(result.Errors[0].Code, result.Errors[0].Message).WithFix(result.Errors[0].FixCommand)
	}

	var claimResult ClaimResult
	err = deps.MergeLock.WithMergeLock(wuID, deps.lockOptions(), func() error {
		// Re-scan under the lock: a concurrent claim may have landed
		// between the validation above and acquiring the lock.
		fresh, err := deps.WuStore.Replay()
		if err != nil {
			return errs.Wrap(errs.KindInconsistentState, "re-scan event store under lock", err)
		}
		if occupant, occupied := eventstore.LaneOccupant(fresh, w.Lane); occupied && occupant != wuID {
			return errs.New(errs.KindLaneOccupied, fmt.Sprintf("lane %q already has %s in progress", w.Lane, occupant))
		}

		worktreePath, err := deps.WorktreeMgr.Create(ctx, wuID, w.Lane)
		if err != nil {
			return errs.Wrap(errs.KindWorktreeExists, "create worktree", err)
		}

		if err := deps.WuStore.Append(eventstore.Event{
			Type:      eventstore.EventClaim,
			WuID:      wuID,
			Timestamp: time.Now().UTC(),
			Lane:      w.Lane,
			Title:     w.Title,
		}); err != nil {
			return errs.Wrap(errs.KindInconsistentState, "append claim event", err)
		}

		branch := git.BranchName(w.Lane, wuID)
		w.Status = wu.StatusInProgress
		w.ClaimedBranch = branch
		w.WorktreePath = worktreePath
		if err := wu.Save(wu.Path(deps.Config.WuDir, wuID), w); err != nil {
			return errs.Wrap(errs.KindInconsistentState, "save claimed WU", err)
		}

		claimResult = ClaimResult{WuID: wuID, Lane: w.Lane, Branch: branch, WorktreePath: worktreePath}
		return nil
	})
	if err != nil {
		return ClaimResult{}, err
	}
	return claimResult, nil
}
