package registry

import (
	"fmt"

	"github.com/lumenflow/lumenflow/internal/errs"
)

// WorktreeClean fails when the WU's worktree has uncommitted changes.
func WorktreeClean(isClean bool) Predicate {
	return Predicate{
		ID: "worktree-clean",
		Fn: func(ctx WuContext) (bool, Finding) {
			if isClean {
				return true, Finding{}
			}
			return false, Finding{
				Severity: SeverityError,
				Code:     errs.KindDirtyGit,
				Message:  "worktree has uncommitted changes",
			}
		},
	}
}

// HasCommits fails when the lane branch has no commits ahead of main.
func HasCommits(hasCommits bool) Predicate {
	return Predicate{
		ID: "has-commits",
		Fn: func(ctx WuContext) (bool, Finding) {
			if hasCommits {
				return true, Finding{}
			}
			return false, Finding{
				Severity: SeverityWarning,
				Code:     errs.KindWrongWuStatus,
				Message:  "branch has no commits yet",
			}
		},
	}
}

// BranchTracksOrigin warns when the current branch has no upstream.
func BranchTracksOrigin(tracking bool) Predicate {
	return Predicate{
		ID: "branch-tracks-origin",
		Fn: func(ctx WuContext) (bool, Finding) {
			if tracking {
				return true, Finding{}
			}
			return false, Finding{
				Severity: SeverityWarning,
				Code:     errs.KindRemoteUnavailable,
				Message:  "branch does not track an origin remote",
			}
		},
	}
}

// NotOnMain fails when location is main but the command requires a lane
// branch (used for predicates beyond the definition's RequiredLocation,
// e.g. refusing to claim from main while standing on a stray feature
// branch in the main checkout).
func NotOnMain(onMain bool) Predicate {
	return Predicate{
		ID: "not-on-main",
		Fn: func(ctx WuContext) (bool, Finding) {
			if !onMain {
				return true, Finding{}
			}
			return false, Finding{
				Severity:   SeverityError,
				Code:       errs.KindWrongLocation,
				Message:    "command must not run with main checked out to a feature branch",
				FixCommand: "git checkout main",
			}
		},
	}
}

// LaneAvailable fails when the target WU's lane is already occupied by a
// different in-progress WU. ClaimPipeline re-checks this under the merge
// lock before any side effect; this predicate lets Validate surface the
// same LANE_OCCUPIED finding from a plain replay-fed read, with no lock
// held, so a caller can reject an occupied-lane claim before ever reaching
// the lock.
func LaneAvailable() Predicate {
	return Predicate{
		ID: "lane-available",
		Fn: func(ctx WuContext) (bool, Finding) {
			if !ctx.LaneOccupied || ctx.Wu == nil || ctx.LaneOccupant == ctx.Wu.ID {
				return true, Finding{}
			}
			return false, Finding{
				Severity: SeverityError,
				Code:     errs.KindLaneOccupied,
				Message:  fmt.Sprintf("lane %q already has %s in progress", ctx.Wu.Lane, ctx.LaneOccupant),
			}
		},
	}
}

// StateConsistent fails when the WU's YAML status disagrees with the
// event store's projected status (§4.3 DetectInconsistency).
func StateConsistent() Predicate {
	return Predicate{
		ID: "state-consistent",
		Fn: func(ctx WuContext) (bool, Finding) {
			if ctx.Consistent {
				return true, Finding{}
			}
			return false, Finding{
				Severity: SeverityError,
				Code:     errs.KindInconsistentState,
				Message:  ctx.InconsistencyReason,
			}
		},
	}
}
