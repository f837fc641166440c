// Package context implements the context resolver (§4.1): it answers "where
// am I and what branch/worktree am I standing in" without ever raising an
// error to the caller. Every failure mode degrades to a reported unknown or
// hasError state, since commands need to print a useful message even when
// run outside a repository.
package context

import (
	"context"
	"path/filepath"

	"github.com/lumenflow/lumenflow/internal/git"
)

// LocationType classifies where ResolveLocation found the caller.
type LocationType string

const (
	LocationMain     LocationType = "main"
	LocationWorktree LocationType = "worktree"
	LocationDetached LocationType = "detached"
	LocationUnknown  LocationType = "unknown"
)

// WorktreeContext is the runtime-only location snapshot described in §3.
type WorktreeContext struct {
	Type         LocationType
	Cwd          string
	GitRoot      string
	MainCheckout string
	WorktreeName string
	WorktreeWuID string
}

// ResolveLocation implements §4.1 ResolveLocation. It is deterministic given
// the same git tree contents at cwd.
func ResolveLocation(ctx context.Context, runner git.Runner, cwd string) WorktreeContext {
	root, ok := git.ShowTopLevel(ctx, runner, cwd)
	if !ok {
		return WorktreeContext{Type: LocationUnknown, Cwd: cwd}
	}

	gitDirRel, err := git.GitDir(ctx, runner, cwd)
	if err != nil {
		return WorktreeContext{Type: LocationUnknown, Cwd: cwd, GitRoot: root}
	}

	if _, ok := git.SymbolicRefHEAD(ctx, runner, cwd); !ok {
		return WorktreeContext{Type: LocationDetached, Cwd: cwd, GitRoot: root}
	}

	isWorktree := isLinkedWorktreeGitDir(gitDirRel)
	if !isWorktree {
		return WorktreeContext{Type: LocationMain, Cwd: cwd, GitRoot: root, MainCheckout: root}
	}

	mainCheckout, _ := git.MainCheckout(ctx, runner, root)
	name := filepath.Base(root)
	return WorktreeContext{
		Type:         LocationWorktree,
		Cwd:          cwd,
		GitRoot:      root,
		MainCheckout: mainCheckout,
		WorktreeName: name,
		WorktreeWuID: git.WuIDFromWorktreeName(root),
	}
}

// isLinkedWorktreeGitDir reports whether a --git-dir result looks like a
// linked worktree's gitdir file target (contains "/worktrees/") rather than
// the main checkout's own .git directory.
func isLinkedWorktreeGitDir(gitDir string) bool {
	return filepath.Base(filepath.Dir(gitDir)) == "worktrees" || containsWorktreesSegment(gitDir)
}

func containsWorktreesSegment(p string) bool {
	for p != "." && p != string(filepath.Separator) && p != "" {
		if filepath.Base(p) == "worktrees" {
			return true
		}
		next := filepath.Dir(p)
		if next == p {
			break
		}
		p = next
	}
	return false
}

// ReadGitState implements §4.1 ReadGitState, a thin adapter over
// git.ReadStatus that never returns a Go error.
func ReadGitState(ctx context.Context, runner git.Runner, cwd string) git.Status {
	return git.ReadStatus(ctx, runner, cwd)
}
