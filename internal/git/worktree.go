package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// WorktreeEntry is one record of `git worktree list --porcelain`.
type WorktreeEntry struct {
	Path   string
	Head   string
	Branch string
	Bare   bool
	Detached bool
}

// ListWorktrees parses `git worktree list --porcelain` run from any
// checkout belonging to the repository. The first entry is always the
// main checkout (§4.1).
func ListWorktrees(ctx context.Context, runner Runner, dir string) ([]WorktreeEntry, error) {
	out, err := runner.Exec(ctx, dir, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}

	var entries []WorktreeEntry
	var cur *WorktreeEntry
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "worktree "):
			if cur != nil {
				entries = append(entries, *cur)
			}
			cur = &WorktreeEntry{Path: strings.TrimPrefix(line, "worktree ")}
		case strings.HasPrefix(line, "HEAD "):
			if cur != nil {
				cur.Head = strings.TrimPrefix(line, "HEAD ")
			}
		case strings.HasPrefix(line, "branch "):
			if cur != nil {
				cur.Branch = strings.TrimPrefix(line, "branch refs/heads/")
			}
		case line == "bare":
			if cur != nil {
				cur.Bare = true
			}
		case line == "detached":
			if cur != nil {
				cur.Detached = true
			}
		}
	}
	if cur != nil {
		entries = append(entries, *cur)
	}
	return entries, nil
}

// MainCheckout returns the first worktree list entry, which git guarantees
// to be the main checkout (§4.1).
func MainCheckout(ctx context.Context, runner Runner, dir string) (string, error) {
	entries, err := ListWorktrees(ctx, runner, dir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("git worktree list returned no entries")
	}
	return entries[0].Path, nil
}

var wuIDPattern = regexp.MustCompile(`(?i)wu-\d+`)

// WuIDFromWorktreeName extracts a case-insensitive `wu-\d+` match from the
// final path component of a worktree root, normalized to upper case
// WU-<n>, or "" if no match (§4.1).
func WuIDFromWorktreeName(worktreePath string) string {
	name := filepath.Base(worktreePath)
	match := wuIDPattern.FindString(name)
	if match == "" {
		return ""
	}
	return strings.ToUpper(match)
}

// KebabLane canonicalizes a lane name to its filesystem-safe kebab form,
// e.g. "Framework: Core" -> "framework-core" (§3 Lane).
func KebabLane(lane string) string {
	lower := strings.ToLower(lane)
	var b strings.Builder
	lastDash := false
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// WorktreePath computes the path policy of §4.5:
// <mainCheckout>/worktrees/<lane-kebab>-<wu-id-lower>.
func WorktreePath(mainCheckout, worktreesDir, lane, wuID string) string {
	name := fmt.Sprintf("%s-%s", KebabLane(lane), strings.ToLower(wuID))
	return filepath.Join(mainCheckout, worktreesDir, name)
}

// BranchName computes the branch policy of §4.5: lane/<lane-kebab>/<wu-id-lower>.
func BranchName(lane, wuID string) string {
	return fmt.Sprintf("lane/%s/%s", KebabLane(lane), strings.ToLower(wuID))
}

// WorktreeManager provisions and retires per-WU isolated working trees
// (§4.5). All operations pass an explicit working directory to the git
// adapter; none use process.chdir (§9 design note).
type WorktreeManager struct {
	Runner        Runner
	MainCheckout  string
	WorktreesDir  string
	DefaultRemote string
	RequireRemote bool
}

// NewWorktreeManager constructs a WorktreeManager bound to a main checkout.
func NewWorktreeManager(runner Runner, mainCheckout, worktreesDir, defaultRemote string, requireRemote bool) *WorktreeManager {
	return &WorktreeManager{
		Runner:        runner,
		MainCheckout:  mainCheckout,
		WorktreesDir:  worktreesDir,
		DefaultRemote: defaultRemote,
		RequireRemote: requireRemote,
	}
}

// Create provisions a new worktree for wuID on lane, per §4.5 Create.
func (m *WorktreeManager) Create(ctx context.Context, wuID, lane string) (string, error) {
	path := WorktreePath(m.MainCheckout, m.WorktreesDir, lane, wuID)
	branch := BranchName(lane, wuID)

	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("worktree already exists at %s", path)
	} else if !os.IsNotExist(err) {
		return "", err
	}

	startPoint := "main"
	if m.RequireNoRemote() {
		startPoint = "main"
	} else {
		if _, err := m.Runner.Exec(ctx, m.MainCheckout, "fetch", m.remote(), "main"); err != nil {
			return "", fmt.Errorf("fetch %s/main: %w", m.remote(), err)
		}
		startPoint = m.remote() + "/main"
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	if _, err := m.Runner.Exec(ctx, m.MainCheckout, "worktree", "add", "-b", branch, path, startPoint); err != nil {
		return "", fmt.Errorf("worktree add: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}

// RequireNoRemote reports whether remote usage is disabled for this manager.
func (m *WorktreeManager) RequireNoRemote() bool {
	return !m.RequireRemote
}

func (m *WorktreeManager) remote() string {
	if m.DefaultRemote == "" {
		return "origin"
	}
	return m.DefaultRemote
}

// DeleteOptions controls Delete behavior.
type DeleteOptions struct {
	Force bool
}

// Delete retires a worktree and its lane branch (§4.5 Delete). Idempotent:
// a missing worktree directory is success.
func (m *WorktreeManager) Delete(ctx context.Context, wuID, lane string, opts DeleteOptions) error {
	path := WorktreePath(m.MainCheckout, m.WorktreesDir, lane, wuID)
	branch := BranchName(lane, wuID)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return err
	}

	if !opts.Force {
		st := ReadStatus(ctx, m.Runner, path)
		if st.HasError {
			return fmt.Errorf("reading worktree status: %s", st.ErrorMessage)
		}
		if st.IsDirty {
			return fmt.Errorf("worktree %s is not clean; pass Force to override", path)
		}
	}

	args := []string{"worktree", "remove", path}
	if opts.Force {
		args = append(args, "--force")
	}
	if _, err := m.Runner.Exec(ctx, m.MainCheckout, args...); err != nil {
		return fmt.Errorf("worktree remove: %w", err)
	}

	if _, err := m.Runner.Exec(ctx, m.MainCheckout, "branch", "-D", branch); err != nil {
		// Branch may already be gone; not fatal for idempotent delete.
		return nil
	}
	return nil
}

// EnsureOnBranch switches the worktree to branch if it is not already there.
func (m *WorktreeManager) EnsureOnBranch(ctx context.Context, worktreePath, branch string) error {
	st := ReadStatus(ctx, m.Runner, worktreePath)
	if st.HasError {
		return fmt.Errorf("reading worktree status: %s", st.ErrorMessage)
	}
	if st.Branch == branch {
		return nil
	}
	if _, err := m.Runner.Exec(ctx, worktreePath, "checkout", branch); err != nil {
		return fmt.Errorf("checkout %s: %w", branch, err)
	}
	return nil
}

// RebaseResult is the outcome of AutoRebase.
type RebaseResult struct {
	Success         bool
	ConflictSummary string
}

// DocsRegenHook is invoked after a successful AutoRebase when a wuID is
// provided. It is a collaborator port (§4.5): CORE ships a no-op; a
// host project wires its own documentation regeneration.
type DocsRegenHook func(ctx context.Context, worktreePath, wuID string) error

// AutoRebase fetches origin/main and rebases the branch onto it. On
// conflict the rebase is aborted and {success:false, conflictSummary} is
// returned rather than leaving the worktree mid-rebase (§4.5).
func (m *WorktreeManager) AutoRebase(ctx context.Context, worktreePath, branch, wuID string, onRegen DocsRegenHook) (RebaseResult, error) {
	if err := m.EnsureOnBranch(ctx, worktreePath, branch); err != nil {
		return RebaseResult{}, err
	}

	if _, err := m.Runner.Exec(ctx, worktreePath, "fetch", m.remote(), "main"); err != nil {
		return RebaseResult{}, fmt.Errorf("fetch %s/main: %w", m.remote(), err)
	}

	_, err := m.Runner.Exec(ctx, worktreePath, "rebase", m.remote()+"/main")
	if err != nil {
		summary := conflictSummary(ctx, m.Runner, worktreePath, err)
		if _, abortErr := m.Runner.Exec(ctx, worktreePath, "rebase", "--abort"); abortErr != nil {
			return RebaseResult{}, fmt.Errorf("rebase failed (%v) and abort failed: %w", err, abortErr)
		}
		return RebaseResult{Success: false, ConflictSummary: summary}, nil
	}

	if wuID != "" && onRegen != nil {
		if regenErr := onRegen(ctx, worktreePath, wuID); regenErr != nil {
			return RebaseResult{}, fmt.Errorf("docs regeneration hook: %w", regenErr)
		}
	}

	return RebaseResult{Success: true}, nil
}

func conflictSummary(ctx context.Context, runner Runner, dir string, rebaseErr error) string {
	out, err := runner.Exec(ctx, dir, "diff", "--name-only", "--diff-filter=U")
	if err != nil || strings.TrimSpace(out) == "" {
		return rebaseErr.Error()
	}
	return "conflicts in: " + strings.ReplaceAll(strings.TrimSpace(out), "\n", ", ")
}
