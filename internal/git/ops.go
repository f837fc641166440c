package git

import (
	"context"
	"fmt"
	"strings"
)

// CommitOptions configures Commit.
type CommitOptions struct {
	Message  string
	NoVerify bool
}

// Add stages the given paths (relative to dir) with `git add`.
func Add(ctx context.Context, runner Runner, dir string, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"add"}, paths...)
	_, err := runner.Exec(ctx, dir, args...)
	return err
}

// Commit records a commit in dir with the given options.
func Commit(ctx context.Context, runner Runner, dir string, opts CommitOptions) error {
	args := []string{"commit", "-m", opts.Message}
	if opts.NoVerify {
		args = append(args, "--no-verify")
	}
	_, err := runner.Exec(ctx, dir, args...)
	return err
}

// HeadSHA returns the commit SHA at HEAD in dir.
func HeadSHA(ctx context.Context, runner Runner, dir string) (string, error) {
	out, err := runner.Exec(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ResetHard runs `git reset --hard <ref>` in dir.
func ResetHard(ctx context.Context, runner Runner, dir, ref string) error {
	_, err := runner.Exec(ctx, dir, "reset", "--hard", ref)
	return err
}

// ChangedFiles returns the paths that differ between baseRef and HEAD,
// driving risk classification in the Gate Runner (§4.6).
func ChangedFiles(ctx context.Context, runner Runner, dir, baseRef string) ([]string, error) {
	out, err := runner.Exec(ctx, dir, "diff", "--name-only", baseRef+"...HEAD")
	if err != nil {
		return nil, err
	}
	return splitNonEmptyLines(out), nil
}

// MergeFastForwardOnly runs `git merge --ff-only <branch>` in the main
// checkout (§4.8 step 8). Never invoked via process.chdir — dir is always
// explicit.
func MergeFastForwardOnly(ctx context.Context, runner Runner, mainCheckout, branch string) error {
	_, err := runner.Exec(ctx, mainCheckout, "merge", "--ff-only", branch)
	if err != nil {
		return fmt.Errorf("fast-forward merge of %s failed: %w", branch, err)
	}
	return nil
}

// Push pushes mainBranch to remote from the main checkout (§4.8 step 9).
func Push(ctx context.Context, runner Runner, mainCheckout, remote, mainBranch string) error {
	_, err := runner.Exec(ctx, mainCheckout, "push", remote, mainBranch)
	return err
}

// Fetch runs `git fetch <remote> <ref>` in dir.
func Fetch(ctx context.Context, runner Runner, dir, remote, ref string) error {
	_, err := runner.Exec(ctx, dir, "fetch", remote, ref)
	return err
}

// SymbolicRefHEAD resolves the symbolic ref for HEAD, returning ok=false
// when detached (§4.1 ResolveLocation step d).
func SymbolicRefHEAD(ctx context.Context, runner Runner, dir string) (ref string, ok bool) {
	out, err := runner.Exec(ctx, dir, "symbolic-ref", "HEAD")
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(out), true
}

// ShowTopLevel resolves the repository root for dir, or ok=false if dir
// is not inside a git repository.
func ShowTopLevel(ctx context.Context, runner Runner, dir string) (root string, ok bool) {
	out, err := runner.Exec(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(out), true
}

// GitDir resolves the `.git` path for dir, used to detect whether dir is a
// linked worktree (a file) rather than the main checkout (a directory).
func GitDir(ctx context.Context, runner Runner, dir string) (string, error) {
	out, err := runner.Exec(ctx, dir, "rev-parse", "--git-dir")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func splitNonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
