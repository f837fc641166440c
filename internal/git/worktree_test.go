package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWuIDFromWorktreeName(t *testing.T) {
	assert.Equal(t, "WU-42", WuIDFromWorktreeName("/repo/worktrees/framework-core-wu-42"))
	assert.Equal(t, "", WuIDFromWorktreeName("/repo/worktrees/framework-core"))
}

func TestKebabLane(t *testing.T) {
	assert.Equal(t, "framework-core", KebabLane("Framework: Core"))
	assert.Equal(t, "framework-core", KebabLane("framework-core"))
}

func TestWorktreePathAndBranchName(t *testing.T) {
	path := WorktreePath("/repo", "worktrees", "Framework: Core", "WU-42")
	assert.Equal(t, filepath.Join("/repo", "worktrees", "framework-core-wu-42"), path)

	branch := BranchName("Framework: Core", "WU-42")
	assert.Equal(t, "lane/framework-core/wu-42", branch)
}

func TestListWorktrees_ParsesPorcelain(t *testing.T) {
	r := newFakeRunner()
	r.on("worktree", "list", "--porcelain").returns(
		"worktree /repo\nHEAD abc123\nbranch refs/heads/main\n\n" +
			"worktree /repo/worktrees/framework-core-wu-42\nHEAD def456\nbranch refs/heads/lane/framework-core/wu-42\n")

	entries, err := ListWorktrees(context.Background(), r, "/repo")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "/repo", entries[0].Path)
	assert.Equal(t, "main", entries[0].Branch)
	assert.Equal(t, "lane/framework-core/wu-42", entries[1].Branch)
}

func TestWorktreeManager_Create_FailsIfExists(t *testing.T) {
	dir := t.TempDir()
	wtDir := "worktrees"
	existing := WorktreePath(dir, wtDir, "Framework: Core", "WU-1")
	require.NoError(t, os.MkdirAll(existing, 0o755))

	mgr := NewWorktreeManager(newFakeRunner(), dir, wtDir, "origin", false)
	_, err := mgr.Create(context.Background(), "WU-1", "Framework: Core")
	require.Error(t, err)
}

func TestWorktreeManager_Delete_MissingIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	mgr := NewWorktreeManager(newFakeRunner(), dir, "worktrees", "origin", false)
	err := mgr.Delete(context.Background(), "WU-404", "Framework: Core", DeleteOptions{})
	assert.NoError(t, err)
}

func TestWorktreeManager_AutoRebase_ConflictAborts(t *testing.T) {
	dir := t.TempDir()
	wt := filepath.Join(dir, "wt")
	require.NoError(t, os.MkdirAll(wt, 0o755))

	r := newFakeRunner()
	r.on("status", "--porcelain=v1", "-b").returns("## lane/framework-core/wu-1\n")
	r.on("fetch", "origin", "main").returns("")
	r.on("rebase", "origin/main").fails(assert.AnError)
	r.on("diff", "--name-only", "--diff-filter=U").returns("src/conflict.go\n")
	r.on("rebase", "--abort").returns("")

	mgr := NewWorktreeManager(r, dir, "worktrees", "origin", true)
	result, err := mgr.AutoRebase(context.Background(), wt, "lane/framework-core/wu-1", "", nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.ConflictSummary, "src/conflict.go")
}

func TestWorktreeManager_AutoRebase_SuccessInvokesRegenHook(t *testing.T) {
	dir := t.TempDir()
	wt := filepath.Join(dir, "wt")
	require.NoError(t, os.MkdirAll(wt, 0o755))

	r := newFakeRunner()
	r.on("status", "--porcelain=v1", "-b").returns("## lane/framework-core/wu-1\n")
	r.on("fetch", "origin", "main").returns("")
	r.on("rebase", "origin/main").returns("")

	mgr := NewWorktreeManager(r, dir, "worktrees", "origin", true)

	called := false
	_, err := mgr.AutoRebase(context.Background(), wt, "lane/framework-core/wu-1", "WU-1",
		func(ctx context.Context, worktreePath, wuID string) error {
			called = true
			assert.Equal(t, "WU-1", wuID)
			return nil
		})
	require.NoError(t, err)
	assert.True(t, called)
}
