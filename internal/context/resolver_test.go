package context

import (
	"context"
	"testing"

	"github.com/lumenflow/lumenflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLocation_Main(t *testing.T) {
	r := testutil.NewStubRunner()
	r.Stub("rev-parse --show-toplevel", "/repo\n", nil)
	r.Stub("rev-parse --git-dir", ".git\n", nil)
	r.Stub("symbolic-ref HEAD", "refs/heads/main\n", nil)

	wc := ResolveLocation(context.Background(), r, "/repo")
	require.Equal(t, LocationMain, wc.Type)
	assert.Equal(t, "/repo", wc.MainCheckout)
}

func TestResolveLocation_Worktree(t *testing.T) {
	r := testutil.NewStubRunner()
	r.Stub("rev-parse --show-toplevel", "/repo/worktrees/framework-core-wu-1\n", nil)
	r.Stub("rev-parse --git-dir", "/repo/.git/worktrees/framework-core-wu-1\n", nil)
	r.Stub("symbolic-ref HEAD", "refs/heads/lane/framework-core/wu-1\n", nil)
	r.Stub("worktree list --porcelain", "worktree /repo\nHEAD abc\nbranch refs/heads/main\n\n", nil)

	wc := ResolveLocation(context.Background(), r, "/repo/worktrees/framework-core-wu-1")
	require.Equal(t, LocationWorktree, wc.Type)
	assert.Equal(t, "/repo", wc.MainCheckout)
	assert.Equal(t, "WU-1", wc.WorktreeWuID)
}

func TestResolveLocation_Detached(t *testing.T) {
	r := testutil.NewStubRunner()
	r.Stub("rev-parse --show-toplevel", "/repo\n", nil)
	r.Stub("rev-parse --git-dir", ".git\n", nil)
	r.StubDefault("symbolic-ref HEAD", "", assert.AnError)

	wc := ResolveLocation(context.Background(), r, "/repo")
	assert.Equal(t, LocationDetached, wc.Type)
}

func TestResolveLocation_Unknown(t *testing.T) {
	r := testutil.NewStubRunner()
	r.StubDefault("rev-parse --show-toplevel", "", assert.AnError)

	wc := ResolveLocation(context.Background(), r, "/tmp")
	assert.Equal(t, LocationUnknown, wc.Type)
}

func TestReadGitState_DegradesOnFailure(t *testing.T) {
	r := testutil.NewStubRunner()
	r.StubDefault("status --porcelain=v1 -b", "", assert.AnError)

	st := ReadGitState(context.Background(), r, "/repo")
	assert.True(t, st.HasError)
}
