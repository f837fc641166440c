package git

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadStatus_CleanTrackedBranch(t *testing.T) {
	r := newFakeRunner()
	r.on("status", "--porcelain=v1", "-b").returns("## main...origin/main\n")

	st := ReadStatus(context.Background(), r, "/repo")
	require.False(t, st.HasError)
	assert.Equal(t, "main", st.Branch)
	assert.True(t, st.HasTracking)
	assert.False(t, st.IsDirty)
	assert.False(t, st.IsDetached)
}

func TestReadStatus_AheadBehind(t *testing.T) {
	r := newFakeRunner()
	r.on("status", "--porcelain=v1", "-b").returns(
		"## feature...origin/feature [ahead 2, behind 1]\n M src/a.go\n?? untracked.txt\n")

	st := ReadStatus(context.Background(), r, "/repo")
	require.False(t, st.HasError)
	assert.Equal(t, 2, st.Ahead)
	assert.Equal(t, 1, st.Behind)
	assert.True(t, st.IsDirty)
	assert.ElementsMatch(t, []string{"src/a.go", "untracked.txt"}, st.ModifiedFiles)
}

func TestReadStatus_DetachedHead(t *testing.T) {
	r := newFakeRunner()
	r.on("status", "--porcelain=v1", "-b").returns("## HEAD (no branch)\n")

	st := ReadStatus(context.Background(), r, "/repo")
	require.False(t, st.HasError)
	assert.True(t, st.IsDetached)
}

func TestReadStatus_GitFailureDegradesToHasError(t *testing.T) {
	r := newFakeRunner()
	r.on("status", "--porcelain=v1", "-b").fails(assert.AnError)

	st := ReadStatus(context.Background(), r, "/repo")
	assert.True(t, st.HasError)
	assert.NotEmpty(t, st.ErrorMessage)
}

func TestReadStatus_StagedFile(t *testing.T) {
	r := newFakeRunner()
	r.on("status", "--porcelain=v1", "-b").returns("## main\nM  staged.go\n")

	st := ReadStatus(context.Background(), r, "/repo")
	require.False(t, st.HasError)
	assert.True(t, st.HasStaged)
}
