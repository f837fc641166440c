package git

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadSHA(t *testing.T) {
	r := newFakeRunner()
	r.on("rev-parse", "HEAD").returns("abc123\n")

	sha, err := HeadSHA(context.Background(), r, "/repo")
	require.NoError(t, err)
	assert.Equal(t, "abc123", sha)
}

func TestChangedFiles(t *testing.T) {
	r := newFakeRunner()
	r.on("diff", "--name-only", "origin/main...HEAD").returns("docs/a.md\nsrc/b.go\n")

	files, err := ChangedFiles(context.Background(), r, "/repo", "origin/main")
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/a.md", "src/b.go"}, files)
}

func TestMergeFastForwardOnly_WrapsFailure(t *testing.T) {
	r := newFakeRunner()
	r.on("merge", "--ff-only", "lane/x/wu-1").fails(assert.AnError)

	err := MergeFastForwardOnly(context.Background(), r, "/repo", "lane/x/wu-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lane/x/wu-1")
}

func TestSymbolicRefHEAD_DetachedReturnsNotOk(t *testing.T) {
	r := newFakeRunner()
	r.on("symbolic-ref", "HEAD").fails(assert.AnError)

	_, ok := SymbolicRefHEAD(context.Background(), r, "/repo")
	assert.False(t, ok)
}
