package errs

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsKind_MatchesWrappedError(t *testing.T) {
	base := Wrap(KindDirtyGit, "main is dirty", fmt.Errorf("status --porcelain non-empty"))
	wrapped := fmt.Errorf("wu:done failed: %w", base)
	assert.True(t, IsKind(wrapped, KindDirtyGit))
	assert.False(t, IsKind(wrapped, KindLockError))
}

func TestWithFix_SetsFixCommand(t *testing.T) {
	e := New(KindWrongLocation, "must be on main").WithFix("cd <mainCheckout> && wu:done")
	assert.Equal(t, "cd <mainCheckout> && wu:done", e.FixCommand)
}

func TestError_FallsBackToKindWhenNoMessage(t *testing.T) {
	e := &Error{Kind: KindUnknownCommand}
	assert.Equal(t, "UNKNOWN_COMMAND", e.Error())
}
