package main

import (
	"fmt"
	"testing"

	"github.com/lumenflow/lumenflow/internal/errs"
	"github.com/stretchr/testify/assert"
)

func TestExitCode_MapsEveryKnownKind(t *testing.T) {
	cases := []struct {
		kind errs.Kind
		want int
	}{
		{errs.KindWrongLocation, 2},
		{errs.KindWuNotFound, 2},
		{errs.KindWuAlreadyExists, 2},
		{errs.KindWrongWuStatus, 2},
		{errs.KindLaneOccupied, 3},
		{errs.KindWorktreeExists, 3},
		{errs.KindWorktreeMissing, 3},
		{errs.KindLockError, 3},
		{errs.KindGatesNotPassed, 4},
		{errs.KindDirtyGit, 5},
		{errs.KindInconsistentState, 5},
		{errs.KindRemoteUnavailable, 6},
		{errs.KindUnknownCommand, 7},
	}

	for _, c := range cases {
		t.Run(string(c.kind), func(t *testing.T) {
			err := errs.New(c.kind, "boom")
			assert.Equal(t, c.want, exitCode(err))
		})
	}
}

func TestExitCode_UnstructuredErrorDefaultsToOne(t *testing.T) {
	assert.Equal(t, 1, exitCode(fmt.Errorf("plain error")))
}
