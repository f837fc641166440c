package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/lumenflow/lumenflow/internal/cli"
	"github.com/lumenflow/lumenflow/internal/errs"
)

// Build-time variables (set via ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	app := cli.New()
	app.SetVersion(version, commit, date)

	if err := app.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an errs.Error's Kind to a process exit code. This is the
// only place in the codebase that does so (§7, §9): every other layer
// returns the structured error itself.
func exitCode(err error) int {
	var e *errs.Error
	if !errors.As(err, &e) {
		return 1
	}
	switch e.Kind {
	case errs.KindWrongLocation, errs.KindWuNotFound, errs.KindWuAlreadyExists, errs.KindWrongWuStatus:
		return 2
	case errs.KindLaneOccupied, errs.KindWorktreeExists, errs.KindWorktreeMissing, errs.KindLockError:
		return 3
	case errs.KindGatesNotPassed:
		return 4
	case errs.KindDirtyGit, errs.KindInconsistentState:
		return 5
	case errs.KindRemoteUnavailable:
		return 6
	case errs.KindUnknownCommand:
		return 7
	default:
		return 1
	}
}
