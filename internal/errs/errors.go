// Package errs defines the single closed-set error type used across the
// command registry, merge pipeline, and gate runner (§7), so the CLI
// boundary has one place to map errors to exit codes and fix commands.
package errs

import "errors"

// Kind is the closed set of error codes named in §4.2 and §7.
type Kind string

const (
	KindWrongLocation    Kind = "WRONG_LOCATION"
	KindWuNotFound       Kind = "WU_NOT_FOUND"
	KindWuAlreadyExists  Kind = "WU_ALREADY_EXISTS"
	KindWrongWuStatus    Kind = "WRONG_WU_STATUS"
	KindLaneOccupied     Kind = "LANE_OCCUPIED"
	KindWorktreeExists   Kind = "WORKTREE_EXISTS"
	KindWorktreeMissing  Kind = "WORKTREE_MISSING"
	KindGatesNotPassed   Kind = "GATES_NOT_PASSED"
	KindDirtyGit         Kind = "DIRTY_GIT"
	KindRemoteUnavailable Kind = "REMOTE_UNAVAILABLE"
	KindInconsistentState Kind = "INCONSISTENT_STATE"
	KindUnknownCommand   Kind = "UNKNOWN_COMMAND"
	KindLockError        Kind = "LOCK_ERROR"
)

// Error is the one error type every CORE component returns; the CLI
// boundary is the only place that maps Kind to an exit code.
type Error struct {
	Kind       Kind
	Code       string
	Message    string
	FixCommand string
	Err        error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Code: string(kind), Message: message}
}

// Wrap builds an Error around an existing error.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Code: string(kind), Message: message, Err: cause}
}

// WithFix attaches a remediation command, returning the same *Error for
// chaining at the call site.
func (e *Error) WithFix(cmd string) *Error {
	e.FixCommand = cmd
	return e
}

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
