// Package registry implements the Command Registry & Context Validator
// (§4.2): a declarative table of lifecycle commands and the ordered
// predicate evaluation that decides whether a command is allowed to run.
package registry

import (
	"fmt"

	lfcontext "github.com/lumenflow/lumenflow/internal/context"
	"github.com/lumenflow/lumenflow/internal/errs"
	"github.com/lumenflow/lumenflow/internal/wu"
)

// RequiredLocation constrains where a command may run.
type RequiredLocation string

const (
	LocationMain     RequiredLocation = "main"
	LocationWorktree RequiredLocation = "worktree"
	LocationAny      RequiredLocation = "any"
)

// RequiredWuStatus constrains the target WU's status.
type RequiredWuStatus string

const (
	WuStatusReady      RequiredWuStatus = "ready"
	WuStatusInProgress RequiredWuStatus = "in_progress"
	WuStatusDone       RequiredWuStatus = "done"
	WuStatusAny        RequiredWuStatus = "any"
	WuStatusNone       RequiredWuStatus = "none"
)

// Severity distinguishes a hard failure from an advisory warning.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one predicate's outcome.
type Finding struct {
	Severity   Severity
	Code       errs.Kind
	Message    string
	FixCommand string
}

// WuContext bundles everything a predicate needs to evaluate.
type WuContext struct {
	Location            lfcontext.WorktreeContext
	Wu                  *wu.WorkUnit
	Consistent          bool
	InconsistencyReason string
	LaneOccupied        bool
	LaneOccupant        string
}

// Predicate is a named pure function over a WuContext.
type Predicate struct {
	ID string
	Fn func(WuContext) (pass bool, finding Finding)
}

// Definition is one command's declarative rule set (§4.2's table).
type Definition struct {
	Name             string
	RequiredLocation RequiredLocation
	RequiredWuStatus RequiredWuStatus
	Predicates       []Predicate
	Description      string
}

// Registry holds the closed set of known command definitions.
type Registry struct {
	definitions map[string]Definition
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{definitions: make(map[string]Definition)}
}

// Define registers a command definition.
func (r *Registry) Define(d Definition) {
	r.definitions[d.Name] = d
}

// ValidationResult is the outcome of Validate.
type ValidationResult struct {
	Valid    bool
	Errors   []Finding
	Warnings []Finding
}

// ValidateWithPredicates behaves like Validate but appends predicates to
// the registered definition's own for this call only, letting a caller bind
// live-evaluated predicates (lane occupancy, a fresh git read, ...) without
// mutating the shared Registry.
func (r *Registry) ValidateWithPredicates(command string, ctx WuContext, predicates ...Predicate) (ValidationResult, error) {
	def, ok := r.definitions[command]
	if !ok {
		return ValidationResult{}, errs.New(errs.KindUnknownCommand, fmt.Sprintf("unknown command %q", command))
	}
	scratch := New()
	scratch.Define(WithPredicates(def, append(append([]Predicate{}, def.Predicates...), predicates...)...))
	return scratch.Validate(command, ctx)
}

// Validate implements the §4.2 algorithm: unknown command, location
// mismatch, WU status mismatch, then every predicate in order, collecting
// all failures rather than short-circuiting.
func (r *Registry) Validate(command string, ctx WuContext) (ValidationResult, error) {
	def, ok := r.definitions[command]
	if !ok {
		return ValidationResult{}, errs.New(errs.KindUnknownCommand, fmt.Sprintf("unknown command %q", command))
	}

	var result ValidationResult

	if def.RequiredLocation != LocationAny && string(def.RequiredLocation) != string(ctx.Location.Type) {
		result.Errors = append(result.Errors, Finding{
			Severity:   SeverityError,
			Code:       errs.KindWrongLocation,
			Message:    fmt.Sprintf("%s requires location %s, got %s", command, def.RequiredLocation, ctx.Location.Type),
			FixCommand: fmt.Sprintf("cd %s && %s", ctx.Location.MainCheckout, command),
		})
	}

	switch def.RequiredWuStatus {
	case WuStatusNone, "":
		// no WU required
	default:
		if ctx.Wu == nil {
			result.Errors = append(result.Errors, Finding{
				Severity: SeverityError,
				Code:     errs.KindWuNotFound,
				Message:  fmt.Sprintf("%s requires a WU, none found", command),
			})
		} else if def.RequiredWuStatus != WuStatusAny && string(def.RequiredWuStatus) != string(ctx.Wu.Status) {
			result.Errors = append(result.Errors, Finding{
				Severity: SeverityError,
				Code:     errs.KindWrongWuStatus,
				Message:  fmt.Sprintf("%s requires status %s, %s is %s", command, def.RequiredWuStatus, ctx.Wu.ID, ctx.Wu.Status),
			})
		}
	}

	for _, p := range def.Predicates {
		pass, finding := p.Fn(ctx)
		if pass {
			continue
		}
		if finding.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, finding)
		} else {
			result.Errors = append(result.Errors, finding)
		}
	}

	result.Valid = len(result.Errors) == 0
	return result, nil
}
