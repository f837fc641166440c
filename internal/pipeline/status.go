package pipeline

import (
	"context"

	lfcontext "github.com/lumenflow/lumenflow/internal/context"
	"github.com/lumenflow/lumenflow/internal/errs"
	"github.com/lumenflow/lumenflow/internal/eventstore"
	"github.com/lumenflow/lumenflow/internal/wu"
)

// StatusReport is the combined view wu:status and wu:watch render: the WU
// YAML, its event-store projection, and the runtime worktree context.
type StatusReport struct {
	Wu            *wu.WorkUnit
	Projected     eventstore.ProjectedState
	Location      lfcontext.WorktreeContext
	Inconsistency string
}

// StatusPipeline implements wu:status: load the WU, project its event-store
// state, and compare against the YAML copy (§4.3 DetectInconsistency).
func StatusPipeline(ctx context.Context, deps *Deps, cwd, wuID string) (StatusReport, error) {
	w, err := wu.Load(wu.Path(deps.Config.WuDir, wuID))
	if err != nil {
		return StatusReport{}, errs.Wrap(errs.KindWuNotFound, "load "+wuID, err)
	}

	projected, err := deps.WuStore.ProjectOne(wuID)
	if err != nil {
		return StatusReport{}, errs.Wrap(errs.KindInconsistentState, "project "+wuID, err)
	}

	loc := lfcontext.ResolveLocation(ctx, deps.Runner, cwd)

	return StatusReport{
		Wu:            w,
		Projected:     projected,
		Location:      loc,
		Inconsistency: eventstore.DetectInconsistency(eventstore.Status(w.Status), projected.Status),
	}, nil
}

// ValidateReport is the outcome of ValidatePipeline.
type ValidateReport struct {
	Schema    *wu.Report
	Preflight *wu.Report
}

// Valid reports whether both the schema and preflight passes succeeded.
func (r ValidateReport) Valid() bool {
	return r.Schema.Valid() && r.Preflight.Valid()
}

// ValidatePipeline implements wu:validate: schema-check every WU under the
// workspace's wu_dir and preflight its code_paths against repoRoot.
func ValidatePipeline(wuDir, repoRoot string) (map[string]ValidateReport, error) {
	units, err := wu.LoadAll(wuDir)
	if err != nil {
		return nil, errs.Wrap(errs.KindInconsistentState, "load WU directory", err)
	}

	reports := make(map[string]ValidateReport, len(units))
	for _, u := range units {
		reports[u.ID] = ValidateReport{
			Schema:    wu.ValidateSchema(u),
			Preflight: wu.PreflightCodePaths(u, repoRoot),
		}
	}
	return reports, nil
}
