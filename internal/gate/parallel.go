package gate

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// RunParallel fans every gate except "test" out via errgroup.Group bounded
// by maxParallel (runtime.NumCPU() when maxParallel <= 0), keeping their
// results in declared order regardless of completion order (§4.6's
// "Non-default fan-out"). All of those gates run even when FailFast is set.
// The "test" gate runs after the parallel group completes and its result is
// appended last; with FailFast it is skipped if any parallel gate failed.
func (c Chain) RunParallel(ctx context.Context, worktreePath string, changedFiles []string, maxParallel int) RunResult {
	if maxParallel <= 0 {
		maxParallel = runtime.NumCPU()
	}
	tier := ClassifyRisk(changedFiles)
	gates := applicableGates(c.Gates, tier)

	var parallelGates, serialGates []Definition
	for _, g := range gates {
		if g.Name == "test" {
			serialGates = append(serialGates, g)
			continue
		}
		parallelGates = append(parallelGates, g)
	}

	results := make([]Result, len(parallelGates))
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, def := range parallelGates {
		i, def := i, def
		g.Go(func() error {
			results[i] = c.runOne(gctx, worktreePath, def)
			return nil
		})
	}
	_ = g.Wait()

	var run RunResult
	run.Results = append(run.Results, results...)
	for _, r := range results {
		if r.Passed {
			run.PassedCount++
		} else {
			run.FailedCount++
		}
	}

	for _, def := range serialGates {
		if c.FailFast && run.FailedCount > 0 {
			break
		}
		r := c.runOne(ctx, worktreePath, def)
		run.Results = append(run.Results, r)
		if r.Passed {
			run.PassedCount++
		} else {
			run.FailedCount++
		}
	}

	run.TotalDurationMs = time.Since(start).Milliseconds()
	run.Passed = run.FailedCount == 0
	return run
}

func (c Chain) runOne(ctx context.Context, worktreePath string, g Definition) Result {
	gateCtx := ctx
	var cancel context.CancelFunc
	if g.TimeoutSec > 0 {
		gateCtx, cancel = context.WithTimeout(ctx, time.Duration(g.TimeoutSec)*time.Second)
		defer cancel()
	}
	gateStart := time.Now()
	out, exitCode, err := c.Runner.Run(gateCtx, worktreePath, g.Command)
	passed := err == nil && exitCode == 0
	res := Result{
		Gate:       g.Name,
		ExitCode:   exitCode,
		Passed:     passed,
		Stdout:     out,
		DurationMs: time.Since(gateStart).Milliseconds(),
	}
	if err != nil {
		res.Stderr = err.Error()
	}
	return res
}
