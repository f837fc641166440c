// Package gate implements the Gate Runner (§4.6): an ordered chain of
// shell-command validators run against a worktree, with risk-tier
// classification and agent-mode compact output.
package gate

import (
	"context"
	"time"

	"github.com/lumenflow/lumenflow/internal/ports"
)

// RiskTier classifies a change set for gate selection.
type RiskTier string

const (
	RiskDocsOnly  RiskTier = "docs-only"
	RiskStandard  RiskTier = "standard"
	RiskHighRisk  RiskTier = "high-risk"
)

// Definition is one configured gate.
type Definition struct {
	Name       string
	Command    string
	TimeoutSec int
	// SafetyCritical gates still run even when the change set is
	// classified docs-only (§4.6 step 1).
	SafetyCritical bool
}

// Result is one gate's outcome.
type Result struct {
	Gate       string
	ExitCode   int
	Passed     bool
	Stdout     string
	Stderr     string
	DurationMs int64
}

// RunResult aggregates a full chain run.
type RunResult struct {
	Passed          bool
	PassedCount     int
	FailedCount     int
	TotalDurationMs int64
	Results         []Result
}

// ClassifyRisk applies the §4.6 pattern rules over a changed-file list.
func ClassifyRisk(changedFiles []string) RiskTier {
	if len(changedFiles) == 0 {
		return RiskDocsOnly
	}
	allDocs := true
	anyHighRisk := false
	for _, f := range changedFiles {
		if !isDocsPath(f) {
			allDocs = false
		}
		if isHighRiskPath(f) {
			anyHighRisk = true
		}
	}
	switch {
	case allDocs:
		return RiskDocsOnly
	case anyHighRisk:
		return RiskHighRisk
	default:
		return RiskStandard
	}
}

func isDocsPath(path string) bool {
	return hasAnyPrefix(path, "docs/") || hasSuffix(path, ".md")
}

func isHighRiskPath(path string) bool {
	return hasAnyPrefix(path, "internal/lock/", "internal/pipeline/", "internal/git/") ||
		hasSuffix(path, "go.mod") || hasSuffix(path, "go.sum")
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if len(s) >= len(p) && s[:len(p)] == p {
			return true
		}
	}
	return false
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

// Chain runs a configured gate chain against a worktree.
type Chain struct {
	Gates    []Definition
	FailFast bool
	Runner   ports.ProcessRunner
}

// applicableGates drops the test gate for a docs-only risk tier unless the
// gate is marked safety-critical (§4.6 step 1).
func applicableGates(gates []Definition, tier RiskTier) []Definition {
	if tier != RiskDocsOnly {
		return gates
	}
	var out []Definition
	for _, g := range gates {
		if g.Name == "test" && !g.SafetyCritical {
			continue
		}
		out = append(out, g)
	}
	return out
}

// Run executes the chain sequentially in declared order, honoring
// FailFast (§4.6 step 3).
func (c Chain) Run(ctx context.Context, worktreePath string, changedFiles []string) RunResult {
	tier := ClassifyRisk(changedFiles)
	gates := applicableGates(c.Gates, tier)

	var run RunResult
	start := time.Now()
	for _, g := range gates {
		res := c.runOne(ctx, worktreePath, g)
		run.Results = append(run.Results, res)
		if res.Passed {
			run.PassedCount++
		} else {
			run.FailedCount++
			if c.FailFast {
				break
			}
		}
	}
	run.TotalDurationMs = time.Since(start).Milliseconds()
	run.Passed = run.FailedCount == 0
	return run
}
