package gate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// IsInteractive reports whether gate output should stream in full rather
// than collapse to one-line summaries (§4.6's agent-mode output rule).
func IsInteractive(ciSet, verbose bool) bool {
	if verbose {
		return true
	}
	if ciSet {
		return false
	}
	fd := int(os.Stdout.Fd())
	return term.IsTerminal(fd) || isatty.IsTerminal(uintptr(fd))
}

// LogPath builds the agent-mode full-output log path for one gate run
// (§4.6, §6 filesystem layout).
func LogPath(logDir string, at time.Time, laneKebab, wuIDLower string) string {
	name := fmt.Sprintf("gates-%s-%s-%s.log", at.Format("20060102-150405"), laneKebab, wuIDLower)
	return filepath.Join(logDir, name)
}

// WriteFullLog writes every gate's complete stdout/stderr to path.
func WriteFullLog(path string, run RunResult) error {
	var b strings.Builder
	for _, r := range run.Results {
		fmt.Fprintf(&b, "=== %s (exit %d, %dms) ===\n", r.Gate, r.ExitCode, r.DurationMs)
		b.WriteString(r.Stdout)
		if r.Stderr != "" {
			b.WriteString("\n--- stderr ---\n")
			b.WriteString(r.Stderr)
		}
		b.WriteString("\n\n")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// CompactSummary renders a one-line-per-gate summary capped at 500
// characters total (§4.6).
func CompactSummary(run RunResult) string {
	var lines []string
	for _, r := range run.Results {
		status := "pass"
		if !r.Passed {
			status = "fail"
		}
		lines = append(lines, fmt.Sprintf("%s:%s(%dms)", r.Gate, status, r.DurationMs))
	}
	summary := strings.Join(lines, " ")
	if len(summary) > 500 {
		summary = summary[:500]
	}
	return summary
}
