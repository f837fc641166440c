package wu

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Issue is one finding from schema or preflight validation, structured so a
// caller can report many problems from a single pass instead of stopping at
// the first one.
type Issue struct {
	Field   string
	Message string
}

// Report collects issues found while validating a WU, following the
// teacher's pattern of gathering every finding before deciding pass/fail.
type Report struct {
	WuID   string
	Issues []Issue
}

func (r *Report) FileIssue(field, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) Valid() bool { return len(r.Issues) == 0 }

var validTypes = map[Type]bool{
	TypeFeature: true, TypeBug: true, TypeDocumentation: true,
	TypeProcess: true, TypeTooling: true, TypeChore: true, TypeRefactor: true,
}

var validStatuses = map[Status]bool{
	StatusReady: true, StatusInProgress: true, StatusBlocked: true,
	StatusDone: true, StatusCancelled: true, StatusArchived: true,
}

var createdPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateSchema checks the required/optional §6 WU YAML schema, after
// Normalize has already run.
func ValidateSchema(w *WorkUnit) *Report {
	r := &Report{WuID: w.ID}

	if !ValidID(w.ID) {
		r.FileIssue("id", "must match WU-<n>, got %q", w.ID)
	}
	if strings.TrimSpace(w.Title) == "" {
		r.FileIssue("title", "is required")
	}
	if strings.TrimSpace(w.Lane) == "" {
		r.FileIssue("lane", "is required")
	}
	if !validTypes[w.Type] {
		r.FileIssue("type", "unrecognized type %q", w.Type)
	}
	if !validStatuses[w.Status] {
		r.FileIssue("status", "unrecognized status %q", w.Status)
	}
	if !createdPattern.MatchString(w.Created) {
		r.FileIssue("created", "must be YYYY-MM-DD, got %q", w.Created)
	}
	if w.Priority != "" {
		switch w.Priority {
		case PriorityP0, PriorityP1, PriorityP2, PriorityP3:
		default:
			r.FileIssue("priority", "must be P0..P3, got %q", w.Priority)
		}
	}
	return r
}

// PreflightCodePaths checks that every code_paths entry exists under
// repoRoot, suggesting the closest existing sibling on a miss (§4.8 step 3).
// Test paths paired with code_paths are not checked.
func PreflightCodePaths(w *WorkUnit, repoRoot string) *Report {
	r := &Report{WuID: w.ID}
	for _, p := range w.CodePaths {
		full := filepath.Join(repoRoot, p)
		if _, err := os.Stat(full); err != nil {
			if suggestion := closestSibling(full); suggestion != "" {
				r.FileIssue("code_paths", "%q does not exist (did you mean %q?)", p, suggestion)
			} else {
				r.FileIssue("code_paths", "%q does not exist", p)
			}
		}
	}
	return r
}

// closestSibling returns the existing entry in the target path's parent
// directory with the smallest Levenshtein distance to the target's base
// name; ties go to the lexically first name.
func closestSibling(path string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	best := ""
	bestDist := -1
	for _, n := range names {
		d := levenshtein(base, n)
		if bestDist == -1 || d < bestDist {
			best, bestDist = n, d
		}
	}
	if best == "" {
		return ""
	}
	return filepath.Join(dir, best)
}

func levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			min := curr[j-1] + 1
			if prev[j]+1 < min {
				min = prev[j] + 1
			}
			if prev[j-1]+cost < min {
				min = prev[j-1] + cost
			}
			curr[j] = min
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}
