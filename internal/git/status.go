package git

import (
	"context"
	"strconv"
	"strings"
)

// Status is the GitState value (§3): a snapshot of one worktree's
// relationship to its upstream, computed from a single
// `git status --porcelain -b` invocation.
type Status struct {
	Branch        string
	IsDetached    bool
	IsDirty       bool
	HasStaged     bool
	Ahead         int
	Behind        int
	Tracking      string
	HasTracking   bool
	ModifiedFiles []string
	HasError      bool
	ErrorMessage  string
}

// ReadStatus runs `git status --porcelain -b` in dir and parses the result
// into a Status. Failures degrade to HasError=true rather than returning an
// error, per §4.1: "Failure: I/O or git failures degrade to unknown/hasError
// rather than throwing."
func ReadStatus(ctx context.Context, runner Runner, dir string) Status {
	out, err := runner.Exec(ctx, dir, "status", "--porcelain=v1", "-b")
	if err != nil {
		return Status{HasError: true, ErrorMessage: err.Error()}
	}
	return parseStatus(out)
}

func parseStatus(out string) Status {
	lines := strings.Split(out, "\n")
	if len(lines) == 0 {
		return Status{HasError: true, ErrorMessage: "empty status output"}
	}

	st := Status{}
	header := lines[0]
	if !strings.HasPrefix(header, "## ") {
		return Status{HasError: true, ErrorMessage: "unexpected status header: " + header}
	}
	parseBranchHeader(header[3:], &st)

	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		st.ModifiedFiles = append(st.ModifiedFiles, strings.TrimSpace(line[3:]))
		if line[0] != ' ' && line[0] != '?' {
			st.HasStaged = true
		}
		st.IsDirty = true
	}

	return st
}

func parseBranchHeader(header string, st *Status) {
	if strings.HasPrefix(header, "HEAD (no branch)") || strings.Contains(header, "no branch)") {
		st.IsDetached = true
		return
	}

	// Formats: "branch", "branch...origin/branch", "branch...origin/branch [ahead 1, behind 2]"
	rest := header
	if idx := strings.Index(rest, "..."); idx >= 0 {
		st.Branch = rest[:idx]
		rest = rest[idx+3:]
	} else if idx := strings.IndexByte(rest, ' '); idx >= 0 {
		st.Branch = rest[:idx]
		rest = rest[idx:]
	} else {
		st.Branch = rest
		return
	}

	if bracket := strings.Index(rest, "["); bracket >= 0 {
		st.Tracking = strings.TrimSpace(rest[:bracket])
		inner := strings.TrimSuffix(strings.TrimSpace(rest[bracket+1:]), "]")
		for _, part := range strings.Split(inner, ",") {
			part = strings.TrimSpace(part)
			if n, ok := parseCountedWord(part, "ahead"); ok {
				st.Ahead = n
			}
			if n, ok := parseCountedWord(part, "behind"); ok {
				st.Behind = n
			}
		}
	} else {
		st.Tracking = strings.TrimSpace(rest)
	}
	st.HasTracking = st.Tracking != ""
}

func parseCountedWord(part, word string) (int, bool) {
	if !strings.HasPrefix(part, word+" ") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(part, word+" ")))
	if err != nil {
		return 0, false
	}
	return n, true
}
