package wu

import (
	"strings"
)

// MetadataAllowlist is the fixed set of paths the dirty-main guard permits
// regardless of a WU's code_paths (§4.8's "Dirty-main guard"). wuYAMLPath
// and eventsLogPath are supplied by the caller since they vary by
// configuration; the rest are well-known names relative to repo root.
func MetadataAllowlist(wuYAMLPath, statusMDPath, backlogPath, stampPath, eventsLogPath, initiativeYAMLPath string) []string {
	allow := []string{statusMDPath, backlogPath, stampPath, eventsLogPath}
	if wuYAMLPath != "" {
		allow = append(allow, wuYAMLPath)
	}
	if initiativeYAMLPath != "" {
		allow = append(allow, initiativeYAMLPath)
	}
	return allow
}

// GuardResult is the outcome of the dirty-main guard.
type GuardResult struct {
	Valid          bool
	UnrelatedFiles []string
}

// CheckDirtyMain implements the §4.8 dirty-main guard: every non-empty
// `git status --porcelain` line is allowed iff its path lies under one of
// codePaths (prefix match for directories) or is in the metadata allowlist.
func CheckDirtyMain(porcelainLines []string, codePaths, allowlist []string) GuardResult {
	var unrelated []string
	for _, line := range porcelainLines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		path := statusLinePath(line)
		if pathUnderAny(path, codePaths) || pathInAny(path, allowlist) {
			continue
		}
		unrelated = append(unrelated, path)
	}
	return GuardResult{Valid: len(unrelated) == 0, UnrelatedFiles: unrelated}
}

// statusLinePath extracts the path portion of a `git status --porcelain`
// line, stripping the two-character status code and any rename arrow.
func statusLinePath(line string) string {
	if len(line) < 3 {
		return strings.TrimSpace(line)
	}
	rest := strings.TrimSpace(line[2:])
	if idx := strings.Index(rest, " -> "); idx >= 0 {
		rest = rest[idx+len(" -> "):]
	}
	return rest
}

func pathUnderAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}

func pathInAny(path string, set []string) bool {
	for _, s := range set {
		if path == s {
			return true
		}
	}
	return false
}
