// Package wu implements the WorkUnit model: YAML persistence, schema
// validation, and the normalization rules of §6's WU YAML schema.
package wu

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Type is a WorkUnit's kind.
type Type string

const (
	TypeFeature      Type = "feature"
	TypeBug          Type = "bug"
	TypeDocumentation Type = "documentation"
	TypeProcess      Type = "process"
	TypeTooling      Type = "tooling"
	TypeChore        Type = "chore"
	TypeRefactor     Type = "refactor"
)

// Status is a WorkUnit's lifecycle state, independently derivable from the
// event store (§4.3) and expected to agree with the YAML copy.
type Status string

const (
	StatusReady      Status = "ready"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusDone       Status = "done"
	StatusCancelled  Status = "cancelled"
	StatusArchived   Status = "archived"
)

// Priority is P0 (highest) through P3 (lowest).
type Priority string

const (
	PriorityP0 Priority = "P0"
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
)

// WorkUnit is the persisted §3 WU record.
type WorkUnit struct {
	ID            string   `yaml:"id"`
	Title         string   `yaml:"title"`
	Lane          string   `yaml:"lane"`
	Type          Type     `yaml:"type"`
	Status        Status   `yaml:"status"`
	CodePaths     []string `yaml:"code_paths,omitempty"`
	Priority      Priority `yaml:"priority,omitempty"`
	Created       string   `yaml:"created"`
	AssignedTo    string   `yaml:"assigned_to,omitempty"`
	Initiative    string   `yaml:"initiative,omitempty"`
	Phase         int      `yaml:"phase,omitempty"`
	Acceptance    []string `yaml:"acceptance,omitempty"`
	Notes         []string `yaml:"notes,omitempty"`
	ClaimedBranch string   `yaml:"claimed_branch,omitempty"`
	WorktreePath  string   `yaml:"worktree_path,omitempty"`
}

// UnmarshalYAML accepts phase as either an int or a string, coercing the
// latter per the §6 normalization rule before falling through to the plain
// field-by-field decode.
func (w *WorkUnit) UnmarshalYAML(value *yaml.Node) error {
	var shadow struct {
		ID            string    `yaml:"id"`
		Title         string    `yaml:"title"`
		Lane          string    `yaml:"lane"`
		Type          Type      `yaml:"type"`
		Status        Status    `yaml:"status"`
		CodePaths     []string  `yaml:"code_paths,omitempty"`
		Priority      Priority  `yaml:"priority,omitempty"`
		Created       string    `yaml:"created"`
		AssignedTo    string    `yaml:"assigned_to,omitempty"`
		Initiative    string    `yaml:"initiative,omitempty"`
		Phase         yaml.Node `yaml:"phase"`
		Acceptance    []string  `yaml:"acceptance,omitempty"`
		Notes         []string  `yaml:"notes,omitempty"`
		ClaimedBranch string    `yaml:"claimed_branch,omitempty"`
		WorktreePath  string    `yaml:"worktree_path,omitempty"`
	}
	if err := value.Decode(&shadow); err != nil {
		return err
	}

	*w = WorkUnit{
		ID:            shadow.ID,
		Title:         shadow.Title,
		Lane:          shadow.Lane,
		Type:          shadow.Type,
		Status:        shadow.Status,
		CodePaths:     shadow.CodePaths,
		Priority:      shadow.Priority,
		Created:       shadow.Created,
		AssignedTo:    shadow.AssignedTo,
		Initiative:    shadow.Initiative,
		Acceptance:    shadow.Acceptance,
		Notes:         shadow.Notes,
		ClaimedBranch: shadow.ClaimedBranch,
		WorktreePath:  shadow.WorktreePath,
	}

	switch shadow.Phase.Kind {
	case 0:
		// absent
	case yaml.ScalarNode:
		var asInt int
		if err := shadow.Phase.Decode(&asInt); err == nil {
			w.Phase = asInt
			break
		}
		var asStr string
		if err := shadow.Phase.Decode(&asStr); err != nil {
			return fmt.Errorf("phase: %w", err)
		}
		n, err := NormalizePhaseString(asStr)
		if err != nil {
			return fmt.Errorf("phase %q is not a valid integer: %w", asStr, err)
		}
		w.Phase = n
	default:
		return fmt.Errorf("phase: unsupported YAML node kind %v", shadow.Phase.Kind)
	}
	return nil
}

var idPattern = regexp.MustCompile(`^WU-\d+$`)

// ValidID reports whether id matches the WU-<n> form.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// Path returns the file path for a WU under wuDir.
func Path(wuDir, id string) string {
	return filepath.Join(wuDir, id+".yaml")
}

// Load reads and normalizes a single WU file.
func Load(path string) (*WorkUnit, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var w WorkUnit
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	Normalize(&w)
	return &w, nil
}

// Save writes a WU back to path as YAML.
func Save(path string, w *WorkUnit) error {
	out, err := yaml.Marshal(w)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", w.ID, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

// LoadAll reads every *.yaml file directly under wuDir.
func LoadAll(wuDir string) ([]*WorkUnit, error) {
	entries, err := os.ReadDir(wuDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var units []*WorkUnit
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		w, err := Load(filepath.Join(wuDir, e.Name()))
		if err != nil {
			return nil, err
		}
		units = append(units, w)
	}
	return units, nil
}

var typeAliases = map[string]Type{
	"docs":          TypeDocumentation,
	"doc":           TypeDocumentation,
	"feat":          TypeFeature,
	"fix":           TypeBug,
	"defect":        TypeBug,
	"infra":         TypeTooling,
	"infrastructure": TypeTooling,
	"cleanup":       TypeChore,
}

var isoDatePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// Normalize applies the §6 WU YAML normalization rules in place.
func Normalize(w *WorkUnit) {
	if m := isoDatePrefix.FindString(w.Created); m != "" {
		w.Created = m
	}

	if alias, ok := typeAliases[string(w.Type)]; ok {
		w.Type = alias
	}

	if w.AssignedTo != "" && !strings.Contains(w.AssignedTo, "@") {
		w.AssignedTo = w.AssignedTo + "@lumenflow.local"
	}

	if w.Priority != "" {
		w.Priority = Priority(strings.ToUpper(string(w.Priority)))
	}
}

// NormalizePhaseString coerces a raw YAML scalar (which may have been parsed
// as a string if the source file quoted it) into an int. UnmarshalYAML
// calls it when the phase node does not decode as an int.
func NormalizePhaseString(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
