// Package initiative implements the Initiative/phase model and the §4.9
// projection rules that derive phase and initiative status from their
// member WUs.
package initiative

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/lumenflow/lumenflow/internal/wu"
)

// Status is an initiative or phase's lifecycle state.
type Status string

const (
	StatusReady      Status = "ready"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusDone       Status = "done"
	StatusArchived   Status = "archived"
	StatusPending    Status = "pending"
)

// Phase is one ordered phase within an Initiative.
type Phase struct {
	ID     int    `yaml:"id"`
	Status Status `yaml:"status"`
	Title  string `yaml:"title,omitempty"`
}

// Initiative groups WUs into phases (§3).
type Initiative struct {
	ID     string  `yaml:"id"`
	Slug   string  `yaml:"slug"`
	Status Status  `yaml:"status"`
	Phases []Phase `yaml:"phases"`
}

// Path returns the file path for an initiative under initiativeDir.
func Path(initiativeDir, id string) string {
	return filepath.Join(initiativeDir, id+".yaml")
}

// Load reads a single initiative file.
func Load(path string) (*Initiative, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var i Initiative
	if err := yaml.Unmarshal(raw, &i); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &i, nil
}

// Save writes an initiative back to path as YAML.
func Save(path string, i *Initiative) error {
	out, err := yaml.Marshal(i)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", i.ID, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

func isTerminal(s wu.Status) bool {
	return s == wu.StatusDone || s == wu.StatusCancelled || s == wu.StatusArchived
}

// ProjectPhaseStatus implements §4.9's phase projection rule.
func ProjectPhaseStatus(members []wu.Status) Status {
	if len(members) == 0 {
		return StatusPending
	}

	allTerminal := true
	anyInProgress := false
	anyBlocked := false
	mixed := false

	var sawDone, sawOpen bool
	for _, m := range members {
		if !isTerminal(m) {
			allTerminal = false
		}
		switch m {
		case wu.StatusInProgress:
			anyInProgress = true
		case wu.StatusBlocked:
			anyBlocked = true
		case wu.StatusDone:
			sawDone = true
		default:
			sawOpen = true
		}
	}
	mixed = sawDone && sawOpen

	if allTerminal {
		return StatusDone
	}
	if anyInProgress || mixed {
		return StatusInProgress
	}
	if anyBlocked {
		return StatusBlocked
	}
	return StatusPending
}

// ProjectInitiativeStatus implements §4.9's initiative projection rule.
// existing is returned unchanged when neither the "all done" nor
// "work started" condition applies.
func ProjectInitiativeStatus(allMembers []wu.Status, phases []Phase, existing Status) Status {
	allTerminal := len(allMembers) > 0
	for _, m := range allMembers {
		if !isTerminal(m) {
			allTerminal = false
			break
		}
	}
	allPhasesDone := len(phases) > 0
	for _, p := range phases {
		if p.Status != StatusDone {
			allPhasesDone = false
			break
		}
	}
	if allTerminal && allPhasesDone {
		return StatusDone
	}

	anyStarted := false
	for _, m := range allMembers {
		if m != wu.StatusReady {
			anyStarted = true
			break
		}
	}
	if anyStarted {
		return StatusInProgress
	}
	return existing
}
