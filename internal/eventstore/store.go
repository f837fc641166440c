package eventstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/lumenflow/lumenflow/internal/filelock"
)

// Store is the append-only JSONL WU event log at path.
type Store struct {
	path string
	mu   sync.Mutex // serializes writers within this process
}

// NewStore opens a Store bound to path. The file is created lazily on
// first Append; Replay on a missing file returns an empty projection.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Append writes one event to the log, holding an OS-level advisory lock for
// the duration of the write (§5) so concurrent processes never interleave
// partial lines.
func (s *Store) Append(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	unlock, err := filelock.Lock(f)
	if err != nil {
		return fmt.Errorf("lock event log: %w", err)
	}
	defer unlock()

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// ReplayResult is the outcome of a full log scan.
type ReplayResult struct {
	States   map[string]ProjectedState
	Warnings []string
}

// Replay performs the single linear scan that derives every WU's current
// projected status (§4.3). A missing file is not an error — it means no
// events have ever been recorded.
func (s *Store) Replay() (ReplayResult, error) {
	result := ReplayResult{States: make(map[string]ProjectedState)}

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return result, fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e Event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("line %d: malformed event skipped: %v", lineNo, err))
			continue
		}
		state, ok := result.States[e.WuID]
		if !ok {
			state = ProjectedState{WuID: e.WuID, Status: StatusReady}
		}
		before := state.IgnoredTransitions
		state = apply(state, e)
		if state.IgnoredTransitions > before {
			result.Warnings = append(result.Warnings, fmt.Sprintf("line %d: illegal transition %s for %s ignored", lineNo, e.Type, e.WuID))
		}
		result.States[e.WuID] = state
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("read event log: %w", err)
	}
	return result, nil
}

// ProjectOne replays the full log and returns the state of a single WU,
// matching Replay's result for that id exactly (§8's read-transparency
// property depends on this never diverging from Replay).
func (s *Store) ProjectOne(wuID string) (ProjectedState, error) {
	result, err := s.Replay()
	if err != nil {
		return ProjectedState{}, err
	}
	if state, ok := result.States[wuID]; ok {
		return state, nil
	}
	return ProjectedState{WuID: wuID, Status: StatusReady}, nil
}

// DetectInconsistency reports a human-readable reason when a WU's YAML
// status disagrees with its projected status, or "" if they agree.
func DetectInconsistency(yamlStatus, projectedStatus Status) string {
	if yamlStatus == projectedStatus {
		return ""
	}
	return fmt.Sprintf("YAML says %s but event store shows %s", yamlStatus, projectedStatus)
}
