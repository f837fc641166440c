// Package signal implements the append-only signals.jsonl log (§3): notes
// surfaced to the operator at claim time. Pushing/pulling signals to a
// remote control plane is an external collaborator, not implemented here.
package signal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lumenflow/lumenflow/internal/filelock"
)

// Origin distinguishes locally-authored signals from ones pulled from a
// remote control plane.
type Origin string

const (
	OriginLocal  Origin = "local"
	OriginRemote Origin = "remote"
)

// Signal is one line of signals.jsonl.
type Signal struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	Read      bool      `json:"read"`
	WuID      string    `json:"wuId,omitempty"`
	Lane      string    `json:"lane,omitempty"`
	Type      string    `json:"type,omitempty"`
	Origin    Origin    `json:"origin,omitempty"`
	RemoteID  string    `json:"remoteId,omitempty"`
}

// Log is the signals.jsonl reader/writer.
type Log struct {
	path string
	mu   sync.Mutex
}

func NewLog(path string) *Log { return &Log{path: path} }

// Append records a new signal.
func (l *Log) Append(s Signal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open signal log: %w", err)
	}
	defer f.Close()

	unlock, err := filelock.Lock(f)
	if err != nil {
		return fmt.Errorf("lock signal log: %w", err)
	}
	defer unlock()

	line, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append signal: %w", err)
	}
	return nil
}

// All reads every signal in the log, in file order.
func (l *Log) All() ([]Signal, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open signal log: %w", err)
	}
	defer f.Close()

	var signals []Signal
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var s Signal
		if err := json.Unmarshal([]byte(line), &s); err != nil {
			continue
		}
		signals = append(signals, s)
	}
	return signals, scanner.Err()
}

// Unread returns every signal with Read=false, optionally filtered to a
// single WU id (empty string means all WUs), surfaced at claim time.
func Unread(all []Signal, wuID string) []Signal {
	var out []Signal
	for _, s := range all {
		if s.Read {
			continue
		}
		if wuID != "" && s.WuID != "" && s.WuID != wuID {
			continue
		}
		out = append(out, s)
	}
	return out
}
