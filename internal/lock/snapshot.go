package lock

import (
	"fmt"
	"os"
	"path/filepath"
)

// Snapshot captures the pre-write bytes of a set of metadata paths so a
// failed merge can be rolled back to exactly the prior on-disk state
// (§4.7's "Snapshot transactions").
type Snapshot struct {
	contents map[string][]byte // nil value means the path was absent
}

// Take reads the current bytes of each path, or records absence.
func Take(paths []string) (*Snapshot, error) {
	s := &Snapshot{contents: make(map[string][]byte, len(paths))}
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			if os.IsNotExist(err) {
				s.contents[p] = nil
				continue
			}
			return nil, fmt.Errorf("snapshot %s: %w", p, err)
		}
		s.contents[p] = b
	}
	return s, nil
}

// Restore rewrites every captured path back to its snapshotted content,
// deleting paths that were originally absent.
func (s *Snapshot) Restore() error {
	for p, b := range s.contents {
		if b == nil {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("restore %s: remove: %w", p, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(p, b, 0o644); err != nil {
			return fmt.Errorf("restore %s: %w", p, err)
		}
	}
	return nil
}

// Transaction pairs a Snapshot with bookkeeping about whether the caller's
// git commit has happened yet, matching the Snapshot/Commit/Restore flow.
type Transaction struct {
	snapshot  *Snapshot
	committed bool
}

// Begin takes a snapshot and starts a transaction over paths.
func Begin(paths []string) (*Transaction, error) {
	snap, err := Take(paths)
	if err != nil {
		return nil, err
	}
	return &Transaction{snapshot: snap}, nil
}

// Commit marks the transaction committed. It is bookkeeping only — the
// caller is responsible for the actual `git add`/`git commit` that follows.
func (t *Transaction) Commit() { t.committed = true }

// Committed reports whether Commit has been called.
func (t *Transaction) Committed() bool { return t.committed }

// Restore rolls back to the snapshot taken at Begin.
func (t *Transaction) Restore() error { return t.snapshot.Restore() }
