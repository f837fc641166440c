// Package lock implements the merge lock and snapshot transaction
// primitives (§4.7): a single-holder, staleness-reclaimable file lock
// guarding the merge pipeline, and an in-memory snapshot/restore helper for
// atomic-looking metadata writes.
package lock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// File is the on-disk shape of merge.lock (§3).
type File struct {
	WuID      string    `json:"wuId"`
	LockID    string    `json:"lockId"`
	CreatedAt time.Time `json:"createdAt"`
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
}

// AcquireResult is the outcome of an Acquire call.
type AcquireResult struct {
	Acquired  bool
	LockID    string
	HeldBy    string
	HeldSince time.Time
}

// Options bounds how long Acquire waits and how old a lock must be before
// it is considered abandoned.
type Options struct {
	WaitMs         int
	StaleMs        int
	PollIntervalMs int
}

// Merge is the merge.lock file at path.
type Merge struct {
	path string
}

func NewMerge(path string) *Merge { return &Merge{path: path} }

// Acquire implements the §4.7 merge lock algorithm: read-or-create with
// open-exclusive-then-rename, staleness reclaim, and idempotent re-entry by
// the same wuId.
func (m *Merge) Acquire(wuID string, opts Options) (AcquireResult, error) {
	deadline := time.Now().Add(time.Duration(opts.WaitMs) * time.Millisecond)
	poll := time.Duration(opts.PollIntervalMs) * time.Millisecond
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}

	for {
		existing, err := m.read()
		switch {
		case os.IsNotExist(err):
			lockID, writeErr := m.writeNew(wuID)
			if writeErr == nil {
				return AcquireResult{Acquired: true, LockID: lockID}, nil
			}
			if !os.IsExist(writeErr) {
				return AcquireResult{}, writeErr
			}
			// Lost the race to another writer; fall through to retry.
		case err != nil:
			return AcquireResult{}, fmt.Errorf("read merge lock: %w", err)
		case existing.WuID == wuID:
			return AcquireResult{Acquired: true, LockID: existing.LockID}, nil
		case time.Since(existing.CreatedAt) > time.Duration(opts.StaleMs)*time.Millisecond:
			_ = os.Remove(m.path)
			continue
		default:
			if time.Now().After(deadline) {
				return AcquireResult{
					Acquired:  false,
					HeldBy:    existing.WuID,
					HeldSince: existing.CreatedAt,
				}, nil
			}
		}

		if time.Now().After(deadline) {
			return AcquireResult{Acquired: false}, nil
		}
		time.Sleep(poll)
	}
}

// Release removes the lock file only if its current lockId matches.
func (m *Merge) Release(lockID string) error {
	existing, err := m.read()
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read merge lock: %w", err)
	}
	if existing.LockID != lockID {
		return fmt.Errorf("lock held by a different lockId, refusing to release")
	}
	return os.Remove(m.path)
}

// WithMergeLock acquires the lock for wuID, runs fn, and always releases.
func (m *Merge) WithMergeLock(wuID string, opts Options, fn func() error) error {
	result, err := m.Acquire(wuID, opts)
	if err != nil {
		return err
	}
	if !result.Acquired {
		return fmt.Errorf("merge lock held by %s since %s", result.HeldBy, result.HeldSince)
	}
	defer func() { _ = m.Release(result.LockID) }()
	return fn()
}

func (m *Merge) read() (File, error) {
	raw, err := os.ReadFile(m.path)
	if err != nil {
		return File{}, err
	}
	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return File{}, fmt.Errorf("parse merge lock: %w", err)
	}
	return f, nil
}

func (m *Merge) writeNew(wuID string) (string, error) {
	hostname, _ := os.Hostname()
	f := File{
		WuID:      wuID,
		LockID:    uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		PID:       os.Getpid(),
		Hostname:  hostname,
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return "", err
	}
	tmp := m.path + fmt.Sprintf(".tmp-%d", os.Getpid())
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return "", err
	}

	lf, err := os.OpenFile(m.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		_ = os.Remove(tmp)
		if os.IsExist(err) {
			return "", err
		}
		return "", err
	}
	lf.Close()
	if err := os.Rename(tmp, m.path); err != nil {
		return "", err
	}
	return f.LockID, nil
}
