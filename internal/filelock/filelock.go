// Package filelock provides an OS-level advisory lock over an open file,
// shared by the event store (§4.3) and the merge lock (§4.7) so both use
// the same cross-process exclusion primitive.
package filelock

import (
	"os"

	"golang.org/x/sys/unix"
)

// Lock takes an exclusive advisory lock on f, blocking until it is
// available. The returned func releases it.
func Lock(f *os.File) (unlock func(), err error) {
	fd := int(f.Fd())
	if err := unix.Flock(fd, unix.LOCK_EX); err != nil {
		return nil, err
	}
	return func() { _ = unix.Flock(fd, unix.LOCK_UN) }, nil
}

// TryLock attempts a non-blocking exclusive lock, returning ok=false if
// another process already holds it.
func TryLock(f *os.File) (unlock func(), ok bool, err error) {
	fd := int(f.Fd())
	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		if err == unix.EWOULDBLOCK {
			return nil, false, nil
		}
		return nil, false, err
	}
	return func() { _ = unix.Flock(fd, unix.LOCK_UN) }, true, nil
}
