// Package runlock serializes pipeline runs. Stages share one SQLite store
// and one rendering job file, so two concurrent runs would corrupt each
// other; a file lock next to the database keeps runs exclusive across
// processes.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrHeld reports that another run already holds the lock.
var ErrHeld = errors.New("another run is already in progress")

// Lock is an exclusive, process-wide run lock.
type Lock struct {
	path string
	lock *flock.Flock
}

// New creates a lock for the database at dbPath. The lock file lives next
// to the database.
func New(dbPath string) *Lock {
	path := filepath.Join(filepath.Dir(dbPath), "garland.lock")
	return &Lock{path: path, lock: flock.New(path)}
}

// Acquire takes the lock without blocking. ErrHeld is returned when
// another process owns it.
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return ErrHeld
	}
	return nil
}

// Release drops the lock. Safe to call when not held.
func (l *Lock) Release() error {
	return l.lock.Unlock()
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}
