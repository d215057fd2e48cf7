// Package filelock coordinates access to shared resources across
// independent processes using advisory file locks. Locking is cooperative:
// it only serializes holders that acquire the same path through the same
// flock protocol.
package filelock

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"

	"github.com/procrun/procrun/internal/metrics"
)

// Mode selects the flavor of advisory lock to take.
type Mode int

const (
	// Exclusive excludes every other cooperating holder.
	Exclusive Mode = iota
	// Shared admits concurrent shared holders and excludes exclusive ones.
	Shared
)

const (
	DefaultTimeout = 10 * time.Second
	DefaultPoll    = 100 * time.Millisecond
)

// TimeoutError reports that the lock stayed contended for the entire
// acquisition budget. Callers can match it to distinguish contention from
// lock-backend I/O failures.
type TimeoutError struct {
	Path    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("could not acquire lock on %s within %s", e.Path, e.Timeout)
}

// Lock is a held advisory lock. Release it on every exit path, typically
// with defer.
type Lock struct {
	fl *flock.Flock
}

// Acquire takes an advisory lock on path, retrying every poll interval
// until timeout has elapsed. The first attempt is always made, so a zero
// timeout still succeeds on an uncontended lock. A Lock is returned only
// when the lock is actually held; hitting the deadline yields a
// *TimeoutError.
func Acquire(ctx context.Context, path string, mode Mode, timeout, poll time.Duration) (*Lock, error) {
	if poll <= 0 {
		poll = DefaultPoll
	}

	fl := flock.New(path)
	try := fl.TryLock
	if mode == Shared {
		try = fl.TryRLock
	}

	start := time.Now()
	for {
		locked, err := try()
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", path, err)
		}
		if locked {
			metrics.IncLockAcquired()
			metrics.ObserveLockWait(time.Since(start))
			return &Lock{fl: fl}, nil
		}
		if time.Since(start) >= timeout {
			metrics.IncLockTimeout()
			return nil, &TimeoutError{Path: path, Timeout: timeout}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(poll):
		}
	}
}

// Path returns the filesystem path backing the lock.
func (l *Lock) Path() string {
	return l.fl.Path()
}

// Release drops the lock.
func (l *Lock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("unlock %s: %w", l.fl.Path(), err)
	}
	return nil
}
