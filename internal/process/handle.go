package process

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"
)

// Handle is the caller's reference to a running child. Handles created by
// Start must eventually be stopped, or the process group they own leaks.
type Handle struct {
	id   string
	cmd  *exec.Cmd
	pid  int
	tail *tailBuffer

	stopGrace   time.Duration
	joinTimeout time.Duration

	stopStream chan struct{}
	stopOnce   sync.Once
	streamDone chan struct{}
	waitDone   chan struct{}

	termOnce sync.Once
	termErr  error

	mu       sync.Mutex
	exited   bool
	exitCode int
}

// ID returns the run's unique identifier.
func (h *Handle) ID() string { return h.id }

// PID returns the child's process id, which is also its process-group id.
func (h *Handle) PID() int { return h.pid }

// Exited reports whether the child has been reaped.
func (h *Handle) Exited() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exited
}

// ExitCode returns the child's exit code once it has exited. The second
// return is false while the child is still running.
func (h *Handle) ExitCode() (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitCode, h.exited
}

// Tail returns the retained output tail, one line per entry, each with a
// trailing newline.
func (h *Handle) Tail() string { return h.tail.String() }

// TailLines returns the retained output lines, oldest first.
func (h *Handle) TailLines() []string { return h.tail.snapshot() }

// Stop terminates the child's entire process group and waits for the
// leader to be reaped: SIGTERM first, SIGKILL after the grace period. The
// group is always signaled, even when the leader has already exited, so
// descendants it left behind are taken down too. Signaling a group that is
// fully gone is a no-op.
func (h *Handle) Stop(ctx context.Context) error {
	h.signalStreamStop()
	defer h.joinStream(h.joinTimeout)

	h.termOnce.Do(func() { h.termErr = terminateGroup(h.pid, false) })
	if h.termErr != nil {
		return fmt.Errorf("signal process group %d: %w", h.pid, h.termErr)
	}

	select {
	case <-h.waitDone:
		return nil
	case <-time.After(h.stopGrace):
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := terminateGroup(h.pid, true); err != nil {
		return fmt.Errorf("kill process group %d: %w", h.pid, err)
	}
	select {
	case <-h.waitDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// reap waits for the child and records its exit status.
func (h *Handle) reap() {
	err := h.cmd.Wait()
	code := 0
	if err != nil {
		code = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
	}
	h.mu.Lock()
	h.exitCode = code
	h.exited = true
	h.mu.Unlock()
	close(h.waitDone)
}

// signalStreamStop flags the streaming worker to wind down.
func (h *Handle) signalStreamStop() {
	h.stopOnce.Do(func() { close(h.stopStream) })
}

// joinStream waits for the streaming worker, bounded by timeout. A worker
// that misses the bound keeps running in the background and exits on its
// next liveness check; cleanup does not wait for it.
func (h *Handle) joinStream(timeout time.Duration) bool {
	select {
	case <-h.streamDone:
		return true
	case <-time.After(timeout):
		return false
	}
}
