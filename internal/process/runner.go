package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/procrun/procrun/internal/metrics"
)

// Sink receives one line of child output at a time, in production order.
type Sink func(line string)

const (
	defaultTailLines   = 10
	defaultReadPoll    = 100 * time.Millisecond
	defaultWaitPoll    = time.Second
	defaultJoinTimeout = time.Second
	defaultStopGrace   = 5 * time.Second

	// drainPoll bounds each read while flushing leftover pipe data after
	// the child has exited.
	drainPoll = 50 * time.Millisecond
)

// Options control spawning and streaming. Zero values take the defaults
// above.
type Options struct {
	// TailLines caps the retained output tail.
	TailLines int
	// ReadPoll bounds each wait for pipe data in the streaming worker.
	ReadPoll time.Duration
	// WaitPoll is the liveness polling interval of the blocking wait loop.
	WaitPoll time.Duration
	// JoinTimeout bounds how long Run waits for the worker after exit.
	JoinTimeout time.Duration
	// StopGrace is how long Stop waits after SIGTERM before escalating.
	StopGrace time.Duration
	// PrefixPID prefixes every forwarded line with "[pid] ", useful when
	// the sink multiplexes output from several runs.
	PrefixPID bool
	// Dir is the child's working directory. Empty inherits the parent's.
	Dir string
	// Env entries are appended to the parent environment.
	Env []string
}

func (o Options) withDefaults() Options {
	if o.TailLines <= 0 {
		o.TailLines = defaultTailLines
	}
	if o.ReadPoll <= 0 {
		o.ReadPoll = defaultReadPoll
	}
	if o.WaitPoll <= 0 {
		o.WaitPoll = defaultWaitPoll
	}
	if o.JoinTimeout <= 0 {
		o.JoinTimeout = defaultJoinTimeout
	}
	if o.StopGrace <= 0 {
		o.StopGrace = defaultStopGrace
	}
	return o
}

// Result is the terminal outcome of a blocking run.
type Result struct {
	Success  bool
	ExitCode int // -1 when the child never reported an exit status
	Stdout   string
	Err      error
}

// Runner launches shell commands under supervision.
type Runner struct {
	opts Options
	sink Sink
}

// NewRunner constructs a runner that forwards output lines to sink. A nil
// sink discards output.
func NewRunner(sink Sink, opts Options) *Runner {
	if sink == nil {
		sink = func(string) {}
	}
	return &Runner{opts: opts.withDefaults(), sink: sink}
}

// Start launches command under the shell in a new process group and begins
// draining its combined stdout/stderr in the background. The caller owns
// the returned handle and must eventually call Stop on it unless the run
// was driven through Run.
func (r *Runner) Start(ctx context.Context, command string) (*Handle, error) {
	if command == "" {
		return nil, errors.New("start: empty command")
	}

	cmd := shellCommand(ctx, command)
	if r.opts.Dir != "" {
		cmd.Dir = r.opts.Dir
	}
	if len(r.opts.Env) > 0 {
		cmd.Env = append(os.Environ(), r.opts.Env...)
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("output pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw
	configureCmdSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, fmt.Errorf("start %q: %w", command, err)
	}
	// The child holds its own copy of the write end; drop ours so the read
	// side sees EOF once the group's writers are gone.
	pw.Close()

	h := &Handle{
		id:          uuid.NewString(),
		cmd:         cmd,
		pid:         cmd.Process.Pid,
		tail:        newTailBuffer(r.opts.TailLines),
		stopGrace:   r.opts.StopGrace,
		joinTimeout: r.opts.JoinTimeout,
		stopStream:  make(chan struct{}),
		streamDone:  make(chan struct{}),
		waitDone:    make(chan struct{}),
	}

	metrics.IncRunsStarted()
	r.emit(h, fmt.Sprintf("launch pid %d: %s", h.pid, command))

	go h.reap()
	go r.stream(h, pr)

	return h, nil
}

// Run executes command to completion. The returned error is non-nil only
// when spawning itself failed; every post-spawn failure is captured in the
// result instead, because by then a live process group exists and cleanup
// must run unconditionally. The group is terminated before Run returns, on
// every path.
func (r *Runner) Run(ctx context.Context, command string) (Result, error) {
	h, err := r.Start(ctx, command)
	if err != nil {
		return Result{ExitCode: -1, Err: err}, err
	}

	var waitErr error
poll:
	for !h.Exited() {
		select {
		case <-ctx.Done():
			waitErr = ctx.Err()
			break poll
		case <-time.After(r.opts.WaitPoll):
		}
	}

	h.signalStreamStop()
	h.joinStream(r.opts.JoinTimeout)

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.stopGrace+5*time.Second)
	defer cancel()
	if stopErr := h.Stop(stopCtx); stopErr != nil {
		r.emit(h, fmt.Sprintf("terminate process group %d: %v", h.pid, stopErr))
	}

	res := Result{ExitCode: -1, Stdout: h.Tail(), Err: waitErr}
	outcome := "error"
	if waitErr == nil {
		code, _ := h.ExitCode()
		res.ExitCode = code
		res.Success = code == 0
		outcome = "failure"
		if res.Success {
			outcome = "success"
		}
	}
	metrics.IncRunsFinished(outcome)
	r.emit(h, fmt.Sprintf("pid %d exited with code %d", h.pid, res.ExitCode))
	return res, nil
}

// stream drains the child's combined output until the child exits or the
// handle is flagged for termination, then flushes whatever the pipe still
// holds. Read failures degrade telemetry but never fail the run.
func (r *Runner) stream(h *Handle, pipe *os.File) {
	defer close(h.streamDone)
	defer pipe.Close()

	sc := newLineScanner(pipe)
	for {
		select {
		case <-h.stopStream:
			r.drain(h, sc)
			return
		default:
		}
		if h.Exited() {
			r.drain(h, sc)
			return
		}

		line, ok, err := sc.next(r.opts.ReadPoll)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.emit(h, fmt.Sprintf("error reading output: %v", err))
			}
			return
		}
		if ok {
			h.tail.append(line)
			r.emit(h, line)
		}
	}
}

// drain consumes lines that are already buffered in the pipe without
// waiting for new data to arrive.
func (r *Runner) drain(h *Handle, sc *lineScanner) {
	for {
		line, ok, err := sc.next(drainPoll)
		if err != nil || !ok {
			return
		}
		h.tail.append(line)
		r.emit(h, line)
	}
}

func (r *Runner) emit(h *Handle, line string) {
	if r.opts.PrefixPID {
		r.sink(fmt.Sprintf("[%d] %s", h.pid, line))
		return
	}
	r.sink(line)
}
