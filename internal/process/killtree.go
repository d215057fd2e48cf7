package process

import (
	"context"
	"fmt"
	"time"

	gops "github.com/shirou/gopsutil/v3/process"

	"github.com/procrun/procrun/internal/metrics"
)

// DefaultKillGrace is how long KillTree waits for signaled processes to
// exit before giving up on them.
const DefaultKillGrace = 5 * time.Second

// KillTree terminates every live descendant of pid and, when includeRoot
// is set, pid itself. Descendants are signaled first and given up to grace
// to exit; the pids of any that survive are returned rather than escalated.
// A process that is already gone, root included, counts as success.
func KillTree(ctx context.Context, pid int32, includeRoot bool, grace time.Duration) ([]int32, error) {
	if grace <= 0 {
		grace = DefaultKillGrace
	}

	root, err := gops.NewProcessWithContext(ctx, pid)
	if err != nil {
		// Root already gone; nothing to do.
		return nil, nil
	}

	children := descendants(ctx, root)
	for _, child := range children {
		// Kill errors here almost always mean the process beat us to the
		// exit; the liveness wait below sorts out the rest.
		_ = child.KillWithContext(ctx)
	}
	survivors := waitGone(ctx, children, grace)
	metrics.AddKillTreeSurvivors(len(survivors))

	if includeRoot {
		if err := root.KillWithContext(ctx); err != nil {
			if running, rerr := root.IsRunningWithContext(ctx); rerr == nil && !running {
				return survivors, nil
			}
			return survivors, fmt.Errorf("kill process %d: %w", pid, err)
		}
		waitGone(ctx, []*gops.Process{root}, grace)
	}
	return survivors, nil
}

// descendants walks the child tree breadth-first. Processes that vanish
// mid-walk are simply skipped.
func descendants(ctx context.Context, root *gops.Process) []*gops.Process {
	var out []*gops.Process
	queue := []*gops.Process{root}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		children, err := p.ChildrenWithContext(ctx)
		if err != nil {
			continue
		}
		out = append(out, children...)
		queue = append(queue, children...)
	}
	return out
}

// waitGone polls the given processes until they have all exited or grace
// runs out, and returns the pids still alive at the end.
func waitGone(ctx context.Context, procs []*gops.Process, grace time.Duration) []int32 {
	deadline := time.Now().Add(grace)
	remaining := procs
	for len(remaining) > 0 {
		alive := remaining[:0:0]
		for _, p := range remaining {
			if running, err := p.IsRunningWithContext(ctx); err == nil && running {
				alive = append(alive, p)
			}
		}
		remaining = alive
		if len(remaining) == 0 || !time.Now().Before(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			pids := make([]int32, 0, len(remaining))
			for _, p := range remaining {
				pids = append(pids, p.Pid)
			}
			return pids
		case <-time.After(100 * time.Millisecond):
		}
	}
	pids := make([]int32, 0, len(remaining))
	for _, p := range remaining {
		pids = append(pids, p.Pid)
	}
	return pids
}
