package process

import (
	"context"
	"os/exec"
	stdruntime "runtime"
	"testing"
	"time"

	gops "github.com/shirou/gopsutil/v3/process"
)

func TestKillTreeTerminatesDescendants(t *testing.T) {
	if stdruntime.GOOS == "windows" {
		t.Skip("kill tree tests rely on /bin/sh")
	}

	// A parent that forks two sleepers and waits on them.
	cmd := exec.Command("/bin/sh", "-c", "sleep 30 & sleep 30 & wait")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	go cmd.Wait()

	pid := int32(cmd.Process.Pid)
	waitForDescendants(t, pid, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	survivors, err := KillTree(ctx, pid, true, 5*time.Second)
	if err != nil {
		t.Fatalf("kill tree: %v", err)
	}
	if len(survivors) != 0 {
		t.Fatalf("descendants survived the kill: %v", survivors)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if running, err := gops.PidExists(pid); err == nil && !running {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("root %d still alive after kill tree", pid)
}

func TestKillTreeOnExitedProcessIsNotAnError(t *testing.T) {
	if stdruntime.GOOS == "windows" {
		t.Skip("kill tree tests rely on /bin/sh")
	}

	cmd := exec.Command("/bin/sh", "-c", "exit 0")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	pid := int32(cmd.Process.Pid)
	if err := cmd.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}

	survivors, err := KillTree(context.Background(), pid, true, time.Second)
	if err != nil {
		t.Fatalf("killing an exited process should succeed, got %v", err)
	}
	if len(survivors) != 0 {
		t.Fatalf("unexpected survivors for an exited process: %v", survivors)
	}
}

func TestKillTreeKeepRootLeavesRootRunning(t *testing.T) {
	if stdruntime.GOOS == "windows" {
		t.Skip("kill tree tests rely on /bin/sh")
	}

	// The root must stay busy on its own so it survives its child's death.
	cmd := exec.Command("/bin/sh", "-c", "sleep 30 & while :; do sleep 0.2; done")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() {
		cmd.Process.Kill()
		cmd.Wait()
	}()

	pid := int32(cmd.Process.Pid)
	waitForDescendants(t, pid, 1)

	if _, err := KillTree(context.Background(), pid, false, 5*time.Second); err != nil {
		t.Fatalf("kill tree: %v", err)
	}

	if running, err := gops.PidExists(pid); err != nil || !running {
		t.Fatalf("root should still be running, got (%v, %v)", running, err)
	}
}

func waitForDescendants(t *testing.T, pid int32, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		p, err := gops.NewProcess(pid)
		if err == nil {
			if kids := descendants(context.Background(), p); len(kids) >= n {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("process %d never spawned %d descendants", pid, n)
}
