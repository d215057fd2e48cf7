//go:build !windows

package process

import (
	"context"
	"errors"
	"os/exec"
	"syscall"
)

func shellCommand(ctx context.Context, command string) *exec.Cmd {
	return exec.CommandContext(ctx, "/bin/sh", "-c", command)
}

// configureCmdSysProcAttr places the child in a new process group so the
// entire tree can be signaled at once.
func configureCmdSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminateGroup delivers SIGTERM, or SIGKILL when force is set, to the
// whole process group led by pid. A group that is already gone is success.
func terminateGroup(pid int, force bool) error {
	sig := syscall.SIGTERM
	if force {
		sig = syscall.SIGKILL
	}
	if err := syscall.Kill(-pid, sig); err != nil && !errors.Is(err, syscall.ESRCH) {
		return err
	}
	return nil
}

// groupAlive reports whether any member of the process group led by pid is
// still running.
func groupAlive(pid int) bool {
	return syscall.Kill(-pid, 0) == nil
}
