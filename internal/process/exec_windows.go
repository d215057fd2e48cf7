//go:build windows

package process

import (
	"context"
	"os/exec"
	"syscall"

	gops "github.com/shirou/gopsutil/v3/process"
)

func shellCommand(ctx context.Context, command string) *exec.Cmd {
	return exec.CommandContext(ctx, "cmd.exe", "/C", command)
}

func configureCmdSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

// terminateGroup approximates unix process-group signaling by walking the
// descendant tree. Windows offers no graceful group signal, so force is
// ignored and every member is terminated outright.
func terminateGroup(pid int, force bool) error {
	_, err := KillTree(context.Background(), int32(pid), true, 0)
	return err
}

func groupAlive(pid int) bool {
	running, err := gops.PidExists(int32(pid))
	return err == nil && running
}
