package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// RunSimple executes argv directly (no shell, no streaming) with the
// child's output attached to the parent's stdio, and reports whether it
// exited with code zero. A non-zero exit is not an error; failing to spawn
// is.
func RunSimple(ctx context.Context, argv []string) (bool, error) {
	if len(argv) == 0 {
		return false, errors.New("run: empty argv")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return false, nil
		}
		return false, fmt.Errorf("run %s: %w", argv[0], err)
	}
	return true, nil
}
