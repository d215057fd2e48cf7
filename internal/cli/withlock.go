package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/procrun/procrun/internal/filelock"
	"github.com/procrun/procrun/internal/process"
)

func newWithLockCmd(ctx *context) *cobra.Command {
	var (
		timeout time.Duration
		poll    time.Duration
		shared  bool
	)

	cmd := &cobra.Command{
		Use:   "withlock PATH -- COMMAND [ARG...]",
		Short: "Run a command while holding an advisory file lock",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("timeout") {
				timeout = cfg.Lock.Timeout.Duration
			}
			if !cmd.Flags().Changed("poll") {
				poll = cfg.Lock.Poll.Duration
			}

			mode := filelock.Exclusive
			if shared {
				mode = filelock.Shared
			}

			lock, err := filelock.Acquire(cmd.Context(), args[0], mode, timeout, poll)
			if err != nil {
				var timeoutErr *filelock.TimeoutError
				if errors.As(err, &timeoutErr) {
					return fmt.Errorf("lock is busy: %w", err)
				}
				return err
			}
			defer func() {
				if err := lock.Release(); err != nil {
					ctx.logger.Warnf("release lock: %v", err)
				}
			}()

			runner := process.NewRunner(ctx.sink(), cfg.RunnerOptions())
			return runBlocking(cmd, runner, strings.Join(args[1:], " "))
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", filelock.DefaultTimeout, "How long to wait for the lock")
	cmd.Flags().DurationVar(&poll, "poll", filelock.DefaultPoll, "Lock retry interval")
	cmd.Flags().BoolVar(&shared, "shared", false, "Take a shared lock instead of an exclusive one")

	return cmd
}
