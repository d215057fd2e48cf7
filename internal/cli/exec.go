package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/procrun/procrun/internal/filelock"
	"github.com/procrun/procrun/internal/process"
)

func newExecCmd(ctx *context) *cobra.Command {
	var (
		detach      bool
		dir         string
		tail        int
		prefixPID   bool
		lockPath    string
		lockTimeout time.Duration
		lockPoll    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "exec [flags] -- COMMAND [ARG...]",
		Short: "Run a shell command under supervision",
		Long: `Run a shell command in its own process group, streaming its combined
output and retaining a bounded tail. In blocking mode (the default) the
process group is terminated before exec returns and procrun mirrors the
child's exit code. With --detach the command is launched and left running;
the caller owns it and should clean it up with killtree.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}

			opts := cfg.RunnerOptions()
			opts.Dir = dir
			if cmd.Flags().Changed("tail") {
				opts.TailLines = tail
			}
			if prefixPID {
				opts.PrefixPID = true
			}

			if lockPath != "" {
				timeout := cfg.Lock.Timeout.Duration
				if cmd.Flags().Changed("lock-timeout") {
					timeout = lockTimeout
				}
				poll := cfg.Lock.Poll.Duration
				if cmd.Flags().Changed("lock-poll") {
					poll = lockPoll
				}
				lock, err := filelock.Acquire(cmd.Context(), lockPath, filelock.Exclusive, timeout, poll)
				if err != nil {
					return err
				}
				defer func() {
					if err := lock.Release(); err != nil {
						ctx.logger.Warnf("release lock: %v", err)
					}
				}()
			}

			runner := process.NewRunner(ctx.sink(), opts)
			command := strings.Join(args, " ")

			if detach {
				handle, err := runner.Start(cmd.Context(), command)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "started run %s pid %d\n", handle.ID(), handle.PID())
				return nil
			}

			return runBlocking(cmd, runner, command)
		},
	}

	cmd.Flags().BoolVarP(&detach, "detach", "d", false, "Start the command and return without waiting")
	cmd.Flags().StringVarP(&dir, "cwd", "C", "", "Working directory for the command")
	cmd.Flags().IntVar(&tail, "tail", 10, "Number of output lines to retain")
	cmd.Flags().BoolVar(&prefixPID, "prefix-pid", false, "Prefix streamed lines with the child pid")
	cmd.Flags().StringVar(&lockPath, "lock", "", "Acquire this file lock for the duration of the run")
	cmd.Flags().DurationVar(&lockTimeout, "lock-timeout", filelock.DefaultTimeout, "How long to wait for the lock")
	cmd.Flags().DurationVar(&lockPoll, "lock-poll", filelock.DefaultPoll, "Lock retry interval")

	return cmd
}

// runBlocking drives a run to completion, prints the retained tail, and
// converts the outcome into the command's error.
func runBlocking(cmd *cobra.Command, runner *process.Runner, command string) error {
	res, err := runner.Run(cmd.Context(), command)
	if err != nil {
		return err
	}
	if res.Stdout != "" {
		fmt.Fprint(cmd.OutOrStdout(), res.Stdout)
	}
	if res.Err != nil {
		return fmt.Errorf("run %q: %w", command, res.Err)
	}
	if !res.Success {
		return &exitCodeError{code: res.ExitCode}
	}
	return nil
}
