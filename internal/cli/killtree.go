package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/procrun/procrun/internal/process"
)

func newKillTreeCmd(ctx *context) *cobra.Command {
	var (
		keepRoot bool
		grace    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "killtree PID",
		Short: "Terminate a process and all of its descendants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := strconv.ParseInt(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid pid %q: %w", args[0], err)
			}

			if !cmd.Flags().Changed("grace") {
				cfg, err := ctx.loadConfig()
				if err != nil {
					return err
				}
				grace = cfg.Kill.Grace.Duration
			}

			survivors, err := process.KillTree(cmd.Context(), int32(pid), !keepRoot, grace)
			if err != nil {
				return err
			}
			for _, survivor := range survivors {
				fmt.Fprintf(cmd.OutOrStdout(), "still alive after grace period: %d\n", survivor)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepRoot, "keep-root", false, "Kill only descendants, leave the root process running")
	cmd.Flags().DurationVar(&grace, "grace", process.DefaultKillGrace, "How long to wait for signaled processes to exit")

	return cmd
}
