package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/procrun/procrun/internal/netutil"
)

func newPortsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ports [N]",
		Short: "Print N free TCP ports, one per line",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := 1
			if len(args) == 1 {
				parsed, err := strconv.Atoi(args[0])
				if err != nil || parsed <= 0 {
					return fmt.Errorf("invalid port count %q", args[0])
				}
				n = parsed
			}

			ports, err := netutil.FreePorts(n)
			if err != nil {
				return err
			}
			for _, port := range ports {
				fmt.Fprintln(cmd.OutOrStdout(), port)
			}
			return nil
		},
	}
	return cmd
}
