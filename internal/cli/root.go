package cli

import (
	stdcontext "context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/procrun/procrun/internal/config"
	"github.com/procrun/procrun/internal/process"
)

// NewRootCmd constructs the procrun command tree.
func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "procrun",
		Short: "Supervised process execution with tail capture and file locking",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "procrun.yaml", "Path to settings file")

	ctx := &context{configPath: &configPath, logger: newLogger()}
	root.AddCommand(newExecCmd(ctx))
	root.AddCommand(newKillTreeCmd(ctx))
	root.AddCommand(newWithLockCmd(ctx))
	root.AddCommand(newPortsCmd())

	root.SilenceUsage = true
	root.SilenceErrors = true

	return root
}

// Execute runs the CLI entrypoint. When a supervised child exits non-zero,
// procrun mirrors its exit code.
func Execute() {
	ctx, stop := signal.NotifyContext(stdcontext.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	root.SetContext(ctx)

	if err := root.ExecuteContext(ctx); err != nil {
		var exitErr *exitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type context struct {
	configPath *string
	logger     *logrus.Logger
}

func (c *context) loadConfig() (config.File, error) {
	return config.Load(*c.configPath)
}

// sink forwards child output lines to the CLI logger.
func (c *context) sink() process.Sink {
	return func(line string) {
		c.logger.Info(line)
	}
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger
}

// exitCodeError carries a child's exit code to Execute so the procrun
// process can mirror it.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}
