// Package cli is the typyc command line: build, watch, run and version.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"typyc/pkg/config"
	"typyc/pkg/logx"
	"typyc/pkg/runner"
)

// Version is stamped at link time with -ldflags "-X typyc/pkg/cli.Version=...".
var Version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "typyc",
		Short:         "Compile .typy sources to Python",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newBuildCmd(), newWatchCmd(), newRunCmd(), newVersionCmd())
	return root
}

// Execute runs the command line and reports any error on stderr.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if err != nil {
		var exitErr *runner.ExitError
		if !errors.As(err, &exitErr) {
			logx.New(os.Stderr, config.VerbosityNone, "auto").Errorf("%v", err)
		}
	}
	return err
}

// ExitCode maps an Execute error to a process status. A script that exited
// non-zero passes its own status through.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *runner.ExitError
	if errors.As(err, &exitErr) && exitErr.Code > 0 {
		return exitErr.Code
	}
	return 1
}
