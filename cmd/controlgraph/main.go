// Command controlgraph explores how security and compliance frameworks
// relate, in the terminal or over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/controlgraph/internal/cli"
	cgerrors "github.com/matzehuels/controlgraph/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context) error {
	var verbose bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.SilenceErrors = true
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	loadConfig := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		return loadConfig(cmd, args)
	}

	return root.ExecuteContext(ctx)
}

// exitCode maps input errors to 2 and everything else to 1.
func exitCode(err error) int {
	switch cgerrors.GetCode(err) {
	case cgerrors.ErrCodeInvalidInput, cgerrors.ErrCodeInvalidConfig, cgerrors.ErrCodeInvalidCatalog,
		cgerrors.ErrCodeInvalidFormat, cgerrors.ErrCodeInvalidViewport, cgerrors.ErrCodeUnknownEntity,
		cgerrors.ErrCodeFileNotFound:
		return 2
	}
	return 1
}
