// Command impulse runs the purchase impulse analysis offline, without a
// database or server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rational-assistant/internal/logging"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "impulse",
		Short:         "Check how impulsive a purchase is before you make it",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logging.Setup(logLevel, "console")
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(analyzeCmd())
	root.AddCommand(rangesCmd())
	root.AddCommand(matchCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
