package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/fall-alarm/internal/config"
	"github.com/oshokin/fall-alarm/internal/service/client"
	"github.com/oshokin/fall-alarm/internal/version"
)

var (
	// serverAddress of the monitor control API.
	serverAddress string
	// timeout bounds each RPC call.
	timeout time.Duration
	// asJSON prints raw payloads.
	asJSON bool
	// limit caps the history length.
	limit int

	// rootCmd groups the control commands.
	rootCmd = &cobra.Command{
		Use:   "fall-ctl",
		Short: "Inspect and control a running fall monitor.",
		Long: `Talks to a running fall-monitor over gRPC.

Use "status" to see the detection phase, "cancel" to cancel a pending alert
as if the device had been shaken, and "history" to list recent incidents.`,
		SilenceUsage: true,
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the detection phase.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithSignals(cmd, client.RunStatus)
		},
	}

	cancelCmd = &cobra.Command{
		Use:   "cancel",
		Short: "Cancel a pending alert.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithSignals(cmd, client.RunCancel)
		},
	}

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "List recent incident events, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithSignals(cmd, client.RunHistory)
		},
	}
)

// runWithSignals runs fn with a context canceled on SIGINT or SIGTERM.
func runWithSignals(cmd *cobra.Command, fn func(ctx context.Context, opts *client.Options) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return fn(ctx, &client.Options{
		ServerAddress: serverAddress,
		Timeout:       timeout,
		JSON:          asJSON,
		Limit:         limit,
		Out:           cmd.OutOrStdout(),
	})
}

// Execute runs the fall-ctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&serverAddress, "server", "s", config.DefaultListenAddress, "monitor control API address")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", config.DefaultTimeout, "RPC call timeout")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print raw JSON payloads")

	historyCmd.Flags().IntVarP(&limit, "limit", "n", client.DefaultHistoryLimit, "maximum number of events")

	rootCmd.AddCommand(statusCmd, cancelCmd, historyCmd)
}
