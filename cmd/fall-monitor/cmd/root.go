package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/fall-alarm/internal/config"
	"github.com/oshokin/fall-alarm/internal/service/monitor"
	"github.com/oshokin/fall-alarm/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// envFile with secrets, optional.
	envFile string
	// replayFile replaces the sensor with a recording.
	replayFile string
	// realtime replays with the recorded pacing.
	realtime bool
	// journalFile overrides the incident journal path.
	journalFile string
	// linger keeps serving after the source closes.
	linger bool
	// logLevel overrides the configured log level.
	logLevel string

	// rootCmd represents the base command for running a monitoring session.
	rootCmd = &cobra.Command{
		Use:   "fall-monitor [listen-address]",
		Short: "Watch an accelerometer for falls and escalate to an emergency contact.",
		Long: `Reads accelerometer samples and runs fall detection on them.

A free-fall followed by an impact within the fall window raises an alert: the indicator turns red
and the alert is spoken. Shaking the device cancels it. Otherwise the emergency contact is called
after 10 seconds and texted 10 seconds later.

Samples come from a serial accelerometer or, with --replay, from a recorded CSV file.
The control API (status, cancel, history) is served over gRPC; use fall-ctl to talk to it.
Listen address can be provided as argument to override config (e.g., :50551).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			return monitor.Run(ctx, &monitor.Options{
				ConfigPath:    configPath,
				EnvFile:       envFile,
				ListenAddress: listenAddress,
				ReplayFile:    replayFile,
				Realtime:      realtime,
				JournalFile:   journalFile,
				Linger:        linger,
				LogLevel:      logLevel,
			})
		},
	}
)

// Execute runs the fall-monitor CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&envFile, "env-file", "e", config.DefaultEnvFilename, "path to dotenv file with secrets")
	rootCmd.Flags().StringVarP(&replayFile, "replay", "r", "", "replay a recorded CSV file instead of the sensor")
	rootCmd.Flags().BoolVar(&realtime, "realtime", false, "replay with the recorded pacing")
	rootCmd.Flags().StringVarP(&journalFile, "journal", "j", "", "path to the incident journal database")
	rootCmd.Flags().BoolVar(&linger, "linger", false, "keep running after the sample source closes")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "log level (debug, info, warn, error)")
}
