package monitor

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"

	"github.com/oshokin/fall-alarm/internal/config"
	"github.com/oshokin/fall-alarm/internal/logger"
)

// Options controls the fall-monitor process.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// EnvFile is an optional dotenv file with secrets.
	EnvFile string
	// ListenAddress overrides the control API address.
	ListenAddress string
	// ReplayFile replaces the configured sensor with a recording.
	ReplayFile string
	// Realtime replays the recording with its original pacing.
	Realtime bool
	// JournalFile overrides the incident journal path.
	JournalFile string
	// Linger keeps the session alive after the source closes, until the context ends.
	Linger bool
	// LogLevel overrides the configured log level.
	LogLevel string
}

var (
	// errOptionsRequired is returned when Run is called without options.
	errOptionsRequired = errors.New("options must be provided")
	// errUnknownLogLevel is returned for an unparseable log level override.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Run starts a monitoring session and blocks until the context is canceled or
// the sample source closes. A sensor failure is returned once, wrapped.
func Run(ctx context.Context, opts *Options) error {
	if opts == nil {
		return errOptionsRequired
	}

	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "fall-monitor")

	if err := config.LoadEnvFile(opts.EnvFile); err != nil {
		return err
	}

	settings, err := config.Read(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	applyOverrides(settings, opts)

	if err := config.Validate(settings); err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	level, ok := logger.ParseLogLevel(settings.LogLevel)
	if !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, settings.LogLevel)
	}

	logger.SetLevel(level)

	s, err := newSession(ctx, settings)
	if err != nil {
		return err
	}

	defer s.close(ctx)

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", settings.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", settings.ListenAddress, err)
	}

	grpcServer := grpc.NewServer()
	s.register(grpcServer)

	logger.InfoKV(ctx, "Fall monitor listening",
		"listen_address", lis.Addr().String(),
		"journal_file", settings.JournalFile,
		"emergency_contact", settings.EmergencyContact)

	serveErr := make(chan error, 1)

	go func() {
		serveErr <- grpcServer.Serve(lis)
	}()

	runErr := s.run(ctx, opts.Linger)

	logger.Info(ctx, "Shutting down gRPC server")
	grpcServer.GracefulStop()

	if err := <-serveErr; err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return errors.Join(runErr, fmt.Errorf("serve gRPC: %w", err))
	}

	logger.Info(ctx, "GRPC server stopped")

	return runErr
}

// applyOverrides lets command-line options win over the settings file.
func applyOverrides(settings *config.Config, opts *Options) {
	if opts.ListenAddress != "" {
		settings.ListenAddress = opts.ListenAddress
	}

	if opts.JournalFile != "" {
		settings.JournalFile = opts.JournalFile
	}

	if opts.LogLevel != "" {
		settings.LogLevel = opts.LogLevel
	}

	if opts.ReplayFile != "" {
		settings.Sensor.SerialPort = ""
		settings.Sensor.ReplayFile = opts.ReplayFile
		settings.Sensor.Realtime = opts.Realtime
	}
}
