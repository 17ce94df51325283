package monitor

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"

	api "github.com/oshokin/fall-alarm/internal/api/grpc/monitor"
	"github.com/oshokin/fall-alarm/internal/config"
	"github.com/oshokin/fall-alarm/internal/domain/fall"
	"github.com/oshokin/fall-alarm/internal/engine"
	"github.com/oshokin/fall-alarm/internal/logger"
	"github.com/oshokin/fall-alarm/internal/notify"
	"github.com/oshokin/fall-alarm/internal/notify/speech"
	"github.com/oshokin/fall-alarm/internal/notify/twilio"
	"github.com/oshokin/fall-alarm/internal/repository/incident"
	"github.com/oshokin/fall-alarm/internal/sampler"
)

// session owns every component of one monitoring run.
type session struct {
	// engine is the detection state machine.
	engine *engine.Engine
	// journal records incidents.
	journal *incident.SQLiteRepository
	// source produces samples.
	source sampler.Source
	// pipe carries samples from source to engine.
	pipe *sampler.Pipe
}

// newSession assembles the components described by settings.
// Components opened before a failure are released.
func newSession(ctx context.Context, settings *config.Config) (*session, error) {
	sink, err := newNotifier(ctx, settings)
	if err != nil {
		return nil, err
	}

	journal, err := incident.Open(ctx, settings.JournalFile)
	if err != nil {
		return nil, fmt.Errorf("open incident journal: %w", err)
	}

	detector, err := engine.New(engine.Settings{
		Thresholds:       settings.Detection,
		EmergencyContact: settings.EmergencyContact,
		Location:         settings.Location,
		CallDelay:        settings.Escalation.CallDelay,
		SMSDelay:         settings.Escalation.SMSDelay,
	}, sink, engine.WithJournal(journal))
	if err != nil {
		_ = journal.Close()

		return nil, fmt.Errorf("create engine: %w", err)
	}

	source, pipe, err := openSource(settings.Sensor)
	if err != nil {
		_ = journal.Close()

		return nil, err
	}

	return &session{
		engine:  detector,
		journal: journal,
		source:  source,
		pipe:    pipe,
	}, nil
}

// newNotifier builds the sink. Missing speech tools and dispatchers fall back to the console.
func newNotifier(ctx context.Context, settings *config.Config) (*notify.Notifier, error) {
	var opts []notify.NotifierOption

	switch {
	case settings.Speech.Disabled:
		logger.Info(ctx, "Speech disabled, messages go to the log")
	case settings.Speech.Command != "":
		opts = append(opts, notify.WithSpeaker(speech.New(settings.Speech.Command, settings.Speech.Args...)))
	default:
		speaker, err := speech.Default()
		if err != nil {
			logger.WarnKV(ctx, "No speech tool for this platform, messages go to the log", "error", err)
		} else {
			opts = append(opts, notify.WithSpeaker(speaker))
		}
	}

	if settings.Twilio.Enabled() {
		dispatcher, err := twilio.New(twilio.Config{
			AccountSID:   settings.Twilio.AccountSID,
			AuthToken:    settings.Twilio.AuthToken,
			From:         settings.Twilio.From,
			VoiceMessage: notify.SMSBody(settings.Location),
		})
		if err != nil {
			return nil, fmt.Errorf("create twilio dispatcher: %w", err)
		}

		opts = append(opts, notify.WithDispatcher(dispatcher))
	} else {
		logger.Warn(ctx, "Twilio is not configured, emergency calls and SMS fall back to the dialer and composer")
	}

	return notify.NewNotifier(opts...), nil
}

// openSource opens the configured sensor and a pipe sized for it.
// Fast replays use a lossless pipe since nothing is gained by dropping.
func openSource(settings config.Sensor) (sampler.Source, *sampler.Pipe, error) {
	if settings.ReplayFile != "" {
		replay, err := sampler.OpenReplay(settings.ReplayFile, settings.Realtime)
		if err != nil {
			return nil, nil, err
		}

		if replay.Realtime() {
			return replay, sampler.NewPipe(settings.BufferSize), nil
		}

		return replay, sampler.NewLosslessPipe(settings.BufferSize), nil
	}

	port, err := sampler.OpenSerial(settings.SerialPort, settings.BaudRate)
	if err != nil {
		return nil, nil, err
	}

	return port, sampler.NewPipe(settings.BufferSize), nil
}

// register exposes the control API on server.
func (s *session) register(server *grpc.Server) {
	api.RegisterMonitorServer(server, api.NewServer(s.engine, s.journal, engine.SourceRemote))
}

// run feeds samples to the engine until ctx ends or the source closes.
// With linger set, a clean end of the source waits for ctx instead.
func (s *session) run(ctx context.Context, linger bool) error {
	s.engine.Reset(ctx)

	sourceErr := make(chan error, 1)

	go func() {
		defer s.pipe.Close()

		sourceErr <- s.source.Run(ctx, func(sample fall.Sample) {
			s.pipe.Deliver(ctx, sample)
		})
	}()

	for sample := range s.pipe.Samples() {
		transition := s.engine.OnSample(ctx, sample)
		if transition.Changed() {
			logger.DebugKV(ctx, "Phase changed",
				"from", transition.From.String(),
				"to", transition.To.String(),
				"event", transition.Event.String(),
				"magnitude", transition.Magnitude)
		}
	}

	err := <-sourceErr

	delivered, dropped := s.pipe.Stats()
	logger.InfoKV(ctx, "Sample source closed", "delivered", delivered, "dropped", dropped)

	if err != nil {
		logger.ErrorKV(ctx, "Monitoring stopped by sensor failure", "error", err)

		return fmt.Errorf("%w: %w", sampler.ErrSensorUnavailable, err)
	}

	if linger && ctx.Err() == nil {
		logger.Info(ctx, "Source exhausted, waiting for shutdown")
		<-ctx.Done()
	}

	return nil
}

// close stops any outstanding escalation and releases the source and the journal.
func (s *session) close(ctx context.Context) {
	s.engine.Reset(ctx)

	var errs []error

	if err := s.source.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close source: %w", err))
	}

	if err := s.journal.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close journal: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		logger.WarnKV(ctx, "Session cleanup incomplete", "error", err)
	}
}
