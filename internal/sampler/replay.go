package sampler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oshokin/fall-alarm/internal/domain/fall"
)

// DefaultReplayInterval spaces replayed samples that carry no timestamp.
const DefaultReplayInterval = 20 * time.Millisecond

// Replay plays back a recorded sample file.
type Replay struct {
	// file is the open recording.
	file *os.File
	// realtime keeps the original gaps between samples.
	realtime bool
	// interval spaces samples without a timestamp column.
	interval time.Duration
}

// OpenReplay opens the recording at path.
func OpenReplay(path string, realtime bool) (*Replay, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("replay %s: %w", path, ErrSensorUnavailable)
		}

		return nil, fmt.Errorf("open replay: %w", err)
	}

	return &Replay{
		file:     file,
		realtime: realtime,
		interval: DefaultReplayInterval,
	}, nil
}

// Realtime reports whether the replay keeps the original pacing.
func (r *Replay) Realtime() bool {
	return r.realtime
}

// Run emits every sample of the recording.
func (r *Replay) Run(ctx context.Context, emit func(fall.Sample)) error {
	var pace func(fall.Sample) error

	if r.realtime {
		pace = func(sample fall.Sample) error {
			return sleepUntil(ctx, sample.Timestamp)
		}
	}

	if err := scanSamples(ctx, r.file, newLineParser(time.Now(), r.interval), pace, emit); err != nil {
		return fmt.Errorf("replay %s: %w", r.file.Name(), err)
	}

	return nil
}

// Close releases the file.
func (r *Replay) Close() error {
	return r.file.Close()
}

// sleepUntil waits for the wall clock to reach at, or for ctx to end.
func sleepUntil(ctx context.Context, at time.Time) error {
	wait := time.Until(at)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
