package sampler

import (
	"bufio"
	"context"
	"errors"
	"io"

	"github.com/oshokin/fall-alarm/internal/domain/fall"
	"github.com/oshokin/fall-alarm/internal/logger"
)

// ErrSensorUnavailable is returned when the accelerometer cannot be opened.
var ErrSensorUnavailable = errors.New("accelerometer unavailable")

// Source pushes samples until the context ends or the stream is exhausted.
type Source interface {
	// Run calls emit for every sample, in order.
	Run(ctx context.Context, emit func(fall.Sample)) error
	// Close releases the underlying device or file.
	Close() error
}

// scanSamples parses lines from r and emits samples. before is called ahead
// of every emit and may block; a non-nil error from it stops the scan quietly.
func scanSamples(
	ctx context.Context,
	r io.Reader,
	parser *lineParser,
	before func(fall.Sample) error,
	emit func(fall.Sample),
) error {
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		sample, ok, err := parser.parse(scanner.Text())
		if err != nil {
			logger.WarnKV(ctx, "Skipping malformed sample line", "line", scanner.Text(), "error", err)

			continue
		}

		if !ok {
			continue
		}

		if before != nil {
			if err = before(sample); err != nil {
				return nil
			}
		}

		emit(sample)
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return err
	}

	return nil
}
