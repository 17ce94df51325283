package sampler

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/oshokin/fall-alarm/internal/domain/fall"
)

// DefaultPipeSize is the buffer length between a source and the engine.
const DefaultPipeSize = 512

// Pipe is an ordered, bounded hand-off from one producer to one consumer.
type Pipe struct {
	// ch carries the samples.
	ch chan fall.Sample
	// lossless makes Deliver wait for room instead of dropping.
	lossless bool
	// delivered counts accepted samples.
	delivered atomic.Uint64
	// dropped counts samples rejected because the buffer was full.
	dropped atomic.Uint64
	// closeOnce guards close(ch).
	closeOnce sync.Once
}

// NewPipe creates a pipe that drops samples when full.
func NewPipe(size int) *Pipe {
	if size <= 0 {
		size = DefaultPipeSize
	}

	return &Pipe{ch: make(chan fall.Sample, size)}
}

// NewLosslessPipe creates a pipe that blocks the producer when full.
// Use it for recorded sources where nothing is lost by waiting.
func NewLosslessPipe(size int) *Pipe {
	p := NewPipe(size)
	p.lossless = true

	return p
}

// Deliver hands a sample to the consumer. It reports whether the sample was accepted.
func (p *Pipe) Deliver(ctx context.Context, sample fall.Sample) bool {
	if p.lossless {
		select {
		case p.ch <- sample:
			p.delivered.Add(1)

			return true
		case <-ctx.Done():
			return false
		}
	}

	select {
	case p.ch <- sample:
		p.delivered.Add(1)

		return true
	default:
		p.dropped.Add(1)

		return false
	}
}

// Samples returns the consumer side.
func (p *Pipe) Samples() <-chan fall.Sample {
	return p.ch
}

// Close ends the stream. The producer must not Deliver afterwards.
func (p *Pipe) Close() {
	p.closeOnce.Do(func() {
		close(p.ch)
	})
}

// Stats returns the delivered and dropped counters.
func (p *Pipe) Stats() (delivered, dropped uint64) {
	return p.delivered.Load(), p.dropped.Load()
}
