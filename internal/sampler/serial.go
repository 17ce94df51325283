package sampler

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/oshokin/fall-alarm/internal/domain/fall"
)

// DefaultBaudRate is used when no baud rate is configured.
const DefaultBaudRate = 115200

// Serial reads samples from a serial-attached accelerometer.
type Serial struct {
	// port is the open device.
	port io.ReadCloser
	// name is the device path, for logs and errors.
	name string
	// closeOnce guards port.Close.
	closeOnce sync.Once
}

// OpenSerial opens the device at portName.
func OpenSerial(portName string, baudRate int) (*Serial, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}

	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", portName, ErrSensorUnavailable, err)
	}

	return newSerial(portName, port), nil
}

// newSerial wraps an already open stream.
func newSerial(name string, port io.ReadCloser) *Serial {
	return &Serial{
		port: port,
		name: name,
	}
}

// Run reads lines until ctx ends or the device closes.
// Samples with a t_ms column are anchored at the moment Run starts.
func (s *Serial) Run(ctx context.Context, emit func(fall.Sample)) error {
	// Closing the port is the only way to unblock a pending read.
	stop := context.AfterFunc(ctx, func() {
		_ = s.Close()
	})
	defer stop()

	if err := scanSamples(ctx, s.port, newLineParser(time.Now(), 0), nil, emit); err != nil {
		return fmt.Errorf("read %s: %w", s.name, err)
	}

	return nil
}

// Close releases the device. It is safe to call more than once.
func (s *Serial) Close() error {
	var err error

	s.closeOnce.Do(func() {
		err = s.port.Close()
	})

	return err
}
