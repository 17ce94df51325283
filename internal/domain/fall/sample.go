package fall

import (
	"fmt"
	"math"
	"time"
)

// Sample is one accelerometer reading in m/s².
type Sample struct {
	// Timestamp is the instant the reading was taken.
	Timestamp time.Time
	// AX is the acceleration along the X axis.
	AX float64
	// AY is the acceleration along the Y axis.
	AY float64
	// AZ is the acceleration along the Z axis.
	AZ float64
}

// Magnitude returns the Euclidean norm of the acceleration vector.
func (s Sample) Magnitude() float64 {
	return math.Sqrt(s.AX*s.AX + s.AY*s.AY + s.AZ*s.AZ)
}

// String renders the sample for logs.
func (s Sample) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f) @ %s", s.AX, s.AY, s.AZ, s.Timestamp.Format(time.RFC3339Nano))
}

// Elapsed returns the time passed between from and to.
// Zero or negative gaps (out-of-order or duplicate timestamps) are reported as zero,
// so a window is never considered expired because of a clock going backwards.
func Elapsed(from, to time.Time) time.Duration {
	d := to.Sub(from)
	if d < 0 {
		return 0
	}

	return d
}
