package fall

import (
	"errors"
	"time"
)

// Default detection constants.
const (
	// DefaultFreeFallThreshold is the magnitude below which the device is considered falling.
	DefaultFreeFallThreshold = 4.2
	// DefaultImpactThreshold is the magnitude above which a reading counts as an impact.
	DefaultImpactThreshold = 15.0
	// DefaultShakeThreshold is the magnitude above which a reading counts as a cancel shake.
	DefaultShakeThreshold = 25.0
	// DefaultFallTimeWindow bounds how long a free-fall may precede an impact.
	DefaultFallTimeWindow = time.Second
	// DefaultShakeDebounce is the minimum time after an alert before a shake may cancel it.
	DefaultShakeDebounce = time.Second
	// DefaultCallDelay is the delay between raising an alert and calling the emergency contact.
	DefaultCallDelay = 10 * time.Second
	// DefaultSMSDelay is the delay between the call and the emergency SMS.
	DefaultSMSDelay = 10 * time.Second
)

var (
	// errNonPositiveThreshold is returned when any magnitude threshold is zero or negative.
	errNonPositiveThreshold = errors.New("thresholds must be positive")
	// errImpactBelowFreeFall is returned when the impact threshold does not exceed the free-fall one.
	errImpactBelowFreeFall = errors.New("impact threshold must be greater than free-fall threshold")
	// errNonPositiveWindow is returned when a timing window is zero or negative.
	errNonPositiveWindow = errors.New("time windows must be positive")
)

// Thresholds holds the magnitude limits and timing windows used for detection.
type Thresholds struct {
	// FreeFall is the magnitude below which a sample means free-fall.
	FreeFall float64 `yaml:"free_fall"`
	// Impact is the magnitude above which a sample means impact.
	Impact float64 `yaml:"impact"`
	// Shake is the magnitude above which a sample means a cancel shake.
	Shake float64 `yaml:"shake"`
	// FallWindow is how long after free-fall start an impact is still accepted.
	FallWindow time.Duration `yaml:"fall_window"`
	// ShakeDebounce is how long after alert start shakes are ignored.
	ShakeDebounce time.Duration `yaml:"shake_debounce"`
}

// DefaultThresholds returns the stock detection configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FreeFall:      DefaultFreeFallThreshold,
		Impact:        DefaultImpactThreshold,
		Shake:         DefaultShakeThreshold,
		FallWindow:    DefaultFallTimeWindow,
		ShakeDebounce: DefaultShakeDebounce,
	}
}

// WithDefaults fills zero fields with their default values.
func (t Thresholds) WithDefaults() Thresholds {
	def := DefaultThresholds()

	if t.FreeFall == 0 {
		t.FreeFall = def.FreeFall
	}

	if t.Impact == 0 {
		t.Impact = def.Impact
	}

	if t.Shake == 0 {
		t.Shake = def.Shake
	}

	if t.FallWindow == 0 {
		t.FallWindow = def.FallWindow
	}

	if t.ShakeDebounce == 0 {
		t.ShakeDebounce = def.ShakeDebounce
	}

	return t
}

// Validate checks that the thresholds are usable.
func (t Thresholds) Validate() error {
	if t.FreeFall <= 0 || t.Impact <= 0 || t.Shake <= 0 {
		return errNonPositiveThreshold
	}

	if t.Impact <= t.FreeFall {
		return errImpactBelowFreeFall
	}

	if t.FallWindow <= 0 || t.ShakeDebounce <= 0 {
		return errNonPositiveWindow
	}

	return nil
}
