package motion

import "github.com/oshokin/fall-alarm/internal/domain/fall"

// Classify returns the strongest motion event the sample satisfies.
// A reading above the shake threshold is also above the impact threshold;
// Classify reports Shake for it and leaves the phase-specific reading to the caller.
func Classify(sample fall.Sample, thresholds fall.Thresholds) fall.MotionEvent {
	return ClassifyMagnitude(sample.Magnitude(), thresholds)
}

// ClassifyMagnitude classifies an already computed magnitude.
func ClassifyMagnitude(magnitude float64, thresholds fall.Thresholds) fall.MotionEvent {
	switch {
	case IsFreeFall(magnitude, thresholds):
		return fall.MotionFreeFall
	case IsShake(magnitude, thresholds):
		return fall.MotionShake
	case IsImpact(magnitude, thresholds):
		return fall.MotionImpact
	default:
		return fall.MotionNone
	}
}

// IsFreeFall reports whether magnitude is strictly below the free-fall threshold.
func IsFreeFall(magnitude float64, thresholds fall.Thresholds) bool {
	return magnitude < thresholds.FreeFall
}

// IsImpact reports whether magnitude is strictly above the impact threshold.
func IsImpact(magnitude float64, thresholds fall.Thresholds) bool {
	return magnitude > thresholds.Impact
}

// IsShake reports whether magnitude is strictly above the shake threshold.
func IsShake(magnitude float64, thresholds fall.Thresholds) bool {
	return magnitude > thresholds.Shake
}
