package fall

import "time"

// MotionEvent is the semantic meaning of a single sample.
type MotionEvent int

// Motion events produced by the classifier.
const (
	// MotionNone means the sample is unremarkable.
	MotionNone MotionEvent = iota
	// MotionFreeFall means near-zero net acceleration.
	MotionFreeFall
	// MotionImpact means a high acceleration spike.
	MotionImpact
	// MotionShake means a spike strong enough to count as a cancel gesture.
	MotionShake
)

// String implements fmt.Stringer.
func (e MotionEvent) String() string {
	switch e {
	case MotionFreeFall:
		return "free-fall"
	case MotionImpact:
		return "impact"
	case MotionShake:
		return "shake"
	default:
		return "none"
	}
}

// Phase is the detection engine state.
type Phase int

// Engine phases.
const (
	// PhaseIdle waits for a free-fall.
	PhaseIdle Phase = iota
	// PhaseFreeFalling waits for an impact inside the fall window.
	PhaseFreeFalling
	// PhaseAlertPending has raised an alert and waits for a cancel shake or escalation.
	PhaseAlertPending
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case PhaseFreeFalling:
		return "free_falling"
	case PhaseAlertPending:
		return "alert_pending"
	default:
		return "idle"
	}
}

// ParsePhase converts the String form of a phase back. It reports false for unknown names.
func ParsePhase(name string) (Phase, bool) {
	switch name {
	case "idle":
		return PhaseIdle, true
	case "free_falling":
		return PhaseFreeFalling, true
	case "alert_pending":
		return PhaseAlertPending, true
	default:
		return PhaseIdle, false
	}
}

// Color is the visual indicator shown to the user.
type Color string

// Indicator colors.
const (
	// ColorRed signals a raised alert.
	ColorRed Color = "red"
	// ColorGreen signals a cancelled alert.
	ColorGreen Color = "green"
)

// Snapshot is a read-only copy of the engine state.
type Snapshot struct {
	// Phase is the current engine phase.
	Phase Phase
	// FallStart is set only while free-falling.
	FallStart time.Time
	// AlertStart is set only while an alert is pending.
	AlertStart time.Time
	// IncidentID identifies the pending alert, empty otherwise.
	IncidentID string
	// Samples is the number of samples processed in the current session.
	Samples uint64
}

// Transition describes the effect of one sample on the engine.
type Transition struct {
	// From is the phase before the sample.
	From Phase
	// To is the phase after the sample.
	To Phase
	// Event is the classification that drove the transition.
	Event MotionEvent
	// Magnitude is the magnitude of the sample.
	Magnitude float64
	// At is the sample timestamp.
	At time.Time
}

// Changed reports whether the phase changed.
func (t Transition) Changed() bool {
	return t.From != t.To
}
