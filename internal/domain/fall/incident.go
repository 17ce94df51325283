package fall

import "time"

// IncidentKind names a step in the life of an alert.
type IncidentKind string

// Incident kinds, in the order they usually happen.
const (
	IncidentRaised       IncidentKind = "raised"
	IncidentCancelled    IncidentKind = "cancelled"
	IncidentCallPlaced   IncidentKind = "call_placed"
	IncidentCallFallback IncidentKind = "call_fallback"
	IncidentSMSSent      IncidentKind = "sms_sent"
	IncidentSMSFallback  IncidentKind = "sms_fallback"
	IncidentResolved     IncidentKind = "resolved"
)

// IncidentEvent is one journal entry.
type IncidentEvent struct {
	// IncidentID groups all events of one alert.
	IncidentID string
	// Kind is the step that happened.
	Kind IncidentKind
	// Timestamp is when it happened.
	Timestamp time.Time
	// Detail carries free-form context, such as a cancel source or an error.
	Detail string
}

// Location is an optional fixed position reported in the emergency SMS.
type Location struct {
	// Latitude in decimal degrees.
	Latitude float64 `yaml:"latitude"`
	// Longitude in decimal degrees.
	Longitude float64 `yaml:"longitude"`
}

// Clone returns a copy of the location.
func (l *Location) Clone() *Location {
	if l == nil {
		return nil
	}

	cloned := *l

	return &cloned
}
