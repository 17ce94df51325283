package monitor

import (
	"errors"
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/fall-alarm/internal/domain/fall"
)

// Struct field names.
const (
	FieldPhase      = "phase"
	FieldFallStart  = "fall_start"
	FieldAlertStart = "alert_start"
	FieldIncidentID = "incident_id"
	FieldSamples    = "samples"
	FieldCancelled  = "cancelled"
	FieldHostname   = "hostname"
	FieldUsername   = "username"
	FieldLimit      = "limit"
	FieldEvents     = "events"
	FieldKind       = "kind"
	FieldTimestamp  = "timestamp"
	FieldDetail     = "detail"
)

var (
	// errUnknownPhase is returned when a payload carries an unknown phase name.
	errUnknownPhase = errors.New("unknown phase")
	// errInvalidLimit is returned for negative or fractional limits.
	errInvalidLimit = errors.New("limit must be a non-negative integer")
	// errInvalidEvent is returned for malformed event entries.
	errInvalidEvent = errors.New("event entry must be an object")
)

// SnapshotToProto encodes an engine snapshot.
func SnapshotToProto(snapshot fall.Snapshot) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		FieldPhase:      snapshot.Phase.String(),
		FieldFallStart:  formatTime(snapshot.FallStart),
		FieldAlertStart: formatTime(snapshot.AlertStart),
		FieldIncidentID: snapshot.IncidentID,
		FieldSamples:    float64(snapshot.Samples),
	})
}

// SnapshotFromProto decodes an engine snapshot.
func SnapshotFromProto(msg *structpb.Struct) (fall.Snapshot, error) {
	fields := msg.GetFields()

	phase, err := parsePhase(fields[FieldPhase].GetStringValue())
	if err != nil {
		return fall.Snapshot{}, err
	}

	fallStart, err := parseTime(fields[FieldFallStart].GetStringValue())
	if err != nil {
		return fall.Snapshot{}, fmt.Errorf("parse %s: %w", FieldFallStart, err)
	}

	alertStart, err := parseTime(fields[FieldAlertStart].GetStringValue())
	if err != nil {
		return fall.Snapshot{}, fmt.Errorf("parse %s: %w", FieldAlertStart, err)
	}

	return fall.Snapshot{
		Phase:      phase,
		FallStart:  fallStart,
		AlertStart: alertStart,
		IncidentID: fields[FieldIncidentID].GetStringValue(),
		Samples:    uint64(math.Max(0, fields[FieldSamples].GetNumberValue())),
	}, nil
}

// ActorToProto encodes the actor of a remote command. A nil actor yields an empty struct.
func ActorToProto(actor *fall.Actor) *structpb.Struct {
	msg := &structpb.Struct{Fields: map[string]*structpb.Value{}}
	if actor == nil {
		return msg
	}

	msg.Fields[FieldHostname] = structpb.NewStringValue(actor.Hostname)
	msg.Fields[FieldUsername] = structpb.NewStringValue(actor.Username)

	return msg
}

// ActorFromProto decodes the actor of a remote command. It returns nil when none is given.
func ActorFromProto(msg *structpb.Struct) *fall.Actor {
	actor := &fall.Actor{
		Hostname: msg.GetFields()[FieldHostname].GetStringValue(),
		Username: msg.GetFields()[FieldUsername].GetStringValue(),
	}

	if actor.String() == "" {
		return nil
	}

	return actor
}

// CancelResultToProto encodes the outcome of CancelAlert.
func CancelResultToProto(cancelled bool, phase fall.Phase) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldCancelled: structpb.NewBoolValue(cancelled),
		FieldPhase:     structpb.NewStringValue(phase.String()),
	}}
}

// CancelResultFromProto decodes the outcome of CancelAlert.
func CancelResultFromProto(msg *structpb.Struct) (bool, fall.Phase, error) {
	phase, err := parsePhase(msg.GetFields()[FieldPhase].GetStringValue())
	if err != nil {
		return false, fall.PhaseIdle, err
	}

	return msg.GetFields()[FieldCancelled].GetBoolValue(), phase, nil
}

// LimitToProto encodes a ListIncidents request.
func LimitToProto(limit int) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldLimit: structpb.NewNumberValue(float64(limit)),
	}}
}

// LimitFromProto decodes a ListIncidents request. A missing limit is zero.
func LimitFromProto(msg *structpb.Struct) (int, error) {
	value, ok := msg.GetFields()[FieldLimit]
	if !ok {
		return 0, nil
	}

	number, isNumber := value.GetKind().(*structpb.Value_NumberValue)
	if !isNumber {
		return 0, errInvalidLimit
	}

	limit := number.NumberValue
	if limit < 0 || limit != math.Trunc(limit) || limit > math.MaxInt32 {
		return 0, errInvalidLimit
	}

	return int(limit), nil
}

// EventsToProto encodes journal events.
func EventsToProto(events []fall.IncidentEvent) (*structpb.Struct, error) {
	list := make([]any, 0, len(events))
	for _, event := range events {
		list = append(list, map[string]any{
			FieldIncidentID: event.IncidentID,
			FieldKind:       string(event.Kind),
			FieldTimestamp:  formatTime(event.Timestamp),
			FieldDetail:     event.Detail,
		})
	}

	return structpb.NewStruct(map[string]any{FieldEvents: list})
}

// EventsFromProto decodes journal events.
func EventsFromProto(msg *structpb.Struct) ([]fall.IncidentEvent, error) {
	values := msg.GetFields()[FieldEvents].GetListValue().GetValues()
	events := make([]fall.IncidentEvent, 0, len(values))

	for _, value := range values {
		entry := value.GetStructValue()
		if entry == nil {
			return nil, errInvalidEvent
		}

		fields := entry.GetFields()

		timestamp, err := parseTime(fields[FieldTimestamp].GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", FieldTimestamp, err)
		}

		events = append(events, fall.IncidentEvent{
			IncidentID: fields[FieldIncidentID].GetStringValue(),
			Kind:       fall.IncidentKind(fields[FieldKind].GetStringValue()),
			Timestamp:  timestamp,
			Detail:     fields[FieldDetail].GetStringValue(),
		})
	}

	return events, nil
}

// formatTime renders t for the wire. The zero time is an empty string.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime reverses formatTime.
func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	return time.Parse(time.RFC3339Nano, value)
}

func parsePhase(name string) (fall.Phase, error) {
	phase, ok := fall.ParsePhase(name)
	if !ok {
		return fall.PhaseIdle, fmt.Errorf("%w: %q", errUnknownPhase, name)
	}

	return phase, nil
}
