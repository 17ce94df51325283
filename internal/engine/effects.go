package engine

import (
	"context"
	"time"

	"github.com/oshokin/fall-alarm/internal/domain/fall"
	"github.com/oshokin/fall-alarm/internal/logger"
	"github.com/oshokin/fall-alarm/internal/notify"
)

// announceAlert shows the red indicator and speaks the alert.
func (e *Engine) announceAlert(ctx context.Context, incidentID string, at time.Time) {
	if err := e.sink.SetIndicator(ctx, fall.ColorRed); err != nil {
		logger.ErrorKV(ctx, "Failed to set alert indicator", "error", err)
	}

	e.speak(ctx, notify.AlertMessage)
	e.record(ctx, incidentID, fall.IncidentRaised, at, "")
}

// announceCancel speaks the cancellation and shows the green indicator.
func (e *Engine) announceCancel(ctx context.Context, incidentID, source string) {
	e.speak(ctx, notify.CancelMessage)

	if err := e.sink.SetIndicator(ctx, fall.ColorGreen); err != nil {
		logger.ErrorKV(ctx, "Failed to set cancel indicator", "error", err)
	}

	e.record(ctx, incidentID, fall.IncidentCancelled, time.Now(), source)
}

// onCallDeadline queues the emergency call if the alert is still pending.
func (e *Engine) onCallDeadline(ctx context.Context, incidentID string) {
	e.mu.Lock()

	if !e.isPendingLocked(incidentID) {
		e.mu.Unlock()

		return
	}

	drain := e.enqueueLocked(func() {
		e.placeCall(ctx, incidentID)
	})
	e.mu.Unlock()

	if drain {
		e.drainEffects()
	}
}

// onSMSDeadline resolves the alert and queues the emergency SMS.
func (e *Engine) onSMSDeadline(ctx context.Context, incidentID string) {
	e.mu.Lock()

	if !e.isPendingLocked(incidentID) {
		e.mu.Unlock()

		return
	}

	// The chain ends with this deadline, so the alert is over.
	e.phase = fall.PhaseIdle
	e.alertStart = time.Time{}
	e.incidentID = ""
	e.handle = nil

	drain := e.enqueueLocked(func() {
		e.sendSMS(ctx, incidentID)
	})
	e.mu.Unlock()

	if drain {
		e.drainEffects()
	}
}

// placeCall calls the emergency contact, falling back to the dialer.
func (e *Engine) placeCall(ctx context.Context, incidentID string) {
	logger.InfoKV(ctx, "Calling emergency contact", "contact", e.contact)
	e.speak(ctx, notify.CallMessage)

	err := e.sink.PlaceEmergencyCall(ctx, e.contact)
	if err == nil {
		e.record(ctx, incidentID, fall.IncidentCallPlaced, time.Now(), "")

		return
	}

	logger.WarnKV(ctx, "Direct emergency call failed, opening dialer", "error", err)
	e.record(ctx, incidentID, fall.IncidentCallFallback, time.Now(), err.Error())

	if err = e.sink.OpenDialer(ctx, e.contact); err != nil {
		logger.ErrorKV(ctx, "Failed to open dialer", "error", err)
	}
}

// sendSMS texts the emergency contact, falling back to a pre-filled composer,
// and records the end of the incident.
func (e *Engine) sendSMS(ctx context.Context, incidentID string) {
	body := notify.SMSBody(e.location)
	logger.InfoKV(ctx, "Sending emergency SMS", "contact", e.contact)

	err := e.sink.SendEmergencySMS(ctx, e.contact, body)
	if err == nil {
		e.record(ctx, incidentID, fall.IncidentSMSSent, time.Now(), "")
	} else {
		logger.WarnKV(ctx, "Direct emergency SMS failed, opening composer", "error", err)
		e.record(ctx, incidentID, fall.IncidentSMSFallback, time.Now(), err.Error())

		if err = e.sink.ComposeSMS(ctx, e.contact, body); err != nil {
			logger.ErrorKV(ctx, "Failed to open SMS composer", "error", err)
		}
	}

	e.record(ctx, incidentID, fall.IncidentResolved, time.Now(), "")
}

// speak renders text, logging failures.
func (e *Engine) speak(ctx context.Context, text string) {
	if err := e.sink.Speak(ctx, text); err != nil {
		logger.ErrorKV(ctx, "Failed to speak", "text", text, "error", err)
	}
}

// record appends an incident event to the journal when one is configured.
func (e *Engine) record(ctx context.Context, incidentID string, kind fall.IncidentKind, at time.Time, detail string) {
	if e.journal == nil {
		return
	}

	event := fall.IncidentEvent{
		IncidentID: incidentID,
		Kind:       kind,
		Timestamp:  at,
		Detail:     detail,
	}

	if err := e.journal.Append(ctx, event); err != nil {
		logger.ErrorKV(ctx, "Failed to record incident event", "kind", string(kind), "error", err)
	}
}
