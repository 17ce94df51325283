package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/fall-alarm/internal/domain/fall"
	"github.com/oshokin/fall-alarm/internal/escalation"
	"github.com/oshokin/fall-alarm/internal/logger"
	"github.com/oshokin/fall-alarm/internal/motion"
	"github.com/oshokin/fall-alarm/internal/notify"
)

// Cancel sources recorded in the journal.
const (
	// SourceShake marks a cancellation by the shake gesture.
	SourceShake = "shake"
	// SourceRemote marks a cancellation through the control API.
	SourceRemote = "remote"
)

// Journal receives incident events. Failures are logged and otherwise ignored.
type Journal interface {
	Append(ctx context.Context, event fall.IncidentEvent) error
}

// Settings configures an Engine.
type Settings struct {
	// Thresholds are the detection limits and windows.
	Thresholds fall.Thresholds
	// EmergencyContact is the number to call and text.
	EmergencyContact string
	// Location is reported in the SMS when set.
	Location *fall.Location
	// CallDelay is the time from alert to call.
	CallDelay time.Duration
	// SMSDelay is the time from call to SMS.
	SMSDelay time.Duration
}

var (
	// errSinkRequired is returned when no notification sink is provided.
	errSinkRequired = errors.New("notification sink must be provided")
	// errContactRequired is returned when the emergency contact is empty.
	errContactRequired = errors.New("emergency contact must be provided")
)

// outcome is the side-effect class of one state change.
type outcome int

const (
	outcomeNone outcome = iota
	outcomeFreeFall
	outcomeExpired
	outcomeRaised
	outcomeShakeIgnored
	outcomeCancelled
)

// Engine is the fall detection state machine.
type Engine struct {
	// thresholds are the validated detection limits.
	thresholds fall.Thresholds
	// contact is the emergency number.
	contact string
	// location is the optional position for the SMS.
	location *fall.Location
	// sink performs every user-visible side effect.
	sink notify.Sink
	// timer runs the call-then-SMS chain.
	timer *escalation.Timer
	// journal records incidents, may be nil.
	journal Journal
	// newID generates incident identifiers.
	newID func() string

	// mu serializes every state transition.
	mu sync.Mutex
	// phase is the current state.
	phase fall.Phase
	// fallStart is meaningful only in PhaseFreeFalling.
	fallStart time.Time
	// alertStart is meaningful only in PhaseAlertPending.
	alertStart time.Time
	// incidentID identifies the pending alert.
	incidentID string
	// handle is the escalation chain of the pending alert.
	handle *escalation.Handle
	// samples counts processed samples since the last reset.
	samples uint64
	// effects holds side effects in transition order, guarded by mu.
	effects []func()
	// draining is set while some caller runs the effects queue, guarded by mu.
	draining bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithJournal records incidents into journal.
func WithJournal(journal Journal) Option {
	return func(e *Engine) {
		e.journal = journal
	}
}

// WithIDGenerator overrides the incident ID generator.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

// New creates an Engine in the idle phase.
func New(settings Settings, sink notify.Sink, opts ...Option) (*Engine, error) {
	if sink == nil {
		return nil, errSinkRequired
	}

	if settings.EmergencyContact == "" {
		return nil, errContactRequired
	}

	thresholds := settings.Thresholds.WithDefaults()
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		thresholds: thresholds,
		contact:    settings.EmergencyContact,
		location:   settings.Location.Clone(),
		sink:       sink,
		timer: escalation.NewTimer(
			escalation.WithCallDelay(settings.CallDelay),
			escalation.WithSMSDelay(settings.SMSDelay),
		),
		newID: uuid.NewString,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// OnSample feeds one sample through the state machine and returns the resulting transition.
// Samples must be delivered in arrival order; concurrent callers are serialized.
func (e *Engine) OnSample(ctx context.Context, sample fall.Sample) fall.Transition {
	e.mu.Lock()

	e.samples++

	var (
		magnitude  = sample.Magnitude()
		transition = fall.Transition{
			From:      e.phase,
			To:        e.phase,
			Event:     motion.ClassifyMagnitude(magnitude, e.thresholds),
			Magnitude: magnitude,
			At:        sample.Timestamp,
		}
		result     outcome
		incidentID = e.incidentID
		fallStart  = e.fallStart
		alertStart = e.alertStart
	)

	switch e.phase {
	case fall.PhaseIdle:
		if motion.IsFreeFall(magnitude, e.thresholds) {
			e.phase = fall.PhaseFreeFalling
			e.fallStart = sample.Timestamp
			result = outcomeFreeFall
		}
	case fall.PhaseFreeFalling:
		elapsed := fall.Elapsed(e.fallStart, sample.Timestamp)

		switch {
		case motion.IsImpact(magnitude, e.thresholds) && elapsed < e.thresholds.FallWindow:
			incidentID = e.raiseLocked(ctx, sample.Timestamp)
			result = outcomeRaised
		case elapsed >= e.thresholds.FallWindow:
			e.phase = fall.PhaseIdle
			e.fallStart = time.Time{}
			result = outcomeExpired
		}
	case fall.PhaseAlertPending:
		if motion.IsShake(magnitude, e.thresholds) {
			if fall.Elapsed(e.alertStart, sample.Timestamp) >= e.thresholds.ShakeDebounce {
				e.resolveLocked()
				result = outcomeCancelled
			} else {
				result = outcomeShakeIgnored
			}
		}
	}

	transition.To = e.phase

	var drain bool

	switch result {
	case outcomeRaised:
		drain = e.enqueueLocked(func() {
			logger.InfoKV(ctx, "Fall confirmed with impact", "magnitude", magnitude, "incident_id", incidentID)
			e.announceAlert(ctx, incidentID, sample.Timestamp)
		})
	case outcomeCancelled:
		drain = e.enqueueLocked(func() {
			logger.InfoKV(ctx, "Emergency alert canceled by shaking", "incident_id", incidentID)
			e.announceCancel(ctx, incidentID, SourceShake)
		})
	case outcomeNone, outcomeFreeFall, outcomeExpired, outcomeShakeIgnored:
	}

	e.mu.Unlock()

	switch result {
	case outcomeFreeFall:
		logger.DebugKV(ctx, "Free fall detected", "magnitude", magnitude, "at", sample.Timestamp)
	case outcomeExpired:
		logger.DebugKV(ctx, "Free fall window expired without impact",
			"fall_start", fallStart, "elapsed", fall.Elapsed(fallStart, sample.Timestamp))
	case outcomeShakeIgnored:
		logger.DebugKV(ctx, "Shake ignored during debounce",
			"magnitude", magnitude, "since_alert", fall.Elapsed(alertStart, sample.Timestamp))
	case outcomeNone, outcomeRaised, outcomeCancelled:
	}

	if drain {
		e.drainEffects()
	}

	return transition
}

// Cancel resolves a pending alert on request, without the shake debounce.
// It reports whether an alert was pending.
func (e *Engine) Cancel(ctx context.Context, source string) bool {
	e.mu.Lock()

	if e.phase != fall.PhaseAlertPending {
		e.mu.Unlock()

		return false
	}

	incidentID := e.incidentID
	e.resolveLocked()

	drain := e.enqueueLocked(func() {
		logger.InfoKV(ctx, "Emergency alert canceled", "incident_id", incidentID, "source", source)
		e.announceCancel(ctx, incidentID, source)
	})
	e.mu.Unlock()

	if drain {
		e.drainEffects()
	}

	return true
}

// Reset returns the engine to idle and stops any outstanding escalation.
// It is used at session start and shutdown.
func (e *Engine) Reset(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.timer.Stop() {
		logger.WarnKV(ctx, "Outstanding escalation stopped by reset", "incident_id", e.incidentID)
	}

	e.phase = fall.PhaseIdle
	e.fallStart = time.Time{}
	e.alertStart = time.Time{}
	e.incidentID = ""
	e.handle = nil
	e.samples = 0
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() fall.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return fall.Snapshot{
		Phase:      e.phase,
		FallStart:  e.fallStart,
		AlertStart: e.alertStart,
		IncidentID: e.incidentID,
		Samples:    e.samples,
	}
}

// raiseLocked enters the alert phase and arms the escalation chain. Must be called with mu held.
func (e *Engine) raiseLocked(ctx context.Context, at time.Time) string {
	id := e.newID()

	e.phase = fall.PhaseAlertPending
	e.fallStart = time.Time{}
	e.alertStart = at
	e.incidentID = id

	// Deadlines outlive the sample that raised them but keep its logger.
	deadlineCtx := logger.WithKV(context.WithoutCancel(ctx), "incident_id", id)

	e.handle = e.timer.Start(
		func() { e.onCallDeadline(deadlineCtx, id) },
		func() { e.onSMSDeadline(deadlineCtx, id) },
	)

	return id
}

// resolveLocked leaves the alert phase and cancels the chain. Must be called with mu held.
func (e *Engine) resolveLocked() {
	e.timer.Cancel(e.handle)

	e.phase = fall.PhaseIdle
	e.alertStart = time.Time{}
	e.incidentID = ""
	e.handle = nil
}

// isPendingLocked reports whether id is still the pending alert. Must be called with mu held.
func (e *Engine) isPendingLocked(id string) bool {
	return e.phase == fall.PhaseAlertPending && e.incidentID == id
}

// enqueueLocked queues fn behind the effects of earlier transitions and reports
// whether the caller must drain the queue. Must be called with mu held.
func (e *Engine) enqueueLocked(fn func()) bool {
	e.effects = append(e.effects, fn)

	if e.draining {
		return false
	}

	e.draining = true

	return true
}

// drainEffects runs queued effects in order until the queue is empty.
// Only one caller drains at a time; others return after enqueueing.
func (e *Engine) drainEffects() {
	for {
		e.mu.Lock()

		batch := e.effects
		e.effects = nil

		if len(batch) == 0 {
			e.draining = false
			e.mu.Unlock()

			return
		}

		e.mu.Unlock()

		for _, fn := range batch {
			fn()
		}
	}
}
