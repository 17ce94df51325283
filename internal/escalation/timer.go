package escalation

import (
	"sync"
	"time"

	"github.com/oshokin/fall-alarm/internal/domain/fall"
)

// Stage is the lifecycle position of one escalation chain.
type Stage int

// Chain stages.
const (
	// StageCallScheduled waits for the call deadline.
	StageCallScheduled Stage = iota
	// StageCallRunning executes the call action.
	StageCallRunning
	// StageSMSScheduled waits for the SMS deadline.
	StageSMSScheduled
	// StageSMSRunning executes the SMS action.
	StageSMSRunning
	// StageCompleted means both actions ran.
	StageCompleted
	// StageCancelled means the chain was stopped before finishing.
	StageCancelled
)

// String implements fmt.Stringer.
func (s Stage) String() string {
	switch s {
	case StageCallScheduled:
		return "call_scheduled"
	case StageCallRunning:
		return "call_running"
	case StageSMSScheduled:
		return "sms_scheduled"
	case StageSMSRunning:
		return "sms_running"
	case StageCompleted:
		return "completed"
	default:
		return "cancelled"
	}
}

// Handle identifies one in-flight chain.
type Handle struct {
	// id is a per-timer sequence number, useful in logs.
	id uint64
	// stage is guarded by the owning Timer's mutex.
	stage Stage
	// pending is the deadline currently armed, nil while an action runs.
	pending *time.Timer
	// callAt is when the call deadline fired.
	callAt time.Time
}

// ID returns the chain sequence number.
func (h *Handle) ID() uint64 {
	if h == nil {
		return 0
	}

	return h.id
}

// Timer schedules the call and SMS deadlines of an escalation chain.
type Timer struct {
	// callDelay is the time from Start to the call action.
	callDelay time.Duration
	// smsDelay is the time from the call deadline to the SMS action.
	smsDelay time.Duration

	// mu guards every handle stage and the active pointer.
	mu sync.Mutex
	// active is the chain that has not finished or been cancelled yet.
	active *Handle
	// seq numbers the chains.
	seq uint64
}

// Option configures a Timer.
type Option func(*Timer)

// WithCallDelay overrides the delay before the call action.
func WithCallDelay(delay time.Duration) Option {
	return func(t *Timer) {
		if delay > 0 {
			t.callDelay = delay
		}
	}
}

// WithSMSDelay overrides the delay between the call and SMS actions.
func WithSMSDelay(delay time.Duration) Option {
	return func(t *Timer) {
		if delay > 0 {
			t.smsDelay = delay
		}
	}
}

// NewTimer creates a Timer with the default 10 s + 10 s schedule.
func NewTimer(opts ...Option) *Timer {
	t := &Timer{
		callDelay: fall.DefaultCallDelay,
		smsDelay:  fall.DefaultSMSDelay,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Start arms a new chain. Any chain still outstanding is cancelled first.
func (t *Timer) Start(onCall, onSMS func()) *Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active != nil {
		t.cancelLocked(t.active)
	}

	t.seq++

	h := &Handle{
		id:    t.seq,
		stage: StageCallScheduled,
	}

	h.pending = time.AfterFunc(t.callDelay, func() {
		t.fireCall(h, onCall, onSMS)
	})

	t.active = h

	return h
}

// Cancel stops the chain. It reports whether a deadline was prevented.
// Cancelling a finished, cancelled or nil handle is a no-op.
func (t *Timer) Cancel(h *Handle) bool {
	if h == nil {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return t.cancelLocked(h)
}

// Stop cancels whatever chain is outstanding.
func (t *Timer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active == nil {
		return false
	}

	return t.cancelLocked(t.active)
}

// Stage returns the current stage of the chain. A nil handle reports StageCancelled.
func (t *Timer) Stage(h *Handle) Stage {
	if h == nil {
		return StageCancelled
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return h.stage
}

// Active returns the outstanding chain, if any.
func (t *Timer) Active() *Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.active
}

// cancelLocked must be called with mu held.
func (t *Timer) cancelLocked(h *Handle) bool {
	prevented := false

	switch h.stage {
	case StageCallScheduled, StageSMSScheduled:
		if h.pending != nil {
			h.pending.Stop()
			h.pending = nil
		}

		h.stage = StageCancelled
		prevented = true
	case StageCallRunning:
		// The call already started; only the SMS is prevented.
		h.stage = StageCancelled
		prevented = true
	case StageSMSRunning, StageCompleted, StageCancelled:
	}

	if t.active == h {
		t.active = nil
	}

	return prevented
}

// fireCall runs the call action unless the chain was cancelled first.
func (t *Timer) fireCall(h *Handle, onCall, onSMS func()) {
	t.mu.Lock()

	if h.stage != StageCallScheduled {
		t.mu.Unlock()

		return
	}

	h.stage = StageCallRunning
	h.pending = nil
	h.callAt = time.Now()
	t.mu.Unlock()

	if onCall != nil {
		onCall()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if h.stage != StageCallRunning {
		return
	}

	// The SMS deadline counts from the call deadline, not from the end of the call action.
	delay := t.smsDelay - time.Since(h.callAt)
	if delay < 0 {
		delay = 0
	}

	h.stage = StageSMSScheduled
	h.pending = time.AfterFunc(delay, func() {
		t.fireSMS(h, onSMS)
	})
}

// fireSMS runs the SMS action unless the chain was cancelled first.
func (t *Timer) fireSMS(h *Handle, onSMS func()) {
	t.mu.Lock()

	if h.stage != StageSMSScheduled {
		t.mu.Unlock()

		return
	}

	h.stage = StageSMSRunning
	h.pending = nil
	t.mu.Unlock()

	if onSMS != nil {
		onSMS()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	h.stage = StageCompleted

	if t.active == h {
		t.active = nil
	}
}
