package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oshokin/fall-alarm/internal/domain/fall"
)

var errPermissionDenied = errors.New("permission denied")

// effect is one recorded side effect.
type effect struct {
	// kind is the capability used: speak, indicator, call, sms, dialer or compose.
	kind string
	// value is the text, color or number involved.
	value string
	// at is the bubble time the effect happened.
	at time.Time
}

// recordingSink captures every side effect in order.
type recordingSink struct {
	// mu protects effects.
	mu sync.Mutex
	// effects holds the recorded side effects.
	effects []effect
	// callErr is returned from PlaceEmergencyCall.
	callErr error
	// smsErr is returned from SendEmergencySMS.
	smsErr error
}

func (s *recordingSink) add(kind, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.effects = append(s.effects, effect{kind: kind, value: value, at: time.Now()})
}

func (s *recordingSink) Speak(_ context.Context, text string) error {
	s.add("speak", text)

	return nil
}

func (s *recordingSink) SetIndicator(_ context.Context, color fall.Color) error {
	s.add("indicator", string(color))

	return nil
}

func (s *recordingSink) PlaceEmergencyCall(_ context.Context, number string) error {
	s.add("call", number)

	return s.callErr
}

func (s *recordingSink) SendEmergencySMS(_ context.Context, number, body string) error {
	s.add("sms", number+"|"+body)

	return s.smsErr
}

func (s *recordingSink) OpenDialer(_ context.Context, number string) error {
	s.add("dialer", number)

	return nil
}

func (s *recordingSink) ComposeSMS(_ context.Context, number, body string) error {
	s.add("compose", number+"|"+body)

	return nil
}

// all returns a copy of the recorded effects.
func (s *recordingSink) all() []effect {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]effect(nil), s.effects...)
}

// of returns the recorded effects of one kind.
func (s *recordingSink) of(kind string) []effect {
	var out []effect

	for _, e := range s.all() {
		if e.kind == kind {
			out = append(out, e)
		}
	}

	return out
}

// memoryJournal keeps incident events in memory.
type memoryJournal struct {
	// mu protects events.
	mu sync.Mutex
	// events holds the appended events.
	events []fall.IncidentEvent
}

func (j *memoryJournal) Append(_ context.Context, event fall.IncidentEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.events = append(j.events, event)

	return nil
}

func (j *memoryJournal) kinds() []fall.IncidentKind {
	j.mu.Lock()
	defer j.mu.Unlock()

	kinds := make([]fall.IncidentKind, 0, len(j.events))
	for _, e := range j.events {
		kinds = append(kinds, e.Kind)
	}

	return kinds
}

// blockingSink holds the red indicator until released.
type blockingSink struct {
	*recordingSink

	// entered receives once the red indicator is requested.
	entered chan struct{}
	// release lets the red indicator through.
	release chan struct{}
}

func (s *blockingSink) SetIndicator(ctx context.Context, color fall.Color) error {
	if color == fall.ColorRed {
		s.entered <- struct{}{}
		<-s.release
	}

	return s.recordingSink.SetIndicator(ctx, color)
}
