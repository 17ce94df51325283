package notify

import (
	"context"

	"github.com/oshokin/fall-alarm/internal/domain/fall"
)

// Notifier routes each capability to the component that provides it.
// Missing components fall back to Console behaviour.
type Notifier struct {
	// speaker renders speech; nil logs the text instead.
	speaker Speaker
	// indicator shows colors; nil logs them instead.
	indicator Indicator
	// dispatcher places calls and sends SMS; nil makes every dispatch fail with ErrNoDispatcher.
	dispatcher Dispatcher
	// fallback opens the dialer or SMS composer.
	fallback Fallback
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithSpeaker sets the speech renderer.
func WithSpeaker(speaker Speaker) NotifierOption {
	return func(n *Notifier) {
		if speaker != nil {
			n.speaker = speaker
		}
	}
}

// WithIndicator sets the color indicator.
func WithIndicator(indicator Indicator) NotifierOption {
	return func(n *Notifier) {
		if indicator != nil {
			n.indicator = indicator
		}
	}
}

// WithDispatcher sets the direct call and SMS dispatcher.
func WithDispatcher(dispatcher Dispatcher) NotifierOption {
	return func(n *Notifier) {
		if dispatcher != nil {
			n.dispatcher = dispatcher
		}
	}
}

// WithFallback sets the dialer and composer fallback.
func WithFallback(fallback Fallback) NotifierOption {
	return func(n *Notifier) {
		if fallback != nil {
			n.fallback = fallback
		}
	}
}

// NewNotifier assembles a Sink from its parts.
func NewNotifier(opts ...NotifierOption) *Notifier {
	console := NewConsole()

	n := &Notifier{
		speaker:    console,
		indicator:  console,
		dispatcher: console,
		fallback:   console,
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Speak implements Sink.
func (n *Notifier) Speak(ctx context.Context, text string) error {
	return n.speaker.Speak(ctx, text)
}

// SetIndicator implements Sink.
func (n *Notifier) SetIndicator(ctx context.Context, color fall.Color) error {
	return n.indicator.SetIndicator(ctx, color)
}

// PlaceEmergencyCall implements Sink.
func (n *Notifier) PlaceEmergencyCall(ctx context.Context, number string) error {
	return n.dispatcher.PlaceEmergencyCall(ctx, number)
}

// SendEmergencySMS implements Sink.
func (n *Notifier) SendEmergencySMS(ctx context.Context, number, body string) error {
	return n.dispatcher.SendEmergencySMS(ctx, number, body)
}

// OpenDialer implements Sink.
func (n *Notifier) OpenDialer(ctx context.Context, number string) error {
	return n.fallback.OpenDialer(ctx, number)
}

// ComposeSMS implements Sink.
func (n *Notifier) ComposeSMS(ctx context.Context, number, body string) error {
	return n.fallback.ComposeSMS(ctx, number, body)
}
