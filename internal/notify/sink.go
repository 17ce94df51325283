package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/fall-alarm/internal/domain/fall"
)

// User-facing messages.
const (
	// AlertMessage is spoken when a fall is confirmed.
	AlertMessage = "You have fallen. KARMA AI is calling help within 10 seconds. If you are okay, please shake the phone to cancel."
	// CancelMessage is spoken when the alert is cancelled.
	CancelMessage = "Alert canceled."
	// CallMessage is spoken right before the emergency call.
	CallMessage = "Calling emergency contact now."
	// smsPrefix starts every emergency SMS.
	smsPrefix = "Emergency Alert: A fall was detected. "
	// unknownLocation is used when no position is configured.
	unknownLocation = "Location: (latitude, longitude)"
)

// ErrNoDispatcher is returned when direct calls or SMS are not configured.
var ErrNoDispatcher = errors.New("no emergency dispatcher configured")

// Speaker renders text as speech.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Indicator shows a color to the user.
type Indicator interface {
	SetIndicator(ctx context.Context, color fall.Color) error
}

// Dispatcher places emergency calls and sends emergency SMS directly.
type Dispatcher interface {
	PlaceEmergencyCall(ctx context.Context, number string) error
	SendEmergencySMS(ctx context.Context, number, body string) error
}

// Fallback opens user-driven alternatives when direct dispatch fails.
type Fallback interface {
	OpenDialer(ctx context.Context, number string) error
	ComposeSMS(ctx context.Context, number, body string) error
}

// Sink is everything the engine needs from the outside world.
type Sink interface {
	Speaker
	Indicator
	Dispatcher
	Fallback
}

// SMSBody builds the emergency SMS text.
func SMSBody(location *fall.Location) string {
	if location == nil {
		return smsPrefix + unknownLocation
	}

	return fmt.Sprintf("%sLocation: (%.6f, %.6f)", smsPrefix, location.Latitude, location.Longitude)
}
