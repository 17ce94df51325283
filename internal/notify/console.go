package notify

import (
	"context"
	"net/url"

	"github.com/oshokin/fall-alarm/internal/domain/fall"
	"github.com/oshokin/fall-alarm/internal/logger"
)

// Console renders every capability into the log.
// It never fails, so it is a safe last-resort Sink and Fallback.
type Console struct{}

// NewConsole creates a log-backed sink.
func NewConsole() *Console {
	return new(Console)
}

// Speak logs the text that would be spoken.
func (*Console) Speak(ctx context.Context, text string) error {
	logger.InfoKV(ctx, "Speak", "text", text)

	return nil
}

// SetIndicator logs the indicator color.
func (*Console) SetIndicator(ctx context.Context, color fall.Color) error {
	logger.InfoKV(ctx, "Indicator changed", "color", string(color))

	return nil
}

// PlaceEmergencyCall reports that no direct dispatch is available.
func (*Console) PlaceEmergencyCall(context.Context, string) error {
	return ErrNoDispatcher
}

// SendEmergencySMS reports that no direct dispatch is available.
func (*Console) SendEmergencySMS(context.Context, string, string) error {
	return ErrNoDispatcher
}

// OpenDialer logs a tel: link for the emergency contact.
func (*Console) OpenDialer(ctx context.Context, number string) error {
	logger.WarnKV(ctx, "Dial the emergency contact manually", "uri", DialURI(number))

	return nil
}

// ComposeSMS logs a pre-filled sms: link for the emergency contact.
func (*Console) ComposeSMS(ctx context.Context, number, body string) error {
	logger.WarnKV(ctx, "Send the emergency SMS manually", "uri", SMSURI(number, body))

	return nil
}

// DialURI returns a tel: URI for the number.
func DialURI(number string) string {
	return (&url.URL{Scheme: "tel", Opaque: number}).String()
}

// SMSURI returns an sms: URI with a pre-filled body.
func SMSURI(number, body string) string {
	u := &url.URL{
		Scheme:   "sms",
		Opaque:   number,
		RawQuery: url.Values{"body": []string{body}}.Encode(),
	}

	return u.String()
}
