// Package twilio places emergency calls and sends emergency SMS through the
// Twilio REST API.
package twilio

import (
	"context"
	"errors"
	"fmt"

	twiliosdk "github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/twilio/twilio-go/twiml"

	"github.com/oshokin/fall-alarm/internal/logger"
)

// Config holds the Twilio account credentials and caller ID.
type Config struct {
	// AccountSID identifies the Twilio account.
	AccountSID string
	// AuthToken authenticates API requests.
	AuthToken string
	// From is the Twilio number calls and SMS are sent from.
	From string
	// VoiceMessage is read to the emergency contact when the call connects.
	VoiceMessage string
}

// api is the subset of the Twilio REST API the dispatcher uses.
type api interface {
	CreateCall(params *twilioApi.CreateCallParams) (*twilioApi.ApiV2010Call, error)
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

var (
	// errCredentialsRequired is returned when the account SID or token is missing.
	errCredentialsRequired = errors.New("twilio account SID and auth token must be provided")
	// errFromRequired is returned when no caller number is configured.
	errFromRequired = errors.New("twilio caller number must be provided")
	// errNumberRequired is returned when the destination number is empty.
	errNumberRequired = errors.New("destination number must be provided")
)

// Dispatcher implements notify.Dispatcher on top of Twilio.
type Dispatcher struct {
	// api is the Twilio REST client.
	api api
	// from is the caller ID.
	from string
	// voiceMessage is spoken on the emergency call.
	voiceMessage string
}

// New creates a Dispatcher backed by the Twilio REST client.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, errCredentialsRequired
	}

	if cfg.From == "" {
		return nil, errFromRequired
	}

	client := twiliosdk.NewRestClientWithParams(twiliosdk.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return newDispatcher(client.Api, cfg.From, cfg.VoiceMessage), nil
}

// newDispatcher wires an arbitrary API implementation, used by tests.
func newDispatcher(client api, from, voiceMessage string) *Dispatcher {
	return &Dispatcher{
		api:          client,
		from:         from,
		voiceMessage: voiceMessage,
	}
}

// PlaceEmergencyCall calls number and reads the voice message.
func (d *Dispatcher) PlaceEmergencyCall(ctx context.Context, number string) error {
	if number == "" {
		return errNumberRequired
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	document, err := twiml.Voice([]twiml.Element{
		&twiml.VoiceSay{Message: d.voiceMessage},
	})
	if err != nil {
		return fmt.Errorf("build call twiml: %w", err)
	}

	params := new(twilioApi.CreateCallParams)
	params.SetTo(number)
	params.SetFrom(d.from)
	params.SetTwiml(document)

	call, err := d.api.CreateCall(params)
	if err != nil {
		return fmt.Errorf("create call: %w", err)
	}

	logger.InfoKV(ctx, "Emergency call placed", "to", number, "sid", deref(call.Sid))

	return nil
}

// SendEmergencySMS sends body to number.
func (d *Dispatcher) SendEmergencySMS(ctx context.Context, number, body string) error {
	if number == "" {
		return errNumberRequired
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	params := new(twilioApi.CreateMessageParams)
	params.SetTo(number)
	params.SetFrom(d.from)
	params.SetBody(body)

	message, err := d.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}

	logger.InfoKV(ctx, "Emergency SMS sent", "to", number, "sid", deref(message.Sid))

	return nil
}

// deref returns the pointed string or an empty one.
func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
