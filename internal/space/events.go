package space

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/syncapps/chanbridge/internal/domain"
)

// VerifySignature checks the webhook HMAC: SHA-512 over
// "<timestamp>:<body>" keyed with the signing key, compared in constant
// time against the hex signature header.
func VerifySignature(signingKey, timestamp string, body []byte, signature string) error {
	if timestamp == "" || signature == "" {
		return fmt.Errorf("%w: %s", domain.ErrBadSignature, domain.ErrMsgMissingHeaders)
	}

	mac := hmac.New(sha512.New, []byte(signingKey))
	fmt.Fprintf(mac, "%s:", timestamp)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return domain.ErrBadSignature
	}
	return nil
}

// Event is the closed set of classified Space payloads.
type Event interface {
	spaceEvent()
}

// InstallRequested is the first-install handshake carrying the new
// organization's credentials.
type InstallRequested struct {
	ClientID     string
	ClientSecret string
	ServerURL    string
}

type MessageCreated struct {
	ClientID  string
	ChannelID string
	MessageID string
	ThreadID  string
}

type MessageUpdated struct {
	ClientID  string
	ChannelID string
	MessageID string
	ThreadID  string
}

type MessageDeleted struct {
	ClientID  string
	ChannelID string
	MessageID string
	ThreadID  string
}

type Unrecognized struct {
	ClassName string
}

func (InstallRequested) spaceEvent() {}
func (MessageCreated) spaceEvent()   {}
func (MessageUpdated) spaceEvent()   {}
func (MessageDeleted) spaceEvent()   {}
func (Unrecognized) spaceEvent()     {}

// Classify parses a verified payload body into a typed event.
func Classify(body []byte) (Event, error) {
	var envelope PayloadEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse space payload: %w", err)
	}

	switch envelope.ClassName {
	case ClassInitPayload:
		return InstallRequested{
			ClientID:     envelope.ClientID,
			ClientSecret: envelope.ClientSecret,
			ServerURL:    envelope.ServerURL,
		}, nil

	case ClassWebhookRequestPayload:
		if len(envelope.Payload) == 0 {
			return Unrecognized{ClassName: envelope.ClassName}, nil
		}
		var event WebhookEventPayload
		if err := json.Unmarshal(envelope.Payload, &event); err != nil {
			return nil, fmt.Errorf("failed to parse webhook event payload: %w", err)
		}
		if event.Message == nil {
			return Unrecognized{ClassName: event.ClassName}, nil
		}

		switch event.ClassName {
		case ClassChatMessageCreated:
			return MessageCreated{
				ClientID:  envelope.ClientID,
				ChannelID: event.ChannelID,
				MessageID: event.Message.ID,
				ThreadID:  event.ThreadID,
			}, nil
		case ClassChatMessageUpdated:
			return MessageUpdated{
				ClientID:  envelope.ClientID,
				ChannelID: event.ChannelID,
				MessageID: event.Message.ID,
				ThreadID:  event.ThreadID,
			}, nil
		case ClassChatMessageDeleted:
			return MessageDeleted{
				ClientID:  envelope.ClientID,
				ChannelID: event.ChannelID,
				MessageID: event.Message.ID,
				ThreadID:  event.ThreadID,
			}, nil
		default:
			return Unrecognized{ClassName: event.ClassName}, nil
		}

	default:
		return Unrecognized{ClassName: envelope.ClassName}, nil
	}
}
