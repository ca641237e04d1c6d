package space

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncapps/chanbridge/internal/domain"
)

func TestVerifySignature(t *testing.T) {
	key := "space-signing-key"
	timestamp := "1712345678000"
	body := []byte(`{"className":"InitPayload"}`)

	sign := func() string {
		mac := hmac.New(sha512.New, []byte(key))
		fmt.Fprintf(mac, "%s:", timestamp)
		mac.Write(body)
		return hex.EncodeToString(mac.Sum(nil))
	}

	t.Run("accepts a valid signature", func(t *testing.T) {
		assert.NoError(t, VerifySignature(key, timestamp, body, sign()))
	})

	t.Run("rejects a tampered body", func(t *testing.T) {
		err := VerifySignature(key, timestamp, []byte(`{"className":"Tampered"}`), sign())
		assert.ErrorIs(t, err, domain.ErrBadSignature)
	})

	t.Run("rejects a shifted timestamp", func(t *testing.T) {
		err := VerifySignature(key, "1712345678001", body, sign())
		assert.ErrorIs(t, err, domain.ErrBadSignature)
	})

	t.Run("rejects missing headers", func(t *testing.T) {
		err := VerifySignature(key, "", body, sign())
		assert.ErrorIs(t, err, domain.ErrBadSignature)

		err = VerifySignature(key, timestamp, body, "")
		assert.ErrorIs(t, err, domain.ErrBadSignature)
	})
}

func classify(t *testing.T, body string) Event {
	t.Helper()
	event, err := Classify([]byte(body))
	require.NoError(t, err)
	return event
}

func TestClassify_InstallRequested(t *testing.T) {
	event := classify(t, `{
		"className": "InitPayload",
		"clientId": "app-1",
		"clientSecret": "s3cret",
		"serverUrl": "https://acme.jetbrains.space",
		"userId": "u-admin"
	}`)

	install, ok := event.(InstallRequested)
	require.True(t, ok, "expected InstallRequested, got %T", event)
	assert.Equal(t, "app-1", install.ClientID)
	assert.Equal(t, "s3cret", install.ClientSecret)
	assert.Equal(t, "https://acme.jetbrains.space", install.ServerURL)
}

func TestClassify_MessageEvents(t *testing.T) {
	webhookBody := func(class, thread string) string {
		return fmt.Sprintf(`{
			"className": "WebhookRequestPayload",
			"clientId": "app-1",
			"payload": {
				"className": %q,
				"channelId": "SC1",
				"threadId": %q,
				"message": {"id": "sm-1"}
			}
		}`, class, thread)
	}

	t.Run("created", func(t *testing.T) {
		event := classify(t, webhookBody("ChatMessageCreatedEvent", ""))

		created, ok := event.(MessageCreated)
		require.True(t, ok, "expected MessageCreated, got %T", event)
		assert.Equal(t, MessageCreated{ClientID: "app-1", ChannelID: "SC1", MessageID: "sm-1"}, created)
	})

	t.Run("created in a thread", func(t *testing.T) {
		event := classify(t, webhookBody("ChatMessageCreatedEvent", "th-1"))

		created := event.(MessageCreated)
		assert.Equal(t, "th-1", created.ThreadID)
	})

	t.Run("updated", func(t *testing.T) {
		event := classify(t, webhookBody("ChatMessageUpdatedEvent", ""))

		assert.Equal(t, MessageUpdated{ClientID: "app-1", ChannelID: "SC1", MessageID: "sm-1"}, event)
	})

	t.Run("deleted", func(t *testing.T) {
		event := classify(t, webhookBody("ChatMessageDeletedEvent", ""))

		assert.Equal(t, MessageDeleted{ClientID: "app-1", ChannelID: "SC1", MessageID: "sm-1"}, event)
	})
}

func TestClassify_Unrecognized(t *testing.T) {
	t.Run("unknown envelope class", func(t *testing.T) {
		event := classify(t, `{"className": "ApplicationUninstalledPayload"}`)

		assert.Equal(t, Unrecognized{ClassName: "ApplicationUninstalledPayload"}, event)
	})

	t.Run("unknown event class", func(t *testing.T) {
		event := classify(t, `{
			"className": "WebhookRequestPayload",
			"clientId": "app-1",
			"payload": {"className": "ChatChannelCreatedEvent", "channelId": "SC1", "message": {"id": "x"}}
		}`)

		assert.Equal(t, Unrecognized{ClassName: "ChatChannelCreatedEvent"}, event)
	})

	t.Run("webhook payload without a message", func(t *testing.T) {
		event := classify(t, `{
			"className": "WebhookRequestPayload",
			"clientId": "app-1",
			"payload": {"className": "ChatMessageCreatedEvent", "channelId": "SC1"}
		}`)

		assert.Equal(t, Unrecognized{ClassName: "ChatMessageCreatedEvent"}, event)
	})

	t.Run("webhook envelope without a payload", func(t *testing.T) {
		event := classify(t, `{"className": "WebhookRequestPayload", "clientId": "app-1"}`)

		assert.Equal(t, Unrecognized{ClassName: "WebhookRequestPayload"}, event)
	})

	t.Run("malformed body is an error", func(t *testing.T) {
		_, err := Classify([]byte(`{not-json`))
		assert.Error(t, err)
	})
}
