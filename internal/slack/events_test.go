package slack

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncapps/chanbridge/internal/domain"
)

func TestVerifySignature(t *testing.T) {
	secret := "8f742231b10e8888abcd99yyyzzz85a5"
	timestamp := "1531420618"
	body := []byte(`{"type":"event_callback"}`)

	sign := func() string {
		mac := hmac.New(sha256.New, []byte(secret))
		fmt.Fprintf(mac, "v0:%s:", timestamp)
		mac.Write(body)
		return "v0=" + hex.EncodeToString(mac.Sum(nil))
	}

	t.Run("accepts a valid signature", func(t *testing.T) {
		assert.NoError(t, VerifySignature(secret, timestamp, body, sign()))
	})

	t.Run("rejects a tampered body", func(t *testing.T) {
		err := VerifySignature(secret, timestamp, []byte(`{"type":"tampered"}`), sign())
		assert.ErrorIs(t, err, domain.ErrBadSignature)
	})

	t.Run("rejects the wrong secret", func(t *testing.T) {
		err := VerifySignature("other-secret", timestamp, body, sign())
		assert.ErrorIs(t, err, domain.ErrBadSignature)
	})

	t.Run("rejects missing headers", func(t *testing.T) {
		err := VerifySignature(secret, "", body, sign())
		assert.ErrorIs(t, err, domain.ErrBadSignature)

		err = VerifySignature(secret, timestamp, body, "")
		assert.ErrorIs(t, err, domain.ErrBadSignature)
	})
}

func classify(t *testing.T, body string) Event {
	t.Helper()
	event, err := NewClassifier("A_SELF").Classify([]byte(body))
	require.NoError(t, err)
	return event
}

func TestClassify_NewMessage(t *testing.T) {
	event := classify(t, `{
		"type": "event_callback",
		"team_id": "T1",
		"event": {
			"type": "message",
			"channel": "C1",
			"team": "T1",
			"ts": "1712345678.000100",
			"thread_ts": "1712345600.000001",
			"user": "U1",
			"text": "hello"
		}
	}`)

	created, ok := event.(MessageCreated)
	require.True(t, ok, "expected MessageCreated, got %T", event)
	assert.Equal(t, "T1", created.TeamID)
	assert.Equal(t, "C1", created.ChannelID)
	assert.Equal(t, "1712345678.000100", created.MessageID)
	assert.Equal(t, "1712345600.000001", created.ThreadID)
	assert.Equal(t, "hello", created.Content.Text)
	assert.Equal(t, "U1", created.Content.UserID)
}

func TestClassify_TeamFallback(t *testing.T) {
	event := classify(t, `{
		"type": "event_callback",
		"team_id": "T_ENVELOPE",
		"event": {"type": "message", "channel": "C1", "ts": "1.0", "user": "U1", "text": "x"}
	}`)

	created := event.(MessageCreated)
	assert.Equal(t, "T_ENVELOPE", created.TeamID)
}

func TestClassify_EditedMessage(t *testing.T) {
	event := classify(t, `{
		"type": "event_callback",
		"team_id": "T1",
		"event": {
			"type": "message",
			"subtype": "message_changed",
			"channel": "C1",
			"message": {"type": "message", "team": "T1", "ts": "1712345999.000200", "user": "U1", "text": "fixed"},
			"previous_message": {"type": "message", "ts": "1712345678.000100", "thread_ts": "1712345600.000001", "user": "U1", "text": "typo"}
		}
	}`)

	updated, ok := event.(MessageUpdated)
	require.True(t, ok, "expected MessageUpdated, got %T", event)
	assert.Equal(t, "1712345678.000100", updated.MessageID)
	assert.Equal(t, "1712345600.000001", updated.ThreadID)
	assert.Equal(t, "1712345999.000200", updated.EditedTS)
	assert.Equal(t, "fixed", updated.Content.Text)
}

func TestClassify_DeletedMessage(t *testing.T) {
	t.Run("message_deleted subtype", func(t *testing.T) {
		event := classify(t, `{
			"type": "event_callback",
			"team_id": "T1",
			"event": {
				"type": "message",
				"subtype": "message_deleted",
				"channel": "C1",
				"previous_message": {"type": "message", "team": "T1", "ts": "1712345678.000100", "user": "U1", "text": "gone"}
			}
		}`)

		deleted, ok := event.(MessageDeleted)
		require.True(t, ok, "expected MessageDeleted, got %T", event)
		assert.Equal(t, "T1", deleted.TeamID)
		assert.Equal(t, "1712345678.000100", deleted.MessageID)
		assert.Equal(t, "U1", deleted.UserID)
	})

	t.Run("tombstone edit is a delete", func(t *testing.T) {
		event := classify(t, `{
			"type": "event_callback",
			"team_id": "T1",
			"event": {
				"type": "message",
				"subtype": "message_changed",
				"channel": "C1",
				"message": {"type": "message", "subtype": "tombstone", "ts": "1712345678.000100", "text": "This message was deleted."},
				"previous_message": {"type": "message", "ts": "1712345678.000100", "thread_ts": "1712345678.000100", "user": "U1", "text": "gone"}
			}
		}`)

		deleted, ok := event.(MessageDeleted)
		require.True(t, ok, "expected MessageDeleted, got %T", event)
		assert.Equal(t, "1712345678.000100", deleted.MessageID)
		assert.Equal(t, "1712345678.000100", deleted.ThreadID)
	})

	t.Run("delete without previous_message is unrecognized", func(t *testing.T) {
		event := classify(t, `{
			"type": "event_callback",
			"team_id": "T1",
			"event": {"type": "message", "subtype": "message_deleted", "channel": "C1"}
		}`)

		assert.IsType(t, Unrecognized{}, event)
	})
}

func TestClassify_Membership(t *testing.T) {
	t.Run("channel_join", func(t *testing.T) {
		event := classify(t, `{
			"type": "event_callback",
			"team_id": "T1",
			"event": {
				"type": "message",
				"subtype": "channel_join",
				"channel": "C1",
				"ts": "1712345678.000100",
				"user": "U_NEW",
				"inviter": "U_HOST"
			}
		}`)

		join, ok := event.(ChannelJoin)
		require.True(t, ok, "expected ChannelJoin, got %T", event)
		assert.Equal(t, "U_NEW", join.JoinedUserID)
		assert.Equal(t, "U_HOST", join.InvitedByID)
	})

	t.Run("channel_leave", func(t *testing.T) {
		event := classify(t, `{
			"type": "event_callback",
			"team_id": "T1",
			"event": {"type": "message", "subtype": "channel_leave", "channel": "C1", "ts": "1.0", "user": "U_GONE"}
		}`)

		leave, ok := event.(ChannelLeave)
		require.True(t, ok, "expected ChannelLeave, got %T", event)
		assert.Equal(t, "U_GONE", leave.LeftUserID)
	})
}

func TestClassify_SelfPost(t *testing.T) {
	t.Run("top-level app_id", func(t *testing.T) {
		event := classify(t, `{
			"type": "event_callback",
			"team_id": "T1",
			"event": {"type": "message", "channel": "C1", "ts": "1.0", "app_id": "A_SELF", "text": "echo"}
		}`)

		assert.IsType(t, SelfPost{}, event)
	})

	t.Run("nested app_id on an edit", func(t *testing.T) {
		event := classify(t, `{
			"type": "event_callback",
			"team_id": "T1",
			"event": {
				"type": "message",
				"subtype": "message_changed",
				"channel": "C1",
				"message": {"type": "message", "ts": "2.0", "app_id": "A_SELF", "text": "echo"},
				"previous_message": {"type": "message", "ts": "1.0", "text": "echo"}
			}
		}`)

		assert.IsType(t, SelfPost{}, event)
	})

	t.Run("other apps pass through", func(t *testing.T) {
		event := classify(t, `{
			"type": "event_callback",
			"team_id": "T1",
			"event": {"type": "message", "channel": "C1", "ts": "1.0", "app_id": "A_OTHER", "text": "bot post"}
		}`)

		assert.IsType(t, MessageCreated{}, event)
	})
}

func TestClassify_Administrative(t *testing.T) {
	t.Run("team_domain_change", func(t *testing.T) {
		event := classify(t, `{
			"type": "event_callback",
			"team_id": "T1",
			"event": {"type": "team_domain_change", "domain": "newacme"}
		}`)

		changed, ok := event.(TeamDomainChanged)
		require.True(t, ok, "expected TeamDomainChanged, got %T", event)
		assert.Equal(t, "T1", changed.TeamID)
		assert.Equal(t, "newacme", changed.NewDomain)
	})

	t.Run("app_uninstalled", func(t *testing.T) {
		event := classify(t, `{
			"type": "event_callback",
			"team_id": "T1",
			"event": {"type": "app_uninstalled"}
		}`)

		assert.Equal(t, AppUninstalled{TeamID: "T1"}, event)
	})

	t.Run("channel lifecycle invalidates the directory", func(t *testing.T) {
		for _, eventType := range []string{"channel_created", "channel_deleted", "channel_archive", "channel_unarchive"} {
			event := classify(t, fmt.Sprintf(`{
				"type": "event_callback",
				"team_id": "T1",
				"event": {"type": %q}
			}`, eventType))

			invalidated, ok := event.(DirectoryInvalidated)
			require.True(t, ok, "expected DirectoryInvalidated for %s, got %T", eventType, event)
			assert.Equal(t, eventType, invalidated.EventType)
		}
	})
}

func TestClassify_Unrecognized(t *testing.T) {
	t.Run("unknown event type", func(t *testing.T) {
		event := classify(t, `{
			"type": "event_callback",
			"team_id": "T1",
			"event": {"type": "reaction_added"}
		}`)

		assert.Equal(t, Unrecognized{EventType: "reaction_added"}, event)
	})

	t.Run("envelope without an event", func(t *testing.T) {
		event := classify(t, `{"type": "url_verification", "challenge": "c0ffee"}`)

		assert.Equal(t, Unrecognized{}, event)
	})

	t.Run("malformed body is an error", func(t *testing.T) {
		_, err := NewClassifier("A_SELF").Classify([]byte(`{not-json`))
		assert.Error(t, err)
	})
}

func TestContentMerging(t *testing.T) {
	event := classify(t, `{
		"type": "event_callback",
		"team_id": "T1",
		"event": {
			"type": "message",
			"channel": "C1",
			"ts": "1.0",
			"user": "U1",
			"text": "deploy finished",
			"blocks": [{"type": "section"}],
			"attachments": [
				{
					"color": "#36a64f",
					"blocks": [{"type": "section"}],
					"fields": [{"title": "Status", "value": "ok"}]
				},
				{
					"color": "#ff0000",
					"fields": [{"title": "Region", "value": "eu"}]
				}
			]
		}
	}`)

	created := event.(MessageCreated)
	assert.Equal(t, "#36a64f", created.Content.Color, "only the first attachment's color wins")
	assert.Len(t, created.Content.Blocks, 2)
	require.Len(t, created.Content.Fields, 2)
	assert.Equal(t, "Status", created.Content.Fields[0].Title)
	assert.Equal(t, "Region", created.Content.Fields[1].Title)
}
