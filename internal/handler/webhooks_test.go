package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncapps/chanbridge/internal/slack"
	"github.com/syncapps/chanbridge/internal/space"
	syncpkg "github.com/syncapps/chanbridge/internal/sync"
	"github.com/syncapps/chanbridge/internal/worker"
)

const (
	testSigningSecret = "slack-signing-secret"
	testSigningKey    = "space-signing-key"
)

// The pool is deliberately never started: enqueued jobs stay queued, so
// handler tests observe only the synchronous part of the request.
func newSlackWebhook(queueSize int) *SlackWebhook {
	engine := syncpkg.NewEngine(nil, nil, nil, nil, nil, nil, nil, nil)
	return NewSlackWebhook(testSigningSecret, slack.NewClassifier("A_SELF"), engine, worker.NewPool(1, queueSize))
}

func newSpaceWebhook(queueSize int) *SpaceWebhook {
	engine := syncpkg.NewEngine(nil, nil, nil, nil, nil, nil, nil, nil)
	return NewSpaceWebhook(testSigningKey, engine, worker.NewPool(1, queueSize))
}

func signSlack(timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSigningSecret))
	fmt.Fprintf(mac, "v0:%s:", timestamp)
	mac.Write(body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func signSpace(timestamp string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(testSigningKey))
	fmt.Fprintf(mac, "%s:", timestamp)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func slackRequest(t *testing.T, body []byte, sign bool) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/slack/events", bytes.NewReader(body))
	timestamp := "1712345678"
	req.Header.Set(slack.HeaderTimestamp, timestamp)
	if sign {
		req.Header.Set(slack.HeaderSignature, signSlack(timestamp, body))
	} else {
		req.Header.Set(slack.HeaderSignature, "v0=deadbeef")
	}
	return req
}

func spaceRequest(t *testing.T, body []byte, sign bool) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/space/events", bytes.NewReader(body))
	timestamp := "1712345678000"
	req.Header.Set(space.HeaderTimestamp, timestamp)
	if sign {
		req.Header.Set(space.HeaderSignature, signSpace(timestamp, body))
	} else {
		req.Header.Set(space.HeaderSignature, "deadbeef")
	}
	return req
}

func TestSlackWebhook_Handle(t *testing.T) {
	t.Run("url_verification echoes the challenge", func(t *testing.T) {
		h := newSlackWebhook(4)
		body := []byte(`{"type":"url_verification","challenge":"c0ffee"}`)

		rec := httptest.NewRecorder()
		h.Handle(rec, slackRequest(t, body, true))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "c0ffee", resp["challenge"])
	})

	t.Run("bad signature is rejected", func(t *testing.T) {
		h := newSlackWebhook(4)
		body := []byte(`{"type":"url_verification","challenge":"c0ffee"}`)

		rec := httptest.NewRecorder()
		h.Handle(rec, slackRequest(t, body, false))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing signature headers are rejected", func(t *testing.T) {
		h := newSlackWebhook(4)
		body := []byte(`{}`)

		req := httptest.NewRequest(http.MethodPost, "/slack/events", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		h.Handle(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("event_callback is acked immediately", func(t *testing.T) {
		h := newSlackWebhook(4)
		body := []byte(`{"type":"event_callback","team_id":"T1","event":{"type":"message","channel":"C1","ts":"1712345678.000100","user":"U1","text":"hi"}}`)

		rec := httptest.NewRecorder()
		h.Handle(rec, slackRequest(t, body, true))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("full queue asks for redelivery", func(t *testing.T) {
		h := newSlackWebhook(0)
		body := []byte(`{"type":"event_callback","team_id":"T1","event":{"type":"message","channel":"C1","ts":"1712345678.000100","user":"U1","text":"hi"}}`)

		rec := httptest.NewRecorder()
		h.Handle(rec, slackRequest(t, body, true))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("malformed json is rejected", func(t *testing.T) {
		h := newSlackWebhook(4)
		body := []byte(`{not-json`)

		rec := httptest.NewRecorder()
		h.Handle(rec, slackRequest(t, body, true))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSpaceWebhook_Handle(t *testing.T) {
	t.Run("verified payload is acked", func(t *testing.T) {
		h := newSpaceWebhook(4)
		body := []byte(`{"className":"WebhookRequestPayload","clientId":"app-1","payload":{"className":"ChatMessageCreatedEvent","channelId":"SC1","message":{"id":"sm-1"}}}`)

		rec := httptest.NewRecorder()
		h.Handle(rec, spaceRequest(t, body, true))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("bad signature is rejected", func(t *testing.T) {
		h := newSpaceWebhook(4)
		body := []byte(`{"className":"InitPayload"}`)

		rec := httptest.NewRecorder()
		h.Handle(rec, spaceRequest(t, body, false))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("full queue asks for redelivery", func(t *testing.T) {
		h := newSpaceWebhook(0)
		body := []byte(`{"className":"WebhookRequestPayload","clientId":"app-1","payload":{"className":"ChatMessageCreatedEvent","channelId":"SC1","message":{"id":"sm-1"}}}`)

		rec := httptest.NewRecorder()
		h.Handle(rec, spaceRequest(t, body, true))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("malformed json is rejected", func(t *testing.T) {
		h := newSpaceWebhook(4)
		body := []byte(`{not-json`)

		rec := httptest.NewRecorder()
		h.Handle(rec, spaceRequest(t, body, true))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
