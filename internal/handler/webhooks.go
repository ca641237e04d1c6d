package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/syncapps/chanbridge/internal/logger"
	"github.com/syncapps/chanbridge/internal/metrics"
	"github.com/syncapps/chanbridge/internal/slack"
	"github.com/syncapps/chanbridge/internal/space"
	syncpkg "github.com/syncapps/chanbridge/internal/sync"
	"github.com/syncapps/chanbridge/internal/worker"
)

// Webhook ingestion follows ack-then-async: the handler verifies the
// request, classifies the event, enqueues a sync job and returns 200
// immediately. Slack redelivers on slow responses, so nothing that talks
// to either platform API runs on the request path. The only synchronous
// answer is the url_verification challenge echo. A full queue answers
// 503 so the platform redelivers instead of losing the event.

// eventLabel is the metric label for a classified event, the bare type
// name without its package.
func eventLabel(event any) string {
	name := fmt.Sprintf("%T", event)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// SlackWebhook handles the Slack Events API endpoint.
type SlackWebhook struct {
	signingSecret string
	classifier    *slack.Classifier
	engine        *syncpkg.Engine
	pool          *worker.Pool
}

func NewSlackWebhook(signingSecret string, classifier *slack.Classifier, engine *syncpkg.Engine, pool *worker.Pool) *SlackWebhook {
	return &SlackWebhook{
		signingSecret: signingSecret,
		classifier:    classifier,
		engine:        engine,
		pool:          pool,
	}
}

// Handle processes a Slack Events API delivery
// @Summary Slack events webhook
// @Description Verified ingestion point for the Slack Events API. Events are classified and processed asynchronously.
// @Tags webhooks
// @Accept json
// @Success 200
// @Failure 400 {string} string
// @Failure 503 {string} string
// @Router /slack/events [post]
func (h *SlackWebhook) Handle(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		metrics.WebhookRejected.WithLabelValues(metrics.PlatformSlack, RejectReasonBadBody).Inc()
		http.Error(w, ErrMsgUnreadableBody, http.StatusBadRequest)
		return
	}

	timestamp := r.Header.Get(slack.HeaderTimestamp)
	signature := r.Header.Get(slack.HeaderSignature)
	if err := slack.VerifySignature(h.signingSecret, timestamp, body, signature); err != nil {
		metrics.WebhookRejected.WithLabelValues(metrics.PlatformSlack, RejectReasonBadSignature).Inc()
		log.Warn(LogMsgWebhookRejected, "platform", metrics.PlatformSlack, "error", err)
		http.Error(w, ErrMsgBadSignature, http.StatusBadRequest)
		return
	}

	var envelope slack.EventEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		metrics.WebhookRejected.WithLabelValues(metrics.PlatformSlack, RejectReasonBadPayload).Inc()
		http.Error(w, ErrMsgMalformedPayload, http.StatusBadRequest)
		return
	}

	// First-install handshake: echo the challenge back synchronously.
	if envelope.Type == slack.PayloadTypeURLVerification {
		respondJSON(w, http.StatusOK, map[string]string{"challenge": envelope.Challenge})
		return
	}

	event, err := h.classifier.Classify(body)
	if err != nil {
		metrics.WebhookRejected.WithLabelValues(metrics.PlatformSlack, RejectReasonBadPayload).Inc()
		log.Warn(LogMsgWebhookRejected, "platform", metrics.PlatformSlack, "error", err)
		http.Error(w, ErrMsgMalformedPayload, http.StatusBadRequest)
		return
	}
	metrics.WebhookEventsReceived.WithLabelValues(metrics.PlatformSlack, eventLabel(event)).Inc()

	job := worker.JobFunc(func(ctx context.Context) error {
		return h.engine.HandleSlackEvent(ctx, event)
	})
	if !h.pool.Enqueue(r.Context(), job) {
		metrics.SyncQueueRejected.WithLabelValues(metrics.PlatformSlack).Inc()
		log.Warn(LogMsgQueueFull, "platform", metrics.PlatformSlack)
		http.Error(w, ErrMsgQueueFull, http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// SpaceWebhook handles the JetBrains Space application endpoint.
type SpaceWebhook struct {
	signingKey string
	engine     *syncpkg.Engine
	pool       *worker.Pool
}

func NewSpaceWebhook(signingKey string, engine *syncpkg.Engine, pool *worker.Pool) *SpaceWebhook {
	return &SpaceWebhook{
		signingKey: signingKey,
		engine:     engine,
		pool:       pool,
	}
}

// Handle processes a Space application payload
// @Summary Space events webhook
// @Description Verified ingestion point for JetBrains Space application payloads. Events are classified and processed asynchronously.
// @Tags webhooks
// @Accept json
// @Success 200
// @Failure 400 {string} string
// @Failure 503 {string} string
// @Router /space/events [post]
func (h *SpaceWebhook) Handle(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		metrics.WebhookRejected.WithLabelValues(metrics.PlatformSpace, RejectReasonBadBody).Inc()
		http.Error(w, ErrMsgUnreadableBody, http.StatusBadRequest)
		return
	}

	timestamp := r.Header.Get(space.HeaderTimestamp)
	signature := r.Header.Get(space.HeaderSignature)
	if err := space.VerifySignature(h.signingKey, timestamp, body, signature); err != nil {
		metrics.WebhookRejected.WithLabelValues(metrics.PlatformSpace, RejectReasonBadSignature).Inc()
		log.Warn(LogMsgWebhookRejected, "platform", metrics.PlatformSpace, "error", err)
		http.Error(w, ErrMsgBadSignature, http.StatusBadRequest)
		return
	}

	event, err := space.Classify(body)
	if err != nil {
		metrics.WebhookRejected.WithLabelValues(metrics.PlatformSpace, RejectReasonBadPayload).Inc()
		log.Warn(LogMsgWebhookRejected, "platform", metrics.PlatformSpace, "error", err)
		http.Error(w, ErrMsgMalformedPayload, http.StatusBadRequest)
		return
	}
	metrics.WebhookEventsReceived.WithLabelValues(metrics.PlatformSpace, eventLabel(event)).Inc()

	job := worker.JobFunc(func(ctx context.Context) error {
		return h.engine.HandleSpaceEvent(ctx, event)
	})
	if !h.pool.Enqueue(r.Context(), job) {
		metrics.SyncQueueRejected.WithLabelValues(metrics.PlatformSpace).Inc()
		log.Warn(LogMsgQueueFull, "platform", metrics.PlatformSpace)
		http.Error(w, ErrMsgQueueFull, http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}
