package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Webhook Metrics
var (
	WebhookEventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameWebhookEventsReceived,
			Help: HelpTextWebhookEventsReceived,
		},
		[]string{LabelPlatform, LabelType},
	)

	WebhookRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameWebhookRejected,
			Help: HelpTextWebhookRejected,
		},
		[]string{LabelPlatform, LabelReason},
	)
)

// Sync Metrics
var (
	SyncOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameSyncOperations,
			Help: HelpTextSyncOperations,
		},
		[]string{LabelDirection, LabelOperation, LabelOutcome},
	)

	SyncQueueRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameSyncQueueRejected,
			Help: HelpTextSyncQueueRejected,
		},
		[]string{LabelPlatform},
	)

	AttachmentTransfers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameAttachmentTransfers,
			Help: HelpTextAttachmentTransfers,
		},
		[]string{LabelDirection},
	)

	DirectoryLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameDirectoryLookups,
			Help: HelpTextDirectoryLookups,
		},
		[]string{LabelResult},
	)
)

// Credential Metrics
var (
	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameTokenRefreshes,
			Help: HelpTextTokenRefreshes,
		},
		[]string{LabelOutcome},
	)

	TokensInvalidated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameTokensInvalidated,
			Help: HelpTextTokensInvalidated,
		},
	)
)
