package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Webhook metric names
const (
	MetricNameWebhookEventsReceived = "webhook_events_received_total"
	MetricNameWebhookRejected       = "webhook_requests_rejected_total"
)

// Sync metric names
const (
	MetricNameSyncOperations      = "sync_operations_total"
	MetricNameSyncQueueRejected   = "sync_queue_rejected_total"
	MetricNameAttachmentTransfers = "attachment_transfers_total"
	MetricNameDirectoryLookups    = "channel_directory_lookups_total"
)

// Credential metric names
const (
	MetricNameTokenRefreshes    = "token_refreshes_total"
	MetricNameTokensInvalidated = "tokens_invalidated_total"
)

// ============================================================================
// Metric Help Text
// ============================================================================

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Webhook metric help text
const (
	HelpTextWebhookEventsReceived = "Total number of webhook events received, by platform and event type"
	HelpTextWebhookRejected       = "Total number of webhook requests rejected before classification"
)

// Sync metric help text
const (
	HelpTextSyncOperations      = "Total number of sync operations, by direction, operation and outcome"
	HelpTextSyncQueueRejected   = "Total number of webhook events rejected because the sync queue was full"
	HelpTextAttachmentTransfers = "Total number of attachments copied between platforms"
	HelpTextDirectoryLookups    = "Total number of channel directory lookups, by result"
)

// Credential metric help text
const (
	HelpTextTokenRefreshes    = "Total number of access token refresh attempts, by outcome"
	HelpTextTokensInvalidated = "Total number of workspace tokens marked permanently invalid"
)

// ============================================================================
// Metric Label Names
// ============================================================================

const (
	LabelMethod    = "method"
	LabelPath      = "path"
	LabelStatus    = "status"
	LabelPlatform  = "platform"
	LabelType      = "type"
	LabelReason    = "reason"
	LabelDirection = "direction"
	LabelOperation = "operation"
	LabelOutcome   = "outcome"
	LabelResult    = "result"
)

// Label values for LabelPlatform
const (
	PlatformSlack = "slack"
	PlatformSpace = "space"
)

// Label values for LabelDirection
const (
	DirectionSlackToSpace = "slack_to_space"
	DirectionSpaceToSlack = "space_to_slack"
)

// Label values for LabelOutcome
const (
	OutcomeSynced  = "synced"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Label values for LabelResult on directory lookups
const (
	ResultCacheHit  = "cache_hit"
	ResultCacheMiss = "cache_miss"
)

// Label values for token refresh outcomes
const (
	RefreshOutcomeSuccess = "success"
	RefreshOutcomeFailure = "failure"
)

// ============================================================================
// Histogram Buckets
// ============================================================================

// HTTPLatencyBuckets defines the histogram buckets for HTTP request duration
// in seconds. These buckets range from 1ms to 10s to capture various latency
// patterns: fast (1-10ms), normal (10-100ms), slow (100ms-1s), very slow (1-10s)
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
