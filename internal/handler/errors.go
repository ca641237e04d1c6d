package handler

// Generic HTTP error messages for client responses.
// These messages intentionally do not expose internal error details for security reasons.
// Both handlers and tests should reference these constants to maintain consistency.
const (
	// HTTP status messages
	ErrMsgMethodNotAllowed      = "Method not allowed"
	ErrMsgInvalidRequest        = "Invalid request body"
	ErrMsgInvalidRequestSummary = "Invalid request"

	// Query parameter error messages
	ErrMsgMissingQueryParam = "Missing %s query parameter"

	// Webhook error messages
	ErrMsgBadSignature     = "invalid signature"
	ErrMsgUnreadableBody   = "unreadable request body"
	ErrMsgMalformedPayload = "malformed payload"
	ErrMsgQueueFull        = "sync queue full, retry later"

	// Admin API error messages
	ErrMsgTeamNotConnected  = "Slack team is not connected"
	ErrMsgLinkNotFoundHTTP  = "Channel link not found"
	ErrMsgListChannelsError = "Failed to list channels"
	ErrMsgListLinksError    = "Failed to list channel links"
	ErrMsgCreateLinkError   = "Failed to create channel link"
	ErrMsgRemoveLinkError   = "Failed to remove channel link"
)

// Success messages for API responses
const (
	MsgLinkCreatedSuccess    = "Channel link created"
	MsgLinkAlreadyExists     = "Channel link already exists"
	MsgLinkRemovedSuccess    = "Channel link removed"
	MsgDirectoryCacheCleared = "Channel directory cache cleared"
)

// Log messages
const (
	LogMsgWebhookRejected = "webhook request rejected"
	LogMsgQueueFull       = "sync queue full, rejecting event for redelivery"
	LogMsgLinkCreated     = "channel link created"
	LogMsgLinkRemoved     = "channel link removed"
)

// Webhook rejection reason labels for metrics
const (
	RejectReasonBadSignature = "bad_signature"
	RejectReasonBadBody      = "bad_body"
	RejectReasonBadPayload   = "bad_payload"
)
