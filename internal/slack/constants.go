package slack

import "time"

// API endpoint paths relative to the API base URL
const (
	DefaultAPIBaseURL = "https://slack.com/api"

	methodPostMessage       = "chat.postMessage"
	methodUpdateMessage     = "chat.update"
	methodDeleteMessage     = "chat.delete"
	methodConversationsInfo = "conversations.info"
	methodConversationsList = "conversations.list"
	methodUsersInfo         = "users.info"
	methodLookupByEmail     = "users.lookupByEmail"
	methodTeamInfo          = "team.info"
	methodUsergroupsList    = "usergroups.list"
	methodFilesRemoteAdd    = "files.remote.add"
	methodOAuthAccess       = "oauth.v2.access"
)

// Webhook headers
const (
	HeaderTimestamp = "X-Slack-Request-Timestamp"
	HeaderSignature = "X-Slack-Signature"

	signatureVersion = "v0"
)

// Payload type discriminators
const (
	PayloadTypeURLVerification = "url_verification"
	PayloadTypeEventCallback   = "event_callback"
)

// Event types carried inside event_callback payloads
const (
	EventTypeMessage          = "message"
	EventTypeTeamDomainChange = "team_domain_change"
	EventTypeAppUninstalled   = "app_uninstalled"
	EventTypeChannelCreated   = "channel_created"
	EventTypeChannelDeleted   = "channel_deleted"
	EventTypeChannelArchive   = "channel_archive"
	EventTypeChannelUnarchive = "channel_unarchive"
)

// Message event subtypes
const (
	SubtypeMessageChanged = "message_changed"
	SubtypeMessageDeleted = "message_deleted"
	SubtypeChannelJoin    = "channel_join"
	SubtypeChannelLeave   = "channel_leave"
	SubtypeTombstone      = "tombstone"
)

// Token lifecycle
const (
	// TokenExpiryLookahead refreshes proactively when the access token is
	// about to expire.
	TokenExpiryLookahead = 10 * time.Second

	errTokenExpired      = "token_expired"
	errInvalidAuth       = "invalid_auth"
	errCannotAuthUser    = "cannot_auth_user"
	errInvalidRefreshTok = "invalid_refresh_token"
	errInvalidClientID   = "invalid_client_id"
	errBadClientSecret   = "bad_client_secret"
	errUsersNotFound     = "users_not_found"
	errAccountInactive   = "account_inactive"
	errNoPermission      = "no_permission"
	errMissingScope      = "missing_scope"
	errNotAllowedToken   = "not_allowed_token_type"
	errCannotFindService = "cannot_find_service"
)

// Channel listing
const (
	// MaxChannelPages bounds the cursor walk over conversations.list.
	MaxChannelPages = 50
	// ChannelPageSize is the per-request batch size.
	ChannelPageSize = 1000
)

// DefaultHTTPTimeout bounds every outbound call, downloads included.
const DefaultHTTPTimeout = 30 * time.Second

// Log Messages
const (
	LogMsgRefreshingToken    = "Refreshing Slack access token"
	LogMsgTokenRefreshed     = "Slack access token refreshed"
	LogMsgTokenMarkedInvalid = "Slack token marked invalid"
	LogMsgAPIError           = "Got ok=false from Slack"
)
