package space

import "time"

// API paths relative to the organization's server URL
const (
	pathOAuthToken      = "/oauth/token"
	pathImportMessages  = "/api/http/chats/messages/import"
	pathGetMessage      = "/api/http/chats/messages/get-message"
	pathParseMarkdown   = "/api/http/rich-text/parse-markdown"
	pathProfiles        = "/api/http/team-directory/profiles"
	pathGetChannel      = "/api/http/chats/channels/get-channel"
	pathAttachmentURL   = "/api/http/uploads/chat/public-url"
	pathCreateUpload    = "/api/http/uploads/create-upload"
	pathSetUIExtensions = "/api/http/applications/ui-extensions"
	pathRequestRights   = "/api/http/applications/authorizations/authorized-rights/request-rights"
)

// Webhook headers
const (
	HeaderTimestamp = "X-Space-Timestamp"
	HeaderSignature = "X-Space-Signature"
)

// Payload class discriminators
const (
	ClassInitPayload           = "InitPayload"
	ClassWebhookRequestPayload = "WebhookRequestPayload"

	ClassChatMessageCreated = "ChatMessageCreatedEvent"
	ClassChatMessageUpdated = "ChatMessageUpdatedEvent"
	ClassChatMessageDeleted = "ChatMessageDeletedEvent"
)

// Rich text node class names
const (
	ClassRtDocument    = "RtDocument"
	ClassRtParagraph   = "RtParagraph"
	ClassRtHeading     = "RtHeading"
	ClassRtBulletList  = "RtBulletList"
	ClassRtOrderedList = "RtOrderedList"
	ClassRtListItem    = "RtListItem"
	ClassRtBlockquote  = "RtBlockquote"
	ClassRtCode        = "RtCode"
	ClassRtText        = "RtText"
	ClassRtMention     = "RtMention"
	ClassRtEmoji       = "RtEmoji"
	ClassRtBreak       = "RtBreak"
	ClassRtImage       = "RtImage"
	ClassRtBoldMark    = "RtBoldMark"
	ClassRtItalicMark  = "RtItalicMark"
	ClassRtStrikeMark  = "RtStrikeThroughMark"
	ClassRtCodeMark    = "RtCodeMark"
	ClassRtLinkMark    = "RtLinkMark"

	ClassRtTeamLinkDetails       = "RtTeamLinkDetails"
	ClassRtProfileLinkDetails    = "RtProfileLinkDetails"
	ClassRtPredefinedMention     = "RtPredefinedMentionLinkDetails"
	ClassRtProfileMentionAttrs   = "RtProfileMentionAttrs"
	ClassRtTeamMentionAttrs      = "RtTeamMentionAttrs"
	ClassRtPredefinedMentionAttr = "RtPredefinedMentionAttrs"
)

// Attachment class names on fetched messages
const (
	ClassImageAttachment = "ImageAttachment"
	ClassVideoAttachment = "VideoAttachment"
	ClassFileAttachment  = "FileAttachment"
)

// Message import
const (
	ImportCreate = "Create"
	ImportUpdate = "Update"
	ImportDelete = "Delete"

	// UploadStorageKey groups this application's uploads on the server.
	UploadStorageKey = "chanbridge"
)

// Permission codes requested at install time
const (
	RightViewMemberProfiles = "Profiles.View"
)

// HomepageUIExtensionPath is registered as the application homepage
// iframe at install time.
const HomepageUIExtensionPath = "/space-iframe"

// DefaultHTTPTimeout bounds outbound calls including uploads.
const DefaultHTTPTimeout = 30 * time.Second

// bearerExpirySlack renews the cached client-credentials token slightly
// before the server-side expiry.
const bearerExpirySlack = 30 * time.Second
