package sync

import "time"

// Operation label values for sync metrics
const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
	OperationJoin   = "join"
)

// Channel directory cache sizing
const (
	DirectoryCacheSize = 128
	DirectoryCacheTTL  = 10 * time.Minute
)

// Log messages
const (
	LogMsgSkipNoLink           = "skipping event: channel is not linked"
	LogMsgSkipTokenInvalid     = "skipping event: team token is invalid"
	LogMsgSkipThreadUnresolved = "skipping message: thread root has no synced counterpart"
	LogMsgSkipAlreadyDeleted   = "skipping deletion: message already marked deleted"
	LogMsgSkipNoRef            = "skipping deletion: no message record found"
	LogMsgSkipImported         = "skipping message: it was imported by this bridge"
	LogMsgSkipNotText          = "skipping message: application-generated content"
	LogMsgSkipEditUnknown      = "skipping edit: message was never synced"
	LogMsgSkipChannelLeave     = "skipping channel leave message"
	LogMsgSkipSelfPost         = "skipping message authored by this app"
	LogMsgSkipUnrecognized     = "skipping unrecognized event"
	LogMsgSkipJoinNoInviter    = "skipping channel join without an inviter"
	LogMsgAppUninstalled       = "app uninstalled from team, marking token invalid"
	LogMsgDirectoryInvalidated = "clearing channel directory for team"
	LogMsgOrgInstalled         = "space organization installed"
	LogMsgMessageSynced        = "message synced"
	LogMsgMessageDeleted       = "message deletion propagated"
	LogMsgAttachmentSkipped    = "attachment skipped"
)
