package domain

import "errors"

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	// Credential errors
	ErrMsgTeamNotFound   = "slack team not found"
	ErrMsgOrgNotFound    = "space org not found"
	ErrMsgTokenInvalid   = "token marked invalid"
	ErrMsgRefreshFailed  = "token refresh failed"
	ErrMsgNoRefreshToken = "no refresh token available"

	// Sync errors
	ErrMsgLinkNotFound   = "channel link not found"
	ErrMsgRefNotFound    = "message ref not found"
	ErrMsgThreadNotFound = "thread root not synced"

	// Webhook errors
	ErrMsgBadSignature   = "invalid request signature"
	ErrMsgMissingHeaders = "signature headers missing"

	// Input errors
	ErrMsgInvalidInput = "invalid input"
)

// Sentinel errors for control flow. Wrap with fmt.Errorf("...: %w", err)
// when adding context.
var (
	ErrTeamNotFound   = errors.New(ErrMsgTeamNotFound)
	ErrOrgNotFound    = errors.New(ErrMsgOrgNotFound)
	ErrTokenInvalid   = errors.New(ErrMsgTokenInvalid)
	ErrRefreshFailed  = errors.New(ErrMsgRefreshFailed)
	ErrLinkNotFound   = errors.New(ErrMsgLinkNotFound)
	ErrRefNotFound    = errors.New(ErrMsgRefNotFound)
	ErrThreadNotFound = errors.New(ErrMsgThreadNotFound)
	ErrBadSignature   = errors.New(ErrMsgBadSignature)
)
