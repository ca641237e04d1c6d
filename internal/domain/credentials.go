package domain

import "time"

// SlackTeam holds a connected Slack workspace together with its rotating
// OAuth credentials. Access and refresh tokens are stored encrypted; the
// plaintext only exists in memory inside the Slack client.
type SlackTeam struct {
	ID                   string
	Domain               string
	SpaceClientID        string
	AccessToken          []byte // encrypted at rest
	RefreshToken         []byte // encrypted at rest
	AccessTokenExpiresAt time.Time
	TokenInvalid         bool
}

// SpaceOrg holds an installed Space application instance (one per Space
// organization). Client-credentials flow, so only client id/secret are
// persisted; bearer tokens are short-lived and cached in memory.
type SpaceOrg struct {
	ClientID     string
	ClientSecret []byte // encrypted at rest
	ServerURL    string
}
