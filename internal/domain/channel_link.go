package domain

import "time"

// ChannelLink represents a configured pairing between a Slack channel and a
// Space channel. Links are immutable once created; re-pairing requires
// delete + create.
type ChannelLink struct {
	SlackTeamID    string    `json:"slackTeamId"`
	SlackChannelID string    `json:"slackChannelId"`
	SpaceClientID  string    `json:"spaceClientId"`
	SpaceChannelID string    `json:"spaceChannelId"`
	CreatedAt      time.Time `json:"createdAt"`
}
