package domain

// MessageRef is the cross-reference record mapping a message's Slack ID
// (its ts) to its Space counterpart ID. Created exactly once per message,
// the first time it crosses platforms; never deleted, only marked deleted.
type MessageRef struct {
	SlackTeamID    string `json:"slackTeamId"`
	SlackMessageID string `json:"slackMessageId"`
	SpaceMessageID string `json:"spaceMessageId"`
	Deleted        bool   `json:"deleted"`
}
