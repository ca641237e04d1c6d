package domain

// ChannelInfo is a single entry in a team's cached channel directory.
type ChannelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TeamDirectory is a point-in-time snapshot of a Slack team's channel list,
// cached to avoid repeated full conversations.list walks.
type TeamDirectory struct {
	TeamID   string        `json:"teamId"`
	Channels []ChannelInfo `json:"channels"`
}
