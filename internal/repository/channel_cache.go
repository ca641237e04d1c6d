package repository

import (
	"context"

	"github.com/syncapps/chanbridge/internal/domain"
)

// ChannelDirectory defines the interface for the per-team channel list
// cache. Entries are invalidated one team at a time (channel create/delete/
// archive events) or all at once.
type ChannelDirectory interface {
	Get(ctx context.Context, slackTeamID string) (*domain.TeamDirectory, error)
	Store(ctx context.Context, dir domain.TeamDirectory) error
	ClearTeam(ctx context.Context, slackTeamID string) error
	ClearAll(ctx context.Context) error
}
