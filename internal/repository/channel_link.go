package repository

import (
	"context"

	"github.com/syncapps/chanbridge/internal/domain"
)

// ChannelLinks defines the interface for channel pairing persistence
type ChannelLinks interface {
	// AddIfAbsent creates the link unless the same pairing already exists.
	// Returns true when a new link was created.
	AddIfAbsent(ctx context.Context, link domain.ChannelLink) (bool, error)
	GetBySlackChannel(ctx context.Context, slackTeamID, slackChannelID string) (*domain.ChannelLink, error)
	GetBySpaceChannel(ctx context.Context, spaceClientID, spaceChannelID string) (*domain.ChannelLink, error)
	ListBySlackTeam(ctx context.Context, slackTeamID string) ([]domain.ChannelLink, error)
	ListBySpaceClient(ctx context.Context, spaceClientID string) ([]domain.ChannelLink, error)
	Remove(ctx context.Context, link domain.ChannelLink) error
	// RemoveBySlackTeam cascades link removal when a team is disconnected.
	RemoveBySlackTeam(ctx context.Context, slackTeamID string) error
}
