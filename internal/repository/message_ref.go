package repository

import (
	"context"

	"github.com/syncapps/chanbridge/internal/domain"
)

// MessageRefs defines the interface for the cross-platform message
// identity store. Inserts are idempotent: exactly one row per message
// pair, enforced by insert-if-absent semantics.
type MessageRefs interface {
	GetBySlackMessage(ctx context.Context, slackTeamID, slackMessageID string) (*domain.MessageRef, error)
	GetBySpaceMessage(ctx context.Context, slackTeamID, spaceMessageID string) (*domain.MessageRef, error)
	// SetIfAbsent records the pairing; a duplicate insert for the same
	// Slack message is a no-op.
	SetIfAbsent(ctx context.Context, slackTeamID, slackMessageID, spaceMessageID string) error
	MarkDeletedBySlackMessage(ctx context.Context, slackTeamID, slackMessageID string) error
	MarkDeletedBySpaceMessage(ctx context.Context, slackTeamID, spaceMessageID string) error
}
