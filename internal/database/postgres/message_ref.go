package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/syncapps/chanbridge/internal/domain"
)

// MessageRefRepository implements repository.MessageRefs
type MessageRefRepository struct {
	db *pgxpool.Pool
}

// NewMessageRefRepository creates a new message ref repository
func NewMessageRefRepository(db *pgxpool.Pool) *MessageRefRepository {
	return &MessageRefRepository{db: db}
}

// GetBySlackMessage retrieves the pairing keyed by Slack message ID
func (r *MessageRefRepository) GetBySlackMessage(ctx context.Context, slackTeamID, slackMessageID string) (*domain.MessageRef, error) {
	query := `
		SELECT slack_team_id, slack_message_id, space_message_id, deleted
		FROM message_refs
		WHERE slack_team_id = $1 AND slack_message_id = $2
	`
	return r.scanOne(ctx, query, slackTeamID, slackMessageID)
}

// GetBySpaceMessage retrieves the pairing keyed by Space message ID
func (r *MessageRefRepository) GetBySpaceMessage(ctx context.Context, slackTeamID, spaceMessageID string) (*domain.MessageRef, error) {
	query := `
		SELECT slack_team_id, slack_message_id, space_message_id, deleted
		FROM message_refs
		WHERE slack_team_id = $1 AND space_message_id = $2
	`
	return r.scanOne(ctx, query, slackTeamID, spaceMessageID)
}

// SetIfAbsent records a pairing. Duplicate inserts for the same Slack
// message are silently ignored so retried deliveries stay idempotent.
func (r *MessageRefRepository) SetIfAbsent(ctx context.Context, slackTeamID, slackMessageID, spaceMessageID string) error {
	query := `
		INSERT INTO message_refs (slack_team_id, slack_message_id, space_message_id)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, slackTeamID, slackMessageID, spaceMessageID)
	if err != nil {
		return fmt.Errorf("failed to insert message ref: %w", err)
	}
	return nil
}

// MarkDeletedBySlackMessage flips the deleted flag; already-deleted rows
// are left untouched
func (r *MessageRefRepository) MarkDeletedBySlackMessage(ctx context.Context, slackTeamID, slackMessageID string) error {
	query := `
		UPDATE message_refs SET deleted = TRUE
		WHERE slack_team_id = $1 AND slack_message_id = $2
	`
	_, err := r.db.Exec(ctx, query, slackTeamID, slackMessageID)
	if err != nil {
		return fmt.Errorf("failed to mark message ref deleted: %w", err)
	}
	return nil
}

// MarkDeletedBySpaceMessage flips the deleted flag keyed by Space message ID
func (r *MessageRefRepository) MarkDeletedBySpaceMessage(ctx context.Context, slackTeamID, spaceMessageID string) error {
	query := `
		UPDATE message_refs SET deleted = TRUE
		WHERE slack_team_id = $1 AND space_message_id = $2
	`
	_, err := r.db.Exec(ctx, query, slackTeamID, spaceMessageID)
	if err != nil {
		return fmt.Errorf("failed to mark message ref deleted: %w", err)
	}
	return nil
}

func (r *MessageRefRepository) scanOne(ctx context.Context, query string, args ...any) (*domain.MessageRef, error) {
	var ref domain.MessageRef
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&ref.SlackTeamID,
		&ref.SlackMessageID,
		&ref.SpaceMessageID,
		&ref.Deleted,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRefNotFound
		}
		return nil, fmt.Errorf("failed to get message ref: %w", err)
	}
	return &ref, nil
}
