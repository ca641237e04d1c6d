package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/syncapps/chanbridge/internal/domain"
)

// ChannelLinkRepository implements repository.ChannelLinks
type ChannelLinkRepository struct {
	db *pgxpool.Pool
}

// NewChannelLinkRepository creates a new channel link repository
func NewChannelLinkRepository(db *pgxpool.Pool) *ChannelLinkRepository {
	return &ChannelLinkRepository{db: db}
}

// AddIfAbsent creates the link unless either channel is already paired.
// Returns true when a new row was inserted.
func (r *ChannelLinkRepository) AddIfAbsent(ctx context.Context, link domain.ChannelLink) (bool, error) {
	query := `
		INSERT INTO channel_links (slack_team_id, slack_channel_id, space_client_id, space_channel_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query,
		link.SlackTeamID,
		link.SlackChannelID,
		link.SpaceClientID,
		link.SpaceChannelID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert channel link: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetBySlackChannel looks up the link for a Slack channel
func (r *ChannelLinkRepository) GetBySlackChannel(ctx context.Context, slackTeamID, slackChannelID string) (*domain.ChannelLink, error) {
	query := `
		SELECT slack_team_id, slack_channel_id, space_client_id, space_channel_id, created_at
		FROM channel_links
		WHERE slack_team_id = $1 AND slack_channel_id = $2
	`
	return r.scanOne(ctx, query, slackTeamID, slackChannelID)
}

// GetBySpaceChannel looks up the link for a Space channel
func (r *ChannelLinkRepository) GetBySpaceChannel(ctx context.Context, spaceClientID, spaceChannelID string) (*domain.ChannelLink, error) {
	query := `
		SELECT slack_team_id, slack_channel_id, space_client_id, space_channel_id, created_at
		FROM channel_links
		WHERE space_client_id = $1 AND space_channel_id = $2
	`
	return r.scanOne(ctx, query, spaceClientID, spaceChannelID)
}

// ListBySlackTeam returns all links configured for a Slack workspace
func (r *ChannelLinkRepository) ListBySlackTeam(ctx context.Context, slackTeamID string) ([]domain.ChannelLink, error) {
	query := `
		SELECT slack_team_id, slack_channel_id, space_client_id, space_channel_id, created_at
		FROM channel_links
		WHERE slack_team_id = $1
		ORDER BY created_at
	`
	return r.scanMany(ctx, query, slackTeamID)
}

// ListBySpaceClient returns all links configured for a Space organization
func (r *ChannelLinkRepository) ListBySpaceClient(ctx context.Context, spaceClientID string) ([]domain.ChannelLink, error) {
	query := `
		SELECT slack_team_id, slack_channel_id, space_client_id, space_channel_id, created_at
		FROM channel_links
		WHERE space_client_id = $1
		ORDER BY created_at
	`
	return r.scanMany(ctx, query, spaceClientID)
}

// Remove deletes a single link
func (r *ChannelLinkRepository) Remove(ctx context.Context, link domain.ChannelLink) error {
	query := `
		DELETE FROM channel_links
		WHERE slack_team_id = $1 AND slack_channel_id = $2
		  AND space_client_id = $3 AND space_channel_id = $4
	`
	tag, err := r.db.Exec(ctx, query,
		link.SlackTeamID,
		link.SlackChannelID,
		link.SpaceClientID,
		link.SpaceChannelID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete channel link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLinkNotFound
	}
	return nil
}

// RemoveBySlackTeam cascades link removal when a team is disconnected
func (r *ChannelLinkRepository) RemoveBySlackTeam(ctx context.Context, slackTeamID string) error {
	query := `DELETE FROM channel_links WHERE slack_team_id = $1`
	_, err := r.db.Exec(ctx, query, slackTeamID)
	if err != nil {
		return fmt.Errorf("failed to delete team links: %w", err)
	}
	return nil
}

func (r *ChannelLinkRepository) scanOne(ctx context.Context, query string, args ...any) (*domain.ChannelLink, error) {
	var link domain.ChannelLink
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&link.SlackTeamID,
		&link.SlackChannelID,
		&link.SpaceClientID,
		&link.SpaceChannelID,
		&link.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get channel link: %w", err)
	}
	return &link, nil
}

func (r *ChannelLinkRepository) scanMany(ctx context.Context, query string, args ...any) ([]domain.ChannelLink, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list channel links: %w", err)
	}
	defer rows.Close()

	links := []domain.ChannelLink{}
	for rows.Next() {
		var link domain.ChannelLink
		if err := rows.Scan(
			&link.SlackTeamID,
			&link.SlackChannelID,
			&link.SpaceClientID,
			&link.SpaceChannelID,
			&link.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan channel link: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate channel links: %w", err)
	}
	return links, nil
}
