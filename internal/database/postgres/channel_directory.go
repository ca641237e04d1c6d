package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/syncapps/chanbridge/internal/domain"
)

// ChannelDirectoryRepository implements repository.ChannelDirectory with a
// JSONB snapshot per team. The sync layer keeps an in-memory LRU in front
// of this store; this is the durable tier that survives restarts.
type ChannelDirectoryRepository struct {
	db *pgxpool.Pool
}

// NewChannelDirectoryRepository creates a new channel directory repository
func NewChannelDirectoryRepository(db *pgxpool.Pool) *ChannelDirectoryRepository {
	return &ChannelDirectoryRepository{db: db}
}

// Get retrieves the cached directory snapshot for a team
func (r *ChannelDirectoryRepository) Get(ctx context.Context, slackTeamID string) (*domain.TeamDirectory, error) {
	query := `SELECT channels FROM channel_directory WHERE slack_team_id = $1`
	var data []byte
	err := r.db.QueryRow(ctx, query, slackTeamID).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get channel directory: %w", err)
	}

	var channels []domain.ChannelInfo
	if err := json.Unmarshal(data, &channels); err != nil {
		return nil, fmt.Errorf("failed to unmarshal channel directory: %w", err)
	}
	return &domain.TeamDirectory{TeamID: slackTeamID, Channels: channels}, nil
}

// Store replaces the snapshot for a team
func (r *ChannelDirectoryRepository) Store(ctx context.Context, dir domain.TeamDirectory) error {
	data, err := json.Marshal(dir.Channels)
	if err != nil {
		return fmt.Errorf("failed to marshal channel directory: %w", err)
	}

	query := `
		INSERT INTO channel_directory (slack_team_id, channels)
		VALUES ($1, $2)
		ON CONFLICT (slack_team_id) DO UPDATE SET
			channels = EXCLUDED.channels,
			refreshed_at = NOW()
	`
	if _, err := r.db.Exec(ctx, query, dir.TeamID, data); err != nil {
		return fmt.Errorf("failed to store channel directory: %w", err)
	}
	return nil
}

// ClearTeam drops the snapshot for one team
func (r *ChannelDirectoryRepository) ClearTeam(ctx context.Context, slackTeamID string) error {
	query := `DELETE FROM channel_directory WHERE slack_team_id = $1`
	if _, err := r.db.Exec(ctx, query, slackTeamID); err != nil {
		return fmt.Errorf("failed to clear channel directory: %w", err)
	}
	return nil
}

// ClearAll drops every snapshot
func (r *ChannelDirectoryRepository) ClearAll(ctx context.Context) error {
	query := `DELETE FROM channel_directory`
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to clear channel directories: %w", err)
	}
	return nil
}
