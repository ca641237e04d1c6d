package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/syncapps/chanbridge/internal/domain"
)

// SlackTeamRepository implements repository.SlackTeams
type SlackTeamRepository struct {
	db *pgxpool.Pool
}

// NewSlackTeamRepository creates a new Slack team repository
func NewSlackTeamRepository(db *pgxpool.Pool) *SlackTeamRepository {
	return &SlackTeamRepository{db: db}
}

// GetByID retrieves a connected workspace by team ID
func (r *SlackTeamRepository) GetByID(ctx context.Context, teamID string) (*domain.SlackTeam, error) {
	query := `
		SELECT team_id, team_domain, space_client_id,
		       COALESCE(access_token, ''::bytea), COALESCE(refresh_token, ''::bytea),
		       COALESCE(access_token_expires_at, 'epoch'::timestamptz), token_invalid
		FROM slack_teams
		WHERE team_id = $1
	`
	var team domain.SlackTeam
	err := r.db.QueryRow(ctx, query, teamID).Scan(
		&team.ID,
		&team.Domain,
		&team.SpaceClientID,
		&team.AccessToken,
		&team.RefreshToken,
		&team.AccessTokenExpiresAt,
		&team.TokenInvalid,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get slack team: %w", err)
	}
	return &team, nil
}

// CreateOrUpdate upserts a workspace row. A re-install replaces the
// credentials and clears the invalid flag.
func (r *SlackTeamRepository) CreateOrUpdate(ctx context.Context, team domain.SlackTeam) error {
	query := `
		INSERT INTO slack_teams (team_id, team_domain, space_client_id, access_token, refresh_token, access_token_expires_at, token_invalid)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (team_id) DO UPDATE SET
			team_domain = EXCLUDED.team_domain,
			space_client_id = EXCLUDED.space_client_id,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			access_token_expires_at = EXCLUDED.access_token_expires_at,
			token_invalid = EXCLUDED.token_invalid,
			updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query,
		team.ID,
		team.Domain,
		team.SpaceClientID,
		team.AccessToken,
		team.RefreshToken,
		team.AccessTokenExpiresAt,
		team.TokenInvalid,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert slack team: %w", err)
	}
	return nil
}

// UpdateDomain records a workspace domain rename
func (r *SlackTeamRepository) UpdateDomain(ctx context.Context, teamID, newDomain string) error {
	query := `UPDATE slack_teams SET team_domain = $2, updated_at = NOW() WHERE team_id = $1`
	tag, err := r.db.Exec(ctx, query, teamID, newDomain)
	if err != nil {
		return fmt.Errorf("failed to update team domain: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTeamNotFound
	}
	return nil
}

// UpdateTokens stores a freshly rotated credential pair and clears any
// previous invalid flag
func (r *SlackTeamRepository) UpdateTokens(ctx context.Context, teamID string, accessToken, refreshToken []byte, expiresAt time.Time) error {
	query := `
		UPDATE slack_teams
		SET access_token = $2, refresh_token = $3, access_token_expires_at = $4,
		    token_invalid = FALSE, updated_at = NOW()
		WHERE team_id = $1
	`
	tag, err := r.db.Exec(ctx, query, teamID, accessToken, refreshToken, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to update team tokens: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTeamNotFound
	}
	return nil
}

// MarkTokenInvalid flags credentials that the API rejected permanently
func (r *SlackTeamRepository) MarkTokenInvalid(ctx context.Context, teamID string) error {
	query := `UPDATE slack_teams SET token_invalid = TRUE, updated_at = NOW() WHERE team_id = $1`
	tag, err := r.db.Exec(ctx, query, teamID)
	if err != nil {
		return fmt.Errorf("failed to mark token invalid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTeamNotFound
	}
	return nil
}

// Delete removes a workspace row
func (r *SlackTeamRepository) Delete(ctx context.Context, teamID string) error {
	query := `DELETE FROM slack_teams WHERE team_id = $1`
	_, err := r.db.Exec(ctx, query, teamID)
	if err != nil {
		return fmt.Errorf("failed to delete slack team: %w", err)
	}
	return nil
}
