package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/syncapps/chanbridge/internal/domain"
)

// SpaceOrgRepository implements repository.SpaceOrgs
type SpaceOrgRepository struct {
	db *pgxpool.Pool
}

// NewSpaceOrgRepository creates a new Space org repository
func NewSpaceOrgRepository(db *pgxpool.Pool) *SpaceOrgRepository {
	return &SpaceOrgRepository{db: db}
}

// GetByClientID retrieves an installed Space application instance
func (r *SpaceOrgRepository) GetByClientID(ctx context.Context, clientID string) (*domain.SpaceOrg, error) {
	query := `
		SELECT client_id, client_secret, server_url
		FROM space_orgs
		WHERE client_id = $1
	`
	var org domain.SpaceOrg
	err := r.db.QueryRow(ctx, query, clientID).Scan(
		&org.ClientID,
		&org.ClientSecret,
		&org.ServerURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrgNotFound
		}
		return nil, fmt.Errorf("failed to get space org: %w", err)
	}
	return &org, nil
}

// Save upserts an installation. Re-installs refresh the secret and URL.
func (r *SpaceOrgRepository) Save(ctx context.Context, org domain.SpaceOrg) error {
	query := `
		INSERT INTO space_orgs (client_id, client_secret, server_url)
		VALUES ($1, $2, $3)
		ON CONFLICT (client_id) DO UPDATE SET
			client_secret = EXCLUDED.client_secret,
			server_url = EXCLUDED.server_url,
			updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, org.ClientID, org.ClientSecret, org.ServerURL)
	if err != nil {
		return fmt.Errorf("failed to upsert space org: %w", err)
	}
	return nil
}

// Delete removes an installation row
func (r *SpaceOrgRepository) Delete(ctx context.Context, clientID string) error {
	query := `DELETE FROM space_orgs WHERE client_id = $1`
	_, err := r.db.Exec(ctx, query, clientID)
	if err != nil {
		return fmt.Errorf("failed to delete space org: %w", err)
	}
	return nil
}
