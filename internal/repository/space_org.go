package repository

import (
	"context"

	"github.com/syncapps/chanbridge/internal/domain"
)

// SpaceOrgs defines the interface for Space application instance persistence
type SpaceOrgs interface {
	GetByClientID(ctx context.Context, clientID string) (*domain.SpaceOrg, error)
	Save(ctx context.Context, org domain.SpaceOrg) error
	Delete(ctx context.Context, clientID string) error
}
