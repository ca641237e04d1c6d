package repository

import (
	"context"
	"time"

	"github.com/syncapps/chanbridge/internal/domain"
)

// SlackTeams defines the interface for Slack workspace credential persistence.
// Token bytes are stored encrypted; callers pass ciphertext.
type SlackTeams interface {
	GetByID(ctx context.Context, teamID string) (*domain.SlackTeam, error)
	CreateOrUpdate(ctx context.Context, team domain.SlackTeam) error
	UpdateDomain(ctx context.Context, teamID, newDomain string) error
	UpdateTokens(ctx context.Context, teamID string, accessToken, refreshToken []byte, expiresAt time.Time) error
	MarkTokenInvalid(ctx context.Context, teamID string) error
	Delete(ctx context.Context, teamID string) error
}
