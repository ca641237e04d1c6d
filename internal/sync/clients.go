package sync

import (
	"context"
	"fmt"

	"github.com/syncapps/chanbridge/internal/concurrency"
	"github.com/syncapps/chanbridge/internal/domain"
	"github.com/syncapps/chanbridge/internal/repository"
	"github.com/syncapps/chanbridge/internal/secrets"
	"github.com/syncapps/chanbridge/internal/slack"
	"github.com/syncapps/chanbridge/internal/space"
)

// DefaultSlackClientFactory builds real API clients with a token source
// bound to the team's stored credentials. The per-team lock manager
// keeps concurrent events from racing a token refresh.
func DefaultSlackClientFactory(
	store repository.SlackTeams,
	sealer *secrets.Sealer,
	locks *concurrency.LockManager,
	clientID, clientSecret string,
) SlackClientFactory {
	return func(_ context.Context, team *domain.SlackTeam) (SlackAPI, error) {
		client := slack.NewClient(nil, "", clientID, clientSecret)
		source, err := slack.NewTokenSource(team, store, sealer, locks, client)
		if err != nil {
			return nil, fmt.Errorf("failed to create token source for team %s: %w", team.ID, err)
		}
		client.SetTokenSource(source)
		return client, nil
	}
}

// DefaultSpaceClientFactory builds real API clients, unsealing the
// persisted client secret.
func DefaultSpaceClientFactory(sealer *secrets.Sealer) SpaceClientFactory {
	return func(org *domain.SpaceOrg) (SpaceAPI, error) {
		secret, err := sealer.OpenString(org.ClientSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to unseal client secret for %s: %w", org.ClientID, err)
		}
		return space.NewClient(nil, org.ServerURL, org.ClientID, secret), nil
	}
}
