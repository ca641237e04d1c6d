package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/syncapps/chanbridge/internal/domain"
	"github.com/syncapps/chanbridge/internal/logger"
)

// syncContext is the fully resolved environment for handling one event:
// the channel link, both credential records and both bound clients.
type syncContext struct {
	link     *domain.ChannelLink
	team     *domain.SlackTeam
	org      *domain.SpaceOrg
	slackAPI SlackAPI
	spaceAPI SpaceAPI
}

// slackContext resolves the sync context for an event arriving from a
// Slack channel. A nil context with nil error means the event is not
// syncable (unlinked channel, disconnected team) and should be skipped.
func (e *Engine) slackContext(ctx context.Context, teamID, channelID string) (*syncContext, error) {
	log := logger.FromContext(ctx)

	link, err := e.links.GetBySlackChannel(ctx, teamID, channelID)
	if err != nil {
		if errors.Is(err, domain.ErrLinkNotFound) {
			log.Debug(LogMsgSkipNoLink, "team_id", teamID, "channel_id", channelID)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve channel link: %w", err)
	}

	team, err := e.teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, domain.ErrTeamNotFound) {
			log.Debug(LogMsgSkipTokenInvalid, "team_id", teamID)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load team: %w", err)
	}
	if team.TokenInvalid {
		log.Debug(LogMsgSkipTokenInvalid, "team_id", teamID)
		return nil, nil
	}

	org, err := e.orgs.GetByClientID(ctx, link.SpaceClientID)
	if err != nil {
		if errors.Is(err, domain.ErrOrgNotFound) {
			log.Debug(LogMsgSkipNoLink, "client_id", link.SpaceClientID)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load space org: %w", err)
	}

	return e.buildContext(ctx, link, team, org)
}

// spaceContext resolves the sync context for an event arriving from a
// Space channel.
func (e *Engine) spaceContext(ctx context.Context, clientID, channelID string) (*syncContext, error) {
	log := logger.FromContext(ctx)

	link, err := e.links.GetBySpaceChannel(ctx, clientID, channelID)
	if err != nil {
		if errors.Is(err, domain.ErrLinkNotFound) {
			log.Debug(LogMsgSkipNoLink, "client_id", clientID, "channel_id", channelID)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve channel link: %w", err)
	}

	team, err := e.teams.GetByID(ctx, link.SlackTeamID)
	if err != nil {
		if errors.Is(err, domain.ErrTeamNotFound) {
			log.Debug(LogMsgSkipTokenInvalid, "team_id", link.SlackTeamID)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load team: %w", err)
	}
	if team.TokenInvalid {
		log.Debug(LogMsgSkipTokenInvalid, "team_id", team.ID)
		return nil, nil
	}

	org, err := e.orgs.GetByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, domain.ErrOrgNotFound) {
			log.Debug(LogMsgSkipNoLink, "client_id", clientID)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load space org: %w", err)
	}

	return e.buildContext(ctx, link, team, org)
}

func (e *Engine) buildContext(ctx context.Context, link *domain.ChannelLink, team *domain.SlackTeam, org *domain.SpaceOrg) (*syncContext, error) {
	slackAPI, err := e.newSlackClient(ctx, team)
	if err != nil {
		return nil, fmt.Errorf("failed to create slack client: %w", err)
	}
	spaceAPI, err := e.newSpaceClient(org)
	if err != nil {
		return nil, fmt.Errorf("failed to create space client: %w", err)
	}
	return &syncContext{
		link:     link,
		team:     team,
		org:      org,
		slackAPI: slackAPI,
		spaceAPI: spaceAPI,
	}, nil
}
