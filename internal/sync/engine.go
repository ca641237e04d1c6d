package sync

import (
	"context"
	"fmt"

	"github.com/syncapps/chanbridge/internal/domain"
	"github.com/syncapps/chanbridge/internal/logger"
	"github.com/syncapps/chanbridge/internal/metrics"
	"github.com/syncapps/chanbridge/internal/repository"
	"github.com/syncapps/chanbridge/internal/secrets"
	"github.com/syncapps/chanbridge/internal/slack"
	"github.com/syncapps/chanbridge/internal/space"
)

// SlackAPI is the slice of the Slack client the engine calls. Satisfied
// by *slack.Client; tests substitute fakes.
type SlackAPI interface {
	PostMessage(ctx context.Context, msg slack.PostMessageRequest) (*slack.PostMessageResponse, error)
	UpdateMessage(ctx context.Context, msg slack.UpdateMessageRequest) error
	DeleteMessage(ctx context.Context, channelID, ts string) error
	GetChannelInfo(ctx context.Context, channelID string) (*slack.Channel, error)
	ListChannels(ctx context.Context) ([]slack.Channel, error)
	GetUserByID(ctx context.Context, userID string) (*slack.User, error)
	LookupUserByEmail(ctx context.Context, email string) (*slack.User, error)
	GetTeamInfo(ctx context.Context, teamID string) (*slack.Team, error)
	ListUsergroups(ctx context.Context) ([]slack.Usergroup, error)
	AddRemoteFile(ctx context.Context, req slack.FilesRemoteAddRequest) error
	DownloadFile(ctx context.Context, fileURL string) ([]byte, error)
}

// SpaceAPI is the slice of the Space client the engine calls.
type SpaceAPI interface {
	ImportMessages(ctx context.Context, channel space.ChannelIdentifier, messages []space.ImportMessage, suppressNotifications bool) error
	GetMessage(ctx context.Context, channelID, messageID string) (*space.ChannelItemRecord, error)
	GetMessageByExternalID(ctx context.Context, channelID, externalID string) (*space.ChannelItemRecord, error)
	GetThreadRoot(ctx context.Context, threadID string) (*space.ChannelItemRecord, error)
	ParseMarkdown(ctx context.Context, text string) (*space.RtDocument, error)
	GetProfileByEmail(ctx context.Context, email string) (*space.ProfileRecord, error)
	GetProfile(ctx context.Context, profileID string) (*space.ProfileRecord, error)
	CreateUpload(ctx context.Context) (string, error)
	Upload(ctx context.Context, uploadPath, name string, data []byte) (string, error)
	GetPublicAttachmentURL(ctx context.Context, channelID, messageID, attachmentID string) (string, error)
	RegisterUIExtension(ctx context.Context) error
	RequestRights(ctx context.Context, rightCodes ...string) error
}

// SlackClientFactory builds a workspace-bound client with a live token
// source. Fails fast when the team's token is marked invalid.
type SlackClientFactory func(ctx context.Context, team *domain.SlackTeam) (SlackAPI, error)

// SpaceClientFactory builds an organization-bound client, unsealing the
// persisted client secret.
type SpaceClientFactory func(org *domain.SpaceOrg) (SpaceAPI, error)

// Engine routes classified webhook events to their sync handlers. One
// engine serves all connected teams and organizations; per-event state
// lives in the resolved sync context.
type Engine struct {
	teams     repository.SlackTeams
	orgs      repository.SpaceOrgs
	links     repository.ChannelLinks
	refs      repository.MessageRefs
	directory *DirectoryCache
	sealer    *secrets.Sealer

	newSlackClient SlackClientFactory
	newSpaceClient SpaceClientFactory
}

func NewEngine(
	teams repository.SlackTeams,
	orgs repository.SpaceOrgs,
	links repository.ChannelLinks,
	refs repository.MessageRefs,
	directory *DirectoryCache,
	sealer *secrets.Sealer,
	newSlackClient SlackClientFactory,
	newSpaceClient SpaceClientFactory,
) *Engine {
	return &Engine{
		teams:          teams,
		orgs:           orgs,
		links:          links,
		refs:           refs,
		directory:      directory,
		sealer:         sealer,
		newSlackClient: newSlackClient,
		newSpaceClient: newSpaceClient,
	}
}

// HandleSlackEvent processes one classified Slack event to completion.
// Events that cannot be synced are skipped, not retried; webhook
// deliveries are at-least-once and Slack redelivers on slow responses.
func (e *Engine) HandleSlackEvent(ctx context.Context, event slack.Event) error {
	log := logger.FromContext(ctx)

	switch evt := event.(type) {
	case slack.MessageCreated:
		return e.syncSlackCreate(ctx, evt)
	case slack.MessageUpdated:
		return e.syncSlackUpdate(ctx, evt)
	case slack.MessageDeleted:
		return e.syncSlackDelete(ctx, evt)
	case slack.ChannelJoin:
		return e.syncSlackJoin(ctx, evt)
	case slack.ChannelLeave:
		log.Debug(LogMsgSkipChannelLeave, "team_id", evt.TeamID, "channel_id", evt.ChannelID)
		recordSkip(metrics.DirectionSlackToSpace, OperationCreate)
		return nil
	case slack.TeamDomainChanged:
		return e.teams.UpdateDomain(ctx, evt.TeamID, evt.NewDomain)
	case slack.AppUninstalled:
		log.Info(LogMsgAppUninstalled, "team_id", evt.TeamID)
		return e.teams.MarkTokenInvalid(ctx, evt.TeamID)
	case slack.DirectoryInvalidated:
		log.Debug(LogMsgDirectoryInvalidated, "team_id", evt.TeamID, "event_type", evt.EventType)
		return e.directory.Invalidate(ctx, evt.TeamID)
	case slack.SelfPost:
		log.Debug(LogMsgSkipSelfPost, "team_id", evt.TeamID)
		return nil
	case slack.Unrecognized:
		log.Debug(LogMsgSkipUnrecognized, "event_type", evt.EventType)
		return nil
	default:
		return fmt.Errorf("unhandled slack event type %T", event)
	}
}

// HandleSpaceEvent processes one classified Space event to completion.
func (e *Engine) HandleSpaceEvent(ctx context.Context, event space.Event) error {
	log := logger.FromContext(ctx)

	switch evt := event.(type) {
	case space.InstallRequested:
		return e.handleSpaceInstall(ctx, evt)
	case space.MessageCreated:
		return e.syncSpaceCreate(ctx, evt)
	case space.MessageUpdated:
		return e.syncSpaceUpdate(ctx, evt)
	case space.MessageDeleted:
		return e.syncSpaceDelete(ctx, evt)
	case space.Unrecognized:
		log.Debug(LogMsgSkipUnrecognized, "class_name", evt.ClassName)
		return nil
	default:
		return fmt.Errorf("unhandled space event type %T", event)
	}
}

// handleSpaceInstall persists the organization's credentials and
// registers the app's UI surface and permission requests with it.
func (e *Engine) handleSpaceInstall(ctx context.Context, evt space.InstallRequested) error {
	log := logger.FromContext(ctx)

	sealedSecret, err := e.sealer.SealString(evt.ClientSecret)
	if err != nil {
		return fmt.Errorf("failed to seal client secret: %w", err)
	}
	org := domain.SpaceOrg{
		ClientID:     evt.ClientID,
		ClientSecret: sealedSecret,
		ServerURL:    evt.ServerURL,
	}
	if err := e.orgs.Save(ctx, org); err != nil {
		return fmt.Errorf("failed to save space org: %w", err)
	}

	client, err := e.newSpaceClient(&org)
	if err != nil {
		return fmt.Errorf("failed to create space client: %w", err)
	}
	if err := client.RegisterUIExtension(ctx); err != nil {
		return fmt.Errorf("failed to register ui extension: %w", err)
	}
	if err := client.RequestRights(ctx); err != nil {
		return fmt.Errorf("failed to request rights: %w", err)
	}

	log.Info(LogMsgOrgInstalled, "client_id", evt.ClientID, "server_url", evt.ServerURL)
	return nil
}

func recordSynced(direction, operation string) {
	metrics.SyncOperations.WithLabelValues(direction, operation, metrics.OutcomeSynced).Inc()
}

func recordSkip(direction, operation string) {
	metrics.SyncOperations.WithLabelValues(direction, operation, metrics.OutcomeSkipped).Inc()
}

func recordFailure(direction, operation string) {
	metrics.SyncOperations.WithLabelValues(direction, operation, metrics.OutcomeFailed).Inc()
}
