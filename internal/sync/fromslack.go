package sync

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/syncapps/chanbridge/internal/domain"
	"github.com/syncapps/chanbridge/internal/logger"
	"github.com/syncapps/chanbridge/internal/metrics"
	"github.com/syncapps/chanbridge/internal/slack"
	"github.com/syncapps/chanbridge/internal/space"
	"github.com/syncapps/chanbridge/internal/translate"
)

func (e *Engine) syncSlackCreate(ctx context.Context, evt slack.MessageCreated) error {
	log := logger.FromContext(ctx)

	sctx, err := e.slackContext(ctx, evt.TeamID, evt.ChannelID)
	if err != nil {
		recordFailure(metrics.DirectionSlackToSpace, OperationCreate)
		return err
	}
	if sctx == nil {
		recordSkip(metrics.DirectionSlackToSpace, OperationCreate)
		return nil
	}

	channel, ok, err := e.spaceChannelFor(ctx, sctx, evt.ThreadID, evt.MessageID)
	if err != nil {
		recordFailure(metrics.DirectionSlackToSpace, OperationCreate)
		return err
	}
	if !ok {
		recordSkip(metrics.DirectionSlackToSpace, OperationCreate)
		return nil
	}

	author, content, err := e.authorAndContent(ctx, sctx, evt.Content)
	if err != nil {
		recordFailure(metrics.DirectionSlackToSpace, OperationCreate)
		return err
	}

	attachments := e.slackAttachmentsToSpace(ctx, sctx, evt.Content.Files)

	err = sctx.spaceAPI.ImportMessages(ctx, channel, []space.ImportMessage{{
		Type:         space.ImportCreate,
		ExternalID:   evt.MessageID,
		Message:      content,
		Author:       author,
		CreatedAtUtc: tsToUTCMillis(evt.MessageID),
		Attachments:  attachments,
	}}, false)
	if err != nil {
		recordFailure(metrics.DirectionSlackToSpace, OperationCreate)
		return fmt.Errorf("failed to import message: %w", err)
	}

	// Thread roots are addressed by internal id later; resolve it now
	// while the imported message is certainly present.
	if imported, err := sctx.spaceAPI.GetMessageByExternalID(ctx, sctx.link.SpaceChannelID, evt.MessageID); err == nil && imported != nil {
		if err := e.refs.SetIfAbsent(ctx, sctx.link.SlackTeamID, evt.MessageID, imported.ID); err != nil {
			log.Warn("failed to save message record", "error", err)
		}
	}

	recordSynced(metrics.DirectionSlackToSpace, OperationCreate)
	log.Debug(LogMsgMessageSynced, "team_id", evt.TeamID, "message_id", evt.MessageID)
	return nil
}

func (e *Engine) syncSlackUpdate(ctx context.Context, evt slack.MessageUpdated) error {
	log := logger.FromContext(ctx)

	sctx, err := e.slackContext(ctx, evt.TeamID, evt.ChannelID)
	if err != nil {
		recordFailure(metrics.DirectionSlackToSpace, OperationUpdate)
		return err
	}
	if sctx == nil {
		recordSkip(metrics.DirectionSlackToSpace, OperationUpdate)
		return nil
	}

	channel, ok, err := e.spaceChannelFor(ctx, sctx, evt.ThreadID, evt.MessageID)
	if err != nil {
		recordFailure(metrics.DirectionSlackToSpace, OperationUpdate)
		return err
	}
	if !ok {
		recordSkip(metrics.DirectionSlackToSpace, OperationUpdate)
		return nil
	}

	author, content, err := e.authorAndContent(ctx, sctx, evt.Content)
	if err != nil {
		recordFailure(metrics.DirectionSlackToSpace, OperationUpdate)
		return err
	}

	attachments := e.slackAttachmentsToSpace(ctx, sctx, evt.Content.Files)

	err = sctx.spaceAPI.ImportMessages(ctx, channel, []space.ImportMessage{{
		Type:        space.ImportUpdate,
		ExternalID:  evt.MessageID,
		Message:     content,
		Author:      author,
		EditedAtUtc: tsToUTCMillis(evt.EditedTS),
		Attachments: attachments,
	}}, false)
	if err != nil {
		recordFailure(metrics.DirectionSlackToSpace, OperationUpdate)
		return fmt.Errorf("failed to import message update: %w", err)
	}

	recordSynced(metrics.DirectionSlackToSpace, OperationUpdate)
	log.Debug(LogMsgMessageSynced, "team_id", evt.TeamID, "message_id", evt.MessageID)
	return nil
}

func (e *Engine) syncSlackDelete(ctx context.Context, evt slack.MessageDeleted) error {
	log := logger.FromContext(ctx)

	sctx, err := e.slackContext(ctx, evt.TeamID, evt.ChannelID)
	if err != nil {
		recordFailure(metrics.DirectionSlackToSpace, OperationDelete)
		return err
	}
	if sctx == nil {
		recordSkip(metrics.DirectionSlackToSpace, OperationDelete)
		return nil
	}

	channel, ok, err := e.spaceChannelFor(ctx, sctx, evt.ThreadID, evt.MessageID)
	if err != nil {
		recordFailure(metrics.DirectionSlackToSpace, OperationDelete)
		return err
	}
	if !ok {
		recordSkip(metrics.DirectionSlackToSpace, OperationDelete)
		return nil
	}

	ref, err := e.refs.GetBySlackMessage(ctx, sctx.link.SlackTeamID, evt.MessageID)
	if err != nil && !errors.Is(err, domain.ErrRefNotFound) {
		recordFailure(metrics.DirectionSlackToSpace, OperationDelete)
		return fmt.Errorf("failed to load message record: %w", err)
	}
	if ref != nil && ref.Deleted {
		log.Debug(LogMsgSkipAlreadyDeleted, "message_id", evt.MessageID)
		recordSkip(metrics.DirectionSlackToSpace, OperationDelete)
		return nil
	}

	err = sctx.spaceAPI.ImportMessages(ctx, channel, []space.ImportMessage{{
		Type:       space.ImportDelete,
		ExternalID: evt.MessageID,
	}}, false)
	if err != nil {
		recordFailure(metrics.DirectionSlackToSpace, OperationDelete)
		return fmt.Errorf("failed to import message deletion: %w", err)
	}

	if err := e.refs.MarkDeletedBySlackMessage(ctx, sctx.link.SlackTeamID, evt.MessageID); err != nil {
		recordFailure(metrics.DirectionSlackToSpace, OperationDelete)
		return fmt.Errorf("failed to mark message deleted: %w", err)
	}

	recordSynced(metrics.DirectionSlackToSpace, OperationDelete)
	log.Debug(LogMsgMessageDeleted, "team_id", evt.TeamID, "message_id", evt.MessageID)
	return nil
}

// syncSlackJoin imports a membership notice. Joins without an inviter
// are not propagated, matching the destination's own join semantics.
func (e *Engine) syncSlackJoin(ctx context.Context, evt slack.ChannelJoin) error {
	log := logger.FromContext(ctx)

	if evt.InvitedByID == "" {
		log.Debug(LogMsgSkipJoinNoInviter, "team_id", evt.TeamID, "channel_id", evt.ChannelID)
		recordSkip(metrics.DirectionSlackToSpace, OperationJoin)
		return nil
	}

	sctx, err := e.slackContext(ctx, evt.TeamID, evt.ChannelID)
	if err != nil {
		recordFailure(metrics.DirectionSlackToSpace, OperationJoin)
		return err
	}
	if sctx == nil {
		recordSkip(metrics.DirectionSlackToSpace, OperationJoin)
		return nil
	}

	joinedUser, joinedProfile, err := sctx.spaceProfileForSlackUser(ctx, evt.JoinedUserID)
	if err != nil {
		recordFailure(metrics.DirectionSlackToSpace, OperationJoin)
		return err
	}
	if joinedUser == nil {
		log.Debug("skipping join: cannot retrieve joining user", "user_id", evt.JoinedUserID)
		recordSkip(metrics.DirectionSlackToSpace, OperationJoin)
		return nil
	}

	author := &space.AuthorIn{Application: true}
	joinedText := joinedUser.NameToUse()
	if joinedProfile != nil {
		author = &space.AuthorIn{ProfileID: joinedProfile.ID}
		joinedText = "@" + joinedProfile.Username
	}

	var inviterText string
	if inviter, inviterProfile, err := sctx.spaceProfileForSlackUser(ctx, evt.InvitedByID); err == nil && inviter != nil {
		if inviterProfile != nil {
			inviterText = "@" + inviterProfile.Username
		} else {
			inviterText = inviter.Profile.RealName
		}
	}

	channel, err := sctx.slackAPI.GetChannelInfo(ctx, evt.ChannelID)
	if err != nil || channel == nil {
		log.Debug("skipping join: cannot retrieve joined channel", "channel_id", evt.ChannelID)
		recordSkip(metrics.DirectionSlackToSpace, OperationJoin)
		return err
	}

	channelLink := fmt.Sprintf("[#%s](https://slack.com/app_redirect?channel=%s)", channel.Name, evt.ChannelID)
	var text string
	if inviterText == "" {
		text = fmt.Sprintf("%s joined %s channel in Slack", joinedText, channelLink)
	} else {
		action := "invited"
		if joinedUser.BotID != "" {
			action = "added"
		}
		text = fmt.Sprintf("%s was %s by %s to %s channel in Slack", joinedText, action, inviterText, channelLink)
	}

	err = sctx.spaceAPI.ImportMessages(ctx,
		space.ChannelIdentifier{ChannelID: sctx.link.SpaceChannelID},
		[]space.ImportMessage{{
			Type:         space.ImportCreate,
			ExternalID:   evt.MessageID,
			Message:      &space.ChatMessage{Text: text},
			Author:       author,
			CreatedAtUtc: tsToUTCMillis(evt.MessageID),
		}}, true)
	if err != nil {
		recordFailure(metrics.DirectionSlackToSpace, OperationJoin)
		return fmt.Errorf("failed to import join message: %w", err)
	}

	recordSynced(metrics.DirectionSlackToSpace, OperationJoin)
	return nil
}

// spaceChannelFor resolves the destination channel or thread for a
// message. For thread replies the Space thread is addressed by the root
// message's internal id: first from the message record store, then by
// asking Space for the imported root. Roots synced by neither are
// unreachable and the reply is skipped.
func (e *Engine) spaceChannelFor(ctx context.Context, sctx *syncContext, threadID, messageID string) (space.ChannelIdentifier, bool, error) {
	if threadID == "" || threadID == messageID {
		return space.ChannelIdentifier{ChannelID: sctx.link.SpaceChannelID}, true, nil
	}

	ref, err := e.refs.GetBySlackMessage(ctx, sctx.link.SlackTeamID, threadID)
	if err == nil && ref != nil {
		return space.ChannelIdentifier{ThreadID: ref.SpaceMessageID}, true, nil
	}
	if err != nil && !errors.Is(err, domain.ErrRefNotFound) {
		return space.ChannelIdentifier{}, false, fmt.Errorf("failed to resolve thread: %w", err)
	}

	if root, err := sctx.spaceAPI.GetMessageByExternalID(ctx, sctx.link.SpaceChannelID, threadID); err == nil && root != nil {
		return space.ChannelIdentifier{ThreadID: root.ID}, true, nil
	}

	logger.FromContext(ctx).Debug(LogMsgSkipThreadUnresolved, "thread_id", threadID)
	return space.ChannelIdentifier{}, false, nil
}

// authorAndContent resolves the message author and renders the content.
// A matched author posts under their own profile; anyone else posts
// under the application identity with a name prefix in the text.
func (e *Engine) authorAndContent(ctx context.Context, sctx *syncContext, content slack.MessageContent) (*space.AuthorIn, *space.ChatMessage, error) {
	var authorPrefix string
	author := &space.AuthorIn{Application: true}

	user, profile, err := sctx.spaceProfileForSlackUser(ctx, content.UserID)
	if err != nil {
		return nil, nil, err
	}
	switch {
	case profile != nil:
		author = &space.AuthorIn{ProfileID: profile.ID}
	case user != nil:
		authorPrefix = user.NameToUse()
	case content.BotProfile != nil:
		authorPrefix = content.BotProfile.Name
	case content.UserID != "":
		authorPrefix = fmt.Sprintf("Unknown (id = %s)", content.UserID)
	default:
		authorPrefix = "Unknown"
	}

	mentions := sctx.resolveMentions(ctx, translate.ExtractMentionedUserIDs(content.Blocks))

	msg := translate.MessageToSpace(ctx, translate.SlackMessageInput{
		Text:         content.Text,
		Blocks:       content.Blocks,
		Fields:       content.Fields,
		Color:        content.Color,
		AuthorPrefix: authorPrefix,
		TeamDomain:   sctx.team.Domain,
		Mentions:     mentions,
		Directory:    &slackDirectory{api: sctx.slackAPI, teamID: sctx.team.ID},
	})
	return author, msg, nil
}

// slackDirectory adapts the engine's client interface to the renderer's
// team-scoped lookup interface.
type slackDirectory struct {
	api    SlackAPI
	teamID string
}

func (d *slackDirectory) GetChannelInfo(ctx context.Context, channelID string) (*slack.Channel, error) {
	return d.api.GetChannelInfo(ctx, channelID)
}

func (d *slackDirectory) GetUserByID(ctx context.Context, userID string) (*slack.User, error) {
	return d.api.GetUserByID(ctx, userID)
}

func (d *slackDirectory) GetTeamInfo(ctx context.Context) (*slack.Team, error) {
	return d.api.GetTeamInfo(ctx, d.teamID)
}

func (d *slackDirectory) ListUsergroups(ctx context.Context) ([]slack.Usergroup, error) {
	return d.api.ListUsergroups(ctx)
}

// tsToUTCMillis converts a Slack message timestamp ("1712345678.000100")
// to epoch milliseconds.
func tsToUTCMillis(ts string) int64 {
	value, err := strconv.ParseInt(strings.ReplaceAll(ts, ".", ""), 10, 64)
	if err != nil {
		return 0
	}
	return value / 1000
}
