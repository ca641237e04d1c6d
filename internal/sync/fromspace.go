package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/syncapps/chanbridge/internal/domain"
	"github.com/syncapps/chanbridge/internal/logger"
	"github.com/syncapps/chanbridge/internal/metrics"
	"github.com/syncapps/chanbridge/internal/slack"
	"github.com/syncapps/chanbridge/internal/space"
	"github.com/syncapps/chanbridge/internal/translate"
)

func (e *Engine) syncSpaceCreate(ctx context.Context, evt space.MessageCreated) error {
	log := logger.FromContext(ctx)

	sctx, message, ok, err := e.spaceMessageContext(ctx, evt.ClientID, evt.ChannelID, evt.ThreadID, evt.MessageID)
	if err != nil {
		recordFailure(metrics.DirectionSpaceToSlack, OperationCreate)
		return err
	}
	if !ok {
		recordSkip(metrics.DirectionSpaceToSlack, OperationCreate)
		return nil
	}

	slackThreadID, ok, err := e.slackThreadFor(ctx, sctx, evt.ThreadID)
	if err != nil {
		recordFailure(metrics.DirectionSpaceToSlack, OperationCreate)
		return err
	}
	if !ok {
		log.Debug(LogMsgSkipThreadUnresolved, "thread_id", evt.ThreadID)
		recordSkip(metrics.DirectionSpaceToSlack, OperationCreate)
		return nil
	}

	text, err := e.renderSpaceMessage(ctx, sctx, message.Text)
	if err != nil {
		recordFailure(metrics.DirectionSpaceToSlack, OperationCreate)
		return err
	}

	blocks := e.spaceAttachmentsToSlack(ctx, sctx, message, text)

	req := slack.PostMessageRequest{
		Channel:  sctx.link.SlackChannelID,
		Text:     text,
		Blocks:   blocks,
		ThreadTS: slackThreadID,
	}

	authorProfile := message.AuthorProfile()
	slackUser, err := sctx.slackUserForSpaceProfile(ctx, authorProfile)
	if err != nil {
		recordFailure(metrics.DirectionSpaceToSlack, OperationCreate)
		return err
	}
	switch {
	case slackUser != nil:
		req.Username = slackUser.Profile.RealName
		req.IconURL = slackUser.Profile.Image48
	case authorProfile != nil:
		req.Username = authorProfile.FullName()
	case message.Author != nil:
		req.Username = message.Author.Name
	}

	resp, err := sctx.slackAPI.PostMessage(ctx, req)
	if err != nil {
		recordFailure(metrics.DirectionSpaceToSlack, OperationCreate)
		return fmt.Errorf("failed to post message: %w", err)
	}

	if ts := resp.MessageTS(); ts != "" {
		if err := e.refs.SetIfAbsent(ctx, sctx.link.SlackTeamID, ts, message.ID); err != nil {
			log.Warn("failed to save message record", "error", err)
		}
	}

	recordSynced(metrics.DirectionSpaceToSlack, OperationCreate)
	log.Debug(LogMsgMessageSynced, "client_id", evt.ClientID, "message_id", evt.MessageID)
	return nil
}

func (e *Engine) syncSpaceUpdate(ctx context.Context, evt space.MessageUpdated) error {
	log := logger.FromContext(ctx)

	sctx, message, ok, err := e.spaceMessageContext(ctx, evt.ClientID, evt.ChannelID, evt.ThreadID, evt.MessageID)
	if err != nil {
		recordFailure(metrics.DirectionSpaceToSlack, OperationUpdate)
		return err
	}
	if !ok {
		recordSkip(metrics.DirectionSpaceToSlack, OperationUpdate)
		return nil
	}

	ref, err := e.refs.GetBySpaceMessage(ctx, sctx.link.SlackTeamID, evt.MessageID)
	if err != nil {
		if errors.Is(err, domain.ErrRefNotFound) {
			log.Warn(LogMsgSkipEditUnknown, "message_id", evt.MessageID)
			recordSkip(metrics.DirectionSpaceToSlack, OperationUpdate)
			return nil
		}
		recordFailure(metrics.DirectionSpaceToSlack, OperationUpdate)
		return fmt.Errorf("failed to load message record: %w", err)
	}

	text, err := e.renderSpaceMessage(ctx, sctx, message.Text)
	if err != nil {
		recordFailure(metrics.DirectionSpaceToSlack, OperationUpdate)
		return err
	}

	blocks := e.spaceAttachmentsToSlack(ctx, sctx, message, text)

	err = sctx.slackAPI.UpdateMessage(ctx, slack.UpdateMessageRequest{
		Channel: sctx.link.SlackChannelID,
		TS:      ref.SlackMessageID,
		Text:    text,
		Blocks:  blocks,
	})
	if err != nil {
		recordFailure(metrics.DirectionSpaceToSlack, OperationUpdate)
		return fmt.Errorf("failed to update message: %w", err)
	}

	recordSynced(metrics.DirectionSpaceToSlack, OperationUpdate)
	log.Debug(LogMsgMessageSynced, "client_id", evt.ClientID, "message_id", evt.MessageID)
	return nil
}

func (e *Engine) syncSpaceDelete(ctx context.Context, evt space.MessageDeleted) error {
	log := logger.FromContext(ctx)

	sctx, err := e.spaceContext(ctx, evt.ClientID, evt.ChannelID)
	if err != nil {
		recordFailure(metrics.DirectionSpaceToSlack, OperationDelete)
		return err
	}
	if sctx == nil {
		recordSkip(metrics.DirectionSpaceToSlack, OperationDelete)
		return nil
	}

	ref, err := e.refs.GetBySpaceMessage(ctx, sctx.link.SlackTeamID, evt.MessageID)
	if err != nil {
		if errors.Is(err, domain.ErrRefNotFound) {
			log.Debug(LogMsgSkipNoRef, "message_id", evt.MessageID)
			recordSkip(metrics.DirectionSpaceToSlack, OperationDelete)
			return nil
		}
		recordFailure(metrics.DirectionSpaceToSlack, OperationDelete)
		return fmt.Errorf("failed to load message record: %w", err)
	}
	if ref.Deleted {
		log.Debug(LogMsgSkipAlreadyDeleted, "message_id", evt.MessageID)
		recordSkip(metrics.DirectionSpaceToSlack, OperationDelete)
		return nil
	}

	if err := sctx.slackAPI.DeleteMessage(ctx, sctx.link.SlackChannelID, ref.SlackMessageID); err != nil {
		recordFailure(metrics.DirectionSpaceToSlack, OperationDelete)
		return fmt.Errorf("failed to delete message: %w", err)
	}

	if err := e.refs.MarkDeletedBySpaceMessage(ctx, sctx.link.SlackTeamID, evt.MessageID); err != nil {
		recordFailure(metrics.DirectionSpaceToSlack, OperationDelete)
		return fmt.Errorf("failed to mark message deleted: %w", err)
	}

	recordSynced(metrics.DirectionSpaceToSlack, OperationDelete)
	log.Debug(LogMsgMessageDeleted, "client_id", evt.ClientID, "message_id", evt.MessageID)
	return nil
}

// spaceMessageContext resolves the sync context and fetches the full
// message record, applying the two guards that prevent echo loops:
// messages carrying an external id were imported by this bridge, and
// application-generated content is not synced.
func (e *Engine) spaceMessageContext(ctx context.Context, clientID, channelID, threadID, messageID string) (*syncContext, *space.ChannelItemRecord, bool, error) {
	log := logger.FromContext(ctx)

	sctx, err := e.spaceContext(ctx, clientID, channelID)
	if err != nil {
		return nil, nil, false, err
	}
	if sctx == nil {
		return nil, nil, false, nil
	}

	// messages inside a thread live in the thread's own channel
	recordChannelID := channelID
	if threadID != "" {
		recordChannelID = threadID
	}
	message, err := sctx.spaceAPI.GetMessage(ctx, recordChannelID, messageID)
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to fetch message: %w", err)
	}

	if message.ExternalID != "" {
		log.Debug(LogMsgSkipImported, "message_id", messageID)
		return nil, nil, false, nil
	}
	if !message.IsTextMessage() {
		log.Debug(LogMsgSkipNotText, "message_id", messageID)
		return nil, nil, false, nil
	}

	return sctx, message, true, nil
}

// slackThreadFor maps a Space thread to the Slack thread root ts. The
// root's external id is the Slack ts directly when the root came from
// Slack; otherwise the message record store has the pairing. Roots known
// to neither were never synced, so the reply has nowhere to land.
func (e *Engine) slackThreadFor(ctx context.Context, sctx *syncContext, threadID string) (string, bool, error) {
	if threadID == "" {
		return "", true, nil
	}

	root, err := sctx.spaceAPI.GetThreadRoot(ctx, threadID)
	if err != nil {
		return "", false, fmt.Errorf("failed to fetch thread root: %w", err)
	}
	if root == nil {
		return "", false, nil
	}
	if root.ExternalID != "" {
		return root.ExternalID, true, nil
	}

	ref, err := e.refs.GetBySpaceMessage(ctx, sctx.link.SlackTeamID, root.ID)
	if err != nil {
		if errors.Is(err, domain.ErrRefNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to resolve thread: %w", err)
	}
	return ref.SlackMessageID, true, nil
}

// renderSpaceMessage parses the message markdown and renders it as
// mrkdwn with mentions substituted for matched members.
func (e *Engine) renderSpaceMessage(ctx context.Context, sctx *syncContext, text string) (string, error) {
	doc, err := sctx.spaceAPI.ParseMarkdown(ctx, text)
	if err != nil {
		return "", fmt.Errorf("failed to parse message markdown: %w", err)
	}
	names := sctx.resolveProfileNames(ctx, translate.ExtractProfileIDs(doc))
	return translate.MessageToSlack(doc, names), nil
}
