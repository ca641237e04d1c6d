package sync

import (
	"context"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/syncapps/chanbridge/internal/logger"
	"github.com/syncapps/chanbridge/internal/metrics"
	"github.com/syncapps/chanbridge/internal/slack"
	"github.com/syncapps/chanbridge/internal/space"
)

// slackAttachmentsToSpace copies message files into Space uploads and
// returns attachment references for the import call. A failed transfer
// drops that attachment, never the message.
func (e *Engine) slackAttachmentsToSpace(ctx context.Context, sctx *syncContext, files []slack.File) []space.AttachmentIn {
	log := logger.FromContext(ctx)

	var attachments []space.AttachmentIn
	for _, file := range files {
		if file.URLPrivateDownload == "" {
			log.Warn(LogMsgAttachmentSkipped, "file_id", file.ID, "reason", "no download url")
			continue
		}

		data, err := sctx.slackAPI.DownloadFile(ctx, file.URLPrivateDownload)
		if err != nil {
			log.Warn(LogMsgAttachmentSkipped, "file_id", file.ID, "error", err)
			continue
		}

		uploadPath, err := sctx.spaceAPI.CreateUpload(ctx)
		if err != nil {
			log.Warn(LogMsgAttachmentSkipped, "file_id", file.ID, "error", err)
			continue
		}
		attachmentID, err := sctx.spaceAPI.Upload(ctx, uploadPath, file.ID, data)
		if err != nil {
			log.Warn(LogMsgAttachmentSkipped, "file_id", file.ID, "error", err)
			continue
		}

		if strings.HasPrefix(mimetype.Detect(data).String(), "image/") {
			width, _ := file.OriginalWidth.Int64()
			height, _ := file.OriginalHeight.Int64()
			attachments = append(attachments, space.AttachmentIn{
				ClassName: space.ClassImageAttachment,
				ID:        attachmentID,
				Name:      file.Name,
				Width:     int(width),
				Height:    int(height),
			})
		} else {
			attachments = append(attachments, space.AttachmentIn{
				ClassName: space.ClassFileAttachment,
				ID:        attachmentID,
				Name:      file.Name,
				SizeBytes: int64(len(data)),
			})
		}
		metrics.AttachmentTransfers.WithLabelValues(metrics.DirectionSlackToSpace).Inc()
	}
	return attachments
}

// spaceAttachmentsToSlack renders a message's attachments as Slack
// blocks following the message text: images inline by public URL, other
// files registered as remote files first.
func (e *Engine) spaceAttachmentsToSlack(ctx context.Context, sctx *syncContext, message *space.ChannelItemRecord, text string) []any {
	log := logger.FromContext(ctx)

	blocks := []any{
		map[string]any{
			"type": "section",
			"text": map[string]any{"type": "mrkdwn", "text": text},
		},
	}

	for _, attachment := range message.Attachments {
		details := attachment.Details
		if details == nil {
			continue
		}

		publicURL, err := sctx.spaceAPI.GetPublicAttachmentURL(ctx, sctx.link.SpaceChannelID, message.ID, details.ID)
		if err != nil {
			log.Warn(LogMsgAttachmentSkipped, "attachment_id", details.ID, "error", err)
			continue
		}

		switch details.ClassName {
		case space.ClassImageAttachment:
			blocks = append(blocks, map[string]any{
				"type":      "image",
				"title":     map[string]any{"type": "plain_text", "text": details.Name},
				"image_url": publicURL,
				"alt_text":  "",
			})
		case space.ClassVideoAttachment, space.ClassFileAttachment:
			title := details.Filename
			if title == "" {
				title = details.Name
			}
			err := sctx.slackAPI.AddRemoteFile(ctx, slack.FilesRemoteAddRequest{
				ExternalID:  details.ID,
				ExternalURL: publicURL,
				Title:       title,
			})
			if err != nil {
				log.Warn(LogMsgAttachmentSkipped, "attachment_id", details.ID, "error", err)
				continue
			}
			blocks = append(blocks, map[string]any{
				"type":        "file",
				"external_id": details.ID,
				"source":      "remote",
			})
		default:
			continue
		}
		metrics.AttachmentTransfers.WithLabelValues(metrics.DirectionSpaceToSlack).Inc()
	}
	return blocks
}
