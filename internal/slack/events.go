package slack

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/syncapps/chanbridge/internal/domain"
)

// VerifySignature checks the webhook HMAC: SHA-256 over
// "v0:<timestamp>:<body>" keyed with the signing secret, compared in
// constant time against the submitted "v0=<hex>" signature.
func VerifySignature(signingSecret, timestamp string, body []byte, signature string) error {
	if timestamp == "" || signature == "" {
		return fmt.Errorf("%w: %s", domain.ErrBadSignature, domain.ErrMsgMissingHeaders)
	}

	mac := hmac.New(sha256.New, []byte(signingSecret))
	fmt.Fprintf(mac, "%s:%s:", signatureVersion, timestamp)
	mac.Write(body)
	expected := signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return domain.ErrBadSignature
	}
	return nil
}

// Event is the closed set of classified Slack webhook events. Adding a
// kind without handling it in the dispatcher trips the exhaustiveness
// check there.
type Event interface {
	slackEvent()
}

// MessageContent carries the translatable payload shared by created and
// updated messages. Attachment blocks and fields are already merged in.
type MessageContent struct {
	Text       string
	Blocks     []Block
	Fields     []AttachmentField
	Files      []File
	Color      string
	BotProfile *BotProfile
	UserID     string
}

type MessageCreated struct {
	TeamID    string
	ChannelID string
	MessageID string
	ThreadID  string
	Content   MessageContent
}

type MessageUpdated struct {
	TeamID    string
	ChannelID string
	MessageID string
	ThreadID  string
	EditedTS  string
	Content   MessageContent
}

type MessageDeleted struct {
	TeamID    string
	ChannelID string
	MessageID string
	ThreadID  string
	UserID    string
}

type ChannelJoin struct {
	TeamID       string
	ChannelID    string
	MessageID    string
	JoinedUserID string
	InvitedByID  string
}

type ChannelLeave struct {
	TeamID     string
	ChannelID  string
	MessageID  string
	LeftUserID string
}

type TeamDomainChanged struct {
	TeamID    string
	NewDomain string
}

type AppUninstalled struct {
	TeamID string
}

// DirectoryInvalidated covers channel_created/deleted/archive/unarchive:
// anything that makes the cached channel list stale for one team.
type DirectoryInvalidated struct {
	TeamID    string
	EventType string
}

// SelfPost marks an event authored by this application; the dispatcher
// drops it before any translation to avoid sync loops.
type SelfPost struct {
	TeamID string
}

// Unrecognized is a payload shape we do not process. Logged and dropped,
// never an error.
type Unrecognized struct {
	EventType string
}

func (MessageCreated) slackEvent()       {}
func (MessageUpdated) slackEvent()       {}
func (MessageDeleted) slackEvent()       {}
func (ChannelJoin) slackEvent()          {}
func (ChannelLeave) slackEvent()         {}
func (TeamDomainChanged) slackEvent()    {}
func (AppUninstalled) slackEvent()       {}
func (DirectoryInvalidated) slackEvent() {}
func (SelfPost) slackEvent()             {}
func (Unrecognized) slackEvent()         {}

// Classifier turns raw event_callback payloads into typed events.
type Classifier struct {
	selfAppID string
}

func NewClassifier(selfAppID string) *Classifier {
	return &Classifier{selfAppID: selfAppID}
}

// Classify parses a verified event_callback body into a typed event.
// Malformed payloads come back as Unrecognized, not as errors: most of
// what a workspace emits is irrelevant to syncing.
func (c *Classifier) Classify(body []byte) (Event, error) {
	var envelope EventEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse event envelope: %w", err)
	}
	if len(envelope.Event) == 0 {
		return Unrecognized{}, nil
	}

	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(envelope.Event, &probe); err != nil {
		return nil, fmt.Errorf("failed to probe event type: %w", err)
	}

	switch probe.Type {
	case EventTypeMessage:
		return c.classifyMessage(envelope)
	case EventTypeTeamDomainChange:
		var evt TeamChangeEvent
		if err := json.Unmarshal(envelope.Event, &evt); err != nil {
			return nil, fmt.Errorf("failed to parse team_domain_change: %w", err)
		}
		return TeamDomainChanged{TeamID: envelope.TeamID, NewDomain: evt.Domain}, nil
	case EventTypeAppUninstalled:
		return AppUninstalled{TeamID: envelope.TeamID}, nil
	case EventTypeChannelCreated, EventTypeChannelDeleted, EventTypeChannelArchive, EventTypeChannelUnarchive:
		return DirectoryInvalidated{TeamID: envelope.TeamID, EventType: probe.Type}, nil
	default:
		return Unrecognized{EventType: probe.Type}, nil
	}
}

func (c *Classifier) classifyMessage(envelope EventEnvelope) (Event, error) {
	var evt MessageEvent
	if err := json.Unmarshal(envelope.Event, &evt); err != nil {
		return nil, fmt.Errorf("failed to parse message event: %w", err)
	}

	if c.isSelfPost(&evt) {
		return SelfPost{TeamID: envelope.TeamID}, nil
	}

	switch messageKind(&evt) {
	case kindDeleted:
		prev := evt.PreviousMessage
		if prev == nil && evt.Subtype == SubtypeMessageChanged {
			prev = evt.Message
		}
		if prev == nil {
			return Unrecognized{EventType: EventTypeMessage}, nil
		}
		return MessageDeleted{
			TeamID:    firstNonEmpty(prev.Team, envelope.TeamID),
			ChannelID: evt.Channel,
			MessageID: prev.TS,
			ThreadID:  prev.ThreadTS,
			UserID:    prev.User,
		}, nil

	case kindEdited:
		if evt.Message == nil || evt.PreviousMessage == nil {
			return Unrecognized{EventType: EventTypeMessage}, nil
		}
		updated := evt.Message
		prev := evt.PreviousMessage
		return MessageUpdated{
			TeamID:    firstNonEmpty(updated.Team, prev.Team, envelope.TeamID),
			ChannelID: evt.Channel,
			MessageID: prev.TS,
			ThreadID:  prev.ThreadTS,
			EditedTS:  updated.TS,
			Content:   contentOf(updated),
		}, nil

	case kindChannelJoin:
		return ChannelJoin{
			TeamID:       envelope.TeamID,
			ChannelID:    evt.Channel,
			MessageID:    evt.TS,
			JoinedUserID: evt.User,
			InvitedByID:  evt.Inviter,
		}, nil

	case kindChannelLeave:
		return ChannelLeave{
			TeamID:     envelope.TeamID,
			ChannelID:  evt.Channel,
			MessageID:  evt.TS,
			LeftUserID: evt.User,
		}, nil

	default:
		return MessageCreated{
			TeamID:    firstNonEmpty(evt.Team, envelope.TeamID),
			ChannelID: evt.Channel,
			MessageID: evt.TS,
			ThreadID:  evt.ThreadTS,
			Content:   contentOf(&evt),
		}, nil
	}
}

// isSelfPost matches the authoring app id at either the event level or,
// for edits, on the nested message.
func (c *Classifier) isSelfPost(evt *MessageEvent) bool {
	if c.selfAppID == "" {
		return false
	}
	appID := evt.AppID
	if appID == "" && evt.Message != nil {
		appID = evt.Message.AppID
	}
	return appID == c.selfAppID
}

type kind int

const (
	kindNew kind = iota
	kindEdited
	kindDeleted
	kindChannelJoin
	kindChannelLeave
)

// messageKind applies the subtype rules: message_deleted is a delete,
// message_changed is an edit unless the nested message is a tombstone
// (Slack's rendering of "deleted but replies remain"), channel_join and
// channel_leave are membership events, anything else is a new message.
func messageKind(evt *MessageEvent) kind {
	switch evt.Subtype {
	case SubtypeMessageDeleted:
		return kindDeleted
	case SubtypeMessageChanged:
		if evt.Message != nil && evt.Message.Subtype == SubtypeTombstone {
			return kindDeleted
		}
		return kindEdited
	case SubtypeChannelJoin:
		return kindChannelJoin
	case SubtypeChannelLeave:
		return kindChannelLeave
	default:
		return kindNew
	}
}

// contentOf merges the message's own blocks with blocks and fields carried
// by legacy attachments, matching how the message renders in Slack.
func contentOf(evt *MessageEvent) MessageContent {
	content := MessageContent{
		Text:       evt.Text,
		Blocks:     evt.Blocks,
		Files:      evt.Files,
		BotProfile: evt.BotProfile,
		UserID:     evt.User,
	}
	for i, att := range evt.Attachments {
		if i == 0 {
			content.Color = att.Color
		}
		content.Blocks = append(content.Blocks, att.Blocks...)
		content.Fields = append(content.Fields, att.Fields...)
	}
	return content
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
