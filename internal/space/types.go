package space

import "encoding/json"

// PayloadEnvelope is the outer application payload delivered to the
// webhook endpoint. The className discriminates install handshakes from
// webhook event deliveries.
type PayloadEnvelope struct {
	ClassName    string          `json:"className"`
	ClientID     string          `json:"clientId,omitempty"`
	ClientSecret string          `json:"clientSecret,omitempty"`
	ServerURL    string          `json:"serverUrl,omitempty"`
	UserID       string          `json:"userId,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

// WebhookEventPayload wraps one chat message event.
type WebhookEventPayload struct {
	ClassName string       `json:"className"`
	ChannelID string       `json:"channelId"`
	ThreadID  string       `json:"threadId,omitempty"`
	Message   *MessageInfo `json:"message,omitempty"`
}

// MessageInfo is the brief message record carried on webhook events.
type MessageInfo struct {
	ID string `json:"id"`
}

// ChannelItemRecord is the full message as returned by the messages API.
// ExternalID is non-empty exactly when this bridge imported the message,
// which is what keeps imports from echoing back.
type ChannelItemRecord struct {
	ID          string             `json:"id"`
	ExternalID  string             `json:"externalId,omitempty"`
	Text        string             `json:"text"`
	CreatedAt   int64              `json:"createdAtUtc,omitempty"`
	Author      *Principal         `json:"author,omitempty"`
	Attachments []AttachmentRecord `json:"attachments,omitempty"`
	Details     *struct {
		ClassName string `json:"className"`
	} `json:"details,omitempty"`
}

// AuthorProfile returns the member profile behind the author principal,
// nil for application-authored messages.
func (r *ChannelItemRecord) AuthorProfile() *ProfileRecord {
	if r.Author == nil || r.Author.Details == nil {
		return nil
	}
	return r.Author.Details.User
}

// AttachmentRecord is one attachment on a fetched message.
type AttachmentRecord struct {
	Details *AttachmentDetails `json:"details,omitempty"`
}

type AttachmentDetails struct {
	ClassName string `json:"className"`
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Filename  string `json:"filename,omitempty"`
}

// IsTextMessage reports whether the record is a plain member-authored
// text message. Application-generated message details are not synced.
func (r *ChannelItemRecord) IsTextMessage() bool {
	return r.Details == nil || r.Details.ClassName == "M2TextItemContent"
}

// Principal is a message author reference.
type Principal struct {
	Name    string         `json:"name,omitempty"`
	Details *PrincipalUser `json:"details,omitempty"`
}

type PrincipalUser struct {
	User *ProfileRecord `json:"user,omitempty"`
}

// ProfileRecord is a team directory member profile.
type ProfileRecord struct {
	ID       string         `json:"id"`
	Username string         `json:"username,omitempty"`
	Name     *ProfileName   `json:"name,omitempty"`
	Emails   []ProfileEmail `json:"emails,omitempty"`
}

type ProfileName struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type ProfileEmail struct {
	Email   string `json:"email"`
	Blocked bool   `json:"blocked,omitempty"`
}

// FullName renders "First Last" for attribution.
func (p *ProfileRecord) FullName() string {
	if p.Name == nil {
		return p.Username
	}
	name := p.Name.FirstName
	if p.Name.LastName != "" {
		if name != "" {
			name += " "
		}
		name += p.Name.LastName
	}
	return name
}

// ChannelIdentifier addresses either a channel or a thread inside it.
type ChannelIdentifier struct {
	ChannelID string `json:"channelId,omitempty"`
	ThreadID  string `json:"threadId,omitempty"`
}

// ChatMessage is the message content sent on import: markdown text plus
// optional styled field sections.
type ChatMessage struct {
	Text     string           `json:"text"`
	Sections []MessageSection `json:"sections,omitempty"`
}

// MessageStyle is the section accent style.
type MessageStyle string

const (
	StylePrimary MessageStyle = "PRIMARY"
	StyleSuccess MessageStyle = "SUCCESS"
	StyleWarning MessageStyle = "WARNING"
	StyleError   MessageStyle = "ERROR"
)

// MessageSection is a styled block of key/value fields.
type MessageSection struct {
	Style  MessageStyle   `json:"style,omitempty"`
	Text   string         `json:"text,omitempty"`
	Fields []MessageField `json:"fields,omitempty"`
}

type MessageField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AuthorIn attributes an imported message either to a matched member
// profile or to the application itself.
type AuthorIn struct {
	ProfileID   string `json:"profileId,omitempty"`
	Application bool   `json:"application,omitempty"`
}

// AttachmentIn is an attachment reference on an imported message.
type AttachmentIn struct {
	ClassName string `json:"className"`
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	SizeBytes int64  `json:"sizeBytes,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
}

// ImportMessage is one entry of a message import batch, keyed by the
// source platform's message ID.
type ImportMessage struct {
	Type         string         `json:"type"`
	ExternalID   string         `json:"externalId"`
	Message      *ChatMessage   `json:"message,omitempty"`
	Author       *AuthorIn      `json:"author,omitempty"`
	CreatedAtUtc int64          `json:"createdAtUtc,omitempty"`
	EditedAtUtc  int64          `json:"editedAtUtc,omitempty"`
	Attachments  []AttachmentIn `json:"attachments,omitempty"`
}

type importRequest struct {
	Channel               ChannelIdentifier `json:"channel"`
	Messages              []ImportMessage   `json:"messages"`
	SuppressNotifications bool              `json:"suppressNotifications,omitempty"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// RtDocument is the parsed rich text tree.
type RtDocument struct {
	Children []RtNode `json:"children"`
}

// RtNode is any node of the rich text tree, block or inline; the
// className tells which. A single struct keeps the recursive JSON simple.
type RtNode struct {
	ClassName   string          `json:"className"`
	Children    []RtNode        `json:"children,omitempty"`
	Value       string          `json:"value,omitempty"`
	Marks       []RtMark        `json:"marks,omitempty"`
	Attrs       *RtMentionAttrs `json:"attrs,omitempty"`
	StartNumber int             `json:"startNumber,omitempty"`
	EmojiName   string          `json:"emojiName,omitempty"`
}

// RtMark is an inline formatting mark on a text node.
type RtMark struct {
	ClassName string       `json:"className"`
	Attrs     *RtLinkAttrs `json:"attrs,omitempty"`
}

type RtLinkAttrs struct {
	Href    string         `json:"href,omitempty"`
	Details *RtLinkDetails `json:"details,omitempty"`
}

type RtLinkDetails struct {
	ClassName string `json:"className"`
	ID        string `json:"id,omitempty"`
}

// RtMentionAttrs discriminates profile, team and predefined mentions.
type RtMentionAttrs struct {
	ClassName string `json:"className"`
	ID        string `json:"id,omitempty"`
	UserName  string `json:"userName,omitempty"`
	TeamName  string `json:"teamName,omitempty"`
}

// ProfileID returns the mentioned member's ID for profile mentions,
// empty otherwise.
func (a *RtMentionAttrs) ProfileID() string {
	if a != nil && a.ClassName == ClassRtProfileMentionAttrs {
		return a.ID
	}
	return ""
}

// PlainText is the fallback rendering for a mention with no match on the
// destination side.
func (a *RtMentionAttrs) PlainText() string {
	if a == nil {
		return ""
	}
	switch a.ClassName {
	case ClassRtProfileMentionAttrs:
		return a.UserName
	case ClassRtTeamMentionAttrs:
		return a.TeamName
	default:
		return ""
	}
}

// IsEntityLink reports whether a link mark points at a platform-native
// entity (team, profile, predefined mention) rather than a plain URL;
// these render with mention syntax, not hyperlink syntax.
func (m *RtMark) IsEntityLink() bool {
	if m.Attrs == nil || m.Attrs.Details == nil {
		return false
	}
	switch m.Attrs.Details.ClassName {
	case ClassRtTeamLinkDetails, ClassRtProfileLinkDetails, ClassRtPredefinedMention:
		return true
	}
	return false
}
