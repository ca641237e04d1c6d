package slack

import "encoding/json"

// APIResponse is the envelope every Slack Web API method returns.
type APIResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// OAuthAccessResponse is the oauth.v2.access response for the
// refresh_token grant. Fields may live either at the top level or under
// authed_user depending on the token type.
type OAuthAccessResponse struct {
	APIResponse
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	Team         *Team  `json:"team,omitempty"`
	AuthedUser   *struct {
		AccessToken  string `json:"access_token,omitempty"`
		RefreshToken string `json:"refresh_token,omitempty"`
		ExpiresIn    int64  `json:"expires_in,omitempty"`
		Scope        string `json:"scope,omitempty"`
	} `json:"authed_user,omitempty"`
}

// Team is the workspace record returned by team.info and oauth.v2.access.
type Team struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Domain string `json:"domain,omitempty"`
}

type TeamInfoResponse struct {
	APIResponse
	Team *Team `json:"team,omitempty"`
}

// Channel is a conversations.* channel record.
type Channel struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsIM       bool   `json:"is_im,omitempty"`
	IsArchived bool   `json:"is_archived,omitempty"`
	User       string `json:"user,omitempty"`
}

type ConversationsInfoResponse struct {
	APIResponse
	Channel *Channel `json:"channel,omitempty"`
}

type ConversationsListResponse struct {
	APIResponse
	Channels         []Channel `json:"channels,omitempty"`
	ResponseMetadata *struct {
		NextCursor string `json:"next_cursor"`
	} `json:"response_metadata,omitempty"`
}

// User is a users.info / users.lookupByEmail member record.
type User struct {
	ID      string      `json:"id"`
	Name    string      `json:"name,omitempty"`
	BotID   string      `json:"bot_id,omitempty"`
	Profile UserProfile `json:"profile"`
}

type UserProfile struct {
	RealName    string `json:"real_name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Image48     string `json:"image_48,omitempty"`
}

// NameToUse returns the best human-readable name for message attribution.
func (u *User) NameToUse() string {
	switch {
	case u.Profile.RealName != "":
		return u.Profile.RealName
	case u.Profile.DisplayName != "":
		return u.Profile.DisplayName
	case u.Profile.Email != "":
		return u.Profile.Email
	default:
		return u.Name
	}
}

type UsersInfoResponse struct {
	APIResponse
	User *User `json:"user,omitempty"`
}

type UsersLookupByEmailResponse struct {
	APIResponse
	User *User `json:"user,omitempty"`
}

// Usergroup is a usergroups.list record.
type Usergroup struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type UsergroupsListResponse struct {
	APIResponse
	Usergroups []Usergroup `json:"usergroups,omitempty"`
}

// PostMessageRequest is the chat.postMessage body. Username and IconURL
// impersonate the original author when posting on someone's behalf.
type PostMessageRequest struct {
	Channel  string `json:"channel"`
	Text     string `json:"text"`
	Blocks   []any  `json:"blocks,omitempty"`
	ThreadTS string `json:"thread_ts,omitempty"`
	Username string `json:"username,omitempty"`
	IconURL  string `json:"icon_url,omitempty"`
}

type UpdateMessageRequest struct {
	Channel string `json:"channel"`
	TS      string `json:"ts"`
	Text    string `json:"text"`
	Blocks  []any  `json:"blocks,omitempty"`
}

type DeleteMessageRequest struct {
	Channel string `json:"channel"`
	TS      string `json:"ts"`
}

type PostMessageResponse struct {
	APIResponse
	TS      string `json:"ts,omitempty"`
	Message *struct {
		TS string `json:"ts"`
	} `json:"message,omitempty"`
}

// MessageTS returns the timestamp ID of the posted message.
func (r *PostMessageResponse) MessageTS() string {
	if r.Message != nil && r.Message.TS != "" {
		return r.Message.TS
	}
	return r.TS
}

type FilesRemoteAddRequest struct {
	ExternalID  string `json:"external_id"`
	ExternalURL string `json:"external_url"`
	Title       string `json:"title"`
}

// File is an uploaded file reference carried on message events.
type File struct {
	ID                 string      `json:"id"`
	Name               string      `json:"name"`
	Filetype           string      `json:"filetype"`
	URLPrivateDownload string      `json:"url_private_download,omitempty"`
	OriginalWidth      json.Number `json:"original_w,omitempty"`
	OriginalHeight     json.Number `json:"original_h,omitempty"`
}

// AttachmentField is a legacy attachment key/value field.
type AttachmentField struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// Attachment is the legacy secondary-content block; bots still send these.
type Attachment struct {
	Color  string            `json:"color,omitempty"`
	Blocks []Block           `json:"blocks,omitempty"`
	Fields []AttachmentField `json:"fields,omitempty"`
}

// BotProfile identifies the bot that authored a message.
type BotProfile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EventEnvelope is the outermost webhook payload.
type EventEnvelope struct {
	Type      string          `json:"type"`
	Challenge string          `json:"challenge,omitempty"`
	TeamID    string          `json:"team_id,omitempty"`
	Event     json.RawMessage `json:"event,omitempty"`
}

// MessageEvent is the `event` object of a message event_callback, including
// the nested message/previous_message carried by edit and delete subtypes.
type MessageEvent struct {
	Type            string        `json:"type"`
	Subtype         string        `json:"subtype,omitempty"`
	Channel         string        `json:"channel"`
	Team            string        `json:"team,omitempty"`
	TS              string        `json:"ts"`
	ThreadTS        string        `json:"thread_ts,omitempty"`
	User            string        `json:"user,omitempty"`
	AppID           string        `json:"app_id,omitempty"`
	Inviter         string        `json:"inviter,omitempty"`
	Text            string        `json:"text,omitempty"`
	Blocks          []Block       `json:"blocks,omitempty"`
	Files           []File        `json:"files,omitempty"`
	Attachments     []Attachment  `json:"attachments,omitempty"`
	BotProfile      *BotProfile   `json:"bot_profile,omitempty"`
	Message         *MessageEvent `json:"message,omitempty"`
	PreviousMessage *MessageEvent `json:"previous_message,omitempty"`
}

// TeamChangeEvent covers team_domain_change and the channel lifecycle
// events that only need the team scope.
type TeamChangeEvent struct {
	Type   string `json:"type"`
	Domain string `json:"domain,omitempty"`
}

// Block is a layout block. rich_text blocks carry translatable content,
// section blocks carry key/value fields; the rest are passed over.
type Block struct {
	Type     string            `json:"type"`
	Elements []RichTextElement `json:"elements,omitempty"`
	Fields   []TextObject      `json:"fields,omitempty"`
}

// TextObject is a composition text fragment on section blocks.
type TextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TextStyle is the inline style object on rich text section elements.
type TextStyle struct {
	Bold   bool `json:"bold,omitempty"`
	Italic bool `json:"italic,omitempty"`
	Strike bool `json:"strike,omitempty"`
	Code   bool `json:"code,omitempty"`
}

// RichTextElement is a node of Slack's rich text tree. The wire format
// overloads the `style` key: a string on list containers ("bullet",
// "ordered"), an object on inline elements. UnmarshalJSON untangles the
// two into ListStyle and Style.
type RichTextElement struct {
	Type        string
	Elements    []RichTextElement
	Indent      int
	Border      int
	ListStyle   string
	Style       *TextStyle
	Text        string
	URL         string
	UserID      string
	ChannelID   string
	TeamID      string
	UsergroupID string
	Timestamp   string
	Range       string
	Name        string
}

// Rich text element type discriminators
const (
	RTSection      = "rich_text_section"
	RTList         = "rich_text_list"
	RTPreformatted = "rich_text_preformatted"
	RTQuote        = "rich_text_quote"
	RTText         = "text"
	RTUser         = "user"
	RTChannel      = "channel"
	RTLink         = "link"
	RTTeam         = "team"
	RTUsergroup    = "usergroup"
	RTDate         = "date"
	RTBroadcast    = "broadcast"
	RTEmoji        = "emoji"

	BlockTypeRichText = "rich_text"
	BlockTypeSection  = "section"

	ListStyleOrdered = "ordered"
)

func (e *RichTextElement) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type        string            `json:"type"`
		Elements    []RichTextElement `json:"elements"`
		Indent      int               `json:"indent"`
		Border      int               `json:"border"`
		Style       json.RawMessage   `json:"style"`
		Text        string            `json:"text"`
		URL         string            `json:"url"`
		UserID      string            `json:"user_id"`
		ChannelID   string            `json:"channel_id"`
		TeamID      string            `json:"team_id"`
		UsergroupID string            `json:"usergroup_id"`
		Timestamp   json.Number       `json:"timestamp"`
		Range       string            `json:"range"`
		Name        string            `json:"name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	e.Type = raw.Type
	e.Elements = raw.Elements
	e.Indent = raw.Indent
	e.Border = raw.Border
	e.Text = raw.Text
	e.URL = raw.URL
	e.UserID = raw.UserID
	e.ChannelID = raw.ChannelID
	e.TeamID = raw.TeamID
	e.UsergroupID = raw.UsergroupID
	e.Timestamp = raw.Timestamp.String()
	e.Range = raw.Range
	e.Name = raw.Name

	if len(raw.Style) > 0 {
		if raw.Style[0] == '"' {
			if err := json.Unmarshal(raw.Style, &e.ListStyle); err != nil {
				return err
			}
		} else if raw.Style[0] == '{' {
			e.Style = &TextStyle{}
			if err := json.Unmarshal(raw.Style, e.Style); err != nil {
				return err
			}
		}
	}
	return nil
}
