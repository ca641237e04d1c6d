package translate

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/syncapps/chanbridge/internal/slack"
	"github.com/syncapps/chanbridge/internal/space"
)

// maxFieldNameLength caps imported field names at the destination's limit.
const maxFieldNameLength = 64

// SlackDirectory supplies the workspace lookups the renderer needs for
// channel, team and usergroup references inside rich text.
type SlackDirectory interface {
	GetChannelInfo(ctx context.Context, channelID string) (*slack.Channel, error)
	GetUserByID(ctx context.Context, userID string) (*slack.User, error)
	GetTeamInfo(ctx context.Context) (*slack.Team, error)
	ListUsergroups(ctx context.Context) ([]slack.Usergroup, error)
}

// UserMention is the destination-side resolution for one mentioned
// member. SpaceUsername is empty when no profile matched by email, in
// which case DisplayName is rendered as inert code text.
type UserMention struct {
	SpaceUsername string
	DisplayName   string
}

// SlackMessageInput carries everything needed to render one message.
// AuthorPrefix is set when the author could not be matched to a member
// profile and the message is imported under the application identity.
type SlackMessageInput struct {
	Text         string
	Blocks       []slack.Block
	Fields       []slack.AttachmentField
	Color        string
	AuthorPrefix string
	TeamDomain   string
	Mentions     map[string]UserMention
	Directory    SlackDirectory
}

// MessageToSpace renders a Slack message as destination chat content.
// Rich text blocks become markdown; section and attachment fields become
// styled field sections colored by the nearest accent match.
func MessageToSpace(ctx context.Context, in SlackMessageInput) *space.ChatMessage {
	var sb strings.Builder
	if in.AuthorPrefix != "" {
		fmt.Fprintf(&sb, "**%s** says:\n", in.AuthorPrefix)
	}
	appendPlainTextPart(ctx, &sb, in)
	text := sb.String()

	sections := fieldSections(in)
	if len(sections) == 0 {
		return &space.ChatMessage{Text: text}
	}

	msg := &space.ChatMessage{}
	if text != "" {
		msg.Sections = append(msg.Sections, space.MessageSection{
			Style: space.StylePrimary,
			Text:  text,
		})
	}
	msg.Sections = append(msg.Sections, sections...)
	return msg
}

// ExtractMentionedUserIDs collects the user IDs referenced anywhere in
// the rich text tree so their profiles can be resolved in one pass.
func ExtractMentionedUserIDs(blocks []slack.Block) []string {
	seen := make(map[string]struct{})
	var ids []string
	var walk func(elements []slack.RichTextElement)
	walk = func(elements []slack.RichTextElement) {
		for _, el := range elements {
			if el.Type == slack.RTUser && el.UserID != "" {
				if _, ok := seen[el.UserID]; !ok {
					seen[el.UserID] = struct{}{}
					ids = append(ids, el.UserID)
				}
			}
			walk(el.Elements)
		}
	}
	for _, block := range blocks {
		if block.Type == slack.BlockTypeRichText {
			walk(block.Elements)
		}
	}
	return ids
}

func appendPlainTextPart(ctx context.Context, sb *strings.Builder, in SlackMessageInput) {
	var richText []slack.RichTextElement
	for _, block := range in.Blocks {
		if block.Type == slack.BlockTypeRichText {
			richText = append(richText, block.Elements...)
		}
	}
	if len(richText) == 0 {
		sb.WriteString(in.Text)
		return
	}
	for _, el := range richText {
		appendElement(ctx, sb, el, in)
	}
}

func appendElement(ctx context.Context, sb *strings.Builder, el slack.RichTextElement, in SlackMessageInput) {
	switch el.Type {
	case slack.RTSection:
		for _, child := range el.Elements {
			appendElement(ctx, sb, child, in)
		}

	case slack.RTList:
		for _, item := range el.Elements {
			sb.WriteString(strings.Repeat("   ", el.Indent))
			if el.ListStyle == slack.ListStyleOrdered {
				sb.WriteString("1. ")
			} else {
				sb.WriteString("* ")
			}
			appendElement(ctx, sb, item, in)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")

	case slack.RTPreformatted:
		sb.WriteString("```\n")
		for _, child := range el.Elements {
			appendElement(ctx, sb, child, in)
		}
		sb.WriteString("\n```\n")

	case slack.RTQuote:
		for _, child := range el.Elements {
			sb.WriteString("> ")
			appendElement(ctx, sb, child, in)
			sb.WriteString("\n\n")
		}

	case slack.RTText:
		appendStyled(sb, el.Style, el.Text)

	case slack.RTChannel:
		if link := channelLink(ctx, el.ChannelID, in); link != "" {
			appendStyled(sb, el.Style, link)
		}

	case slack.RTUser:
		if mention, ok := in.Mentions[el.UserID]; ok {
			if mention.SpaceUsername != "" {
				appendStyled(sb, el.Style, "@"+mention.SpaceUsername)
			} else {
				appendStyled(sb, el.Style, "`@"+mention.DisplayName+"`")
			}
		}

	case slack.RTLink:
		if strings.TrimSpace(el.Text) == "" {
			appendStyled(sb, el.Style, el.URL)
		} else {
			appendStyled(sb, el.Style, "["+el.Text+"]("+el.URL+")")
		}

	case slack.RTTeam:
		if in.Directory != nil {
			if team, err := in.Directory.GetTeamInfo(ctx); err == nil && team != nil {
				appendStyled(sb, el.Style, "`@"+team.Name+"`")
			}
		}

	case slack.RTUsergroup:
		if in.Directory != nil {
			if groups, err := in.Directory.ListUsergroups(ctx); err == nil {
				for _, group := range groups {
					if group.ID == el.UsergroupID {
						sb.WriteString(group.Name)
						break
					}
				}
			}
		}

	case slack.RTDate:
		if sec, err := strconv.ParseInt(el.Timestamp, 10, 64); err == nil {
			sb.WriteString(time.Unix(sec, 0).Format("2006-01-02 15:04"))
		}

	case slack.RTBroadcast:
		sb.WriteString("`@" + el.Range + "`")

	case slack.RTEmoji:
		sb.WriteString(":" + el.Name + ":")
	}
}

// channelLink renders a channel reference as an archive link on the
// team's domain. DMs link with the counterpart's name instead of a
// channel name.
func channelLink(ctx context.Context, channelID string, in SlackMessageInput) string {
	if in.Directory == nil {
		return ""
	}
	channel, err := in.Directory.GetChannelInfo(ctx, channelID)
	if err != nil || channel == nil {
		return ""
	}
	if channel.IsIM {
		user, err := in.Directory.GetUserByID(ctx, channel.User)
		if err != nil || user == nil {
			return ""
		}
		return fmt.Sprintf("[DM with %s](https://%s.slack.com/archives/%s)", user.NameToUse(), in.TeamDomain, channelID)
	}
	if channel.Name == "" {
		return ""
	}
	return fmt.Sprintf("[#%s](https://%s.slack.com/archives/%s)", channel.Name, in.TeamDomain, channelID)
}

// appendStyled wraps trimmed text in style markers. Leading and trailing
// whitespace is hoisted outside the markers; markers around whitespace
// would not parse as formatting on the destination side.
func appendStyled(sb *strings.Builder, style *slack.TextStyle, text string) {
	trimmed := strings.TrimFunc(text, unicode.IsSpace)
	leading := text[:len(text)-len(strings.TrimLeftFunc(text, unicode.IsSpace))]
	trailing := text[len(strings.TrimRightFunc(text, unicode.IsSpace)):]

	sb.WriteString(leading)
	putStyleMarkers(sb, style, false)
	sb.WriteString(trimmed)
	putStyleMarkers(sb, style, true)
	sb.WriteString(trailing)
}

func putStyleMarkers(sb *strings.Builder, style *slack.TextStyle, closing bool) {
	if style == nil {
		return
	}
	var markers []string
	if style.Bold {
		markers = append(markers, "**")
	}
	if style.Italic {
		markers = append(markers, "_")
	}
	if style.Strike {
		markers = append(markers, "~~")
	}
	if style.Code {
		markers = append(markers, "`")
	}
	if closing {
		for i := len(markers) - 1; i >= 0; i-- {
			sb.WriteString(markers[i])
		}
	} else {
		for _, m := range markers {
			sb.WriteString(m)
		}
	}
}

func fieldSections(in SlackMessageInput) []space.MessageSection {
	style := StyleForColor(in.Color)
	var sections []space.MessageSection

	for _, block := range in.Blocks {
		if block.Type != slack.BlockTypeSection || len(block.Fields) == 0 {
			continue
		}
		section := space.MessageSection{Style: style}
		for _, field := range block.Fields {
			text := ConvertMarkdownLinks(field.Text)
			if idx := strings.Index(text, "\n"); idx != -1 {
				section.Fields = append(section.Fields, space.MessageField{
					Name:  truncate(text[:idx], maxFieldNameLength),
					Value: text[idx+1:],
				})
			} else {
				section.Fields = append(section.Fields, space.MessageField{Value: text})
			}
		}
		sections = append(sections, section)
	}

	if len(in.Fields) > 0 {
		section := space.MessageSection{Style: style}
		for _, field := range in.Fields {
			section.Fields = append(section.Fields, space.MessageField{
				Name:  truncate(field.Title, maxFieldNameLength),
				Value: ConvertMarkdownLinks(field.Value),
			})
		}
		sections = append(sections, section)
	}

	return sections
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// ConvertMarkdownLinks rewrites Slack's <url|text> link syntax to
// markdown. Bare <url> references pass through unchanged.
func ConvertMarkdownLinks(text string) string {
	var sb strings.Builder
	i := 0
	for i < len(text) {
		start := strings.IndexByte(text[i:], '<')
		if start == -1 {
			sb.WriteString(text[i:])
			break
		}
		start += i
		sb.WriteString(text[i:start])

		end := strings.IndexByte(text[start:], '>')
		if end == -1 {
			sb.WriteString(text[start:])
			break
		}
		end += start

		link := text[start+1 : end]
		if delim := strings.LastIndexByte(link, '|'); delim != -1 {
			fmt.Fprintf(&sb, "[%s](%s)", link[delim+1:], link[:delim])
		} else {
			sb.WriteString("<" + link + ">")
		}
		i = end + 1
	}
	return sb.String()
}

type rgb struct {
	r, g, b int
}

var accentColors = []struct {
	color rgb
	style space.MessageStyle
}{
	{rgb{70, 71, 73}, space.StylePrimary},
	{rgb{45, 64, 51}, space.StyleSuccess},
	{rgb{79, 67, 35}, space.StyleWarning},
	{rgb{77, 49, 49}, space.StyleError},
}

// StyleForColor maps an attachment accent color to the nearest section
// style by redmean color distance.
func StyleForColor(color string) space.MessageStyle {
	color = strings.TrimPrefix(color, "#")
	if color == "" {
		return space.StylePrimary
	}
	value, err := strconv.ParseInt(color, 16, 32)
	if err != nil {
		return space.StylePrimary
	}
	from := rgb{
		r: int(value>>16) & 0xFF,
		g: int(value>>8) & 0xFF,
		b: int(value) & 0xFF,
	}

	best := accentColors[0].style
	bestDistance := math.MaxFloat64
	for _, accent := range accentColors {
		if d := colorDistance(accent.color, from); d < bestDistance {
			bestDistance = d
			best = accent.style
		}
	}
	return best
}

func colorDistance(c1, c2 rgb) float64 {
	rmean := (c1.r + c2.r) / 2
	r := c1.r - c2.r
	g := c1.g - c2.g
	b := c1.b - c2.b
	a := (((512+rmean)*r*r)>>8 + 4*g*g + ((767-rmean)*b*b)>>8)
	return math.Sqrt(float64(a))
}
