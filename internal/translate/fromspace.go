package translate

import (
	"strconv"
	"strings"

	"github.com/syncapps/chanbridge/internal/space"
)

// MessageToSlack renders a parsed rich text document as Slack mrkdwn.
// slackNameByProfileID maps matched member profile IDs to the Slack
// display name to substitute; unmatched mentions fall back to the plain
// text the document carries.
func MessageToSlack(doc *space.RtDocument, slackNameByProfileID map[string]string) string {
	var sb strings.Builder
	for _, node := range doc.Children {
		appendBlockNode(&sb, node, "", false, slackNameByProfileID)
	}
	return sb.String()
}

// ExtractProfileIDs collects the member profile IDs mentioned anywhere
// in the document, from both mention nodes and profile link marks.
func ExtractProfileIDs(doc *space.RtDocument) []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	var walk func(nodes []space.RtNode)
	walk = func(nodes []space.RtNode) {
		for _, node := range nodes {
			switch node.ClassName {
			case space.ClassRtText:
				for _, mark := range node.Marks {
					add(profileIDFromMark(mark))
				}
			case space.ClassRtMention:
				add(node.Attrs.ProfileID())
			}
			walk(node.Children)
		}
	}
	walk(doc.Children)
	return ids
}

func profileIDFromMark(mark space.RtMark) string {
	if mark.ClassName != space.ClassRtLinkMark || mark.Attrs == nil || mark.Attrs.Details == nil {
		return ""
	}
	if mark.Attrs.Details.ClassName == space.ClassRtProfileLinkDetails {
		return mark.Attrs.Details.ID
	}
	return ""
}

// appendBlockNode renders one block node. linePrefix accumulates one tab
// per nesting level; prefixForFirstLine is set when the node continues a
// list item whose marker already opened the first line.
func appendBlockNode(sb *strings.Builder, node space.RtNode, linePrefix string, prefixForFirstLine bool, names map[string]string) {
	prefixed := func(s string, ix int) {
		if ix > 0 || prefixForFirstLine {
			sb.WriteString(linePrefix)
		}
		sb.WriteString(s)
	}

	switch node.ClassName {
	case space.ClassRtBlockquote:
		for ix, child := range node.Children {
			prefixed("> ", ix)
			appendBlockNode(sb, child, linePrefix+"\t", false, names)
		}
		if linePrefix == "" {
			sb.WriteString("\n")
		}

	case space.ClassRtBulletList:
		if linePrefix == "" {
			sb.WriteString("\n")
		}
		for ix, child := range node.Children {
			prefixed("*  ", ix)
			appendBlockNode(sb, child, linePrefix+"\t", false, names)
		}
		if linePrefix == "" {
			sb.WriteString("\n")
		}

	case space.ClassRtOrderedList:
		if linePrefix == "" {
			sb.WriteString("\n")
		}
		start := node.StartNumber
		if start == 0 {
			start = 1
		}
		for ix, child := range node.Children {
			prefixed(strconv.Itoa(ix+start)+".  ", ix)
			appendBlockNode(sb, child, linePrefix+"\t", false, names)
		}
		if linePrefix == "" {
			sb.WriteString("\n")
		}

	case space.ClassRtListItem:
		for ix, child := range node.Children {
			appendBlockNode(sb, child, linePrefix, prefixForFirstLine || ix > 0, names)
		}

	case space.ClassRtCode:
		sb.WriteString("```\n")
		for _, child := range node.Children {
			appendInlineNode(sb, child, names)
			sb.WriteString("\n")
		}
		sb.WriteString("```\n\n")

	case space.ClassRtHeading, space.ClassRtParagraph:
		if prefixForFirstLine {
			sb.WriteString(linePrefix)
		}
		for _, child := range node.Children {
			appendInlineNode(sb, child, names)
		}
		sb.WriteString("\n")
	}
}

func appendInlineNode(sb *strings.Builder, node space.RtNode, names map[string]string) {
	switch node.ClassName {
	case space.ClassRtBreak:
		sb.WriteString("\n")

	case space.ClassRtImage:
		// inline images have no mrkdwn rendering

	case space.ClassRtText:
		var slackName string
		for _, mark := range node.Marks {
			if id := profileIDFromMark(mark); id != "" {
				if name, ok := names[id]; ok {
					slackName = name
					break
				}
			}
		}
		for _, mark := range node.Marks {
			openMark(sb, mark)
		}
		if slackName != "" {
			sb.WriteString(slackName)
		} else {
			sb.WriteString(node.Value)
		}
		for _, mark := range node.Marks {
			closeMark(sb, mark)
		}

	case space.ClassRtMention:
		if name, ok := names[node.Attrs.ProfileID()]; ok && name != "" {
			sb.WriteString("@" + name)
		} else {
			sb.WriteString("@" + node.Attrs.PlainText())
		}

	case space.ClassRtEmoji:
		sb.WriteString(":" + node.EmojiName + ":")
	}
}

func openMark(sb *strings.Builder, mark space.RtMark) {
	switch mark.ClassName {
	case space.ClassRtStrikeMark:
		sb.WriteString("~")
	case space.ClassRtLinkMark:
		if mark.IsEntityLink() {
			sb.WriteString("@")
		} else if mark.Attrs != nil {
			sb.WriteString("<" + mark.Attrs.Href + "|")
		}
	case space.ClassRtItalicMark:
		sb.WriteString("_")
	case space.ClassRtCodeMark:
		sb.WriteString("`")
	case space.ClassRtBoldMark:
		sb.WriteString("*")
	}
}

func closeMark(sb *strings.Builder, mark space.RtMark) {
	switch mark.ClassName {
	case space.ClassRtStrikeMark:
		sb.WriteString("~")
	case space.ClassRtLinkMark:
		if !mark.IsEntityLink() && mark.Attrs != nil {
			sb.WriteString(">")
		}
	case space.ClassRtItalicMark:
		sb.WriteString("_")
	case space.ClassRtCodeMark:
		sb.WriteString("`")
	case space.ClassRtBoldMark:
		sb.WriteString("*")
	}
}
