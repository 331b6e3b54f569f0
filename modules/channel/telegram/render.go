package telegram

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/flemzord/dailyclaim/pkg/message"
)

const cardSeparator = "\n\n"

// severityIcon prefixes card titles.
var severityIcon = map[message.Severity]string{
	message.SeverityWarning: "⚠️ ",
}

// renderCard renders a card as Telegram HTML.
func renderCard(c message.Card) string {
	var b strings.Builder
	if c.Title != "" {
		b.WriteString("<b>")
		b.WriteString(severityIcon[c.Severity])
		b.WriteString(html.EscapeString(c.Title))
		b.WriteString("</b>\n")
	}
	if c.Description != "" {
		b.WriteString(inlineHTML(c.Description))
		b.WriteByte('\n')
	}
	for _, f := range c.Fields {
		b.WriteString("<b>")
		b.WriteString(html.EscapeString(f.Name))
		b.WriteString("</b>: ")
		b.WriteString(html.EscapeString(f.Value))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderMessage renders the text followed by every card.
func renderMessage(msg message.OutboundMessage) string {
	parts := make([]string, 0, len(msg.Cards)+1)
	if msg.Text != "" {
		parts = append(parts, html.EscapeString(msg.Text))
	}
	for _, c := range msg.Cards {
		parts = append(parts, renderCard(c))
	}
	return strings.Join(parts, cardSeparator)
}

// plainMessage is the unformatted fallback of renderMessage.
func plainMessage(msg message.OutboundMessage) string {
	parts := make([]string, 0, len(msg.Cards)+1)
	if msg.Text != "" {
		parts = append(parts, msg.Text)
	}
	for _, c := range msg.Cards {
		parts = append(parts, c.PlainText())
	}
	return strings.Join(parts, cardSeparator)
}

// measureCard is the rendered size of a card inside a message, in runes.
func measureCard(c message.Card) int {
	return utf8.RuneCountInString(renderCard(c)) + len(cardSeparator)
}

// inlineHTML converts **bold** and `code` spans to HTML and escapes the rest.
// Unclosed markers are kept literally.
func inlineHTML(s string) string {
	var b strings.Builder
	for len(s) > 0 {
		switch {
		case strings.HasPrefix(s, "**"):
			if end := strings.Index(s[2:], "**"); end >= 0 {
				b.WriteString("<b>" + html.EscapeString(s[2:2+end]) + "</b>")
				s = s[2+end+2:]
				continue
			}
		case s[0] == '`':
			if end := strings.IndexByte(s[1:], '`'); end >= 0 {
				b.WriteString("<code>" + html.EscapeString(s[1:1+end]) + "</code>")
				s = s[1+end+1:]
				continue
			}
		}

		next := nextMarker(s[1:]) + 1
		b.WriteString(html.EscapeString(s[:next]))
		s = s[next:]
	}
	return b.String()
}

// nextMarker returns the index of the next ** or ` in s, or len(s).
func nextMarker(s string) int {
	i := strings.IndexAny(s, "*`")
	if i < 0 {
		return len(s)
	}
	return i
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
