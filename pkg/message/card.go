package message

import "strings"

// Severity tints a card when the channel supports it.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Field is a named value shown inside a card.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Card is a small structured block of information, rendered by each channel
// in its own way (an embed, an HTML fragment, a plain-text paragraph).
//
// Description may contain **bold** and `code` spans; channels translate them.
type Card struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Fields      []Field  `json:"fields,omitempty"`
	Severity    Severity `json:"severity,omitempty"`
}

// AddField appends a field to the card.
func (c *Card) AddField(name, value string) {
	c.Fields = append(c.Fields, Field{Name: name, Value: value})
}

// AppendLine appends a line to the description.
func (c *Card) AppendLine(line string) {
	if c.Description == "" {
		c.Description = line
		return
	}
	c.Description += "\n" + line
}

// PlainText renders the card without markup, one element per line.
func (c Card) PlainText() string {
	var b strings.Builder
	if c.Title != "" {
		b.WriteString(c.Title)
		b.WriteByte('\n')
	}
	if c.Description != "" {
		b.WriteString(stripMarkup(c.Description))
		b.WriteByte('\n')
	}
	for _, f := range c.Fields {
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(f.Value)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

var markupStripper = strings.NewReplacer("**", "", "`", "")

func stripMarkup(s string) string {
	return markupStripper.Replace(s)
}
