package channel

import "github.com/flemzord/dailyclaim/pkg/message"

// ChunkConfig controls how outbound messages are split when their rendered
// form exceeds a platform's maximum message length.
type ChunkConfig struct {
	// MaxLength is the maximum rendered size per message.
	// A value <= 0 means no splitting.
	MaxLength int

	// Measure returns the rendered size of a card, separator included.
	// Nil measures the plain-text form.
	Measure func(message.Card) int
}

func (c ChunkConfig) measure(card message.Card) int {
	if c.Measure != nil {
		return c.Measure(card)
	}
	return len(card.PlainText()) + 2
}

// SplitMessage splits an outbound message at card boundaries so that each
// part stays within cfg.MaxLength. The text stays on the first part. A card
// that is too large on its own travels alone; the channel truncates it.
func SplitMessage(msg message.OutboundMessage, cfg ChunkConfig) []message.OutboundMessage {
	if cfg.MaxLength <= 0 || len(msg.Cards) == 0 {
		return []message.OutboundMessage{msg}
	}

	size := len(msg.Text)
	total := size
	for _, c := range msg.Cards {
		total += cfg.measure(c)
	}
	if total <= cfg.MaxLength {
		return []message.OutboundMessage{msg}
	}

	var result []message.OutboundMessage
	current := message.OutboundMessage{
		Channel: msg.Channel,
		Chat:    msg.Chat,
		Text:    msg.Text,
		Hints:   msg.Hints,
	}

	for _, card := range msg.Cards {
		n := cfg.measure(card)
		if size+n > cfg.MaxLength && (len(current.Cards) > 0 || current.Text != "") {
			result = append(result, current)
			current = message.OutboundMessage{
				Channel: msg.Channel,
				Chat:    msg.Chat,
				Hints:   msg.Hints,
			}
			size = 0
		}
		current.Cards = append(current.Cards, card)
		size += n
	}
	if !current.IsEmpty() {
		result = append(result, current)
	}
	return result
}
