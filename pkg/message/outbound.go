package message

// OutboundMessage represents a message to be sent through a channel.
type OutboundMessage struct {
	// Channel is the module ID of the channel that should deliver the
	// message. Empty means the default channel.
	Channel string         `json:"channel,omitempty"`
	Chat    Chat           `json:"chat"`
	Text    string         `json:"text,omitempty"`
	Cards   []Card         `json:"cards,omitempty"`
	Hints   *OutboundHints `json:"hints,omitempty"`
}

// OutboundHints carries optional delivery hints for channels.
// Zero value means no hints are set.
type OutboundHints struct {
	DisablePreview      bool `json:"disable_preview,omitempty"`
	DisableNotification bool `json:"disable_notification,omitempty"`
}

// NewTextMessage creates an outbound message with text only.
func NewTextMessage(chat Chat, text string) OutboundMessage {
	return OutboundMessage{
		Chat: chat,
		Text: text,
	}
}

// IsEmpty reports whether the message carries nothing to deliver.
func (m *OutboundMessage) IsEmpty() bool {
	return m.Text == "" && len(m.Cards) == 0
}
