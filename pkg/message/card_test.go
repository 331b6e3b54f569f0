package message

import "testing"

func TestCard_AppendLine(t *testing.T) {
	t.Parallel()

	var c Card
	c.AppendLine("first")
	c.AppendLine("second")

	if c.Description != "first\nsecond" {
		t.Errorf("Description = %q, want %q", c.Description, "first\nsecond")
	}
}

func TestCard_PlainText(t *testing.T) {
	t.Parallel()

	c := Card{
		Title:       "Daily reward",
		Description: "Claimed **60 Primogem** | UID `800000001`",
	}
	c.AddField("Resin 160/160", "capped")

	want := "Daily reward\nClaimed 60 Primogem | UID 800000001\nResin 160/160: capped"
	if got := c.PlainText(); got != want {
		t.Errorf("PlainText() = %q, want %q", got, want)
	}
}

func TestOutboundMessage_IsEmpty(t *testing.T) {
	t.Parallel()

	chat := Chat{ID: "1", Type: ChatDM}
	if m := (OutboundMessage{Chat: chat}); !m.IsEmpty() {
		t.Error("message without text or cards should be empty")
	}
	if m := NewTextMessage(chat, "hi"); m.IsEmpty() {
		t.Error("text message should not be empty")
	}
	if m := (OutboundMessage{Chat: chat, Cards: []Card{{Title: "x"}}}); m.IsEmpty() {
		t.Error("message with cards should not be empty")
	}
}
