package channel

import (
	"context"
	"errors"
	"testing"

	"github.com/flemzord/dailyclaim/pkg/message"
)

func TestDispatcher_RegisterAndGet(t *testing.T) {
	t.Parallel()
	d := NewDispatcher()
	ch := NewMockChannel("telegram")

	if err := d.Register("channel.telegram", ch); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, ok := d.Get("channel.telegram")
	if !ok {
		t.Fatal("Get returned false for registered channel")
	}
	if got != ch {
		t.Error("Get returned wrong channel instance")
	}
	if d.Default() != "channel.telegram" {
		t.Errorf("Default() = %q, want first registered channel", d.Default())
	}
}

func TestDispatcher_RegisterDuplicate(t *testing.T) {
	t.Parallel()
	d := NewDispatcher()
	ch := NewMockChannel("telegram")

	if err := d.Register("channel.telegram", ch); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := d.Register("channel.telegram", ch); !errors.Is(err, ErrDuplicateChannel) {
		t.Errorf("second Register = %v, want ErrDuplicateChannel", err)
	}
}

func TestDispatcher_SendRoutes(t *testing.T) {
	t.Parallel()
	d := NewDispatcher()
	tg := NewMockChannel("telegram")
	other := NewMockChannel("other")
	_ = d.Register("channel.telegram", tg)
	_ = d.Register("channel.other", other)

	chat := message.Chat{ID: "1", Type: message.ChatDM}
	if err := d.Send(context.Background(), message.NewTextMessage(chat, "default")); err != nil {
		t.Fatalf("Send default: %v", err)
	}
	msg := message.NewTextMessage(chat, "pinned")
	msg.Channel = "channel.other"
	if err := d.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send pinned: %v", err)
	}

	if sent := tg.SentMessages(); len(sent) != 1 || sent[0].Text != "default" || sent[0].Channel != "channel.telegram" {
		t.Errorf("telegram got %+v", sent)
	}
	if sent := other.SentMessages(); len(sent) != 1 || sent[0].Text != "pinned" {
		t.Errorf("other got %+v", sent)
	}
}

func TestDispatcher_SendUnknown(t *testing.T) {
	t.Parallel()
	d := NewDispatcher()

	err := d.Send(context.Background(), message.OutboundMessage{Channel: "channel.nope"})
	if !errors.Is(err, ErrNoChannel) {
		t.Errorf("Send = %v, want ErrNoChannel", err)
	}
	if _, err := d.ResolveDestination(context.Background(), "42"); !errors.Is(err, ErrNoChannel) {
		t.Errorf("ResolveDestination on empty dispatcher = %v, want ErrNoChannel", err)
	}
}

func TestDispatcher_ResolveUsesDefault(t *testing.T) {
	t.Parallel()
	d := NewDispatcher()
	first := NewMockChannel("first")
	second := NewMockChannel("second")
	second.ResolveFunc = func(_ context.Context, owner string) (message.Chat, error) {
		return message.Chat{ID: "dm-" + owner, Type: message.ChatDM}, nil
	}
	_ = d.Register("channel.first", first)
	_ = d.Register("channel.second", second)

	if err := d.SetDefault("channel.second"); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	chat, err := d.ResolveDestination(context.Background(), "42")
	if err != nil {
		t.Fatalf("ResolveDestination: %v", err)
	}
	if chat.ID != "dm-42" {
		t.Errorf("chat = %+v, want the default channel's resolution", chat)
	}
	if err := d.SetDefault("channel.missing"); !errors.Is(err, ErrNoChannel) {
		t.Errorf("SetDefault(missing) = %v, want ErrNoChannel", err)
	}
}

func TestDispatcher_Channels(t *testing.T) {
	t.Parallel()
	d := NewDispatcher()
	_ = d.Register("channel.b", NewMockChannel("b"))
	_ = d.Register("channel.a", NewMockChannel("a"))

	got := d.Channels()
	if len(got) != 2 || got[0] != "channel.a" || got[1] != "channel.b" {
		t.Errorf("Channels() = %v, want sorted names", got)
	}
}
