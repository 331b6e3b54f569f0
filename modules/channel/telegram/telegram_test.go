package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/flemzord/dailyclaim/internal/channel"
	"github.com/flemzord/dailyclaim/internal/core"
	"github.com/flemzord/dailyclaim/internal/security"
	"github.com/flemzord/dailyclaim/pkg/message"
)

func TestConfigValidate_InvalidToken(t *testing.T) {
	t.Parallel()
	cfg := Config{Token: "invalid-token"}
	cfg.defaults()
	if err := cfg.validate(); err == nil {
		t.Error("validate() should reject invalid token format")
	}
}

func TestConfigValidate_ValidToken(t *testing.T) {
	t.Parallel()
	cfg := Config{Token: "123456:ABC-DEF_ghijk"}
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		t.Errorf("validate() unexpected error: %v", err)
	}
}

func TestConfigValidate_InvalidAPIURL(t *testing.T) {
	t.Parallel()
	cfg := Config{Token: "123:abc", APIURL: "not-a-url"}
	cfg.defaults()
	if err := cfg.validate(); err == nil {
		t.Error("validate() should reject invalid API URL")
	}
}

func TestConfigValidate_MaxMessageLengthBounds(t *testing.T) {
	t.Parallel()
	for _, n := range []int{10, 10000} {
		cfg := Config{Token: "123:abc", MaxMessageLength: n}
		cfg.defaults()
		if err := cfg.validate(); err == nil {
			t.Errorf("validate() should reject max_message_length %d", n)
		}
	}
}

// fakeBot is an in-memory Bot API recording sendMessage calls.
type fakeBot struct {
	mu    sync.Mutex
	sent  []SendMessageRequest
	chats map[int64]Chat
}

func (b *fakeBot) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			writeJSON(t, w, APIResponse[User]{OK: true, Result: User{ID: 1, IsBot: true, Username: "claim_bot"}})
		case strings.HasSuffix(r.URL.Path, "/getChat"):
			var req getChatRequest
			_ = json.Unmarshal(body, &req)
			chat, ok := b.chats[req.ChatID]
			if !ok {
				w.WriteHeader(http.StatusBadRequest)
				writeJSON(t, w, APIResponse[json.RawMessage]{ErrorCode: 400, Description: "Bad Request: chat not found"})
				return
			}
			writeJSON(t, w, APIResponse[Chat]{OK: true, Result: chat})
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var req SendMessageRequest
			_ = json.Unmarshal(body, &req)
			b.mu.Lock()
			b.sent = append(b.sent, req)
			id := len(b.sent)
			b.mu.Unlock()
			writeJSON(t, w, APIResponse[Message]{OK: true, Result: Message{MessageID: id}})
		default:
			http.NotFound(w, r)
		}
	})
}

func newTestTelegram(t *testing.T, bot *fakeBot, cfg Config) *Telegram {
	t.Helper()
	srv := httptest.NewServer(bot.handler(t))
	t.Cleanup(srv.Close)

	cfg.Token = "123:abc"
	cfg.APIURL = srv.URL
	tg := &Telegram{config: cfg}
	if err := tg.Provision(core.NewAppContext(slog.New(slog.DiscardHandler), t.TempDir())); err != nil {
		t.Fatalf("Provision() error: %v", err)
	}
	if err := tg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	return tg
}

func TestProvisionRegistersToken(t *testing.T) {
	t.Parallel()

	appCtx := core.NewAppContext(slog.New(slog.DiscardHandler), t.TempDir())
	creds := security.NewCredentialStore()
	appCtx.RegisterService("security.credentials", creds)

	tg := &Telegram{config: Config{Token: "123:secret"}}
	if err := tg.Provision(appCtx); err != nil {
		t.Fatalf("Provision() error: %v", err)
	}
	if v, ok := creds.Get(credentialName); !ok || v != "123:secret" {
		t.Errorf("credential = %q, %v", v, ok)
	}
}

func TestValidateRequiresToken(t *testing.T) {
	t.Parallel()
	tg := &Telegram{}
	tg.config.defaults()
	if err := tg.Validate(); err == nil {
		t.Error("Validate() should require a token")
	}
}

func TestStartAuthenticates(t *testing.T) {
	t.Parallel()

	tg := newTestTelegram(t, &fakeBot{}, Config{})
	if err := tg.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if tg.botUser == nil || tg.botUser.Username != "claim_bot" {
		t.Errorf("botUser = %+v", tg.botUser)
	}
	if err := tg.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error: %v", err)
	}
}

func TestResolveDestination(t *testing.T) {
	t.Parallel()

	bot := &fakeBot{chats: map[int64]Chat{
		42: {ID: 42, Type: "private", Username: "alice"},
	}}
	tg := newTestTelegram(t, bot, Config{})

	chat, err := tg.ResolveDestination(context.Background(), "42")
	if err != nil {
		t.Fatalf("ResolveDestination() error: %v", err)
	}
	if chat.ID != "42" || !chat.IsDirectMessage() {
		t.Errorf("chat = %+v, want DM 42", chat)
	}

	_, err = tg.ResolveDestination(context.Background(), "99")
	if !errors.Is(err, channel.ErrNoDestination) {
		t.Errorf("unknown chat error = %v, want ErrNoDestination", err)
	}

	_, err = tg.ResolveDestination(context.Background(), "not-a-number")
	if !errors.Is(err, channel.ErrNoDestination) {
		t.Errorf("bad owner error = %v, want ErrNoDestination", err)
	}
}

func TestSendSplitsAtCards(t *testing.T) {
	t.Parallel()

	bot := &fakeBot{}
	tg := newTestTelegram(t, bot, Config{MaxMessageLength: 100})

	card := message.Card{Title: "Daily reward", Description: strings.Repeat("x", 60)}
	msg := message.OutboundMessage{
		Chat:  message.Chat{ID: "42", Type: message.ChatDM},
		Text:  "checked in",
		Cards: []message.Card{card, card},
	}
	if err := tg.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	bot.mu.Lock()
	defer bot.mu.Unlock()
	if len(bot.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(bot.sent))
	}
	if !strings.HasPrefix(bot.sent[0].Text, "checked in") {
		t.Errorf("first part = %q, want text first", bot.sent[0].Text)
	}
	for i, req := range bot.sent {
		if req.ChatID != 42 || req.ParseMode != "HTML" {
			t.Errorf("part %d = %+v", i, req)
		}
	}
}

func TestSendOversizedCardFallsBackToPlainText(t *testing.T) {
	t.Parallel()

	bot := &fakeBot{}
	tg := newTestTelegram(t, bot, Config{MaxMessageLength: 64})

	msg := message.OutboundMessage{
		Chat:  message.Chat{ID: "42"},
		Cards: []message.Card{{Title: "Big", Description: "**" + strings.Repeat("y", 200) + "**"}},
	}
	if err := tg.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	bot.mu.Lock()
	defer bot.mu.Unlock()
	if len(bot.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(bot.sent))
	}
	if bot.sent[0].ParseMode != "" {
		t.Errorf("ParseMode = %q, want plain text", bot.sent[0].ParseMode)
	}
	if n := len([]rune(bot.sent[0].Text)); n > 64 {
		t.Errorf("text length = %d, want <= 64", n)
	}
}

func TestSendHints(t *testing.T) {
	t.Parallel()

	bot := &fakeBot{}
	tg := newTestTelegram(t, bot, Config{})

	msg := message.NewTextMessage(message.Chat{ID: "7"}, "hi")
	msg.Hints = &message.OutboundHints{DisableNotification: true}
	if err := tg.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	bot.mu.Lock()
	defer bot.mu.Unlock()
	if len(bot.sent) != 1 || !bot.sent[0].DisableNotification {
		t.Errorf("sent = %+v", bot.sent)
	}
}

func TestSendInvalidChatID(t *testing.T) {
	t.Parallel()
	tg := newTestTelegram(t, &fakeBot{}, Config{})
	if err := tg.Send(context.Background(), message.NewTextMessage(message.Chat{ID: "abc"}, "x")); err == nil {
		t.Error("Send() should reject a non-numeric chat ID")
	}
}

