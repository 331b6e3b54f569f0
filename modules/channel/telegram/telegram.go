package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"unicode/utf8"

	"github.com/flemzord/dailyclaim/internal/channel"
	"github.com/flemzord/dailyclaim/internal/core"
	"github.com/flemzord/dailyclaim/internal/security"
	"github.com/flemzord/dailyclaim/pkg/message"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Telegram{})
}

// Compile-time interface guards.
var (
	_ channel.Channel   = (*Telegram)(nil)
	_ core.Configurable = (*Telegram)(nil)
	_ core.Provisioner  = (*Telegram)(nil)
	_ core.Validator    = (*Telegram)(nil)
	_ core.Starter      = (*Telegram)(nil)
	_ core.Stopper      = (*Telegram)(nil)
)

// credentialName is the key of the bot token in the credential store.
const credentialName = "telegram.token"

// Telegram implements the Telegram Bot API notification channel.
type Telegram struct {
	config  Config
	client  *Client
	logger  *slog.Logger
	botUser *User
}

// ModuleInfo implements core.Module.
func (t *Telegram) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "channel.telegram",
		New: func() core.Module { return &Telegram{} },
	}
}

// Configure implements core.Configurable.
func (t *Telegram) Configure(node *yaml.Node) error {
	if err := node.Decode(&t.config); err != nil {
		return fmt.Errorf("telegram: decode config: %w", err)
	}
	return nil
}

// Provision implements core.Provisioner. The bot token is published to the
// credential store so the log redactor masks it in request URLs.
func (t *Telegram) Provision(ctx *core.AppContext) error {
	t.config.defaults()
	t.logger = ctx.Logger
	t.client = NewClient(t.config.Token, t.config.APIURL, t.config.Timeout)

	if t.config.Token != "" {
		if svc, ok := ctx.GetService("security.credentials"); ok {
			if creds, ok := svc.(*security.CredentialStore); ok {
				creds.Set(credentialName, t.config.Token)
			}
		}
	}
	return nil
}

// Validate implements core.Validator.
func (t *Telegram) Validate() error {
	if t.config.Token == "" {
		return errors.New("telegram: token is required")
	}
	return t.config.validate()
}

// Start implements core.Starter. It validates the bot token with getMe.
func (t *Telegram) Start() error {
	user, err := t.client.GetMe(context.Background())
	if err != nil {
		return fmt.Errorf("telegram: getMe failed (check token): %w", err)
	}
	t.botUser = user
	t.logger.Info("telegram bot authenticated",
		"id", user.ID,
		"username", user.Username,
	)
	return nil
}

// Stop implements core.Stopper.
func (t *Telegram) Stop(context.Context) error {
	if t.logger != nil {
		t.logger.Info("telegram channel stopping")
	}
	return nil
}

// ResolveDestination implements channel.Channel. A user's private chat with
// the bot has the user's ID; getChat fails until the user has started the bot.
func (t *Telegram) ResolveDestination(ctx context.Context, ownerID string) (message.Chat, error) {
	id, err := strconv.ParseInt(ownerID, 10, 64)
	if err != nil {
		return message.Chat{}, fmt.Errorf("telegram: owner %q is not a user ID: %w", ownerID, channel.ErrNoDestination)
	}

	chat, err := t.client.GetChat(ctx, id)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Unreachable() {
			return message.Chat{}, fmt.Errorf("telegram: owner %s: %w: %w", ownerID, channel.ErrNoDestination, err)
		}
		return message.Chat{}, err
	}

	out := message.Chat{
		ID:    strconv.FormatInt(chat.ID, 10),
		Type:  message.ChatGroup,
		Title: chat.Title,
	}
	if chat.Type == "private" {
		out.Type = message.ChatDM
		out.Title = chat.Username
	}
	return out, nil
}

// Send implements channel.Channel. Messages longer than max_message_length
// are split at card boundaries; a single oversized card is truncated.
func (t *Telegram) Send(ctx context.Context, msg message.OutboundMessage) error {
	chatID, err := strconv.ParseInt(msg.Chat.ID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: invalid chat ID %q: %w", msg.Chat.ID, err)
	}

	parts := channel.SplitMessage(msg, channel.ChunkConfig{
		MaxLength: t.config.MaxMessageLength,
		Measure:   measureCard,
	})

	for _, part := range parts {
		req := SendMessageRequest{
			ChatID:                chatID,
			Text:                  renderMessage(part),
			ParseMode:             "HTML",
			DisableWebPagePreview: t.config.DisablePreview,
		}
		// Cutting HTML could leave a tag open, so oversized parts go out as plain text.
		if utf8.RuneCountInString(req.Text) > t.config.MaxMessageLength {
			req.Text = truncate(plainMessage(part), t.config.MaxMessageLength)
			req.ParseMode = ""
		}
		if part.Hints != nil {
			req.DisableWebPagePreview = req.DisableWebPagePreview || part.Hints.DisablePreview
			req.DisableNotification = part.Hints.DisableNotification
		}
		if req.Text == "" {
			continue
		}
		if _, err := t.client.SendMessage(ctx, req); err != nil {
			return fmt.Errorf("telegram: send to %s: %w", msg.Chat.ID, err)
		}
	}
	return nil
}
