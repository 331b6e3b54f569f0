package telegram

import (
	"fmt"
	"net/url"
	"regexp"
	"time"
)

// tokenPattern matches the Telegram bot token format: <digits>:<alphanum+dash>.
var tokenPattern = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)

// maxTelegramLength is the Bot API limit for a single text message.
const maxTelegramLength = 4096

// Config holds the Telegram channel configuration.
type Config struct {
	Token            string        `yaml:"token"`
	APIURL           string        `yaml:"api_url"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxMessageLength int           `yaml:"max_message_length"`
	DisablePreview   bool          `yaml:"disable_preview"`
}

// defaults applies default values to unset fields.
func (c *Config) defaults() {
	if c.MaxMessageLength == 0 {
		c.MaxMessageLength = maxTelegramLength
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.APIURL == "" {
		c.APIURL = "https://api.telegram.org"
	}
}

// validate checks configuration field constraints beyond basic presence checks.
// It is called from Telegram.Validate after defaults have been applied.
func (c *Config) validate() error {
	if c.Token != "" && !tokenPattern.MatchString(c.Token) {
		return fmt.Errorf("telegram: token format invalid (expected <bot_id>:<hash>)")
	}

	if c.APIURL != "" {
		u, err := url.Parse(c.APIURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("telegram: api_url must be a valid http/https URL, got %q", c.APIURL)
		}
	}

	if c.MaxMessageLength < 64 || c.MaxMessageLength > maxTelegramLength {
		return fmt.Errorf("telegram: max_message_length must be 64-%d, got %d", maxTelegramLength, c.MaxMessageLength)
	}

	if c.Timeout > 5*time.Minute {
		return fmt.Errorf("telegram: timeout must be at most 5m, got %s", c.Timeout)
	}

	return nil
}
