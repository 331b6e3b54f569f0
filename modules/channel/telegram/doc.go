// Package telegram implements the Telegram Bot API notification channel.
//
// Owners are Telegram user IDs; their private chat with the bot shares the
// same ID, so destinations are resolved with getChat. Outbound messages are
// rendered as Telegram HTML and split at card boundaries when they exceed
// max_message_length.
//
// The module registers itself as "channel.telegram" via init() and
// implements the lifecycle Configure → Provision → Validate → Start → Stop.
//
// No external Telegram library is used: the module talks to the Bot API
// via raw net/http + encoding/json.
package telegram
