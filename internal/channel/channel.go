// Package channel defines the bridge between the check-in scheduler and the
// messaging platforms that deliver its reports: the Channel interface, a
// dispatcher that routes messages to the right channel, and card-aware
// message splitting.
package channel

import (
	"context"

	"github.com/flemzord/dailyclaim/internal/core"
	"github.com/flemzord/dailyclaim/pkg/message"
)

// Channel is a notification transport. Every concrete channel (Telegram,
// and any future one) must implement this interface.
type Channel interface {
	core.Module

	// ResolveDestination returns the direct conversation with the owner.
	// Owner IDs are platform user IDs.
	ResolveDestination(ctx context.Context, ownerID string) (message.Chat, error)

	// Send delivers an outbound message to the platform.
	Send(ctx context.Context, msg message.OutboundMessage) error
}
