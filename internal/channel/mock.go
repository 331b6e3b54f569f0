package channel

import (
	"context"
	"sync"

	"github.com/flemzord/dailyclaim/internal/core"
	"github.com/flemzord/dailyclaim/pkg/message"
)

// MockChannel is a test double that implements Channel. It records sent
// messages and resolves every owner to a DM with the same ID.
type MockChannel struct {
	name string
	mu   sync.Mutex
	sent []message.OutboundMessage

	// SendFunc, if set, is called instead of the default recording behavior.
	SendFunc func(ctx context.Context, msg message.OutboundMessage) error

	// ResolveFunc, if set, replaces the default owner resolution.
	ResolveFunc func(ctx context.Context, ownerID string) (message.Chat, error)
}

// Compile-time interface guards.
var _ Channel = (*MockChannel)(nil)

// NewMockChannel creates a MockChannel with the given name.
func NewMockChannel(name string) *MockChannel {
	return &MockChannel{name: name}
}

// ModuleInfo implements core.Module.
func (m *MockChannel) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  core.ModuleID("channel." + m.name),
		New: func() core.Module { return NewMockChannel(m.name) },
	}
}

// ResolveDestination implements Channel.
func (m *MockChannel) ResolveDestination(ctx context.Context, ownerID string) (message.Chat, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, ownerID)
	}
	return message.Chat{ID: ownerID, Type: message.ChatDM}, nil
}

// Send records the outbound message. If SendFunc is set, it delegates to it.
func (m *MockChannel) Send(ctx context.Context, msg message.OutboundMessage) error {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// SentMessages returns a copy of all outbound messages recorded by Send.
func (m *MockChannel) SentMessages() []message.OutboundMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]message.OutboundMessage, len(m.sent))
	copy(cp, m.sent)
	return cp
}

// Reset clears recorded sent messages.
func (m *MockChannel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}
