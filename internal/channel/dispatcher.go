package channel

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/flemzord/dailyclaim/pkg/message"
)

// Dispatcher routes outbound messages to the correct registered channel.
// Messages without a channel go to the default one, which is also used to
// resolve owner destinations. It satisfies checkin.Notifier.
type Dispatcher struct {
	mu       sync.RWMutex
	channels map[string]Channel
	def      string
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		channels: make(map[string]Channel),
	}
}

// Register adds a channel under the given name. The first registered
// channel becomes the default.
// Returns ErrDuplicateChannel if the name is already taken.
func (d *Dispatcher) Register(name string, ch Channel) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.channels[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateChannel, name)
	}
	d.channels[name] = ch
	if d.def == "" {
		d.def = name
	}
	return nil
}

// SetDefault selects the channel used for messages without a channel.
func (d *Dispatcher) SetDefault(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.channels[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNoChannel, name)
	}
	d.def = name
	return nil
}

// Default returns the name of the default channel, empty if none.
func (d *Dispatcher) Default() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.def
}

// Get returns the channel registered under name, or false if none.
func (d *Dispatcher) Get(name string) (Channel, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ch, ok := d.channels[name]
	return ch, ok
}

func (d *Dispatcher) lookup(name string) (string, Channel, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if name == "" {
		name = d.def
	}
	ch, ok := d.channels[name]
	if !ok {
		return name, nil, fmt.Errorf("%w: %q", ErrNoChannel, name)
	}
	return name, ch, nil
}

// ResolveDestination resolves the owner's conversation on the default channel.
func (d *Dispatcher) ResolveDestination(ctx context.Context, ownerID string) (message.Chat, error) {
	_, ch, err := d.lookup("")
	if err != nil {
		return message.Chat{}, err
	}
	return ch.ResolveDestination(ctx, ownerID)
}

// Send dispatches an outbound message to the channel identified by
// msg.Channel, or the default channel when it is empty. It returns
// ErrNoChannel if no channel is registered under that name.
func (d *Dispatcher) Send(ctx context.Context, msg message.OutboundMessage) error {
	name, ch, err := d.lookup(msg.Channel)
	if err != nil {
		return err
	}
	msg.Channel = name
	return ch.Send(ctx, msg)
}

// Channels returns the names of all registered channels, sorted.
func (d *Dispatcher) Channels() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.channels))
	for name := range d.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
