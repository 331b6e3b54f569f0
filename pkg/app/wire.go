package app

import (
	"fmt"

	"github.com/flemzord/dailyclaim/internal/channel"
	"github.com/flemzord/dailyclaim/internal/checkin"
)

// repositoryProvider is implemented by store modules.
type repositoryProvider interface {
	Repository() checkin.Repository
}

// rewardClientProvider is implemented by rewards modules.
type rewardClientProvider interface {
	RewardClient() checkin.RewardClient
}

// wire discovers the store, the rewards client and the channels among the
// loaded modules and binds them to the check-in module. Must be called
// after LoadModules and before Start.
func wire(rt *Runtime, ids []string) error {
	dispatcher := channel.NewDispatcher()
	var client checkin.RewardClient

	for _, id := range ids {
		mod, ok := rt.App.Module(id)
		if !ok {
			continue
		}
		if p, ok := mod.(repositoryProvider); ok {
			rt.Repository = p.Repository()
			rt.Logger.Info("wire: discovered store", "module", id)
		}
		if p, ok := mod.(rewardClientProvider); ok {
			client = p.RewardClient()
			rt.Logger.Info("wire: discovered rewards client", "module", id)
		}
		if ch, ok := mod.(channel.Channel); ok {
			if err := dispatcher.Register(id, ch); err != nil {
				return fmt.Errorf("registering channel %s: %w", id, err)
			}
			rt.Logger.Info("wire: registered channel", "channel", id)
		}
		if m, ok := mod.(*checkin.Module); ok {
			rt.Checkin = m
		}
	}
	rt.Notifier = dispatcher

	if rt.Checkin == nil {
		return nil
	}
	if pinned := rt.Checkin.ChannelID(); pinned != "" {
		if err := dispatcher.SetDefault(pinned); err != nil {
			return fmt.Errorf("wire: checkin channel: %w", err)
		}
	}
	rt.Checkin.Bind(rt.Repository, client, dispatcher)
	rt.Logger.Info("wire: check-in bound", "channel", dispatcher.Default())
	return nil
}

// Compile-time check that the dispatcher satisfies the notifier contract.
var _ checkin.Notifier = (*channel.Dispatcher)(nil)
