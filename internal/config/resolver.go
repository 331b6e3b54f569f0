package config

import (
	"cmp"
	"slices"

	"github.com/flemzord/dailyclaim/internal/core"
)

// namespaceRank orders module loading so that a module starts after the
// modules it consumes and stops before them.
var namespaceRank = map[string]int{
	"store":   0,
	"rewards": 1,
	"channel": 2,
	"checkin": 3,
	"gateway": 4,
}

func rank(id string) int {
	if r, ok := namespaceRank[core.ModuleID(id).Namespace()]; ok {
		return r
	}
	return len(namespaceRank)
}

// Resolve returns the module IDs from the configuration, grouped by
// namespace in dependency order and sorted by ID within a namespace.
// The deterministic order ensures consistent module loading.
func Resolve(cfg *Config) []string {
	ids := make([]string, 0, len(cfg.Modules))
	for id := range cfg.Modules {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		return cmp.Or(cmp.Compare(rank(a), rank(b)), cmp.Compare(a, b))
	})
	return ids
}
