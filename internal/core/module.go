// Package core provides the module system foundation for dailyclaim.
//
// Every pluggable piece (storage backends, the rewards client, notification
// channels, the check-in scheduler, the HTTP gateway) is a Module registered
// from an init() function and loaded by ID from the configuration file.
package core

// ModuleID is a dotted, namespaced module identifier such as
// "store.sqlite" or "channel.telegram".
type ModuleID string

// Namespace returns the part of the ID before the first dot.
func (id ModuleID) Namespace() string {
	for i := 0; i < len(id); i++ {
		if id[i] == '.' {
			return string(id[:i])
		}
	}
	return string(id)
}

// ModuleInfo describes a registered module.
type ModuleInfo struct {
	// ID uniquely identifies the module.
	ID ModuleID

	// New returns a fresh, unconfigured instance of the module.
	New func() Module
}

// Module is the minimal interface every module implements.
type Module interface {
	ModuleInfo() ModuleInfo
}
