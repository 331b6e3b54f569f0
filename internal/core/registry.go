package core

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"sync"
)

// validID is "<namespace>.<name>", lowercase, as written in the config file.
var validID = regexp.MustCompile(`^[a-z][a-z0-9_]*\.[a-z][a-z0-9_]*$`)

var (
	modules   = make(map[string]ModuleInfo)
	modulesMu sync.RWMutex
)

// RegisterModule registers a module by instantiating it to read its ModuleInfo.
// It panics on a malformed or duplicate ID, or a nil constructor.
// Intended to be called from init() functions.
func RegisterModule(instance Module) {
	info := instance.ModuleInfo()
	id := string(info.ID)
	if !validID.MatchString(id) {
		panic(fmt.Sprintf("module ID %q must look like namespace.name", id))
	}
	if info.New == nil {
		panic(fmt.Sprintf("module %s: New function must not be nil", id))
	}

	modulesMu.Lock()
	defer modulesMu.Unlock()

	if _, exists := modules[id]; exists {
		panic(fmt.Sprintf("module already registered: %s", id))
	}
	modules[id] = info
}

// GetModule returns the ModuleInfo for the given ID, or false if not found.
func GetModule(id string) (ModuleInfo, bool) {
	modulesMu.RLock()
	defer modulesMu.RUnlock()
	info, ok := modules[id]
	return info, ok
}

// GetModules returns all registered modules sorted by ID.
func GetModules() []ModuleInfo {
	return filterModules(func(ModuleInfo) bool { return true })
}

// GetModulesByNamespace returns the modules of one namespace sorted by ID:
// "store" yields store.postgres and store.sqlite.
func GetModulesByNamespace(namespace string) []ModuleInfo {
	return filterModules(func(info ModuleInfo) bool {
		return info.ID.Namespace() == namespace
	})
}

// Namespaces returns the sorted, distinct namespaces of registered modules.
func Namespaces() []string {
	var out []string
	for _, info := range GetModules() {
		out = append(out, info.ID.Namespace())
	}
	return slices.Compact(out)
}

func filterModules(keep func(ModuleInfo) bool) []ModuleInfo {
	modulesMu.RLock()
	defer modulesMu.RUnlock()

	var result []ModuleInfo
	for _, info := range modules {
		if keep(info) {
			result = append(result, info)
		}
	}
	slices.SortFunc(result, func(a, b ModuleInfo) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return result
}

// resetRegistry clears the registry. Only for testing.
func resetRegistry() {
	modulesMu.Lock()
	defer modulesMu.Unlock()
	modules = make(map[string]ModuleInfo)
}
