package core

import (
	"slices"
	"testing"
)

type namedModule struct{ id ModuleID }

func (m namedModule) ModuleInfo() ModuleInfo {
	return ModuleInfo{ID: m.id, New: func() Module { return m }}
}

func TestRegisterModule_RejectsMalformedIDs(t *testing.T) {
	t.Cleanup(resetRegistry)

	for _, id := range []ModuleID{"", "store", "Store.sqlite", "store.", ".sqlite", "store.sq-lite", "rewards.hoyolab.v2"} {
		t.Run(string(id), func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("RegisterModule(%q) should panic", id)
				}
			}()
			RegisterModule(namedModule{id: id})
		})
	}
	if n := len(GetModules()); n != 0 {
		t.Errorf("registry holds %d modules after rejected registrations", n)
	}
}

func TestRegisterModule_Duplicate(t *testing.T) {
	t.Cleanup(resetRegistry)

	RegisterModule(namedModule{id: "store.sqlite"})
	defer func() {
		if recover() == nil {
			t.Error("registering store.sqlite twice should panic")
		}
	}()
	RegisterModule(namedModule{id: "store.sqlite"})
}

func TestRegisterModule_NilConstructor(t *testing.T) {
	t.Cleanup(resetRegistry)

	defer func() {
		if recover() == nil {
			t.Error("a nil New should panic")
		}
	}()
	RegisterModule(nilNew{})
}

type nilNew struct{}

func (nilNew) ModuleInfo() ModuleInfo { return ModuleInfo{ID: "store.nil"} }

func TestRegistry_Namespaces(t *testing.T) {
	t.Cleanup(resetRegistry)

	for _, id := range []ModuleID{"store.sqlite", "channel.telegram", "store.postgres", "checkin.daily", "store_archive.s3"} {
		RegisterModule(namedModule{id: id})
	}

	if got, want := Namespaces(), []string{"channel", "checkin", "store", "store_archive"}; !slices.Equal(got, want) {
		t.Errorf("Namespaces() = %v, want %v", got, want)
	}

	var stores []string
	for _, info := range GetModulesByNamespace("store") {
		stores = append(stores, string(info.ID))
	}
	if want := []string{"store.postgres", "store.sqlite"}; !slices.Equal(stores, want) {
		t.Errorf("GetModulesByNamespace(store) = %v, want %v", stores, want)
	}
	if got := GetModulesByNamespace("rewards"); len(got) != 0 {
		t.Errorf("GetModulesByNamespace(rewards) = %v, want none", got)
	}

	if _, ok := GetModule("channel.telegram"); !ok {
		t.Error("GetModule(channel.telegram) not found")
	}
}
