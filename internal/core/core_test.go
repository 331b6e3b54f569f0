package core

import (
	"context"
	"errors"
	"testing"
)

// lifecycleModule records Start/Stop calls in a shared journal.
type lifecycleModule struct {
	id       ModuleID
	journal  *[]string
	startErr error
}

func (m *lifecycleModule) ModuleInfo() ModuleInfo {
	return ModuleInfo{
		ID: m.id,
		New: func() Module {
			return &lifecycleModule{id: m.id, journal: m.journal, startErr: m.startErr}
		},
	}
}

func (m *lifecycleModule) Start() error {
	*m.journal = append(*m.journal, "start:"+string(m.id))
	return m.startErr
}

func (m *lifecycleModule) Stop(_ context.Context) error {
	*m.journal = append(*m.journal, "stop:"+string(m.id))
	return nil
}

func TestApp_StartStopOrder(t *testing.T) {
	t.Cleanup(resetRegistry)

	var journal []string
	RegisterModule(&lifecycleModule{id: "test.a", journal: &journal})
	RegisterModule(&lifecycleModule{id: "test.b", journal: &journal})

	app := NewApp(NewAppContext(nil, t.TempDir()))
	if err := app.LoadModules([]string{"test.a", "test.b"}); err != nil {
		t.Fatalf("LoadModules: %v", err)
	}
	if err := app.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	app.Stop()

	want := []string{"start:test.a", "start:test.b", "stop:test.b", "stop:test.a"}
	if len(journal) != len(want) {
		t.Fatalf("journal = %v, want %v", journal, want)
	}
	for i := range want {
		if journal[i] != want[i] {
			t.Errorf("journal[%d] = %q, want %q", i, journal[i], want[i])
		}
	}
}

func TestApp_StopWithoutStartReleasesModules(t *testing.T) {
	t.Cleanup(resetRegistry)

	var journal []string
	RegisterModule(&lifecycleModule{id: "test.db", journal: &journal})

	app := NewApp(NewAppContext(nil, t.TempDir()))
	if err := app.LoadModules([]string{"test.db"}); err != nil {
		t.Fatalf("LoadModules: %v", err)
	}
	app.Stop()

	if len(journal) != 1 || journal[0] != "stop:test.db" {
		t.Errorf("journal = %v, want [stop:test.db]", journal)
	}
}

func TestApp_StartFailureStopsStartedModules(t *testing.T) {
	t.Cleanup(resetRegistry)

	var journal []string
	RegisterModule(&lifecycleModule{id: "test.ok", journal: &journal})
	RegisterModule(&lifecycleModule{id: "test.bad", journal: &journal, startErr: errors.New("boom")})

	app := NewApp(NewAppContext(nil, t.TempDir()))
	if err := app.LoadModules([]string{"test.ok", "test.bad"}); err != nil {
		t.Fatalf("LoadModules: %v", err)
	}
	if err := app.Start(); err == nil {
		t.Fatal("expected start error")
	}

	want := []string{"start:test.ok", "start:test.bad", "stop:test.ok"}
	if len(journal) != len(want) {
		t.Fatalf("journal = %v, want %v", journal, want)
	}
	for i := range want {
		if journal[i] != want[i] {
			t.Errorf("journal[%d] = %q, want %q", i, journal[i], want[i])
		}
	}
}

func TestApp_Module(t *testing.T) {
	t.Cleanup(resetRegistry)

	var journal []string
	RegisterModule(&lifecycleModule{id: "test.lookup", journal: &journal})

	app := NewApp(NewAppContext(nil, t.TempDir()))
	if err := app.LoadModules([]string{"test.lookup"}); err != nil {
		t.Fatalf("LoadModules: %v", err)
	}
	if _, ok := app.Module("test.lookup"); !ok {
		t.Error("expected loaded module to be found")
	}
	if _, ok := app.Module("test.missing"); ok {
		t.Error("unexpected module found")
	}
	if n := len(app.Modules()); n != 1 {
		t.Errorf("Modules() len = %d, want 1", n)
	}
}
