package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dailyclaim.yaml")
	content := "version: \"1\"\nlog:\n  level: error\nmodules:\n  store.sqlite: {}\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAccountsLifecycle(t *testing.T) {
	cfg := writeConfig(t)
	dataDir := t.TempDir()
	base := []string{"--config", cfg, "--data-dir", dataDir}

	out, err := execute(t, "tok-from-stdin\n", append([]string{"accounts", "add", "1001", "--owner", "42", "--sub-profile", "800000001,800000002"}, base...)...)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "Account 1001 linked to owner 42 (2 sub-profiles)") {
		t.Errorf("add output = %q", out)
	}

	out, err = execute(t, "", append([]string{"accounts", "list"}, base...)...)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "1001") || !strings.Contains(out, "800000001,800000002") || !strings.Contains(out, "true") {
		t.Errorf("list output = %q", out)
	}
	if strings.Contains(out, "tok-from-stdin") {
		t.Error("list printed the token")
	}

	if _, err := execute(t, "", append([]string{"accounts", "remove", "1001"}, base...)...); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := execute(t, "", append([]string{"accounts", "remove", "1001"}, base...)...); err == nil {
		t.Error("removing an absent account should fail")
	}
}

func TestAccountsAddRefreshKeepsSubProfiles(t *testing.T) {
	cfg := writeConfig(t)
	dataDir := t.TempDir()
	base := []string{"--config", cfg, "--data-dir", dataDir}

	if _, err := execute(t, "", append([]string{"accounts", "add", "1001", "--owner", "42", "--token", "old", "--sub-profile", "800000001,800000002"}, base...)...); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, err := execute(t, "", append([]string{"accounts", "add", "1001", "--owner", "42", "--token", "new"}, base...)...)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !strings.Contains(out, "(2 sub-profiles)") {
		t.Errorf("refresh output = %q, want the stored sub-profiles kept", out)
	}

	out, err = execute(t, "", append([]string{"accounts", "list"}, base...)...)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "800000001,800000002") {
		t.Errorf("list output = %q, want sub-profiles intact", out)
	}

	out, err = execute(t, "", append([]string{"accounts", "add", "1001", "--owner", "42", "--token", "new", "--sub-profile="}, base...)...)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !strings.Contains(out, "(0 sub-profiles)") {
		t.Errorf("clear output = %q, want the list emptied", out)
	}
}

func TestAccountsAddRequiresOwner(t *testing.T) {
	_, err := execute(t, "tok\n", "accounts", "add", "1001", "--config", writeConfig(t), "--data-dir", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "--owner") {
		t.Fatalf("err = %v, want --owner error", err)
	}
}

func TestAccountsAddEmptyStdin(t *testing.T) {
	_, err := execute(t, "", "accounts", "add", "1001", "--owner", "42", "--config", writeConfig(t), "--data-dir", t.TempDir())
	if err == nil {
		t.Fatal("expected an error without a token")
	}
}

func TestConfigCheck(t *testing.T) {
	out, err := execute(t, "", "config", "check", writeConfig(t), "--data-dir", t.TempDir())
	if err != nil {
		t.Fatalf("config check: %v", err)
	}
	if !strings.Contains(out, "Configuration OK") || !strings.Contains(out, "store.sqlite") {
		t.Errorf("output = %q", out)
	}
}

func TestRunOnceRequiresCheckinModule(t *testing.T) {
	_, err := execute(t, "", "run-once", "--config", writeConfig(t), "--data-dir", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "checkin.daily") {
		t.Fatalf("err = %v, want missing checkin.daily", err)
	}
}
