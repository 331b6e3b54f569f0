package hoyolab

import (
	"strings"
	"testing"
	"time"

	"github.com/flemzord/dailyclaim/internal/checkin"
	"github.com/flemzord/dailyclaim/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gopkg.in/yaml.v3"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "defaults"},
		{name: "bad reward url", cfg: Config{RewardURL: "ftp://x"}, wantErr: "reward_url"},
		{name: "bad record url", cfg: Config{RecordURL: "nohost"}, wantErr: "record_url"},
		{name: "long timeout", cfg: Config{Timeout: time.Hour}, wantErr: "timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := tt.cfg
			cfg.defaults()
			err := cfg.validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("validate() = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("validate() = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestModuleProvision(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	appCtx := core.NewAppContext(nil, t.TempDir())
	appCtx.RegisterService("metrics.registry", reg)

	var node yaml.Node
	if err := yaml.Unmarshal([]byte("lang: de-de\nbreaker:\n  max_failures: 3\n"), &node); err != nil {
		t.Fatal(err)
	}

	m := &Module{}
	if err := m.Configure(node.Content[0]); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := m.Provision(appCtx); err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if m.config.Lang != "de-de" || m.config.Breaker.MaxFailures != 3 || m.config.RewardURL != defaultRewardURL {
		t.Errorf("config = %+v", m.config)
	}
	svc, ok := appCtx.GetService("rewards.client")
	if !ok {
		t.Fatal("rewards.client not registered")
	}
	if _, ok := svc.(checkin.RewardClient); !ok {
		t.Errorf("rewards.client is %T", svc)
	}
	if m.RewardClient() == nil {
		t.Error("RewardClient() = nil")
	}
	if n, err := testutil.GatherAndCount(reg, "dailyclaim_rewards_breaker_state"); err != nil || n != 1 {
		t.Errorf("breaker_state series = %d (%v), want 1", n, err)
	}
}
