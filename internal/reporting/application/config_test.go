package application

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("REPORTING_CONFIG", "")
	t.Setenv("REPORTING_MAIN_CLIENTS", "main-1, main-2,")
	t.Setenv("REPORT_LOCK_TTL", "")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Limits.MaxSubClients != 10 || cfg.Limits.MaxPeriodMonths != 36 || cfg.Schedule.DailyAt != "03:00" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if len(cfg.Schedule.MainClients) != 2 || cfg.Schedule.MainClients[1] != "main-2" {
		t.Fatalf("unexpected main clients %v", cfg.Schedule.MainClients)
	}
}

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reporting.yaml")
	data := []byte(`
limits:
  max_sub_clients: 5
schedule:
  daily_at: "04:30"
  main_clients: [main-9]
lock:
  ttl: 90s
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("REPORTING_CONFIG", path)
	t.Setenv("REPORTING_MAIN_CLIENTS", "ignored")
	t.Setenv("REPORT_LOCK_WAIT", "5s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Limits.MaxSubClients != 5 || cfg.Limits.MaxPeriodMonths != 36 {
		t.Fatalf("unexpected limits %+v", cfg.Limits)
	}
	if cfg.Schedule.DailyAt != "04:30" || len(cfg.Schedule.MainClients) != 1 || cfg.Schedule.MainClients[0] != "main-9" {
		t.Fatalf("unexpected schedule %+v", cfg.Schedule)
	}
	if cfg.Lock.TTL != 90*time.Second || cfg.Lock.Wait != 5*time.Second {
		t.Fatalf("unexpected lock %+v", cfg.Lock)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Schedule.DailyAt = "25:99"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected invalid daily_at")
	}
	cfg = DefaultConfig()
	cfg.Limits.MaxSubClients = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected invalid max_sub_clients")
	}
}
