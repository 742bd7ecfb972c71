package realtime

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "realtime.yaml")
	data := []byte(`
url: wss://rt.example.com/ws
api_base_url: https://api.example.com/api/v1
token: secret
max_connect_attempts: 7
retry_interval: 500ms
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.URL != "wss://rt.example.com/ws" || cfg.Token != "secret" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.MaxConnectAttempts != 7 || cfg.RetryInterval != 500*time.Millisecond {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	// Untouched keys keep their defaults.
	if cfg.HandshakeTimeout != 10*time.Second {
		t.Fatalf("default lost: %v", cfg.HandshakeTimeout)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
