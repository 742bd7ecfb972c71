package realtime

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config controls how the SDK connects.
type Config struct {
	// URL is the WebSocket endpoint of the realtime backend.
	URL string
	// APIBaseURL is the REST API base, e.g. "https://api.example.com/api/v1".
	APIBaseURL string
	// Token is the bearer token sent in the hello frame.
	Token string

	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration

	// MaxConnectAttempts caps dial attempts before the manager gives
	// up and leaves the session closed. Retries use a fixed interval.
	MaxConnectAttempts int
	RetryInterval      time.Duration

	// WriteQueueSize bounds the outgoing frame queue.
	WriteQueueSize int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout:   10 * time.Second,
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       10 * time.Second,
		MaxConnectAttempts: 5,
		RetryInterval:      2 * time.Second,
		WriteQueueSize:     16,
	}
}

// fileConfig is the YAML shape of a config file. Durations are
// strings in time.ParseDuration form ("500ms", "10s").
type fileConfig struct {
	URL                string `yaml:"url"`
	APIBaseURL         string `yaml:"api_base_url"`
	Token              string `yaml:"token"`
	HandshakeTimeout   string `yaml:"handshake_timeout"`
	ReadTimeout        string `yaml:"read_timeout"`
	WriteTimeout       string `yaml:"write_timeout"`
	MaxConnectAttempts int    `yaml:"max_connect_attempts"`
	RetryInterval      string `yaml:"retry_interval"`
	WriteQueueSize     int    `yaml:"write_queue_size"`
}

// LoadConfig reads a YAML config file on top of DefaultConfig. Keys
// absent from the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if fc.URL != "" {
		cfg.URL = fc.URL
	}
	if fc.APIBaseURL != "" {
		cfg.APIBaseURL = fc.APIBaseURL
	}
	if fc.Token != "" {
		cfg.Token = fc.Token
	}
	if fc.MaxConnectAttempts > 0 {
		cfg.MaxConnectAttempts = fc.MaxConnectAttempts
	}
	if fc.WriteQueueSize > 0 {
		cfg.WriteQueueSize = fc.WriteQueueSize
	}
	for _, d := range []struct {
		raw  string
		key  string
		dest *time.Duration
	}{
		{fc.HandshakeTimeout, "handshake_timeout", &cfg.HandshakeTimeout},
		{fc.ReadTimeout, "read_timeout", &cfg.ReadTimeout},
		{fc.WriteTimeout, "write_timeout", &cfg.WriteTimeout},
		{fc.RetryInterval, "retry_interval", &cfg.RetryInterval},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return cfg, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dest = v
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.URL == "" {
		return NewError(ErrorInvalidConfig, "empty URL")
	}
	if c.MaxConnectAttempts <= 0 {
		return NewError(ErrorInvalidConfig, "max_connect_attempts must be positive")
	}
	return nil
}
