package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Market MarketConfig `yaml:"market"`
	Feed   FeedConfig   `yaml:"feed"`
	Store  StoreConfig  `yaml:"store"`
	Alert  AlertConfig  `yaml:"alert"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type MarketConfig struct {
	Symbols        []string `yaml:"symbols"`
	TickIntervalMs int      `yaml:"tick_interval_ms"`
	Volatility     float64  `yaml:"volatility"`
	JPYVolatility  float64  `yaml:"jpy_volatility"`
	VolumeFloor    int64    `yaml:"volume_floor"`
}

type FeedConfig struct {
	Transport            string `yaml:"transport"`
	ServerURL            string `yaml:"server_url"`
	PollIntervalMs       int    `yaml:"poll_interval_ms"`
	ReconnectBaseDelayMs int    `yaml:"reconnect_base_delay_ms"`
	MaxReconnectAttempts int    `yaml:"max_reconnect_attempts"`
	ChangeTTLMs          int    `yaml:"change_ttl_ms"`
	RequestTimeoutMs     int    `yaml:"request_timeout_ms"`
}

type StoreConfig struct {
	SqlitePath string `yaml:"sqlite_path"`
}

type AlertConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MediumPct   float64       `yaml:"medium_pct"`
	HighPct     float64       `yaml:"high_pct"`
	CooldownSec int           `yaml:"cooldown_sec"`
	RateLimit   RateLimit     `yaml:"rate_limit"`
	Webhook     WebhookConfig `yaml:"webhook"`
}

type RateLimit struct {
	PerMinute int `yaml:"per_minute"`
	Burst     int `yaml:"burst"`
}

type WebhookConfig struct {
	URL       string `yaml:"url"`
	Secret    string `yaml:"secret"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// Load reads the yaml config at path, filling defaults first so a partial
// file is fine. A missing file just yields the defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Port: 3001},
		Market: MarketConfig{
			TickIntervalMs: 1000,
			Volatility:     0.0008,
			JPYVolatility:  0.002,
			VolumeFloor:    100000,
		},
		Feed: FeedConfig{
			Transport:            "local",
			ServerURL:            "http://localhost:3001",
			PollIntervalMs:       1000,
			ReconnectBaseDelayMs: 2000,
			MaxReconnectAttempts: 5,
			ChangeTTLMs:          2000,
			RequestTimeoutMs:     5000,
		},
		Alert: AlertConfig{
			MediumPct:   0.3,
			HighPct:     0.8,
			CooldownSec: 300,
			RateLimit:   RateLimit{PerMinute: 20, Burst: 5},
			Webhook:     WebhookConfig{TimeoutMs: 5000},
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FEED_TRANSPORT"); v != "" {
		cfg.Feed.Transport = v
	}
	if v := os.Getenv("FEED_SERVER_URL"); v != "" {
		cfg.Feed.ServerURL = v
	}
	if v := os.Getenv("ALERT_WEBHOOK_URL"); v != "" {
		cfg.Alert.Webhook.URL = v
	}
	if v := os.Getenv("ALERT_WEBHOOK_SECRET"); v != "" {
		cfg.Alert.Webhook.Secret = v
	}
}

func validate(cfg *Config) error {
	switch cfg.Feed.Transport {
	case "local", "poll", "push":
	default:
		return fmt.Errorf("unknown feed transport %q", cfg.Feed.Transport)
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	if cfg.Market.TickIntervalMs <= 0 {
		return fmt.Errorf("tick_interval_ms must be positive")
	}
	return nil
}
