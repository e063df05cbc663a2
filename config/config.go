package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string `mapstructure:"database_url"`
	DatabaseName string `mapstructure:"database_name"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // "text" or "json"

	// HTTP API
	HTTPAddr string `mapstructure:"http_addr"`

	Archive    ArchiveConfig    `mapstructure:"archive"`
	Settlement SettlementConfig `mapstructure:"settlement"`
	Poller     PollerConfig     `mapstructure:"poller"`
	Discord    DiscordConfig    `mapstructure:"discord"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`

	// Environment
	Environment string `mapstructure:"environment"` // "development", "production" or "test"
}

// ArchiveConfig selects and tunes the game archive source
type ArchiveConfig struct {
	Mode        string        `mapstructure:"mode"` // "live" or "fixture"
	BaseURL     string        `mapstructure:"base_url"`
	FixturePath string        `mapstructure:"fixture_path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
}

// SettlementConfig holds matching and ledger settings
type SettlementConfig struct {
	Window          time.Duration `mapstructure:"window"`
	Currency        string        `mapstructure:"currency"`
	MaxGameDuration time.Duration `mapstructure:"max_game_duration"`
	RunTimeout      time.Duration `mapstructure:"run_timeout"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
}

// PollerConfig controls the background resolution of accepted wagers
type PollerConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	MinAge    time.Duration `mapstructure:"min_age"`
	MaxAge    time.Duration `mapstructure:"max_age"`
	BatchSize int           `mapstructure:"batch_size"`
}

// DiscordConfig enables direct-message notifications
type DiscordConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
}

// NATSConfig enables publishing settlement events to JetStream
type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Stream  string `mapstructure:"stream"`
}

// MetricsConfig controls OpenTelemetry metrics
type MetricsConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ExporterType   string        `mapstructure:"exporter_type"` // "console" or "none"
	ExportInterval time.Duration `mapstructure:"export_interval"`
	ServiceName    string        `mapstructure:"service_name"`
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = Load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// Load reads configuration from the environment (and an optional .env file).
// Nested keys map to env vars with underscores, e.g. ARCHIVE_TIMEOUT or POLLER_INTERVAL.
func Load() (*Config, error) {
	// A missing .env file is fine
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Every key needs a default so AutomaticEnv can see it during Unmarshal
	v.SetDefault("database_url", "")
	v.SetDefault("database_name", "")
	v.SetDefault("environment", "development")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetDefault("http_addr", ":8080")

	v.SetDefault("archive.mode", "live")
	v.SetDefault("archive.base_url", "https://api.chess.com/pub")
	v.SetDefault("archive.fixture_path", "")
	v.SetDefault("archive.timeout", "10s")
	v.SetDefault("archive.user_agent", "chesswager/1.0")

	v.SetDefault("settlement.window", "20m")
	v.SetDefault("settlement.currency", "KES")
	v.SetDefault("settlement.max_game_duration", "6h")
	v.SetDefault("settlement.run_timeout", "1m")
	v.SetDefault("settlement.max_attempts", 3)

	v.SetDefault("poller.enabled", true)
	v.SetDefault("poller.interval", "2m")
	v.SetDefault("poller.min_age", "5m")
	v.SetDefault("poller.max_age", "72h")
	v.SetDefault("poller.batch_size", 50)

	v.SetDefault("discord.enabled", false)
	v.SetDefault("discord.token", "")

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.stream", "CHESSWAGER")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.exporter_type", "console")
	v.SetDefault("metrics.export_interval", "30s")
	v.SetDefault("metrics.service_name", "chesswager")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values
func (c *Config) Validate() error {
	if c.Settlement.Window <= 0 {
		return fmt.Errorf("settlement.window must be greater than zero")
	}
	if c.Settlement.Currency == "" {
		return fmt.Errorf("settlement.currency is required")
	}
	if c.Settlement.MaxGameDuration <= 0 {
		return fmt.Errorf("settlement.max_game_duration must be greater than zero")
	}
	if c.Settlement.MaxAttempts < 1 {
		return fmt.Errorf("settlement.max_attempts must be at least 1")
	}
	if c.Settlement.RunTimeout < c.Archive.Timeout {
		return fmt.Errorf("settlement.run_timeout must be at least archive.timeout, got %s", c.Settlement.RunTimeout)
	}
	if c.Archive.Timeout <= 0 || c.Archive.Timeout > 10*time.Second {
		return fmt.Errorf("archive.timeout must be between 0 and 10s, got %s", c.Archive.Timeout)
	}
	switch c.Archive.Mode {
	case "live":
		if c.Archive.BaseURL == "" {
			return fmt.Errorf("archive.base_url is required in live mode")
		}
	case "fixture":
		if c.Archive.FixturePath == "" {
			return fmt.Errorf("archive.fixture_path is required in fixture mode")
		}
	default:
		return fmt.Errorf("unknown archive.mode: %s", c.Archive.Mode)
	}
	if c.Poller.Enabled && c.Poller.Interval <= 0 {
		return fmt.Errorf("poller.interval must be greater than zero")
	}
	if c.Discord.Enabled && c.Discord.Token == "" {
		return fmt.Errorf("discord.token is required when discord notifications are enabled")
	}

	if c.Environment != "test" {
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	}
	return nil
}
