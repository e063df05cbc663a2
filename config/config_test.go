package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 20*time.Minute, cfg.Settlement.Window)
	assert.Equal(t, "KES", cfg.Settlement.Currency)
	assert.Equal(t, 6*time.Hour, cfg.Settlement.MaxGameDuration)
	assert.Equal(t, time.Minute, cfg.Settlement.RunTimeout)
	assert.Equal(t, 3, cfg.Settlement.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.Archive.Timeout)
	assert.Equal(t, "live", cfg.Archive.Mode)
	assert.Equal(t, "https://api.chess.com/pub", cfg.Archive.BaseURL)
	assert.Equal(t, 50, cfg.Poller.BatchSize)
	assert.False(t, cfg.Discord.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("SETTLEMENT_WINDOW", "30m")
	t.Setenv("ARCHIVE_MODE", "fixture")
	t.Setenv("ARCHIVE_FIXTURE_PATH", "testdata/games.json")
	t.Setenv("POLLER_ENABLED", "false")
	t.Setenv("SETTLEMENT_MAX_ATTEMPTS", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Settlement.Window)
	assert.Equal(t, "fixture", cfg.Archive.Mode)
	assert.Equal(t, "testdata/games.json", cfg.Archive.FixturePath)
	assert.False(t, cfg.Poller.Enabled)
	assert.Equal(t, 5, cfg.Settlement.MaxAttempts)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DatabaseURL: "postgres://localhost/chesswager",
			Archive:     ArchiveConfig{Mode: "live", BaseURL: "https://api.chess.com/pub", Timeout: 10 * time.Second},
			Settlement: SettlementConfig{
				Window:          20 * time.Minute,
				Currency:        "KES",
				MaxGameDuration: 6 * time.Hour,
				RunTimeout:      time.Minute,
				MaxAttempts:     3,
			},
			Poller:      PollerConfig{Enabled: true, Interval: time.Minute},
			Environment: "production",
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("archive timeout above ten seconds", func(t *testing.T) {
		cfg := valid()
		cfg.Archive.Timeout = 30 * time.Second
		assert.Error(t, cfg.Validate())
	})

	t.Run("fixture mode without path", func(t *testing.T) {
		cfg := valid()
		cfg.Archive.Mode = "fixture"
		assert.ErrorContains(t, cfg.Validate(), "fixture_path")
	})

	t.Run("unknown archive mode", func(t *testing.T) {
		cfg := valid()
		cfg.Archive.Mode = "carrier-pigeon"
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero window", func(t *testing.T) {
		cfg := valid()
		cfg.Settlement.Window = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero max attempts", func(t *testing.T) {
		cfg := valid()
		cfg.Settlement.MaxAttempts = 0
		assert.ErrorContains(t, cfg.Validate(), "max_attempts")
	})

	t.Run("zero max game duration", func(t *testing.T) {
		cfg := valid()
		cfg.Settlement.MaxGameDuration = 0
		assert.ErrorContains(t, cfg.Validate(), "max_game_duration")
	})

	t.Run("run timeout shorter than a fetch", func(t *testing.T) {
		cfg := valid()
		cfg.Settlement.RunTimeout = 5 * time.Second
		assert.ErrorContains(t, cfg.Validate(), "run_timeout")
	})

	t.Run("discord without token", func(t *testing.T) {
		cfg := valid()
		cfg.Discord.Enabled = true
		assert.ErrorContains(t, cfg.Validate(), "discord.token")
	})

	t.Run("missing database url outside tests", func(t *testing.T) {
		cfg := valid()
		cfg.DatabaseURL = ""
		assert.ErrorContains(t, cfg.Validate(), "DATABASE_URL")
	})
}
