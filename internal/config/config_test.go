package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8090, cfg.ServerPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 3, cfg.ConfirmationBars)
	assert.InDelta(t, 0.045, cfg.RiskFreeRate, 1e-9)
	assert.InDelta(t, 0.25, cfg.RepairDeltaThreshold, 1e-9)
	assert.InDelta(t, 0.10, cfg.RepairLossRatio, 1e-9)
	assert.Equal(t, []string{"SPY"}, cfg.Watchlist)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 500, cfg.BarHistory)
	assert.True(t, filepath.IsAbs(cfg.DataDir))
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("WATCHLIST", "SPY, QQQ ,IWM")
	t.Setenv("CONFIRMATION_BARS", "5")
	t.Setenv("LOG_PRETTY", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.ServerPort)
	assert.Equal(t, []string{"SPY", "QQQ", "IWM"}, cfg.Watchlist)
	assert.Equal(t, 5, cfg.ConfirmationBars)
	assert.True(t, cfg.LogPretty)
}

func TestLoad_UnparseableFallsBackToDefault(t *testing.T) {
	t.Setenv("WORKERS", "many")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Workers)
}

func TestValidate_Failures(t *testing.T) {
	base := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	t.Run("bad port", func(t *testing.T) {
		cfg := base()
		cfg.ServerPort = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("confirmation bars below one", func(t *testing.T) {
		cfg := base()
		cfg.ConfirmationBars = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("rate out of range", func(t *testing.T) {
		cfg := base()
		cfg.RiskFreeRate = 0.5
		assert.Error(t, cfg.Validate())
	})

	t.Run("empty watchlist", func(t *testing.T) {
		cfg := base()
		cfg.Watchlist = nil
		assert.Error(t, cfg.Validate())
	})

	t.Run("short bar history", func(t *testing.T) {
		cfg := base()
		cfg.BarHistory = 30
		assert.Error(t, cfg.Validate())
	})
}

func TestDBPaths(t *testing.T) {
	cfg := &Config{DataDir: "/var/lib/optioneer"}
	assert.Equal(t, "/var/lib/optioneer/models.db", cfg.ModelsDBPath())
	assert.Equal(t, "/var/lib/optioneer/snapshots.db", cfg.SnapshotsDBPath())
}
