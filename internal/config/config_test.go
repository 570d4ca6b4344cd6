package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8090, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "^NSEI", cfg.BenchmarkSymbol)
	assert.Equal(t, "@daily", cfg.PriceSyncSpec)
	assert.InDelta(t, 1000.0, cfg.ExtremeLossNPV, 1e-9)
	assert.True(t, len(cfg.DataDir) > 0 && cfg.DataDir[0] == '/', "data dir must be absolute")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("XIRR_PORT", "9999")
	t.Setenv("XIRR_LOG_LEVEL", "debug")
	t.Setenv("XIRR_EXTREME_LOSS_NPV", "250")
	t.Setenv("XIRR_DEV_MODE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.InDelta(t, 250.0, cfg.ExtremeLossNPV, 1e-9)
	assert.True(t, cfg.DevMode)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("XIRR_PORT", "not-a-number")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_NonPositiveExtremeLoss(t *testing.T) {
	t.Setenv("XIRR_EXTREME_LOSS_NPV", "0")
	_, err := Load()
	assert.Error(t, err)
}

func TestPriceDBPath(t *testing.T) {
	t.Setenv("XIRR_DATA_DIR", "/tmp/xirrdata")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xirrdata/prices.db", cfg.PriceDBPath())
}
