package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Default().Validate())
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	raw := `
account:
  balance: 5000
  fee_rate: 0.002
risk:
  max_daily_trades: 4
  sizing: winrate
  trail_mode: percent
  trail_percent: 0.03
trading:
  symbols: [BTCUSDT, ETHUSDT]
  interval: 15m
journal:
  type: csv
  dir: out
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.InDelta(t, 5000, cfg.Account.Balance, 1e-9)
	assert.InDelta(t, 0.002, cfg.Account.FeeRate, 1e-9)
	assert.Equal(t, 4, cfg.Risk.MaxDailyTrades)
	assert.Equal(t, "winrate", cfg.Risk.Sizing)
	assert.Equal(t, "percent", cfg.Risk.TrailMode)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, cfg.Trading.Symbols)
	assert.Equal(t, "csv", cfg.Journal.Type)

	// Defaults fill what the file omits.
	assert.Equal(t, 3, cfg.Risk.MaxOpenTrades)
	assert.Equal(t, "ema-rsi", cfg.Strategy.Name)
}

func TestLoadFromFileErrors(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n :bad"), 0o644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero balance", func(c *Config) { c.Account.Balance = 0 }},
		{"fee rate one", func(c *Config) { c.Account.FeeRate = 1 }},
		{"total risk zero", func(c *Config) { c.Risk.MaxTotalRisk = 0 }},
		{"fraction above cap", func(c *Config) { c.Risk.RiskFraction = 0.5 }},
		{"bad sizing", func(c *Config) { c.Risk.Sizing = "martingale" }},
		{"bad trail mode", func(c *Config) { c.Risk.TrailMode = "chandelier" }},
		{"percent mode no pct", func(c *Config) { c.Risk.TrailMode = "percent"; c.Risk.TrailPercent = 0 }},
		{"no symbols", func(c *Config) { c.Trading.Symbols = nil }},
		{"bad interval", func(c *Config) { c.Trading.Interval = "7h" }},
		{"sqlite without path", func(c *Config) { c.Journal.DBPath = "" }},
		{"bad journal type", func(c *Config) { c.Journal.Type = "parquet" }},
		{"metrics without addr", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Addr = "" }},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
