// Package config loads and validates the toolkit configuration from YAML,
// with secrets overlaid from a .env file.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/tradekit/market"
)

// Config is the complete session configuration shared by backtests and
// live runs.
type Config struct {
	Account  AccountConfig  `yaml:"account"`
	Risk     RiskConfig     `yaml:"risk"`
	Strategy StrategyConfig `yaml:"strategy"`
	Trading  TradingConfig  `yaml:"trading"`
	Journal  JournalConfig  `yaml:"journal"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// AccountConfig holds the starting balance and fee model.
type AccountConfig struct {
	Balance  float64 `yaml:"balance"`
	FeeRate  float64 `yaml:"fee_rate"`
	Slippage float64 `yaml:"slippage"`
}

// RiskConfig mirrors the governor limits plus sizing and trailing settings.
type RiskConfig struct {
	MaxTotalRisk   float64 `yaml:"max_total_risk"`
	MaxDailyLoss   float64 `yaml:"max_daily_loss"`
	MaxOpenTrades  int     `yaml:"max_open_trades"`
	MaxPerSymbol   int     `yaml:"max_per_symbol"`
	MaxDailyTrades int     `yaml:"max_daily_trades"`

	// Sizing: "static" uses risk_fraction, "winrate" adapts per symbol.
	Sizing       string  `yaml:"sizing"`
	RiskFraction float64 `yaml:"risk_fraction"`

	TrailMode     string  `yaml:"trail_mode"` // "atr" or "percent"
	TrailPercent  float64 `yaml:"trail_percent"`
	ATRMultiplier float64 `yaml:"atr_multiplier"`
	StopATRMult   float64 `yaml:"stop_atr_mult"` // initial stop distance in ATRs
}

// StrategyConfig names the strategy and its indicator parameters.
type StrategyConfig struct {
	Name       string  `yaml:"name"`
	FastPeriod int     `yaml:"fast_period"`
	SlowPeriod int     `yaml:"slow_period"`
	RSIPeriod  int     `yaml:"rsi_period"`
	RSIMin     float64 `yaml:"rsi_min"`
	RSIMax     float64 `yaml:"rsi_max"`
	RSIFloor   float64 `yaml:"rsi_floor"`
	MACDFast   int     `yaml:"macd_fast"`
	MACDSlow   int     `yaml:"macd_slow"`
	MACDSignal int     `yaml:"macd_signal"`
	ATRPeriod  int     `yaml:"atr_period"`
}

// TradingConfig selects the symbols, timeframe and session timezone.
type TradingConfig struct {
	Symbols  []string          `yaml:"symbols"`
	Interval string            `yaml:"interval"`
	Timezone string            `yaml:"timezone"`
	Data     map[string]string `yaml:"data,omitempty"` // symbol -> csv path, backtests only
}

// JournalConfig selects the journal backend.
type JournalConfig struct {
	Type   string `yaml:"type"` // "sqlite", "csv" or "none"
	DBPath string `yaml:"db_path,omitempty"`
	Dir    string `yaml:"dir,omitempty"`
}

// MetricsConfig controls the /metrics endpoint for live sessions.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns a runnable configuration for paper trading BTCUSDT.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Balance: 10000,
			FeeRate: 0.001,
		},
		Risk: RiskConfig{
			MaxTotalRisk:   0.06,
			MaxDailyLoss:   0.03,
			MaxOpenTrades:  3,
			MaxPerSymbol:   1,
			MaxDailyTrades: 10,
			Sizing:         "static",
			RiskFraction:   0.01,
			TrailMode:      "atr",
			ATRMultiplier:  2,
			StopATRMult:    2,
		},
		Strategy: StrategyConfig{
			Name: "ema-rsi",
		},
		Trading: TradingConfig{
			Symbols:  []string{"BTCUSDT"},
			Interval: "1h",
			Timezone: "UTC",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "tradekit.db",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9102",
		},
	}
}

// LoadFromFile reads a YAML config, fills unset fields from Default and
// validates the result. A .env file next to the process, if present, is
// loaded first so ${VAR} style secrets resolve from the environment.
func LoadFromFile(path string) (*Config, error) {
	// Missing .env is fine; it only carries optional secrets.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Account.Balance <= 0 {
		return fmt.Errorf("account.balance must be positive")
	}
	if c.Account.FeeRate < 0 || c.Account.FeeRate >= 1 {
		return fmt.Errorf("account.fee_rate must be in [0, 1)")
	}

	if c.Risk.MaxTotalRisk <= 0 || c.Risk.MaxTotalRisk > 1 {
		return fmt.Errorf("risk.max_total_risk must be in (0, 1]")
	}
	if c.Risk.MaxDailyLoss <= 0 {
		return fmt.Errorf("risk.max_daily_loss must be positive")
	}
	if c.Risk.MaxOpenTrades <= 0 {
		return fmt.Errorf("risk.max_open_trades must be positive")
	}
	if c.Risk.MaxDailyTrades <= 0 {
		return fmt.Errorf("risk.max_daily_trades must be positive")
	}
	switch c.Risk.Sizing {
	case "static":
		if c.Risk.RiskFraction <= 0 || c.Risk.RiskFraction > c.Risk.MaxTotalRisk {
			return fmt.Errorf("risk.risk_fraction must be in (0, max_total_risk]")
		}
	case "winrate":
	default:
		return fmt.Errorf("risk.sizing must be \"static\" or \"winrate\", got %q", c.Risk.Sizing)
	}
	switch c.Risk.TrailMode {
	case "atr":
		if c.Risk.ATRMultiplier <= 0 {
			return fmt.Errorf("risk.atr_multiplier must be positive")
		}
	case "percent":
		if c.Risk.TrailPercent <= 0 || c.Risk.TrailPercent >= 1 {
			return fmt.Errorf("risk.trail_percent must be in (0, 1)")
		}
	default:
		return fmt.Errorf("risk.trail_mode must be \"atr\" or \"percent\", got %q", c.Risk.TrailMode)
	}
	if c.Risk.StopATRMult <= 0 {
		return fmt.Errorf("risk.stop_atr_mult must be positive")
	}

	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}

	if len(c.Trading.Symbols) == 0 {
		return fmt.Errorf("trading.symbols is required")
	}
	if !market.Interval(c.Trading.Interval).Valid() {
		return fmt.Errorf("trading.interval %q is not supported", c.Trading.Interval)
	}

	switch c.Journal.Type {
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path is required for sqlite journals")
		}
	case "csv":
		if c.Journal.Dir == "" {
			return fmt.Errorf("journal.dir is required for csv journals")
		}
	case "none":
	default:
		return fmt.Errorf("journal.type must be \"sqlite\", \"csv\" or \"none\", got %q", c.Journal.Type)
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics are enabled")
	}
	return nil
}
