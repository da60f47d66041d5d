package cmd

import (
	"fmt"

	"github.com/rustyeddy/tradekit/broker"
	"github.com/rustyeddy/tradekit/config"
	"github.com/rustyeddy/tradekit/engine"
	"github.com/rustyeddy/tradekit/journal"
	"github.com/rustyeddy/tradekit/ledger"
	"github.com/rustyeddy/tradekit/market"
	"github.com/rustyeddy/tradekit/risk"
	"github.com/rustyeddy/tradekit/strategy"
)

func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "sqlite":
		return journal.OpenSQLite(cfg.Journal.DBPath)
	case "csv":
		return journal.OpenCSV(cfg.Journal.Dir)
	default:
		return journal.Nop{}, nil
	}
}

func fractionProvider(cfg *config.Config) risk.FractionProvider {
	if cfg.Risk.Sizing == "winrate" {
		return risk.NewWinrateFraction(0)
	}
	return risk.StaticFraction(cfg.Risk.RiskFraction)
}

func strategyParams(cfg *config.Config) strategy.Params {
	s := cfg.Strategy
	return strategy.Params{
		FastPeriod: s.FastPeriod,
		SlowPeriod: s.SlowPeriod,
		RSIPeriod:  s.RSIPeriod,
		RSIMin:     s.RSIMin,
		RSIMax:     s.RSIMax,
		RSIFloor:   s.RSIFloor,
		MACDFast:   s.MACDFast,
		MACDSlow:   s.MACDSlow,
		MACDSignal: s.MACDSignal,
		ATRPeriod:  s.ATRPeriod,
	}
}

// buildEngine assembles governor, ledger, broker, journal and strategy from
// the loaded configuration.
func buildEngine(cfg *config.Config, mode engine.Mode, targetRR float64) (*engine.Engine, journal.Journal, error) {
	// Fail on a bad strategy name before wiring anything else.
	if _, err := strategy.ByName(cfg.Strategy.Name, strategyParams(cfg)); err != nil {
		return nil, nil, err
	}

	day, err := risk.NewDayManager(cfg.Trading.Timezone)
	if err != nil {
		return nil, nil, fmt.Errorf("bad timezone: %w", err)
	}

	jrn, err := openJournal(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}

	gov := risk.NewGovernor(risk.Limits{
		MaxTotalRisk:   cfg.Risk.MaxTotalRisk,
		MaxDailyLoss:   cfg.Risk.MaxDailyLoss * cfg.Account.Balance,
		MaxOpenTrades:  cfg.Risk.MaxOpenTrades,
		MaxPerSymbol:   cfg.Risk.MaxPerSymbol,
		MaxDailyTrades: cfg.Risk.MaxDailyTrades,
	})

	eng, err := engine.New(engine.Options{
		Governor: gov,
		Ledger:   ledger.New(cfg.Account.Balance),
		Broker:   broker.NewPaper(cfg.Account.FeeRate, cfg.Account.Slippage),
		Journal:  jrn,
		Sink:     engine.LogSink{},
		NewStrategy: func() strategy.Strategy {
			s, _ := strategy.ByName(cfg.Strategy.Name, strategyParams(cfg))
			return s
		},
		Trail: risk.TrailingStop{
			Mode:          risk.TrailMode(cfg.Risk.TrailMode),
			Percent:       cfg.Risk.TrailPercent,
			ATRMultiplier: cfg.Risk.ATRMultiplier,
		},
		Fractions:   fractionProvider(cfg),
		Days:        day,
		FeeRate:     cfg.Account.FeeRate,
		StopATRMult: cfg.Risk.StopATRMult,
		TargetRR:    targetRR,
		Mode:        mode,
		Interval:    market.Interval(cfg.Trading.Interval),
	})
	if err != nil {
		jrn.Close()
		return nil, nil, err
	}
	return eng, jrn, nil
}
