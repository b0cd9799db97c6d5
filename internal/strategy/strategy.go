// Package strategy holds the decision units that turn market events into signals.
package strategy

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-router/internal/config"
	"github.com/rxtech-lab/argo-router/internal/logger"
	"github.com/rxtech-lab/argo-router/internal/types"
	"github.com/rxtech-lab/argo-router/pkg/errors"
)

// Strategy is a long-running unit. The Handle methods only enqueue; all decision
// logic runs inside Run on the strategy's own goroutine.
type Strategy interface {
	Name() string
	Kind() types.StrategyKind
	HandleQuotes(ctx context.Context, quotes []types.Quote) error
	HandleTrades(ctx context.Context, trades []types.Trade) error
	HandleBars(ctx context.Context, bars []types.Bar) error
	// Run drains the inbound queues until ctx ends. It may be called again after
	// it returns an error; queued events and state are kept.
	Run(ctx context.Context) error
	// Close rejects further events.
	Close()
	Stats() Stats
}

// SignalHandler receives emitted signals. The engine implements it.
type SignalHandler interface {
	HandleSignals(ctx context.Context, signals []types.Signal) error
}

// History supplies seed closes, oldest first.
type History interface {
	QueryRecentCloses(ctx context.Context, symbol string, count int) ([]float64, error)
}

// AccountProvider reports the balances of a venue account.
type AccountProvider interface {
	AccountInfo(ctx context.Context, venue types.Venue) (types.AccountInfo, error)
}

// Deps are the collaborators every strategy is built with.
type Deps struct {
	Signals      SignalHandler
	History      History
	Accounts     AccountProvider
	Logger       *logger.Logger
	PollInterval time.Duration
}

// Constructor builds a strategy from its configuration.
type Constructor func(ctx context.Context, cfg config.StrategyConfig, deps Deps) (Strategy, error)

// New builds the strategy variant named by cfg.Kind.
func New(ctx context.Context, cfg config.StrategyConfig, deps Deps) (Strategy, error) {
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}

	if deps.PollInterval <= 0 {
		deps.PollInterval = time.Second
	}

	switch cfg.Kind {
	case types.StrategyKindSMACrossover:
		if cfg.SMACrossover == nil {
			return nil, errors.Newf(errors.ErrCodeStrategyConstruction, "strategy %s has no sma_crossover params", cfg.Name)
		}

		return NewSMACrossover(ctx, cfg, *cfg.SMACrossover, deps)
	case types.StrategyKindRSIThreshold:
		if cfg.RSIThreshold == nil {
			return nil, errors.Newf(errors.ErrCodeStrategyConstruction, "strategy %s has no rsi_threshold params", cfg.Name)
		}

		return NewRSIThreshold(ctx, cfg, *cfg.RSIThreshold, deps)
	case types.StrategyKindNoop:
		return NewNoop(cfg, deps), nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy type %q", cfg.Kind)
	}
}

// Stats counts what a strategy has seen and done.
type Stats struct {
	Quotes         uint64 `yaml:"quotes"`
	Trades         uint64 `yaml:"trades"`
	Bars           uint64 `yaml:"bars"`
	Dropped        uint64 `yaml:"dropped"`
	Signals        uint64 `yaml:"signals"`
	SizingFailures uint64 `yaml:"sizing_failures"`
}

// instrument keys per-instrument state. The same symbol on two venues is two instruments.
type instrument struct {
	venue  types.Venue
	symbol string
}

func instruments(cfg config.StrategyConfig) []instrument {
	out := make([]instrument, 0, len(cfg.Venues)*len(cfg.Symbols))

	for _, v := range cfg.Venues {
		for _, s := range cfg.Symbols {
			out = append(out, instrument{venue: v, symbol: s})
		}
	}

	return out
}

// seedCloses fetches the last count closes of symbol, oldest first.
func seedCloses(ctx context.Context, history History, symbol string, count int) ([]float64, error) {
	if history == nil {
		return nil, nil
	}

	closes, err := history.QueryRecentCloses(ctx, symbol, count)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStrategySeedFailed, err, "failed to seed %s", symbol)
	}

	if len(closes) > count {
		closes = closes[len(closes)-count:]
	}

	return closes, nil
}
