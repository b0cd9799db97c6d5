package strategy

import (
	"context"

	"github.com/rxtech-lab/argo-router/internal/config"
	"github.com/rxtech-lab/argo-router/internal/types"
	"go.uber.org/zap"
)

// Noop consumes every event type and never signals. Copy it to start a new strategy.
type Noop struct {
	*Base
}

var _ Strategy = (*Noop)(nil)

func NewNoop(cfg config.StrategyConfig, deps Deps) *Noop {
	s := &Noop{Base: nil}
	s.Base = newBase(cfg, Subscriptions{Quotes: true, Trades: true, Bars: true}, s, deps)

	return s
}

func (s *Noop) OnQuote(_ context.Context, quote types.Quote) error {
	s.logger.Debug("quote", zap.String("symbol", quote.Symbol), zap.Time("time", quote.Time))

	return nil
}

func (s *Noop) OnTrade(_ context.Context, trade types.Trade) error {
	s.logger.Debug("trade", zap.String("symbol", trade.Symbol), zap.Float64("price", trade.Price))

	return nil
}

func (s *Noop) OnBar(_ context.Context, bar types.Bar) error {
	s.logger.Debug("bar", zap.String("symbol", bar.Symbol), zap.Float64("close", bar.Close))

	return nil
}
