package strategy

import (
	"context"

	"github.com/rxtech-lab/argo-router/internal/config"
	"github.com/rxtech-lab/argo-router/internal/indicator"
	"github.com/rxtech-lab/argo-router/internal/types"
	"github.com/rxtech-lab/argo-router/internal/window"
	"go.uber.org/zap"
)

type crossoverState struct {
	short      *window.Window[float64]
	long       *window.Window[float64]
	longBiased bool
}

// SMACrossover goes long when the short mean crosses above the long mean and
// short when it crosses back below. It signals on the crossing only.
type SMACrossover struct {
	*Base

	params config.SMACrossoverParams
	sizer  *Sizer
	state  map[instrument]*crossoverState
}

var _ Strategy = (*SMACrossover)(nil)

// NewSMACrossover builds the strategy and seeds every instrument from history.
func NewSMACrossover(ctx context.Context, cfg config.StrategyConfig, params config.SMACrossoverParams, deps Deps) (*SMACrossover, error) {
	s := &SMACrossover{
		Base:   nil,
		params: params,
		sizer:  NewSizer(params.Sizing, deps.Accounts),
		state:  make(map[instrument]*crossoverState),
	}
	s.Base = newBase(cfg, Subscriptions{Quotes: false, Trades: false, Bars: true}, s, deps)

	seeds := make(map[string][]float64)

	for _, inst := range instruments(cfg) {
		closes, ok := seeds[inst.symbol]
		if !ok {
			var err error

			closes, err = seedCloses(ctx, deps.History, inst.symbol, params.LongWindow)
			if err != nil {
				return nil, err
			}

			seeds[inst.symbol] = closes
		}

		st := &crossoverState{
			short:      window.New[float64](params.ShortWindow),
			long:       window.New[float64](params.LongWindow),
			longBiased: false,
		}

		for _, c := range closes {
			st.short.Push(c)
			st.long.Push(c)
		}

		s.state[inst] = st
	}

	return s, nil
}

func (s *SMACrossover) OnQuote(context.Context, types.Quote) error { return nil }

func (s *SMACrossover) OnTrade(context.Context, types.Trade) error { return nil }

func (s *SMACrossover) OnBar(ctx context.Context, bar types.Bar) error {
	key := instrument{venue: bar.Venue, symbol: bar.Symbol}

	st, ok := s.state[key]
	if !ok {
		return nil
	}

	st.short.Push(bar.Close)
	st.long.Push(bar.Close)

	if !st.short.Full() || !st.long.Full() {
		return nil
	}

	shortMean, err := indicator.Mean(st.short.Values())
	if err != nil {
		return err
	}

	longMean, err := indicator.Mean(st.long.Values())
	if err != nil {
		return err
	}

	var exposure types.Exposure

	switch {
	case shortMean > longMean && !st.longBiased:
		st.longBiased = true
		exposure = types.ExposureLong
	case shortMean < longMean && st.longBiased:
		st.longBiased = false
		exposure = types.ExposureShort
	default:
		return nil
	}

	s.logger.Info("crossover",
		zap.String("symbol", bar.Symbol),
		zap.String("exposure", string(exposure)),
		zap.Float64("short_mean", shortMean),
		zap.Float64("long_mean", longMean),
	)

	s.signal(ctx, bar, exposure)

	return nil
}

func (s *SMACrossover) signal(ctx context.Context, bar types.Bar, exposure types.Exposure) {
	qty, err := s.sizer.Quantity(ctx, bar.Venue, exposure, bar.Close)
	if err != nil {
		s.nSizing.Add(1)
		s.logger.Warn("dropping signal", zap.String("symbol", bar.Symbol), zap.Error(err))

		return
	}

	s.emit(ctx, types.Signal{
		Venue:    bar.Venue,
		Symbol:   bar.Symbol,
		Exposure: exposure,
		Quantity: qty,
		Price:    bar.Close,
		Strategy: s.name,
		Time:     bar.Time,
	})
}
