package strategy

import (
	"context"

	"github.com/rxtech-lab/argo-router/internal/config"
	"github.com/rxtech-lab/argo-router/internal/indicator"
	"github.com/rxtech-lab/argo-router/internal/types"
	"github.com/rxtech-lab/argo-router/internal/window"
	"go.uber.org/zap"
)

type thresholdState struct {
	closes    *window.Window[float64]
	buyArmed  bool
	sellArmed bool
}

// RSIThreshold goes long when the RSI falls to the oversold line and short when it
// rises to the overbought line. Each side disarms after signalling and re-arms once
// the RSI leaves its zone.
type RSIThreshold struct {
	*Base

	params config.RSIThresholdParams
	sizer  *Sizer
	rsi    func(closes []float64, period int) (float64, error)
	state  map[instrument]*thresholdState
}

var _ Strategy = (*RSIThreshold)(nil)

// NewRSIThreshold builds the strategy and seeds every instrument from history.
// A zero Period seeds the RSI averages from the whole window.
func NewRSIThreshold(ctx context.Context, cfg config.StrategyConfig, params config.RSIThresholdParams, deps Deps) (*RSIThreshold, error) {
	if params.Period <= 0 {
		params.Period = params.Window - 1
	}

	s := &RSIThreshold{
		Base:   nil,
		params: params,
		sizer:  NewSizer(params.Sizing, deps.Accounts),
		rsi:    indicator.WilderRSI,
		state:  make(map[instrument]*thresholdState),
	}
	s.Base = newBase(cfg, Subscriptions{Quotes: false, Trades: false, Bars: true}, s, deps)

	seeds := make(map[string][]float64)

	for _, inst := range instruments(cfg) {
		closes, ok := seeds[inst.symbol]
		if !ok {
			var err error

			closes, err = seedCloses(ctx, deps.History, inst.symbol, params.Window)
			if err != nil {
				return nil, err
			}

			seeds[inst.symbol] = closes
		}

		st := &thresholdState{
			closes:    window.New[float64](params.Window),
			buyArmed:  true,
			sellArmed: true,
		}

		for _, c := range closes {
			st.closes.Push(c)
		}

		s.state[inst] = st
	}

	return s, nil
}

func (s *RSIThreshold) OnQuote(context.Context, types.Quote) error { return nil }

func (s *RSIThreshold) OnTrade(context.Context, types.Trade) error { return nil }

func (s *RSIThreshold) OnBar(ctx context.Context, bar types.Bar) error {
	key := instrument{venue: bar.Venue, symbol: bar.Symbol}

	st, ok := s.state[key]
	if !ok {
		return nil
	}

	st.closes.Push(bar.Close)

	if !st.closes.Full() {
		return nil
	}

	rsi, err := s.rsi(st.closes.Values(), s.params.Period)
	if err != nil {
		return err
	}

	s.logger.Debug("rsi", zap.String("symbol", bar.Symbol), zap.Float64("rsi", rsi))

	if rsi <= s.params.Oversold && st.buyArmed {
		st.buyArmed = false
		s.signal(ctx, bar, types.ExposureLong, rsi)
	} else if rsi > s.params.Oversold && !st.buyArmed {
		st.buyArmed = true
		s.logger.Debug("buy re-armed", zap.String("symbol", bar.Symbol), zap.Float64("rsi", rsi))
	}

	if rsi >= s.params.Overbought && st.sellArmed {
		st.sellArmed = false
		s.signal(ctx, bar, types.ExposureShort, rsi)
	} else if rsi < s.params.Overbought && !st.sellArmed {
		st.sellArmed = true
		s.logger.Debug("sell re-armed", zap.String("symbol", bar.Symbol), zap.Float64("rsi", rsi))
	}

	return nil
}

func (s *RSIThreshold) signal(ctx context.Context, bar types.Bar, exposure types.Exposure, rsi float64) {
	s.logger.Info("rsi threshold crossed",
		zap.String("symbol", bar.Symbol),
		zap.String("exposure", string(exposure)),
		zap.Float64("rsi", rsi),
	)

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
