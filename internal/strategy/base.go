package strategy

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rxtech-lab/argo-router/internal/config"
	"github.com/rxtech-lab/argo-router/internal/logger"
	"github.com/rxtech-lab/argo-router/internal/queue"
	"github.com/rxtech-lab/argo-router/internal/types"
	"go.uber.org/zap"
)

// Handler is the decision logic a variant plugs into Base.
// Errors returned from a Handler are unit faults and end Run.
type Handler interface {
	OnQuote(ctx context.Context, quote types.Quote) error
	OnTrade(ctx context.Context, trade types.Trade) error
	OnBar(ctx context.Context, bar types.Bar) error
}

// Subscriptions selects which event types Base queues. Unselected types are ignored on arrival.
type Subscriptions struct {
	Quotes bool
	Trades bool
	Bars   bool
}

// Base owns a strategy's inbound queues and its run loop.
type Base struct {
	name    string
	kind    types.StrategyKind
	subs    Subscriptions
	handler Handler
	signals SignalHandler
	logger  *logger.Logger
	poll    time.Duration

	wake   chan struct{}
	quotes *queue.Queue[types.Quote]
	trades *queue.Queue[types.Trade]
	bars   *queue.Queue[types.Bar]

	nQuotes  atomic.Uint64
	nTrades  atomic.Uint64
	nBars    atomic.Uint64
	nSignals atomic.Uint64
	nSizing  atomic.Uint64
}

func newBase(cfg config.StrategyConfig, subs Subscriptions, handler Handler, deps Deps) *Base {
	wake := make(chan struct{}, 1)

	return &Base{
		name:     cfg.Name,
		kind:     cfg.Kind,
		subs:     subs,
		handler:  handler,
		signals:  deps.Signals,
		logger:   deps.Logger.Named(cfg.Name),
		poll:     deps.PollInterval,
		wake:     wake,
		quotes:   queue.New[types.Quote](cfg.Queue, wake),
		trades:   queue.New[types.Trade](cfg.Queue, wake),
		bars:     queue.New[types.Bar](cfg.Queue, wake),
		nQuotes:  atomic.Uint64{},
		nTrades:  atomic.Uint64{},
		nBars:    atomic.Uint64{},
		nSignals: atomic.Uint64{},
		nSizing:  atomic.Uint64{},
	}
}

func (b *Base) Name() string {
	return b.name
}

func (b *Base) Kind() types.StrategyKind {
	return b.kind
}

func (b *Base) HandleQuotes(ctx context.Context, quotes []types.Quote) error {
	if !b.subs.Quotes {
		return nil
	}

	for _, q := range quotes {
		if err := b.quotes.Push(ctx, q); err != nil {
			return err
		}
	}

	return nil
}

func (b *Base) HandleTrades(ctx context.Context, trades []types.Trade) error {
	if !b.subs.Trades {
		return nil
	}

	for _, t := range trades {
		if err := b.trades.Push(ctx, t); err != nil {
			return err
		}
	}

	return nil
}

func (b *Base) HandleBars(ctx context.Context, bars []types.Bar) error {
	if !b.subs.Bars {
		return nil
	}

	for _, bar := range bars {
		if err := b.bars.Push(ctx, bar); err != nil {
			return err
		}
	}

	return nil
}

// Run processes one event at a time, quotes first, until ctx ends.
// An idle loop wakes on the next push or after the poll interval.
func (b *Base) Run(ctx context.Context) error {
	b.logger.Info("strategy started")
	defer b.logger.Info("strategy stopped")

	timer := time.NewTimer(b.poll)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return nil
		}

		progressed, err := b.step(ctx)
		if err != nil {
			return err
		}

		if progressed {
			continue
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}

		timer.Reset(b.poll)

		select {
		case <-b.wake:
		case <-timer.C:
		case <-ctx.Done():
			return nil
		}
	}
}

func (b *Base) step(ctx context.Context) (bool, error) {
	if q, ok := b.quotes.TryPop(); ok {
		b.nQuotes.Add(1)

		return true, b.handler.OnQuote(ctx, q)
	}

	if t, ok := b.trades.TryPop(); ok {
		b.nTrades.Add(1)

		return true, b.handler.OnTrade(ctx, t)
	}

	if bar, ok := b.bars.TryPop(); ok {
		b.nBars.Add(1)

		return true, b.handler.OnBar(ctx, bar)
	}

	return false, nil
}

// Close rejects further events. Already queued events stay poppable.
func (b *Base) Close() {
	b.quotes.Close()
	b.trades.Close()
	b.bars.Close()
}

func (b *Base) Stats() Stats {
	return Stats{
		Quotes:         b.nQuotes.Load(),
		Trades:         b.nTrades.Load(),
		Bars:           b.nBars.Load(),
		Dropped:        b.quotes.Dropped() + b.trades.Dropped() + b.bars.Dropped(),
		Signals:        b.nSignals.Load(),
		SizingFailures: b.nSizing.Load(),
	}
}

// Pending returns how many events wait in the inbound queues.
func (b *Base) Pending() int {
	return b.quotes.Len() + b.trades.Len() + b.bars.Len()
}

// emit forwards signals to the engine. Forwarding failures are logged, never returned.
func (b *Base) emit(ctx context.Context, signals ...types.Signal) {
	if len(signals) == 0 || b.signals == nil {
		return
	}

	for _, s := range signals {
		b.logger.Debug("emitting signal",
			zap.String("venue", s.Venue.String()),
			zap.String("symbol", s.Symbol),
			zap.String("exposure", string(s.Exposure)),
			zap.Float64("quantity", s.Quantity),
			zap.Float64("price", s.Price),
		)
	}

	b.nSignals.Add(uint64(len(signals)))

	if err := b.signals.HandleSignals(ctx, signals); err != nil {
		b.logger.Warn("failed to hand off signals", zap.Error(err))
	}
}
