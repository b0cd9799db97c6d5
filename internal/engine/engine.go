// Package engine wires gateways to strategies and strategies' signals back to gateways.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-router/internal/config"
	"github.com/rxtech-lab/argo-router/internal/dashboard"
	"github.com/rxtech-lab/argo-router/internal/gateway"
	"github.com/rxtech-lab/argo-router/internal/logger"
	"github.com/rxtech-lab/argo-router/internal/queue"
	"github.com/rxtech-lab/argo-router/internal/store"
	"github.com/rxtech-lab/argo-router/internal/strategy"
	"github.com/rxtech-lab/argo-router/internal/types"
	"github.com/rxtech-lab/argo-router/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type state int

const (
	stateIdle state = iota
	stateRunning
	stateStopped
)

// Option customises New. Options exist mainly to inject collaborators in tests.
type Option func(*Engine)

// WithStore replaces the store built from the configuration.
func WithStore(s store.Store) Option {
	return func(e *Engine) { e.store = s }
}

func WithLogger(log *logger.Logger) Option {
	return func(e *Engine) { e.logger = log }
}

// WithSink replaces the dashboard sink built from the configuration.
func WithSink(s dashboard.Sink) Option {
	return func(e *Engine) { e.sink = s }
}

func WithGatewayConstructor(c gateway.Constructor) Option {
	return func(e *Engine) { e.newGateway = c }
}

func WithStrategyConstructor(c strategy.Constructor) Option {
	return func(e *Engine) { e.newStrategy = c }
}

// Engine owns the routing table and the lifecycle of every gateway and strategy.
type Engine struct {
	cfg         *config.Config
	logger      *logger.Logger
	data        *logger.Logger
	store       store.Store
	sink        dashboard.Sink
	newGateway  gateway.Constructor
	newStrategy strategy.Constructor

	venues       []types.Venue
	gateways     map[types.Venue]gateway.Gateway
	subscription map[types.Venue][]string
	strategies   []strategy.Strategy
	routes       RoutingTable
	defaultVenue types.Venue

	signals *queue.Queue[types.Signal]
	bars    *queue.Queue[types.Bar]
	stats   *statsTracker

	mu          sync.RWMutex
	state       state
	ctx         context.Context //nolint:containedctx // dispatch callbacks carry no context of their own
	cancel      context.CancelFunc
	done        chan struct{}
	doneOnce    sync.Once
	releaseOnce sync.Once
}

var _ strategy.SignalHandler = (*Engine)(nil)

var _ strategy.AccountProvider = (*Engine)(nil)

// New builds every gateway and strategy named in cfg and the routing table between
// them. Any failure is fatal: nothing is left running and the error is returned.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:          cfg,
		logger:       nil,
		store:        nil,
		sink:         nil,
		newGateway:   gateway.New,
		newStrategy:  strategy.New,
		venues:       make([]types.Venue, 0, len(cfg.Venues)),
		gateways:     make(map[types.Venue]gateway.Gateway, len(cfg.Venues)),
		subscription: make(map[types.Venue][]string),
		strategies:   make([]strategy.Strategy, 0, len(cfg.Strategies)),
		routes:       make(RoutingTable),
		defaultVenue: cfg.Engine.DefaultVenue,
		signals:      queue.New[types.Signal](cfg.Engine.SignalQueue, nil),
		bars:         queue.New[types.Bar](cfg.Engine.BarRecorder, nil),
		stats:        nil,
		mu:           sync.RWMutex{},
		state:        stateIdle,
		ctx:          context.Background(),
		cancel:       nil,
		done:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = logger.NewNop()
	}

	e.data = e.logger.Named("data")
	e.logger = e.logger.Named("engine")

	for _, vc := range cfg.Venues {
		e.venues = append(e.venues, vc.Venue)
	}

	if e.defaultVenue == "" && len(e.venues) > 0 {
		e.defaultVenue = e.venues[0]
	}

	e.stats = newStatsTracker(e.venues)

	if err := e.openStore(ctx); err != nil {
		return nil, err
	}

	if err := e.build(ctx); err != nil {
		e.release()

		return nil, err
	}

	if e.sink == nil {
		sink, err := dashboard.NewSink(cfg.Dashboard, e.logger)
		if err != nil {
			e.release()

			return nil, err
		}

		e.sink = sink
	}

	e.logger.Info("engine ready",
		zap.Int("gateways", len(e.gateways)),
		zap.Int("strategies", len(e.strategies)),
		zap.String("default_venue", e.defaultVenue.String()),
	)

	return e, nil
}

// openStore proves the store is reachable with an open/close round trip, then
// opens it for the run.
func (e *Engine) openStore(ctx context.Context) error {
	if e.store == nil {
		s, err := store.New(e.cfg.Store, e.logger)
		if err != nil {
			return err
		}

		e.store = s
	}

	if err := e.store.Open(ctx); err != nil {
		return storeUnavailable(err)
	}

	if err := e.store.Close(); err != nil {
		return storeUnavailable(err)
	}

	if err := e.store.Open(ctx); err != nil {
		return storeUnavailable(err)
	}

	return nil
}

func storeUnavailable(err error) error {
	if errors.GetCode(err) != errors.ErrCodeUnknown {
		return err
	}

	return errors.Wrap(errors.ErrCodeStoreUnavailable, "market data store is unreachable", err)
}

func (e *Engine) build(ctx context.Context) error {
	callbacks := gateway.Callbacks{
		OnQuotes: e.DispatchQuotes,
		OnTrades: e.DispatchTrades,
		OnBars:   e.DispatchBars,
	}

	for _, vc := range e.cfg.Venues {
		gw, err := e.newGateway(vc, callbacks, e.logger)
		if err != nil {
			if errors.GetCode(err) != errors.ErrCodeUnknown {
				return err
			}

			return errors.Wrapf(errors.ErrCodeGatewayConstruction, err, "failed to build gateway %s", vc.Venue)
		}

		e.gateways[vc.Venue] = gw
	}

	seen := make(map[types.Venue]map[string]bool)

	for _, sc := range e.cfg.Strategies {
		s, err := e.newStrategy(ctx, sc, strategy.Deps{
			Signals:      e,
			History:      e.store,
			Accounts:     e,
			Logger:       e.logger,
			PollInterval: e.cfg.Engine.PollInterval,
		})
		if err != nil {
			if errors.GetCode(err) != errors.ErrCodeUnknown {
				return err
			}

			return errors.Wrapf(errors.ErrCodeStrategyConstruction, err, "failed to build strategy %s", sc.Name)
		}

		e.strategies = append(e.strategies, s)

		for _, venue := range sc.Venues {
			if _, ok := e.gateways[venue]; !ok {
				return errors.Newf(errors.ErrCodeVenueNotConfigured, "strategy %s subscribes to venue %s which has no gateway", sc.Name, venue)
			}

			if seen[venue] == nil {
				seen[venue] = make(map[string]bool)
			}

			for _, symbol := range sc.Symbols {
				e.routes.add(venue, symbol, s)

				if !seen[venue][symbol] {
					seen[venue][symbol] = true
					e.subscription[venue] = append(e.subscription[venue], symbol)
				}
			}
		}
	}

	for venue, symbols := range e.subscription {
		if err := e.gateways[venue].Subscribe(ctx, symbols); err != nil {
			return errors.Wrapf(errors.ErrCodeGatewayConstruction, err, "failed to subscribe %s", venue)
		}
	}

	return nil
}

// Routes returns the routing table.
func (e *Engine) Routes() RoutingTable {
	return e.routes
}

// Gateway returns the gateway of venue.
func (e *Engine) Gateway(venue types.Venue) (gateway.Gateway, bool) {
	gw, ok := e.gateways[venue]

	return gw, ok
}

func (e *Engine) context() context.Context {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.ctx
}

// DispatchQuotes hands each quote to the subscribers of its (venue, symbol).
func (e *Engine) DispatchQuotes(quotes []types.Quote) {
	ctx := e.context()

	for _, q := range quotes {
		e.data.Debug("quote", zap.String("venue", q.Venue.String()), zap.String("symbol", q.Symbol), zap.Time("time", q.Time))

		subscribers := e.routes.Lookup(q.Venue, q.Symbol)
		e.stats.venue(q.Venue, func(s *VenueStats) {
			s.Quotes++
			if len(subscribers) == 0 {
				s.Unrouted++
			}
		})

		for _, s := range subscribers {
			if err := s.HandleQuotes(ctx, []types.Quote{q}); err != nil {
				e.logger.Warn("failed to deliver quote", zap.String("strategy", s.Name()), zap.Error(err))
			}
		}
	}
}

// DispatchTrades hands each trade to the subscribers of its (venue, symbol).
func (e *Engine) DispatchTrades(trades []types.Trade) {
	ctx := e.context()

	for _, t := range trades {
		e.data.Debug("trade", zap.String("venue", t.Venue.String()), zap.String("symbol", t.Symbol), zap.Float64("price", t.Price))

		subscribers := e.routes.Lookup(t.Venue, t.Symbol)
		e.stats.venue(t.Venue, func(s *VenueStats) {
			s.Trades++
			if len(subscribers) == 0 {
				s.Unrouted++
			}
		})

		for _, s := range subscribers {
			if err := s.HandleTrades(ctx, []types.Trade{t}); err != nil {
				e.logger.Warn("failed to deliver trade", zap.String("strategy", s.Name()), zap.Error(err))
			}
		}
	}
}

// DispatchBars hands each bar to its subscribers, then to the recorder and the dashboard.
func (e *Engine) DispatchBars(bars []types.Bar) {
	ctx := e.context()

	for _, bar := range bars {
		e.data.Debug("bar", zap.String("venue", bar.Venue.String()), zap.String("symbol", bar.Symbol), zap.Float64("close", bar.Close))

		subscribers := e.routes.Lookup(bar.Venue, bar.Symbol)
		e.stats.venue(bar.Venue, func(s *VenueStats) {
			s.Bars++
			if len(subscribers) == 0 {
				s.Unrouted++
			}
		})

		for _, s := range subscribers {
			if err := s.HandleBars(ctx, []types.Bar{bar}); err != nil {
				e.logger.Warn("failed to deliver bar", zap.String("strategy", s.Name()), zap.Error(err))
			}
		}

		before := e.bars.Dropped()
		if err := e.bars.Push(ctx, bar); err != nil {
			e.logger.Warn("failed to queue bar for recording", zap.String("symbol", bar.Symbol), zap.Error(err))
		}

		if dropped := e.bars.Dropped() - before; dropped > 0 {
			e.stats.update(func(s *Stats) { s.Recorder.Dropped += dropped })
		}

		if e.sink != nil && !e.sink.Send(bar) {
			e.stats.update(func(s *Stats) { s.DashboardDropped++ })
		}
	}
}

// HandleSignals queues signals for the engine loop. Strategies call it from their own goroutines.
func (e *Engine) HandleSignals(ctx context.Context, signals []types.Signal) error {
	for _, s := range signals {
		e.data.Debug("signal",
			zap.String("strategy", s.Strategy),
			zap.String("venue", s.Venue.String()),
			zap.String("symbol", s.Symbol),
			zap.String("exposure", string(s.Exposure)),
		)

		if err := e.signals.Push(ctx, s); err != nil {
			return err
		}

		e.stats.update(func(st *Stats) { st.Signals++ })
	}

	return nil
}

// AccountInfo returns the account of venue's gateway.
func (e *Engine) AccountInfo(ctx context.Context, venue types.Venue) (types.AccountInfo, error) {
	gw, ok := e.gateways[venue]
	if !ok {
		return types.AccountInfo{}, errors.Newf(errors.ErrCodeNoGateway, "no gateway for venue %s", venue)
	}

	return gw.AccountInfo(ctx)
}

// route picks the gateway for a signal: its own venue, or the default venue.
func (e *Engine) route(signal types.Signal) (gateway.Gateway, types.Venue, error) {
	if gw, ok := e.gateways[signal.Venue]; ok {
		return gw, signal.Venue, nil
	}

	gw, ok := e.gateways[e.defaultVenue]
	if !ok {
		return nil, "", errors.Newf(errors.ErrCodeNoGateway, "no gateway for venue %s and no default venue", signal.Venue)
	}

	e.logger.Warn("signal venue has no gateway, using default venue",
		zap.String("venue", signal.Venue.String()),
		zap.String("default_venue", e.defaultVenue.String()),
	)

	return gw, e.defaultVenue, nil
}

// submit turns a signal into a market order. Failures are logged and counted, never returned.
func (e *Engine) submit(ctx context.Context, signal types.Signal) {
	gw, venue, err := e.route(signal)
	if err != nil {
		e.logger.Warn("dropping signal", zap.String("strategy", signal.Strategy), zap.Error(err))

		return
	}

	signal.Venue = venue

	order, err := types.NewMarketOrder(signal)
	if err == nil {
		err = gw.SubmitOrder(ctx, order)
	}

	if err != nil {
		e.logger.Warn("order submission failed",
			zap.String("venue", venue.String()),
			zap.String("symbol", signal.Symbol),
			zap.String("strategy", signal.Strategy),
			zap.Error(err),
		)
		e.stats.venue(venue, func(s *VenueStats) { s.OrdersFailed++ })

		return
	}

	e.logger.Info("order submitted",
		zap.String("id", order.ID),
		zap.String("venue", venue.String()),
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)),
		zap.Float64("quantity", order.Quantity),
	)
	e.stats.venue(venue, func(s *VenueStats) { s.OrdersSubmitted++ })
}

// loop submits queued signals until ctx ends, waking at least once per poll interval.
func (e *Engine) loop(ctx context.Context) error {
	for {
		signal, ok := e.signals.Poll(ctx, e.cfg.Engine.PollInterval)
		if ctx.Err() != nil {
			return nil
		}

		if ok {
			e.submit(ctx, signal)
		}
	}
}

// Run starts every unit and blocks until ctx ends, Stop is called or, under the
// halt policy, a unit fails. It returns only after every unit has stopped.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()

	switch e.state {
	case stateRunning:
		e.mu.Unlock()

		return errors.New(errors.ErrCodeEngineRunning, "engine is already running")
	case stateStopped:
		e.mu.Unlock()

		return errors.New(errors.ErrCodeEngineStopped, "engine has been stopped")
	case stateIdle:
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.state = stateRunning
	e.ctx = runCtx
	e.cancel = cancel
	e.mu.Unlock()

	defer e.finish()
	defer cancel()

	e.stats.update(func(s *Stats) { s.StartedAt = time.Now().UTC() })
	e.logger.Info("engine started")

	sup := newSupervisor(e.cfg.Engine.Supervision, e.logger, func(name string) {
		e.stats.update(func(s *Stats) { s.Restarts[name]++ })
	})

	g, gctx := errgroup.WithContext(runCtx)

	for _, venue := range e.venues {
		gw := e.gateways[venue]

		g.Go(func() error {
			return sup.run(gctx, "gateway/"+venue.String(), gw.Activate)
		})
	}

	for _, s := range e.strategies {
		g.Go(func() error {
			return sup.run(gctx, "strategy/"+s.Name(), s.Run)
		})
	}

	g.Go(func() error {
		return sup.run(gctx, "recorder", e.record)
	})

	g.Go(func() error {
		return sup.run(gctx, "signals", e.loop)
	})

	g.Go(func() error {
		<-gctx.Done()
		e.stopGateways()

		return nil
	})

	err := g.Wait()

	e.logger.Info("engine stopped", zap.Error(err))

	return err
}

// stopGateways unsubscribes and disconnects every gateway.
func (e *Engine) stopGateways() {
	for _, venue := range e.venues {
		gw := e.gateways[venue]

		if symbols := e.subscription[venue]; len(symbols) > 0 {
			if err := gw.Unsubscribe(context.Background(), symbols); err != nil {
				e.logger.Warn("failed to unsubscribe", zap.String("venue", venue.String()), zap.Error(err))
			}
		}

		if err := gw.Deactivate(); err != nil {
			e.logger.Warn("failed to deactivate gateway", zap.String("venue", venue.String()), zap.Error(err))
		}
	}
}

// finish runs once Run's units have all returned.
func (e *Engine) finish() {
	e.mu.Lock()
	e.state = stateStopped
	e.mu.Unlock()

	e.release()
	e.doneOnce.Do(func() { close(e.done) })
}

// release closes strategies, the sink and the store, and writes the stats file.
func (e *Engine) release() {
	e.releaseOnce.Do(func() {
		for _, s := range e.strategies {
			s.Close()
		}

		e.signals.Close()
		e.bars.Close()

		if e.sink != nil {
			if err := e.sink.Close(); err != nil {
				e.logger.Warn("failed to close dashboard", zap.Error(err))
			}
		}

		if e.store != nil {
			if err := e.store.Close(); err != nil {
				e.logger.Warn("failed to close store", zap.Error(err))
			}
		}

		e.stats.update(func(s *Stats) { s.StoppedAt = time.Now().UTC() })

		stats := e.Stats()

		if path := e.cfg.Engine.StatsPath; path != "" && !stats.StartedAt.IsZero() {
			if err := WriteStats(path, stats); err != nil {
				e.logger.Warn("failed to write run stats", zap.Error(err))
			}
		}
	})
}

// Stop asks every unit to stop and waits until they have. It is safe to call
// more than once and from any goroutine.
func (e *Engine) Stop() {
	e.mu.Lock()
	prev := e.state
	cancel := e.cancel

	if prev == stateIdle {
		e.state = stateStopped
	}
	e.mu.Unlock()

	switch prev {
	case stateIdle:
		e.release()
		e.doneOnce.Do(func() { close(e.done) })
	case stateRunning, stateStopped:
		if cancel != nil {
			cancel()
		}

		<-e.done
	}
}

// Done is closed once the engine has stopped.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Stats returns the run counters so far.
func (e *Engine) Stats() Stats {
	return e.stats.snapshot(e.strategies)
}
