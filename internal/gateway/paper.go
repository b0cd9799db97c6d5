package gateway

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-router/internal/config"
	"github.com/rxtech-lab/argo-router/internal/logger"
	"github.com/rxtech-lab/argo-router/internal/types"
	"github.com/rxtech-lab/argo-router/pkg/errors"
	"go.uber.org/zap"
)

// Fill is an order the paper venue executed.
type Fill struct {
	Order types.OrderRequest
	Price float64
	Time  time.Time
}

// PaperGateway is an in-process venue with an in-memory account. Events reach the
// callbacks through the Publish methods or the optional random-walk feed, and only
// for subscribed symbols while the gateway is active.
type PaperGateway struct {
	params    config.PaperParams
	callbacks Callbacks
	logger    *logger.Logger

	mu         sync.Mutex
	symbols    map[string]struct{}
	cash       float64
	positions  map[string]float64
	lastPrices map[string]float64
	fills      []Fill
	cancel     context.CancelFunc
	active     chan struct{}
}

var _ Gateway = (*PaperGateway)(nil)

func NewPaperGateway(params config.PaperParams, callbacks Callbacks, log *logger.Logger) *PaperGateway {
	if log == nil {
		log = logger.NewNop()
	}

	return &PaperGateway{
		params:     params,
		callbacks:  callbacks,
		logger:     log.Named("paper"),
		mu:         sync.Mutex{},
		symbols:    make(map[string]struct{}),
		cash:       params.Cash,
		positions:  make(map[string]float64),
		lastPrices: make(map[string]float64),
		fills:      nil,
		cancel:     nil,
		active:     make(chan struct{}),
	}
}

func (g *PaperGateway) Venue() types.Venue {
	return types.VenuePaper
}

func (g *PaperGateway) Subscribe(_ context.Context, symbols []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, s := range symbols {
		g.symbols[s] = struct{}{}
	}

	return nil
}

func (g *PaperGateway) Unsubscribe(_ context.Context, symbols []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, s := range symbols {
		delete(g.symbols, s)
	}

	return nil
}

// Active is closed once Activate has started delivering events.
func (g *PaperGateway) Active() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.active
}

func (g *PaperGateway) Activate(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)

	g.mu.Lock()
	if g.cancel != nil {
		g.mu.Unlock()
		cancel()

		return errors.New(errors.ErrCodeEngineRunning, "paper gateway is already active")
	}

	g.cancel = cancel
	close(g.active)
	g.mu.Unlock()

	g.logger.Info("paper gateway active", zap.Float64("cash", g.params.Cash))

	if g.params.Synthetic.Enabled {
		g.runSynthetic(runCtx)
	} else {
		<-runCtx.Done()
	}

	g.mu.Lock()
	g.cancel = nil
	g.active = make(chan struct{})
	g.mu.Unlock()

	g.logger.Info("paper gateway inactive")

	return nil
}

func (g *PaperGateway) Deactivate() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel != nil {
		g.cancel()
	}

	return nil
}

func (g *PaperGateway) runSynthetic(ctx context.Context) {
	walk := newRandomWalk(g.params.Synthetic)

	ticker := time.NewTicker(g.params.Synthetic.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			symbols := g.subscribed()
			bars := make([]types.Bar, 0, len(symbols))

			for _, s := range symbols {
				bars = append(bars, walk.next(s, now.Add(-g.params.Synthetic.Interval).Truncate(time.Second)))
			}

			g.PublishBars(bars)
		}
	}
}

func (g *PaperGateway) subscribed() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]string, 0, len(g.symbols))
	for s := range g.symbols {
		out = append(out, s)
	}

	sort.Strings(out)

	return out
}

// deliverable reports whether events for symbol should reach the callbacks.
func (g *PaperGateway) deliverableLocked(symbol string) bool {
	if g.cancel == nil {
		return false
	}

	_, ok := g.symbols[symbol]

	return ok
}

func (g *PaperGateway) PublishQuotes(quotes []types.Quote) {
	g.mu.Lock()
	out := make([]types.Quote, 0, len(quotes))

	for _, q := range quotes {
		if !g.deliverableLocked(q.Symbol) {
			continue
		}

		q.Venue = types.VenuePaper
		out = append(out, q)
	}
	g.mu.Unlock()

	g.callbacks.quotes(out)
}

func (g *PaperGateway) PublishTrades(trades []types.Trade) {
	g.mu.Lock()
	out := make([]types.Trade, 0, len(trades))

	for _, t := range trades {
		if !g.deliverableLocked(t.Symbol) {
			continue
		}

		t.Venue = types.VenuePaper
		g.lastPrices[t.Symbol] = t.Price
		out = append(out, t)
	}
	g.mu.Unlock()

	g.callbacks.trades(out)
}

func (g *PaperGateway) PublishBars(bars []types.Bar) {
	g.mu.Lock()
	out := make([]types.Bar, 0, len(bars))

	for _, b := range bars {
		if !g.deliverableLocked(b.Symbol) {
			continue
		}

		b.Venue = types.VenuePaper
		g.lastPrices[b.Symbol] = b.Close
		out = append(out, b)
	}
	g.mu.Unlock()

	g.callbacks.bars(out)
}

// SubmitOrder fills the order immediately at the last seen price, or at the order's
// price when nothing has been seen for the symbol.
func (g *PaperGateway) SubmitOrder(_ context.Context, order types.OrderRequest) error {
	if err := order.Validate(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	price, ok := g.lastPrices[order.Symbol]
	if !ok {
		price = order.Price
	}

	if price <= 0 {
		return errors.Newf(errors.ErrCodeOrderFailed, "no price for %s", order.Symbol)
	}

	notional := price * order.Quantity

	switch order.Side {
	case types.OrderSideBuy:
		if notional > g.cash {
			return errors.Newf(errors.ErrCodeOrderFailed,
				"insufficient cash: need %.2f, have %.2f", notional, g.cash)
		}

		g.cash -= notional
		g.positions[order.Symbol] += order.Quantity
	case types.OrderSideSell:
		g.cash += notional
		g.positions[order.Symbol] -= order.Quantity
	default:
		return errors.Newf(errors.ErrCodeInvalidOrder, "unsupported order side: %s", order.Side)
	}

	g.fills = append(g.fills, Fill{Order: order, Price: price, Time: time.Now()})

	g.logger.Info("order filled",
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)),
		zap.Float64("quantity", order.Quantity),
		zap.Float64("price", price),
		zap.String("strategy", order.Strategy),
	)

	return nil
}

// Fills returns a copy of every executed order, oldest first.
func (g *PaperGateway) Fills() []Fill {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Fill, len(g.fills))
	copy(out, g.fills)

	return out
}

// Position returns the signed quantity held in symbol.
func (g *PaperGateway) Position(symbol string) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.positions[symbol]
}

func (g *PaperGateway) AccountInfo(_ context.Context) (types.AccountInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	equity := g.cash

	for symbol, qty := range g.positions {
		equity += qty * g.lastPrices[symbol]
	}

	return types.AccountInfo{Cash: g.cash, Equity: equity}, nil
}
