package gateway

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/cenkalti/backoff/v4"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-router/internal/config"
	"github.com/rxtech-lab/argo-router/internal/logger"
	"github.com/rxtech-lab/argo-router/internal/types"
	"github.com/rxtech-lab/argo-router/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// BinanceDecimalPrecision is a default decimal precision used as a fallback.
	// 8 decimals allows for satoshi-level precision (0.00000001 BTC) for BTC-like assets.
	BinanceDecimalPrecision = 8
)

// quoteAssets are summed into cash. Other assets are valued at their last seen price.
var quoteAssets = []string{"USDT", "BUSD", "USDC", "USD"}

// BinanceGateway streams book tickers, trades and closed klines for its subscribed
// symbols and submits orders over REST.
type BinanceGateway struct {
	client    BinanceClient
	ws        WebSocketService
	params    config.BinanceParams
	callbacks Callbacks
	logger    *logger.Logger
	precision int32

	mu         sync.Mutex
	symbols    map[string]string // native -> configured
	running    map[string]context.CancelFunc
	lastPrices map[string]float64 // native -> price
	runCtx     context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

var _ Gateway = (*BinanceGateway)(nil)

// NewBinanceGateway creates a gateway on the live API, the testnet or params.BaseURL.
func NewBinanceGateway(params config.BinanceParams, callbacks Callbacks, log *logger.Logger) (*BinanceGateway, error) {
	if params.Testnet {
		binance.UseTestnet = true
	}

	client := binance.NewClient(params.APIKey, params.SecretKey)

	if params.BaseURL != "" {
		client.BaseURL = params.BaseURL
	}

	return newBinanceGatewayWithClients(params, callbacks, log, &realBinanceClient{client: client}, realWebSocketService{}), nil
}

func newBinanceGatewayWithClients(params config.BinanceParams, callbacks Callbacks, log *logger.Logger, client BinanceClient, ws WebSocketService) *BinanceGateway {
	return &BinanceGateway{
		client:     client,
		ws:         ws,
		params:     params,
		callbacks:  callbacks,
		logger:     log.Named("binance"),
		precision:  BinanceDecimalPrecision,
		mu:         sync.Mutex{},
		symbols:    make(map[string]string),
		running:    make(map[string]context.CancelFunc),
		lastPrices: make(map[string]float64),
		runCtx:     nil,
		cancel:     nil,
		wg:         sync.WaitGroup{},
	}
}

func (g *BinanceGateway) Venue() types.Venue {
	return types.VenueBinance
}

// NativeSymbol converts "BTC/USDT" to Binance's "BTCUSDT".
func NativeSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
}

// Subscribe records symbols and starts their streams when the gateway is active.
func (g *BinanceGateway) Subscribe(_ context.Context, symbols []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, s := range symbols {
		native := NativeSymbol(s)
		g.symbols[native] = s

		if g.runCtx != nil {
			g.startLocked(native)
		}
	}

	return nil
}

// Unsubscribe stops the streams of symbols.
func (g *BinanceGateway) Unsubscribe(_ context.Context, symbols []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, s := range symbols {
		native := NativeSymbol(s)
		delete(g.symbols, native)

		if cancel, ok := g.running[native]; ok {
			cancel()
			delete(g.running, native)
		}
	}

	return nil
}

// Activate opens the streams of every subscribed symbol and keeps them connected
// until ctx ends or Deactivate is called.
func (g *BinanceGateway) Activate(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)

	g.mu.Lock()
	g.runCtx = runCtx
	g.cancel = cancel

	for native := range g.symbols {
		g.startLocked(native)
	}

	count := len(g.symbols)
	g.mu.Unlock()

	g.logger.Info("binance gateway active", zap.Int("symbols", count))

	<-runCtx.Done()

	g.wg.Wait()

	g.mu.Lock()
	g.runCtx = nil
	g.cancel = nil
	g.running = make(map[string]context.CancelFunc)
	g.mu.Unlock()

	g.logger.Info("binance gateway inactive")

	return nil
}

func (g *BinanceGateway) Deactivate() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel != nil {
		g.cancel()
	}

	return nil
}

func (g *BinanceGateway) startLocked(native string) {
	if _, ok := g.running[native]; ok {
		return
	}

	ctx, cancel := context.WithCancel(g.runCtx)
	g.running[native] = cancel

	lower := strings.ToLower(native)
	errHandler := func(err error) {
		g.logger.Warn("stream error", zap.String("symbol", native), zap.Error(err))
	}

	if g.params.Bars {
		g.maintain(ctx, native, "kline", func() (chan struct{}, chan struct{}, error) {
			return g.ws.WsKlineServe(lower, g.params.KlineInterval, g.onKline, errHandler)
		})
	}

	if g.params.Trades {
		g.maintain(ctx, native, "trade", func() (chan struct{}, chan struct{}, error) {
			return g.ws.WsTradeServe(lower, g.onTrade, errHandler)
		})
	}

	if g.params.Quotes {
		g.maintain(ctx, native, "bookTicker", func() (chan struct{}, chan struct{}, error) {
			return g.ws.WsBookTickerServe(lower, g.onBookTicker, errHandler)
		})
	}
}

// maintain keeps one stream open, reconnecting with exponential backoff when it drops.
func (g *BinanceGateway) maintain(ctx context.Context, native, stream string, open func() (chan struct{}, chan struct{}, error)) {
	g.wg.Add(1)

	go func() {
		defer g.wg.Done()

		b := backoff.NewExponentialBackOff()
		b.MaxInterval = g.params.ReconnectMaxBackoff
		b.MaxElapsedTime = 0

		if b.InitialInterval > b.MaxInterval {
			b.InitialInterval = b.MaxInterval
		}

		b.Reset()

		log := g.logger.With(zap.String("symbol", native), zap.String("stream", stream))

		for {
			doneC, stopC, err := open()
			if err == nil {
				log.Info("stream connected")
				b.Reset()

				select {
				case <-ctx.Done():
					close(stopC)
					<-doneC

					return
				case <-doneC:
					log.Warn("stream closed by venue")
				}
			} else {
				log.Warn("failed to open stream", zap.Error(err))
			}

			wait := b.NextBackOff()

			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}()
}

func (g *BinanceGateway) configured(native string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.symbols[native]

	return s, ok
}

func (g *BinanceGateway) setLastPrice(native string, price float64) {
	g.mu.Lock()
	g.lastPrices[native] = price
	g.mu.Unlock()
}

func (g *BinanceGateway) onKline(event *binance.WsKlineEvent) {
	if event == nil || !event.Kline.IsFinal {
		return
	}

	symbol, ok := g.configured(event.Symbol)
	if !ok {
		return
	}

	k := event.Kline
	open, _ := strconv.ParseFloat(k.Open, 64)
	high, _ := strconv.ParseFloat(k.High, 64)
	low, _ := strconv.ParseFloat(k.Low, 64)
	closePrice, _ := strconv.ParseFloat(k.Close, 64)
	volume, _ := strconv.ParseFloat(k.Volume, 64)
	quoteVolume, _ := strconv.ParseFloat(k.QuoteVolume, 64)

	vwap := optional.None[float64]()
	if volume > 0 {
		vwap = optional.Some(quoteVolume / volume)
	}

	g.setLastPrice(event.Symbol, closePrice)

	g.callbacks.bars([]types.Bar{{
		Venue:      types.VenueBinance,
		Symbol:     symbol,
		Time:       time.UnixMilli(k.StartTime),
		Open:       open,
		High:       high,
		Low:        low,
		Close:      closePrice,
		Volume:     volume,
		TradeCount: optional.Some(k.TradeNum),
		VWAP:       vwap,
	}})
}

func (g *BinanceGateway) onTrade(event *binance.WsTradeEvent) {
	if event == nil {
		return
	}

	symbol, ok := g.configured(event.Symbol)
	if !ok {
		return
	}

	price, _ := strconv.ParseFloat(event.Price, 64)
	qty, _ := strconv.ParseFloat(event.Quantity, 64)

	g.setLastPrice(event.Symbol, price)

	g.callbacks.trades([]types.Trade{{
		Venue:  types.VenueBinance,
		Symbol: symbol,
		Time:   time.UnixMilli(event.TradeTime),
		Price:  price,
		Volume: qty,
		ID:     strconv.FormatInt(event.TradeID, 10),
	}})
}

func (g *BinanceGateway) onBookTicker(event *binance.WsBookTickerEvent) {
	if event == nil {
		return
	}

	symbol, ok := g.configured(event.Symbol)
	if !ok {
		return
	}

	g.callbacks.quotes([]types.Quote{{
		Venue:    types.VenueBinance,
		Symbol:   symbol,
		Time:     time.Now(),
		BidPrice: parseOptional(event.BestBidPrice),
		BidSize:  parseOptional(event.BestBidQty),
		AskPrice: parseOptional(event.BestAskPrice),
		AskSize:  parseOptional(event.BestAskQty),
	}})
}

func parseOptional(s string) optional.Option[float64] {
	if s == "" {
		return optional.None[float64]()
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return optional.None[float64]()
	}

	return optional.Some(v)
}

// SubmitOrder places order on Binance. Time in force is only sent for limit orders.
func (g *BinanceGateway) SubmitOrder(ctx context.Context, order types.OrderRequest) error {
	if err := order.Validate(); err != nil {
		return err
	}

	var side binance.SideType

	switch order.Side {
	case types.OrderSideBuy:
		side = binance.SideTypeBuy
	case types.OrderSideSell:
		side = binance.SideTypeSell
	default:
		return errors.Newf(errors.ErrCodeInvalidOrder, "unsupported order side: %s", order.Side)
	}

	var orderType binance.OrderType

	switch order.Type {
	case types.OrderTypeMarket:
		orderType = binance.OrderTypeMarket
	case types.OrderTypeLimit:
		orderType = binance.OrderTypeLimit
	default:
		return errors.Newf(errors.ErrCodeInvalidOrder, "unsupported order type: %s", order.Type)
	}

	quantity := decimal.NewFromFloat(order.Quantity).Truncate(g.precision)
	if !quantity.IsPositive() {
		return errors.Newf(errors.ErrCodeInvalidOrder,
			"order quantity %v is too small after truncating to %d decimal places", order.Quantity, g.precision)
	}

	service := g.client.NewCreateOrderService().
		Symbol(NativeSymbol(order.Symbol)).
		Side(side).
		Type(orderType).
		Quantity(quantity.String()).
		NewClientOrderID(order.ID)

	if order.Type == types.OrderTypeLimit {
		service = service.
			Price(decimal.NewFromFloat(order.Price).String()).
			TimeInForce(binance.TimeInForceType(order.TimeInForce))
	}

	resp, err := service.Do(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeOrderFailed, "failed to place order on Binance", err)
	}

	g.logger.Info("order placed",
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)),
		zap.String("quantity", quantity.String()),
		zap.Int64("order_id", resp.OrderID),
		zap.String("client_order_id", order.ID),
	)

	return nil
}

// AccountInfo sums the quote-asset balances into cash and values the rest at the
// last price seen on this gateway's streams.
func (g *BinanceGateway) AccountInfo(ctx context.Context) (types.AccountInfo, error) {
	account, err := g.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return types.AccountInfo{}, errors.Wrap(errors.ErrCodeAccountUnavailable, "failed to get account info from Binance", err)
	}

	g.mu.Lock()
	prices := make(map[string]float64, len(g.lastPrices))
	for k, v := range g.lastPrices {
		prices[k] = v
	}
	g.mu.Unlock()

	cash := decimal.Zero
	holdings := decimal.Zero

	for _, balance := range account.Balances {
		free, _ := decimal.NewFromString(balance.Free)
		locked, _ := decimal.NewFromString(balance.Locked)
		total := free.Add(locked)

		if isQuoteAsset(balance.Asset) {
			cash = cash.Add(free)
			holdings = holdings.Add(locked)

			continue
		}

		if total.IsZero() {
			continue
		}

		for _, quote := range quoteAssets {
			if price, ok := prices[balance.Asset+quote]; ok {
				holdings = holdings.Add(total.Mul(decimal.NewFromFloat(price)))

				break
			}
		}
	}

	return types.AccountInfo{
		Cash:   cash.InexactFloat64(),
		Equity: cash.Add(holdings).InexactFloat64(),
	}, nil
}

func isQuoteAsset(asset string) bool {
	for _, q := range quoteAssets {
		if asset == q {
			return true
		}
	}

	return false
}
