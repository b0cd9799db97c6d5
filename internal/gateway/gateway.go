// Package gateway connects the router to trading venues.
package gateway

import (
	"context"

	"github.com/rxtech-lab/argo-router/internal/config"
	"github.com/rxtech-lab/argo-router/internal/logger"
	"github.com/rxtech-lab/argo-router/internal/types"
	"github.com/rxtech-lab/argo-router/pkg/errors"
)

// Gateway owns one venue connection. It converts venue updates into canonical
// events and hands them to its Callbacks from its own goroutines.
type Gateway interface {
	Venue() types.Venue
	Subscribe(ctx context.Context, symbols []string) error
	Unsubscribe(ctx context.Context, symbols []string) error
	// Activate starts delivering events and blocks until ctx ends or Deactivate is called.
	Activate(ctx context.Context) error
	// Deactivate releases the venue connection and makes Activate return.
	Deactivate() error
	// SubmitOrder reports every venue rejection to the caller.
	SubmitOrder(ctx context.Context, order types.OrderRequest) error
	AccountInfo(ctx context.Context) (types.AccountInfo, error)
}

// Callbacks receive canonical events. Any of them may be nil.
type Callbacks struct {
	OnQuotes func(quotes []types.Quote)
	OnTrades func(trades []types.Trade)
	OnBars   func(bars []types.Bar)
}

func (c Callbacks) quotes(quotes []types.Quote) {
	if c.OnQuotes != nil && len(quotes) > 0 {
		c.OnQuotes(quotes)
	}
}

func (c Callbacks) trades(trades []types.Trade) {
	if c.OnTrades != nil && len(trades) > 0 {
		c.OnTrades(trades)
	}
}

func (c Callbacks) bars(bars []types.Bar) {
	if c.OnBars != nil && len(bars) > 0 {
		c.OnBars(bars)
	}
}

// Constructor builds a gateway from its configuration.
type Constructor func(cfg config.VenueConfig, callbacks Callbacks, log *logger.Logger) (Gateway, error)

// New builds the gateway for cfg.Venue.
func New(cfg config.VenueConfig, callbacks Callbacks, log *logger.Logger) (Gateway, error) {
	if log == nil {
		log = logger.NewNop()
	}

	switch cfg.Venue {
	case types.VenueBinance:
		if cfg.Binance == nil {
			return nil, errors.New(errors.ErrCodeGatewayConstruction, "binance venue has no params")
		}

		return NewBinanceGateway(*cfg.Binance, callbacks, log)
	case types.VenuePaper:
		if cfg.Paper == nil {
			return nil, errors.New(errors.ErrCodeGatewayConstruction, "paper venue has no params")
		}

		return NewPaperGateway(*cfg.Paper, callbacks, log), nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnknownVenue, "unsupported venue %q", cfg.Venue)
	}
}
