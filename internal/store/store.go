// Package store persists bars and serves seed history to strategies.
package store

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-router/internal/config"
	"github.com/rxtech-lab/argo-router/internal/logger"
	"github.com/rxtech-lab/argo-router/internal/types"
	"github.com/rxtech-lab/argo-router/pkg/errors"
	"github.com/rxtech-lab/argo-router/pkg/marketdata/provider"
	"go.uber.org/zap"
)

// Store is the market data store. Rows are unique per (symbol, time); the most
// recently written row wins.
type Store interface {
	// Open connects to the backend. It is a no-op on an open store.
	Open(ctx context.Context) error
	// Close releases the connection. An in-memory DuckDB store loses its data.
	Close() error
	// QueryRecentCloses returns up to count closes of symbol, oldest first.
	QueryRecentCloses(ctx context.Context, symbol string, count int) ([]float64, error)
	AppendBar(ctx context.Context, bar types.Bar) error
	AppendBars(ctx context.Context, bars []types.Bar) error
	// Refresh pulls bars newer than the latest stored one for every refresh symbol.
	Refresh(ctx context.Context) error
}

// New builds the store selected by cfg.Driver. The history provider named by
// cfg.Refresh.Source backs Refresh.
func New(cfg config.StoreConfig, log *logger.Logger) (Store, error) {
	if log == nil {
		log = logger.NewNop()
	}

	history, err := NewHistoryProvider(cfg.Refresh)
	if err != nil {
		return nil, err
	}

	switch cfg.Driver {
	case config.StoreDriverDuckDB:
		return NewDuckDBStore(cfg, history, log), nil
	case config.StoreDriverPostgres:
		return NewPostgresStore(cfg, history, log), nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedStore, "unsupported store driver %q", cfg.Driver)
	}
}

// NewHistoryProvider returns the provider for cfg.Source, or nil for none.
func NewHistoryProvider(cfg config.RefreshConfig) (provider.HistoryProvider, error) {
	switch cfg.Source {
	case config.HistorySourceNone, "":
		return nil, nil //nolint:nilnil // no provider configured
	case config.HistorySourceBinance:
		return provider.New(provider.ProviderBinance, "")
	case config.HistorySourcePolygon:
		return provider.New(provider.ProviderPolygon, cfg.APIKey)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported history source %q", cfg.Source)
	}
}

func nullable[T any](o optional.Option[T]) any {
	v, err := o.Take()
	if err != nil {
		return nil
	}

	return v
}

// refresher holds the backend-independent part of Refresh.
type refresher struct {
	cfg     config.RefreshConfig
	history provider.HistoryProvider
	logger  *logger.Logger
	now     func() time.Time
}

// run fetches, for each symbol, everything after latest(symbol) or the last
// cfg.Lookback when the symbol has no rows, and writes it with write.
func (r *refresher) run(
	ctx context.Context,
	latest func(ctx context.Context, symbol string) (time.Time, bool, error),
	write func(ctx context.Context, bars []types.Bar) error,
) error {
	if r.history == nil {
		return nil
	}

	end := r.now()
	timespan := models.Timespan(r.cfg.Timespan)

	for _, symbol := range r.cfg.Symbols {
		last, ok, err := latest(ctx, symbol)
		if err != nil {
			return err
		}

		start := end.Add(-r.cfg.Lookback)
		if ok {
			// Re-read the newest stored bar; it may have been written before it closed.
			start = last
		}

		batch := make([]types.Bar, 0, 500)
		count := 0

		for bar, err := range r.history.Bars(ctx, symbol, start, end, r.cfg.Multiplier, timespan) {
			if err != nil {
				return errors.Wrapf(errors.ErrCodeRefreshFailed, err, "failed to refresh %s", symbol)
			}

			bar.Symbol = symbol
			batch = append(batch, bar)

			if len(batch) == cap(batch) {
				if err := write(ctx, batch); err != nil {
					return err
				}

				count += len(batch)
				batch = batch[:0]
			}
		}

		if err := write(ctx, batch); err != nil {
			return err
		}

		count += len(batch)

		r.logger.Debug("refreshed symbol",
			zap.String("symbol", symbol),
			zap.Int("bars", count),
			zap.Time("from", start),
		)
	}

	return nil
}
