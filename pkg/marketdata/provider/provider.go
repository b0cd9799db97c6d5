// Package provider pulls historical bars from market data vendors.
package provider

import (
	"context"
	"iter"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-router/internal/types"
	"github.com/rxtech-lab/argo-router/pkg/errors"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
)

// HistoryProvider yields closed bars for one symbol, oldest first.
type HistoryProvider interface {
	Name() ProviderType
	// Bars returns an iterator over the bars of symbol that start in [start, end].
	// The iterator stops after yielding the first error. Cancel ctx to stop early.
	Bars(ctx context.Context, symbol string, start, end time.Time, multiplier int, timespan models.Timespan) iter.Seq2[types.Bar, error]
}

// New creates the history provider for providerType. Polygon requires apiKey.
func New(providerType ProviderType, apiKey string) (HistoryProvider, error) {
	switch providerType {
	case ProviderBinance:
		return NewBinanceHistory(), nil
	case ProviderPolygon:
		history, err := NewPolygonHistory(apiKey)
		if err != nil {
			return nil, err
		}

		return history, nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", providerType)
	}
}
