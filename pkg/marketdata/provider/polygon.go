package provider

import (
	"context"
	"iter"
	"time"

	"github.com/moznion/go-optional"
	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-router/internal/types"
	"github.com/rxtech-lab/argo-router/pkg/errors"
)

// PolygonAggsIterator is the subset of the polygon iterator that is consumed.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient abstracts the aggregates endpoint for testing.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator
}

type polygonAPIClient struct {
	client *polygon.Client
}

func (c *polygonAPIClient) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator {
	return c.client.ListAggs(ctx, params, options...)
}

// PolygonHistory reads aggregates from Polygon.io.
type PolygonHistory struct {
	apiClient PolygonAPIClient
}

func NewPolygonHistory(apiKey string) (*PolygonHistory, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidProvider, "polygon provider requires an API key")
	}

	return &PolygonHistory{apiClient: &polygonAPIClient{client: polygon.New(apiKey)}}, nil
}

// NewPolygonHistoryWithAPI creates a PolygonHistory on a custom client.
func NewPolygonHistoryWithAPI(apiClient PolygonAPIClient) *PolygonHistory {
	return &PolygonHistory{apiClient: apiClient}
}

func (c *PolygonHistory) Name() ProviderType {
	return ProviderPolygon
}

func (c *PolygonHistory) Bars(ctx context.Context, symbol string, start, end time.Time, multiplier int, timespan models.Timespan) iter.Seq2[types.Bar, error] {
	return func(yield func(types.Bar, error) bool) {
		//nolint:exhaustruct // third-party struct with many optional fields
		params := models.ListAggsParams{
			Ticker:     symbol,
			Multiplier: multiplier,
			Timespan:   timespan,
			From:       models.Millis(start),
			To:         models.Millis(end),
		}.WithLimit(50000)

		it := c.apiClient.ListAggs(ctx, params)

		for it.Next() {
			if !yield(aggToBar(symbol, it.Item()), nil) {
				return
			}
		}

		if err := it.Err(); err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "error iterating polygon aggregates", err))
		}
	}
}

func aggToBar(symbol string, agg models.Agg) types.Bar {
	vwap := optional.None[float64]()
	if agg.VWAP > 0 {
		vwap = optional.Some(agg.VWAP)
	}

	trades := optional.None[int64]()
	if agg.Transactions > 0 {
		trades = optional.Some(agg.Transactions)
	}

	return types.Bar{
		Venue:      "",
		Symbol:     symbol,
		Time:       time.Time(agg.Timestamp),
		Open:       agg.Open,
		High:       agg.High,
		Low:        agg.Low,
		Close:      agg.Close,
		Volume:     agg.Volume,
		TradeCount: trades,
		VWAP:       vwap,
	}
}
