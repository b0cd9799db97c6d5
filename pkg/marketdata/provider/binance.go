package provider

import (
	"context"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/moznion/go-optional"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-router/internal/types"
	"github.com/rxtech-lab/argo-router/pkg/errors"
)

// binancePageSize is the largest page the klines endpoint returns.
const binancePageSize = 1000

// BinanceKlinesService abstracts the klines request builder for testing.
type BinanceKlinesService interface {
	Symbol(symbol string) BinanceKlinesService
	Interval(interval string) BinanceKlinesService
	StartTime(startTime int64) BinanceKlinesService
	EndTime(endTime int64) BinanceKlinesService
	Limit(limit int) BinanceKlinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

// BinanceAPIClient abstracts the public market data client.
type BinanceAPIClient interface {
	NewKlinesService() BinanceKlinesService
}

type binanceAPIClient struct {
	client *binance.Client
}

func (c *binanceAPIClient) NewKlinesService() BinanceKlinesService {
	return &binanceKlinesService{service: c.client.NewKlinesService()}
}

type binanceKlinesService struct {
	service *binance.KlinesService
}

func (s *binanceKlinesService) Symbol(symbol string) BinanceKlinesService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *binanceKlinesService) Interval(interval string) BinanceKlinesService {
	s.service = s.service.Interval(interval)

	return s
}

func (s *binanceKlinesService) StartTime(startTime int64) BinanceKlinesService {
	s.service = s.service.StartTime(startTime)

	return s
}

func (s *binanceKlinesService) EndTime(endTime int64) BinanceKlinesService {
	s.service = s.service.EndTime(endTime)

	return s
}

func (s *binanceKlinesService) Limit(limit int) BinanceKlinesService {
	s.service = s.service.Limit(limit)

	return s
}

func (s *binanceKlinesService) Do(ctx context.Context) ([]*binance.Kline, error) {
	return s.service.Do(ctx)
}

// BinanceHistory pages through Binance klines. The public endpoint needs no key.
type BinanceHistory struct {
	apiClient BinanceAPIClient
}

func NewBinanceHistory() *BinanceHistory {
	return &BinanceHistory{apiClient: &binanceAPIClient{client: binance.NewClient("", "")}}
}

// NewBinanceHistoryWithAPI creates a BinanceHistory on a custom client.
func NewBinanceHistoryWithAPI(apiClient BinanceAPIClient) *BinanceHistory {
	return &BinanceHistory{apiClient: apiClient}
}

func (c *BinanceHistory) Name() ProviderType {
	return ProviderBinance
}

func (c *BinanceHistory) Bars(ctx context.Context, symbol string, start, end time.Time, multiplier int, timespan models.Timespan) iter.Seq2[types.Bar, error] {
	return func(yield func(types.Bar, error) bool) {
		interval, err := BinanceInterval(timespan, multiplier)
		if err != nil {
			yield(types.Bar{}, err)

			return
		}

		native := strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
		currentStart := start.UnixMilli()
		endMillis := end.UnixMilli()

		for currentStart <= endMillis {
			if ctx.Err() != nil {
				yield(types.Bar{}, ctx.Err())

				return
			}

			klines, err := c.apiClient.NewKlinesService().
				Symbol(native).
				Interval(interval).
				StartTime(currentStart).
				EndTime(endMillis).
				Limit(binancePageSize).
				Do(ctx)
			if err != nil {
				yield(types.Bar{}, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to fetch klines from Binance", err))

				return
			}

			for _, k := range klines {
				bar, err := klineToBar(symbol, k)
				if !yield(bar, err) || err != nil {
					return
				}
			}

			if len(klines) < binancePageSize {
				return
			}

			// Resume after the close time of the last kline to avoid duplicates
			currentStart = klines[len(klines)-1].CloseTime + 1
		}
	}
}

func klineToBar(symbol string, k *binance.Kline) (types.Bar, error) {
	values := make([]float64, 6)

	for i, s := range []string{k.Open, k.High, k.Low, k.Close, k.Volume, k.QuoteAssetVolume} {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return types.Bar{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid kline value %q for %s", s, symbol)
		}

		values[i] = v
	}

	vwap := optional.None[float64]()
	if values[4] > 0 {
		vwap = optional.Some(values[5] / values[4])
	}

	return types.Bar{
		Venue:      types.VenueBinance,
		Symbol:     symbol,
		Time:       time.UnixMilli(k.OpenTime),
		Open:       values[0],
		High:       values[1],
		Low:        values[2],
		Close:      values[3],
		Volume:     values[4],
		TradeCount: optional.Some(k.TradeNum),
		VWAP:       vwap,
	}, nil
}

// BinanceInterval converts a polygon timespan and multiplier to a Binance interval string.
// Binance intervals: 1s, 1m, 3m, 5m, 15m, 30m, 1h, 2h, 4h, 6h, 8h, 12h, 1d, 3d, 1w, 1M.
func BinanceInterval(timespan models.Timespan, multiplier int) (string, error) {
	allowed := map[models.Timespan][]int{
		models.Second: {1},
		models.Minute: {1, 3, 5, 15, 30},
		models.Hour:   {1, 2, 4, 6, 8, 12},
		models.Day:    {1, 3},
		models.Week:   {1},
		models.Month:  {1},
	}

	suffix := map[models.Timespan]string{
		models.Second: "s",
		models.Minute: "m",
		models.Hour:   "h",
		models.Day:    "d",
		models.Week:   "w",
		models.Month:  "M",
	}

	multipliers, ok := allowed[timespan]
	if !ok {
		return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported timespan for Binance: %s", timespan)
	}

	for _, m := range multipliers {
		if m == multiplier {
			return fmt.Sprintf("%d%s", multiplier, suffix[timespan]), nil
		}
	}

	return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported %s multiplier for Binance: %d", timespan, multiplier)
}
