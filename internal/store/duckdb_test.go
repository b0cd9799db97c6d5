package store_test

import (
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-router/internal/config"
	"github.com/rxtech-lab/argo-router/internal/logger"
	"github.com/rxtech-lab/argo-router/internal/store"
	"github.com/rxtech-lab/argo-router/internal/types"
	"github.com/rxtech-lab/argo-router/mocks"
	apperrors "github.com/rxtech-lab/argo-router/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type DuckDBStoreTestSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	history *mocks.MockHistoryProvider
	cfg     config.StoreConfig
	store   *store.DuckDBStore
	base    time.Time
}

func TestDuckDBStoreSuite(t *testing.T) {
	suite.Run(t, new(DuckDBStoreTestSuite))
}

func (suite *DuckDBStoreTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.history = mocks.NewMockHistoryProvider(suite.ctrl)
	suite.base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	suite.cfg = config.StoreConfig{
		Driver: config.StoreDriverDuckDB,
		Path:   ":memory:",
		Refresh: config.RefreshConfig{
			Source:     config.HistorySourceBinance,
			Interval:   time.Minute,
			Lookback:   time.Hour,
			Timespan:   "minute",
			Multiplier: 1,
			Symbols:    []string{"BTC/USD"},
		},
	}
	suite.store = store.NewDuckDBStore(suite.cfg, suite.history, logger.NewNop())
	suite.Require().NoError(suite.store.Open(context.Background()))
}

func (suite *DuckDBStoreTestSuite) TearDownTest() {
	suite.NoError(suite.store.Close())
	suite.ctrl.Finish()
}

func (suite *DuckDBStoreTestSuite) bar(symbol string, minute int, closePrice float64) types.Bar {
	return types.Bar{
		Venue:      types.VenuePaper,
		Symbol:     symbol,
		Time:       suite.base.Add(time.Duration(minute) * time.Minute),
		Open:       closePrice,
		High:       closePrice,
		Low:        closePrice,
		Close:      closePrice,
		Volume:     1,
		TradeCount: optional.Some[int64](3),
		VWAP:       optional.None[float64](),
	}
}

func seq(bars []types.Bar, err error) iter.Seq2[types.Bar, error] {
	return func(yield func(types.Bar, error) bool) {
		for _, b := range bars {
			if !yield(b, nil) {
				return
			}
		}

		if err != nil {
			yield(types.Bar{}, err)
		}
	}
}

func (suite *DuckDBStoreTestSuite) TestOpen_Idempotent() {
	suite.NoError(suite.store.Open(context.Background()))
}

func (suite *DuckDBStoreTestSuite) TestQueryRecentCloses_ChronologicalLastN() {
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		suite.Require().NoError(suite.store.AppendBar(ctx, suite.bar("BTC/USD", i, float64(i))))
	}

	suite.Require().NoError(suite.store.AppendBar(ctx, suite.bar("ETH/USD", 11, 99)))

	closes, err := suite.store.QueryRecentCloses(ctx, "BTC/USD", 4)
	suite.NoError(err)
	suite.Equal([]float64{7, 8, 9, 10}, closes)

	closes, err = suite.store.QueryRecentCloses(ctx, "BTC/USD", 100)
	suite.NoError(err)
	suite.Len(closes, 10)

	closes, err = suite.store.QueryRecentCloses(ctx, "SOL/USD", 5)
	suite.NoError(err)
	suite.Empty(closes)
}

func (suite *DuckDBStoreTestSuite) TestAppendBar_LatestInsertWins() {
	ctx := context.Background()

	suite.Require().NoError(suite.store.AppendBar(ctx, suite.bar("BTC/USD", 1, 100)))
	suite.Require().NoError(suite.store.AppendBar(ctx, suite.bar("BTC/USD", 1, 101)))

	count, err := suite.store.Count(ctx, "BTC/USD")
	suite.NoError(err)
	suite.Equal(1, count)

	closes, err := suite.store.QueryRecentCloses(ctx, "BTC/USD", 1)
	suite.NoError(err)
	suite.Equal([]float64{101}, closes)
}

func (suite *DuckDBStoreTestSuite) TestAppendBars_Empty() {
	suite.NoError(suite.store.AppendBars(context.Background(), nil))
}

func (suite *DuckDBStoreTestSuite) TestClosedStore() {
	closed := store.NewDuckDBStore(suite.cfg, nil, nil)

	_, err := closed.QueryRecentCloses(context.Background(), "BTC/USD", 1)
	suite.True(apperrors.HasCode(err, apperrors.ErrCodeStoreClosed))

	err = closed.AppendBar(context.Background(), suite.bar("BTC/USD", 1, 1))
	suite.True(apperrors.HasCode(err, apperrors.ErrCodeStoreClosed))

	suite.NoError(closed.Close())
}

func (suite *DuckDBStoreTestSuite) TestRefresh_EmptySymbolUsesLookback() {
	ctx := context.Background()
	fetched := []types.Bar{suite.bar("BTCUSD", 1, 1), suite.bar("BTCUSD", 2, 2)}

	suite.history.EXPECT().
		Bars(gomock.Any(), "BTC/USD", gomock.Any(), gomock.Any(), 1, models.Minute).
		DoAndReturn(func(_ context.Context, _ string, start, end time.Time, _ int, _ models.Timespan) iter.Seq2[types.Bar, error] {
			suite.InDelta(time.Hour.Seconds(), end.Sub(start).Seconds(), 1)

			return seq(fetched, nil)
		})

	suite.NoError(suite.store.Refresh(ctx))

	closes, err := suite.store.QueryRecentCloses(ctx, "BTC/USD", 10)
	suite.NoError(err)
	suite.Equal([]float64{1, 2}, closes)
}

func (suite *DuckDBStoreTestSuite) TestRefresh_ResumesFromLatestAndDeduplicates() {
	ctx := context.Background()

	suite.Require().NoError(suite.store.AppendBar(ctx, suite.bar("BTC/USD", 5, 5)))

	suite.history.EXPECT().
		Bars(gomock.Any(), "BTC/USD", gomock.Any(), gomock.Any(), 1, models.Minute).
		DoAndReturn(func(_ context.Context, _ string, start, _ time.Time, _ int, _ models.Timespan) iter.Seq2[types.Bar, error] {
			suite.True(start.Equal(suite.base.Add(5 * time.Minute)))

			return seq([]types.Bar{suite.bar("BTC/USD", 5, 5.5), suite.bar("BTC/USD", 6, 6)}, nil)
		})

	suite.NoError(suite.store.Refresh(ctx))

	count, err := suite.store.Count(ctx, "BTC/USD")
	suite.NoError(err)
	suite.Equal(2, count)

	closes, err := suite.store.QueryRecentCloses(ctx, "BTC/USD", 10)
	suite.NoError(err)
	suite.Equal([]float64{5.5, 6}, closes)
}

func (suite *DuckDBStoreTestSuite) TestRefresh_ProviderError() {
	suite.history.EXPECT().
		Bars(gomock.Any(), "BTC/USD", gomock.Any(), gomock.Any(), 1, models.Minute).
		Return(seq(nil, errors.New("rate limited")))

	err := suite.store.Refresh(context.Background())
	suite.True(apperrors.HasCode(err, apperrors.ErrCodeRefreshFailed))
}

func (suite *DuckDBStoreTestSuite) TestRefresh_NoProvider() {
	s := store.NewDuckDBStore(suite.cfg, nil, nil)
	suite.Require().NoError(s.Open(context.Background()))
	defer s.Close()

	suite.NoError(s.Refresh(context.Background()))
}

func (suite *DuckDBStoreTestSuite) TestClose_ExportsParquet() {
	dir := suite.T().TempDir()
	cfg := suite.cfg
	cfg.ExportParquet = filepath.Join(dir, "bars.parquet")

	s := store.NewDuckDBStore(cfg, nil, nil)
	suite.Require().NoError(s.Open(context.Background()))
	suite.Require().NoError(s.AppendBar(context.Background(), suite.bar("BTC/USD", 1, 1)))
	suite.Require().NoError(s.Close())

	info, err := os.Stat(cfg.ExportParquet)
	suite.NoError(err)
	suite.Positive(info.Size())
}

func (suite *DuckDBStoreTestSuite) TestFileStore_SurvivesReopen() {
	cfg := suite.cfg
	cfg.Path = filepath.Join(suite.T().TempDir(), "bars.duckdb")

	s := store.NewDuckDBStore(cfg, nil, nil)
	suite.Require().NoError(s.Open(context.Background()))
	suite.Require().NoError(s.AppendBar(context.Background(), suite.bar("BTC/USD", 1, 42)))
	suite.Require().NoError(s.Close())

	suite.Require().NoError(s.Open(context.Background()))
	defer s.Close()

	closes, err := s.QueryRecentCloses(context.Background(), "BTC/USD", 1)
	suite.NoError(err)
	suite.Equal([]float64{42}, closes)
}

func (suite *DuckDBStoreTestSuite) TestNew_Registry() {
	s, err := store.New(config.StoreConfig{Driver: config.StoreDriverDuckDB, Path: ":memory:"}, nil)
	suite.NoError(err)
	suite.IsType(&store.DuckDBStore{}, s)

	s, err = store.New(config.StoreConfig{Driver: config.StoreDriverPostgres, DSN: "postgres://localhost/bars"}, nil)
	suite.NoError(err)
	suite.IsType(&store.PostgresStore{}, s)

	_, err = store.New(config.StoreConfig{Driver: "sqlite"}, nil)
	suite.True(apperrors.HasCode(err, apperrors.ErrCodeUnsupportedStore))

	_, err = store.New(config.StoreConfig{
		Driver:  config.StoreDriverDuckDB,
		Refresh: config.RefreshConfig{Source: config.HistorySourcePolygon, APIKey: ""},
	}, nil)
	suite.True(apperrors.HasCode(err, apperrors.ErrCodeInvalidProvider))
}
