package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	apperrors "github.com/rxtech-lab/argo-router/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// mockPolygonAPIClient implements PolygonAPIClient for testing.
type mockPolygonAPIClient struct {
	iterator PolygonAggsIterator
	params   *models.ListAggsParams
}

func (m *mockPolygonAPIClient) ListAggs(_ context.Context, params *models.ListAggsParams, _ ...models.RequestOption) PolygonAggsIterator {
	m.params = params
	return m.iterator
}

// mockPolygonIterator implements PolygonAggsIterator for testing.
type mockPolygonIterator struct {
	aggs  []models.Agg
	index int
	err   error
}

func (m *mockPolygonIterator) Next() bool {
	if m.index < len(m.aggs) {
		m.index++
		return true
	}
	return false
}

func (m *mockPolygonIterator) Item() models.Agg {
	if m.index > 0 && m.index <= len(m.aggs) {
		return m.aggs[m.index-1]
	}
	return models.Agg{}
}

func (m *mockPolygonIterator) Err() error {
	return m.err
}

type PolygonHistoryTestSuite struct {
	suite.Suite
}

func TestPolygonHistorySuite(t *testing.T) {
	suite.Run(t, new(PolygonHistoryTestSuite))
}

func (suite *PolygonHistoryTestSuite) TestNewPolygonHistory_EmptyApiKey() {
	history, err := NewPolygonHistory("")
	suite.Error(err)
	suite.Nil(history)
}

func (suite *PolygonHistoryTestSuite) TestBars() {
	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	api := &mockPolygonAPIClient{iterator: &mockPolygonIterator{aggs: []models.Agg{
		{Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100, VWAP: 1.2, Transactions: 9, Timestamp: models.Millis(start)},
		{Open: 1.5, High: 2, Low: 1, Close: 1.8, Volume: 50, Timestamp: models.Millis(start.Add(time.Minute))},
	}}}
	history := NewPolygonHistoryWithAPI(api)

	bars, err := collect(history.Bars(context.Background(), "SPY", start, start.Add(time.Hour), 1, models.Minute))
	suite.NoError(err)
	suite.Require().Len(bars, 2)

	suite.Equal("SPY", bars[0].Symbol)
	suite.True(start.Equal(bars[0].Time))
	suite.Equal(1.2, bars[0].VWAP.Unwrap())
	suite.Equal(int64(9), bars[0].TradeCount.Unwrap())
	suite.True(bars[1].VWAP.IsNone())
	suite.True(bars[1].TradeCount.IsNone())

	suite.Equal("SPY", api.params.Ticker)
	suite.Equal(models.Minute, api.params.Timespan)
	suite.Equal(1, api.params.Multiplier)
}

func (suite *PolygonHistoryTestSuite) TestBars_IteratorError() {
	api := &mockPolygonAPIClient{iterator: &mockPolygonIterator{err: errors.New("forbidden")}}

	_, err := collect(NewPolygonHistoryWithAPI(api).Bars(context.Background(), "SPY", time.Unix(0, 0), time.Unix(60, 0), 1, models.Minute))
	suite.True(apperrors.HasCode(err, apperrors.ErrCodeMarketDataFetchFailed))
}

func (suite *PolygonHistoryTestSuite) TestBars_StopsWhenConsumerBreaks() {
	aggs := make([]models.Agg, 10)
	it := &mockPolygonIterator{aggs: aggs}
	api := &mockPolygonAPIClient{iterator: it}

	for range NewPolygonHistoryWithAPI(api).Bars(context.Background(), "SPY", time.Unix(0, 0), time.Unix(60, 0), 1, models.Minute) {
		break
	}

	suite.Equal(1, it.index)
}
