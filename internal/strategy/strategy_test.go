package strategy

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-router/internal/config"
	"github.com/rxtech-lab/argo-router/internal/logger"
	"github.com/rxtech-lab/argo-router/internal/queue"
	"github.com/rxtech-lab/argo-router/internal/types"
	apperrors "github.com/rxtech-lab/argo-router/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type fakeSignals struct {
	mu      sync.Mutex
	signals []types.Signal
	err     error
}

func (f *fakeSignals) HandleSignals(_ context.Context, signals []types.Signal) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.signals = append(f.signals, signals...)

	return f.err
}

func (f *fakeSignals) all() []types.Signal {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]types.Signal, len(f.signals))
	copy(out, f.signals)

	return out
}

type fakeHistory struct {
	closes map[string][]float64
	err    error
	calls  int
}

func (f *fakeHistory) QueryRecentCloses(_ context.Context, symbol string, count int) ([]float64, error) {
	f.calls++

	if f.err != nil {
		return nil, f.err
	}

	closes := f.closes[symbol]
	if len(closes) > count {
		closes = closes[len(closes)-count:]
	}

	return closes, nil
}

type fakeAccounts struct {
	info types.AccountInfo
	err  error
}

func (f *fakeAccounts) AccountInfo(context.Context, types.Venue) (types.AccountInfo, error) {
	return f.info, f.err
}

type StrategyTestSuite struct {
	suite.Suite
	signals  *fakeSignals
	history  *fakeHistory
	accounts *fakeAccounts
	base     time.Time
}

func TestStrategySuite(t *testing.T) {
	suite.Run(t, new(StrategyTestSuite))
}

func (suite *StrategyTestSuite) SetupTest() {
	suite.signals = &fakeSignals{}
	suite.history = &fakeHistory{closes: map[string][]float64{}}
	suite.accounts = &fakeAccounts{info: types.AccountInfo{Cash: 1000, Equity: 1000}}
	suite.base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (suite *StrategyTestSuite) deps() Deps {
	return Deps{
		Signals:      suite.signals,
		History:      suite.history,
		Accounts:     suite.accounts,
		Logger:       logger.NewNop(),
		PollInterval: 10 * time.Millisecond,
	}
}

func (suite *StrategyTestSuite) bar(venue types.Venue, symbol string, i int, closePrice float64) types.Bar {
	return types.Bar{
		Venue:  venue,
		Symbol: symbol,
		Time:   suite.base.Add(time.Duration(i) * time.Minute),
		Open:   closePrice,
		High:   closePrice,
		Low:    closePrice,
		Close:  closePrice,
		Volume: 1,
	}
}

func sizing() config.Sizing {
	return config.Sizing{Fraction: 0.1, Precision: 8}
}

func crossoverConfig(short, long int) config.StrategyConfig {
	return config.StrategyConfig{
		Name:         "crossover",
		Kind:         types.StrategyKindSMACrossover,
		Venues:       []types.Venue{types.VenuePaper},
		Symbols:      []string{"BTC/USD"},
		Queue:        queue.Config{Capacity: 0, Overflow: queue.PolicyBlock},
		SMACrossover: &config.SMACrossoverParams{ShortWindow: short, LongWindow: long, Sizing: sizing()},
	}
}

func thresholdConfig(window, period int) config.StrategyConfig {
	return config.StrategyConfig{
		Name:    "rsi",
		Kind:    types.StrategyKindRSIThreshold,
		Venues:  []types.Venue{types.VenuePaper},
		Symbols: []string{"BTC/USD"},
		Queue:   queue.Config{Capacity: 0, Overflow: queue.PolicyBlock},
		RSIThreshold: &config.RSIThresholdParams{
			Window:     window,
			Period:     period,
			Oversold:   30,
			Overbought: 70,
			Sizing:     sizing(),
		},
	}
}

func (suite *StrategyTestSuite) feed(s Handler, venue types.Venue, closes ...float64) {
	for i, c := range closes {
		suite.Require().NoError(s.OnBar(context.Background(), suite.bar(venue, "BTC/USD", i, c)))
	}
}

func (suite *StrategyTestSuite) TestSMACrossover_SingleLongOnRisingSeries() {
	s, err := NewSMACrossover(context.Background(), crossoverConfig(3, 5), *crossoverConfig(3, 5).SMACrossover, suite.deps())
	suite.Require().NoError(err)

	suite.feed(s, types.VenuePaper, 1, 2, 3, 4, 5, 6, 7, 8)

	signals := suite.signals.all()
	suite.Require().Len(signals, 1)
	suite.Equal(types.ExposureLong, signals[0].Exposure)
	suite.Equal(types.VenuePaper, signals[0].Venue)
	suite.Equal("BTC/USD", signals[0].Symbol)
	suite.Equal("crossover", signals[0].Strategy)
	suite.InDelta(5.0, signals[0].Price, 1e-9)
	suite.InDelta(20.0, signals[0].Quantity, 1e-9)
	suite.Equal(suite.base.Add(4*time.Minute), signals[0].Time)
}

func (suite *StrategyTestSuite) TestSMACrossover_ShortOnReversal() {
	s, err := NewSMACrossover(context.Background(), crossoverConfig(3, 5), *crossoverConfig(3, 5).SMACrossover, suite.deps())
	suite.Require().NoError(err)

	suite.feed(s, types.VenuePaper, 1, 2, 3, 4, 5, 6, 7, 8, 1)

	signals := suite.signals.all()
	suite.Require().Len(signals, 2)
	suite.Equal(types.ExposureShort, signals[1].Exposure)
	// Shorts size on equity
	suite.InDelta(100.0, signals[1].Quantity, 1e-9)
}

func (suite *StrategyTestSuite) TestSMACrossover_NoSignalOnFlatSeries() {
	s, err := NewSMACrossover(context.Background(), crossoverConfig(3, 5), *crossoverConfig(3, 5).SMACrossover, suite.deps())
	suite.Require().NoError(err)

	suite.feed(s, types.VenuePaper, 5, 5, 5, 5, 5, 5, 5)
	suite.Empty(suite.signals.all())
}

func (suite *StrategyTestSuite) TestSMACrossover_SeedsFromHistory() {
	suite.history.closes["BTC/USD"] = []float64{0, 0, 1, 2, 3, 4}
	cfg := crossoverConfig(3, 5)

	s, err := NewSMACrossover(context.Background(), cfg, *cfg.SMACrossover, suite.deps())
	suite.Require().NoError(err)

	suite.feed(s, types.VenuePaper, 5)

	signals := suite.signals.all()
	suite.Require().Len(signals, 1)
	suite.Equal(types.ExposureLong, signals[0].Exposure)
}

func (suite *StrategyTestSuite) TestSMACrossover_SeedsOncePerSymbol() {
	cfg := crossoverConfig(3, 5)
	cfg.Venues = []types.Venue{types.VenuePaper, types.VenueBinance}

	_, err := NewSMACrossover(context.Background(), cfg, *cfg.SMACrossover, suite.deps())
	suite.Require().NoError(err)
	suite.Equal(1, suite.history.calls)
}

func (suite *StrategyTestSuite) TestSMACrossover_InstrumentsAreIndependent() {
	cfg := crossoverConfig(3, 5)
	cfg.Venues = []types.Venue{types.VenuePaper, types.VenueBinance}

	s, err := NewSMACrossover(context.Background(), cfg, *cfg.SMACrossover, suite.deps())
	suite.Require().NoError(err)

	// Interleaved venues must not share windows
	for i, c := range []float64{1, 2, 3, 4, 5} {
		suite.Require().NoError(s.OnBar(context.Background(), suite.bar(types.VenuePaper, "BTC/USD", i, c)))
		suite.Require().NoError(s.OnBar(context.Background(), suite.bar(types.VenueBinance, "BTC/USD", i, 10-c)))
	}

	signals := suite.signals.all()
	suite.Require().Len(signals, 1)
	suite.Equal(types.VenuePaper, signals[0].Venue)
}

func (suite *StrategyTestSuite) TestSMACrossover_IgnoresUnknownInstrument() {
	cfg := crossoverConfig(3, 5)

	s, err := NewSMACrossover(context.Background(), cfg, *cfg.SMACrossover, suite.deps())
	suite.Require().NoError(err)

	suite.feed(s, types.VenueBinance, 1, 2, 3, 4, 5, 6)
	suite.Empty(suite.signals.all())
}

func (suite *StrategyTestSuite) TestSMACrossover_SeedFailure() {
	suite.history.err = errors.New("store down")
	cfg := crossoverConfig(3, 5)

	_, err := NewSMACrossover(context.Background(), cfg, *cfg.SMACrossover, suite.deps())
	suite.True(apperrors.HasCode(err, apperrors.ErrCodeStrategySeedFailed))
}

func (suite *StrategyTestSuite) TestSMACrossover_SizingFailureDropsSignal() {
	suite.accounts.err = errors.New("venue down")
	cfg := crossoverConfig(3, 5)

	s, err := NewSMACrossover(context.Background(), cfg, *cfg.SMACrossover, suite.deps())
	suite.Require().NoError(err)

	suite.feed(s, types.VenuePaper, 1, 2, 3, 4, 5)

	suite.Empty(suite.signals.all())
	suite.Equal(uint64(1), s.Stats().SizingFailures)
	suite.Zero(s.Stats().Signals)
}

func (suite *StrategyTestSuite) TestRSIThreshold_ScriptedCrossings() {
	cfg := thresholdConfig(3, 2)

	s, err := NewRSIThreshold(context.Background(), cfg, *cfg.RSIThreshold, suite.deps())
	suite.Require().NoError(err)

	script := []float64{50, 40, 28, 25, 35, 29, 75, 80, 65, 70}
	calls := 0
	s.rsi = func([]float64, int) (float64, error) {
		v := script[calls]
		calls++

		return v, nil
	}

	// Two warm-up bars fill the window before the script starts
	closes := make([]float64, 0, len(script)+2)
	for i := range len(script) + 2 {
		closes = append(closes, float64(100+i))
	}

	suite.feed(s, types.VenuePaper, closes...)
	suite.Equal(len(script), calls)

	var exposures []types.Exposure
	for _, sig := range suite.signals.all() {
		exposures = append(exposures, sig.Exposure)
	}

	suite.Equal([]types.Exposure{
		types.ExposureLong,  // 28
		types.ExposureLong,  // 29 after re-arming at 35
		types.ExposureShort, // 75
		types.ExposureShort, // 70 after re-arming at 65
	}, exposures)
}

func (suite *StrategyTestSuite) TestRSIThreshold_OversoldCrossingOnRealCloses() {
	cfg := thresholdConfig(11, 0)

	s, err := NewRSIThreshold(context.Background(), cfg, *cfg.RSIThreshold, suite.deps())
	suite.Require().NoError(err)
	suite.Equal(10, s.params.Period)

	// Five gains and five losses fill the window at RSI 50. The next closes take the
	// RSI to 38.1, 29.6, 24.0 and back up to 34.6.
	closes := []float64{100, 101, 100, 101, 100, 101, 100, 101, 100, 101, 100, 98.5, 94.5, 94.5, 96}
	suite.feed(s, types.VenuePaper, closes...)

	signals := suite.signals.all()
	suite.Require().Len(signals, 1)
	suite.Equal(types.ExposureLong, signals[0].Exposure)
	suite.InDelta(94.5, signals[0].Price, 1e-9)
	suite.Equal(suite.base.Add(12*time.Minute), signals[0].Time)

	st := s.state[instrument{venue: types.VenuePaper, symbol: "BTC/USD"}]
	suite.True(st.buyArmed)
	suite.True(st.sellArmed)
}

func (suite *StrategyTestSuite) TestRSIThreshold_DefaultPeriodUsesWholeWindow() {
	// 44 gains then 15 losses: a 14 change seed reads 32.9, the whole window reads 74.6
	closes := []float64{100}
	for range 44 {
		closes = append(closes, closes[len(closes)-1]+1)
	}

	for range 15 {
		closes = append(closes, closes[len(closes)-1]-1)
	}

	cfg := thresholdConfig(len(closes), 0)

	s, err := NewRSIThreshold(context.Background(), cfg, *cfg.RSIThreshold, suite.deps())
	suite.Require().NoError(err)

	suite.feed(s, types.VenuePaper, closes...)

	signals := suite.signals.all()
	suite.Require().Len(signals, 1)
	suite.Equal(types.ExposureShort, signals[0].Exposure)
}

func (suite *StrategyTestSuite) TestRSIThreshold_FallingSeriesGoesLong() {
	cfg := thresholdConfig(5, 3)

	s, err := NewRSIThreshold(context.Background(), cfg, *cfg.RSIThreshold, suite.deps())
	suite.Require().NoError(err)

	suite.feed(s, types.VenuePaper, 10, 9, 8, 7, 6, 5, 4)

	signals := suite.signals.all()
	suite.Require().Len(signals, 1)
	suite.Equal(types.ExposureLong, signals[0].Exposure)
	suite.InDelta(6.0, signals[0].Price, 1e-9)
}

func (suite *StrategyTestSuite) TestRSIThreshold_RisingSeriesGoesShort() {
	cfg := thresholdConfig(5, 3)

	s, err := NewRSIThreshold(context.Background(), cfg, *cfg.RSIThreshold, suite.deps())
	suite.Require().NoError(err)

	suite.feed(s, types.VenuePaper, 1, 2, 3, 4, 5, 6)

	signals := suite.signals.all()
	suite.Require().Len(signals, 1)
	suite.Equal(types.ExposureShort, signals[0].Exposure)
}

func (suite *StrategyTestSuite) TestRSIThreshold_IndicatorErrorEndsRun() {
	cfg := thresholdConfig(3, 2)

	s, err := NewRSIThreshold(context.Background(), cfg, *cfg.RSIThreshold, suite.deps())
	suite.Require().NoError(err)

	s.rsi = func([]float64, int) (float64, error) {
		return 0, apperrors.New(apperrors.ErrCodeIndicatorCalculation, "boom")
	}

	ctx := context.Background()
	bars := []types.Bar{
		suite.bar(types.VenuePaper, "BTC/USD", 0, 1),
		suite.bar(types.VenuePaper, "BTC/USD", 1, 2),
		suite.bar(types.VenuePaper, "BTC/USD", 2, 3),
	}
	suite.Require().NoError(s.HandleBars(ctx, bars))

	err = s.Run(ctx)
	suite.True(apperrors.HasCode(err, apperrors.ErrCodeIndicatorCalculation))
	suite.Equal(uint64(3), s.Stats().Bars)
}

func (suite *StrategyTestSuite) TestRun_ProcessesQueuedBars() {
	cfg := crossoverConfig(3, 5)

	s, err := New(context.Background(), cfg, suite.deps())
	suite.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- s.Run(ctx) }()

	bars := make([]types.Bar, 0, 8)
	for i := 1; i <= 8; i++ {
		bars = append(bars, suite.bar(types.VenuePaper, "BTC/USD", i, float64(i)))
	}

	suite.Require().NoError(s.HandleBars(ctx, bars))

	suite.Eventually(func() bool { return s.Stats().Bars == 8 }, time.Second, 5*time.Millisecond)
	suite.Len(suite.signals.all(), 1)

	cancel()

	select {
	case err := <-done:
		suite.NoError(err)
	case <-time.After(time.Second):
		suite.Fail("run did not stop")
	}
}

func (suite *StrategyTestSuite) TestHandle_IgnoresUnsubscribedTypes() {
	cfg := crossoverConfig(3, 5)

	s, err := NewSMACrossover(context.Background(), cfg, *cfg.SMACrossover, suite.deps())
	suite.Require().NoError(err)

	ctx := context.Background()
	suite.NoError(s.HandleQuotes(ctx, []types.Quote{{Venue: types.VenuePaper, Symbol: "BTC/USD"}}))
	suite.NoError(s.HandleTrades(ctx, []types.Trade{{Venue: types.VenuePaper, Symbol: "BTC/USD", Price: 1}}))
	suite.Zero(s.Pending())

	suite.NoError(s.HandleBars(ctx, []types.Bar{suite.bar(types.VenuePaper, "BTC/USD", 0, 1)}))
	suite.Equal(1, s.Pending())
}

func (suite *StrategyTestSuite) TestNoop_ConsumesEverything() {
	cfg := config.StrategyConfig{
		Name:    "noop",
		Kind:    types.StrategyKindNoop,
		Venues:  []types.Venue{types.VenuePaper},
		Symbols: []string{"BTC/USD"},
		Noop:    &config.NoopParams{},
	}

	s, err := New(context.Background(), cfg, suite.deps())
	suite.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = s.Run(ctx) }()

	suite.NoError(s.HandleQuotes(ctx, []types.Quote{{Venue: types.VenuePaper, Symbol: "BTC/USD"}}))
	suite.NoError(s.HandleTrades(ctx, []types.Trade{{Venue: types.VenuePaper, Symbol: "BTC/USD", Price: 1}}))
	suite.NoError(s.HandleBars(ctx, []types.Bar{suite.bar(types.VenuePaper, "BTC/USD", 0, 1)}))

	suite.Eventually(func() bool {
		st := s.Stats()

		return st.Quotes == 1 && st.Trades == 1 && st.Bars == 1
	}, time.Second, 5*time.Millisecond)
	suite.Empty(suite.signals.all())
}

func (suite *StrategyTestSuite) TestClose_RejectsEvents() {
	cfg := crossoverConfig(3, 5)

	s, err := NewSMACrossover(context.Background(), cfg, *cfg.SMACrossover, suite.deps())
	suite.Require().NoError(err)

	s.Close()

	err = s.HandleBars(context.Background(), []types.Bar{suite.bar(types.VenuePaper, "BTC/USD", 0, 1)})
	suite.True(apperrors.HasCode(err, apperrors.ErrCodeQueueClosed))
}

func (suite *StrategyTestSuite) TestDropNewestCountsDropped() {
	cfg := crossoverConfig(3, 5)
	cfg.Queue = queue.Config{Capacity: 1, Overflow: queue.PolicyDropNewest}

	s, err := NewSMACrossover(context.Background(), cfg, *cfg.SMACrossover, suite.deps())
	suite.Require().NoError(err)

	ctx := context.Background()
	suite.NoError(s.HandleBars(ctx, []types.Bar{suite.bar(types.VenuePaper, "BTC/USD", 0, 1)}))

	err = s.HandleBars(ctx, []types.Bar{suite.bar(types.VenuePaper, "BTC/USD", 1, 2)})
	suite.True(apperrors.HasCode(err, apperrors.ErrCodeQueueFull))
	suite.Equal(uint64(1), s.Stats().Dropped)
}

func (suite *StrategyTestSuite) TestNew_Registry() {
	ctx := context.Background()

	cfg := crossoverConfig(3, 5)
	cfg.SMACrossover = nil
	_, err := New(ctx, cfg, suite.deps())
	suite.True(apperrors.HasCode(err, apperrors.ErrCodeStrategyConstruction))

	cfg = thresholdConfig(5, 3)
	cfg.RSIThreshold = nil
	_, err = New(ctx, cfg, suite.deps())
	suite.True(apperrors.HasCode(err, apperrors.ErrCodeStrategyConstruction))

	cfg = crossoverConfig(3, 5)
	cfg.Kind = "momentum"
	_, err = New(ctx, cfg, suite.deps())
	suite.True(apperrors.HasCode(err, apperrors.ErrCodeUnsupportedStrategy))

	s, err := New(ctx, thresholdConfig(5, 3), Deps{})
	suite.NoError(err)
	suite.Equal(types.StrategyKindRSIThreshold, s.Kind())
	suite.Equal("rsi", s.Name())
}
