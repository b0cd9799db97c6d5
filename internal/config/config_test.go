package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-router/internal/queue"
	"github.com/rxtech-lab/argo-router/internal/types"
	"github.com/rxtech-lab/argo-router/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

const fullConfig = `
logging:
  level: debug
engine:
  poll_interval: 250ms
  supervision:
    policy: halt
store:
  driver: duckdb
  path: ":memory:"
  refresh:
    source: polygon
    api_key: ${POLYGON_KEY}
venues:
  - api: binance
    params:
      api_key: ${BINANCE_KEY}
      secret_key: ${BINANCE_SECRET}
      kline_interval: 5m
  - api: paper
    params:
      cash: 5000
strategies:
  - name: trend
    type: sma_crossover
    venues: [binance]
    symbols: [BTC/USDT, ETH/USDT]
    queue:
      capacity: 100
      overflow: drop_oldest
    params:
      short_window: 3
      long_window: 5
  - type: rsi_threshold
    venues: [paper]
    symbols: [BTC/USD]
    params:
      window: 15
  - type: noop
    venues: [binance, paper]
    symbols: [BTC/USD]
`

func env(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]

		return v, ok
	}
}

func (suite *ConfigTestSuite) TestParseFullConfig() {
	cfg, err := Parse([]byte(fullConfig), env(map[string]string{
		"POLYGON_KEY":    "pk",
		"BINANCE_KEY":    "bk",
		"BINANCE_SECRET": "bs",
	}))
	suite.Require().NoError(err)

	suite.Equal("debug", cfg.Logging.Level)
	suite.Equal(250*time.Millisecond, cfg.Engine.PollInterval)
	suite.Equal(SupervisionHalt, cfg.Engine.Supervision.Policy)
	suite.Equal(30*time.Second, cfg.Engine.Supervision.MaxBackoff)
	suite.Equal("pk", cfg.Store.Refresh.APIKey)
	suite.Equal(time.Minute, cfg.Store.Refresh.Interval)

	suite.Require().Len(cfg.Venues, 2)
	suite.Equal(types.VenueBinance, cfg.Venues[0].Venue)
	suite.Require().NotNil(cfg.Venues[0].Binance)
	suite.Nil(cfg.Venues[0].Paper)
	suite.Equal("bk", cfg.Venues[0].Binance.APIKey)
	suite.Equal("5m", cfg.Venues[0].Binance.KlineInterval)
	suite.True(cfg.Venues[0].Binance.Quotes)
	suite.Require().NotNil(cfg.Venues[1].Paper)
	suite.Equal(5000.0, cfg.Venues[1].Paper.Cash)
	suite.Equal(types.VenueBinance, cfg.Engine.DefaultVenue)

	suite.Require().Len(cfg.Strategies, 3)

	sma := cfg.Strategies[0]
	suite.Equal("trend", sma.Name)
	suite.Equal(types.StrategyKindSMACrossover, sma.Kind)
	suite.Require().NotNil(sma.SMACrossover)
	suite.Equal(3, sma.SMACrossover.ShortWindow)
	suite.Equal(5, sma.SMACrossover.LongWindow)
	suite.Equal(0.02, sma.SMACrossover.Sizing.Fraction)
	suite.Equal(queue.Config{Capacity: 100, Overflow: queue.PolicyDropOldest}, sma.Queue)

	rsi := cfg.Strategies[1]
	suite.Equal("rsi_threshold", rsi.Name)
	suite.Require().NotNil(rsi.RSIThreshold)
	suite.Equal(15, rsi.RSIThreshold.Window)
	suite.Equal(14, rsi.RSIThreshold.Period)
	suite.Equal(30.0, rsi.RSIThreshold.Oversold)
	suite.Equal(queue.PolicyBlock, rsi.Queue.Overflow)

	suite.NotNil(cfg.Strategies[2].Noop)

	suite.Equal([]string{"BTC/USDT", "ETH/USDT", "BTC/USD"}, cfg.Store.Refresh.Symbols)
}

func (suite *ConfigTestSuite) TestUnsetEnvIsKeptLiterally() {
	cfg, err := Parse([]byte(fullConfig), env(map[string]string{"POLYGON_KEY": "pk"}))
	suite.Require().NoError(err)
	suite.Equal("${BINANCE_KEY}", cfg.Venues[0].Binance.APIKey)

	resolved, err := cfg.Resolved()
	suite.Require().NoError(err)
	suite.Contains(string(resolved), "api_key: pk")
}

func (suite *ConfigTestSuite) TestEnvFeedsNumericField() {
	doc := `
engine:
  supervision:
    max_restarts: ${RESTARTS}
venues:
  - api: paper
`
	cfg, err := Parse([]byte(doc), env(map[string]string{"RESTARTS": "3"}))
	suite.Require().NoError(err)
	suite.Equal(3, cfg.Engine.Supervision.MaxRestarts)
}

func (suite *ConfigTestSuite) TestUnknownVenueFails() {
	doc := `
venues:
  - api: kraken
`
	_, err := Parse([]byte(doc), env(nil))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeUnknownVenue))
	suite.True(errors.IsFatal(err))
}

func (suite *ConfigTestSuite) TestUnknownStrategyFails() {
	doc := `
venues:
  - api: paper
strategies:
  - type: martingale
    venues: [paper]
    symbols: [BTC/USD]
`
	_, err := Parse([]byte(doc), env(nil))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeUnknownStrategy))
}

func (suite *ConfigTestSuite) TestStrategyVenueMustHaveGateway() {
	doc := `
venues:
  - api: paper
strategies:
  - type: noop
    venues: [binance]
    symbols: [BTC/USD]
`
	_, err := Parse([]byte(doc), env(nil))
	suite.True(errors.HasCode(err, errors.ErrCodeVenueNotConfigured))
}

func (suite *ConfigTestSuite) TestDuplicateVenueFails() {
	doc := `
venues:
  - api: paper
  - api: paper
`
	_, err := Parse([]byte(doc), env(nil))
	suite.True(errors.HasCode(err, errors.ErrCodeDuplicateVenue))
}

func (suite *ConfigTestSuite) TestDuplicateStrategyNameFails() {
	doc := `
venues:
  - api: paper
strategies:
  - {name: a, type: noop, venues: [paper], symbols: [X]}
  - {name: a, type: noop, venues: [paper], symbols: [Y]}
`
	_, err := Parse([]byte(doc), env(nil))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestGeneratedNamesAreUnique() {
	doc := `
venues:
  - api: paper
strategies:
  - {type: noop, venues: [paper], symbols: [X]}
  - {type: noop, venues: [paper], symbols: [Y]}
`
	cfg, err := Parse([]byte(doc), env(nil))
	suite.Require().NoError(err)
	suite.Equal("noop", cfg.Strategies[0].Name)
	suite.Equal("noop-2", cfg.Strategies[1].Name)
}

func (suite *ConfigTestSuite) TestInvalidParamsFail() {
	doc := `
venues:
  - api: paper
strategies:
  - type: sma_crossover
    venues: [paper]
    symbols: [BTC/USD]
    params:
      short_window: 20
      long_window: 5
`
	_, err := Parse([]byte(doc), env(nil))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestInvalidOverflowPolicyFails() {
	doc := `
venues:
  - api: paper
strategies:
  - type: noop
    venues: [paper]
    symbols: [BTC/USD]
    queue: {capacity: 5, overflow: spill}
`
	_, err := Parse([]byte(doc), env(nil))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestNoVenuesFails() {
	_, err := Parse([]byte("strategies: []\n"), env(nil))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestDefaultVenueMustBeConfigured() {
	doc := `
engine:
  default_venue: binance
venues:
  - api: paper
`
	_, err := Parse([]byte(doc), env(nil))
	suite.True(errors.HasCode(err, errors.ErrCodeVenueNotConfigured))
}

func (suite *ConfigTestSuite) TestLoadMissingFile() {
	_, err := Load(filepath.Join(suite.T().TempDir(), "missing.yaml"))
	suite.True(errors.HasCode(err, errors.ErrCodeConfigReadFailed))
}

func (suite *ConfigTestSuite) TestLoadFromFile() {
	path := filepath.Join(suite.T().TempDir(), "config.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte("venues:\n  - api: paper\n"), 0o600))

	cfg, err := Load(path)
	suite.Require().NoError(err)
	suite.Equal(types.VenuePaper, cfg.Engine.DefaultVenue)
	suite.Equal(100000.0, cfg.Venues[0].Paper.Cash)
}

func (suite *ConfigTestSuite) TestJSONSchema() {
	schema, err := JSONSchema()
	suite.Require().NoError(err)

	suite.Contains(string(schema.Config), "poll_interval")
	suite.Contains(string(schema.Config), "binance")
	suite.Contains(schema.Venues, "binance")
	suite.Contains(schema.Venues, "paper")
	suite.Contains(string(schema.Strategies["rsi_threshold"]), "overbought")
	suite.Contains(schema.Strategies, "noop")

	_, err = json.Marshal(schema)
	suite.NoError(err)
}
