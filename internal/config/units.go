package config

import (
	"time"

	"github.com/rxtech-lab/argo-router/internal/queue"
	"github.com/rxtech-lab/argo-router/internal/types"
	"github.com/rxtech-lab/argo-router/pkg/errors"
	"gopkg.in/yaml.v3"
)

// VenueConfig configures one gateway. Exactly one of the params pointers is set,
// matching Venue.
type VenueConfig struct {
	Venue types.Venue `yaml:"api" json:"api" jsonschema:"title=Venue" validate:"required"`

	Binance *BinanceParams `yaml:"-" json:"-"`
	Paper   *PaperParams   `yaml:"-" json:"-"`
}

type BinanceParams struct {
	APIKey    string `yaml:"api_key" json:"api_key,omitempty" jsonschema:"title=API Key"`
	SecretKey string `yaml:"secret_key" json:"secret_key,omitempty" jsonschema:"title=Secret Key" validate:"required_with=APIKey"`
	Testnet   bool   `yaml:"testnet" json:"testnet"`
	// BaseURL overrides the REST endpoint and takes precedence over Testnet.
	BaseURL       string `yaml:"base_url" json:"base_url,omitempty" validate:"omitempty,url"`
	KlineInterval string `yaml:"kline_interval" json:"kline_interval" jsonschema:"default=1m" validate:"required"`
	Quotes        bool   `yaml:"quotes" json:"quotes" jsonschema:"default=true"`
	Trades        bool   `yaml:"trades" json:"trades" jsonschema:"default=true"`
	Bars          bool   `yaml:"bars" json:"bars" jsonschema:"default=true"`
	// ReconnectMaxBackoff caps the wait between stream reconnects.
	ReconnectMaxBackoff time.Duration `yaml:"reconnect_max_backoff" json:"reconnect_max_backoff" jsonschema:"type=string,default=1m" validate:"gt=0"`
}

type PaperParams struct {
	Cash      float64         `yaml:"cash" json:"cash" jsonschema:"default=100000" validate:"gt=0"`
	Synthetic SyntheticParams `yaml:"synthetic" json:"synthetic"`
}

// SyntheticParams drives the paper venue's random-walk bar feed.
type SyntheticParams struct {
	Enabled    bool          `yaml:"enabled" json:"enabled"`
	Interval   time.Duration `yaml:"interval" json:"interval" jsonschema:"type=string,default=1s" validate:"gt=0"`
	StartPrice float64       `yaml:"start_price" json:"start_price" jsonschema:"default=100" validate:"gt=0"`
	Drift      float64       `yaml:"drift" json:"drift"`
	Volatility float64       `yaml:"volatility" json:"volatility" jsonschema:"default=0.01" validate:"gte=0"`
	Seed       int64         `yaml:"seed" json:"seed"`
}

func defaultBinanceParams() *BinanceParams {
	return &BinanceParams{
		APIKey:              "",
		SecretKey:           "",
		Testnet:             false,
		BaseURL:             "",
		KlineInterval:       "1m",
		Quotes:              true,
		Trades:              true,
		Bars:                true,
		ReconnectMaxBackoff: time.Minute,
	}
}

func defaultPaperParams() *PaperParams {
	return &PaperParams{
		Cash: 100000,
		Synthetic: SyntheticParams{
			Enabled:    false,
			Interval:   time.Second,
			StartPrice: 100,
			Drift:      0,
			Volatility: 0.01,
			Seed:       0,
		},
	}
}

// UnmarshalYAML resolves the venue and decodes its params block into the matching type.
func (v *VenueConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Venue  types.Venue `yaml:"api"`
		Params yaml.Node   `yaml:"params"`
	}

	if err := node.Decode(&raw); err != nil {
		return err
	}

	v.Venue = raw.Venue
	v.Binance = nil
	v.Paper = nil

	switch raw.Venue {
	case types.VenueBinance:
		v.Binance = defaultBinanceParams()

		return decodeParams(&raw.Params, v.Binance, raw.Venue.String())
	case types.VenuePaper:
		v.Paper = defaultPaperParams()

		return decodeParams(&raw.Params, v.Paper, raw.Venue.String())
	default:
		return errors.Newf(errors.ErrCodeUnknownVenue, "venue entry at line %d has no api", node.Line)
	}
}

func (v VenueConfig) MarshalYAML() (any, error) {
	out := map[string]any{"api": v.Venue}

	switch {
	case v.Binance != nil:
		out["params"] = v.Binance
	case v.Paper != nil:
		out["params"] = v.Paper
	}

	return out, nil
}

// StrategyConfig configures one strategy unit. Exactly one of the params pointers is set,
// matching Kind.
type StrategyConfig struct {
	Name    string             `yaml:"name" json:"name" jsonschema:"title=Name,description=Unique name. Defaults to the type."`
	Kind    types.StrategyKind `yaml:"type" json:"type" validate:"required"`
	Venues  []types.Venue      `yaml:"venues" json:"venues" jsonschema:"minItems=1" validate:"required,min=1"`
	Symbols []string           `yaml:"symbols" json:"symbols" jsonschema:"minItems=1" validate:"required,min=1,dive,required"`
	// Queue bounds each of the strategy's inbound queues.
	Queue queue.Config `yaml:"queue" json:"queue"`

	SMACrossover *SMACrossoverParams `yaml:"-" json:"-"`
	RSIThreshold *RSIThresholdParams `yaml:"-" json:"-"`
	Noop         *NoopParams         `yaml:"-" json:"-"`
}

// Sizing reserves a fraction of the venue account per signal.
type Sizing struct {
	Fraction float64 `yaml:"fraction" json:"fraction" jsonschema:"default=0.02,exclusiveMinimum=0,maximum=1" validate:"gt=0,lte=1"`
	// Precision is the number of decimals the quantity is truncated to.
	Precision int32 `yaml:"precision" json:"precision" jsonschema:"default=8" validate:"gte=0,lte=18"`
}

type SMACrossoverParams struct {
	ShortWindow int    `yaml:"short_window" json:"short_window" jsonschema:"default=10,minimum=1" validate:"gte=1,ltfield=LongWindow"`
	LongWindow  int    `yaml:"long_window" json:"long_window" jsonschema:"default=20,minimum=2" validate:"gte=2"`
	Sizing      Sizing `yaml:"sizing" json:"sizing"`
}

type RSIThresholdParams struct {
	// Window is the number of closes kept and fed to the RSI.
	Window     int     `yaml:"window" json:"window" jsonschema:"default=20160,minimum=2" validate:"gte=2,gtfield=Period"`
	// Period is how many changes seed the average gain and loss. Zero seeds from the
	// whole window, so the RSI is the plain average over it.
	Period     int     `yaml:"period" json:"period,omitempty" jsonschema:"minimum=0" validate:"gte=1"`
	Oversold   float64 `yaml:"oversold" json:"oversold" jsonschema:"default=30" validate:"gte=0,ltfield=Overbought"`
	Overbought float64 `yaml:"overbought" json:"overbought" jsonschema:"default=70" validate:"lte=100"`
	Sizing     Sizing  `yaml:"sizing" json:"sizing"`
}

// resolvePeriod seeds from the whole window when no Period is configured.
func (p *RSIThresholdParams) resolvePeriod() {
	if p.Period <= 0 {
		p.Period = p.Window - 1
	}
}

// NoopParams has no fields; it exists so every kind owns a params type.
type NoopParams struct{}

func defaultSizing() Sizing {
	return Sizing{Fraction: 0.02, Precision: 8}
}

func defaultSMACrossoverParams() *SMACrossoverParams {
	return &SMACrossoverParams{ShortWindow: 10, LongWindow: 20, Sizing: defaultSizing()}
}

func defaultRSIThresholdParams() *RSIThresholdParams {
	return &RSIThresholdParams{
		Window:     20160,
		Period:     0,
		Oversold:   30,
		Overbought: 70,
		Sizing:     defaultSizing(),
	}
}

// UnmarshalYAML resolves the strategy kind and decodes its params block into the matching type.
func (s *StrategyConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Name    string             `yaml:"name"`
		Kind    types.StrategyKind `yaml:"type"`
		Venues  []types.Venue      `yaml:"venues"`
		Symbols []string           `yaml:"symbols"`
		Queue   queue.Config       `yaml:"queue"`
		Params  yaml.Node          `yaml:"params"`
	}

	if err := node.Decode(&raw); err != nil {
		return err
	}

	s.Name = raw.Name
	s.Kind = raw.Kind
	s.Venues = raw.Venues
	s.Symbols = raw.Symbols
	s.Queue = raw.Queue
	s.SMACrossover = nil
	s.RSIThreshold = nil
	s.Noop = nil

	switch raw.Kind {
	case types.StrategyKindSMACrossover:
		s.SMACrossover = defaultSMACrossoverParams()

		return decodeParams(&raw.Params, s.SMACrossover, raw.Kind.String())
	case types.StrategyKindRSIThreshold:
		s.RSIThreshold = defaultRSIThresholdParams()

		return decodeParams(&raw.Params, s.RSIThreshold, raw.Kind.String())
	case types.StrategyKindNoop:
		s.Noop = &NoopParams{}

		return nil
	default:
		return errors.Newf(errors.ErrCodeUnknownStrategy, "strategy entry at line %d has no type", node.Line)
	}
}

func (s StrategyConfig) MarshalYAML() (any, error) {
	out := map[string]any{
		"name":    s.Name,
		"type":    s.Kind,
		"venues":  s.Venues,
		"symbols": s.Symbols,
		"queue":   s.Queue,
	}

	switch {
	case s.SMACrossover != nil:
		out["params"] = s.SMACrossover
	case s.RSIThreshold != nil:
		out["params"] = s.RSIThreshold
	}

	return out, nil
}

func decodeParams(node *yaml.Node, target any, owner string) error {
	if node.Kind == 0 {
		return nil
	}

	if err := node.Decode(target); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid params for %s", owner)
	}

	return nil
}
