// Package config loads the router configuration from YAML.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-router/internal/logger"
	"github.com/rxtech-lab/argo-router/internal/queue"
	"github.com/rxtech-lab/argo-router/internal/types"
	"github.com/rxtech-lab/argo-router/internal/version"
	"github.com/rxtech-lab/argo-router/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SupervisionPolicy decides what the engine does when a gateway or strategy unit faults.
type SupervisionPolicy string

const (
	// SupervisionRestart reruns the unit after an exponential backoff.
	SupervisionRestart SupervisionPolicy = "restart"
	// SupervisionHalt stops the whole engine on the first fault.
	SupervisionHalt SupervisionPolicy = "halt"
	// SupervisionNone logs the fault and leaves the unit stopped.
	SupervisionNone SupervisionPolicy = "none"
)

// StoreDriver selects the market data store backend.
type StoreDriver string

const (
	StoreDriverDuckDB   StoreDriver = "duckdb"
	StoreDriverPostgres StoreDriver = "postgres"
)

// HistorySource selects where Store.Refresh pulls recent bars from.
type HistorySource string

const (
	HistorySourceNone    HistorySource = "none"
	HistorySourceBinance HistorySource = "binance"
	HistorySourcePolygon HistorySource = "polygon"
)

// Config is the root of the router configuration file.
type Config struct {
	// EngineVersion pins the router release the file was written for.
	EngineVersion string           `yaml:"engine_version" json:"engine_version,omitempty" jsonschema:"title=Engine Version,description=Router version the file targets. Major and minor must match."`
	Logging       logger.Config    `yaml:"logging" json:"logging"`
	Engine        EngineConfig     `yaml:"engine" json:"engine"`
	Store         StoreConfig      `yaml:"store" json:"store"`
	Dashboard     DashboardConfig  `yaml:"dashboard" json:"dashboard"`
	Profiling     ProfilingConfig  `yaml:"profiling" json:"profiling"`
	Venues        []VenueConfig    `yaml:"venues" json:"venues" jsonschema:"minItems=1" validate:"required,min=1,dive"`
	Strategies    []StrategyConfig `yaml:"strategies" json:"strategies" validate:"dive"`

	resolved *yaml.Node
}

type EngineConfig struct {
	// PollInterval bounds how long any unit waits before it rechecks for shutdown.
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval" jsonschema:"type=string,default=1s" validate:"gt=0"`
	// DefaultVenue receives orders whose signal venue has no gateway. Defaults to the first venue.
	DefaultVenue types.Venue       `yaml:"default_venue" json:"default_venue,omitempty"`
	SignalQueue  queue.Config      `yaml:"signal_queue" json:"signal_queue"`
	BarRecorder  queue.Config      `yaml:"bar_recorder" json:"bar_recorder"`
	Supervision  SupervisionConfig `yaml:"supervision" json:"supervision"`
	// StatsPath receives a YAML summary of the run on shutdown. Empty disables it.
	StatsPath string `yaml:"stats_path" json:"stats_path,omitempty"`
}

type SupervisionConfig struct {
	Policy         SupervisionPolicy `yaml:"policy" json:"policy" jsonschema:"enum=restart,enum=halt,enum=none,default=restart" validate:"oneof=restart halt none"`
	InitialBackoff time.Duration     `yaml:"initial_backoff" json:"initial_backoff" jsonschema:"type=string,default=500ms" validate:"gt=0"`
	MaxBackoff     time.Duration     `yaml:"max_backoff" json:"max_backoff" jsonschema:"type=string,default=30s" validate:"gtefield=InitialBackoff"`
	// MaxRestarts caps consecutive restarts per unit. A run lasting MaxBackoff resets the count. Zero means unlimited.
	MaxRestarts int `yaml:"max_restarts" json:"max_restarts" jsonschema:"default=10" validate:"gte=0"`
}

type StoreConfig struct {
	Driver StoreDriver `yaml:"driver" json:"driver" jsonschema:"enum=duckdb,enum=postgres,default=duckdb" validate:"oneof=duckdb postgres"`
	// Path is the DuckDB database file. ":memory:" keeps it in memory.
	Path string `yaml:"path" json:"path,omitempty" validate:"required_if=Driver duckdb"`
	DSN  string `yaml:"dsn" json:"dsn,omitempty" validate:"required_if=Driver postgres"`
	// ExportParquet, when set, receives a parquet copy of the bars table on close.
	ExportParquet string        `yaml:"export_parquet" json:"export_parquet,omitempty"`
	Refresh       RefreshConfig `yaml:"refresh" json:"refresh"`
}

type RefreshConfig struct {
	Source   HistorySource `yaml:"source" json:"source" jsonschema:"enum=none,enum=binance,enum=polygon,default=none" validate:"oneof=none binance polygon"`
	APIKey   string        `yaml:"api_key" json:"api_key,omitempty" validate:"required_if=Source polygon"`
	Interval time.Duration `yaml:"interval" json:"interval" jsonschema:"type=string,default=1m" validate:"gt=0"`
	// Lookback is how far back the first refresh of an empty symbol reaches.
	Lookback   time.Duration `yaml:"lookback" json:"lookback" jsonschema:"type=string,default=24h" validate:"gt=0"`
	Timespan   string        `yaml:"timespan" json:"timespan" jsonschema:"enum=minute,enum=hour,enum=day,default=minute" validate:"oneof=minute hour day"`
	Multiplier int           `yaml:"multiplier" json:"multiplier" jsonschema:"minimum=1,default=1" validate:"gte=1"`
	// Symbols defaults to every symbol a strategy subscribes to.
	Symbols []string `yaml:"symbols" json:"symbols,omitempty"`
}

type DashboardConfig struct {
	Enabled bool     `yaml:"enabled" json:"enabled"`
	Command string   `yaml:"command" json:"command,omitempty" validate:"required_if=Enabled true"`
	Args    []string `yaml:"args" json:"args,omitempty"`
	// Buffer is how many bars may wait for the child before new ones are dropped.
	Buffer int `yaml:"buffer" json:"buffer" jsonschema:"default=1024" validate:"gte=1"`
}

type ProfilingConfig struct {
	Enabled         bool              `yaml:"enabled" json:"enabled"`
	ServerAddress   string            `yaml:"server_address" json:"server_address,omitempty" jsonschema:"default=http://localhost:4040" validate:"omitempty,url"`
	ApplicationName string            `yaml:"application_name" json:"application_name,omitempty" jsonschema:"default=argo-router"`
	Tags            map[string]string `yaml:"tags" json:"tags,omitempty"`
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeConfigReadFailed, err, "failed to read config %s", path)
	}

	return Parse(data, os.LookupEnv)
}

// Parse decodes data after replacing ${VAR} references with lookup.
func Parse(data []byte, lookup func(string) (string, bool)) (*Config, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	expandEnv(&root, lookup)

	cfg := Default()
	if err := root.Decode(cfg); err != nil {
		if errors.GetCode(err) != errors.ErrCodeUnknown {
			return nil, err
		}

		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to decode config", err)
	}

	cfg.resolved = &root
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a configuration with every default filled and no venues.
func Default() *Config {
	return &Config{
		EngineVersion: "",
		Logging:       logger.Config{Level: "info", Encoding: "json"},
		Engine: EngineConfig{
			PollInterval: time.Second,
			DefaultVenue: "",
			SignalQueue:  queue.Config{Capacity: 0, Overflow: queue.PolicyBlock},
			BarRecorder:  queue.Config{Capacity: 4096, Overflow: queue.PolicyDropOldest},
			Supervision: SupervisionConfig{
				Policy:         SupervisionRestart,
				InitialBackoff: 500 * time.Millisecond,
				MaxBackoff:     30 * time.Second,
				MaxRestarts:    10,
			},
			StatsPath: "",
		},
		Store: StoreConfig{
			Driver:        StoreDriverDuckDB,
			Path:          "bars.duckdb",
			DSN:           "",
			ExportParquet: "",
			Refresh: RefreshConfig{
				Source:     HistorySourceNone,
				APIKey:     "",
				Interval:   time.Minute,
				Lookback:   24 * time.Hour,
				Timespan:   "minute",
				Multiplier: 1,
				Symbols:    nil,
			},
		},
		Dashboard: DashboardConfig{Enabled: false, Command: "", Args: nil, Buffer: 1024},
		Profiling: ProfilingConfig{
			Enabled:         false,
			ServerAddress:   "http://localhost:4040",
			ApplicationName: "argo-router",
			Tags:            nil,
		},
		Venues:     nil,
		Strategies: nil,
		resolved:   nil,
	}
}

func (c *Config) applyDefaults() {
	if c.Engine.DefaultVenue == "" && len(c.Venues) > 0 {
		c.Engine.DefaultVenue = c.Venues[0].Venue
	}

	if len(c.Store.Refresh.Symbols) == 0 {
		c.Store.Refresh.Symbols = c.Symbols()
	}

	counts := make(map[types.StrategyKind]int)

	for i := range c.Strategies {
		s := &c.Strategies[i]
		counts[s.Kind]++

		if s.Name == "" {
			s.Name = s.Kind.String()
			if counts[s.Kind] > 1 {
				s.Name = s.Kind.String() + "-" + strconv.Itoa(counts[s.Kind])
			}
		}

		if s.Queue.Overflow == "" {
			s.Queue.Overflow = queue.PolicyBlock
		}

		if s.RSIThreshold != nil {
			s.RSIThreshold.resolvePeriod()
		}
	}
}

// Validate checks field constraints and the cross references between venues and strategies.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if err := version.CheckCompatibility(version.GetVersion(), c.EngineVersion); err != nil {
		return err
	}

	venues := make(map[types.Venue]bool, len(c.Venues))
	for _, v := range c.Venues {
		if venues[v.Venue] {
			return errors.Newf(errors.ErrCodeDuplicateVenue, "venue %s is configured more than once", v.Venue)
		}

		venues[v.Venue] = true
	}

	if c.Engine.DefaultVenue != "" && !venues[c.Engine.DefaultVenue] {
		return errors.Newf(errors.ErrCodeVenueNotConfigured, "default venue %s has no gateway", c.Engine.DefaultVenue)
	}

	names := make(map[string]bool, len(c.Strategies))
	for _, s := range c.Strategies {
		if names[s.Name] {
			return errors.Newf(errors.ErrCodeInvalidConfiguration, "strategy name %q is used more than once", s.Name)
		}

		names[s.Name] = true

		for _, v := range s.Venues {
			if !venues[v] {
				return errors.Newf(errors.ErrCodeVenueNotConfigured, "strategy %s subscribes to venue %s which has no gateway", s.Name, v)
			}
		}
	}

	return nil
}

// Venue returns the configuration of venue v.
func (c *Config) Venue(v types.Venue) (VenueConfig, bool) {
	for _, vc := range c.Venues {
		if vc.Venue == v {
			return vc, true
		}
	}

	return VenueConfig{}, false
}

// Symbols returns every symbol any strategy subscribes to, in first-seen order.
func (c *Config) Symbols() []string {
	seen := make(map[string]bool)

	var out []string

	for _, s := range c.Strategies {
		for _, sym := range s.Symbols {
			if !seen[sym] {
				seen[sym] = true
				out = append(out, sym)
			}
		}
	}

	return out
}

// Resolved returns the configuration document after environment substitution.
func (c *Config) Resolved() ([]byte, error) {
	if c.resolved == nil {
		return yaml.Marshal(c)
	}

	return yaml.Marshal(c.resolved)
}
