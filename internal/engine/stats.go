package engine

import (
	"os"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-router/internal/strategy"
	"github.com/rxtech-lab/argo-router/internal/types"
	"github.com/rxtech-lab/argo-router/pkg/errors"
	"gopkg.in/yaml.v3"
)

// VenueStats counts the traffic of one gateway.
type VenueStats struct {
	Quotes          uint64 `yaml:"quotes"`
	Trades          uint64 `yaml:"trades"`
	Bars            uint64 `yaml:"bars"`
	Unrouted        uint64 `yaml:"unrouted"`
	OrdersSubmitted uint64 `yaml:"orders_submitted"`
	OrdersFailed    uint64 `yaml:"orders_failed"`
}

// RecorderStats counts the bar recorder's work.
type RecorderStats struct {
	Written         uint64 `yaml:"written"`
	WriteFailures   uint64 `yaml:"write_failures"`
	Dropped         uint64 `yaml:"dropped"`
	Refreshes       uint64 `yaml:"refreshes"`
	RefreshFailures uint64 `yaml:"refresh_failures"`
}

// Stats summarises a run.
type Stats struct {
	StartedAt        time.Time                   `yaml:"started_at"`
	StoppedAt        time.Time                   `yaml:"stopped_at,omitempty"`
	Venues           map[types.Venue]*VenueStats `yaml:"venues"`
	Strategies       map[string]strategy.Stats   `yaml:"strategies"`
	Signals          uint64                      `yaml:"signals"`
	Recorder         RecorderStats               `yaml:"recorder"`
	DashboardDropped uint64                      `yaml:"dashboard_dropped"`
	Restarts         map[string]int              `yaml:"restarts,omitempty"`
}

// statsTracker collects counters from the engine's units.
type statsTracker struct {
	mu    sync.Mutex
	stats Stats
}

func newStatsTracker(venues []types.Venue) *statsTracker {
	s := &statsTracker{
		mu: sync.Mutex{},
		stats: Stats{
			StartedAt:        time.Time{},
			StoppedAt:        time.Time{},
			Venues:           make(map[types.Venue]*VenueStats, len(venues)),
			Strategies:       make(map[string]strategy.Stats),
			Signals:          0,
			Recorder:         RecorderStats{},
			DashboardDropped: 0,
			Restarts:         make(map[string]int),
		},
	}

	for _, v := range venues {
		s.stats.Venues[v] = &VenueStats{}
	}

	return s
}

func (s *statsTracker) venue(v types.Venue, update func(*VenueStats)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vs, ok := s.stats.Venues[v]
	if !ok {
		vs = &VenueStats{}
		s.stats.Venues[v] = vs
	}

	update(vs)
}

func (s *statsTracker) update(fn func(*Stats)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.stats)
}

// snapshot copies the counters and merges in the strategies' own counts.
func (s *statsTracker) snapshot(strategies []strategy.Strategy) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.stats
	out.Venues = make(map[types.Venue]*VenueStats, len(s.stats.Venues))

	for v, vs := range s.stats.Venues {
		c := *vs
		out.Venues[v] = &c
	}

	out.Restarts = make(map[string]int, len(s.stats.Restarts))
	for k, v := range s.stats.Restarts {
		out.Restarts[k] = v
	}

	out.Strategies = make(map[string]strategy.Stats, len(strategies))
	for _, st := range strategies {
		out.Strategies[st.Name()] = st.Stats()
	}

	return out
}

// WriteStats writes stats as YAML to path.
func WriteStats(path string, stats Stats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to marshal run stats", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to write run stats to %s", path)
	}

	return nil
}

// ReadStats reads a stats file written by WriteStats.
func ReadStats(path string) (Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Stats{}, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to read run stats %s", path)
	}

	var stats Stats
	if err := yaml.Unmarshal(data, &stats); err != nil {
		return Stats{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to parse run stats", err)
	}

	return stats, nil
}
