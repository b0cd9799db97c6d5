package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-router/internal/config"
	"github.com/rxtech-lab/argo-router/internal/logger"
	apperrors "github.com/rxtech-lab/argo-router/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSupervision(policy config.SupervisionPolicy, maxRestarts int) config.SupervisionConfig {
	return config.SupervisionConfig{
		Policy:         policy,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		MaxRestarts:    maxRestarts,
	}
}

func TestSupervisorRun(t *testing.T) {
	failure := errors.New("feed closed")

	tests := []struct {
		name     string
		policy   config.SupervisionPolicy
		max      int
		fails    int32
		wantRuns int32
		wantErr  bool
	}{
		{name: "clean exit", policy: config.SupervisionRestart, fails: 0, wantRuns: 1},
		{name: "restart until clean", policy: config.SupervisionRestart, fails: 2, wantRuns: 3},
		{name: "restart gives up", policy: config.SupervisionRestart, max: 1, fails: 5, wantRuns: 2},
		{name: "halt", policy: config.SupervisionHalt, fails: 1, wantRuns: 1, wantErr: true},
		{name: "none", policy: config.SupervisionNone, fails: 1, wantRuns: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var runs atomic.Int32

			restarts := 0
			sup := newSupervisor(testSupervision(tt.policy, tt.max), logger.NewNop(), func(string) { restarts++ })

			err := sup.run(context.Background(), "unit", func(context.Context) error {
				if runs.Add(1) <= tt.fails {
					return failure
				}

				return nil
			})

			assert.Equal(t, tt.wantRuns, runs.Load())
			assert.Equal(t, int(tt.wantRuns)-1, restarts)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnitFailed))
				assert.ErrorIs(t, err, failure)

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestSupervisorHealthyRunResetsRestarts(t *testing.T) {
	var runs atomic.Int32

	restarts := 0
	sup := newSupervisor(testSupervision(config.SupervisionRestart, 1), logger.NewNop(), func(string) { restarts++ })

	err := sup.run(context.Background(), "unit", func(context.Context) error {
		if runs.Add(1) > 4 {
			return nil
		}

		// Outlives the 2ms backoff ceiling before failing.
		time.Sleep(5 * time.Millisecond)

		return errors.New("connection reset")
	})

	require.NoError(t, err)
	assert.Equal(t, int32(5), runs.Load())
	assert.Equal(t, 4, restarts)
}

func TestSupervisorRecoversPanic(t *testing.T) {
	sup := newSupervisor(testSupervision(config.SupervisionHalt, 0), logger.NewNop(), nil)

	err := sup.run(context.Background(), "unit", func(context.Context) error {
		panic("index out of range")
	})

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnitFailed))
	assert.Contains(t, err.Error(), "index out of range")
}

func TestSupervisorStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := testSupervision(config.SupervisionRestart, 0)
	cfg.InitialBackoff = time.Hour
	cfg.MaxBackoff = time.Hour

	sup := newSupervisor(cfg, logger.NewNop(), nil)

	done := make(chan error, 1)

	go func() {
		done <- sup.run(ctx, "unit", func(context.Context) error { return errors.New("down") })
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("supervisor kept waiting after cancel")
	}
}
