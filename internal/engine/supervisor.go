package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rxtech-lab/argo-router/internal/config"
	"github.com/rxtech-lab/argo-router/internal/logger"
	"github.com/rxtech-lab/argo-router/pkg/errors"
	"go.uber.org/zap"
)

// unit is one long-running piece of the engine: a gateway, a strategy or the recorder.
type unit func(ctx context.Context) error

// supervisor applies the configured policy to faulting units.
type supervisor struct {
	cfg       config.SupervisionConfig
	logger    *logger.Logger
	onRestart func(name string)
}

func newSupervisor(cfg config.SupervisionConfig, log *logger.Logger, onRestart func(name string)) *supervisor {
	return &supervisor{cfg: cfg, logger: log.Named("supervisor"), onRestart: onRestart}
}

// run executes fn until it exits cleanly or ctx ends. Only the halt policy
// returns an error; the engine's errgroup then stops every other unit.
// MaxRestarts bounds consecutive failures: a run lasting at least MaxBackoff
// resets the count and the backoff.
func (s *supervisor) run(ctx context.Context, name string, fn unit) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.InitialBackoff
	b.MaxInterval = s.cfg.MaxBackoff
	b.MaxElapsedTime = 0

	if b.InitialInterval <= 0 {
		b.InitialInterval = 500 * time.Millisecond
	}

	if b.MaxInterval < b.InitialInterval {
		b.MaxInterval = b.InitialInterval
	}

	b.Reset()

	restarts := 0

	for {
		started := time.Now()

		err := protect(ctx, fn)
		if err == nil || ctx.Err() != nil {
			return nil
		}

		// A unit that stayed up for a full backoff ceiling starts counting afresh.
		if time.Since(started) >= b.MaxInterval {
			restarts = 0
			b.Reset()
		}

		log := s.logger.With(zap.String("unit", name), zap.Error(err))

		switch s.cfg.Policy {
		case config.SupervisionHalt:
			log.Error("unit failed, halting engine")

			return errors.Wrapf(errors.ErrCodeUnitFailed, err, "unit %s failed", name)
		case config.SupervisionNone:
			log.Error("unit failed, not restarting")

			return nil
		case config.SupervisionRestart:
		default:
			log.Error("unit failed under unknown supervision policy", zap.String("policy", string(s.cfg.Policy)))

			return nil
		}

		if s.cfg.MaxRestarts > 0 && restarts >= s.cfg.MaxRestarts {
			log.Error("unit failed too often, giving up", zap.Int("restarts", restarts))

			return nil
		}

		wait := b.NextBackOff()
		log.Warn("unit failed, restarting", zap.Duration("backoff", wait), zap.Int("restarts", restarts))

		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()

			return nil
		case <-timer.C:
		}

		restarts++

		if s.onRestart != nil {
			s.onRestart(name)
		}
	}
}

// protect turns a panic inside fn into an error.
func protect(ctx context.Context, fn unit) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodeUnitPanicked, fmt.Sprintf("panic: %v", r))
		}
	}()

	return fn(ctx)
}
