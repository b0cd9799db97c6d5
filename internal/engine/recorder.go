package engine

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-router/internal/config"
	"github.com/rxtech-lab/argo-router/internal/types"
	"go.uber.org/zap"
)

// drainTimeout bounds how long the recorder keeps writing queued bars after shutdown.
const drainTimeout = 10 * time.Second

// record persists bars handed over by DispatchBars. Each written bar may trigger
// a store refresh, at most once per refresh interval. Store failures are logged and counted only.
func (e *Engine) record(ctx context.Context) error {
	interval := e.cfg.Store.Refresh.Interval
	source := e.cfg.Store.Refresh.Source
	refreshing := source != "" && source != config.HistorySourceNone
	lastRefresh := time.Time{}

	var leftover []types.Bar

	for {
		bar, ok := e.bars.Poll(ctx, e.cfg.Engine.PollInterval)
		if ctx.Err() != nil {
			if ok {
				leftover = append(leftover, bar)
			}

			break
		}

		if !ok {
			continue
		}

		e.persist(ctx, bar.Symbol, func(ctx context.Context) error { return e.store.AppendBar(ctx, bar) })

		if refreshing && time.Since(lastRefresh) >= interval {
			lastRefresh = time.Now()
			e.refresh(ctx)
		}
	}

	// Write whatever is still queued so a clean stop loses no bars
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancel()

	for {
		var (
			bar types.Bar
			ok  bool
		)

		if len(leftover) > 0 {
			bar, ok = leftover[0], true
			leftover = leftover[1:]
		} else {
			bar, ok = e.bars.TryPop()
		}

		if !ok || drainCtx.Err() != nil {
			return nil
		}

		e.persist(drainCtx, bar.Symbol, func(ctx context.Context) error { return e.store.AppendBar(ctx, bar) })
	}
}

func (e *Engine) persist(ctx context.Context, symbol string, write func(ctx context.Context) error) {
	if err := write(ctx); err != nil {
		e.logger.Warn("failed to record bar", zap.String("symbol", symbol), zap.Error(err))
		e.stats.update(func(s *Stats) { s.Recorder.WriteFailures++ })

		return
	}

	e.stats.update(func(s *Stats) { s.Recorder.Written++ })
}

func (e *Engine) refresh(ctx context.Context) {
	if err := e.store.Refresh(ctx); err != nil {
		e.logger.Warn("failed to refresh store", zap.Error(err))
		e.stats.update(func(s *Stats) { s.Recorder.RefreshFailures++ })

		return
	}

	e.stats.update(func(s *Stats) { s.Recorder.Refreshes++ })
}
