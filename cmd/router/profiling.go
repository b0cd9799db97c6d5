package main

import (
	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/rxtech-lab/argo-router/internal/config"
	"github.com/rxtech-lab/argo-router/internal/logger"
	"github.com/rxtech-lab/argo-router/pkg/errors"
	"go.uber.org/zap"
)

// startProfiling pushes continuous profiles to a Pyroscope server when enabled.
// The returned func stops the profiler and is always safe to call.
func startProfiling(cfg config.ProfilingConfig, log *logger.Logger) (func(), error) {
	if !cfg.Enabled {
		return func() {}, nil
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ApplicationName,
		ServerAddress:   cfg.ServerAddress,
		Tags:            cfg.Tags,
		Logger:          log.Named("pyroscope").Sugar(),
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEngineInitFailed, "failed to start profiler", err)
	}

	log.Info("profiling enabled", zap.String("server", cfg.ServerAddress))

	return func() {
		if err := profiler.Stop(); err != nil {
			log.Warn("failed to stop profiler", zap.Error(err))
		}
	}, nil
}
