package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rxtech-lab/argo-router/internal/config"
	"github.com/rxtech-lab/argo-router/internal/engine"
	"github.com/rxtech-lab/argo-router/internal/logger"
	"github.com/rxtech-lab/argo-router/internal/store"
	"github.com/rxtech-lab/argo-router/internal/version"
	"github.com/rxtech-lab/argo-router/pkg/marketdata"
	"github.com/rxtech-lab/argo-router/pkg/marketdata/provider"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// runAction loads the configuration, builds the engine and runs it until SIGINT or SIGTERM.
func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return startupFailure(err)
	}

	if cmd.Bool("dump-resolved") {
		data, err := cfg.Resolved()
		if err != nil {
			return startupFailure(err)
		}

		_, err = os.Stdout.Write(data)

		return err
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return startupFailure(err)
	}

	defer func() { _ = log.Sync() }()

	stopProfiling, err := startProfiling(cfg.Profiling, log)
	if err != nil {
		return startupFailure(err)
	}

	defer stopProfiling()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := engine.New(ctx, cfg, engine.WithLogger(log))
	if err != nil {
		return startupFailure(err)
	}

	log.Info("router starting",
		zap.String("version", version.GetVersion()),
		zap.Int("venues", len(cfg.Venues)),
		zap.Int("strategies", len(cfg.Strategies)),
	)

	if err := eng.Run(ctx); err != nil {
		log.Error("router stopped with error", zap.Error(err))

		return cli.Exit(err.Error(), 1)
	}

	log.Info("router stopped")

	return nil
}

// startupFailure reports an error raised before the engine ran.
func startupFailure(err error) error {
	return cli.Exit(fmt.Sprintf("STARTUP FAILURE: %v", err), 1)
}

// backfillAction downloads history for a symbol into the configured store.
func backfillAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return startupFailure(err)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return startupFailure(err)
	}

	defer func() { _ = log.Sync() }()

	interval, err := marketdata.ParseInterval(cmd.String("interval"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := store.New(cfg.Store, log)
	if err != nil {
		return err
	}

	if err := s.Open(ctx); err != nil {
		return err
	}

	defer func() {
		if err := s.Close(); err != nil {
			log.Warn("failed to close store", zap.Error(err))
		}
	}()

	const steps = 1000

	bar := progressbar.NewOptions(steps,
		progressbar.OptionSetDescription("Downloading "+cmd.String("symbol")),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)

	client, err := marketdata.NewClient(marketdata.ClientConfig{
		ProviderType:  provider.ProviderType(cmd.String("provider")),
		PolygonApiKey: cmd.String("polygon-api-key"),
		BatchSize:     int(cmd.Int("batch-size")),
	}, func(current, total float64, message string) {
		if total <= 0 {
			return
		}

		bar.Describe(message)
		_ = bar.Set(int(current / total * steps))
	})
	if err != nil {
		return err
	}

	written, err := client.Download(ctx, marketdata.DownloadParams{
		Ticker:     cmd.String("symbol"),
		StartDate:  cmd.Timestamp("start"),
		EndDate:    cmd.Timestamp("end"),
		Multiplier: interval.Multiplier(),
		Timespan:   interval.Timespan(),
	}, s)

	_ = bar.Finish()

	log.Info("backfill finished",
		zap.String("symbol", cmd.String("symbol")),
		zap.Int("bars", written),
		zap.Error(err),
	)

	return err
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	schema, err := config.JSONSchema()
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(cmd.Root().Writer)
	encoder.SetIndent("", "  ")

	return encoder.Encode(schema)
}

func main() {
	configFlag := &cli.StringFlag{
		Name:     "config",
		Aliases:  []string{"c"},
		Usage:    "Path to the router configuration `FILE`",
		Value:    "config.yaml",
		Sources:  cli.EnvVars("ARGO_ROUTER_CONFIG"),
		Required: false,
	}

	cmd := &cli.Command{
		Name:    "router",
		Usage:   "Route market data to strategies and their signals to trading venues",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the engine until interrupted",
				Flags: []cli.Flag{
					configFlag,
					&cli.BoolFlag{
						Name:  "dump-resolved",
						Usage: "Print the configuration after environment substitution and exit",
					},
				},
				Action: runAction,
			},
			{
				Name:  "backfill",
				Usage: "Download historical bars into the configured store",
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:     "symbol",
						Aliases:  []string{"s"},
						Usage:    "Symbol to download, e.g. BTCUSDT",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "provider",
						Aliases: []string{"p"},
						Usage:   fmt.Sprintf("History provider (%s or %s)", provider.ProviderBinance, provider.ProviderPolygon),
						Value:   string(provider.ProviderBinance),
					},
					&cli.StringFlag{
						Name:    "polygon-api-key",
						Usage:   "Polygon API key",
						Sources: cli.EnvVars("POLYGON_API_KEY"),
					},
					&cli.StringFlag{
						Name:  "interval",
						Usage: "Bar interval, e.g. 1m or 1h",
						Value: string(marketdata.IntervalOneMinute),
					},
					&cli.TimestampFlag{
						Name:     "start",
						Usage:    "Start date in `YYYY-MM-DD` format",
						Required: true,
						Config: cli.TimestampConfig{
							Layouts: []string{"2006-01-02"},
						},
					},
					&cli.TimestampFlag{
						Name:  "end",
						Usage: "End date in `YYYY-MM-DD` format. Defaults to now.",
						Value: time.Now(),
						Config: cli.TimestampConfig{
							Layouts: []string{"2006-01-02"},
						},
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Bars written per store batch",
						Value: 1000,
					},
				},
				Action: backfillAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the configuration file",
				Action: schemaAction,
			},
			{
				Name:  "version",
				Usage: "Print the router version",
				Action: func(_ context.Context, cmd *cli.Command) error {
					_, err := fmt.Fprintln(cmd.Root().Writer, version.GetVersion())

					return err
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
