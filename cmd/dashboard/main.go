package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rxtech-lab/argo-router/internal/dashboard"
	"github.com/rxtech-lab/argo-router/internal/logger"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// serveAction reads bar lines from stdin and serves them until stdin closes or the process is signalled.
func serveAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.New(logger.Config{
		Level:            cmd.String("log-level"),
		Encoding:         "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
	if err != nil {
		return err
	}

	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := dashboard.NewServer(int(cmd.Int("history")), log)
	if err := server.Start(cmd.String("listen")); err != nil {
		return err
	}

	log.Info("dashboard listening", zap.String("address", server.Address()))

	ingested := make(chan error, 1)

	go func() { ingested <- server.Ingest(ctx, os.Stdin) }()

	select {
	case err = <-ingested:
		if err != nil {
			log.Error("bar stream failed", zap.Error(err))
		} else {
			log.Info("bar stream closed")
		}
	case <-ctx.Done():
		log.Info("dashboard interrupted")
	}

	if stopErr := server.Stop(); stopErr != nil {
		log.Warn("failed to stop dashboard", zap.Error(stopErr))
	}

	return err
}

func main() {
	cmd := &cli.Command{
		Name:  "dashboard",
		Usage: "Display bars streamed by the router on stdin",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen",
				Aliases: []string{"l"},
				Usage:   "HTTP listen `ADDRESS`",
				Value:   "127.0.0.1:8090",
			},
			&cli.IntFlag{
				Name:  "history",
				Usage: "Bars kept per symbol",
				Value: 500,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "info",
			},
		},
		Action: serveAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
