package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/usetrace/harmcp/internal/agent"
	"github.com/usetrace/harmcp/internal/config"
	"github.com/usetrace/harmcp/internal/gateway"
	"github.com/usetrace/harmcp/internal/logging"
	"github.com/usetrace/harmcp/internal/query"
	"github.com/usetrace/harmcp/internal/search"
	"github.com/usetrace/harmcp/internal/store"
	"github.com/usetrace/harmcp/pkg/client"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()

	logCleanup, err := logging.Setup(cfg)
	if err != nil {
		slog.Error("failed to setup logging", "error", err)
		os.Exit(1)
	}
	defer logCleanup()

	traceStore, err := store.New(cfg.TraceCacheMaxItems, cfg.UploadDir)
	if err != nil {
		slog.Error("failed to create trace store", "error", err)
		os.Exit(1)
	}
	searchEngine, err := search.NewEngine(traceStore, cfg.IndexCacheMaxItems)
	if err != nil {
		slog.Error("failed to create search engine", "error", err)
		os.Exit(1)
	}

	if cfg.HarDir != "" {
		n, err := traceStore.LoadDir(ctx, cfg.HarDir, cfg.LoadWorkers)
		if err != nil {
			slog.Error("failed to load HAR directory", "error", err)
			os.Exit(1)
		}
		slog.Info("loaded HAR directory", slog.String("dir", cfg.HarDir), slog.Int("traces", n))
	}

	captureClient := client.New(
		client.WithBaseURL(cfg.CaptureBaseURL),
		client.WithHTTPClient(&http.Client{Timeout: cfg.HTTPClientTimeout}),
	)

	gw := gateway.New(cfg, traceStore, searchEngine, query.NewEngine(), agent.New(cfg), captureClient)

	slog.Info("starting HAR gateway", slog.String("addr", cfg.GatewayAddr))
	if err := gw.Run(ctx); err != nil && err != context.Canceled {
		slog.Error("gateway error", "error", err)
		os.Exit(1)
	}

	slog.Info("gateway stopped")
}
