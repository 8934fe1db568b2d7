package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"uqe_market/internal/app"
	"uqe_market/internal/enrich"
	"uqe_market/internal/infra"
	"uqe_market/internal/infra/adurite"
	"uqe_market/internal/infra/rolimons"
	"uqe_market/internal/server"
	"uqe_market/internal/service"
	"uqe_market/internal/view"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("🕵️ Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	cfg := bootstrap.Config

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Enrichment Pipeline
	pipeline, err := buildPipeline(cfg)
	if err != nil {
		slog.Error("❌ Invalid multiplier band", slog.Any("error", err))
		os.Exit(1)
	}

	// 5. Upstream Clients (Gateways)
	aduriteClient := adurite.New(cfg.API.Adurite.URL, infra.DefaultUserAgent)
	rolimonsClient := rolimons.New(cfg.API.Rolimons.URL, infra.DefaultUserAgent)
	fxClient := infra.NewFXClient(cfg.API.FX.URL, cfg.API.FX.Base, cfg.API.FX.Target)

	// 6. Market Service (periodic fetch-enrich loop)
	svc := service.NewMarketService(
		aduriteClient,
		rolimonsClient,
		fxClient,
		pipeline,
		time.Duration(cfg.Pipeline.RefreshIntervalSec)*time.Second,
		time.Duration(cfg.Pipeline.CacheTTLSec)*time.Second,
	)
	svc.SetRepository(bootstrap.Storage)

	svc.Start(ctx)
	defer svc.Stop()
	slog.InfoContext(ctx, "✅ Market service started",
		slog.Int("refresh_interval_sec", cfg.Pipeline.RefreshIntervalSec))

	// 7. Background Asset Sync after the first successful refresh
	go syncAssetsOnFirstSnapshot(ctx, bootstrap, svc)

	// 8. HTTP Server (API + relay + websocket)
	srv := server.New(cfg, svc, bootstrap.Storage, bootstrap.Downloader)

	slog.InfoContext(ctx, "✨ Uqe Market fully operational. Press Ctrl+C to exit.")
	if err := srv.Start(ctx); err != nil {
		slog.Error("❌ HTTP server failed", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("👋 Shutting down gracefully...")
}

// buildPipeline uses the configured multiplier band when present and falls
// back to the built-in defaults otherwise
func buildPipeline(cfg *infra.Config) (*enrich.Pipeline, error) {
	p := cfg.Pipeline
	if p.LowMult.IsZero() && p.PrimaryMult.IsZero() && p.HighMult.IsZero() {
		return enrich.New(), nil
	}
	return enrich.NewWithBand(p.LowMult, p.PrimaryMult, p.HighMult)
}

// syncAssetsOnFirstSnapshot waits for the first snapshot, then syncs item
// metadata and thumbnails for everything on display
func syncAssetsOnFirstSnapshot(ctx context.Context, bootstrap *app.Bootstrap, svc *service.MarketService) {
	events, cancel := svc.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if ev.Error != "" {
				continue
			}
			items, err := svc.Query(view.Params{MaxRAP: 1 << 40})
			if err != nil {
				slog.Warn("Asset sync skipped", slog.Any("error", err))
				return
			}
			bootstrap.SyncAssets(ctx, items)
			return
		}
	}
}
