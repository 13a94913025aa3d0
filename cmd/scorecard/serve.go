package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cpsfl/scorecard/internal/api"
	"github.com/cpsfl/scorecard/internal/cache"
	"github.com/cpsfl/scorecard/internal/config"
	"github.com/cpsfl/scorecard/internal/ingest"
	"github.com/cpsfl/scorecard/internal/snapshot"
	"github.com/cpsfl/scorecard/internal/ws"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the scorecard API, WebSocket stream and /metrics",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	slog.Info("scorecard starting", "config", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"sheets", len(cfg.Sheets),
		"sections", len(cfg.Sections),
		"cache_ttl", cfg.Fetch.CacheTTL,
		"push_interval", cfg.Server.PushInterval,
	)

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Sheet cache with background TTL eviction. It outlives config reloads so
	// a reload does not force every sheet to be fetched again.
	sheets := cache.New(cfg.Fetch.CacheTTL)
	go sheets.Run(ctx)

	b, err := snapshot.NewBuilder(ctx, cfg, sheets, ingest.Options{})
	if err != nil {
		return err
	}
	live := snapshot.NewLive(b)

	// Rebuild the Builder on config change; a bad config keeps the old one.
	go func() {
		if err := config.Watch(ctx, configPath, func(updated *config.Config) {
			nb, err := snapshot.NewBuilder(ctx, updated, sheets, ingest.Options{})
			if err != nil {
				slog.Error("config reload rejected, keeping previous sections", "err", err)
				return
			}
			live.Swap(nb)
			slog.Info("config hot-reloaded", "sheets", len(updated.Sheets), "sections", len(updated.Sections))
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	hub := ws.New(live, cfg.Server.PushInterval)
	go hub.Run(ctx)

	httpSrv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: api.New(live, api.Options{
			Auth:      cfg.Server.Auth,
			Publisher: hub,
			Stream:    hub,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	}

	slog.Info("scorecard shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	return httpSrv.Shutdown(shutdownCtx)
}
