package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/casebinder/casebinder/internal/adapters/http"
	"github.com/casebinder/casebinder/internal/bootstrap"
	"github.com/casebinder/casebinder/internal/config"
	"github.com/casebinder/casebinder/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, "casebinder-api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	router := httpadapter.NewRouter(
		app.IntakeUC, app.PackageUC, app.AmendUC,
		app.HTTPMetrics,
		httpadapter.TrafficControl{
			RateLimitRPS:   cfg.APIRateLimitRPS,
			RateLimitBurst: cfg.APIRateLimitBurst,
			MaxInFlight:    cfg.APIMaxInFlight,
		},
	).Handler()

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api_listening", "port", cfg.APIPort, "catalog_version", app.Catalog.Version())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("api_server_failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("api_shutdown_failed", "error", err)
	}
}
