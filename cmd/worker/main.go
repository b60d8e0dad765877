// The worker drains the audit-event stream into the audit_events table and
// exposes its own metrics endpoint.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/casebinder/casebinder/internal/bootstrap"
	"github.com/casebinder/casebinder/internal/config"
	"github.com/casebinder/casebinder/internal/core/domain"
	"github.com/casebinder/casebinder/internal/observability/logging"
	"github.com/casebinder/casebinder/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, "casebinder-worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics()
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsMux(workerMetrics),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSAuditSubject)
	err = app.Stream.SubscribeAuditEvents(ctx, func(handlerCtx context.Context, ev domain.AuditEvent) error {
		insertCtx, cancel := context.WithTimeout(handlerCtx, 10*time.Second)
		defer cancel()
		if err := app.AuditRepo.Insert(insertCtx, ev); err != nil {
			workerMetrics.EventProcessed("error")
			return err
		}
		workerMetrics.EventProcessed("ok")
		return nil
	})
	if err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}

func metricsMux(m *metrics.WorkerMetrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}
