// Command server wires the applicator service to its persistence, blob
// storage and HTTP boundary.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tutorcore/internal/blob"
	"tutorcore/internal/core"
	"tutorcore/internal/httpapi"
	"tutorcore/internal/seed"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := core.NewDefaultRulesEngine()
	store, err := core.OpenPersistentStore(engine)
	if err != nil {
		return err
	}
	defer func() {
		if closer, ok := store.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				logger.Warn("close store", "error", err)
			}
		}
	}()

	registry := prometheus.NewRegistry()
	metrics, err := core.NewPrometheusMetricsRecorder(registry)
	if err != nil {
		return err
	}
	svc := core.NewService(store, core.WithMetricsRecorder(metrics))

	if snapshotEmpty(svc) {
		store.ImportState(seed.DefaultSnapshot())
		if _, err := store.RunInTransaction(ctx, func(tx core.Transaction) error { return nil }); err != nil {
			return err
		}
		logger.Info("seeded default dataset")
	}

	blobs, err := blob.Open(ctx)
	if err != nil {
		return err
	}
	logger.Info("blob store ready", "driver", blobs.Driver())

	mux := httpapi.NewHandler(svc, blobs, logger).Routes()
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	addr := os.Getenv("TUTORCORE_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func snapshotEmpty(svc *core.Service) bool {
	s := svc.State()
	return len(s.Students) == 0 &&
		len(s.Teachers) == 0 &&
		len(s.Staff) == 0 &&
		len(s.Classes) == 0 &&
		len(s.Announcements) == 0
}
