package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/timbre/internal/config"
	httpadapter "github.com/aretw0/timbre/pkg/adapters/http"
	"github.com/aretw0/timbre/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 5 * time.Second

// NewServerHandler wires the study server: a fresh spec per request from the
// audio directory, submissions into the configured result store, stimuli
// under /audio/ and metrics on a dedicated registry.
func NewServerHandler(ctx context.Context, cfg *config.Config, logger *slog.Logger) (http.Handler, func() error, error) {
	store, release, err := NewResultStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	handler, err := httpadapter.NewHandler(NewGenerator(cfg, logger), store,
		httpadapter.WithLogger(logger),
		httpadapter.WithAudioDir(cfg.Audio.Dir),
		httpadapter.WithMetrics(metrics, reg),
	)
	if err != nil {
		release()
		return nil, nil, err
	}
	return handler, release, nil
}

// Serve runs the study server until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	handler, release, err := NewServerHandler(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("study server listening", "addr", srv.Addr, "audio", cfg.Audio.Dir)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down study server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			closeErr := srv.Close()
			return errors.Join(fmt.Errorf("graceful shutdown did not complete in %v: %w", shutdownTimeout, err), closeErr)
		}
		logger.Info("study server stopped")
		return nil
	}
}
