package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"salarydash/internal/api"
	"salarydash/internal/config"
	"salarydash/internal/engine"
	"salarydash/internal/logging"
	"salarydash/internal/metrics"
	"salarydash/internal/refresh"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Logging)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// 1. Dataset cache. Nothing is fetched until the first request or warm-up.
	src := engine.NewSource(cfg.Data.Source, cfg.Data.FetchTimeout)
	loader := engine.NewLoader(cfg.Data.MaxBytes, logger)
	cache := engine.NewCache(src, loader.Load, cfg.Data.FetchTimeout, m, logger)

	// 2. HTTP server. Requests made before the dataset arrives wait on the
	// same in-flight load.
	h := api.NewHandler(cache, m, engine.BuildOptions{TopN: cfg.Data.TopN, Bins: cfg.Data.HistogramBins}, logger)
	e := api.NewServer(h, api.ServerOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		Gatherer:       reg,
	}, logger)
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	// 3. Warm the cache in the background
	go func() {
		t0 := time.Now()
		ds, err := cache.GetOrLoad(ctx)
		if err != nil {
			logger.Error("warm-up failed; dataset stays unavailable until invalidated", slog.Any("error", err))
			return
		}
		logger.Info("warm-up complete",
			slog.Int("rows", ds.Len()),
			slog.Duration("duration", time.Since(t0)))
	}()

	// 4. Optional refresh triggers
	if fs, ok := src.(engine.FileSource); ok && cfg.Data.Watch {
		w, err := refresh.NewWatcher(fs.Path(), cache, logger)
		if err != nil {
			return err
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error("source watcher stopped", slog.Any("error", err))
			}
		}()
	}
	if cfg.Data.RefreshSchedule != "" {
		s, err := refresh.NewScheduler(cfg.Data.RefreshSchedule, cache, cfg.Data.FetchTimeout, logger)
		if err != nil {
			return err
		}
		s.Start()
		defer s.Stop()
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server ready", slog.String("addr", addr), slog.String("source", src.ID()), slog.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
