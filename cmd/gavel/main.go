package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/gavelworks/gavel/internal/host"
	"github.com/gavelworks/gavel/internal/platform/config"
	"github.com/gavelworks/gavel/internal/platform/metrics"
	"github.com/gavelworks/gavel/internal/storage/bolt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("node stopped")
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return err
	}
	store, err := bolt.Open(filepath.Join(cfg.DataDir, "gavel.db"))
	if err != nil {
		return err
	}
	defer store.Close()

	node := host.New(cfg, log, store)
	if err := node.Boot(ctx); err != nil {
		return err
	}

	sessions := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: node.Hub(),
	}
	scrape := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metrics.Handler(),
	}

	errs := make(chan error, 2)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("session gateway listening")
		if err := sessions.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
	go func() {
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
		if err := scrape.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	loopErr := make(chan error, 1)
	go func() {
		loopErr <- node.Run(ctx)
	}()

	var runErr error
	select {
	case runErr = <-errs:
		log.Error().Err(runErr).Msg("server failed")
	case runErr = <-loopErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sessions.Shutdown(shutdownCtx)
	scrape.Shutdown(shutdownCtx)
	return runErr
}
