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

	"github.com/joho/godotenv"

	"banner-creator/internal/app"
	"banner-creator/internal/config"
	"banner-creator/internal/logger"
)

// Sessions idle this long are dropped.
const sessionIdle = 2 * time.Hour

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, closer := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile, MaxSizeMB: cfg.LogMaxSizeMB})
	defer closer.Close()

	a, err := app.New(cfg, log, app.Options{})
	if err != nil {
		log.Error("init failed", "err", err)
		os.Exit(1)
	}
	if !cfg.HasGemini() {
		log.Warn("GEMINI_API_KEY not set, background generation disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.WatchCatalog(ctx); err != nil {
		log.Warn("catalog watch disabled", "err", err)
	}
	go sweep(ctx, a, log)

	s := &server{
		editor:         a.Editor,
		catalog:        a.Catalog,
		prefs:          a.Prefs,
		logger:         log,
		requestTimeout: cfg.RequestTimeout,
	}

	srv := &http.Server{
		Addr:              cfg.WebAddr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("web started", "addr", cfg.WebAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "err", err)
	}
}

func sweep(ctx context.Context, a *app.App, log *slog.Logger) {
	t := time.NewTicker(10 * time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := a.Editor.Sweep(sessionIdle); n > 0 {
				log.Info("idle sessions dropped", "count", n)
			}
		}
	}
}
