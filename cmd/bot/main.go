package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"banner-creator/internal/app"
	"banner-creator/internal/config"
	"banner-creator/internal/handlers"
	"banner-creator/internal/logger"
	"banner-creator/internal/mediagroup"
	"banner-creator/internal/telegram"
)

// Chats idle this long lose their banner and history.
const chatIdle = 24 * time.Hour

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err == nil {
		err = cfg.RequireTelegram()
	}
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
		log.Warn("GEMINI_API_KEY not set, /generate disabled")
	}

	tg, err := telegram.New(telegram.Options{
		Token:      cfg.TelegramToken,
		HTTPClient: a.HTTPClient,
		Logger:     log,
		Debug:      cfg.LogLevel == "trace",
	})
	if err != nil {
		log.Error("telegram init failed", "err", err)
		os.Exit(1)
	}

	handler := handlers.New(handlers.Options{
		Telegram: tg,
		Editor:   a.Editor,
		Catalog:  a.Catalog,
		Logger:   log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.WatchCatalog(ctx); err != nil {
		log.Warn("catalog watch disabled", "err", err)
	}
	go func() {
		t := time.NewTicker(time.Hour)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := a.Editor.Sweep(chatIdle); n > 0 {
					log.Info("idle chats dropped", "count", n)
				}
			}
		}
	}()

	sem := make(chan struct{}, cfg.MaxConcurrent)
	onGroupFlush := func(group mediagroup.Group) {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return
		}

		go func() {
			defer func() { <-sem }()

			reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
			defer cancel()

			handler.HandleMediaGroup(reqCtx, group)
		}()
	}

	aggregator := mediagroup.New(mediagroup.Options{
		Debounce: cfg.MediaGroupDebounce,
		OnFlush:  onGroupFlush,
	})
	handler.SetMediaGroupAggregator(aggregator)

	log.Info("bot started", "username", tg.Username())

	updates := tg.Updates(telegram.UpdatesOptions{
		Timeout: 30 * time.Second,
	})
	defer tg.StopUpdates()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down", "dropped_albums", aggregator.Stop())
			return
		case update, ok := <-updates:
			if !ok {
				log.Info("updates channel closed")
				return
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}

			go func(update telegram.Update) {
				defer func() { <-sem }()

				reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
				defer cancel()

				if err := handler.HandleUpdate(reqCtx, update); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("handle update failed", "err", err)
				}
			}(update)
		}
	}
}
