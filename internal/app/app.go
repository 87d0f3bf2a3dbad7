// Package app assembles the editor core from configuration. Every command
// builds the same graph and adds its own surface on top.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"banner-creator/internal/bridge"
	"banner-creator/internal/catalog"
	"banner-creator/internal/config"
	"banner-creator/internal/editor"
	"banner-creator/internal/fonts"
	"banner-creator/internal/gemini"
	"banner-creator/internal/httpclient"
	"banner-creator/internal/imageref"
	"banner-creator/internal/prefs"
	"banner-creator/internal/render"
	"banner-creator/internal/session"
)

type Options struct {
	// AllowFiles lets image references name local files.
	AllowFiles bool
	BaseDir    string
}

type App struct {
	Config     config.Config
	HTTPClient *http.Client
	Catalog    *catalog.Holder
	Fonts      *fonts.Set
	Images     *imageref.Resolver
	Renderer   *render.Rasterizer
	Bridge     *bridge.Bridge
	Editor     *editor.Editor
	Prefs      *prefs.Store

	logger *slog.Logger
}

func New(cfg config.Config, logger *slog.Logger, opts Options) (*App, error) {
	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
	})

	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		loaded, err := catalog.Load(cfg.CatalogFile)
		if err != nil {
			return nil, err
		}
		cat = loaded
	}
	holder := catalog.NewHolder(cat)

	fontSet, err := fonts.Load(fonts.Paths{
		Regular:  cfg.FontRegular,
		Medium:   cfg.FontMedium,
		SemiBold: cfg.FontBold,
	})
	if err != nil {
		return nil, fmt.Errorf("load fonts: %w", err)
	}

	images := imageref.New(imageref.Options{
		HTTPClient: httpclient.NewRetryable(httpClient),
		AllowHosts: cfg.ImageAllowHosts,
		AllowFiles: opts.AllowFiles,
		BaseDir:    opts.BaseDir,
		Logger:     logger,
	})
	rasterizer := render.New(fontSet, images, logger)

	var gen editor.Generator
	var br *bridge.Bridge
	if cfg.HasGemini() {
		keys := bridge.NewKeyFile(cfg.GeminiAPIKey, cfg.GeminiAPIKeyFile)
		gem := gemini.New(gemini.Options{
			Keys:       keys,
			BaseURL:    cfg.GeminiBaseURL,
			APIVersion: cfg.GeminiAPIVersion,
			TextModel:  cfg.GeminiTextModel,
			ImageModel: cfg.GeminiImageModel,
			HTTPClient: httpClient,
			Logger:     logger,
		})
		br = bridge.New(bridge.Options{Text: gem, Image: gem, Credentials: keys, Logger: logger})
		gen = br
	}

	store, err := prefs.Open(cfg.PrefsFile)
	if err != nil {
		return nil, err
	}

	ed := editor.New(editor.Options{
		Catalog:        holder,
		Measure:        fontSet,
		Capturer:       rasterizer,
		Generator:      gen,
		History:        session.NewStore(session.Options{MaxRevisions: cfg.MaxHistory}),
		NoticeDuration: cfg.NoticeDuration,
		Logger:         logger,
	})

	return &App{
		Config:     cfg,
		HTTPClient: httpClient,
		Catalog:    holder,
		Fonts:      fontSet,
		Images:     images,
		Renderer:   rasterizer,
		Bridge:     br,
		Editor:     ed,
		Prefs:      store,
		logger:     logger,
	}, nil
}

// WatchCatalog reloads the catalog file on change until ctx is done. It is a
// no-op without a catalog file.
func (a *App) WatchCatalog(ctx context.Context) error {
	if a.Config.CatalogFile == "" {
		return nil
	}
	return catalog.Watch(ctx, a.Config.CatalogFile, a.Catalog, a.logger)
}
