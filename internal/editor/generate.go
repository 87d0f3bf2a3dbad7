package editor

import (
	"context"
	"errors"
	"strings"
	"time"

	"banner-creator/internal/banner"
	"banner-creator/internal/bridge"
	"banner-creator/internal/catalog"
)

const (
	msgGenerated       = "Background generated."
	msgGenerateFailed  = "Background generation failed. Please try again."
	msgCredentialIssue = "The AI service rejected the API key. Check the configured key and try again."
)

// GenerateBackground produces an AI background for the session from
// userPrompt and installs it as the background image.
//
// International Payments prompts are enriched first; every other product
// requires a non-empty prompt. With a co-brand logo shown, International
// Payments also requires the merchant name. Only one generation per session
// runs at a time; a second request gets ErrBusy.
func (e *Editor) GenerateBackground(ctx context.Context, id, userPrompt string) (Snapshot, error) {
	if e.generator == nil {
		return Snapshot{}, ErrNoGenerator
	}

	e.mu.Lock()
	st, ok := e.sessions[id]
	if !ok {
		e.mu.Unlock()
		return Snapshot{}, ErrNotFound
	}
	cfg := st.cfg
	if err := checkGenerate(cfg, userPrompt); err != nil {
		e.noticeLocked(st, LevelError, noticeText(err))
		snap := e.snapshotLocked(st)
		e.mu.Unlock()
		return snap, err
	}
	if !st.generating.TryAcquire(1) {
		snap := e.snapshotLocked(st)
		e.mu.Unlock()
		return snap, ErrBusy
	}
	st.prompt = userPrompt
	e.mu.Unlock()

	merchant := ""
	if cfg.ShowMerchantLogo {
		merchant = cfg.MerchantName
	}

	start := time.Now()
	enriched := e.generator.EnrichPrompt(ctx, bridge.EnrichRequest{
		Product:      cfg.Product,
		UserText:     userPrompt,
		MerchantName: merchant,
		TextOnRight:  cfg.TextOnRight(),
		Theme:        cfg.Theme,
	})
	img, err := e.generator.GenerateImage(ctx, enriched.Prompt, cfg.TextOnRight())

	// Released under the store lock, after the result is folded in.
	e.mu.Lock()
	defer e.mu.Unlock()
	st.generating.Release(1)
	cur, ok := e.sessions[id]
	if !ok || cur != st {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		e.logger.Warn("background generation failed", "session", id, "err", err)
		msg := msgGenerateFailed
		var genErr *bridge.GenerationError
		if errors.As(err, &genErr) && genErr.CredentialHint() {
			msg = msgCredentialIssue
		}
		e.noticeLocked(st, LevelError, msg)
		return e.snapshotLocked(st), err
	}

	ref := img.DataURI()
	on := true
	patch := banner.Patch{BackgroundRef: &ref, ShowBackground: &on}
	next, err := patch.Apply(st.cfg, e.catalog)
	if err != nil {
		e.noticeLocked(st, LevelError, noticeText(err))
		return e.snapshotLocked(st), err
	}
	e.commitLocked(st, next, "generate background")
	if st.cfg.Product == cfg.Product {
		st.prompt = userPrompt
		st.citations = enriched.Citations
	}
	e.noticeLocked(st, LevelSuccess, msgGenerated)
	e.logger.Info("background generated", "session", id, "bytes", len(img.Data), "citations", len(enriched.Citations), "elapsed_ms", time.Since(start).Milliseconds())
	return e.snapshotLocked(st), nil
}

func checkGenerate(cfg banner.Config, userPrompt string) error {
	if cfg.Product == catalog.International {
		if cfg.ShowMerchantLogo && strings.TrimSpace(cfg.MerchantName) == "" {
			return &banner.ValidationError{Field: "merchantName", Reason: "is required for a co-branded International Payments banner"}
		}
		return nil
	}
	if strings.TrimSpace(userPrompt) == "" {
		return &banner.ValidationError{Field: "prompt", Reason: "describe the background you want"}
	}
	return nil
}
