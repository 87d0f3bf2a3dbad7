// Package editor owns the editing sessions: each session's banner
// configuration, its undo history, the background generation flow and the
// export and preview pipelines.
//
// Configurations are replaced atomically under the editor's mutex. No lock is
// held while a remote model or the rasterizer is working.
package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"banner-creator/internal/banner"
	"banner-creator/internal/bridge"
	"banner-creator/internal/catalog"
	"banner-creator/internal/export"
	"banner-creator/internal/imageref"
	"banner-creator/internal/layout"
	"banner-creator/internal/preview"
	"banner-creator/internal/session"
)

var (
	ErrNotFound      = errors.New("session not found")
	ErrBusy          = errors.New("a background is already being generated")
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrUnknownSlot   = errors.New("unknown image slot")
	ErrInvalidImage  = errors.New("file is not a supported image")
	ErrNoGenerator   = errors.New("image generation is not configured")
	ErrEmptyUpload   = errors.New("uploaded file is empty")
)

const defaultNoticeTime = 3 * time.Second

// Generator is the AI side of background generation. *bridge.Bridge
// implements it.
type Generator interface {
	EnrichPrompt(ctx context.Context, req bridge.EnrichRequest) bridge.Enrichment
	GenerateImage(ctx context.Context, prompt string, textOnRight bool) (bridge.Image, error)
}

type Options struct {
	Catalog   *catalog.Holder
	Measure   layout.Measurer
	Capturer  export.Capturer
	Generator Generator
	History   *session.Store
	// NoticeDuration is how long a notice stays visible. Default 3s.
	NoticeDuration time.Duration
	Now            func() time.Time
	Logger         *slog.Logger
}

type state struct {
	id        string
	cfg       banner.Config
	prompt    string
	citations []bridge.Citation
	notices   []Notice
	touched   time.Time

	generating *semaphore.Weighted
	exporter   *export.Exporter
}

type Editor struct {
	catalog   *catalog.Holder
	measure   layout.Measurer
	capturer  export.Capturer
	generator Generator
	history   *session.Store
	previews  *preview.Renderer
	noticeFor time.Duration
	now       func() time.Time
	logger    *slog.Logger

	mu       sync.Mutex
	sessions map[string]*state
}

func New(opts Options) *Editor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	holder := opts.Catalog
	if holder == nil {
		holder = catalog.NewHolder(catalog.Default())
	}
	history := opts.History
	if history == nil {
		history = session.NewStore(session.Options{})
	}
	noticeFor := opts.NoticeDuration
	if noticeFor <= 0 {
		noticeFor = defaultNoticeTime
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Editor{
		catalog:   holder,
		measure:   opts.Measure,
		capturer:  opts.Capturer,
		generator: opts.Generator,
		history:   history,
		previews:  preview.NewRenderer(opts.Capturer),
		noticeFor: noticeFor,
		now:       now,
		logger:    logger,
		sessions:  make(map[string]*state),
	}
}

// Create starts a session from the default configuration.
func (e *Editor) Create() Snapshot {
	return e.CreateWithID(uuid.NewString())
}

// CreateWithID starts a session under a caller-chosen id, replacing any
// session already stored there. Chat surfaces key sessions by chat.
func (e *Editor) CreateWithID(id string) Snapshot {
	st := &state{
		id:         id,
		cfg:        banner.Default(),
		touched:    e.now(),
		generating: semaphore.NewWeighted(1),
		exporter:   export.New(e.capturer, e.logger),
	}
	e.mu.Lock()
	e.sessions[id] = st
	snap := e.snapshotLocked(st)
	e.mu.Unlock()

	e.history.Forget(id)
	e.logger.Debug("session created", "session", id)
	return snap
}

func (e *Editor) Get(id string) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.sessions[id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return e.snapshotLocked(st), nil
}

// Config returns the session's current configuration.
func (e *Editor) Config(id string) (banner.Config, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.sessions[id]
	if !ok {
		return banner.Config{}, ErrNotFound
	}
	return st.cfg, nil
}

// Apply folds p into the session. An invalid edit leaves the configuration
// as it was, raises an error notice and returns the *banner.ValidationError.
func (e *Editor) Apply(id string, p banner.Patch) (Snapshot, error) {
	return e.update(id, "edit", func(cfg banner.Config) (banner.Config, error) {
		return p.Apply(cfg, e.catalog)
	})
}

// Reset returns the session to the default configuration. The previous one
// stays in the undo history.
func (e *Editor) Reset(id string) (Snapshot, error) {
	return e.update(id, "reset", func(banner.Config) (banner.Config, error) {
		return banner.Default(), nil
	})
}

// Upload stores an uploaded image in slot as a data URI and turns the slot's
// element on.
func (e *Editor) Upload(id string, slot Slot, data []byte, mimeType string) (Snapshot, error) {
	if !slot.Valid() {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}
	if len(data) == 0 {
		return Snapshot{}, ErrEmptyUpload
	}
	mimeType = imageref.SniffMime(data, mimeType)
	if _, err := imageref.Decode(data, mimeType); err != nil {
		e.notify(id, LevelError, "That file could not be read as an image.")
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	ref := imageref.DataURI(mimeType, data)
	return e.update(id, "upload "+string(slot), func(cfg banner.Config) (banner.Config, error) {
		return slot.fill(ref).Apply(cfg, e.catalog)
	})
}

// Clear removes the image in slot.
func (e *Editor) Clear(id string, slot Slot) (Snapshot, error) {
	if !slot.Valid() {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}
	return e.update(id, "clear "+string(slot), func(cfg banner.Config) (banner.Config, error) {
		return slot.clear().Apply(cfg, e.catalog)
	})
}

// Undo restores the configuration replaced by the latest edit.
func (e *Editor) Undo(id string) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.sessions[id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	rev, ok := e.history.Pop(id)
	if !ok {
		return e.snapshotLocked(st), ErrNothingToUndo
	}
	if rev.Config.Product != st.cfg.Product {
		st.prompt = ""
		st.citations = nil
	}
	st.cfg = rev.Config
	st.touched = e.now()
	e.logger.Debug("undo", "session", id, "reason", rev.Reason)
	return e.snapshotLocked(st), nil
}

// Delete drops the session and its history.
func (e *Editor) Delete(id string) {
	e.mu.Lock()
	delete(e.sessions, id)
	e.mu.Unlock()
	e.history.Forget(id)
}

// Sweep deletes sessions untouched for longer than idle and reports how many
// went.
func (e *Editor) Sweep(idle time.Duration) int {
	cutoff := e.now().Add(-idle)
	var gone []string
	e.mu.Lock()
	for id, st := range e.sessions {
		if st.touched.Before(cutoff) {
			delete(e.sessions, id)
			gone = append(gone, id)
		}
	}
	e.mu.Unlock()
	for _, id := range gone {
		e.history.Forget(id)
	}
	return len(gone)
}

// update replaces the session's configuration with the result of fn and
// records the old one for undo. A product change clears the prompt and
// citations.
func (e *Editor) update(id, reason string, fn func(banner.Config) (banner.Config, error)) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.sessions[id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	next, err := fn(st.cfg)
	if err != nil {
		e.noticeLocked(st, LevelError, noticeText(err))
		return e.snapshotLocked(st), err
	}
	e.commitLocked(st, next, reason)
	return e.snapshotLocked(st), nil
}

func (e *Editor) commitLocked(st *state, next banner.Config, reason string) {
	if next == st.cfg {
		return
	}
	e.history.Push(st.id, st.cfg, reason)
	if next.Product != st.cfg.Product {
		st.prompt = ""
		st.citations = nil
	}
	st.cfg = next
	st.touched = e.now()
}

// Scene lays out the session's current configuration.
func (e *Editor) Scene(id string) (layout.Scene, error) {
	cfg, err := e.Config(id)
	if err != nil {
		return layout.Scene{}, err
	}
	return e.layout(cfg)
}

func (e *Editor) layout(cfg banner.Config) (layout.Scene, error) {
	return layout.Compute(cfg, layout.Env{Logos: e.catalog.Get(), Measure: e.measure})
}

// Export renders the session's banner to a PNG. Only one export per session
// runs at a time; a second request gets export.ErrExportInProgress.
func (e *Editor) Export(ctx context.Context, id string) (export.Artifact, error) {
	e.mu.Lock()
	st, ok := e.sessions[id]
	var cfg banner.Config
	if ok {
		cfg = st.cfg
	}
	e.mu.Unlock()
	if !ok {
		return export.Artifact{}, ErrNotFound
	}

	scene, err := e.layout(cfg)
	if err != nil {
		return export.Artifact{}, err
	}
	art, err := st.exporter.Export(ctx, scene)
	switch {
	case errors.Is(err, export.ErrExportInProgress):
		return export.Artifact{}, err
	case err != nil:
		e.notify(id, LevelError, "Export failed. Please try again.")
		return export.Artifact{}, err
	}
	return art, nil
}

// Preview renders the session's banner scaled to fit v.
func (e *Editor) Preview(ctx context.Context, id string, v *preview.Viewport) (image.Image, error) {
	scene, err := e.Scene(id)
	if err != nil {
		return nil, err
	}
	return e.previews.Render(ctx, scene, v)
}

func noticeText(err error) string {
	var verr *banner.ValidationError
	if errors.As(err, &verr) {
		return fmt.Sprintf("Invalid %s: %s", verr.Field, verr.Reason)
	}
	return strings.TrimSpace(err.Error())
}
