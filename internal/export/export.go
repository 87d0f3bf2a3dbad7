// Package export turns a canonical scene into a downloadable PNG.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"banner-creator/internal/banner"
	"banner-creator/internal/layout"
)

const (
	Filename = "banner.png"
	MimeType = "image/png"
)

var ErrExportInProgress = errors.New("export already in progress")

// CaptureError reports a failed rasterization. No artifact is produced.
type CaptureError struct {
	Err error
}

func (e *CaptureError) Error() string { return "capture failed: " + e.Err.Error() }
func (e *CaptureError) Unwrap() error { return e.Err }

// CaptureOptions configures a Capturer.
type CaptureOptions struct {
	Width      int
	Height     int
	Background color.Color
	// AllowCrossOrigin lets the capturer load remote image references in
	// addition to inline data URIs.
	AllowCrossOrigin bool
	// Normalize draws the scene at its own coordinates with no scaling,
	// whatever size the caller last displayed it at.
	Normalize bool
}

// Canonical returns the fixed options every export uses.
func Canonical() CaptureOptions {
	return CaptureOptions{
		Width:            banner.Width,
		Height:           banner.Height,
		Background:       color.White,
		AllowCrossOrigin: true,
		Normalize:        true,
	}
}

// Capturer rasterizes a scene.
type Capturer interface {
	Capture(ctx context.Context, scene layout.Scene, opts CaptureOptions) (image.Image, error)
}

type Artifact struct {
	Filename string
	MimeType string
	Data     []byte
}

// Exporter runs at most one export at a time.
type Exporter struct {
	capturer Capturer
	gate     *semaphore.Weighted
	running  atomic.Bool
	logger   *slog.Logger
}

func New(capturer Capturer, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Exporter{
		capturer: capturer,
		gate:     semaphore.NewWeighted(1),
		logger:   logger,
	}
}

// Busy reports whether an export is running.
func (e *Exporter) Busy() bool {
	return e.running.Load()
}

// Export captures scene and encodes it. A call made while another export is
// running returns ErrExportInProgress without doing anything.
func (e *Exporter) Export(ctx context.Context, scene layout.Scene) (Artifact, error) {
	if !e.gate.TryAcquire(1) {
		return Artifact{}, ErrExportInProgress
	}
	e.running.Store(true)
	defer func() {
		e.running.Store(false)
		e.gate.Release(1)
	}()

	start := time.Now()
	img, err := e.capturer.Capture(ctx, scene, Canonical())
	if err != nil {
		e.logger.Warn("export capture failed", "err", err)
		return Artifact{}, &CaptureError{Err: err}
	}
	if b := img.Bounds(); b.Dx() != banner.Width || b.Dy() != banner.Height {
		return Artifact{}, &CaptureError{Err: fmt.Errorf("captured %dx%d, want %dx%d", b.Dx(), b.Dy(), banner.Width, banner.Height)}
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return Artifact{}, &CaptureError{Err: fmt.Errorf("encode png: %w", err)}
	}

	e.logger.Info("banner exported", "bytes", buf.Len(), "elapsed_ms", time.Since(start).Milliseconds())
	return Artifact{Filename: Filename, MimeType: MimeType, Data: buf.Bytes()}, nil
}
