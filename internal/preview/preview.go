// Package preview fits the fixed banner canvas into a viewport.
package preview

import (
	"context"
	"errors"
	"image"
	"math"
	"sync"

	xdraw "golang.org/x/image/draw"

	"banner-creator/internal/banner"
	"banner-creator/internal/export"
	"banner-creator/internal/layout"
)

// Padding is the combined margin kept free around the preview.
const Padding = 60.0

// MaxScale caps the preview at twice the canvas size.
const MaxScale = 2.0

// Scale returns the uniform factor that fits the canvas into a w x h
// viewport after padding, capped at MaxScale. It is never negative, and a
// non-finite size gives 0.
func Scale(w, h float64) float64 {
	if math.IsNaN(w) || math.IsNaN(h) || math.IsInf(w, 0) || math.IsInf(h, 0) {
		return 0
	}
	s := math.Min((w-Padding)/banner.Width, (h-Padding)/banner.Height)
	if s < 0 {
		return 0
	}
	return math.Min(s, MaxScale)
}

// Viewport tracks the observed size of the preview container and the scale
// derived from it. It is safe for concurrent use.
type Viewport struct {
	mu    sync.RWMutex
	w, h  float64
	scale float64
}

func NewViewport(w, h float64) *Viewport {
	v := &Viewport{}
	v.Observe(w, h)
	return v
}

// Observe records a new container size. It reports whether the scale
// changed.
func (v *Viewport) Observe(w, h float64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if w == v.w && h == v.h && v.scale != 0 {
		return false
	}
	v.w, v.h = w, h
	next := Scale(w, h)
	changed := next != v.scale
	v.scale = next
	return changed
}

func (v *Viewport) Scale() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.scale
}

// Size returns the scaled canvas size in pixels.
func (v *Viewport) Size() (int, int) {
	s := v.Scale()
	return int(math.Round(banner.Width * s)), int(math.Round(banner.Height * s))
}

var ErrZeroScale = errors.New("viewport too small for a preview")

// Renderer produces scaled previews. The canonical image is always drawn at
// full size first, so the preview matches the export.
type Renderer struct {
	capturer export.Capturer
}

func NewRenderer(c export.Capturer) *Renderer {
	return &Renderer{capturer: c}
}

func (r *Renderer) Render(ctx context.Context, scene layout.Scene, v *Viewport) (image.Image, error) {
	w, h := v.Size()
	if w < 1 || h < 1 {
		return nil, ErrZeroScale
	}
	full, err := r.capturer.Capture(ctx, scene, export.Canonical())
	if err != nil {
		return nil, err
	}
	if w == full.Bounds().Dx() && h == full.Bounds().Dy() {
		return full, nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), full, full.Bounds(), xdraw.Src, nil)
	return dst, nil
}
