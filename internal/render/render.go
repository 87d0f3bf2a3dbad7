// Package render rasterizes layout scenes with gg.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"banner-creator/internal/export"
	"banner-creator/internal/fonts"
	"banner-creator/internal/layout"
)

// ImageSource loads the images a scene references. Missing entries are
// skipped when drawing.
type ImageSource interface {
	ResolveAll(ctx context.Context, refs []string) map[string]image.Image
}

var ErrEmptyScene = errors.New("scene has no size")

// Rasterizer draws scenes. It implements export.Capturer and is safe for
// concurrent use.
type Rasterizer struct {
	fonts  *fonts.Set
	images ImageSource
	logger *slog.Logger
}

func New(fontSet *fonts.Set, images ImageSource, logger *slog.Logger) *Rasterizer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Rasterizer{fonts: fontSet, images: images, logger: logger}
}

var _ export.Capturer = (*Rasterizer)(nil)

// Capture draws scene onto an opts.Width x opts.Height canvas filled with
// opts.Background. Without Normalize the scene is scaled to the canvas;
// with it the scene is drawn one unit per pixel.
func (r *Rasterizer) Capture(ctx context.Context, scene layout.Scene, opts export.CaptureOptions) (image.Image, error) {
	if scene.Width <= 0 || scene.Height <= 0 {
		return nil, ErrEmptyScene
	}
	w, h := opts.Width, opts.Height
	if w <= 0 || h <= 0 {
		w, h = scene.Width, scene.Height
	}
	scale := 1.0
	if !opts.Normalize {
		scale = math.Min(float64(w)/float64(scene.Width), float64(h)/float64(scene.Height))
	}

	images := r.loadImages(ctx, scene, opts.AllowCrossOrigin)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dc := gg.NewContext(w, h)
	bg := opts.Background
	if bg == nil {
		bg = color.White
	}
	dc.SetColor(bg)
	dc.Clear()

	p := painter{dc: dc, scale: scale, fonts: r.fonts, images: images}
	for _, n := range scene.Nodes {
		if err := p.node(n); err != nil {
			return nil, fmt.Errorf("draw %s: %w", n.Kind, err)
		}
	}
	return dc.Image(), nil
}

func (r *Rasterizer) loadImages(ctx context.Context, scene layout.Scene, crossOrigin bool) map[string]image.Image {
	if r.images == nil {
		return nil
	}
	var refs []string
	for _, ref := range scene.Refs() {
		if !crossOrigin && !strings.HasPrefix(ref, "data:") {
			r.logger.Debug("cross-origin image skipped", "ref", ref)
			continue
		}
		refs = append(refs, ref)
	}
	if len(refs) == 0 {
		return nil
	}
	return r.images.ResolveAll(ctx, refs)
}

type painter struct {
	dc     *gg.Context
	scale  float64
	fonts  *fonts.Set
	images map[string]image.Image
}

func (p painter) node(n layout.Node) error {
	switch n.Kind {
	case layout.KindBackdrop:
		p.fillRect(n.Rect, n.Backdrop.Color)
	case layout.KindBackground:
		p.image(*n.Background)
	case layout.KindLogoRow:
		row := n.LogoRow
		p.image(row.Logo)
		if row.Separator != nil {
			p.fillRect(*row.Separator, row.SeparatorColor)
		}
		if row.Merchant != nil {
			p.image(*row.Merchant)
		}
	case layout.KindTag:
		tag := n.Tag
		p.dc.SetColor(tag.Background)
		p.dc.DrawRoundedRectangle(p.s(n.Rect.X), p.s(n.Rect.Y), p.s(n.Rect.W), p.s(n.Rect.H), p.s(math.Min(tag.Radius, n.Rect.H/2)))
		p.dc.Fill()
		if err := p.icon(tag.Icon); err != nil {
			return err
		}
		p.text(tag.Text)
	case layout.KindHeading:
		p.text(n.Heading.Text)
	case layout.KindDivider:
		p.divider(n.Rect, *n.Divider)
	case layout.KindParagraph:
		p.text(*n.Paragraph)
	case layout.KindPointerList:
		for _, item := range n.Pointers.Items {
			if err := p.icon(item.Icon); err != nil {
				return err
			}
			p.text(item.Text)
		}
	default:
		return fmt.Errorf("unknown node kind %q", n.Kind)
	}
	return nil
}

func (p painter) s(v float64) float64 { return v * p.scale }

func (p painter) fillRect(r layout.Rect, c layout.Color) {
	p.dc.SetColor(c)
	p.dc.DrawRectangle(p.s(r.X), p.s(r.Y), p.s(r.W), p.s(r.H))
	p.dc.Fill()
}

func (p painter) image(slot layout.ImageSlot) {
	src, ok := p.images[slot.Ref]
	if !ok || src == nil {
		return
	}
	w := int(math.Round(p.s(slot.Rect.W)))
	h := int(math.Round(p.s(slot.Rect.H)))
	if w < 1 || h < 1 {
		return
	}

	x, y := p.s(slot.Rect.X), p.s(slot.Rect.Y)
	switch slot.Fit {
	case layout.FitCover:
		p.dc.DrawImage(imaging.Fill(src, w, h, imaging.Center, imaging.Lanczos), int(math.Round(x)), int(math.Round(y)))
	default:
		// Contain keeps the logo's left edge on the column and centres it
		// vertically in its box.
		fitted := imaging.Fit(src, w, h, imaging.Lanczos)
		dy := (h - fitted.Bounds().Dy()) / 2
		p.dc.DrawImage(fitted, int(math.Round(x)), int(math.Round(y))+dy)
	}
}

func (p painter) text(tb layout.TextBlock) {
	if len(tb.Lines) == 0 {
		return
	}
	st := tb.Style
	st.Size *= p.scale
	face := p.fonts.Face(st)
	defer face.Close()

	m := face.Metrics()
	ascent := float64(m.Ascent) / 64
	descent := float64(m.Descent) / 64
	lh := p.s(tb.Style.LineHeight)

	p.dc.SetFontFace(face)
	p.dc.SetColor(tb.Color)
	for i, line := range tb.Lines {
		if line == "" {
			continue
		}
		top := p.s(tb.Rect.Y) + float64(i)*lh
		baseline := top + (lh+ascent-descent)/2
		p.dc.DrawString(line, p.s(tb.Rect.X), baseline)
	}
}

func (p painter) divider(r layout.Rect, d layout.Divider) {
	if d.Image != nil {
		p.image(*d.Image)
		return
	}
	grad := gg.NewLinearGradient(p.s(r.X), 0, p.s(r.Right()), 0)
	grad.AddColorStop(0, d.From)
	grad.AddColorStop(1, d.To)
	p.dc.SetFillStyle(grad)
	p.dc.DrawRectangle(p.s(r.X), p.s(r.Y), p.s(r.W), math.Max(1, p.s(r.H)))
	p.dc.Fill()
}

func (p painter) icon(ic layout.Icon) error {
	glyph, ok := glyphs[ic.Name]
	if !ok {
		return fmt.Errorf("unknown icon %q", ic.Name)
	}
	unit := p.s(ic.Rect.W) / glyphUnits

	p.dc.Push()
	defer p.dc.Pop()
	p.dc.Translate(p.s(ic.Rect.X), p.s(ic.Rect.Y))
	p.dc.Scale(unit, unit)

	p.dc.SetColor(ic.Color)
	p.dc.SetLineWidth(glyphStroke * unit)
	p.dc.SetLineCap(gg.LineCapRound)
	p.dc.SetLineJoin(gg.LineJoinRound)
	glyph(p.dc)
	p.dc.Stroke()
	return nil
}
