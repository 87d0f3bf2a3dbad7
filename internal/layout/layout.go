// Package layout turns a banner configuration into a Scene: an ordered list
// of absolutely positioned nodes on the fixed 1200x628 canvas. It knows
// nothing about pixels or image decoding.
package layout

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"banner-creator/internal/banner"
	"banner-creator/internal/fonts"
	"banner-creator/internal/theme"
)

// Text column geometry.
const (
	ColumnLeftX  = 215.0
	ColumnRightX = 620.0
	ColumnY      = 75.0
	ColumnWidth  = 365.0
	ColumnHeight = 478.0

	logoRowHeight  = 35.0
	logoWidth      = 117.5
	logoHeight     = 25.0
	logoGap        = 10.0
	separatorWidth = 1.0
	contentGap     = 20.0
	tagPadX        = 10.0
	tagPadY        = 4.0
	tagIconBox     = 24.0
	tagIconPad     = 4.0
	tagGap         = 4.0
	tagRadius      = 20.0
	lineDividerW   = 240.0
	lineDividerH   = 1.0
	imageDividerW  = 90.0
	imageDividerH  = 12.0
	pointerGap     = 10.0
	pointerIconBox = 28.0
	pointerIconPad = 4.0
	pointerTextGap = 10.0
)

var (
	backdropColor  = Color{R: 0xD9, G: 0xD9, B: 0xD9, A: 0xFF}
	separatorColor = Color{R: 0xC0, G: 0xC0, B: 0xC0, A: 0xFF}
)

var (
	TagStyle       = fonts.Style{Weight: fonts.Medium, Size: 14, LineHeight: 20}
	HeadingStyles  = [3]fonts.Style{
		{Weight: fonts.SemiBold, Size: 48, LineHeight: 56},
		{Weight: fonts.SemiBold, Size: 36, LineHeight: 44},
		{Weight: fonts.Medium, Size: 28, LineHeight: 36},
	}
	ParagraphStyle = fonts.Style{Weight: fonts.Regular, Size: 24, LineHeight: 32}
	PointerStyle   = fonts.Style{Weight: fonts.Regular, Size: 18, LineHeight: 26}
)

// Measurer wraps and measures text. *fonts.Set implements it.
type Measurer interface {
	Wrap(st fonts.Style, text string, maxWidth float64) []string
	Width(st fonts.Style, text string) float64
}

// LogoResolver maps a configuration to its primary logo reference.
// *catalog.Catalog implements it.
type LogoResolver interface {
	LogoRef(cfg banner.Config) string
}

type Env struct {
	Logos   LogoResolver
	Measure Measurer
}

var ErrIncompleteEnv = errors.New("layout: logo resolver and measurer are required")

type block struct {
	height float64
	place  func(y float64) Node
}

// Compute lays out cfg. It is deterministic: equal inputs give equal scenes.
// Image nodes whose reference is empty are left out.
func Compute(cfg banner.Config, env Env) (Scene, error) {
	if env.Logos == nil || env.Measure == nil {
		return Scene{}, ErrIncompleteEnv
	}
	if err := banner.Validate(cfg, nil); err != nil {
		return Scene{}, fmt.Errorf("layout: %w", err)
	}
	pal, err := theme.Resolve(cfg.Theme)
	if err != nil {
		return Scene{}, err
	}
	tagPal, err := theme.Resolve(cfg.EffectiveTagTheme())
	if err != nil {
		return Scene{}, err
	}

	canvas := Rect{W: banner.Width, H: banner.Height}
	scene := Scene{Width: banner.Width, Height: banner.Height}
	scene.Nodes = append(scene.Nodes, Node{Kind: KindBackdrop, Rect: canvas, Backdrop: &Backdrop{Color: backdropColor}})

	if cfg.ShowBackground && cfg.BackgroundRef != "" {
		scene.Nodes = append(scene.Nodes, Node{
			Kind:       KindBackground,
			Rect:       canvas,
			Background: &ImageSlot{Ref: cfg.BackgroundRef, Rect: canvas, Fit: FitCover},
		})
	}

	x := ColumnLeftX
	if cfg.TextOnRight() {
		x = ColumnRightX
	}

	if row, ok := logoRow(cfg, env.Logos.LogoRef(cfg), x); ok {
		scene.Nodes = append(scene.Nodes, row)
	}

	blocks := contentBlocks(cfg, env.Measure, pal, tagPal, x)
	total := 0.0
	for i, b := range blocks {
		if i > 0 {
			total += contentGap
		}
		total += b.height
	}

	// The column spreads logo row, content and an empty trailer apart, so
	// the content sits centred in the space under the logo row.
	free := ColumnHeight - logoRowHeight - total
	y := ColumnY + logoRowHeight + math.Max(0, free/2)
	for _, b := range blocks {
		scene.Nodes = append(scene.Nodes, b.place(y))
		y += b.height + contentGap
	}
	return scene, nil
}

func logoRow(cfg banner.Config, logoRef string, x float64) (Node, bool) {
	row := &LogoRow{SeparatorColor: separatorColor}
	rowRect := Rect{X: x, Y: ColumnY, W: ColumnWidth, H: logoRowHeight}
	inset := (logoRowHeight - logoHeight) / 2

	cursor := x
	if logoRef != "" {
		row.Logo = ImageSlot{Ref: logoRef, Rect: Rect{X: x, Y: ColumnY + inset, W: logoWidth, H: logoHeight}, Fit: FitContain}
		cursor += logoWidth + logoGap
	}
	if cfg.ShowMerchantLogo && cfg.MerchantLogoRef != "" {
		sep := Rect{X: cursor, Y: ColumnY, W: separatorWidth, H: logoRowHeight}
		row.Separator = &sep
		cursor += separatorWidth + logoGap
		row.Merchant = &ImageSlot{
			Ref:  cfg.MerchantLogoRef,
			Rect: Rect{X: cursor, Y: ColumnY + inset, W: x + ColumnWidth - cursor, H: logoHeight},
			Fit:  FitContain,
		}
	}
	if row.Logo.Ref == "" && row.Merchant == nil {
		return Node{}, false
	}
	return Node{Kind: KindLogoRow, Rect: rowRect, LogoRow: row}, true
}

func contentBlocks(cfg banner.Config, m Measurer, pal, tagPal theme.Palette, x float64) []block {
	var blocks []block

	if cfg.ShowTag {
		blocks = append(blocks, tagBlock(cfg, m, tagPal, x))
	}

	for i, h := range cfg.Headings {
		if !h.Show || strings.TrimSpace(h.Text) == "" {
			continue
		}
		style := HeadingStyles[i]
		lines := m.Wrap(style, h.Text, ColumnWidth)
		height := float64(len(lines)) * style.LineHeight
		level := i + 1
		blocks = append(blocks, block{height: height, place: func(y float64) Node {
			r := Rect{X: x, Y: y, W: ColumnWidth, H: height}
			return Node{Kind: KindHeading, Rect: r, Heading: &Heading{
				Level: level,
				Text:  TextBlock{Rect: r, Lines: lines, Style: style, Color: Color(pal.Text)},
			}}
		}})
	}

	if cfg.ShowDivider {
		if b, ok := dividerBlock(cfg, pal, x); ok {
			blocks = append(blocks, b)
		}
	}

	if cfg.ShowSubText {
		switch cfg.SubTextKind {
		case banner.SubTextParagraph:
			if strings.TrimSpace(cfg.Paragraph) != "" {
				lines := m.Wrap(ParagraphStyle, cfg.Paragraph, ColumnWidth)
				height := float64(len(lines)) * ParagraphStyle.LineHeight
				blocks = append(blocks, block{height: height, place: func(y float64) Node {
					r := Rect{X: x, Y: y, W: ColumnWidth, H: height}
					return Node{Kind: KindParagraph, Rect: r, Paragraph: &TextBlock{
						Rect: r, Lines: lines, Style: ParagraphStyle, Color: Color(pal.Text),
					}}
				}})
			}
		case banner.SubTextPointers:
			if b, ok := pointerBlock(cfg, m, pal, x); ok {
				blocks = append(blocks, b)
			}
		}
	}
	return blocks
}

func tagBlock(cfg banner.Config, m Measurer, tagPal theme.Palette, x float64) block {
	textW := m.Width(TagStyle, cfg.TagText)
	w := tagPadX*2 + tagIconBox
	if cfg.TagText != "" {
		w += tagGap + textW
	}
	w = math.Min(w, ColumnWidth)
	h := tagPadY*2 + math.Max(tagIconBox, TagStyle.LineHeight)

	iconColor := tagPal.TagText
	if cfg.EffectiveTagTheme() == theme.RazorpayBlue {
		iconColor = theme.BrandBlue
	}

	return block{height: h, place: func(y float64) Node {
		r := Rect{X: x, Y: y, W: w, H: h}
		iconX := x + tagPadX
		iconY := y + (h-tagIconBox)/2
		textX := iconX + tagIconBox + tagGap
		return Node{Kind: KindTag, Rect: r, Tag: &Tag{
			Background: Color(tagPal.TagBackground),
			Radius:     tagRadius,
			Icon: Icon{
				Name:  cfg.TagIcon,
				Rect:  Rect{X: iconX + tagIconPad, Y: iconY + tagIconPad, W: tagIconBox - 2*tagIconPad, H: tagIconBox - 2*tagIconPad},
				Color: Color(iconColor),
			},
			Text: TextBlock{
				Rect:  Rect{X: textX, Y: y + (h-TagStyle.LineHeight)/2, W: math.Max(0, r.Right()-tagPadX-textX), H: TagStyle.LineHeight},
				Lines: []string{cfg.TagText},
				Style: TagStyle,
				Color: Color(tagPal.TagText),
			},
		}}
	}}
}

func dividerBlock(cfg banner.Config, pal theme.Palette, x float64) (block, bool) {
	switch cfg.DividerKind {
	case banner.DividerImage:
		if cfg.DividerImageRef == "" {
			return block{}, false
		}
		return block{height: imageDividerH, place: func(y float64) Node {
			r := Rect{X: x, Y: y, W: imageDividerW, H: imageDividerH}
			return Node{Kind: KindDivider, Rect: r, Divider: &Divider{
				Kind:  banner.DividerImage,
				Image: &ImageSlot{Ref: cfg.DividerImageRef, Rect: r, Fit: FitContain},
			}}
		}}, true
	default:
		return block{height: lineDividerH, place: func(y float64) Node {
			r := Rect{X: x, Y: y, W: lineDividerW, H: lineDividerH}
			return Node{Kind: KindDivider, Rect: r, Divider: &Divider{
				Kind: banner.DividerLine,
				From: Color(pal.Divider.From),
				To:   Color(pal.Divider.To),
			}}
		}}, true
	}
}

func pointerBlock(cfg banner.Config, m Measurer, pal theme.Palette, x float64) (block, bool) {
	iconColor := pal.IconStroke
	if cfg.Theme == theme.RazorpayBlue {
		iconColor = pal.Text
	}

	type row struct {
		index  int
		icon   banner.TagIcon
		lines  []string
		height float64
	}
	textX := pointerIconBox + pointerTextGap
	textW := ColumnWidth - textX

	var rows []row
	total := 0.0
	for i, p := range cfg.Pointers {
		if !p.Show {
			continue
		}
		lines := m.Wrap(PointerStyle, p.Text, textW)
		if len(lines) == 0 {
			lines = []string{""}
		}
		h := math.Max(pointerIconBox, float64(len(lines))*PointerStyle.LineHeight)
		if len(rows) > 0 {
			total += pointerGap
		}
		total += h
		rows = append(rows, row{index: i, icon: p.Icon, lines: lines, height: h})
	}
	if len(rows) == 0 {
		return block{}, false
	}

	return block{height: total, place: func(y float64) Node {
		list := &PointerList{}
		cy := y
		for _, r := range rows {
			list.Items = append(list.Items, PointerItem{
				Index: r.index,
				Icon: Icon{
					Name:  r.icon,
					Rect:  Rect{X: x + pointerIconPad, Y: cy + pointerIconPad, W: pointerIconBox - 2*pointerIconPad, H: pointerIconBox - 2*pointerIconPad},
					Color: Color(iconColor),
				},
				Text: TextBlock{
					Rect:  Rect{X: x + textX, Y: cy, W: textW, H: float64(len(r.lines)) * PointerStyle.LineHeight},
					Lines: r.lines,
					Style: PointerStyle,
					Color: Color(pal.Text),
				},
			})
			cy += r.height + pointerGap
		}
		return Node{Kind: KindPointerList, Rect: Rect{X: x, Y: y, W: ColumnWidth, H: total}, Pointers: list}
	}}, true
}
