package theme

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

type Name string

const (
	Default      Name = "default"
	Light        Name = "light"
	RazorpayBlue Name = "razorpay-blue"
)

// BrandBlue is the accent used for icons when a razorpay-blue theme is in effect.
var BrandBlue = color.NRGBA{R: 0x33, G: 0x95, B: 0xFF, A: 0xFF}

var ErrUnknownTheme = errors.New("unknown theme")

type ConfigError struct {
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("theme %q: %v", e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Gradient is a horizontal two-stop gradient from From at 0% to To at 100%.
type Gradient struct {
	From color.NRGBA
	To   color.NRGBA
}

// At returns the colour at position t in [0,1].
func (g Gradient) At(t float64) color.NRGBA {
	if t <= 0 {
		return g.From
	}
	if t >= 1 {
		return g.To
	}
	lerp := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
	}
	return color.NRGBA{
		R: lerp(g.From.R, g.To.R),
		G: lerp(g.From.G, g.To.G),
		B: lerp(g.From.B, g.To.B),
		A: lerp(g.From.A, g.To.A),
	}
}

type Palette struct {
	Text          color.NRGBA
	TagText       color.NRGBA
	TagBackground color.NRGBA
	Divider       Gradient
	IconStroke    color.NRGBA
}

var palettes = map[Name]Palette{
	Default: {
		Text:          rgb(0x19, 0x28, 0x39),
		TagText:       rgb(0x76, 0x8E, 0xA7),
		TagBackground: rgba(48, 94, 255, 0.09),
		Divider:       fade(rgb(0x19, 0x28, 0x39)),
		IconStroke:    rgb(0x19, 0x28, 0x39),
	},
	Light: {
		Text:          rgb(0xFF, 0xFF, 0xFF),
		TagText:       rgb(0xFF, 0xFF, 0xFF),
		TagBackground: rgba(255, 255, 255, 0.2),
		Divider:       fade(rgb(0xFF, 0xFF, 0xFF)),
		IconStroke:    rgb(0xFF, 0xFF, 0xFF),
	},
	RazorpayBlue: {
		Text:          BrandBlue,
		TagText:       BrandBlue,
		TagBackground: rgba(51, 149, 255, 0.15),
		Divider:       fade(BrandBlue),
		IconStroke:    BrandBlue,
	},
}

// Names lists the supported themes in display order.
func Names() []Name {
	return []Name{Default, Light, RazorpayBlue}
}

func (n Name) Valid() bool {
	_, ok := palettes[n]
	return ok
}

// Resolve maps a theme name to its palette. It is total over Names and fails
// for anything else.
func Resolve(n Name) (Palette, error) {
	p, ok := palettes[n]
	if !ok {
		return Palette{}, &ConfigError{Value: string(n), Err: ErrUnknownTheme}
	}
	return p, nil
}

// ParseHex parses "#RGB" or "#RRGGBB" into an opaque colour.
func ParseHex(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid hex colour %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	return rgb(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

// Hex formats c as #RRGGBB, or #RRGGBBAA when it is not opaque.
func Hex(c color.NRGBA) string {
	if c.A == 0xFF {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

func rgb(r, g, b uint8) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: 0xFF}
}

func rgba(r, g, b uint8, alpha float64) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: uint8(alpha*255 + 0.5)}
}

func fade(c color.NRGBA) Gradient {
	to := c
	to.A = 0
	return Gradient{From: c, To: to}
}
