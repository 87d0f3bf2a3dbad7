package layout

import (
	"image/color"

	"banner-creator/internal/banner"
	"banner-creator/internal/fonts"
	"banner-creator/internal/theme"
)

type Kind string

const (
	KindBackdrop    Kind = "backdrop"
	KindBackground  Kind = "background"
	KindLogoRow     Kind = "logo-row"
	KindTag         Kind = "tag"
	KindHeading     Kind = "heading"
	KindDivider     Kind = "divider"
	KindParagraph   Kind = "paragraph"
	KindPointerList Kind = "pointer-list"
)

// Rect is an axis-aligned box in canvas units.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Color is an NRGBA colour that serializes as hex.
type Color color.NRGBA

func (c Color) RGBA() (r, g, b, a uint32) { return color.NRGBA(c).RGBA() }

func (c Color) MarshalText() ([]byte, error) {
	return []byte(theme.Hex(color.NRGBA(c))), nil
}

type Fit string

const (
	FitCover   Fit = "cover"
	FitContain Fit = "contain"
)

// ImageSlot places an opaque image reference inside a box.
type ImageSlot struct {
	Ref  string `json:"ref"`
	Rect Rect   `json:"rect"`
	Fit  Fit    `json:"fit"`
}

type TextBlock struct {
	Rect  Rect        `json:"rect"`
	Lines []string    `json:"lines"`
	Style fonts.Style `json:"style"`
	Color Color       `json:"color"`
}

type Icon struct {
	Name  banner.TagIcon `json:"name"`
	Rect  Rect           `json:"rect"`
	Color Color          `json:"color"`
}

type Backdrop struct {
	Color Color `json:"color"`
}

type LogoRow struct {
	Logo           ImageSlot  `json:"logo"`
	Separator      *Rect      `json:"separator,omitempty"`
	SeparatorColor Color      `json:"separatorColor"`
	Merchant       *ImageSlot `json:"merchant,omitempty"`
}

type Tag struct {
	Background Color     `json:"background"`
	Radius     float64   `json:"radius"`
	Icon       Icon      `json:"icon"`
	Text       TextBlock `json:"text"`
}

type Heading struct {
	Level int       `json:"level"`
	Text  TextBlock `json:"text"`
}

// Divider is either a horizontal gradient rule from From to To, or an image.
type Divider struct {
	Kind  banner.DividerKind `json:"kind"`
	From  Color              `json:"from"`
	To    Color              `json:"to"`
	Image *ImageSlot         `json:"image,omitempty"`
}

type PointerItem struct {
	Index int       `json:"index"`
	Icon  Icon      `json:"icon"`
	Text  TextBlock `json:"text"`
}

type PointerList struct {
	Items []PointerItem `json:"items"`
}

// Node is one drawable element. Exactly one payload matching Kind is set.
type Node struct {
	Kind Kind `json:"kind"`
	Rect Rect `json:"rect"`

	Backdrop   *Backdrop    `json:"backdrop,omitempty"`
	Background *ImageSlot   `json:"background,omitempty"`
	LogoRow    *LogoRow     `json:"logoRow,omitempty"`
	Tag        *Tag         `json:"tag,omitempty"`
	Heading    *Heading     `json:"heading,omitempty"`
	Divider    *Divider     `json:"divider,omitempty"`
	Paragraph  *TextBlock   `json:"paragraph,omitempty"`
	Pointers   *PointerList `json:"pointers,omitempty"`
}

// Scene is the ordered, absolutely positioned content of one banner. Nodes
// are listed back to front.
type Scene struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Nodes  []Node `json:"nodes"`
}

// Find returns the first node of kind k.
func (s Scene) Find(k Kind) (Node, bool) {
	for _, n := range s.Nodes {
		if n.Kind == k {
			return n, true
		}
	}
	return Node{}, false
}

// Refs lists the distinct image references the scene draws, in order.
func (s Scene) Refs() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(ref string) {
		if ref == "" || seen[ref] {
			return
		}
		seen[ref] = true
		out = append(out, ref)
	}
	for _, n := range s.Nodes {
		switch {
		case n.Background != nil:
			add(n.Background.Ref)
		case n.LogoRow != nil:
			add(n.LogoRow.Logo.Ref)
			if n.LogoRow.Merchant != nil {
				add(n.LogoRow.Merchant.Ref)
			}
		case n.Divider != nil && n.Divider.Image != nil:
			add(n.Divider.Image.Ref)
		}
	}
	return out
}
