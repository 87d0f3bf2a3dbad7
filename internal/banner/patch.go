package banner

import (
	"fmt"
	"strconv"
	"strings"

	"banner-creator/internal/theme"
)

type HeadingPatch struct {
	Show *bool   `json:"show,omitempty"`
	Text *string `json:"text,omitempty"`
}

type PointerPatch struct {
	Show *bool    `json:"show,omitempty"`
	Icon *TagIcon `json:"icon,omitempty"`
	Text *string  `json:"text,omitempty"`
}

// Patch is a sparse edit. Nil fields are left unchanged.
type Patch struct {
	TextSide *TextSide `json:"textSide,omitempty"`

	ShowBackground *bool   `json:"showBackground,omitempty"`
	BackgroundRef  *string `json:"backgroundRef,omitempty"`

	Product          *string      `json:"product,omitempty"`
	Logo             *LogoVariant `json:"logo,omitempty"`
	ShowMerchantLogo *bool        `json:"showMerchantLogo,omitempty"`
	MerchantLogoRef  *string      `json:"merchantLogoRef,omitempty"`
	MerchantName     *string      `json:"merchantName,omitempty"`

	ShowTag  *bool       `json:"showTag,omitempty"`
	TagText  *string     `json:"tagText,omitempty"`
	TagIcon  *TagIcon    `json:"tagIcon,omitempty"`
	TagTheme *theme.Name `json:"tagTheme,omitempty"`

	Headings [3]*HeadingPatch `json:"headings,omitempty"`

	ShowDivider     *bool        `json:"showDivider,omitempty"`
	DividerKind     *DividerKind `json:"dividerKind,omitempty"`
	DividerImageRef *string      `json:"dividerImageRef,omitempty"`

	ShowSubText *bool            `json:"showSubText,omitempty"`
	SubTextKind *SubTextKind     `json:"subTextKind,omitempty"`
	Paragraph   *string          `json:"paragraph,omitempty"`
	Pointers    [4]*PointerPatch `json:"pointers,omitempty"`

	Theme *theme.Name `json:"theme,omitempty"`
}

// Apply returns c with p folded in. The result is validated as a whole; on
// failure c is returned unchanged together with a *ValidationError.
//
// Switching product resets the logo to the light-background variant unless
// the patch picks a variant itself. Toggling the divider without naming a
// kind resets it to a line.
func (p Patch) Apply(c Config, products ProductSet) (Config, error) {
	next := c

	set(&next.TextSide, p.TextSide)
	set(&next.ShowBackground, p.ShowBackground)
	set(&next.BackgroundRef, p.BackgroundRef)

	if p.Product != nil {
		if product := strings.TrimSpace(*p.Product); product != c.Product {
			next.Product = product
			next.Logo = LogoLightBackground
		}
	}
	set(&next.Logo, p.Logo)
	set(&next.ShowMerchantLogo, p.ShowMerchantLogo)
	set(&next.MerchantLogoRef, p.MerchantLogoRef)
	set(&next.MerchantName, p.MerchantName)

	set(&next.ShowTag, p.ShowTag)
	set(&next.TagText, p.TagText)
	set(&next.TagIcon, p.TagIcon)
	set(&next.TagTheme, p.TagTheme)

	for i, hp := range p.Headings {
		if hp == nil {
			continue
		}
		set(&next.Headings[i].Show, hp.Show)
		set(&next.Headings[i].Text, hp.Text)
	}

	if p.ShowDivider != nil && *p.ShowDivider != c.ShowDivider {
		next.ShowDivider = *p.ShowDivider
		next.DividerKind = DividerLine
	}
	set(&next.DividerKind, p.DividerKind)
	set(&next.DividerImageRef, p.DividerImageRef)

	set(&next.ShowSubText, p.ShowSubText)
	set(&next.SubTextKind, p.SubTextKind)
	set(&next.Paragraph, p.Paragraph)
	for i, pp := range p.Pointers {
		if pp == nil {
			continue
		}
		set(&next.Pointers[i].Show, pp.Show)
		set(&next.Pointers[i].Icon, pp.Icon)
		set(&next.Pointers[i].Text, pp.Text)
	}

	set(&next.Theme, p.Theme)

	if err := Validate(next, products); err != nil {
		return c, err
	}
	return next, nil
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func ptr[T any](v T) *T { return &v }

// ParseField builds a single-field patch from a dotted field name and a
// string value, for text surfaces such as chat commands and flags.
//
//	side left|right          theme <name>        product <key>
//	logo light-bg|dark-bg    bg.show <bool>      merchant <name>
//	merchant.show <bool>     tag <text>          tag.icon <icon>
//	tag.theme <name|inherit> tag.show <bool>     h1..h3 <text>
//	h1.show <bool>           divider line|image|off
//	subtext paragraph|pointers|off               paragraph <text>
//	p1..p4 <text>            p1.icon <icon>      p1.show <bool>
func ParseField(name, value string) (Patch, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	value = strings.TrimSpace(value)
	field, sub, _ := strings.Cut(name, ".")

	var p Patch
	switch field {
	case "side":
		p.TextSide = ptr(TextSide(strings.ToLower(value)))
	case "theme":
		p.Theme = ptr(theme.Name(strings.ToLower(value)))
	case "product":
		p.Product = ptr(strings.ToLower(value))
	case "logo":
		p.Logo = ptr(LogoVariant(strings.ToLower(value)))
	case "bg":
		if sub != "show" {
			return Patch{}, unknownField(name)
		}
		b, err := parseBool(name, value)
		if err != nil {
			return Patch{}, err
		}
		p.ShowBackground = &b
	case "merchant":
		switch sub {
		case "":
			p.MerchantName = &value
		case "show":
			b, err := parseBool(name, value)
			if err != nil {
				return Patch{}, err
			}
			p.ShowMerchantLogo = &b
		default:
			return Patch{}, unknownField(name)
		}
	case "tag":
		switch sub {
		case "":
			p.TagText = &value
		case "icon":
			p.TagIcon = ptr(TagIcon(strings.ToLower(value)))
		case "theme":
			v := strings.ToLower(value)
			if v == "inherit" {
				v = ""
			}
			p.TagTheme = ptr(theme.Name(v))
		case "show":
			b, err := parseBool(name, value)
			if err != nil {
				return Patch{}, err
			}
			p.ShowTag = &b
		default:
			return Patch{}, unknownField(name)
		}
	case "h1", "h2", "h3":
		idx := int(field[1] - '1')
		hp := &HeadingPatch{}
		switch sub {
		case "":
			hp.Text = &value
		case "show":
			b, err := parseBool(name, value)
			if err != nil {
				return Patch{}, err
			}
			hp.Show = &b
		default:
			return Patch{}, unknownField(name)
		}
		p.Headings[idx] = hp
	case "divider":
		switch strings.ToLower(value) {
		case "off", "none", "false":
			p.ShowDivider = ptr(false)
		case string(DividerLine), string(DividerImage):
			p.ShowDivider = ptr(true)
			p.DividerKind = ptr(DividerKind(strings.ToLower(value)))
		default:
			return Patch{}, &ValidationError{Field: name, Reason: fmt.Sprintf("want line, image or off, got %q", value)}
		}
	case "subtext":
		switch strings.ToLower(value) {
		case "off", "none", "false":
			p.ShowSubText = ptr(false)
		case string(SubTextParagraph), string(SubTextPointers):
			p.ShowSubText = ptr(true)
			p.SubTextKind = ptr(SubTextKind(strings.ToLower(value)))
		default:
			return Patch{}, &ValidationError{Field: name, Reason: fmt.Sprintf("want paragraph, pointers or off, got %q", value)}
		}
	case "paragraph":
		p.Paragraph = &value
	case "p1", "p2", "p3", "p4":
		idx := int(field[1] - '1')
		pp := &PointerPatch{}
		switch sub {
		case "":
			pp.Text = &value
		case "icon":
			pp.Icon = ptr(TagIcon(strings.ToLower(value)))
		case "show":
			b, err := parseBool(name, value)
			if err != nil {
				return Patch{}, err
			}
			pp.Show = &b
		default:
			return Patch{}, unknownField(name)
		}
		p.Pointers[idx] = pp
	default:
		return Patch{}, unknownField(name)
	}
	return p, nil
}

func unknownField(name string) error {
	return &ValidationError{Field: name, Reason: "unknown field"}
}

func parseBool(field, value string) (bool, error) {
	switch strings.ToLower(value) {
	case "on", "yes", "show":
		return true, nil
	case "off", "no", "hide":
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, &ValidationError{Field: field, Reason: fmt.Sprintf("want a boolean, got %q", value)}
	}
	return b, nil
}
