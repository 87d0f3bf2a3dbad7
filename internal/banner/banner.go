// Package banner defines the banner configuration: a plain value that is
// replaced on every edit and never mutated in place.
package banner

import (
	"banner-creator/internal/theme"
)

const (
	Width  = 1200
	Height = 628

	MaxTagRunes       = 20
	MaxParagraphRunes = 200
)

type TextSide string

const (
	TextLeft  TextSide = "left"
	TextRight TextSide = "right"
)

type LogoVariant string

const (
	LogoLightBackground LogoVariant = "light-bg"
	LogoDarkBackground  LogoVariant = "dark-bg"
)

type TagIcon string

const (
	IconCheckCircle      TagIcon = "check-circle"
	IconArrowRightCircle TagIcon = "arrow-right-circle"
	IconStar             TagIcon = "star"
	IconZap              TagIcon = "zap"
	IconAward            TagIcon = "award"
)

type DividerKind string

const (
	DividerLine  DividerKind = "line"
	DividerImage DividerKind = "image"
)

type SubTextKind string

const (
	SubTextParagraph SubTextKind = "paragraph"
	SubTextPointers  SubTextKind = "pointers"
)

// ProductSet reports whether a product key is registered.
type ProductSet interface {
	Has(key string) bool
}

type Heading struct {
	Show bool   `json:"show" toml:"show"`
	Text string `json:"text" toml:"text"`
}

type Pointer struct {
	Show bool    `json:"show" toml:"show"`
	Icon TagIcon `json:"icon" toml:"icon"`
	Text string  `json:"text" toml:"text"`
}

type Config struct {
	TextSide TextSide `json:"textSide" toml:"text_side"`

	ShowBackground bool   `json:"showBackground" toml:"show_background"`
	BackgroundRef  string `json:"backgroundRef,omitempty" toml:"background_ref,omitempty"`

	Product          string      `json:"product" toml:"product"`
	Logo             LogoVariant `json:"logo" toml:"logo"`
	ShowMerchantLogo bool        `json:"showMerchantLogo" toml:"show_merchant_logo"`
	MerchantLogoRef  string      `json:"merchantLogoRef,omitempty" toml:"merchant_logo_ref,omitempty"`
	MerchantName     string      `json:"merchantName,omitempty" toml:"merchant_name,omitempty"`

	ShowTag  bool       `json:"showTag" toml:"show_tag"`
	TagText  string     `json:"tagText" toml:"tag_text"`
	TagIcon  TagIcon    `json:"tagIcon" toml:"tag_icon"`
	TagTheme theme.Name `json:"tagTheme,omitempty" toml:"tag_theme,omitempty"`

	Headings [3]Heading `json:"headings" toml:"headings"`

	ShowDivider     bool        `json:"showDivider" toml:"show_divider"`
	DividerKind     DividerKind `json:"dividerKind" toml:"divider_kind"`
	DividerImageRef string      `json:"dividerImageRef,omitempty" toml:"divider_image_ref,omitempty"`

	ShowSubText bool        `json:"showSubText" toml:"show_sub_text"`
	SubTextKind SubTextKind `json:"subTextKind" toml:"sub_text_kind"`
	Paragraph   string      `json:"paragraph" toml:"paragraph"`
	Pointers    [4]Pointer  `json:"pointers" toml:"pointers"`

	Theme theme.Name `json:"theme" toml:"theme"`
}

const loremPointer = "Lorem ipsum dolor sitmet, consectetur adipiscing elit, sed do eiusmod tempor"

// Default returns the configuration a new editing session starts from.
func Default() Config {
	return Config{
		TextSide: TextLeft,

		Product: "razorpay",
		Logo:    LogoLightBackground,

		ShowTag:  true,
		TagText:  "Deep-Dive",
		TagIcon:  IconCheckCircle,
		TagTheme: theme.Default,

		Headings: [3]Heading{
			{Show: true, Text: "Lorem ipsum dolor sit amet, consectetur"},
			{Show: false, Text: "Secondary Heading Text"},
			{Show: false, Text: "Tertiary Heading Text"},
		},

		ShowDivider: true,
		DividerKind: DividerLine,

		ShowSubText: true,
		SubTextKind: SubTextPointers,
		Paragraph:   "Lorem ipsum dolor sitmet, consectetur",
		Pointers: [4]Pointer{
			{Show: true, Icon: IconCheckCircle, Text: loremPointer},
			{Show: true, Icon: IconCheckCircle, Text: loremPointer},
			{Show: false, Icon: IconCheckCircle},
			{Show: false, Icon: IconCheckCircle},
		},

		Theme: theme.Default,
	}
}

func (c Config) TextOnLeft() bool  { return c.TextSide != TextRight }
func (c Config) TextOnRight() bool { return c.TextSide == TextRight }

// EffectiveTagTheme is the tag's own theme, or the banner theme when the tag
// inherits.
func (c Config) EffectiveTagTheme() theme.Name {
	if c.TagTheme == "" {
		return c.Theme
	}
	return c.TagTheme
}

func TagIcons() []TagIcon {
	return []TagIcon{IconCheckCircle, IconArrowRightCircle, IconStar, IconZap, IconAward}
}

func (s TextSide) Valid() bool { return s == TextLeft || s == TextRight }

func (v LogoVariant) Valid() bool {
	return v == LogoLightBackground || v == LogoDarkBackground
}

func (i TagIcon) Valid() bool {
	for _, known := range TagIcons() {
		if i == known {
			return true
		}
	}
	return false
}

func (k DividerKind) Valid() bool { return k == DividerLine || k == DividerImage }

func (k SubTextKind) Valid() bool { return k == SubTextParagraph || k == SubTextPointers }
