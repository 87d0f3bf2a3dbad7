package editor

import "banner-creator/internal/banner"

// Slot names an image-bearing element that accepts uploads.
type Slot string

const (
	SlotBackground   Slot = "background"
	SlotMerchantLogo Slot = "merchant-logo"
	SlotDividerImage Slot = "divider-image"
)

func Slots() []Slot { return []Slot{SlotBackground, SlotMerchantLogo, SlotDividerImage} }

func (s Slot) Valid() bool {
	switch s {
	case SlotBackground, SlotMerchantLogo, SlotDividerImage:
		return true
	}
	return false
}

func (s Slot) fill(ref string) banner.Patch {
	on := true
	var p banner.Patch
	switch s {
	case SlotBackground:
		p.BackgroundRef, p.ShowBackground = &ref, &on
	case SlotMerchantLogo:
		p.MerchantLogoRef, p.ShowMerchantLogo = &ref, &on
	case SlotDividerImage:
		kind := banner.DividerImage
		p.DividerImageRef, p.ShowDivider, p.DividerKind = &ref, &on, &kind
	}
	return p
}

func (s Slot) clear() banner.Patch {
	empty := ""
	var p banner.Patch
	switch s {
	case SlotBackground:
		p.BackgroundRef = &empty
	case SlotMerchantLogo:
		p.MerchantLogoRef = &empty
	case SlotDividerImage:
		p.DividerImageRef = &empty
	}
	return p
}
