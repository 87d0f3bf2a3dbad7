package banner

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var ErrInvalid = errors.New("invalid banner configuration")

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks every closed set and length limit of c. products may be nil,
// in which case the product key is only required to be non-empty.
func Validate(c Config, products ProductSet) error {
	if !c.TextSide.Valid() {
		return invalid("textSide", "must be %q or %q, got %q", TextLeft, TextRight, c.TextSide)
	}
	if c.Product == "" {
		return invalid("product", "is required")
	}
	if products != nil && !products.Has(c.Product) {
		return invalid("product", "unknown product %q", c.Product)
	}
	if !c.Logo.Valid() {
		return invalid("logo", "must be %q or %q, got %q", LogoLightBackground, LogoDarkBackground, c.Logo)
	}
	if n := utf8.RuneCountInString(c.TagText); n > MaxTagRunes {
		return invalid("tagText", "%d characters exceeds the limit of %d", n, MaxTagRunes)
	}
	if !c.TagIcon.Valid() {
		return invalid("tagIcon", "unknown icon %q", c.TagIcon)
	}
	if c.TagTheme != "" && !c.TagTheme.Valid() {
		return invalid("tagTheme", "unknown theme %q", c.TagTheme)
	}
	if !c.DividerKind.Valid() {
		return invalid("dividerKind", "must be %q or %q, got %q", DividerLine, DividerImage, c.DividerKind)
	}
	if !c.SubTextKind.Valid() {
		return invalid("subTextKind", "must be %q or %q, got %q", SubTextParagraph, SubTextPointers, c.SubTextKind)
	}
	if n := utf8.RuneCountInString(c.Paragraph); n > MaxParagraphRunes {
		return invalid("paragraph", "%d characters exceeds the limit of %d", n, MaxParagraphRunes)
	}
	for i, p := range c.Pointers {
		if !p.Icon.Valid() {
			return invalid(fmt.Sprintf("pointers[%d].icon", i), "unknown icon %q", p.Icon)
		}
	}
	if !c.Theme.Valid() {
		return invalid("theme", "unknown theme %q", c.Theme)
	}
	return nil
}
