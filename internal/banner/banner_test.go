package banner

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"banner-creator/internal/theme"
)

type productSet map[string]bool

func (s productSet) Has(key string) bool { return s[key] }

var products = productSet{"razorpay": true, "international": true, "rize": true, "razorpayx": true}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg, products); err != nil {
		t.Fatalf("Validate(Default()) = %v", err)
	}
	if !cfg.TextOnLeft() || cfg.TextOnRight() {
		t.Fatalf("default text side = %q, want left", cfg.TextSide)
	}
	if cfg.SubTextKind != SubTextPointers || !cfg.Pointers[0].Show || !cfg.Pointers[1].Show || cfg.Pointers[2].Show {
		t.Fatalf("unexpected default pointers: %+v", cfg.Pointers)
	}
}

func TestApplyReturnsNewValue(t *testing.T) {
	orig := Default()
	next, err := Patch{Headings: [3]*HeadingPatch{{Text: ptr("Hello")}}}.Apply(orig, products)
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if next.Headings[0].Text != "Hello" {
		t.Fatalf("h1 = %q, want Hello", next.Headings[0].Text)
	}
	if orig.Headings[0].Text == "Hello" {
		t.Fatal("Apply mutated its input")
	}
}

func TestApplyLengthLimits(t *testing.T) {
	tests := []struct {
		name  string
		patch Patch
		field string
	}{
		{"tag", Patch{TagText: ptr(strings.Repeat("x", MaxTagRunes+1))}, "tagText"},
		{"paragraph", Patch{Paragraph: ptr(strings.Repeat("é", MaxParagraphRunes+1))}, "paragraph"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := Default()
			got, err := tt.patch.Apply(orig, products)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
			if got != orig {
				t.Error("prior configuration not returned on rejection")
			}
		})
	}

	ok := Patch{TagText: ptr(strings.Repeat("x", MaxTagRunes))}
	if _, err := ok.Apply(Default(), products); err != nil {
		t.Fatalf("tag at limit rejected: %v", err)
	}
}

func TestApplyProductResetsLogo(t *testing.T) {
	cfg := Default()
	cfg.Logo = LogoDarkBackground

	next, err := Patch{Product: ptr("rize")}.Apply(cfg, products)
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if next.Logo != LogoLightBackground {
		t.Fatalf("logo = %q, want light-bg after product change", next.Logo)
	}

	next, err = Patch{Product: ptr("rize"), Logo: ptr(LogoDarkBackground)}.Apply(cfg, products)
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if next.Logo != LogoDarkBackground {
		t.Fatalf("logo = %q, want explicit dark-bg", next.Logo)
	}

	if _, err := (Patch{Product: ptr("acme")}).Apply(cfg, products); err == nil {
		t.Fatal("expected unknown product to be rejected")
	}

	next, err = Patch{Product: ptr("  " + cfg.Product + " ")}.Apply(cfg, products)
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if next.Logo != LogoDarkBackground || next.Product != cfg.Product {
		t.Fatalf("padded same product changed config: product %q logo %q", next.Product, next.Logo)
	}
}

func TestApplyDividerToggleResetsKind(t *testing.T) {
	cfg := Default()
	cfg.DividerKind = DividerImage

	off, err := Patch{ShowDivider: ptr(false)}.Apply(cfg, products)
	if err != nil {
		t.Fatal(err)
	}
	if off.DividerKind != DividerLine {
		t.Fatalf("kind = %q, want line after toggle", off.DividerKind)
	}

	img, err := Patch{DividerKind: ptr(DividerImage)}.Apply(off, products)
	if err != nil {
		t.Fatal(err)
	}
	if img.DividerKind != DividerImage || img.ShowDivider {
		t.Fatalf("unexpected divider state: show=%v kind=%q", img.ShowDivider, img.DividerKind)
	}
}

func TestEffectiveTagTheme(t *testing.T) {
	cfg := Default()
	cfg.Theme = theme.Light
	cfg.TagTheme = ""
	if got := cfg.EffectiveTagTheme(); got != theme.Light {
		t.Fatalf("inherited tag theme = %q, want light", got)
	}
	cfg.TagTheme = theme.RazorpayBlue
	if got := cfg.EffectiveTagTheme(); got != theme.RazorpayBlue {
		t.Fatalf("tag theme = %q, want razorpay-blue", got)
	}
}

func TestValidateRejectsUnknownEnums(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"side", func(c *Config) { c.TextSide = "center" }, "textSide"},
		{"theme", func(c *Config) { c.Theme = "neon" }, "theme"},
		{"tag theme", func(c *Config) { c.TagTheme = "neon" }, "tagTheme"},
		{"tag icon", func(c *Config) { c.TagIcon = "heart" }, "tagIcon"},
		{"pointer icon", func(c *Config) { c.Pointers[3].Icon = "" }, "pointers[3].icon"},
		{"divider", func(c *Config) { c.DividerKind = "dots" }, "dividerKind"},
		{"subtext", func(c *Config) { c.SubTextKind = "both" }, "subTextKind"},
		{"logo", func(c *Config) { c.Logo = "custom" }, "logo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := Validate(cfg, products)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
			if !errors.Is(err, ErrInvalid) {
				t.Error("error does not match ErrInvalid")
			}
		})
	}
}

func TestParseField(t *testing.T) {
	tests := []struct {
		name, value string
		check       func(t *testing.T, cfg Config)
	}{
		{"side", "right", func(t *testing.T, cfg Config) {
			if !cfg.TextOnRight() {
				t.Errorf("TextSide = %q, want right", cfg.TextSide)
			}
		}},
		{"h2", "Second", func(t *testing.T, cfg Config) {
			if cfg.Headings[1].Text != "Second" {
				t.Errorf("h2 = %q, want Second", cfg.Headings[1].Text)
			}
		}},
		{"h3.show", "on", func(t *testing.T, cfg Config) {
			if !cfg.Headings[2].Show {
				t.Error("h3 not shown")
			}
		}},
		{"p3.icon", "zap", func(t *testing.T, cfg Config) {
			if cfg.Pointers[2].Icon != IconZap {
				t.Errorf("p3 icon = %q, want zap", cfg.Pointers[2].Icon)
			}
		}},
		{"divider", "image", func(t *testing.T, cfg Config) {
			if !cfg.ShowDivider || cfg.DividerKind != DividerImage {
				t.Errorf("divider = %v/%q, want shown image", cfg.ShowDivider, cfg.DividerKind)
			}
		}},
		{"subtext", "paragraph", func(t *testing.T, cfg Config) {
			if cfg.SubTextKind != SubTextParagraph {
				t.Errorf("subtext = %q, want paragraph", cfg.SubTextKind)
			}
		}},
		{"tag.theme", "inherit", func(t *testing.T, cfg Config) {
			if cfg.TagTheme != "" {
				t.Errorf("tag theme = %q, want inherit", cfg.TagTheme)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseField(tt.name, tt.value)
			if err != nil {
				t.Fatalf("ParseField(%q, %q) error: %v", tt.name, tt.value, err)
			}
			cfg, err := p.Apply(Default(), products)
			if err != nil {
				t.Fatalf("Apply error: %v", err)
			}
			tt.check(t, cfg)
		})
	}

	for _, bad := range [][2]string{{"colour", "red"}, {"h1.size", "3"}, {"divider", "dots"}, {"p1.show", "maybe"}} {
		if _, err := ParseField(bad[0], bad[1]); err == nil {
			t.Errorf("ParseField(%q, %q) expected error", bad[0], bad[1])
		}
	}
}

func TestPatchJSON(t *testing.T) {
	var p Patch
	body := `{"theme":"light","pointers":[null,{"show":false}],"headings":[{"text":"Hi"}]}`
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	cfg, err := p.Apply(Default(), products)
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if cfg.Theme != theme.Light || cfg.Pointers[1].Show || !cfg.Pointers[0].Show || cfg.Headings[0].Text != "Hi" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if (Patch{}).Empty() != true || p.Empty() {
		t.Fatal("Empty() mismatch")
	}
}
