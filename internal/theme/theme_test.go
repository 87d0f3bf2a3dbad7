package theme

import (
	"errors"
	"image/color"
	"testing"
)

func TestResolveKnownThemes(t *testing.T) {
	tests := []struct {
		name    Name
		text    string
		tagText string
	}{
		{Default, "#192839", "#768EA7"},
		{Light, "#FFFFFF", "#FFFFFF"},
		{RazorpayBlue, "#3395FF", "#3395FF"},
	}
	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			p, err := Resolve(tt.name)
			if err != nil {
				t.Fatalf("Resolve(%q) error: %v", tt.name, err)
			}
			if got := Hex(p.Text); got != tt.text {
				t.Errorf("Text = %q, want %q", got, tt.text)
			}
			if got := Hex(p.TagText); got != tt.tagText {
				t.Errorf("TagText = %q, want %q", got, tt.tagText)
			}
			if p.Divider.From != p.Text {
				t.Errorf("Divider.From = %v, want text colour %v", p.Divider.From, p.Text)
			}
			if p.Divider.To.A != 0 {
				t.Errorf("Divider.To alpha = %d, want 0", p.Divider.To.A)
			}
		})
	}
}

func TestResolveUnknownTheme(t *testing.T) {
	_, err := Resolve("sepia")
	if err == nil {
		t.Fatal("expected error for unknown theme")
	}
	if !errors.Is(err, ErrUnknownTheme) {
		t.Fatalf("error = %v, want ErrUnknownTheme", err)
	}
	var ce *ConfigError
	if !errors.As(err, &ce) || ce.Value != "sepia" {
		t.Fatalf("error = %#v, want *ConfigError for sepia", err)
	}
}

func TestTagBackgroundAlpha(t *testing.T) {
	p, _ := Resolve(Default)
	if p.TagBackground.A != 23 {
		t.Fatalf("default tag bg alpha = %d, want 23", p.TagBackground.A)
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#3395FF", color.NRGBA{0x33, 0x95, 0xFF, 0xFF}, false},
		{"c0c0c0", color.NRGBA{0xC0, 0xC0, 0xC0, 0xFF}, false},
		{"#fff", color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}, false},
		{"#12345", color.NRGBA{}, true},
		{"#zzzzzz", color.NRGBA{}, true},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseHex(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseHex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestGradientAt(t *testing.T) {
	g := Gradient{From: color.NRGBA{0, 0, 0, 255}, To: color.NRGBA{0, 0, 0, 0}}
	if got := g.At(0.5).A; got != 128 {
		t.Fatalf("At(0.5).A = %d, want 128", got)
	}
	if got := g.At(-1); got != g.From {
		t.Fatalf("At(-1) = %v, want From", got)
	}
	if got := g.At(2); got != g.To {
		t.Fatalf("At(2) = %v, want To", got)
	}
}
