package main

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"

	"banner-creator/internal/banner"
	"banner-creator/internal/config"
)

func offlineConfig() (config.Config, error) {
	return config.Config{
		MaxHistory:      5,
		ImageAllowHosts: []string{"logos.invalid"},
	}, nil
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(offlineConfig)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultPrintsDecodableTOML(t *testing.T) {
	out, err := run(t, "default")
	if err != nil {
		t.Fatal(err)
	}
	var cfg banner.Config
	if _, err := toml.Decode(out, &cfg); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	def := banner.Default()
	if cfg.Product != def.Product || cfg.TagText != def.TagText || cfg.Theme != def.Theme {
		t.Fatalf("decoded %+v, want defaults", cfg)
	}
}

func TestReadBannerFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"json", "b.json", `{"textSide":"right","tagText":"Weekend"}`},
		{"toml", "b.toml", "text_side = \"right\"\ntag_text = \"Weekend\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := readBanner(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatal(err)
			}
			if !cfg.TextOnRight() || cfg.TagText != "Weekend" {
				t.Fatalf("cfg = %+v", cfg)
			}
			if cfg.Product != banner.Default().Product {
				t.Fatal("unset fields should keep their defaults")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	good := writeFile(t, "good.json", `{"tagText":"Hello"}`)
	bad := writeFile(t, "bad.json", `{"tagText":"`+strings.Repeat("x", banner.MaxTagRunes+1)+`"}`)

	out, err := run(t, "validate", good)
	if err != nil {
		t.Fatalf("validate good: %v", err)
	}
	if !strings.Contains(out, "ok") {
		t.Fatalf("output = %q", out)
	}

	out, err = run(t, "validate", good, bad)
	if err == nil {
		t.Fatal("expected failure for oversized tag")
	}
	if !strings.Contains(out, "tagText") {
		t.Fatalf("output = %q", out)
	}
}

func TestScene(t *testing.T) {
	path := writeFile(t, "b.json", `{"textSide":"right"}`)
	out, err := run(t, "scene", path)
	if err != nil {
		t.Fatal(err)
	}
	var scene struct {
		Width  int               `json:"width"`
		Height int               `json:"height"`
		Nodes  []json.RawMessage `json:"nodes"`
	}
	if err := json.Unmarshal([]byte(out), &scene); err != nil {
		t.Fatal(err)
	}
	if scene.Width != banner.Width || scene.Height != banner.Height || len(scene.Nodes) == 0 {
		t.Fatalf("scene = %dx%d with %d nodes", scene.Width, scene.Height, len(scene.Nodes))
	}
}

func TestRender(t *testing.T) {
	path := writeFile(t, "b.toml", "tag_text = \"Launch\"\n")

	t.Run("export", func(t *testing.T) {
		dst := filepath.Join(t.TempDir(), "out.png")
		if _, err := run(t, "render", path, "-o", dst); err != nil {
			t.Fatal(err)
		}
		f, err := os.Open(dst)
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		img, err := png.Decode(f)
		if err != nil {
			t.Fatal(err)
		}
		if b := img.Bounds(); b.Dx() != banner.Width || b.Dy() != banner.Height {
			t.Fatalf("size = %v", b)
		}
	})

	t.Run("fit to stdout", func(t *testing.T) {
		out, err := run(t, "render", path, "-o", "-", "--max-width", "600")
		if err != nil {
			t.Fatal(err)
		}
		img, err := png.Decode(strings.NewReader(out))
		if err != nil {
			t.Fatal(err)
		}
		if b := img.Bounds(); b.Dx() != 600 || b.Dy() != 314 {
			t.Fatalf("size = %v", b)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		bad := writeFile(t, "bad.toml", "product = \"nope\"\n")
		if _, err := run(t, "render", bad, "-o", filepath.Join(t.TempDir(), "x.png")); err == nil {
			t.Fatal("expected error for unknown product")
		}
	})
}

func TestProducts(t *testing.T) {
	out, err := run(t, "products")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "international") || !strings.HasPrefix(out, "KEY") {
		t.Fatalf("output = %q", out)
	}
}
