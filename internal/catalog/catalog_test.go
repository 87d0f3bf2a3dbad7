package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"banner-creator/internal/banner"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	var keys []string
	for _, p := range c.Products() {
		keys = append(keys, p.Key)
	}
	want := []string{"razorpay", "international", "rize", "razorpayx"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
	if !c.Has(International) {
		t.Fatal("international product missing")
	}
}

func TestLogoRefFollowsVariant(t *testing.T) {
	c := Default()
	cfg := banner.Default()
	p, _ := c.Lookup(cfg.Product)

	if got := c.LogoRef(cfg); got != p.LightBgLogo {
		t.Fatalf("LogoRef = %q, want light variant", got)
	}
	cfg.Logo = banner.LogoDarkBackground
	if got := c.LogoRef(cfg); got != p.DarkBgLogo {
		t.Fatalf("LogoRef = %q, want dark variant", got)
	}
	cfg.Product = "missing"
	if got := c.LogoRef(cfg); got != "" {
		t.Fatalf("LogoRef for unknown product = %q, want empty", got)
	}
}

func TestNewRejectsIncompleteProducts(t *testing.T) {
	if _, err := New([]Product{{Key: "x", LightBgLogo: "a"}}); err == nil {
		t.Fatal("expected error for missing dark logo")
	}
	if _, err := New([]Product{{LightBgLogo: "a", DarkBgLogo: "b"}}); err == nil {
		t.Fatal("expected error for missing key")
	}
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for empty catalog")
	}
}

const extraProduct = `
[[products]]
key = "Acme"
label = "Acme Pay"
light_bg_logo = "https://cdn.example.com/acme-light.svg"
dark_bg_logo = "https://cdn.example.com/acme-dark.svg"
order = 1
`

func TestLoadMergesWithBuiltin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	if err := os.WriteFile(path, []byte(extraProduct), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !c.Has("acme") || !c.Has("razorpay") {
		t.Fatalf("merged catalog = %+v", c.Products())
	}
	ps := c.Products()
	if ps[len(ps)-1].Key != "acme" {
		t.Fatalf("last product = %q, want acme", ps[len(ps)-1].Key)
	}
}

func TestLoadReplace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	if err := os.WriteFile(path, []byte("replace = true\n"+extraProduct), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if c.Has("razorpay") || !c.Has("acme") {
		t.Fatalf("replace catalog = %+v", c.Products())
	}
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.toml")
	if err := os.WriteFile(path, []byte("# empty\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	h := NewHolder(Default())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := Watch(ctx, path, h, nil); err != nil {
		t.Fatalf("Watch error: %v", err)
	}

	if err := os.WriteFile(path, []byte(extraProduct), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for !h.Has("acme") {
		if time.Now().After(deadline) {
			t.Fatal("catalog was not reloaded")
		}
		time.Sleep(20 * time.Millisecond)
	}
}
