// Package catalog holds the registry of products a banner can be branded
// with and the logo artwork for each.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/BurntSushi/toml"

	"banner-creator/internal/banner"
)

// International is the product whose backgrounds go through prompt
// enrichment.
const International = "international"

const logoBase = "https://gpgzvawhakdsbakxyxxr.supabase.co/storage/v1/object/public/banner/Logos/"

type Product struct {
	Key         string `json:"key" toml:"key"`
	Label       string `json:"label" toml:"label"`
	LightBgLogo string `json:"lightBgLogo" toml:"light_bg_logo"`
	DarkBgLogo  string `json:"darkBgLogo" toml:"dark_bg_logo"`
	Order       int    `json:"-" toml:"order"`
}

// Logo returns the logo reference for the given variant.
func (p Product) Logo(v banner.LogoVariant) string {
	if v == banner.LogoDarkBackground {
		return p.DarkBgLogo
	}
	return p.LightBgLogo
}

type Catalog struct {
	products map[string]Product
	order    []string
}

func builtin() []Product {
	return []Product{
		{
			Key:         "razorpay",
			Label:       "Razorpay",
			LightBgLogo: logoBase + "Razorpay/Light%20BG.svg",
			DarkBgLogo:  logoBase + "Razorpay/Dark%20BG.svg",
		},
		{
			Key:         International,
			Label:       "International Payments",
			LightBgLogo: logoBase + "Razorpay-International-Payments/Razorpay%20International%20Payments%20light%20BG.svg",
			DarkBgLogo:  logoBase + "Razorpay-International-Payments/Razorpay%20International%20Payments%20dark%20BG.svg",
		},
		{
			Key:         "rize",
			Label:       "Razorpay Rize",
			LightBgLogo: logoBase + "RazorpayRize/RazorpayRize%20light-BG.svg",
			DarkBgLogo:  logoBase + "RazorpayRize/RazorpayRize%20dark-BG.svg",
		},
		{
			Key:         "razorpayx",
			Label:       "RazorpayX",
			LightBgLogo: logoBase + "RazorpayX/Razorpayx%20light%20BG.svg",
			DarkBgLogo:  logoBase + "RazorpayX/Razorpayx%20dark%20BG.svg",
		},
	}
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, _ := New(builtin())
	return c
}

// New builds a catalog from products, keeping their order. Every product
// needs a key and both logo variants.
func New(products []Product) (*Catalog, error) {
	c := &Catalog{products: make(map[string]Product, len(products))}
	for _, p := range products {
		p.Key = strings.ToLower(strings.TrimSpace(p.Key))
		switch {
		case p.Key == "":
			return nil, errors.New("product key is required")
		case p.LightBgLogo == "" || p.DarkBgLogo == "":
			return nil, fmt.Errorf("product %q: both logo variants are required", p.Key)
		}
		if p.Label == "" {
			p.Label = p.Key
		}
		if _, dup := c.products[p.Key]; !dup {
			c.order = append(c.order, p.Key)
		}
		c.products[p.Key] = p
	}
	if len(c.order) == 0 {
		return nil, errors.New("catalog is empty")
	}
	return c, nil
}

type fileFormat struct {
	Replace  bool      `toml:"replace"`
	Products []Product `toml:"products"`
}

// Load reads a TOML catalog file. Products in the file are merged over the
// built-in set unless the file sets replace = true.
//
//	[[products]]
//	key = "acme"
//	label = "Acme Pay"
//	light_bg_logo = "https://..."
//	dark_bg_logo = "https://..."
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var f fileFormat
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	products := f.Products
	if !f.Replace {
		products = append(builtin(), f.Products...)
	}
	sort.SliceStable(products, func(i, j int) bool { return products[i].Order < products[j].Order })

	c, err := New(products)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

func (c *Catalog) Has(key string) bool {
	_, ok := c.products[key]
	return ok
}

func (c *Catalog) Lookup(key string) (Product, bool) {
	p, ok := c.products[key]
	return p, ok
}

// Products lists the catalog in display order.
func (c *Catalog) Products() []Product {
	out := make([]Product, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.products[k])
	}
	return out
}

// LogoRef resolves the primary logo of cfg. It is empty only when the product
// is not registered.
func (c *Catalog) LogoRef(cfg banner.Config) string {
	p, ok := c.products[cfg.Product]
	if !ok {
		return ""
	}
	return p.Logo(cfg.Logo)
}

// Holder shares a catalog that may be swapped at runtime.
type Holder struct {
	v atomic.Pointer[Catalog]
}

func NewHolder(c *Catalog) *Holder {
	h := &Holder{}
	h.v.Store(c)
	return h
}

func (h *Holder) Get() *Catalog { return h.v.Load() }

func (h *Holder) Set(c *Catalog) { h.v.Store(c) }

func (h *Holder) Has(key string) bool { return h.Get().Has(key) }
