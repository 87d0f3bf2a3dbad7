// Package imageref turns the opaque image references stored in a banner
// (data URIs, web URLs, local paths) into decoded images.
package imageref

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/sync/errgroup"
	_ "golang.org/x/image/webp"
)

var (
	ErrUnsupportedRef = errors.New("unsupported image reference")
	ErrHostNotAllowed = errors.New("image host not allowed")
	ErrTooLarge       = errors.New("image too large")
)

const (
	defaultMaxBytes = 20 << 20
	maxCacheEntries = 64
	// svgRasterHeight is the pixel height vector logos are rasterized at
	// before being fitted into their boxes.
	svgRasterHeight = 200
	// maxSVGAspect bounds how much wider than tall a vector image may be.
	maxSVGAspect = 32
)

// MaxPixels is the largest decoded image accepted, in pixels.
const MaxPixels = 40_000_000

type Options struct {
	// HTTPClient fetches http(s) references. Nil disables remote images.
	HTTPClient *retryablehttp.Client
	// AllowHosts restricts remote fetches to hosts matching one of these
	// glob patterns. Empty allows every host.
	AllowHosts []string
	// AllowFiles enables file:// and bare path references, resolved
	// against BaseDir.
	AllowFiles bool
	BaseDir    string
	MaxBytes   int64
	Logger     *slog.Logger
}

// Resolver loads and decodes image references, caching decoded images. It
// is safe for concurrent use.
type Resolver struct {
	client     *retryablehttp.Client
	allowHosts []string
	allowFiles bool
	baseDir    string
	maxBytes   int64
	logger     *slog.Logger
	loaders    map[string]loader

	mu    sync.Mutex
	cache map[[sha256.Size]byte]image.Image
}

type loader func(ctx context.Context, ref string) ([]byte, string, error)

func New(opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}

	r := &Resolver{
		client:     opts.HTTPClient,
		allowHosts: opts.AllowHosts,
		allowFiles: opts.AllowFiles,
		baseDir:    opts.BaseDir,
		maxBytes:   maxBytes,
		logger:     logger,
		cache:      make(map[[sha256.Size]byte]image.Image),
	}
	r.loaders = map[string]loader{
		"data":  r.loadData,
		"http":  r.loadRemote,
		"https": r.loadRemote,
		"file":  r.loadFile,
		"":      r.loadFile,
	}
	return r
}

// Resolve loads and decodes ref.
func (r *Resolver) Resolve(ctx context.Context, ref string) (image.Image, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrUnsupportedRef)
	}

	key := sha256.Sum256([]byte(ref))
	r.mu.Lock()
	if img, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return img, nil
	}
	r.mu.Unlock()

	load, ok := r.loaders[scheme(ref)]
	if !ok {
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedRef, scheme(ref))
	}
	data, mimeType, err := load(ctx, ref)
	if err != nil {
		return nil, err
	}
	img, err := Decode(data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", describe(ref), err)
	}

	r.mu.Lock()
	if len(r.cache) >= maxCacheEntries {
		clear(r.cache)
	}
	r.cache[key] = img
	r.mu.Unlock()
	return img, nil
}

// ResolveAll loads refs concurrently. References that fail are logged and
// left out of the result.
func (r *Resolver) ResolveAll(ctx context.Context, refs []string) map[string]image.Image {
	out := make(map[string]image.Image, len(refs))
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(4)
	for _, ref := range refs {
		eg.Go(func() error {
			img, err := r.Resolve(egCtx, ref)
			if err != nil {
				r.logger.Warn("image reference skipped", "ref", describe(ref), "err", err)
				return nil
			}
			mu.Lock()
			out[ref] = img
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()
	return out
}

// Decode decodes raster formats registered with image plus SVG. Images
// whose declared size exceeds MaxPixels are rejected before any pixel
// buffer is allocated.
func Decode(data []byte, mimeType string) (image.Image, error) {
	if isSVG(cleanMime(mimeType), data) || isSVG("text/xml", data) {
		return decodeSVG(data)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d pixels", ErrTooLarge, cfg.Width, cfg.Height)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return img, nil
}

func decodeSVG(data []byte) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.WarnErrorMode)
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	vw, vh := icon.ViewBox.W, icon.ViewBox.H
	if math.IsNaN(vw) || math.IsNaN(vh) || math.IsInf(vw, 0) || math.IsInf(vh, 0) {
		return nil, fmt.Errorf("%w: svg viewBox %vx%v", ErrTooLarge, vw, vh)
	}
	if vw <= 0 || vh <= 0 {
		vw, vh = svgRasterHeight, svgRasterHeight
	}
	if vw/vh > maxSVGAspect {
		return nil, fmt.Errorf("%w: svg aspect %.0f:1", ErrTooLarge, vw/vh)
	}
	h := svgRasterHeight
	w := int(vw*float64(h)/vh + 0.5)
	if w < 1 {
		w = 1
	}

	icon.SetTarget(0, 0, float64(w), float64(h))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1)
	return img, nil
}

func (r *Resolver) loadData(_ context.Context, ref string) ([]byte, string, error) {
	mimeType, data, err := ParseDataURI(ref)
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > r.maxBytes {
		return nil, "", ErrTooLarge
	}
	return data, mimeType, nil
}

func (r *Resolver) loadRemote(ctx context.Context, ref string) ([]byte, string, error) {
	if r.client == nil {
		return nil, "", fmt.Errorf("%w: remote images disabled", ErrUnsupportedRef)
	}
	u, err := url.Parse(ref)
	if err != nil {
		return nil, "", fmt.Errorf("parse url: %w", err)
	}
	if !r.hostAllowed(u.Hostname()) {
		return nil, "", fmt.Errorf("%w: %s", ErrHostNotAllowed, u.Hostname())
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch %s: %s", ref, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", ref, err)
	}
	if int64(len(data)) > r.maxBytes {
		return nil, "", ErrTooLarge
	}
	return data, SniffMime(data, resp.Header.Get("content-type")), nil
}

func (r *Resolver) loadFile(_ context.Context, ref string) ([]byte, string, error) {
	if !r.allowFiles {
		return nil, "", fmt.Errorf("%w: local files disabled", ErrUnsupportedRef)
	}
	path := strings.TrimPrefix(ref, "file://")
	if !filepath.IsAbs(path) && r.baseDir != "" {
		path = filepath.Join(r.baseDir, path)
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > r.maxBytes {
		return nil, "", ErrTooLarge
	}
	mimeType := ""
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		mimeType = "image/svg+xml"
	}
	return data, SniffMime(data, mimeType), nil
}

func (r *Resolver) hostAllowed(host string) bool {
	if len(r.allowHosts) == 0 {
		return true
	}
	host = strings.ToLower(host)
	for _, pattern := range r.allowHosts {
		matched, err := doublestar.Match(strings.ToLower(pattern), host)
		if err != nil {
			r.logger.Warn("invalid host pattern", "pattern", pattern, "err", err)
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

func scheme(ref string) string {
	if strings.HasPrefix(ref, "data:") {
		return "data"
	}
	if idx := strings.Index(ref, "://"); idx > 0 {
		return strings.ToLower(ref[:idx])
	}
	return ""
}

// describe shortens a reference for logs and errors.
func describe(ref string) string {
	if strings.HasPrefix(ref, "data:") {
		meta, _, _ := strings.Cut(ref, ",")
		return meta + ",…"
	}
	return ref
}
