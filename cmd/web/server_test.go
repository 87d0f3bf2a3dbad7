package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"banner-creator/internal/bridge"
	"banner-creator/internal/catalog"
	"banner-creator/internal/editor"
	"banner-creator/internal/export"
	"banner-creator/internal/fonts"
	"banner-creator/internal/layout"
	"banner-creator/internal/logger"
	"banner-creator/internal/prefs"
)

type whiteCapturer struct{}

func (whiteCapturer) Capture(_ context.Context, _ layout.Scene, opts export.CaptureOptions) (image.Image, error) {
	img := image.NewNRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	return img, nil
}

type failingGenerator struct{ err error }

func (g failingGenerator) EnrichPrompt(_ context.Context, req bridge.EnrichRequest) bridge.Enrichment {
	return bridge.Enrichment{Prompt: req.UserText}
}

func (g failingGenerator) GenerateImage(context.Context, string, bool) (bridge.Image, error) {
	return bridge.Image{}, g.err
}

func newTestServer(t *testing.T, gen editor.Generator) *httptest.Server {
	t.Helper()
	holder := catalog.NewHolder(catalog.Default())
	store, err := prefs.Open("")
	if err != nil {
		t.Fatal(err)
	}
	s := &server{
		editor: editor.New(editor.Options{
			Catalog:   holder,
			Measure:   fonts.Bundled(),
			Capturer:  whiteCapturer{},
			Generator: gen,
		}),
		catalog: holder,
		prefs:   store,
		logger:  logger.Discard(),
	}
	ts := httptest.NewServer(s.routes())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, contentType string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatal(err)
	}
	return v
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp := do(t, http.MethodPost, ts.URL+"/api/sessions", "", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	return decode[editor.Snapshot](t, resp).ID
}

func pngFile(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 3, 3))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func multipartBody(t *testing.T, data []byte) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "upload.png")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write(data)
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes(), mw.FormDataContentType()
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, nil)
	if resp := do(t, http.MethodGet, ts.URL+"/healthz", "", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)
	id := createSession(t, ts)
	base := ts.URL + "/api/sessions/" + id

	if resp := do(t, http.MethodGet, base, "", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodGet, ts.URL+"/api/sessions/nope", "", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing session status = %d", resp.StatusCode)
	}

	resp := do(t, http.MethodPost, base+"/undo", "", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("undo on fresh session = %d", resp.StatusCode)
	}

	resp = do(t, http.MethodPatch, base+"/banner", "application/json", []byte(`{"textSide":"right","tagText":"Launch"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch status = %d", resp.StatusCode)
	}
	snap := decode[editor.Snapshot](t, resp)
	if !snap.Config.TextOnRight() || snap.Config.TagText != "Launch" || !snap.CanUndo {
		t.Fatalf("patched config = %+v", snap.Config)
	}

	resp = do(t, http.MethodPatch, base+"/banner", "application/json", []byte(`{"tagText":"`+strings.Repeat("x", 25)+`"}`))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("invalid patch status = %d", resp.StatusCode)
	}
	if e := decode[apiError](t, resp); e.Field != "tagText" {
		t.Fatalf("error = %+v", e)
	}

	resp = do(t, http.MethodPatch, base+"/banner", "application/json", []byte(`{"colour":"red"}`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown field status = %d", resp.StatusCode)
	}

	resp = do(t, http.MethodPost, base+"/undo", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("undo status = %d", resp.StatusCode)
	}
	if snap := decode[editor.Snapshot](t, resp); snap.Config.TextOnRight() {
		t.Fatal("undo did not restore the text side")
	}
}

func TestImageSlots(t *testing.T) {
	ts := newTestServer(t, nil)
	base := ts.URL + "/api/sessions/" + createSession(t, ts)

	body, ct := multipartBody(t, pngFile(t))
	resp := do(t, http.MethodPut, base+"/images/background", ct, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}
	if snap := decode[editor.Snapshot](t, resp); !snap.Config.ShowBackground || snap.Config.BackgroundRef == "" {
		t.Fatal("background not set")
	}

	resp = do(t, http.MethodPut, base+"/images/sidebar", ct, body)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown slot status = %d", resp.StatusCode)
	}

	bad, ct := multipartBody(t, []byte("plain text"))
	if resp := do(t, http.MethodPut, base+"/images/merchant-logo", ct, bad); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("garbage upload status = %d", resp.StatusCode)
	}

	resp = do(t, http.MethodDelete, base+"/images/background", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("clear status = %d", resp.StatusCode)
	}
	if snap := decode[editor.Snapshot](t, resp); snap.Config.BackgroundRef != "" {
		t.Fatal("background not cleared")
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name     string
		gen      editor.Generator
		body     string
		status   int
		credHint bool
	}{
		{"not configured", nil, `{"prompt":"sea"}`, http.StatusServiceUnavailable, false},
		{"empty prompt", failingGenerator{}, `{"prompt":""}`, http.StatusUnprocessableEntity, false},
		{"credential failure", failingGenerator{err: &bridge.GenerationError{Err: &bridge.CredentialError{Err: errors.New("denied")}}}, `{"prompt":"sea"}`, http.StatusBadGateway, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.gen)
			base := ts.URL + "/api/sessions/" + createSession(t, ts)
			resp := do(t, http.MethodPost, base+"/generate", "application/json", []byte(tt.body))
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if e := decode[apiError](t, resp); e.CredentialHint != tt.credHint {
				t.Fatalf("credentialHint = %v", e.CredentialHint)
			}
		})
	}
}

func TestSceneAndPreview(t *testing.T) {
	ts := newTestServer(t, nil)
	base := ts.URL + "/api/sessions/" + createSession(t, ts)

	resp := do(t, http.MethodGet, base+"/scene", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("scene status = %d", resp.StatusCode)
	}
	scene := decode[struct {
		Width  int               `json:"width"`
		Height int               `json:"height"`
		Nodes  []json.RawMessage `json:"nodes"`
	}](t, resp)
	if scene.Width != 1200 || scene.Height != 628 || len(scene.Nodes) == 0 {
		t.Fatalf("scene = %dx%d with %d nodes", scene.Width, scene.Height, len(scene.Nodes))
	}

	resp = do(t, http.MethodGet, base+"/preview?w=660&h=2000", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("preview status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("x-preview-scale"); got != "0.5000" {
		t.Fatalf("scale header = %q", got)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 600 || b.Dy() != 314 {
		t.Fatalf("preview size = %v", b)
	}

	for _, q := range []string{"w=abc&h=1", "w=10&h=10", "w=1e6&h=1e6", "w=Inf&h=700", "w=NaN&h=700", "w=-5&h=700"} {
		if resp := do(t, http.MethodGet, base+"/preview?"+q, "", nil); resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("preview?%s status = %d", q, resp.StatusCode)
		}
	}
}

func TestExport(t *testing.T) {
	ts := newTestServer(t, nil)
	base := ts.URL + "/api/sessions/" + createSession(t, ts)

	resp := do(t, http.MethodPost, base+"/export", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("content-type"); ct != "image/png" {
		t.Fatalf("content-type = %q", ct)
	}
	if cd := resp.Header.Get("content-disposition"); cd != `attachment; filename="banner.png"` {
		t.Fatalf("content-disposition = %q", cd)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 1200 || b.Dy() != 628 {
		t.Fatalf("export size = %v", b)
	}
}

func TestCatalogAndPrefs(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := do(t, http.MethodGet, ts.URL+"/api/products", "", nil)
	if products := decode[[]catalog.Product](t, resp); len(products) == 0 {
		t.Fatal("no products")
	}
	resp = do(t, http.MethodGet, ts.URL+"/api/scenarios", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("scenarios status = %d", resp.StatusCode)
	}

	resp = do(t, http.MethodPut, ts.URL+"/api/prefs", "application/json", []byte(`{"mode":"dark"}`))
	if p := decode[prefs.Preferences](t, resp); p.Mode != prefs.ModeDark {
		t.Fatalf("prefs = %+v", p)
	}
	resp = do(t, http.MethodGet, ts.URL+"/api/prefs", "", nil)
	if p := decode[prefs.Preferences](t, resp); p.Mode != prefs.ModeDark {
		t.Fatalf("prefs after put = %+v", p)
	}
	if resp := do(t, http.MethodPut, ts.URL+"/api/prefs", "application/json", []byte(`{"mode":"sepia"}`)); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid prefs status = %d", resp.StatusCode)
	}
}
