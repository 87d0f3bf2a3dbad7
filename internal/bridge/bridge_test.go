package bridge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"banner-creator/internal/gemini"
	"banner-creator/internal/prompt"
)

type fakeText struct {
	reqs []gemini.TextRequest
	resp gemini.TextResponse
	errs []error
}

func (f *fakeText) GenerateText(_ context.Context, req gemini.TextRequest) (gemini.TextResponse, error) {
	f.reqs = append(f.reqs, req)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return gemini.TextResponse{}, err
		}
	}
	return f.resp, nil
}

type fakeImage struct {
	reqs []gemini.ImageRequest
	imgs []gemini.InlineImage
	errs []error
}

func (f *fakeImage) GenerateImage(_ context.Context, req gemini.ImageRequest) ([]gemini.InlineImage, error) {
	f.reqs = append(f.reqs, req)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.imgs, nil
}

type fakeCreds struct {
	reselects int
	err       error
}

func (f *fakeCreds) APIKey() string { return "k" }

func (f *fakeCreds) Reselect(context.Context) error {
	f.reselects++
	return f.err
}

var unauthorized = &gemini.APIError{Status: 400, Message: "API key not valid."}

func TestEnrichIsIdentityForOtherProducts(t *testing.T) {
	text := &fakeText{}
	b := New(Options{Text: text})
	got := b.EnrichPrompt(context.Background(), EnrichRequest{Product: "razorpay", UserText: "Summer Sale"})
	if got.Prompt != "Summer Sale" || len(text.reqs) != 0 {
		t.Fatalf("enrichment = %+v, remote calls = %d", got, len(text.reqs))
	}
}

func TestEnrichFallsBackOnFailure(t *testing.T) {
	b := New(Options{Text: &fakeText{errs: []error{errors.New("boom")}}})
	got := b.EnrichPrompt(context.Background(), EnrichRequest{Product: "international", UserText: "Summer Sale"})
	if got.Prompt != "Summer Sale" {
		t.Fatalf("prompt = %q, want the raw input", got.Prompt)
	}

	b = New(Options{Text: &fakeText{errs: []error{errors.New("boom")}}})
	got = b.EnrichPrompt(context.Background(), EnrichRequest{Product: "international"})
	if got.Prompt != prompt.GenericDescription {
		t.Fatalf("prompt = %q, want generic description", got.Prompt)
	}
}

func TestEnrichInternational(t *testing.T) {
	text := &fakeText{resp: gemini.TextResponse{
		Text:      "**Hero:** a globe with coins",
		Citations: []gemini.Citation{{URL: "https://airbnb.example", Title: "Airbnb"}},
	}}
	b := New(Options{Text: text})
	got := b.EnrichPrompt(context.Background(), EnrichRequest{Product: "international", UserText: "travel", MerchantName: "Airbnb", TextOnRight: true})

	if got.Prompt != "Hero: a globe with coins" {
		t.Fatalf("prompt = %q", got.Prompt)
	}
	if len(got.Citations) != 1 || got.Citations[0].URL != "https://airbnb.example" {
		t.Fatalf("citations = %+v", got.Citations)
	}
	req := text.reqs[0]
	if !req.Search || !strings.Contains(req.Prompt, `Merchant Name: "Airbnb"`) || !strings.Contains(req.Prompt, "RIGHT side of the banner") {
		t.Fatalf("request = %+v", req)
	}
}

func TestEnrichReselectsCredential(t *testing.T) {
	text := &fakeText{errs: []error{unauthorized, nil}, resp: gemini.TextResponse{Text: "enriched"}}
	creds := &fakeCreds{}
	got := New(Options{Text: text, Credentials: creds}).EnrichPrompt(context.Background(), EnrichRequest{Product: "international", UserText: "x"})
	if got.Prompt != "enriched" || creds.reselects != 1 || len(text.reqs) != 2 {
		t.Fatalf("prompt = %q, reselects = %d, calls = %d", got.Prompt, creds.reselects, len(text.reqs))
	}
}

func TestGenerateImage(t *testing.T) {
	img := &fakeImage{imgs: []gemini.InlineImage{{MimeType: "image/png", Data: []byte("png")}, {MimeType: "image/jpeg"}}}
	got, err := New(Options{Image: img}).GenerateImage(context.Background(), "Summer Sale", false)
	if err != nil {
		t.Fatal(err)
	}
	if got.MimeType != "image/png" || string(got.Data) != "png" {
		t.Fatalf("image = %+v", got)
	}
	if got.DataURI() != "data:image/png;base64,cG5n" {
		t.Fatalf("data uri = %q", got.DataURI())
	}
	req := img.reqs[0]
	if req.AspectRatio != "16:9" || !strings.HasPrefix(req.Prompt, "Summer Sale. CRITICAL: Main subject on the RIGHT") {
		t.Fatalf("request = %+v", req)
	}
}

func TestGenerateImageWithoutPayload(t *testing.T) {
	_, err := New(Options{Image: &fakeImage{}}).GenerateImage(context.Background(), "x", true)
	var ge *GenerationError
	if !errors.As(err, &ge) || !errors.Is(err, ErrNoImage) {
		t.Fatalf("error = %v, want GenerationError(ErrNoImage)", err)
	}
	if ge.CredentialHint() {
		t.Fatal("missing payload is not a credential problem")
	}
}

func TestGenerateImageCredentialRetry(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		reselErr  error
		wantErr   bool
		wantHint  bool
		wantCalls int
	}{
		{name: "recovers", errs: []error{unauthorized, nil}, wantCalls: 2},
		{name: "fails twice", errs: []error{unauthorized, unauthorized}, wantErr: true, wantHint: true, wantCalls: 2},
		{name: "reselect fails", errs: []error{unauthorized}, reselErr: errors.New("cancelled"), wantErr: true, wantHint: true, wantCalls: 1},
		{name: "other error not retried", errs: []error{errors.New("overloaded")}, wantErr: true, wantCalls: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := &fakeImage{errs: tt.errs, imgs: []gemini.InlineImage{{MimeType: "image/png", Data: []byte("x")}}}
			creds := &fakeCreds{err: tt.reselErr}
			_, err := New(Options{Image: img, Credentials: creds}).GenerateImage(context.Background(), "x", false)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(img.reqs) != tt.wantCalls {
				t.Fatalf("calls = %d, want %d", len(img.reqs), tt.wantCalls)
			}
			if err != nil {
				var ge *GenerationError
				if !errors.As(err, &ge) {
					t.Fatalf("error = %T, want GenerationError", err)
				}
				if ge.CredentialHint() != tt.wantHint {
					t.Fatalf("CredentialHint = %v", ge.CredentialHint())
				}
			}
		})
	}
}

func TestKeyFileReselect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	k := NewKeyFile("initial", path)
	if k.APIKey() != "initial" {
		t.Fatalf("key = %q", k.APIKey())
	}
	if err := k.Reselect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if k.APIKey() != "from-file" {
		t.Fatalf("key = %q", k.APIKey())
	}
	if NewKeyFile("", path).APIKey() != "from-file" {
		t.Fatal("empty initial key should load the file")
	}
	if err := NewKeyFile("x", "").Reselect(context.Background()); !errors.Is(err, ErrNoKeyFile) {
		t.Fatalf("error = %v", err)
	}
}
