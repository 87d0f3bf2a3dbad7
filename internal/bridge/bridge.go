// Package bridge connects the editor to the generative models: prompt
// enrichment for International Payments and background image generation.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"banner-creator/internal/catalog"
	"banner-creator/internal/gemini"
	"banner-creator/internal/imageref"
	"banner-creator/internal/prompt"
	"banner-creator/internal/theme"
)

// AspectRatio is the closest supported ratio to the 1200x628 canvas.
const AspectRatio = "16:9"

var ErrNoImage = errors.New("no image data in response")

type TextModel interface {
	GenerateText(ctx context.Context, req gemini.TextRequest) (gemini.TextResponse, error)
}

type ImageModel interface {
	GenerateImage(ctx context.Context, req gemini.ImageRequest) ([]gemini.InlineImage, error)
}

type Citation struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type EnrichRequest struct {
	Product      string
	UserText     string
	MerchantName string
	TextOnRight  bool
	Theme        theme.Name
}

type Enrichment struct {
	Prompt    string     `json:"prompt"`
	Citations []Citation `json:"citations,omitempty"`
}

type Image struct {
	MimeType string
	Data     []byte
}

// DataURI encodes the image as a banner image reference.
func (i Image) DataURI() string { return imageref.DataURI(i.MimeType, i.Data) }

type Options struct {
	Text        TextModel
	Image       ImageModel
	Credentials CredentialSource
	Logger      *slog.Logger
}

type Bridge struct {
	text   TextModel
	image  ImageModel
	creds  CredentialSource
	logger *slog.Logger
}

func New(opts Options) *Bridge {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bridge{text: opts.Text, image: opts.Image, creds: opts.Credentials, logger: logger}
}

// EnrichPrompt returns userText unchanged for every product except
// International Payments, which is rewritten by the text model. It never
// fails: remote errors fall back to the user text, or a generic description
// when that is empty.
func (b *Bridge) EnrichPrompt(ctx context.Context, req EnrichRequest) Enrichment {
	if req.Product != catalog.International {
		return Enrichment{Prompt: req.UserText}
	}
	fallback := Enrichment{Prompt: strings.TrimSpace(req.UserText)}
	if fallback.Prompt == "" {
		fallback.Prompt = prompt.GenericDescription
	}
	if b.text == nil {
		return fallback
	}

	comp := prompt.Compose(prompt.Request{
		UserText:     req.UserText,
		MerchantName: req.MerchantName,
		TextOnRight:  req.TextOnRight,
		Theme:        req.Theme,
	})

	var resp gemini.TextResponse
	err := b.withCredentials(ctx, func() error {
		var err error
		resp, err = b.text.GenerateText(ctx, gemini.TextRequest{Prompt: comp.Text, Search: comp.Search})
		return err
	})
	if err != nil {
		b.logger.Warn("prompt enrichment failed, using raw prompt", "err", err)
		return fallback
	}

	out := Enrichment{Prompt: prompt.PlainText(resp.Text)}
	if out.Prompt == "" {
		out.Prompt = fallback.Prompt
	}
	for _, c := range resp.Citations {
		out.Citations = append(out.Citations, Citation{URL: c.URL, Title: c.Title})
	}
	if len(resp.Queries) > 0 {
		b.logger.Debug("prompt enrichment grounded", "queries", resp.Queries, "citations", len(out.Citations))
	}
	return out
}

// GenerateImage renders a background for prompt, keeping the subject away
// from the text side. Failures come back as *GenerationError.
func (b *Bridge) GenerateImage(ctx context.Context, userPrompt string, textOnRight bool) (Image, error) {
	if b.image == nil {
		return Image{}, &GenerationError{Err: errors.New("image model not configured")}
	}
	req := gemini.ImageRequest{Prompt: prompt.ImagePrompt(userPrompt, textOnRight), AspectRatio: AspectRatio}

	var imgs []gemini.InlineImage
	err := b.withCredentials(ctx, func() error {
		var err error
		imgs, err = b.image.GenerateImage(ctx, req)
		return err
	})
	if err != nil {
		return Image{}, &GenerationError{Err: err}
	}
	if len(imgs) == 0 {
		return Image{}, &GenerationError{Err: ErrNoImage}
	}
	return Image{MimeType: imgs[0].MimeType, Data: imgs[0].Data}, nil
}

// withCredentials runs op and, when it fails for want of a valid key, asks
// the credential source for a new one and runs op once more.
func (b *Bridge) withCredentials(ctx context.Context, op func() error) error {
	err := op()
	if err == nil || !isCredentialFailure(err) || b.creds == nil {
		return err
	}

	b.logger.Info("api credential rejected, reselecting", "err", err)
	if rerr := b.creds.Reselect(ctx); rerr != nil {
		return &CredentialError{Err: fmt.Errorf("%w (reselect: %v)", err, rerr)}
	}
	if err := op(); err != nil {
		if isCredentialFailure(err) {
			return &CredentialError{Err: err}
		}
		return err
	}
	return nil
}

func isCredentialFailure(err error) bool {
	var apiErr *gemini.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Unauthorized()
	}
	var credErr *CredentialError
	return errors.As(err, &credErr)
}
