package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultTextModel  = "gemini-3-flash-preview"
	DefaultImageModel = "gemini-2.5-flash-image"
)

var (
	ErrEmptyPrompt = errors.New("prompt is empty")
	ErrNoAPIKey    = errors.New("gemini api key is not set")
)

// KeySource supplies the API key for each request, so a reselected key takes
// effect without rebuilding the client.
type KeySource interface {
	APIKey() string
}

type staticKey string

func (k staticKey) APIKey() string { return string(k) }

type Options struct {
	APIKey     string
	Keys       KeySource
	BaseURL    string
	APIVersion string
	TextModel  string
	ImageModel string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	keys       KeySource
	baseURL    string
	apiVersion string
	textModel  string
	imageModel string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = "v1beta"
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	keys := opts.Keys
	if keys == nil {
		keys = staticKey(strings.TrimSpace(opts.APIKey))
	}

	return &Client{
		keys:       keys,
		baseURL:    baseURL,
		apiVersion: apiVersion,
		textModel:  firstNonEmpty(opts.TextModel, DefaultTextModel),
		imageModel: firstNonEmpty(opts.ImageModel, DefaultImageModel),
		httpClient: opts.HTTPClient,
		logger:     logger,
	}
}

type TextRequest struct {
	Prompt string
	// Search enables the Google Search grounding tool.
	Search bool
}

type Citation struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type TextResponse struct {
	Text      string
	Citations []Citation
	Queries   []string
}

// GenerateText sends a single user turn to the text model.
func (c *Client) GenerateText(ctx context.Context, req TextRequest) (TextResponse, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return TextResponse{}, ErrEmptyPrompt
	}

	payload := generateContentRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	}
	if req.Search {
		payload.Tools = []tool{{GoogleSearch: &struct{}{}}}
	}

	resp, err := c.generateContent(ctx, c.textModel, payload)
	if err != nil {
		return TextResponse{}, err
	}

	out := TextResponse{Text: strings.TrimSpace(resp.text)}
	if gm := resp.grounding; gm != nil {
		out.Queries = gm.WebSearchQueries
		seen := make(map[string]bool)
		for _, chunk := range gm.GroundingChunks {
			if chunk.Web == nil || chunk.Web.URI == "" || seen[chunk.Web.URI] {
				continue
			}
			seen[chunk.Web.URI] = true
			out.Citations = append(out.Citations, Citation{URL: chunk.Web.URI, Title: chunk.Web.Title})
		}
	}
	return out, nil
}

type ImageRequest struct {
	Prompt      string
	AspectRatio string
}

type InlineImage struct {
	MimeType string
	Data     []byte
}

// GenerateImage asks the image model for pictures and returns every inline
// image part of the first candidate, in order.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) ([]InlineImage, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	payload := generateContentRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	}
	if req.AspectRatio != "" {
		payload.GenerationConfig.ImageConfig = &imageConfig{AspectRatio: req.AspectRatio}
	}

	resp, err := c.generateContent(ctx, c.imageModel, payload)
	if err != nil && payload.GenerationConfig.ImageConfig != nil && isUnknownFieldError(err, "imageConfig") {
		c.logger.Warn("image model rejected imageConfig, retrying without it", "model", c.imageModel)
		payload.GenerationConfig.ImageConfig = nil
		resp, err = c.generateContent(ctx, c.imageModel, payload)
	}
	if err != nil {
		return nil, err
	}
	return resp.images, nil
}

type result struct {
	text      string
	images    []InlineImage
	grounding *groundingMetadata
}

func (c *Client) generateContent(ctx context.Context, model string, payload generateContentRequest) (result, error) {
	if c.httpClient == nil {
		return result{}, errors.New("http client is nil")
	}
	key := strings.TrimSpace(c.keys.APIKey())
	if key == "" {
		return result{}, &APIError{Status: http.StatusUnauthorized, Message: ErrNoAPIKey.Error()}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return result{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, c.apiVersion, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return result{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-goog-api-key", key)

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return result{}, fmt.Errorf("request: %w", err)
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return result{}, fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("gemini response", "model", model, "status", httpResp.StatusCode, "elapsed_ms", time.Since(start).Milliseconds())

	if httpResp.StatusCode >= 400 {
		return result{}, newAPIError(httpResp.StatusCode, rawBody)
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return result{}, fmt.Errorf("decode response: %w", err)
	}
	return extract(decoded), nil
}

func extract(resp generateContentResponse) result {
	if len(resp.Candidates) == 0 {
		return result{}
	}
	cand := resp.Candidates[0]

	var out result
	var textBuilder strings.Builder
	for _, p := range cand.Content.Parts {
		if p.Text != "" && !p.Thought {
			textBuilder.WriteString(p.Text)
		}
		if p.InlineData == nil || p.InlineData.Data == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
		if err != nil {
			continue
		}
		mime := p.InlineData.MimeType
		if mime == "" {
			mime = "image/png"
		}
		out.images = append(out.images, InlineImage{MimeType: mime, Data: data})
	}
	out.text = textBuilder.String()
	out.grounding = cand.GroundingMetadata
	return out
}

func isUnknownFieldError(err error, field string) bool {
	message := err.Error()
	return strings.Contains(message, "Unknown name") && strings.Contains(message, field)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
