package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"banner-creator/internal/banner"
	"banner-creator/internal/bridge"
	"banner-creator/internal/catalog"
	"banner-creator/internal/editor"
	"banner-creator/internal/export"
	"banner-creator/internal/prefs"
	"banner-creator/internal/preview"
	"banner-creator/internal/prompt"
)

const (
	maxUploadBytes = 25 << 20
	// maxViewportSide bounds the w and h a preview request may ask for.
	maxViewportSide = 10000
)

type server struct {
	editor         *editor.Editor
	catalog        *catalog.Holder
	prefs          *prefs.Store
	logger         *slog.Logger
	requestTimeout time.Duration
}

type apiError struct {
	Error          string `json:"error"`
	Field          string `json:"field,omitempty"`
	CredentialHint bool   `json:"credentialHint,omitempty"`
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(withLogging(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", s.handleProducts)
		r.Get("/scenarios", s.handleScenarios)
		r.Get("/prefs", s.handleGetPrefs)
		r.Put("/prefs", s.handlePutPrefs)

		r.Post("/sessions", s.handleCreate)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Patch("/banner", s.handlePatch)
			r.Post("/undo", s.handleUndo)
			r.Put("/images/{slot}", s.handleUpload)
			r.Delete("/images/{slot}", s.handleClear)
			r.Post("/generate", s.handleGenerate)
			r.Get("/scene", s.handleScene)
			r.Get("/preview", s.handlePreview)
			r.Post("/export", s.handleExport)
		})
	})
	return r
}

func (s *server) handleProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Get().Products())
}

func (s *server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, prompt.Scenarios())
}

func (s *server) handleGetPrefs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.prefs.Get())
}

func (s *server) handlePutPrefs(w http.ResponseWriter, r *http.Request) {
	var p prefs.Preferences
	if err := decodeJSON(r, &p); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	if err := s.prefs.Set(p); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.prefs.Get())
}

func (s *server) handleCreate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, s.editor.Create())
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	snap, err := s.editor.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *server) handlePatch(w http.ResponseWriter, r *http.Request) {
	var p banner.Patch
	if err := decodeJSON(r, &p); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	snap, err := s.editor.Apply(chi.URLParam(r, "id"), p)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *server) handleUndo(w http.ResponseWriter, r *http.Request) {
	snap, err := s.editor.Undo(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "missing file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "failed to read file"})
		return
	}

	slot := editor.Slot(chi.URLParam(r, "slot"))
	snap, err := s.editor.Upload(chi.URLParam(r, "id"), slot, data, header.Header.Get("Content-Type"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *server) handleClear(w http.ResponseWriter, r *http.Request) {
	snap, err := s.editor.Clear(chi.URLParam(r, "id"), editor.Slot(chi.URLParam(r, "slot")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}

	ctx, cancel := s.withTimeout(r.Context())
	defer cancel()

	snap, err := s.editor.GenerateBackground(ctx, chi.URLParam(r, "id"), req.Prompt)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *server) handleScene(w http.ResponseWriter, r *http.Request) {
	scene, err := s.editor.Scene(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scene)
}

func (s *server) handlePreview(w http.ResponseWriter, r *http.Request) {
	width, errW := strconv.ParseFloat(r.URL.Query().Get("w"), 64)
	height, errH := strconv.ParseFloat(r.URL.Query().Get("h"), 64)
	if errW != nil || errH != nil || !viewportSide(width) || !viewportSide(height) {
		writeJSON(w, http.StatusBadRequest, apiError{Error: fmt.Sprintf("w and h must be numbers between 0 and %d", maxViewportSide)})
		return
	}

	ctx, cancel := s.withTimeout(r.Context())
	defer cancel()

	img, err := s.editor.Preview(ctx, chi.URLParam(r, "id"), preview.NewViewport(width, height))
	if err != nil {
		s.writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("content-type", "image/png")
	w.Header().Set("x-preview-scale", strconv.FormatFloat(preview.Scale(width, height), 'f', 4, 64))
	_, _ = w.Write(buf.Bytes())
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.withTimeout(r.Context())
	defer cancel()

	art, err := s.editor.Export(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("content-type", art.MimeType)
	w.Header().Set("content-disposition", fmt.Sprintf("attachment; filename=%q", art.Filename))
	w.Header().Set("content-length", strconv.Itoa(len(art.Data)))
	_, _ = w.Write(art.Data)
}

func viewportSide(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= maxViewportSide
}

func (s *server) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.requestTimeout)
}

// writeError maps editor errors to HTTP statuses.
func (s *server) writeError(w http.ResponseWriter, err error) {
	var (
		verr   *banner.ValidationError
		genErr *bridge.GenerationError
		capErr *export.CaptureError
	)
	status := http.StatusInternalServerError
	payload := apiError{Error: err.Error()}
	switch {
	case errors.Is(err, editor.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &verr):
		status = http.StatusUnprocessableEntity
		payload.Field = verr.Field
	case errors.Is(err, editor.ErrBusy), errors.Is(err, export.ErrExportInProgress), errors.Is(err, editor.ErrNothingToUndo):
		status = http.StatusConflict
	case errors.Is(err, editor.ErrUnknownSlot):
		status = http.StatusNotFound
	case errors.Is(err, editor.ErrInvalidImage), errors.Is(err, editor.ErrEmptyUpload), errors.Is(err, preview.ErrZeroScale):
		status = http.StatusBadRequest
	case errors.Is(err, editor.ErrNoGenerator):
		status = http.StatusServiceUnavailable
	case errors.As(err, &genErr):
		status = http.StatusBadGateway
		payload.CredentialHint = genErr.CredentialHint()
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.As(err, &capErr):
		s.logger.Error("capture failed", "err", err)
	default:
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, payload)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func withLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"request_id", middleware.GetReqID(r.Context()),
				"dur_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
