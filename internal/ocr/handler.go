package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cupshup/ops-backend/internal/orderid"
	"github.com/cupshup/ops-backend/pkg/logger"
)

const maxRequestBody = 64 << 10

// DetectorFactory builds a detector from the credential blob.
type DetectorFactory func(ctx context.Context, credentialsJSON []byte) (TextDetector, error)

// HandlerConfig wires the function handler.
type HandlerConfig struct {
	CredentialsEnvVar string
	FetchTimeout      time.Duration
	MaxImageBytes     int64
	LookupEnv         func(string) (string, bool)
	NewDetector       DetectorFactory
	Fetcher           *Fetcher
	Logger            *logger.Logger
}

// Handler serves the extract-order-id function: fetch the image, detect its
// text and pull the order id out of it.
type Handler struct {
	cfg      HandlerConfig
	fetcher  *Fetcher
	logg     *logger.Logger
	once     sync.Once
	detector TextDetector
	initErr  error
}

func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.LookupEnv == nil {
		cfg.LookupEnv = func(string) (string, bool) { return "", false }
	}
	if cfg.NewDetector == nil {
		cfg.NewDetector = func(ctx context.Context, creds []byte) (TextDetector, error) {
			return NewVisionDetector(ctx, creds)
		}
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = NewFetcher(&http.Client{Timeout: cfg.FetchTimeout}, cfg.MaxImageBytes)
	}
	logg := cfg.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Handler{cfg: cfg, fetcher: fetcher, logg: logg}
}

// Close releases the detector if it was created.
func (h *Handler) Close() error {
	if h.detector == nil {
		return nil
	}
	return h.detector.Close()
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
		return
	}

	ctx := h.logg.WithField(r.Context(), "function", "extract-order-id")

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
			Error: "Method not allowed", Details: r.Method + " is not supported", Reason: ReasonInvalidRequest,
		})
		return
	}

	detector, err := h.loadDetector(ctx)
	if err != nil {
		h.logg.Error(ctx, "ocr.credentials_invalid", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "OCR function is not configured", Details: err.Error(), Reason: ReasonCredentials,
		})
		return
	}

	var req Request
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body", Details: err.Error(), Reason: ReasonInvalidRequest,
		})
		return
	}
	req.ImageURL = strings.TrimSpace(req.ImageURL)
	if req.ImageURL == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body", Details: "imageUrl is required", Reason: ReasonInvalidRequest,
		})
		return
	}
	ctx = h.logg.WithField(ctx, "image_url", req.ImageURL)

	image, err := h.fetcher.Fetch(ctx, req.ImageURL)
	if err != nil {
		h.logg.Warn(h.logg.WithField(ctx, "error", err.Error()), "ocr.fetch_failed")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to fetch image", Details: err.Error(), Reason: ReasonImageFetchFailed,
		})
		return
	}

	text, err := detector.DetectText(ctx, image)
	switch {
	case errors.Is(err, ErrNoAnnotations):
		h.logg.Info(ctx, "ocr.no_text")
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "No text found in image",
			Details: "The OCR service could not detect any text in the provided image",
			Reason:  ReasonNoText,
		})
		return
	case err != nil:
		h.logg.Error(ctx, "ocr.detection_failed", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "Text detection failed", Details: err.Error(), Reason: ReasonDetectionFailed,
		})
		return
	}

	id := orderid.Extract(text)
	h.logg.Info(h.logg.WithField(ctx, "order_id_found", id != nil), "ocr.completed")
	writeJSON(w, http.StatusOK, Response{Success: true, OrderID: id, DetectedText: text})
}

// loadDetector validates the credential blob and builds the detector on the
// first request. A failure is cached and reported on every later call.
func (h *Handler) loadDetector(ctx context.Context) (TextDetector, error) {
	h.once.Do(func() {
		raw, _ := h.cfg.LookupEnv(h.cfg.CredentialsEnvVar)
		if _, err := ParseCredentials(raw); err != nil {
			h.initErr = err
			return
		}
		h.detector, h.initErr = h.cfg.NewDetector(context.WithoutCancel(ctx), []byte(raw))
	})
	return h.detector, h.initErr
}

func setCORSHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
