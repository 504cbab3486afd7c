package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cupshup/ops-backend/internal/evidence"
	"github.com/cupshup/ops-backend/pkg/config"
)

func newFunctionServer(t *testing.T, status int, body any) (*httptest.Server, *http.Request) {
	t.Helper()
	seen := &http.Request{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = *r.Clone(context.Background())
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ImageURL == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(config.OCRConfig{FunctionBaseURL: baseURL + "/functions/v1", FunctionName: "extract-order-id", APIKey: "anon-key"}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestClientSuccess(t *testing.T) {
	id := "ABC123"
	srv, seen := newFunctionServer(t, http.StatusOK, Response{Success: true, OrderID: &id, DetectedText: "Order: ABC123"})
	c := newTestClient(t, srv.URL)

	res, err := c.InvokeOCR(context.Background(), "https://storage.googleapis.com/order_images/a.jpg")
	if err != nil {
		t.Fatalf("InvokeOCR: %v", err)
	}
	if res.DetectedText != "Order: ABC123" || res.OrderID == nil || *res.OrderID != id {
		t.Fatalf("unexpected result %+v", res)
	}
	if seen.URL.Path != "/functions/v1/extract-order-id" {
		t.Fatalf("unexpected path %q", seen.URL.Path)
	}
	if seen.Header.Get("Authorization") != "Bearer anon-key" || seen.Header.Get("apikey") != "anon-key" {
		t.Fatal("api key headers missing")
	}
}

func TestClientMapsFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   ErrorResponse
		want   error
	}{
		{name: "no text", status: http.StatusUnprocessableEntity, body: ErrorResponse{Error: "No text found in image", Details: "none", Reason: ReasonNoText}, want: evidence.ErrNoText},
		{name: "fetch", status: http.StatusInternalServerError, body: ErrorResponse{Error: "Failed to fetch image", Details: "image fetch failed: 403 Forbidden", Reason: ReasonImageFetchFailed}, want: evidence.ErrImageFetch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newFunctionServer(t, tc.status, tc.body)
			_, err := newTestClient(t, srv.URL).InvokeOCR(context.Background(), "https://x/a.jpg")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !strings.Contains(err.Error(), tc.body.Details) {
				t.Fatalf("details should be kept in the message, got %v", err)
			}
		})
	}

	srv, _ := newFunctionServer(t, http.StatusInternalServerError, ErrorResponse{Error: "Text detection failed", Details: "quota", Reason: ReasonDetectionFailed})
	_, err := newTestClient(t, srv.URL).InvokeOCR(context.Background(), "https://x/a.jpg")
	if err == nil || errors.Is(err, evidence.ErrNoText) || errors.Is(err, evidence.ErrImageFetch) {
		t.Fatalf("expected generic ocr error, got %v", err)
	}
}

func TestClientAgainstHandler(t *testing.T) {
	images := newImageServer(t)
	h := newTestHandler(&stubDetector{text: "ORDER: q42"}, validCredentials, nil)
	mux := http.NewServeMux()
	mux.Handle("/functions/v1/extract-order-id", h)
	fn := httptest.NewServer(mux)
	defer fn.Close()

	res, err := newTestClient(t, fn.URL).InvokeOCR(context.Background(), images.URL+"/order_images/a.jpg")
	if err != nil {
		t.Fatalf("InvokeOCR: %v", err)
	}
	if res.OrderID == nil || *res.OrderID != "q42" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestNewClientRequiresURL(t *testing.T) {
	if _, err := NewClient(config.OCRConfig{}, nil); err == nil {
		t.Fatal("expected error without function url")
	}
}

func TestLocalInvoker(t *testing.T) {
	images := newImageServer(t)
	inv := &LocalInvoker{Fetcher: NewFetcher(images.Client(), 0), Detector: &stubDetector{err: ErrNoAnnotations}}
	if _, err := inv.InvokeOCR(context.Background(), images.URL+"/order_images/a.jpg"); !errors.Is(err, evidence.ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
	if _, err := inv.InvokeOCR(context.Background(), images.URL+"/missing.jpg"); !errors.Is(err, evidence.ErrImageFetch) {
		t.Fatalf("expected ErrImageFetch, got %v", err)
	}
}
