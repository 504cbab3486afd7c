package ocr

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.jpg":
			_, _ = w.Write([]byte("jpeg-bytes"))
		case "/big.jpg":
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), 32)
	ctx := context.Background()

	data, err := f.Fetch(ctx, srv.URL+"/ok.jpg")
	if err != nil || string(data) != "jpeg-bytes" {
		t.Fatalf("unexpected fetch result %q err=%v", data, err)
	}

	_, err = f.Fetch(ctx, srv.URL+"/missing.jpg")
	if !errors.Is(err, errFetch) || !strings.Contains(err.Error(), "404 Not Found") {
		t.Fatalf("expected fetch error with status text, got %v", err)
	}

	if _, err := f.Fetch(ctx, srv.URL+"/big.jpg"); !errors.Is(err, errFetch) {
		t.Fatalf("expected size limit error, got %v", err)
	}

	if _, err := f.Fetch(ctx, "ftp://example.com/a.jpg"); !errors.Is(err, errFetch) {
		t.Fatalf("expected invalid url error, got %v", err)
	}
}
