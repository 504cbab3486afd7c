package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cupshup/ops-backend/internal/evidence"
	"github.com/cupshup/ops-backend/internal/orderid"
	"github.com/cupshup/ops-backend/pkg/config"
)

const maxResponseBody = 4 << 20

// Client invokes the deployed extract-order-id function over HTTP.
type Client struct {
	http   *http.Client
	url    string
	apiKey string
}

func NewClient(cfg config.OCRConfig, httpClient *http.Client) (*Client, error) {
	url := cfg.FunctionURL()
	if url == "" {
		return nil, fmt.Errorf("ocr function url is required")
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{http: httpClient, url: url, apiKey: cfg.APIKey}, nil
}

// InvokeOCR posts the image URL and maps the function's answer onto the
// evidence sentinels: 422 is ErrNoText and a failed download is ErrImageFetch.
func (c *Client) InvokeOCR(ctx context.Context, imageURL string) (*evidence.OCRResult, error) {
	body, err := json.Marshal(Request{ImageURL: imageURL})
	if err != nil {
		return nil, fmt.Errorf("encode ocr request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invoke ocr function: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read ocr response: %w", err)
	}

	if resp.StatusCode == http.StatusOK {
		var out Response
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode ocr response: %w", err)
		}
		if !out.Success {
			return nil, fmt.Errorf("ocr function reported failure without an error")
		}
		return &evidence.OCRResult{DetectedText: out.DetectedText, OrderID: out.OrderID}, nil
	}

	var failure ErrorResponse
	_ = json.Unmarshal(raw, &failure)
	msg := failure.Error
	if failure.Details != "" {
		msg += ": " + failure.Details
	}
	if msg == "" {
		msg = resp.Status
	}

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("%s: %w", msg, evidence.ErrNoText)
	case failure.Reason == ReasonImageFetchFailed:
		return nil, fmt.Errorf("%s: %w", msg, evidence.ErrImageFetch)
	default:
		return nil, fmt.Errorf("ocr function returned %d: %s", resp.StatusCode, msg)
	}
}

// LocalInvoker runs fetch and detection in-process, for tooling that holds
// the Vision credentials itself.
type LocalInvoker struct {
	Fetcher  *Fetcher
	Detector TextDetector
}

func (l *LocalInvoker) InvokeOCR(ctx context.Context, imageURL string) (*evidence.OCRResult, error) {
	image, err := l.Fetcher.Fetch(ctx, imageURL)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, evidence.ErrImageFetch)
	}
	return l.Detect(ctx, image)
}

// Detect runs detection on bytes already in memory.
func (l *LocalInvoker) Detect(ctx context.Context, image []byte) (*evidence.OCRResult, error) {
	text, err := l.Detector.DetectText(ctx, image)
	if err != nil {
		if errors.Is(err, ErrNoAnnotations) {
			return nil, fmt.Errorf("%v: %w", err, evidence.ErrNoText)
		}
		return nil, err
	}
	return &evidence.OCRResult{DetectedText: text, OrderID: orderid.Extract(text)}, nil
}
