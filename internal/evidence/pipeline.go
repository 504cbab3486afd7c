package evidence

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cupshup/ops-backend/internal/orderid"
	"github.com/cupshup/ops-backend/pkg/db/models"
	"github.com/cupshup/ops-backend/pkg/logger"
)

// WarningOrderIDNotFound marks a persisted submission whose text had no order id.
const WarningOrderIDNotFound = "order_id_not_found"

const sniffLen = 512

// Upload is the evidence image as received from the client.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Submission is one vendor-initiated evidence run. The business fields were
// gathered by the caller before the run starts.
type Submission struct {
	ActivityID       uuid.UUID
	VendorID         uuid.UUID
	CustomerName     string
	CustomerPhone    string
	ProductsSold     string
	SalesOrderNumber string
	Image            *Upload
}

// Outcome describes a successful run.
type Outcome struct {
	TaskID       uuid.UUID    `json:"task_id"`
	ImageKey     string       `json:"image_key"`
	ImageURL     string       `json:"image_url"`
	OrderID      *string      `json:"order_id"`
	DetectedText string       `json:"detected_text"`
	Warnings     []string     `json:"warnings,omitempty"`
	Stage        Stage        `json:"stage"`
	History      []Transition `json:"history"`
}

// Pipeline runs upload, OCR, extraction and persistence strictly in order. It
// never retries and never deletes an uploaded image; failures after the upload
// leave the object for the orphan sweep.
type Pipeline struct {
	gateway  Gateway
	observer Observer
	logg     *logger.Logger
	newID    func() uuid.UUID
	now      func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithObserver receives every stage transition.
func WithObserver(o Observer) Option { return func(p *Pipeline) { p.observer = o } }

// WithIDSource replaces uuid.New for image keys and task ids.
func WithIDSource(f func() uuid.UUID) Option { return func(p *Pipeline) { p.newID = f } }

// WithClock replaces time.Now for transition timestamps.
func WithClock(f func() time.Time) Option { return func(p *Pipeline) { p.now = f } }

// WithLogger sets the logger used for drift warnings.
func WithLogger(l *logger.Logger) Option { return func(p *Pipeline) { p.logg = l } }

// Gate is a precondition checked after local validation and before the upload.
// Its error is returned unchanged and the run never reaches the network.
type Gate func(ctx context.Context, sub Submission) error

// NewPipeline builds a pipeline over gateway.
func NewPipeline(gateway Gateway, opts ...Option) (*Pipeline, error) {
	if gateway == nil {
		return nil, fmt.Errorf("evidence gateway required")
	}
	p := &Pipeline{
		gateway: gateway,
		logg:    logger.Nop(),
		newID:   uuid.New,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run executes one submission. A failure is returned as *Error carrying the
// kind and the stage it happened in.
func (p *Pipeline) Run(ctx context.Context, sub Submission) (*Outcome, error) {
	return p.RunGated(ctx, sub, nil)
}

// RunGated is Run with gate checked between validation and upload. A nil gate
// admits every submission.
func (p *Pipeline) RunGated(ctx context.Context, sub Submission, gate Gate) (*Outcome, error) {
	tracker := NewTracker(p.observer, p.now)

	image, contentType, ext, verr := p.validate(sub)
	if verr != nil {
		return nil, tracker.Fail(ctx, verr)
	}
	if gate != nil {
		if err := gate(ctx, sub); err != nil {
			return nil, err
		}
	}

	// upload
	if err := tracker.Advance(ctx, StageUploading); err != nil {
		return nil, err
	}
	key := NewKey(p.newID, ext)
	ctx = p.logg.WithFields(ctx, map[string]any{"image_key": key, "vendor_id": sub.VendorID.String()})
	if err := p.gateway.UploadBlob(ctx, key, image, contentType); err != nil {
		return nil, tracker.Fail(ctx, newError(KindStorage, err, "upload evidence image: %v", err))
	}
	imageURL := p.gateway.PublicURL(key)

	// ocr + extraction
	if err := tracker.Advance(ctx, StageExtracting); err != nil {
		return nil, err
	}
	result, err := p.gateway.InvokeOCR(ctx, imageURL)
	if err != nil {
		return nil, tracker.Fail(ctx, classifyOCR(err))
	}
	if result == nil {
		return nil, tracker.Fail(ctx, newError(KindOCR, nil, "text detection returned no result"))
	}
	orderID := orderid.Extract(result.DetectedText)
	if !sameID(orderID, result.OrderID) {
		p.logg.Warn(p.logg.WithFields(ctx, map[string]any{
			"local_order_id":  deref(orderID),
			"remote_order_id": deref(result.OrderID),
		}), "evidence.order_id_drift")
	}

	// persist
	if err := tracker.Advance(ctx, StagePersisting); err != nil {
		return nil, err
	}
	record := &models.TaskRecord{
		ID:               p.newID(),
		ActivityID:       sub.ActivityID,
		VendorID:         sub.VendorID,
		CustomerName:     strings.TrimSpace(sub.CustomerName),
		CustomerPhone:    strings.TrimSpace(sub.CustomerPhone),
		ProductsSold:     strings.TrimSpace(sub.ProductsSold),
		SalesOrderNumber: strings.TrimSpace(sub.SalesOrderNumber),
		ImageURL:         imageURL,
		ImageKey:         key,
		OrderID:          orderID,
	}
	if err := p.gateway.InsertTaskRecord(ctx, record); err != nil {
		return nil, tracker.Fail(ctx, newError(KindPersistence, err, "save task record: %v", err))
	}

	if err := tracker.Advance(ctx, StageSucceeded); err != nil {
		return nil, err
	}

	out := &Outcome{
		TaskID:       record.ID,
		ImageKey:     key,
		ImageURL:     imageURL,
		OrderID:      orderID,
		DetectedText: result.DetectedText,
		Stage:        tracker.Stage(),
		History:      tracker.History(),
	}
	if orderID == nil {
		out.Warnings = []string{WarningOrderIDNotFound}
	}
	return out, nil
}

func (p *Pipeline) validate(sub Submission) (io.Reader, string, string, *Error) {
	if sub.Image == nil || sub.Image.Body == nil {
		return nil, "", "", newError(KindValidation, nil, "no image selected")
	}
	if sub.Image.Size == 0 {
		return nil, "", "", newError(KindValidation, nil, "image is empty")
	}
	if sub.ActivityID == uuid.Nil {
		return nil, "", "", newError(KindValidation, nil, "activity_id is required")
	}
	if sub.VendorID == uuid.Nil {
		return nil, "", "", newError(KindValidation, nil, "vendor identity missing")
	}

	buffered := bufio.NewReaderSize(sub.Image.Body, sniffLen)
	head, err := buffered.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, "", "", newError(KindValidation, err, "read image: %v", err)
	}
	if len(head) == 0 {
		return nil, "", "", newError(KindValidation, nil, "image is empty")
	}

	ext := fileExt(sub.Image.FileName)
	contentType, sniffedExt, ok := resolveContentType(sub.Image.ContentType, ext, head)
	if !ok {
		return nil, "", "", newError(KindValidation, nil, "file must be an image")
	}
	if ext == "" {
		ext = sniffedExt
	}
	if ext == "" {
		return nil, "", "", newError(KindValidation, nil, "image file name needs an extension")
	}
	return buffered, contentType, ext, nil
}

func classifyOCR(err error) *Error {
	switch {
	case errors.Is(err, ErrNoText):
		return newError(KindNoText, err, "no text found in image")
	case errors.Is(err, ErrImageFetch):
		return newError(KindFetch, err, "text detection could not fetch image: %v", err)
	default:
		return newError(KindOCR, err, "text detection failed: %v", err)
	}
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
