package evidence

import (
	"context"
	"io"

	"github.com/cupshup/ops-backend/pkg/db/models"
)

// BlobStore persists evidence images and resolves their public URLs.
type BlobStore interface {
	UploadBlob(ctx context.Context, key string, body io.Reader, contentType string) error
	PublicURL(key string) string
}

// OCRResult is what the text-detection function reports for one image.
type OCRResult struct {
	DetectedText string
	// OrderID is the function's own extraction; the pipeline re-derives it
	// from DetectedText and only uses this for drift logging.
	OrderID *string
}

// OCRInvoker sends an image URL to the text-detection function. Implementations
// wrap ErrNoText when the image has no text and ErrImageFetch when the function
// could not download the image.
type OCRInvoker interface {
	InvokeOCR(ctx context.Context, imageURL string) (*OCRResult, error)
}

// TaskRecorder inserts exactly one task record per successful submission.
type TaskRecorder interface {
	InsertTaskRecord(ctx context.Context, record *models.TaskRecord) error
}

// Gateway bundles the three collaborators the pipeline talks to.
type Gateway interface {
	BlobStore
	OCRInvoker
	TaskRecorder
}

// Gateways composes independent implementations into a Gateway.
type Gateways struct {
	BlobStore
	OCRInvoker
	TaskRecorder
}
