package ocr

// Request is the body the function accepts.
type Request struct {
	ImageURL string `json:"imageUrl"`
}

// Response is the success body. OrderID is null when the text carries none.
type Response struct {
	Success      bool    `json:"success"`
	OrderID      *string `json:"orderId"`
	DetectedText string  `json:"detectedText"`
}

// ErrorResponse is shared by the 400, 422 and 500 answers.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
	Reason  Reason `json:"reason,omitempty"`
}

// Reason is a machine-readable failure class on error responses.
type Reason string

const (
	ReasonInvalidRequest   Reason = "invalid_request"
	ReasonCredentials      Reason = "credentials"
	ReasonImageFetchFailed Reason = "image_fetch_failed"
	ReasonDetectionFailed  Reason = "detection_failed"
	ReasonNoText           Reason = "no_text"
)
