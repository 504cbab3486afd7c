package evidence

import (
	"errors"
	"fmt"

	pkgerrors "github.com/cupshup/ops-backend/pkg/errors"
)

// ErrorKind classifies why a submission failed.
type ErrorKind string

const (
	KindValidation  ErrorKind = "validation"
	KindStorage     ErrorKind = "storage"
	KindFetch       ErrorKind = "fetch"
	KindNoText      ErrorKind = "no_text"
	KindOCR         ErrorKind = "ocr"
	KindPersistence ErrorKind = "persistence"
)

// Sentinels an OCR gateway wraps so the pipeline can tell outcomes apart.
var (
	ErrNoText     = errors.New("no text detected in image")
	ErrImageFetch = errors.New("image fetch failed")
)

// Error is a terminal pipeline failure.
type Error struct {
	Kind    ErrorKind
	Stage   Stage
	Message string
	Err     error
}

func newError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Code maps the kind onto the API error taxonomy.
func (e *Error) Code() pkgerrors.Code {
	switch e.Kind {
	case KindValidation:
		return pkgerrors.CodeValidation
	case KindNoText:
		return pkgerrors.CodeUnprocessable
	default:
		return pkgerrors.CodeDependency
	}
}

// API converts the failure into the typed error rendered by the HTTP layer.
func (e *Error) API() *pkgerrors.Error {
	return pkgerrors.Wrap(e.Code(), e, e.Message).WithDetails(map[string]any{
		"kind":  string(e.Kind),
		"stage": string(e.Stage),
	})
}

// KindOf returns the kind of a pipeline error, or "" for anything else.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
