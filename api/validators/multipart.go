package validators

import (
	"errors"
	"mime/multipart"
	"net/http"

	pkgerrors "github.com/cupshup/ops-backend/pkg/errors"
)

// multipartMemory is how much of a form is buffered in memory before the
// remainder spills to temporary files.
const multipartMemory = 8 << 20

// ParseMultipartForm bounds the request body by maxBytes and parses it. An
// oversized body maps to payload-too-large.
func ParseMultipartForm(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return pkgerrors.Wrap(pkgerrors.CodeTooLarge, err, "upload too large").WithDetails(map[string]any{"max_bytes": maxBytes})
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	return nil
}

// FormFile returns the uploaded file for field, or nil when none was sent.
func FormFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid file field").WithDetails(map[string]any{"field": field})
	}
	return file, header, nil
}

// Struct runs the shared validator over an already populated value.
func Struct(dest any) error {
	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}
