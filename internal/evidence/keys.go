package evidence

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// NewKey names an evidence object "<uuid>.<ext>". Keys are unique per call, so
// uploading the same bytes twice yields two objects.
func NewKey(newID func() uuid.UUID, ext string) string {
	if newID == nil {
		newID = uuid.New
	}
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		return newID().String()
	}
	return newID().String() + "." + ext
}

// fileExt returns the lower-cased extension of name without the dot.
func fileExt(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(strings.TrimSpace(name))), ".")
}

// resolveContentType prefers a declared image type, then the extension, then
// the sniffed bytes. sniffedExt is the extension matching the sniffed image
// type, if any. ok is false when the payload is not an image.
func resolveContentType(declared, ext string, head []byte) (contentType string, sniffedExt string, ok bool) {
	detected := mimetype.Detect(head)
	isImage := strings.HasPrefix(detected.String(), "image/")
	if isImage {
		sniffedExt = strings.TrimPrefix(detected.Extension(), ".")
	}

	if mt, _, err := mime.ParseMediaType(declared); err == nil && strings.HasPrefix(mt, "image/") {
		return mt, sniffedExt, true
	}
	if ext != "" {
		if byExt := mime.TypeByExtension("." + ext); strings.HasPrefix(byExt, "image/") {
			mt, _, _ := mime.ParseMediaType(byExt)
			return mt, sniffedExt, true
		}
	}
	if isImage {
		return detected.String(), sniffedExt, true
	}
	return "", "", false
}
