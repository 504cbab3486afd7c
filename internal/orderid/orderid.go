// Package orderid pulls retail order identifiers out of OCR text.
package orderid

import "regexp"

// pattern matches the word "Order", then at least one colon or whitespace
// character, then an alphanumeric run. Case-insensitive, so "order:abc" matches.
var pattern = regexp.MustCompile(`(?i)Order[:\s]+([A-Z0-9]+)`)

// Pattern returns the expression used by Extract.
func Pattern() string {
	return pattern.String()
}

// Extract returns the capture of the leftmost match, exactly as it appears in
// text. It returns nil when nothing matches; a missing id is not an error.
func Extract(text string) *string {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	id := m[1]
	return &id
}
