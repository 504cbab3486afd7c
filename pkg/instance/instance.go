// Package instance names the running process for lock ownership and logs.
package instance

import (
	"os"
	"strings"
)

const fallbackID = "cupshup-0"

// ID returns CUPSHUP_INSTANCE_ID, then the Cloud Run revision, then the
// hostname.
func ID() string {
	for _, key := range []string{"CUPSHUP_INSTANCE_ID", "K_REVISION"} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}

// Owner tags a lock token with the instance that took it.
func Owner(token string) string {
	return ID() + ":" + token
}
