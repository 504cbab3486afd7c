package ocr

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrCredentialsMissing means the credential variable is unset or blank.
var ErrCredentialsMissing = errors.New("vision credentials are not configured")

// ServiceAccount is the part of a service-account key the function checks
// before handing the blob to the Vision client.
type ServiceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	PrivateKey  string `json:"private_key"`
	ClientEmail string `json:"client_email"`
}

// ParseCredentials validates a service-account JSON blob.
func ParseCredentials(raw string) (*ServiceAccount, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrCredentialsMissing
	}
	var sa ServiceAccount
	if err := json.Unmarshal([]byte(raw), &sa); err != nil {
		return nil, fmt.Errorf("vision credentials are not valid JSON: %w", err)
	}

	var missing []string
	if sa.ProjectID == "" {
		missing = append(missing, "project_id")
	}
	if sa.PrivateKey == "" {
		missing = append(missing, "private_key")
	}
	if sa.ClientEmail == "" {
		missing = append(missing, "client_email")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("vision credentials missing %s", strings.Join(missing, ", "))
	}
	return &sa, nil
}
