package auth

import (
	"github.com/cupshup/ops-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenClaims is the verified view of a token minted by the auth backend.
// Subject carries the user id. Vendor and client users carry the tenant they
// belong to.
type AccessTokenClaims struct {
	Role     enums.Role `json:"role"`
	VendorID *uuid.UUID `json:"vendor_id,omitempty"`
	ClientID *uuid.UUID `json:"client_id,omitempty"`
	Email    string     `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *AccessTokenClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}
