package auth

import (
	"fmt"

	"github.com/cupshup/ops-backend/pkg/enums"
	"github.com/google/uuid"
)

// Actor is the caller identity services scope their queries by.
type Actor struct {
	UserID   uuid.UUID
	Role     enums.Role
	VendorID *uuid.UUID
	ClientID *uuid.UUID
}

// ActorFromClaims converts verified claims into an Actor.
func ActorFromClaims(c *AccessTokenClaims) (Actor, error) {
	if c == nil {
		return Actor{}, fmt.Errorf("claims required")
	}
	userID, err := c.UserID()
	if err != nil {
		return Actor{}, fmt.Errorf("invalid subject: %w", err)
	}
	return Actor{UserID: userID, Role: c.Role, VendorID: c.VendorID, ClientID: c.ClientID}, nil
}

func (a Actor) IsStaff() bool { return a.Role == enums.RoleCupShup }

func (a Actor) IsVendor() bool { return a.Role == enums.RoleVendor && a.VendorID != nil }

func (a Actor) IsClient() bool { return a.Role == enums.RoleClient && a.ClientID != nil }
