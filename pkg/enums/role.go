package enums

import "fmt"

// Role is the dashboard role carried in verified access tokens.
type Role string

const (
	RoleCupShup Role = "cupshup"
	RoleVendor  Role = "vendor"
	RoleClient  Role = "client"
)

var validRoles = []Role{
	RoleCupShup,
	RoleVendor,
	RoleClient,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
