package domain

import (
	"fmt"
	"strings"
)

// Role is the staff group a user belongs to. The zero value means no role.
type Role string

const (
	RoleNone    Role = ""
	RoleManager Role = "manager"
	RoleSales   Role = "sales"
	RoleSupport Role = "support"
)

// ParseRole converts user input into a Role. The empty string and "none" map to RoleNone.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return RoleNone, nil
	case string(RoleManager):
		return RoleManager, nil
	case string(RoleSales):
		return RoleSales, nil
	case string(RoleSupport):
		return RoleSupport, nil
	default:
		return RoleNone, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	switch r {
	case RoleNone, RoleManager, RoleSales, RoleSupport:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	if r == RoleNone {
		return "none"
	}
	return string(r)
}
