package domain

import (
	"fmt"
	"strings"
)

// Role is the authorization tier of an account. Tiers are ordered:
// FISHER < GOODFISHER < GREATFISHER < ADMIN.
type Role int

const (
	RoleFisher Role = iota + 1
	RoleGoodFisher
	RoleGreatFisher
	RoleAdmin
)

var roleNames = map[Role]string{
	RoleFisher:      "FISHER",
	RoleGoodFisher:  "GOODFISHER",
	RoleGreatFisher: "GREATFISHER",
	RoleAdmin:       "ADMIN",
}

// assignableRoles maps the tokens accepted by role elevation. ADMIN is
// deliberately absent.
var assignableRoles = map[string]Role{
	"FISHER":      RoleFisher,
	"GOODFISHER":  RoleGoodFisher,
	"GREATFISHER": RoleGreatFisher,
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// IsValid reports whether r is a member of the enumeration.
func (r Role) IsValid() bool {
	_, ok := roleNames[r]
	return ok
}

// AtLeast reports whether r ranks at or above min.
func (r Role) AtLeast(min Role) bool {
	return r.IsValid() && r >= min
}

// ParseRole converts a stored role name back into a Role. Names are matched
// exactly; anything else is rejected.
func ParseRole(name string) (Role, error) {
	for r, n := range roleNames {
		if n == name {
			return r, nil
		}
	}
	return 0, NotFound(EntityRole, name)
}

// AssignableRole maps a caller-supplied token (case-insensitive) onto a role
// that may be granted through elevation.
func AssignableRole(token string) (Role, error) {
	if r, ok := assignableRoles[strings.ToUpper(strings.TrimSpace(token))]; ok {
		return r, nil
	}
	return 0, NotFound(EntityRole, token)
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("marshal role: invalid value %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
