package enums

import "fmt"

// AdminRole is stored on admin_users rows.
type AdminRole string

const (
	AdminRoleAdmin      AdminRole = "admin"
	AdminRoleSuperAdmin AdminRole = "super_admin"
)

var validAdminRoles = []AdminRole{
	AdminRoleAdmin,
	AdminRoleSuperAdmin,
}

// String implements fmt.Stringer.
func (a AdminRole) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AdminRole.
func (a AdminRole) IsValid() bool {
	for _, candidate := range validAdminRoles {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAdminRole converts raw input into a AdminRole.
func ParseAdminRole(value string) (AdminRole, error) {
	for _, candidate := range validAdminRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid admin role %q", value)
}
