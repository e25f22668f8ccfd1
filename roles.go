package auth

// UserRole is the user's role
type UserRole = string

const (
	// RoleGuest is a visitor without an account
	RoleGuest UserRole = "guest"
	// RoleBuyer is a marketplace customer
	RoleBuyer UserRole = "buyer"
	// RoleSeller lists products on the marketplace
	RoleSeller UserRole = "seller"
	// RoleAdmin operates the marketplace back office
	RoleAdmin UserRole = "admin"
)

// IsValidRole checks if the role is one of the predefined roles
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleGuest, RoleBuyer, RoleSeller, RoleAdmin:
		return true
	default:
		return false
	}
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleGuest,
		RoleBuyer,
		RoleSeller,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a UserRole
func ParseRole(roleStr string) (UserRole, bool) {
	return roleStr, IsValidRole(roleStr)
}
