package auth

import "strings"

type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

// NormalizeRole maps any casing of a known role to its canonical form.
// Unknown roles fall back to RoleUser.
func NormalizeRole(role string) Role {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "admin":
		return RoleAdmin
	default:
		return RoleUser
	}
}

// HasRole reports an exact role match. Admin does not imply User.
func HasRole(role Role, allowed ...Role) bool {
	for _, candidate := range allowed {
		if strings.EqualFold(string(role), string(candidate)) {
			return true
		}
	}
	return false
}

func IsAdmin(role Role) bool {
	return HasRole(role, RoleAdmin)
}
