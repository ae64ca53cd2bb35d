package domain

import "time"

// UserRole enumerates application-wide roles.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPER_ADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleManager    UserRole = "MANAGER"
	RoleUser       UserRole = "USER"
)

// ValidUserRole reports whether the value is a known role.
func ValidUserRole(role UserRole) bool {
	switch role {
	case RoleSuperAdmin, RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

// User is the domain model for accounts. TeamID is nil until the user is
// accepted into a team; a user belongs to at most one team at a time.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	TeamID       *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
