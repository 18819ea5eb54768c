package models

import "time"

// Role is the application-level access role attached to every profile.
type Role string

const (
	RoleEmployee  Role = "employee"
	RoleCEO       Role = "ceo"
	RoleDeveloper Role = "developer"
)

// NormalizeRole maps an arbitrary role string onto the closed role set.
// Anything outside {employee, ceo, developer} resolves to employee so an
// unrecognized value can never grant elevated access. Normalizing twice
// yields the same result as once.
func NormalizeRole(s string) Role {
	switch Role(s) {
	case RoleEmployee, RoleCEO, RoleDeveloper:
		return Role(s)
	default:
		return RoleEmployee
	}
}

// DefaultDepartment returns the department assigned to a freshly created
// profile: developers land in IT, everyone else in General.
func DefaultDepartment(r Role) string {
	if r == RoleDeveloper {
		return "IT"
	}
	return "General"
}

// Profile is the application identity record keyed by the auth subject id.
// last_login and the session_* columns are backend-managed; the resolver
// reads them but treats session_expires_at as authoritative for expiry even
// when the auth provider's own token is still valid.
type Profile struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Role             Role       `json:"role"`
	Department       string     `json:"department"`
	LastLogin        *time.Time `json:"lastLogin,omitempty"`
	SessionCreatedAt *time.Time `json:"sessionCreatedAt,omitempty"`
	SessionExpiresAt *time.Time `json:"sessionExpiresAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}
