package model

import "time"

// Role is the closed set of user roles. Free-form role strings from the
// outside world are converted through ParseRole at the boundary.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole maps an external role string onto the closed enum. Unknown
// values fall back to RoleUser.
func ParseRole(s string) Role {
	if s == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleUser
}

// User mirrors the 'users' table. The password hash never leaves the
// repository layer in API responses; handlers serialize the exported
// json fields only.
type User struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
