package auth

import "time"

// User represents a registered principal.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone,omitempty"`
	Organization string    `json:"organization,omitempty"`
	ProfilePic   string    `json:"profile_pic,omitempty"`
	Roles        []Role    `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasRole reports whether the user's role set contains role.
func (u *User) HasRole(role Role) bool {
	return containsRole(u.Roles, role)
}

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	Phone        string
	Organization string
	ProfilePic   string
	Roles        []string
}

// UpdateInput mutates a subset of a user's profile. Nil fields are untouched.
// A non-nil Roles replaces the role set and re-derives the organization
// invariant; a non-nil Password is re-hashed.
type UpdateInput struct {
	Name         *string
	Email        *string
	Password     *string
	Phone        *string
	Organization *string
	ProfilePic   *string
	Roles        []string
}

// LoginResult is returned to a successfully authenticated caller.
type LoginResult struct {
	Token     string    `json:"token"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}
