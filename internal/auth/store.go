package auth

import "context"

// UserStore describes the persistence operations the authenticator needs.
// Implementations must enforce email uniqueness; the service-level existence
// check is only a best-effort pre-check, so Create can still surface
// ErrConflict under a race.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id int64) error
}
