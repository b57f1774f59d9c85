package auth

import "errors"

var (
	ErrInvalidInput         = errors.New("auth: invalid input")
	ErrNotFound             = errors.New("auth: not found")
	ErrConflict             = errors.New("auth: already exists")
	ErrAuthenticationFailed = errors.New("auth: authentication failed")
	ErrInvalidToken         = errors.New("auth: invalid token")
	ErrUnauthorized         = errors.New("auth: unauthorized")
)
