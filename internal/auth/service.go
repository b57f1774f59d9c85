package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gatherly.org/internal/cache"
)

const (
	usersAllCacheKey = "users:all"
	userCacheTTL     = cache.DefaultTTL
)

func userCacheKey(id int64) string {
	return fmt.Sprintf("user:%d", id)
}

// Service orchestrates registration, login, request authentication, and
// user administration. It is stateless per call; the only shared state is
// the codec's read-only secret, so it is safe for concurrent use.
type Service struct {
	store UserStore
	codec *TokenCodec
	cache cache.Cache

	// liveRoles re-reads the user record on every authenticated request,
	// trading a store round-trip for role freshness. Off by default: the
	// role embedded in the signed token is authoritative until expiry.
	liveRoles bool
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithCache enables read-through caching of user records.
func WithCache(c cache.Cache) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithLiveRoleLookup resolves the principal's role from the store on each
// request instead of trusting the role claim embedded at issuance.
func WithLiveRoleLookup() ServiceOption {
	return func(s *Service) { s.liveRoles = true }
}

// NewService constructs the authenticator.
func NewService(store UserStore, codec *TokenCodec, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: user store is required")
	}
	if codec == nil {
		return nil, errors.New("auth: token codec is required")
	}
	s := &Service{store: store, codec: codec, cache: cache.Noop{}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Codec exposes the token codec for callers that only verify tokens.
func (s *Service) Codec() *TokenCodec {
	return s.codec
}

// Register creates a new identity. The password is hashed exactly once,
// here. The role set defaults to ATTENDEE and the organization field is
// meaningful only for organizers.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	roles, err := ParseRoles(in.Roles)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		roles = []Role{RoleAttendee}
	}
	organization := strings.TrimSpace(in.Organization)
	if !containsRole(roles, RoleOrganizer) {
		organization = ""
	}

	// Best-effort pre-check; the store's unique index still decides under
	// concurrent registration.
	exists, err := s.store.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(in.Phone),
		Organization: organization,
		ProfilePic:   strings.TrimSpace(in.ProfilePic),
		Roles:        roles,
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, err
	}

	s.invalidateUser(ctx, user.ID)
	return user, nil
}

// Login verifies credentials and mints a bearer token. Unknown email and
// wrong password are deliberately indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return LoginResult{}, ErrAuthenticationFailed
	}
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return LoginResult{}, ErrAuthenticationFailed
		}
		return LoginResult{}, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return LoginResult{}, ErrAuthenticationFailed
	}

	role := PrimaryRole(user.Roles)
	token, expiresAt, err := s.codec.Issue(user.Email, role)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, Role: role, ExpiresAt: expiresAt}, nil
}

// Authenticate verifies a bearer token and resolves the principal. The role
// comes from the signed claim unless live role lookup is enabled.
func (s *Service) Authenticate(ctx context.Context, token string) (Principal, error) {
	claims, err := s.codec.Verify(token)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}
	user, err := s.store.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrInvalidToken
		}
		return Principal{}, err
	}

	role := Role(claims.Role)
	if s.liveRoles || claims.Role == "" {
		role = PrimaryRole(user.Roles)
	}
	return Principal{UserID: user.ID, Email: user.Email, Role: role}, nil
}

// GetUser returns a user by id, read through the cache.
func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	var cached User
	if found, err := s.cache.GetJSON(ctx, userCacheKey(id), &cached); err == nil && found {
		return &cached, nil
	}
	user, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	_ = s.cache.SetJSON(ctx, userCacheKey(id), user, userCacheTTL)
	return user, nil
}

// ListUsers returns all users, read through the cache.
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	var cached []*User
	if found, err := s.cache.GetJSON(ctx, usersAllCacheKey, &cached); err == nil && found {
		return cached, nil
	}
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.cache.SetJSON(ctx, usersAllCacheKey, users, userCacheTTL)
	return users, nil
}

// UpdateUser applies a partial profile update. Role-set changes re-derive
// the organization invariant; a new password is re-hashed here.
func (s *Service) UpdateUser(ctx context.Context, id int64, in UpdateInput) (*User, error) {
	user, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		user.Name = name
	}
	if in.Email != nil {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return nil, err
		}
		user.Email = email
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
		}
		hash, err := HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.ProfilePic != nil {
		user.ProfilePic = strings.TrimSpace(*in.ProfilePic)
	}
	if in.Roles != nil {
		roles, err := ParseRoles(in.Roles)
		if err != nil {
			return nil, err
		}
		if len(roles) == 0 {
			roles = []Role{RoleAttendee}
		}
		user.Roles = roles
	}
	if in.Organization != nil {
		user.Organization = strings.TrimSpace(*in.Organization)
	}
	if !user.HasRole(RoleOrganizer) {
		user.Organization = ""
	}

	if err := s.store.Update(ctx, user); err != nil {
		return nil, err
	}
	s.invalidateUser(ctx, id)
	_ = s.cache.SetJSON(ctx, userCacheKey(id), user, userCacheTTL)
	return user, nil
}

// DeleteUser removes the identity. No soft-delete semantics.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateUser(ctx, id)
	return nil
}

func (s *Service) invalidateUser(ctx context.Context, id int64) {
	_ = s.cache.Delete(ctx, userCacheKey(id), usersAllCacheKey)
}

func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(strings.ToLower(raw))
	if email == "" || !strings.Contains(email, "@") {
		return "", fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	return email, nil
}
