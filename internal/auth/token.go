package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultIssuer        = "gatherly"
	defaultTokenLifetime = 8 * time.Hour

	// issuedAtSkew tolerates small clock drift between issuing and
	// verifying processes.
	issuedAtSkew = 5 * time.Second
)

// Claims is the signed payload of a bearer token.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies signed, time-limited bearer tokens.
// It holds the process-wide secret key injected at construction; all
// methods are safe for concurrent use.
type TokenCodec struct {
	secret   []byte
	issuer   string
	lifetime time.Duration
	now      func() time.Time
}

// CodecOption configures a TokenCodec.
type CodecOption func(*TokenCodec)

// WithLifetime overrides the token lifetime (default 8 hours).
func WithLifetime(d time.Duration) CodecOption {
	return func(c *TokenCodec) {
		if d > 0 {
			c.lifetime = d
		}
	}
}

// WithIssuer overrides the issuer claim.
func WithIssuer(issuer string) CodecOption {
	return func(c *TokenCodec) {
		if strings.TrimSpace(issuer) != "" {
			c.issuer = strings.TrimSpace(issuer)
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewTokenCodec constructs a codec around the given signing secret.
// Rotating the secret invalidates every previously issued token.
func NewTokenCodec(secret string, opts ...CodecOption) (*TokenCodec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	c := &TokenCodec{
		secret:   []byte(secret),
		issuer:   defaultIssuer,
		lifetime: defaultTokenLifetime,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Lifetime returns the configured token lifetime.
func (c *TokenCodec) Lifetime() time.Duration {
	return c.lifetime
}

// Issue signs an HS256 token carrying the subject and role. Expiry is
// strictly issued-at + lifetime.
func (c *TokenCodec) Issue(subject string, role Role) (string, time.Time, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", time.Time{}, fmt.Errorf("%w: subject is required", ErrInvalidInput)
	}

	now := c.now().UTC()
	expiresAt := now.Add(c.lifetime)
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature and required claims. Any structural,
// signature, or expiry failure is reported as ErrInvalidToken.
func (c *TokenCodec) Verify(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return c.now().UTC() }))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if err := c.validateClaims(claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (c *TokenCodec) validateClaims(claims *Claims) error {
	if claims.Issuer != c.issuer {
		return fmt.Errorf("unexpected issuer: %s", claims.Issuer)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return errors.New("subject missing")
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return errors.New("timestamps missing")
	}
	now := c.now().UTC()
	if claims.IssuedAt.Time.After(now.Add(issuedAtSkew)) {
		return errors.New("token issued in the future")
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return errors.New("token expiry precedes issued-at")
	}
	if claims.Role != "" {
		if _, err := ParseRole(claims.Role); err != nil {
			return err
		}
	}
	return nil
}
