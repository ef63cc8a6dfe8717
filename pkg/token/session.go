package token

import (
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// EntityTypeCustomer is the only subject type issued by this service
const EntityTypeCustomer = "customer"

// DefaultSessionExpiry is how long a session token stays valid
const DefaultSessionExpiry = 7 * 24 * time.Hour

// ErrInvalidSessionToken is returned for any session token that fails
// verification. Expired and malformed tokens are distinguished in logs only;
// callers see a single unauthenticated failure.
var ErrInvalidSessionToken = errors.New("invalid session token")

// SessionClaims carries the session token payload
type SessionClaims struct {
	EntityID   string `json:"entity_id"`
	EntityType string `json:"entity_type"`
	jwt.RegisteredClaims
}

// SessionService mints and verifies signed HS256 session tokens for
// authenticated customers.
type SessionService struct {
	secret   []byte
	audience string
	expiry   time.Duration
}

// SessionServiceOption is a function that configures a SessionService
type SessionServiceOption func(*SessionService)

// WithSessionExpiry sets the session token expiry duration
func WithSessionExpiry(expiry time.Duration) SessionServiceOption {
	return func(s *SessionService) {
		s.expiry = expiry
	}
}

// WithAudience sets the session token audience
func WithAudience(audience string) SessionServiceOption {
	return func(s *SessionService) {
		s.audience = audience
	}
}

// NewSessionService creates a new SessionService
func NewSessionService(secret string, options ...SessionServiceOption) *SessionService {
	s := &SessionService{
		secret:   []byte(secret),
		audience: EntityTypeCustomer,
		expiry:   DefaultSessionExpiry,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Generate mints a session token for the given customer id
func (s *SessionService) Generate(customerID string) (string, time.Time, error) {
	now := time.Now().UTC()
	claims := SessionClaims{
		EntityID:   customerID,
		EntityType: EntityTypeCustomer,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   customerID,
			Audience:  jwt.ClaimStrings{s.audience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(s.secret)
	if err != nil {
		slog.Error("Failed to sign session token", "err", err)
		return "", time.Time{}, err
	}
	return ss, claims.ExpiresAt.Time, nil
}

// Parse verifies a session token and returns its claims. It rejects tokens
// with a bad signature, a missing or foreign subject type, or a past expiry.
func (s *SessionService) Parse(tokenStr string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithAudience(s.audience))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			slog.Warn("Session token expired", "err", err)
		} else {
			slog.Warn("Failed to parse session token", "err", err)
		}
		return nil, ErrInvalidSessionToken
	}

	if !token.Valid || claims.EntityID == "" || claims.EntityType != EntityTypeCustomer {
		slog.Warn("Session token claims invalid", "entity_type", claims.EntityType)
		return nil, ErrInvalidSessionToken
	}
	return claims, nil
}
