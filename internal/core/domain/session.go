package domain

import (
	"errors"
	"time"
)

var ErrUnauthenticated = errors.New("authentication required")
var ErrForbidden = errors.New("insufficient permissions")
var ErrTokenExpired = errors.New("access token expired")
var ErrTokenInvalid = errors.New("invalid access token")
var ErrTokenReused = errors.New("refresh token invalid or already redeemed")
var ErrSessionRevoked = errors.New("session revoked")
var ErrSessionNotFound = errors.New("session not found")

// Session is one family of token-pair generations derived from a single
// login. The family moves ACTIVE(gen N) → ACTIVE(gen N+1) on refresh, and
// REVOKED is terminal, reached by logout, admin revocation, or detected
// refresh-token reuse.
// PrevRefreshHash remembers the superseded generation's secret. Reuse
// detection triggers only when a presented secret matches it; a secret that
// never belonged to the family is rejected without side effects, so knowing
// a session ID is not enough to get the family revoked.
type Session struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Generation      int64     `json:"generation"`
	RefreshHash     string    `json:"-"`
	PrevRefreshHash string    `json:"-"`
	IssuedAt        time.Time `json:"issued_at"`
	ExpiresAt       time.Time `json:"expires_at"`
	Revoked         bool      `json:"revoked"`
}

// Identity is the verified claim extracted from an access token. It is what
// crosses from the authorization middleware into resource handlers; raw
// tokens never do.
type Identity struct {
	UserID     string
	SessionID  string
	Generation int64
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// TokenPair is an access/refresh pair sharing a session family.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}
