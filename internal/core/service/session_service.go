package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/halolight/platform/internal/core/domain"
	"github.com/halolight/platform/internal/core/ports"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 14 * 24 * time.Hour
)

// SessionConfig tunes token issuance and verification.
type SessionConfig struct {
	// Secret signs access tokens (HS256).
	Secret string
	// AccessTTL bounds access-token lifetime; defaults to 15 minutes.
	AccessTTL time.Duration
	// RefreshTTL bounds the session family lifetime; defaults to 14 days.
	RefreshTTL time.Duration
	// ClockSkew is the only tolerated drift when verifying expiry.
	ClockSkew time.Duration
	// Now overrides the clock; nil means time.Now. Injected so expiry logic
	// is deterministic under test.
	Now func() time.Time
}

// accessClaims is the signed content of an access token. The refresh token
// never appears here. It is opaque and resolvable only via the session
// store.
type accessClaims struct {
	SessionID  string `json:"sid"`
	Generation int64  `json:"gen"`
	jwt.RegisteredClaims
}

type sessionService struct {
	sessions   ports.SessionRepository
	users      ports.UserRepository
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	skew       time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

// NewSessionManager returns the SessionManager implementation backed by the
// given session and user stores.
func NewSessionManager(sessions ports.SessionRepository, users ports.UserRepository, cfg SessionConfig, log zerolog.Logger) ports.SessionManager {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &sessionService{
		sessions:   sessions,
		users:      users,
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		skew:       cfg.ClockSkew,
		now:        cfg.Now,
		log:        log,
	}
}

func (s *sessionService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, domain.TokenPair, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	input.Username = strings.TrimSpace(input.Username)
	if input.Email == "" || input.Username == "" || input.Password == "" {
		return nil, domain.TokenPair{}, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.TokenPair{}, err
	}

	now := s.now().UTC()
	user, err := s.users.Create(ctx, &domain.User{
		ID:           uuid.NewString(),
		Email:        input.Email,
		Username:     input.Username,
		Name:         input.Name,
		PasswordHash: string(hash),
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, domain.TokenPair{}, err
	}

	pair, err := s.issue(ctx, user.ID)
	if err != nil {
		return nil, domain.TokenPair{}, err
	}
	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	return user, pair, nil
}

func (s *sessionService) Login(ctx context.Context, email, password string) (*domain.User, domain.TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, domain.TokenPair{}, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.TokenPair{}, domain.ErrInvalidCredentials
		}
		return nil, domain.TokenPair{}, err
	}
	if !user.CanAuthenticate() {
		return nil, domain.TokenPair{}, domain.ErrAccountNotActive
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.TokenPair{}, domain.ErrInvalidCredentials
	}

	pair, err := s.issue(ctx, user.ID)
	if err != nil {
		return nil, domain.TokenPair{}, err
	}
	s.log.Info().Str("user_id", user.ID).Msg("login succeeded")
	return user, pair, nil
}

// issue opens a new session family at generation 1 and mints its first pair.
func (s *sessionService) issue(ctx context.Context, userID string) (domain.TokenPair, error) {
	now := s.now().UTC()
	secret, hash, err := newRefreshSecret()
	if err != nil {
		return domain.TokenPair{}, err
	}

	session := &domain.Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		Generation:  1,
		RefreshHash: hash,
		IssuedAt:    now,
		ExpiresAt:   now.Add(s.refreshTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return domain.TokenPair{}, err
	}

	access, accessExp, err := s.signAccess(userID, session.ID, session.Generation, now)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     session.ID + "." + secret,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *sessionService) VerifyAccess(token string) (domain.Identity, error) {
	claims := &accessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now().UTC() }), jwt.WithLeeway(s.skew), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, domain.ErrTokenExpired
		}
		return domain.Identity{}, domain.ErrTokenInvalid
	}
	if !parsed.Valid || claims.Subject == "" || claims.SessionID == "" {
		return domain.Identity{}, domain.ErrTokenInvalid
	}
	return domain.Identity{
		UserID:     claims.Subject,
		SessionID:  claims.SessionID,
		Generation: claims.Generation,
		IssuedAt:   claims.IssuedAt.Time,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}

func (s *sessionService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	sessionID, secret, err := splitRefreshToken(refreshToken)
	if err != nil {
		return domain.TokenPair{}, domain.ErrTokenInvalid
	}
	hash := hashRefreshSecret(secret)
	now := s.now().UTC()

	session, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.TokenPair{}, domain.ErrTokenInvalid
		}
		return domain.TokenPair{}, err
	}
	if session.Revoked {
		return domain.TokenPair{}, domain.ErrSessionRevoked
	}
	if !now.Before(session.ExpiresAt) {
		return domain.TokenPair{}, domain.ErrTokenExpired
	}
	if session.RefreshHash != hash {
		// A secret from the superseded generation means the token was
		// already redeemed: treat it as a compromise signal and kill the
		// whole family, not just this request. A secret that never belonged
		// to the family proves nothing (session IDs are readable from any
		// access token) and must not let a bystander revoke the session.
		if session.PrevRefreshHash != "" && session.PrevRefreshHash == hash {
			s.revokeFamily(ctx, sessionID, "refresh token reuse detected")
			return domain.TokenPair{}, domain.ErrTokenReused
		}
		return domain.TokenPair{}, domain.ErrTokenInvalid
	}

	newSecret, newHash, err := newRefreshSecret()
	if err != nil {
		return domain.TokenPair{}, err
	}

	// The store matches (id, generation, hash) and advances the record in a
	// single conditional update. Of two racers on the same generation
	// exactly one lands here successfully; the loser re-reads the record and
	// finds its secret superseded.
	updated, err := s.sessions.Rotate(ctx, sessionID, session.Generation, hash, newHash, now.Add(s.refreshTTL), now)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.TokenPair{}, s.classifyRotateLoss(ctx, sessionID, hash)
		}
		return domain.TokenPair{}, err
	}

	access, accessExp, err := s.signAccess(updated.UserID, updated.ID, updated.Generation, now)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     updated.ID + "." + newSecret,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: updated.ExpiresAt,
	}, nil
}

// classifyRotateLoss re-reads a session after a failed conditional rotate.
// A secret now sitting in the previous-generation slot lost a race against
// its own double redemption, which is the reuse signal; anything else gets
// the verdict a fresh Refresh of the same token would reach.
func (s *sessionService) classifyRotateLoss(ctx context.Context, sessionID, hash string) error {
	session, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.ErrTokenInvalid
		}
		return err
	}
	if session.PrevRefreshHash != "" && session.PrevRefreshHash == hash {
		s.revokeFamily(ctx, sessionID, "concurrent refresh redemption")
		return domain.ErrTokenReused
	}
	if session.Revoked {
		return domain.ErrSessionRevoked
	}
	return domain.ErrTokenInvalid
}

// revokeFamily is a security control, not a response shape: it runs even if
// the caller never inspects the returned error.
func (s *sessionService) revokeFamily(ctx context.Context, sessionID, reason string) {
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("session revocation failed")
		return
	}
	s.log.Warn().Str("session_id", sessionID).Str("reason", reason).Msg("session family revoked")
}

func (s *sessionService) Logout(ctx context.Context, sessionID string) error {
	return s.Revoke(ctx, sessionID)
}

func (s *sessionService) Revoke(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return domain.ErrSessionNotFound
	}
	return s.sessions.Revoke(ctx, sessionID)
}

func (s *sessionService) RevokeAllForUser(ctx context.Context, userID string) error {
	return s.sessions.RevokeAllForUser(ctx, userID)
}

func (s *sessionService) signAccess(userID, sessionID string, generation int64, now time.Time) (string, time.Time, error) {
	exp := now.Add(s.accessTTL)
	claims := accessClaims{
		SessionID:  sessionID,
		Generation: generation,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// newRefreshSecret draws 32 random bytes and returns the opaque secret plus
// the hash stored at rest.
func newRefreshSecret() (secret, hash string, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	secret = base64.RawURLEncoding.EncodeToString(raw)
	return secret, hashRefreshSecret(secret), nil
}

func hashRefreshSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func splitRefreshToken(raw string) (id, secret string, err error) {
	id, secret, ok := strings.Cut(raw, ".")
	if !ok || id == "" || secret == "" {
		return "", "", errors.New("invalid refresh token format")
	}
	return id, secret, nil
}
