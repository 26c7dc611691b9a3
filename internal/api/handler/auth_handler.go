package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/halolight/platform/internal/api/metrics"
	"github.com/halolight/platform/internal/core/domain"
	"github.com/halolight/platform/internal/core/ports"
)

type AuthHandler struct {
	sessions ports.SessionManager
	users    ports.UserService
	resolver ports.CapabilityResolver
}

func NewAuthHandler(sessions ports.SessionManager, users ports.UserService, resolver ports.CapabilityResolver) *AuthHandler {
	return &AuthHandler{sessions: sessions, users: users, resolver: resolver}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=64"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type tokenResponse struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type authResponse struct {
	User   *domain.User  `json:"user"`
	Tokens tokenResponse `json:"tokens"`
}

func toTokenResponse(pair domain.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}

// Register creates a new account and opens its first session.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, pair, err := h.sessions.Register(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, authResponse{User: user, Tokens: toTokenResponse(pair)})
}

// Login verifies credentials and issues a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, pair, err := h.sessions.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		case errors.Is(err, domain.ErrAccountNotActive):
			metrics.LoginsTotal.WithLabelValues("not_active").Inc()
		default:
			metrics.LoginsTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, authResponse{User: user, Tokens: toTokenResponse(pair)})
}

// Refresh redeems a refresh token for the next pair in the session family.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	pair, err := h.sessions.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenReused):
			metrics.RefreshesTotal.WithLabelValues("reused").Inc()
			metrics.SessionFamiliesRevokedTotal.Inc()
		case errors.Is(err, domain.ErrTokenExpired):
			metrics.RefreshesTotal.WithLabelValues("expired").Inc()
		default:
			metrics.RefreshesTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	metrics.RefreshesTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, toTokenResponse(pair))
}

// Logout revokes the caller's own session family.
func (h *AuthHandler) Logout(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	if err := h.sessions.Logout(c.Request().Context(), identity.SessionID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type meResponse struct {
	User         *domain.User `json:"user"`
	Capabilities []string     `json:"capabilities"`
}

// Me returns the caller's profile and effective capability set.
func (h *AuthHandler) Me(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	user, err := h.users.Get(ctx, identity.UserID)
	if err != nil {
		return err
	}
	set, err := h.resolver.EffectiveSet(ctx, identity.UserID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, meResponse{User: user, Capabilities: set.Strings()})
}
