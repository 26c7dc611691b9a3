package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/halolight/platform/internal/core/domain"
	"github.com/halolight/platform/internal/core/ports"
)

type stubSessionManager struct {
	verifyFn func(token string) (domain.Identity, error)
}

func (s *stubSessionManager) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, domain.TokenPair, error) {
	return nil, domain.TokenPair{}, nil
}

func (s *stubSessionManager) Login(ctx context.Context, email, password string) (*domain.User, domain.TokenPair, error) {
	return nil, domain.TokenPair{}, nil
}

func (s *stubSessionManager) VerifyAccess(token string) (domain.Identity, error) {
	return s.verifyFn(token)
}

func (s *stubSessionManager) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	return domain.TokenPair{}, nil
}

func (s *stubSessionManager) Logout(ctx context.Context, sessionID string) error  { return nil }
func (s *stubSessionManager) Revoke(ctx context.Context, sessionID string) error  { return nil }
func (s *stubSessionManager) RevokeAllForUser(ctx context.Context, userID string) error {
	return nil
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	stub := &stubSessionManager{
		verifyFn: func(token string) (domain.Identity, error) {
			if token != "good-token" {
				t.Fatalf("unexpected token: %s", token)
			}
			return domain.Identity{UserID: "u1", SessionID: "s1", Generation: 3}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(stub)(func(c echo.Context) error {
		called = true
		identity, ok := IdentityFrom(c.Request().Context())
		if !ok {
			t.Fatalf("identity not on request context")
		}
		if identity.UserID != "u1" || identity.SessionID != "s1" || identity.Generation != 3 {
			t.Fatalf("unexpected identity: %+v", identity)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	e := echo.New()
	stub := &stubSessionManager{
		verifyFn: func(token string) (domain.Identity, error) {
			t.Fatalf("should not verify")
			return domain.Identity{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Auth(stub)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	e := echo.New()
	stub := &stubSessionManager{
		verifyFn: func(token string) (domain.Identity, error) {
			t.Fatalf("should not verify")
			return domain.Identity{}, nil
		},
	}

	for _, header := range []string{"Token abc", "Bearer", "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		handler := Auth(stub)(func(c echo.Context) error {
			t.Fatalf("should not reach next")
			return nil
		})

		if err := handler(c); err != nil {
			e.HTTPErrorHandler(err, c)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	e := echo.New()
	stub := &stubSessionManager{
		verifyFn: func(token string) (domain.Identity, error) {
			return domain.Identity{}, domain.ErrTokenExpired
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer stale")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Auth(stub)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	err := handler(c)
	if err == nil {
		t.Fatalf("expected error")
	}
	if err != domain.ErrTokenExpired {
		t.Fatalf("expected ErrTokenExpired to propagate, got %v", err)
	}
}
