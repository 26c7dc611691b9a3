package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/halolight/platform/internal/core/domain"
)

type stubResolver struct {
	set domain.PatternSet
	err error
}

func (s *stubResolver) EffectiveSet(ctx context.Context, userID string) (domain.PatternSet, error) {
	return s.set, s.err
}

func (s *stubResolver) HasCapability(ctx context.Context, userID string, cap domain.Capability) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.set.Allows(cap), nil
}

func newAuthedContext(e *echo.Echo, identity domain.Identity) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), identity))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthorize_Allow(t *testing.T) {
	e := echo.New()
	resolver := &stubResolver{set: domain.NewPatternSet(domain.MustPattern("documents:*"))}
	c, rec := newAuthedContext(e, domain.Identity{UserID: "u1"})

	called := false
	handler := Authorize(resolver, domain.Cap("documents", "delete"), zerolog.Nop())(func(c echo.Context) error {
		called = true
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

func TestAuthorize_Deny(t *testing.T) {
	e := echo.New()
	resolver := &stubResolver{set: domain.NewPatternSet(domain.MustPattern("users:view"))}
	c, _ := newAuthedContext(e, domain.Identity{UserID: "u1"})

	handler := Authorize(resolver, domain.Cap("documents", "delete"), zerolog.Nop())(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAuthorize_DenyIsLogged(t *testing.T) {
	e := echo.New()
	resolver := &stubResolver{set: domain.NewPatternSet()}
	c, _ := newAuthedContext(e, domain.Identity{UserID: "u1"})

	var buf bytes.Buffer
	log := zerolog.New(&buf)

	handler := Authorize(resolver, domain.Cap("documents", "delete"), log)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	line := buf.String()
	for _, want := range []string{`"user_id":"u1"`, `"capability":"documents:delete"`, `"result":"deny"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("deny log missing %s: %s", want, line)
		}
	}
}

func TestAuthorize_EmptySetDenies(t *testing.T) {
	e := echo.New()
	resolver := &stubResolver{set: domain.NewPatternSet()}
	c, _ := newAuthedContext(e, domain.Identity{UserID: "u1"})

	handler := Authorize(resolver, domain.Cap("documents", "view"), zerolog.Nop())(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAuthorize_NoIdentity(t *testing.T) {
	e := echo.New()
	resolver := &stubResolver{set: domain.NewPatternSet(domain.MustPattern("*"))}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Authorize(resolver, domain.Cap("documents", "view"), zerolog.Nop())(func(c echo.Context) error {
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

func TestAuthorize_ResolverError(t *testing.T) {
	e := echo.New()
	wantErr := errors.New("directory down")
	resolver := &stubResolver{err: wantErr}
	c, _ := newAuthedContext(e, domain.Identity{UserID: "u1"})

	handler := Authorize(resolver, domain.Cap("documents", "view"), zerolog.Nop())(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	// Resolver failure is an error, never a silent allow.
	if err := handler(c); !errors.Is(err, wantErr) {
		t.Fatalf("expected resolver error, got %v", err)
	}
}
