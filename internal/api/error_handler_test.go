package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/halolight/platform/internal/core/domain"
)

func TestHTTPErrorHandler_DomainMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrUnauthenticated, http.StatusUnauthorized},
		{domain.ErrTokenExpired, http.StatusUnauthorized},
		{domain.ErrTokenInvalid, http.StatusUnauthorized},
		{domain.ErrTokenReused, http.StatusUnauthorized},
		{domain.ErrSessionRevoked, http.StatusUnauthorized},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrAccountNotActive, http.StatusForbidden},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrUserNotFound, http.StatusNotFound},
		{domain.ErrRoleNotFound, http.StatusNotFound},
		{domain.ErrPermissionNotFound, http.StatusNotFound},
		{domain.ErrResourceNotFound, http.StatusNotFound},
		{domain.ErrUserExists, http.StatusConflict},
		{domain.ErrRoleExists, http.StatusConflict},
		{domain.ErrPermissionExists, http.StatusConflict},
		{domain.ErrRoleInUse, http.StatusConflict},
		{domain.ErrPermissionInUse, http.StatusConflict},
		{domain.ErrMalformedPattern, http.StatusBadRequest},
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{errors.New("something broke"), http.StatusInternalServerError},
	}

	e := echo.New()
	handle := NewHTTPErrorHandler(zerolog.Nop())

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		handle(tc.err, c)

		if rec.Code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%v: invalid json: %v", tc.err, err)
		}
		if body["error"] == "" {
			t.Fatalf("%v: empty error message", tc.err)
		}
	}
}

func TestHTTPErrorHandler_WrappedError(t *testing.T) {
	e := echo.New()
	handle := NewHTTPErrorHandler(zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handle(fmt.Errorf("refresh: %w", domain.ErrTokenReused), c)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrapped sentinel: expected 401, got %d", rec.Code)
	}
}

func TestHTTPErrorHandler_UnexpectedErrorIsOpaque(t *testing.T) {
	e := echo.New()
	handle := NewHTTPErrorHandler(zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handle(errors.New("dsn=mongodb://secret@host"), c)

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["error"] != "internal server error" {
		t.Fatalf("internal details leaked: %q", body["error"])
	}
}
