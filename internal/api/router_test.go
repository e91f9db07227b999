package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/vaultguard/credential-vault/internal/core/domain"
	"github.com/vaultguard/credential-vault/internal/core/ports"
	"github.com/vaultguard/credential-vault/internal/core/service"
)

const routerSecret = "router-secret"

type blockedAuth struct{ ports.AuthService }

func (blockedAuth) Login(context.Context, ports.LoginInput) (string, *domain.User, error) {
	return "", nil, &domain.RateLimitError{RetryAfter: 15 * time.Minute}
}

type emptyVault struct{ ports.VaultService }

func (emptyVault) List(context.Context, string) ([]*domain.CredentialEntry, error) { return nil, nil }

func (emptyVault) Get(context.Context, string, string) (*domain.CredentialEntry, error) {
	return nil, domain.ErrNotFound
}

func newTestRouter() *echo.Echo {
	return NewRouter(Deps{
		JWTSecret: routerSecret,
		Log:       zerolog.Nop(),
		Metrics:   prometheus.NewRegistry(),
		Auth:      blockedAuth{},
		Vault:     emptyVault{},
		Generator: service.NewGenerator(),
	})
}

func bearer(t *testing.T, sub string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(routerSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + s
}

func serve(e *echo.Echo, method, target, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRouter_RequiresToken(t *testing.T) {
	e := newTestRouter()

	if rec := serve(e, http.MethodGet, "/v1/passwords", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := serve(e, http.MethodGet, "/v1/passwords", bearer(t, "u1"), ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_NotFoundEntry(t *testing.T) {
	e := newTestRouter()

	rec := serve(e, http.MethodGet, "/v1/passwords/missing", bearer(t, "u1"), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error":"not found"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestRouter_LoginRateLimited(t *testing.T) {
	e := newTestRouter()

	rec := serve(e, http.MethodPost, "/auth/login", "", `{"username":"alice","password":"x"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "900" {
		t.Fatalf("expected Retry-After header, got %q", rec.Header().Get("Retry-After"))
	}
}

func TestRouter_GenerateAndProbes(t *testing.T) {
	e := newTestRouter()

	if rec := serve(e, http.MethodPost, "/v1/generate", bearer(t, "u1"), `{"length":20}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from generator, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := serve(e, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from liveness, got %d", rec.Code)
	}
	if rec := serve(e, http.MethodGet, "/metrics", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics, got %d", rec.Code)
	}
}
