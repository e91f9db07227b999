package handler

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vaultguard/credential-vault/internal/api/middleware"
	"github.com/vaultguard/credential-vault/internal/core/domain"
	"github.com/vaultguard/credential-vault/internal/core/ports"
)

// newContext builds an echo context for method/target with an optional JSON
// body. A non-empty userID is injected the way the Auth middleware does.
func newContext(method, target, body, userID string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set(middleware.CtxUserID, userID)
	}
	return c, rec
}

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, in ports.LoginInput) (string, *domain.User, error)
	meFn       func(ctx context.Context, userID string) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, in ports.LoginInput) (string, *domain.User, error) {
	return s.loginFn(ctx, in)
}

func (s *stubAuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.meFn(ctx, userID)
}

type stubVaultService struct {
	listFn   func(ctx context.Context, userID string) ([]*domain.CredentialEntry, error)
	getFn    func(ctx context.Context, userID, entryID string) (*domain.CredentialEntry, error)
	createFn func(ctx context.Context, in ports.CreateEntryInput) (*domain.CredentialEntry, error)
	updateFn func(ctx context.Context, in ports.UpdateEntryInput) (*domain.CredentialEntry, error)
	deleteFn func(ctx context.Context, userID, entryID string, meta ports.RequestMeta) (bool, error)
	statsFn  func(ctx context.Context, userID string) (*domain.PasswordStats, error)
}

func (s *stubVaultService) List(ctx context.Context, userID string) ([]*domain.CredentialEntry, error) {
	return s.listFn(ctx, userID)
}

func (s *stubVaultService) Get(ctx context.Context, userID, entryID string) (*domain.CredentialEntry, error) {
	return s.getFn(ctx, userID, entryID)
}

func (s *stubVaultService) Create(ctx context.Context, in ports.CreateEntryInput) (*domain.CredentialEntry, error) {
	return s.createFn(ctx, in)
}

func (s *stubVaultService) Update(ctx context.Context, in ports.UpdateEntryInput) (*domain.CredentialEntry, error) {
	return s.updateFn(ctx, in)
}

func (s *stubVaultService) Delete(ctx context.Context, userID, entryID string, meta ports.RequestMeta) (bool, error) {
	return s.deleteFn(ctx, userID, entryID, meta)
}

func (s *stubVaultService) Stats(ctx context.Context, userID string) (*domain.PasswordStats, error) {
	return s.statsFn(ctx, userID)
}

type stubAlertService struct {
	alerts   []*domain.SecurityAlert
	resolved map[string]bool
	open     int64
}

func (s *stubAlertService) EvaluateEntry(context.Context, *domain.CredentialEntry) error { return nil }

func (s *stubAlertService) ForgetEntry(context.Context, string, string) error { return nil }

func (s *stubAlertService) ScanVault(context.Context, string) error { return nil }

func (s *stubAlertService) List(_ context.Context, _ string, includeResolved bool) ([]*domain.SecurityAlert, error) {
	var out []*domain.SecurityAlert
	for _, a := range s.alerts {
		if includeResolved || !a.Resolved {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubAlertService) Resolve(_ context.Context, _, alertID string) (bool, error) {
	if s.resolved == nil {
		s.resolved = map[string]bool{}
	}
	for _, a := range s.alerts {
		if a.ID == alertID && !a.Resolved && !s.resolved[alertID] {
			s.resolved[alertID] = true
			return true, nil
		}
	}
	return false, nil
}

func (s *stubAlertService) CountUnresolved(context.Context, string) (int64, error) {
	return s.open, nil
}

type stubDedup struct{ seen map[string]bool }

func (d *stubDedup) Acquire(_ context.Context, userID string) (bool, error) {
	if d.seen == nil {
		d.seen = map[string]bool{}
	}
	if d.seen[userID] {
		return false, nil
	}
	d.seen[userID] = true
	return true, nil
}

func (d *stubDedup) Release(_ context.Context, userID string) error {
	delete(d.seen, userID)
	return nil
}

type stubQueue struct {
	jobs []ports.ScanJob
	full bool
}

func (q *stubQueue) Enqueue(job ports.ScanJob) bool {
	if q.full {
		return false
	}
	q.jobs = append(q.jobs, job)
	return true
}

// httpCode returns the status of an *echo.HTTPError, or 0.
func httpCode(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return 0
}
