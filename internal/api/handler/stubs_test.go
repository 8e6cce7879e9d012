package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ourpoint/fisher-accounts/internal/api/middleware"
	"github.com/ourpoint/fisher-accounts/internal/core/domain"
	"github.com/ourpoint/fisher-accounts/internal/core/ports"
)

type stubAccountService struct {
	registerFn       func(ctx context.Context, email, password, displayName string) (*domain.Account, error)
	renameFn         func(ctx context.Context, id domain.AccountID, password, newName string) (*domain.Account, error)
	changePasswordFn func(ctx context.Context, id domain.AccountID, password, newPassword string) (*domain.Account, error)
	removeFn         func(ctx context.Context, id domain.AccountID, email, password string) error
	elevateFn        func(ctx context.Context, actorID domain.AccountID, targetName, roleToken string) (*domain.Account, error)
	findByIDFn       func(ctx context.Context, id domain.AccountID) (domain.Account, bool, error)
	findByEmailFn    func(ctx context.Context, email string) (domain.Account, bool, error)
	findByNameFn     func(ctx context.Context, name string) (domain.Account, bool, error)
}

var _ ports.AccountService = (*stubAccountService)(nil)

func (s *stubAccountService) Register(ctx context.Context, email, password, displayName string) (*domain.Account, error) {
	return s.registerFn(ctx, email, password, displayName)
}

func (s *stubAccountService) Authenticate(context.Context, string, string) (*domain.Account, error) {
	panic("not used by handlers")
}

func (s *stubAccountService) RenameDisplay(ctx context.Context, id domain.AccountID, password, newName string) (*domain.Account, error) {
	return s.renameFn(ctx, id, password, newName)
}

func (s *stubAccountService) ChangePassword(ctx context.Context, id domain.AccountID, password, newPassword string) (*domain.Account, error) {
	return s.changePasswordFn(ctx, id, password, newPassword)
}

func (s *stubAccountService) Remove(ctx context.Context, id domain.AccountID, email, password string) error {
	return s.removeFn(ctx, id, email, password)
}

func (s *stubAccountService) ElevateRole(ctx context.Context, actorID domain.AccountID, targetName, roleToken string) (*domain.Account, error) {
	return s.elevateFn(ctx, actorID, targetName, roleToken)
}

func (s *stubAccountService) FindByID(ctx context.Context, id domain.AccountID) (domain.Account, bool, error) {
	return s.findByIDFn(ctx, id)
}

func (s *stubAccountService) FindByEmail(ctx context.Context, email string) (domain.Account, bool, error) {
	return s.findByEmailFn(ctx, email)
}

func (s *stubAccountService) FindByName(ctx context.Context, name string) (domain.Account, bool, error) {
	return s.findByNameFn(ctx, name)
}

type stubAuthService struct {
	loginFn   func(ctx context.Context, email, password string) (*ports.TokenPair, *domain.Account, error)
	refreshFn func(ctx context.Context, refreshToken string) (*ports.TokenPair, *domain.Account, error)
	logoutFn  func(ctx context.Context, refreshToken string) error
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.TokenPair, *domain.Account, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Refresh(ctx context.Context, refreshToken string) (*ports.TokenPair, *domain.Account, error) {
	return s.refreshFn(ctx, refreshToken)
}

func (s *stubAuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.logoutFn(ctx, refreshToken)
}

// newContext builds an echo context with the validator installed. A non-zero
// caller simulates the Auth middleware having run.
func newContext(method, target, body string, caller domain.AccountID) (echo.Context, *httptest.ResponseRecorder) {
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
	if !caller.IsZero() {
		c.Set(middleware.ContextAccountID, caller)
		c.Set(middleware.ContextRole, domain.RoleFisher)
	}
	return c, rec
}
