package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ourpoint/fisher-accounts/internal/core/domain"
)

var sampleTime = time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

func sampleAccount() *domain.Account {
	return &domain.Account{
		ID:           7,
		Email:        "nemo@sea.io",
		DisplayName:  "nemo",
		PasswordHash: "secret-hash",
		Role:         domain.RoleFisher,
		CreatedAt:    sampleTime,
		UpdatedAt:    sampleTime,
	}
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func TestAccountHandler_Register_Success(t *testing.T) {
	stub := &stubAccountService{
		registerFn: func(_ context.Context, email, password, name string) (*domain.Account, error) {
			if email != "nemo@sea.io" || password != "hook&line1" || name != "nemo" {
				t.Fatalf("unexpected args: %s %s %s", email, password, name)
			}
			return sampleAccount(), nil
		},
	}
	c, rec := newContext(http.MethodPost, "/v1/accounts",
		`{"email":"nemo@sea.io","password":"hook&line1","display_name":"nemo"}`, 0)

	if err := NewAccountHandler(stub).Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderLocation); got != "/v1/accounts/7" {
		t.Fatalf("location = %q", got)
	}
	if strings.Contains(rec.Body.String(), "secret-hash") || strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("response leaks credentials: %s", rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["display_name"] != "nemo" || resp["role"] != "FISHER" || resp["id"] != float64(7) {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if _, ok := resp["last_login_at"]; ok {
		t.Fatalf("last_login_at should be omitted before first login")
	}
}

func TestAccountHandler_Register_PassesServiceError(t *testing.T) {
	taken := domain.Invalid("email", domain.ErrEmailTaken)
	stub := &stubAccountService{
		registerFn: func(context.Context, string, string, string) (*domain.Account, error) {
			return nil, taken
		},
	}
	c, _ := newContext(http.MethodPost, "/v1/accounts", `{"email":"nemo@sea.io"}`, 0)

	err := NewAccountHandler(stub).Register(c)
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}
}

func TestAccountHandler_Register_RejectsOversizedInput(t *testing.T) {
	stub := &stubAccountService{
		registerFn: func(context.Context, string, string, string) (*domain.Account, error) {
			t.Fatalf("service should not be called")
			return nil, nil
		},
	}
	body := `{"email":"nemo@sea.io","password":"` + strings.Repeat("x", 200) + `","display_name":"nemo"}`
	c, _ := newContext(http.MethodPost, "/v1/accounts", body, 0)

	err := NewAccountHandler(stub).Register(c)
	if code := httpCode(t, err); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestAccountHandler_Register_InvalidPayload(t *testing.T) {
	c, _ := newContext(http.MethodPost, "/v1/accounts", `{"email":`, 0)

	err := NewAccountHandler(&stubAccountService{}).Register(c)
	if code := httpCode(t, err); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestAccountHandler_Get(t *testing.T) {
	stub := &stubAccountService{
		findByIDFn: func(_ context.Context, id domain.AccountID) (domain.Account, bool, error) {
			if id != 7 {
				return domain.Account{}, false, nil
			}
			return *sampleAccount(), true, nil
		},
	}
	h := NewAccountHandler(stub)

	c, rec := newContext(http.MethodGet, "/v1/accounts/7", "", 1)
	c.SetParamNames("id")
	c.SetParamValues("7")
	if err := h.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	c, _ = newContext(http.MethodGet, "/v1/accounts/8", "", 1)
	c.SetParamNames("id")
	c.SetParamValues("8")
	if err := h.Get(c); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	c, _ = newContext(http.MethodGet, "/v1/accounts/abc", "", 1)
	c.SetParamNames("id")
	c.SetParamValues("abc")
	if err := h.Get(c); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for malformed id, got %v", err)
	}
}

func TestAccountHandler_Lookup(t *testing.T) {
	stub := &stubAccountService{
		findByEmailFn: func(_ context.Context, email string) (domain.Account, bool, error) {
			return *sampleAccount(), email == "nemo@sea.io", nil
		},
		findByNameFn: func(_ context.Context, name string) (domain.Account, bool, error) {
			return *sampleAccount(), name == "nemo", nil
		},
	}
	h := NewAccountHandler(stub)

	c, rec := newContext(http.MethodGet, "/v1/accounts?email=nemo@sea.io", "", 1)
	if err := h.Lookup(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("lookup by email: code=%d err=%v", rec.Code, err)
	}

	c, rec = newContext(http.MethodGet, "/v1/accounts?name=nemo", "", 1)
	if err := h.Lookup(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("lookup by name: code=%d err=%v", rec.Code, err)
	}

	c, _ = newContext(http.MethodGet, "/v1/accounts?name=dory", "", 1)
	if err := h.Lookup(c); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	c, _ = newContext(http.MethodGet, "/v1/accounts", "", 1)
	if code := httpCode(t, h.Lookup(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400 without query, got %d", code)
	}

	c, _ = newContext(http.MethodGet, "/v1/accounts?name=nemo&email=nemo@sea.io", "", 1)
	if code := httpCode(t, h.Lookup(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400 with both params, got %d", code)
	}
}

func TestAccountHandler_Rename(t *testing.T) {
	stub := &stubAccountService{
		renameFn: func(_ context.Context, id domain.AccountID, password, name string) (*domain.Account, error) {
			if id != 7 || password != "hook&line1" || name != "marlin" {
				t.Fatalf("unexpected args: %v %s %s", id, password, name)
			}
			acc := sampleAccount()
			acc.DisplayName = name
			return acc, nil
		},
	}
	c, rec := newContext(http.MethodPatch, "/v1/accounts/me/name",
		`{"password":"hook&line1","display_name":"marlin"}`, 7)

	if err := NewAccountHandler(stub).Rename(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"display_name":"marlin"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestAccountHandler_RequiresCaller(t *testing.T) {
	h := NewAccountHandler(&stubAccountService{})
	routes := map[string]echo.HandlerFunc{
		"rename":          h.Rename,
		"change_password": h.ChangePassword,
		"remove":          h.Remove,
		"elevate":         h.ElevateRole,
	}
	for name, fn := range routes {
		c, _ := newContext(http.MethodPatch, "/", `{}`, 0)
		if code := httpCode(t, fn(c)); code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, code)
		}
	}
}

func TestAccountHandler_ChangePassword(t *testing.T) {
	called := false
	stub := &stubAccountService{
		changePasswordFn: func(_ context.Context, id domain.AccountID, password, newPassword string) (*domain.Account, error) {
			called = true
			if id != 7 || password != "hook&line1" || newPassword != "reel!it22" {
				t.Fatalf("unexpected args: %v %s %s", id, password, newPassword)
			}
			return sampleAccount(), nil
		},
	}
	c, rec := newContext(http.MethodPatch, "/v1/accounts/me/password",
		`{"password":"hook&line1","new_password":"reel!it22"}`, 7)

	if err := NewAccountHandler(stub).ChangePassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called || rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 after service call, got %d", rec.Code)
	}
}

func TestAccountHandler_Remove(t *testing.T) {
	stub := &stubAccountService{
		removeFn: func(_ context.Context, id domain.AccountID, email, password string) error {
			if email != "nemo@sea.io" {
				return domain.Invalid("email", domain.ErrEmailMismatch)
			}
			return nil
		},
	}
	h := NewAccountHandler(stub)

	c, rec := newContext(http.MethodDelete, "/v1/accounts/me", `{"email":"nemo@sea.io","password":"hook&line1"}`, 7)
	if err := h.Remove(c); err != nil || rec.Code != http.StatusNoContent {
		t.Fatalf("remove: code=%d err=%v", rec.Code, err)
	}

	c, _ = newContext(http.MethodDelete, "/v1/accounts/me", `{"email":"dory@sea.io","password":"hook&line1"}`, 7)
	if err := h.Remove(c); !errors.Is(err, domain.ErrEmailMismatch) {
		t.Fatalf("expected email mismatch, got %v", err)
	}
}

func TestAccountHandler_ElevateRole(t *testing.T) {
	stub := &stubAccountService{
		elevateFn: func(_ context.Context, actor domain.AccountID, target, token string) (*domain.Account, error) {
			if actor != 1 || target != "nemo" || token != "goodfisher" {
				t.Fatalf("unexpected args: %v %s %s", actor, target, token)
			}
			acc := sampleAccount()
			acc.Role = domain.RoleGoodFisher
			return acc, nil
		},
	}
	h := NewAccountHandler(stub)

	c, rec := newContext(http.MethodPut, "/v1/admin/accounts/nemo/role", `{"role":"goodfisher"}`, 1)
	c.SetParamNames("name")
	c.SetParamValues("nemo")
	if err := h.ElevateRole(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"role":"GOODFISHER"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	c, _ = newContext(http.MethodPut, "/v1/admin/accounts/nemo/role", `{}`, 1)
	c.SetParamNames("name")
	c.SetParamValues("nemo")
	if code := httpCode(t, h.ElevateRole(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400 without role, got %d", code)
	}
}
