package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestAssignableRole(t *testing.T) {
	cases := map[string]Role{
		"FISHER":      RoleFisher,
		"goodfisher":  RoleGoodFisher,
		"GreatFisher": RoleGreatFisher,
		" fisher ":    RoleFisher,
	}
	for token, want := range cases {
		got, err := AssignableRole(token)
		if err != nil {
			t.Fatalf("AssignableRole(%q) error: %v", token, err)
		}
		if got != want {
			t.Fatalf("AssignableRole(%q) = %v, want %v", token, got, want)
		}
	}
}

func TestAssignableRole_RejectsAdminAndUnknown(t *testing.T) {
	for _, token := range []string{"ADMIN", "admin", "", "SUPERFISHER"} {
		_, err := AssignableRole(token)
		var nf *NotFoundError
		if !errors.As(err, &nf) {
			t.Fatalf("AssignableRole(%q): expected NotFoundError, got %v", token, err)
		}
		if nf.Entity != EntityRole {
			t.Fatalf("expected entity %q, got %q", EntityRole, nf.Entity)
		}
	}
}

func TestRole_AtLeast(t *testing.T) {
	if !RoleAdmin.AtLeast(RoleGreatFisher) {
		t.Fatalf("admin should outrank greatfisher")
	}
	if RoleFisher.AtLeast(RoleGoodFisher) {
		t.Fatalf("fisher should not reach goodfisher")
	}
	if Role(0).AtLeast(RoleFisher) {
		t.Fatalf("invalid role must not pass")
	}
}

func TestRole_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Role Role `json:"role"`
	}{RoleGoodFisher})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"role":"GOODFISHER"}` {
		t.Fatalf("unexpected json: %s", b)
	}

	var out struct {
		Role Role `json:"role"`
	}
	if err := json.Unmarshal([]byte(`{"role":"ADMIN"}`), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Role != RoleAdmin {
		t.Fatalf("expected ADMIN, got %v", out.Role)
	}
	if err := json.Unmarshal([]byte(`{"role":"admin"}`), &out); err == nil {
		t.Fatalf("stored role names are case-sensitive")
	}
}

func TestParseAccountID(t *testing.T) {
	id, err := ParseAccountID("42")
	if err != nil || id != 42 {
		t.Fatalf("ParseAccountID(42) = %v, %v", id, err)
	}
	for _, s := range []string{"", "abc", "0", "-3"} {
		if _, err := ParseAccountID(s); !errors.Is(err, ErrNotFound) {
			t.Fatalf("ParseAccountID(%q): expected not found, got %v", s, err)
		}
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	err := Invalid("email", ErrEmailTaken)
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected errors.Is to match the reason")
	}
	if !IsValidation(err) {
		t.Fatalf("expected IsValidation")
	}
	if err.Error() != "email: this email already exists" {
		t.Fatalf("unexpected message: %s", err)
	}
}
