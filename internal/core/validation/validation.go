// Package validation holds the pure field rules shared by every account
// operation that accepts an email, password or display name.
package validation

import (
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/ourpoint/fisher-accounts/internal/core/domain"
)

const (
	PasswordMinLen    = 6
	PasswordMaxLen    = 20
	DisplayNameMinLen = 2
	DisplayNameMaxLen = 10
)

var validate = validator.New()

// PasswordPolicy reports whether a password has an acceptable composition.
type PasswordPolicy func(password string) bool

// DefaultPasswordPolicy requires at least one letter, one digit and one symbol.
func DefaultPasswordPolicy(password string) bool {
	var letter, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	return letter && digit && symbol
}

// IsWellFormedEmail reports whether s has a local-part@domain shape.
func IsWellFormedEmail(s string) bool {
	return s != "" && validate.Var(s, "email") == nil
}

func Email(s string) error {
	if !IsWellFormedEmail(s) {
		return domain.Invalid("email", domain.ErrEmailMalformed)
	}
	return nil
}

// PasswordLength checks the length bounds only.
func PasswordLength(s string) error {
	if n := utf8.RuneCountInString(s); n < PasswordMinLen || n > PasswordMaxLen {
		return domain.Invalid("password", domain.ErrPasswordLength)
	}
	return nil
}

// Password runs presence, length and composition checks in that order.
// A nil policy falls back to DefaultPasswordPolicy.
func Password(s string, policy PasswordPolicy) error {
	if s == "" {
		return domain.Invalid("password", domain.ErrPasswordRequired)
	}
	if err := PasswordLength(s); err != nil {
		return err
	}
	if policy == nil {
		policy = DefaultPasswordPolicy
	}
	if !policy(s) {
		return domain.Invalid("password", domain.ErrPasswordPolicy)
	}
	return nil
}

func DisplayName(s string) error {
	if n := utf8.RuneCountInString(s); n < DisplayNameMinLen || n > DisplayNameMaxLen {
		return domain.Invalid("display_name", domain.ErrDisplayNameLength)
	}
	return nil
}
