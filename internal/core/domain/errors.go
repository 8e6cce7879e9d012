package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")

	ErrEmailRequired      = errors.New("email must be provided")
	ErrEmailMalformed     = errors.New("invalid email address")
	ErrEmailTaken         = errors.New("this email already exists")
	ErrEmailMismatch      = errors.New("email does not match")
	ErrDisplayNameTaken   = errors.New("this name already exists")
	ErrDisplayNameLength  = errors.New("name length must be between 2 and 10 characters")
	ErrPasswordRequired   = errors.New("password must be provided")
	ErrPasswordLength     = errors.New("password length must be between 6 and 20 characters")
	ErrPasswordPolicy     = errors.New("password validation failed")
	ErrCredentialMismatch = errors.New("password does not match")
	ErrNotAdmin           = errors.New("not an admin")
	ErrSelfRoleChange     = errors.New("admins cannot change their own role")

	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// Storage-layer unique violations. Stores return these; the service maps them
// back onto ErrEmailTaken / ErrDisplayNameTaken.
var (
	ErrEmailConflict       = errors.New("email unique constraint violated")
	ErrDisplayNameConflict = errors.New("display name unique constraint violated")
)

// ValidationError reports caller-supplied data that failed a business rule.
// Reason is one of the sentinel errors above.
type ValidationError struct {
	Field  string
	Reason error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason.Error()
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Reason }

// Invalid builds a ValidationError for field.
func Invalid(field string, reason error) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

const (
	EntityAccount = "account"
	EntityRole    = "role"
)

// NotFoundError reports that a lookup key did not resolve.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound builds a NotFoundError. key is formatted with %v.
func NotFound(entity string, key any) error {
	return &NotFoundError{Entity: entity, Key: fmt.Sprintf("%v", key)}
}
