package domain

import (
	"strconv"
	"time"
)

// AccountID is the store-assigned identifier of an Account.
type AccountID int64

func (id AccountID) String() string { return strconv.FormatInt(int64(id), 10) }

// IsZero reports whether the id has not been assigned yet.
func (id AccountID) IsZero() bool { return id == 0 }

// ParseAccountID parses the decimal form produced by String.
func ParseAccountID(s string) (AccountID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, NotFound(EntityAccount, s)
	}
	return AccountID(n), nil
}

// PasswordVerifier is the subset of the credential hasher an Account needs.
type PasswordVerifier interface {
	Verify(plaintext, hash string) (bool, error)
}

// Account is the persisted identity record of one fisher.
type Account struct {
	ID           AccountID  `json:"id"`
	Email        string     `json:"email"`
	DisplayName  string     `json:"display_name"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	LoginCount   int        `json:"login_count"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewAccount builds an unsaved account. passwordHash must already be hashed.
func NewAccount(email, displayName, passwordHash string, role Role, now time.Time) *Account {
	return &Account{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// VerifyPassword checks plaintext against the stored hash.
func (a *Account) VerifyPassword(v PasswordVerifier, plaintext string) (bool, error) {
	if plaintext == "" {
		return false, nil
	}
	return v.Verify(plaintext, a.PasswordHash)
}

// RecordLogin tracks a successful authentication.
func (a *Account) RecordLogin(now time.Time) {
	a.LoginCount++
	at := now
	a.LastLoginAt = &at
}

func (a *Account) Rename(name string, now time.Time) {
	a.DisplayName = name
	a.UpdatedAt = now
}

func (a *Account) SetPasswordHash(hash string, now time.Time) {
	a.PasswordHash = hash
	a.UpdatedAt = now
}

func (a *Account) AssignRole(r Role, now time.Time) {
	a.Role = r
	a.UpdatedAt = now
}

// OwnsEmail reports an exact, case-sensitive match with the stored email.
func (a *Account) OwnsEmail(email string) bool {
	return a.Email == email
}

func (a *Account) IsAdmin() bool { return a.Role == RoleAdmin }
