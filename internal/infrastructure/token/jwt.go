// Package token mints the HS256 access tokens checked by the auth middleware.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ourpoint/fisher-accounts/internal/core/domain"
)

const defaultAccessTTL = 15 * time.Minute

// Claim keys shared with the auth middleware.
const (
	ClaimSubject = "sub"
	ClaimRole    = "role"
	ClaimName    = "name"
)

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = defaultAccessTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (i *Issuer) Issue(account domain.Account) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := jwt.MapClaims{
		ClaimSubject: account.ID.String(),
		ClaimRole:    account.Role.String(),
		ClaimName:    account.DisplayName,
		"iat":        now.Unix(),
		"exp":        expiresAt.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
