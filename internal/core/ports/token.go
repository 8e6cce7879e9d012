package ports

import (
	"context"
	"time"

	"github.com/ourpoint/fisher-accounts/internal/core/domain"
)

// TokenIssuer mints signed access tokens for an account.
type TokenIssuer interface {
	Issue(account domain.Account) (token string, expiresAt time.Time, err error)
}

// RefreshTokenStore keeps opaque refresh tokens with an expiry.
type RefreshTokenStore interface {
	Put(ctx context.Context, token string, id domain.AccountID, ttl time.Duration) error
	// Take resolves and removes token in one step.
	Take(ctx context.Context, token string) (domain.AccountID, bool, error)
	Delete(ctx context.Context, token string) error
	SessionRevoker
}

// SessionRevoker drops every outstanding refresh token of an account.
type SessionRevoker interface {
	RevokeAll(ctx context.Context, id domain.AccountID) error
}
