package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ourpoint/fisher-accounts/internal/core/domain"
	"github.com/ourpoint/fisher-accounts/internal/core/ports"
)

const defaultRefreshTTL = 14 * 24 * time.Hour

// AuthService implements login, token refresh and logout.
type AuthService struct {
	accounts   ports.AccountService
	issuer     ports.TokenIssuer
	refresh    ports.RefreshTokenStore
	refreshTTL time.Duration
	log        zerolog.Logger
}

func NewAuthService(
	accounts ports.AccountService,
	issuer ports.TokenIssuer,
	refresh ports.RefreshTokenStore,
	refreshTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &AuthService{
		accounts:   accounts,
		issuer:     issuer,
		refresh:    refresh,
		refreshTTL: refreshTTL,
		log:        log,
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.TokenPair, *domain.Account, error) {
	account, err := s.accounts.Authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.issuePair(ctx, *account)
	if err != nil {
		return nil, nil, err
	}
	return pair, account, nil
}

// Refresh rotates a refresh token: the presented token is consumed and a new
// pair is issued with the account's current role.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.TokenPair, *domain.Account, error) {
	if refreshToken == "" {
		return nil, nil, domain.ErrInvalidRefreshToken
	}

	id, ok, err := s.refresh.Take(ctx, refreshToken)
	if err != nil {
		return nil, nil, fmt.Errorf("take refresh token: %w", err)
	}
	if !ok {
		return nil, nil, domain.ErrInvalidRefreshToken
	}

	account, found, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !found {
		return nil, nil, domain.NotFound(domain.EntityAccount, id)
	}

	pair, err := s.issuePair(ctx, account)
	if err != nil {
		return nil, nil, err
	}
	return pair, &account, nil
}

// Logout revokes a refresh token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.refresh.Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

func (s *AuthService) issuePair(ctx context.Context, account domain.Account) (*ports.TokenPair, error) {
	access, expiresAt, err := s.issuer.Issue(account)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refresh, err := newRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.refresh.Put(ctx, refresh, account.ID, s.refreshTTL); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	s.log.Debug().Stringer("account_id", account.ID).Time("expires_at", expiresAt).Msg("token pair issued")
	return &ports.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}, nil
}

func newRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
