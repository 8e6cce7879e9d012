package ports

import (
	"context"
	"time"

	"github.com/ourpoint/fisher-accounts/internal/core/domain"
)

// AccountService is the account lifecycle use-case surface.
type AccountService interface {
	Register(ctx context.Context, email, password, displayName string) (*domain.Account, error)
	Authenticate(ctx context.Context, email, password string) (*domain.Account, error)
	RenameDisplay(ctx context.Context, id domain.AccountID, password, newName string) (*domain.Account, error)
	ChangePassword(ctx context.Context, id domain.AccountID, password, newPassword string) (*domain.Account, error)
	Remove(ctx context.Context, id domain.AccountID, email, password string) error
	ElevateRole(ctx context.Context, actorID domain.AccountID, targetName, roleToken string) (*domain.Account, error)

	FindByID(ctx context.Context, id domain.AccountID) (domain.Account, bool, error)
	FindByEmail(ctx context.Context, email string) (domain.Account, bool, error)
	FindByName(ctx context.Context, name string) (domain.Account, bool, error)
}

// TokenPair is the credential bundle handed out on login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// AuthService issues and rotates session tokens on top of AccountService.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*TokenPair, *domain.Account, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, *domain.Account, error)
	Logout(ctx context.Context, refreshToken string) error
}
