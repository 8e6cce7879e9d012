package ports

import (
	"context"

	"github.com/ourpoint/fisher-accounts/internal/core/domain"
)

// AccountStore is the durable owner of Account records. Lookups return the
// account and a presence flag; a missing record is not an error.
//
// Save inserts when the account ID is zero and updates otherwise. Unique
// violations must surface as domain.ErrEmailConflict or
// domain.ErrDisplayNameConflict.
type AccountStore interface {
	Save(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByID(ctx context.Context, id domain.AccountID) (domain.Account, bool, error)
	FindByEmail(ctx context.Context, email string) (domain.Account, bool, error)
	FindByDisplayName(ctx context.Context, name string) (domain.Account, bool, error)
	Delete(ctx context.Context, account domain.Account) error
}

// Transactor runs fn as one unit of work. The store handed to fn is bound to
// the transaction; if fn returns an error nothing it wrote is observable.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, store AccountStore) error) error
}
