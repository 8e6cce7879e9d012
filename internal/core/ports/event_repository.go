package ports

import (
	"context"

	"github.com/ourpoint/fisher-accounts/internal/core/domain"
)

// AccountEventRepository persists the account audit trail.
type AccountEventRepository interface {
	InsertEvent(ctx context.Context, event domain.AccountEvent) error
}

// AccountEventPublisher accepts committed lifecycle events. Publish must not
// block the caller on persistence.
type AccountEventPublisher interface {
	Publish(event domain.AccountEvent)
}
