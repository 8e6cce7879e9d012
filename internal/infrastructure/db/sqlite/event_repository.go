package sqlite

import (
	"context"
	"fmt"

	"github.com/ourpoint/fisher-accounts/internal/core/domain"
)

// EventRepository writes the audit trail to the account_events table.
type EventRepository struct {
	db *DB
}

func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) InsertEvent(ctx context.Context, event domain.AccountEvent) error {
	var actor any
	if !event.ActorID.IsZero() {
		actor = int64(event.ActorID)
	}
	_, err := r.db.sqlDB.ExecContext(ctx,
		`INSERT INTO account_events (account_id, type, actor_id, detail, occurred_at) VALUES (?, ?, ?, ?, ?)`,
		int64(event.AccountID), string(event.Type), actor, event.Detail, toMillis(event.At),
	)
	if err != nil {
		return fmt.Errorf("insert account event: %w", err)
	}
	return nil
}

// EventsFor returns the audit trail of one account in insertion order.
func (r *EventRepository) EventsFor(ctx context.Context, id domain.AccountID) ([]domain.AccountEvent, error) {
	rows, err := r.db.sqlDB.QueryContext(ctx,
		`SELECT type, actor_id, detail, occurred_at FROM account_events WHERE account_id = ? ORDER BY id`,
		int64(id),
	)
	if err != nil {
		return nil, fmt.Errorf("query account events: %w", err)
	}
	defer rows.Close()

	var out []domain.AccountEvent
	for rows.Next() {
		var (
			typ   string
			actor *int64
			ev    = domain.AccountEvent{AccountID: id}
			at    int64
		)
		if err := rows.Scan(&typ, &actor, &ev.Detail, &at); err != nil {
			return nil, fmt.Errorf("scan account event: %w", err)
		}
		ev.Type = domain.AccountEventType(typ)
		ev.At = fromMillis(at)
		if actor != nil {
			ev.ActorID = domain.AccountID(*actor)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
