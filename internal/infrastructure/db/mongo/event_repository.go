package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ourpoint/fisher-accounts/internal/core/domain"
	"github.com/ourpoint/fisher-accounts/internal/core/ports"
)

const eventsCollection = "account_events"

// EventRepository implements ports.AccountEventRepository using MongoDB.
type EventRepository struct {
	coll *mongo.Collection
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *mongo.Database) ports.AccountEventRepository {
	return &EventRepository{coll: db.Collection(eventsCollection)}
}

// InsertEvent appends an event to the account_events audit collection.
func (r *EventRepository) InsertEvent(ctx context.Context, event domain.AccountEvent) error {
	doc := bson.M{
		"account_id":  int64(event.AccountID),
		"type":        string(event.Type),
		"occurred_at": event.At.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	if !event.ActorID.IsZero() {
		doc["actor_id"] = int64(event.ActorID)
	}
	if event.Detail != "" {
		doc["detail"] = event.Detail
	}

	_, err := r.coll.InsertOne(ctx, doc)
	return err
}
