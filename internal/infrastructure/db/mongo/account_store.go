package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ourpoint/fisher-accounts/internal/core/domain"
	"github.com/ourpoint/fisher-accounts/internal/core/ports"
)

const (
	accountsCollection = "accounts"
	countersCollection = "counters"

	emailIndex       = "email_unique"
	displayNameIndex = "display_name_unique"
)

// AccountStore implements ports.AccountStore on MongoDB. Numeric ids are
// allocated from a counters document so they stay ordinal across restarts.
type AccountStore struct {
	coll     *mongo.Collection
	counters *mongo.Collection
}

func NewAccountStore(db *mongo.Database) *AccountStore {
	return &AccountStore{
		coll:     db.Collection(accountsCollection),
		counters: db.Collection(countersCollection),
	}
}

type mongoAccount struct {
	ID           int64  `bson:"_id"`
	Email        string `bson:"email"`
	DisplayName  string `bson:"display_name"`
	PasswordHash string `bson:"password_hash"`
	Role         string `bson:"role"`
	LoginCount   int    `bson:"login_count"`
	LastLoginAt  int64  `bson:"last_login_at,omitempty"`
	CreatedAt    int64  `bson:"created_at"`
	UpdatedAt    int64  `bson:"updated_at"`
}

func (s *AccountStore) Save(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	saved := *account
	if saved.ID.IsZero() {
		id, err := s.nextID(ctx)
		if err != nil {
			return nil, err
		}
		saved.ID = id
		if _, err := s.coll.InsertOne(ctx, fromDomain(saved)); err != nil {
			return nil, classifyWriteError(err)
		}
		return &saved, nil
	}

	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": int64(saved.ID)}, fromDomain(saved))
	if err != nil {
		return nil, classifyWriteError(err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.NotFound(domain.EntityAccount, saved.ID)
	}
	return &saved, nil
}

func (s *AccountStore) FindByID(ctx context.Context, id domain.AccountID) (domain.Account, bool, error) {
	return s.findOne(ctx, bson.M{"_id": int64(id)})
}

func (s *AccountStore) FindByEmail(ctx context.Context, email string) (domain.Account, bool, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *AccountStore) FindByDisplayName(ctx context.Context, name string) (domain.Account, bool, error) {
	return s.findOne(ctx, bson.M{"display_name": name})
}

func (s *AccountStore) Delete(ctx context.Context, account domain.Account) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": int64(account.ID)}); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// EnsureIndexes creates the unique indexes that back the email and display
// name invariants.
func (s *AccountStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(emailIndex),
		},
		{
			Keys:    bson.D{{Key: "display_name", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(displayNameIndex),
		},
	}

	_, err := s.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

func (s *AccountStore) findOne(ctx context.Context, filter bson.M) (domain.Account, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoAccount
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Account{}, false, nil
		}
		return domain.Account{}, false, fmt.Errorf("find account: %w", err)
	}

	acc, err := toDomain(doc)
	if err != nil {
		return domain.Account{}, false, err
	}
	return acc, true, nil
}

func (s *AccountStore) nextID(ctx context.Context) (domain.AccountID, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": accountsCollection},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocate account id: %w", err)
	}
	return domain.AccountID(counter.Seq), nil
}

// classifyWriteError maps a duplicate-key failure on one of the unique
// indexes onto the matching domain conflict.
func classifyWriteError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		msg := err.Error()
		switch {
		case strings.Contains(msg, displayNameIndex):
			return domain.ErrDisplayNameConflict
		case strings.Contains(msg, emailIndex):
			return domain.ErrEmailConflict
		}
	}
	return fmt.Errorf("write account: %w", err)
}

func fromDomain(a domain.Account) mongoAccount {
	doc := mongoAccount{
		ID:           int64(a.ID),
		Email:        a.Email,
		DisplayName:  a.DisplayName,
		PasswordHash: a.PasswordHash,
		Role:         a.Role.String(),
		LoginCount:   a.LoginCount,
		CreatedAt:    a.CreatedAt.UnixMilli(),
		UpdatedAt:    a.UpdatedAt.UnixMilli(),
	}
	if a.LastLoginAt != nil {
		doc.LastLoginAt = a.LastLoginAt.UnixMilli()
	}
	return doc
}

func toDomain(doc mongoAccount) (domain.Account, error) {
	role, err := domain.ParseRole(doc.Role)
	if err != nil {
		return domain.Account{}, fmt.Errorf("decode account %d: %w", doc.ID, err)
	}

	acc := domain.Account{
		ID:           domain.AccountID(doc.ID),
		Email:        doc.Email,
		DisplayName:  doc.DisplayName,
		PasswordHash: doc.PasswordHash,
		Role:         role,
		LoginCount:   doc.LoginCount,
		CreatedAt:    millisToTime(doc.CreatedAt),
		UpdatedAt:    millisToTime(doc.UpdatedAt),
	}
	if doc.LastLoginAt != 0 {
		t := millisToTime(doc.LastLoginAt)
		acc.LastLoginAt = &t
	}
	return acc, nil
}

func millisToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ts).UTC()
}

// Transactor runs units of work inside a MongoDB session transaction.
// Transactions need a replica set; with transactions disabled fn runs
// directly against the store.
type Transactor struct {
	client  *mongo.Client
	store   *AccountStore
	enabled bool
}

func NewTransactor(client *mongo.Client, store *AccountStore, enabled bool) *Transactor {
	return &Transactor{client: client, store: store, enabled: enabled}
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, store ports.AccountStore) error) error {
	if !t.enabled {
		return fn(ctx, t.store)
	}

	sess, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, t.store)
	})
	return err
}
