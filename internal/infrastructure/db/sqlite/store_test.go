package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ourpoint/fisher-accounts/internal/core/domain"
	"github.com/ourpoint/fisher-accounts/internal/core/ports"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "accounts.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

var created = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestOpenCreatesMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "accounts.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open db in missing directory: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected database file: %v", err)
	}
}

func TestAccountStoreInsertAndFind(t *testing.T) {
	ctx := context.Background()
	store := openTestDB(t).Accounts()

	saved, err := store.Save(ctx, domain.NewAccount("a@b.io", "alpha", "hash", domain.RoleFisher, created))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID.IsZero() {
		t.Fatal("expected id to be assigned")
	}

	byID, ok, err := store.FindByID(ctx, saved.ID)
	if err != nil || !ok {
		t.Fatalf("find by id: ok=%v err=%v", ok, err)
	}
	if byID.Email != "a@b.io" || byID.DisplayName != "alpha" || byID.Role != domain.RoleFisher {
		t.Fatalf("unexpected account: %+v", byID)
	}
	if !byID.CreatedAt.Equal(created) {
		t.Fatalf("created_at = %v, want %v", byID.CreatedAt, created)
	}
	if byID.LastLoginAt != nil {
		t.Fatalf("expected no last login, got %v", byID.LastLoginAt)
	}

	if _, ok, _ := store.FindByEmail(ctx, "a@b.io"); !ok {
		t.Fatal("expected to find by email")
	}
	if _, ok, _ := store.FindByDisplayName(ctx, "alpha"); !ok {
		t.Fatal("expected to find by display name")
	}
	if _, ok, err := store.FindByEmail(ctx, "missing@b.io"); ok || err != nil {
		t.Fatalf("expected absent, got ok=%v err=%v", ok, err)
	}
}

func TestAccountStoreUpdate(t *testing.T) {
	ctx := context.Background()
	store := openTestDB(t).Accounts()

	saved, err := store.Save(ctx, domain.NewAccount("a@b.io", "alpha", "hash", domain.RoleFisher, created))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	later := created.Add(time.Hour)
	saved.Rename("beta", later)
	saved.AssignRole(domain.RoleGreatFisher, later)
	saved.RecordLogin(later)
	if _, err := store.Save(ctx, saved); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _, _ := store.FindByID(ctx, saved.ID)
	if got.DisplayName != "beta" || got.Role != domain.RoleGreatFisher {
		t.Fatalf("update not persisted: %+v", got)
	}
	if got.LoginCount != 1 || got.LastLoginAt == nil || !got.LastLoginAt.Equal(later) {
		t.Fatalf("login tracking not persisted: %+v", got)
	}
	if _, ok, _ := store.FindByDisplayName(ctx, "alpha"); ok {
		t.Fatal("old name should be released")
	}
}

func TestAccountStoreUpdateMissing(t *testing.T) {
	store := openTestDB(t).Accounts()
	ghost := domain.NewAccount("g@b.io", "ghost", "hash", domain.RoleFisher, created)
	ghost.ID = 99

	_, err := store.Save(context.Background(), ghost)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAccountStoreUniqueConflicts(t *testing.T) {
	ctx := context.Background()
	store := openTestDB(t).Accounts()

	if _, err := store.Save(ctx, domain.NewAccount("a@b.io", "alpha", "hash", domain.RoleFisher, created)); err != nil {
		t.Fatalf("save: %v", err)
	}

	_, err := store.Save(ctx, domain.NewAccount("a@b.io", "other", "hash", domain.RoleFisher, created))
	if !errors.Is(err, domain.ErrEmailConflict) {
		t.Fatalf("expected email conflict, got %v", err)
	}
	_, err = store.Save(ctx, domain.NewAccount("c@b.io", "alpha", "hash", domain.RoleFisher, created))
	if !errors.Is(err, domain.ErrDisplayNameConflict) {
		t.Fatalf("expected display name conflict, got %v", err)
	}
}

func TestAccountStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := openTestDB(t).Accounts()

	saved, _ := store.Save(ctx, domain.NewAccount("a@b.io", "alpha", "hash", domain.RoleFisher, created))
	if err := store.Delete(ctx, *saved); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.FindByID(ctx, saved.ID); ok {
		t.Fatal("account still present after delete")
	}

	// Both unique keys are free again.
	if _, err := store.Save(ctx, domain.NewAccount("a@b.io", "alpha", "hash", domain.RoleFisher, created)); err != nil {
		t.Fatalf("re-register after delete: %v", err)
	}
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	boom := errors.New("boom")

	err := db.WithinTx(ctx, func(ctx context.Context, store ports.AccountStore) error {
		if _, err := store.Save(ctx, domain.NewAccount("a@b.io", "alpha", "hash", domain.RoleFisher, created)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, ok, _ := db.Accounts().FindByEmail(ctx, "a@b.io"); ok {
		t.Fatal("rolled back insert is visible")
	}
}

func TestWithinTxCommits(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	err := db.WithinTx(ctx, func(ctx context.Context, store ports.AccountStore) error {
		_, err := store.Save(ctx, domain.NewAccount("a@b.io", "alpha", "hash", domain.RoleFisher, created))
		return err
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
	if _, ok, _ := db.Accounts().FindByEmail(ctx, "a@b.io"); !ok {
		t.Fatal("committed insert is not visible")
	}
}

func TestEventRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository(openTestDB(t))

	events := []domain.AccountEvent{
		{AccountID: 7, Type: domain.EventRegistered, At: created},
		{AccountID: 7, Type: domain.EventRoleChanged, ActorID: 1, At: created.Add(time.Minute), Detail: "GOODFISHER"},
		{AccountID: 8, Type: domain.EventRegistered, At: created},
	}
	for _, ev := range events {
		if err := repo.InsertEvent(ctx, ev); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	got, err := repo.EventsFor(ctx, 7)
	if err != nil {
		t.Fatalf("events for: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Type != domain.EventRegistered || got[1].Type != domain.EventRoleChanged {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[1].ActorID != 1 || got[1].Detail != "GOODFISHER" {
		t.Fatalf("unexpected role event: %+v", got[1])
	}
	if !got[0].ActorID.IsZero() {
		t.Fatalf("self-acted event should have no actor, got %v", got[0].ActorID)
	}
}
