// Package sqlite provides an embedded Account Store for single-node
// deployments. Unique constraints on email and display_name back the
// account invariants at the storage layer.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ourpoint/fisher-accounts/internal/core/domain"
	"github.com/ourpoint/fisher-accounts/internal/core/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	email         TEXT    NOT NULL UNIQUE,
	display_name  TEXT    NOT NULL UNIQUE,
	password_hash TEXT    NOT NULL,
	role          TEXT    NOT NULL,
	login_count   INTEGER NOT NULL DEFAULT 0,
	last_login_at INTEGER,
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS account_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id  INTEGER NOT NULL,
	type        TEXT    NOT NULL,
	actor_id    INTEGER,
	detail      TEXT    NOT NULL DEFAULT '',
	occurred_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS account_events_account_id ON account_events (account_id, id);
`

const accountColumns = `id, email, display_name, password_hash, role, login_count, last_login_at, created_at, updated_at`

// execQuerier is satisfied by both *sql.DB and *sql.Tx.
type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB owns the SQLite handle and hands out stores bound to it or to a
// transaction.
type DB struct {
	sqlDB *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	dsn := "file:" + path +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &DB{sqlDB: sqlDB}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sqlDB == nil {
		return nil
	}
	return d.sqlDB.Close()
}

// Ping is used by the readiness probe.
func (d *DB) Ping(ctx context.Context) error {
	return d.sqlDB.PingContext(ctx)
}

// Accounts returns a store running outside any transaction.
func (d *DB) Accounts() *AccountStore {
	return &AccountStore{q: d.sqlDB}
}

// WithinTx implements ports.Transactor with BEGIN IMMEDIATE … COMMIT.
func (d *DB) WithinTx(ctx context.Context, fn func(ctx context.Context, store ports.AccountStore) error) error {
	tx, err := d.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(ctx, &AccountStore{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// AccountStore implements ports.AccountStore over SQLite.
type AccountStore struct {
	q execQuerier
}

func (s *AccountStore) Save(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	saved := *account
	if saved.ID.IsZero() {
		res, err := s.q.ExecContext(ctx,
			`INSERT INTO accounts (email, display_name, password_hash, role, login_count, last_login_at, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			saved.Email, saved.DisplayName, saved.PasswordHash, saved.Role.String(), saved.LoginCount,
			nullableMillis(saved.LastLoginAt), toMillis(saved.CreatedAt), toMillis(saved.UpdatedAt),
		)
		if err != nil {
			return nil, classifyWriteError(err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("read inserted id: %w", err)
		}
		saved.ID = domain.AccountID(id)
		return &saved, nil
	}

	res, err := s.q.ExecContext(ctx,
		`UPDATE accounts
		 SET email = ?, display_name = ?, password_hash = ?, role = ?, login_count = ?, last_login_at = ?, updated_at = ?
		 WHERE id = ?`,
		saved.Email, saved.DisplayName, saved.PasswordHash, saved.Role.String(), saved.LoginCount,
		nullableMillis(saved.LastLoginAt), toMillis(saved.UpdatedAt), int64(saved.ID),
	)
	if err != nil {
		return nil, classifyWriteError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, domain.NotFound(domain.EntityAccount, saved.ID)
	}
	return &saved, nil
}

func (s *AccountStore) FindByID(ctx context.Context, id domain.AccountID) (domain.Account, bool, error) {
	return s.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, int64(id))
}

func (s *AccountStore) FindByEmail(ctx context.Context, email string) (domain.Account, bool, error) {
	return s.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
}

func (s *AccountStore) FindByDisplayName(ctx context.Context, name string) (domain.Account, bool, error) {
	return s.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE display_name = ?`, name)
}

func (s *AccountStore) Delete(ctx context.Context, account domain.Account) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, int64(account.ID)); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

func (s *AccountStore) findOne(ctx context.Context, query string, arg any) (domain.Account, bool, error) {
	var (
		acc       domain.Account
		id        int64
		role      string
		lastLogin sql.NullInt64
		createdAt int64
		updatedAt int64
	)
	err := s.q.QueryRowContext(ctx, query, arg).Scan(
		&id, &acc.Email, &acc.DisplayName, &acc.PasswordHash, &role,
		&acc.LoginCount, &lastLogin, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, false, nil
	}
	if err != nil {
		return domain.Account{}, false, fmt.Errorf("find account: %w", err)
	}

	acc.ID = domain.AccountID(id)
	acc.Role, err = domain.ParseRole(role)
	if err != nil {
		return domain.Account{}, false, fmt.Errorf("decode account %d: %w", id, err)
	}
	acc.CreatedAt = fromMillis(createdAt)
	acc.UpdatedAt = fromMillis(updatedAt)
	if lastLogin.Valid {
		t := fromMillis(lastLogin.Int64)
		acc.LastLoginAt = &t
	}
	return acc, true, nil
}

// classifyWriteError maps SQLite unique violations onto domain conflicts.
// The driver reports them as "UNIQUE constraint failed: accounts.<column>".
func classifyWriteError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		switch {
		case strings.Contains(msg, "accounts.display_name"):
			return domain.ErrDisplayNameConflict
		case strings.Contains(msg, "accounts.email"):
			return domain.ErrEmailConflict
		}
	}
	return fmt.Errorf("write account: %w", err)
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

func nullableMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return toMillis(*t)
}
