package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ourpoint/fisher-accounts/internal/core/domain"
	"github.com/ourpoint/fisher-accounts/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub store + transactor
// ---------------------------------------------------------------------------

type stubAccountStore struct {
	byID   map[domain.AccountID]domain.Account
	nextID domain.AccountID

	saveErr error // if set, Save returns this error
	findErr error // if set, every lookup returns this error

	reads  int
	writes int
	txs    int
}

func newStubAccountStore() *stubAccountStore {
	return &stubAccountStore{byID: make(map[domain.AccountID]domain.Account)}
}

func (r *stubAccountStore) Save(_ context.Context, a *domain.Account) (*domain.Account, error) {
	r.writes++
	if r.saveErr != nil {
		return nil, r.saveErr
	}
	for id, other := range r.byID {
		if id == a.ID {
			continue
		}
		if other.Email == a.Email {
			return nil, domain.ErrEmailConflict
		}
		if other.DisplayName == a.DisplayName {
			return nil, domain.ErrDisplayNameConflict
		}
	}
	clone := *a
	if clone.ID.IsZero() {
		r.nextID++
		clone.ID = r.nextID
	}
	r.byID[clone.ID] = clone
	out := clone
	return &out, nil
}

func (r *stubAccountStore) FindByID(_ context.Context, id domain.AccountID) (domain.Account, bool, error) {
	r.reads++
	if r.findErr != nil {
		return domain.Account{}, false, r.findErr
	}
	a, ok := r.byID[id]
	return a, ok, nil
}

func (r *stubAccountStore) FindByEmail(_ context.Context, email string) (domain.Account, bool, error) {
	r.reads++
	if r.findErr != nil {
		return domain.Account{}, false, r.findErr
	}
	for _, a := range r.byID {
		if a.Email == email {
			return a, true, nil
		}
	}
	return domain.Account{}, false, nil
}

func (r *stubAccountStore) FindByDisplayName(_ context.Context, name string) (domain.Account, bool, error) {
	r.reads++
	if r.findErr != nil {
		return domain.Account{}, false, r.findErr
	}
	for _, a := range r.byID {
		if a.DisplayName == name {
			return a, true, nil
		}
	}
	return domain.Account{}, false, nil
}

func (r *stubAccountStore) Delete(_ context.Context, a domain.Account) error {
	r.writes++
	delete(r.byID, a.ID)
	return nil
}

// WithinTx snapshots the records and restores them when fn fails.
func (r *stubAccountStore) WithinTx(ctx context.Context, fn func(ctx context.Context, store ports.AccountStore) error) error {
	r.txs++
	snapshot := make(map[domain.AccountID]domain.Account, len(r.byID))
	for id, a := range r.byID {
		snapshot[id] = a
	}
	nextID := r.nextID
	if err := fn(ctx, r); err != nil {
		r.byID = snapshot
		r.nextID = nextID
		return err
	}
	return nil
}

func (r *stubAccountStore) touched() int { return r.reads + r.writes }

// ---------------------------------------------------------------------------
// Hasher / publisher / token stubs
// ---------------------------------------------------------------------------

type stubHasher struct {
	hashErr   error
	verifyErr error
}

func (h *stubHasher) Hash(plaintext string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "hashed:" + plaintext, nil
}

func (h *stubHasher) Verify(plaintext, hash string) (bool, error) {
	if h.verifyErr != nil {
		return false, h.verifyErr
	}
	return strings.TrimPrefix(hash, "hashed:") == plaintext, nil
}

type recordingPublisher struct {
	events []domain.AccountEvent
}

func (p *recordingPublisher) Publish(e domain.AccountEvent) {
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []domain.AccountEventType {
	out := make([]domain.AccountEventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type stubIssuer struct {
	err    error
	issued []domain.Account
}

func (i *stubIssuer) Issue(a domain.Account) (string, time.Time, error) {
	if i.err != nil {
		return "", time.Time{}, i.err
	}
	i.issued = append(i.issued, a)
	return "access-" + a.ID.String() + "-" + a.Role.String(), fixedNow.Add(time.Hour), nil
}

type stubRefreshStore struct {
	tokens map[string]domain.AccountID
	ttls   map[string]time.Duration
	putErr error

	revoked   []domain.AccountID
	revokeErr error
}

func newStubRefreshStore() *stubRefreshStore {
	return &stubRefreshStore{
		tokens: make(map[string]domain.AccountID),
		ttls:   make(map[string]time.Duration),
	}
}

func (s *stubRefreshStore) Put(_ context.Context, token string, id domain.AccountID, ttl time.Duration) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.tokens[token] = id
	s.ttls[token] = ttl
	return nil
}

func (s *stubRefreshStore) Take(_ context.Context, token string) (domain.AccountID, bool, error) {
	id, ok := s.tokens[token]
	delete(s.tokens, token)
	return id, ok, nil
}

func (s *stubRefreshStore) Delete(_ context.Context, token string) error {
	delete(s.tokens, token)
	return nil
}

func (s *stubRefreshStore) RevokeAll(_ context.Context, id domain.AccountID) error {
	s.revoked = append(s.revoked, id)
	if s.revokeErr != nil {
		return s.revokeErr
	}
	for token, owner := range s.tokens {
		if owner == id {
			delete(s.tokens, token)
		}
	}
	return nil
}

var errBoom = errors.New("boom")

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
