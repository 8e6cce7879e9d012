package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ourpoint/fisher-accounts/internal/core/domain"
	"github.com/ourpoint/fisher-accounts/internal/core/ports"
	"github.com/ourpoint/fisher-accounts/internal/core/validation"
)

// AccountService implements the account lifecycle: registration,
// authentication, profile mutation, removal and role elevation.
//
// Reads go straight to the store; every mutating operation runs its whole
// validate → read → mutate → persist sequence inside one Transactor scope.
type AccountService struct {
	store    ports.AccountStore
	tx       ports.Transactor
	hasher   ports.CredentialHasher
	events   ports.AccountEventPublisher
	sessions ports.SessionRevoker
	log      zerolog.Logger

	bootstrapAdmin string
	policy         validation.PasswordPolicy
	now            func() time.Time
}

// Option customises an AccountService.
type Option func(*AccountService)

// WithBootstrapAdmin makes registrations with this exact email receive the
// ADMIN role. An empty address disables bootstrapping.
func WithBootstrapAdmin(email string) Option {
	return func(s *AccountService) { s.bootstrapAdmin = email }
}

func WithPasswordPolicy(p validation.PasswordPolicy) Option {
	return func(s *AccountService) {
		if p != nil {
			s.policy = p
		}
	}
}

func WithEventPublisher(p ports.AccountEventPublisher) Option {
	return func(s *AccountService) {
		if p != nil {
			s.events = p
		}
	}
}

// WithSessionRevoker drops an account's refresh tokens after its password
// changes or it is removed.
func WithSessionRevoker(r ports.SessionRevoker) Option {
	return func(s *AccountService) { s.sessions = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *AccountService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewAccountService(
	store ports.AccountStore,
	tx ports.Transactor,
	hasher ports.CredentialHasher,
	log zerolog.Logger,
	opts ...Option,
) *AccountService {
	s := &AccountService{
		store:  store,
		tx:     tx,
		hasher: hasher,
		events: noopPublisher{},
		log:    log,
		policy: validation.DefaultPasswordPolicy,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new account. Checks run in a fixed order and the first
// failure wins: email taken, email shape, name taken, password presence,
// length and policy, then name length.
func (s *AccountService) Register(ctx context.Context, email, password, displayName string) (*domain.Account, error) {
	var created *domain.Account
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store ports.AccountStore) error {
		// findByEmail rejects a malformed address before the store is queried.
		if _, found, err := findByEmail(ctx, store, email); err != nil {
			return err
		} else if found {
			return domain.Invalid("email", domain.ErrEmailTaken)
		}
		if _, found, err := store.FindByDisplayName(ctx, displayName); err != nil {
			return fmt.Errorf("find account by name: %w", err)
		} else if found {
			return domain.Invalid("display_name", domain.ErrDisplayNameTaken)
		}
		if err := validation.Password(password, s.policy); err != nil {
			return err
		}
		if err := validation.DisplayName(displayName); err != nil {
			return err
		}

		hash, err := s.hasher.Hash(password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		saved, err := store.Save(ctx, domain.NewAccount(email, displayName, hash, s.initialRole(email), s.now()))
		if err != nil {
			return mapStoreConflict(err)
		}
		created = saved
		return nil
	})
	if err != nil {
		s.logFailure("register", err)
		return nil, err
	}

	s.log.Info().
		Str("op", "register").
		Stringer("account_id", created.ID).
		Stringer("role", created.Role).
		Msg("account registered")
	s.publish(created.ID, domain.EventRegistered, 0, created.Role.String())
	return created, nil
}

// Authenticate verifies credentials and records the login.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*domain.Account, error) {
	if password == "" {
		return nil, domain.Invalid("password", domain.ErrPasswordRequired)
	}
	if email == "" {
		return nil, domain.Invalid("email", domain.ErrEmailRequired)
	}

	var account *domain.Account
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store ports.AccountStore) error {
		acc, found, err := findByEmail(ctx, store, email)
		if err != nil {
			return err
		}
		if !found {
			return domain.NotFound(domain.EntityAccount, email)
		}
		if err := s.checkPassword(&acc, password); err != nil {
			return err
		}

		acc.RecordLogin(s.now())
		saved, err := store.Save(ctx, &acc)
		if err != nil {
			return fmt.Errorf("save account: %w", err)
		}
		account = saved
		return nil
	})
	if err != nil {
		s.logFailure("authenticate", err)
		return nil, err
	}

	s.log.Debug().Str("op", "authenticate").Stringer("account_id", account.ID).Msg("login succeeded")
	s.publish(account.ID, domain.EventLoggedIn, 0, "")
	return account, nil
}

// RenameDisplay changes the display name after re-checking the password. The
// new name goes through the same length and uniqueness rules as registration.
func (s *AccountService) RenameDisplay(ctx context.Context, id domain.AccountID, password, newName string) (*domain.Account, error) {
	var account *domain.Account
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store ports.AccountStore) error {
		acc, err := mustFindByID(ctx, store, id)
		if err != nil {
			return err
		}
		if err := s.checkPassword(&acc, password); err != nil {
			return err
		}
		if err := validation.DisplayName(newName); err != nil {
			return err
		}
		if newName != acc.DisplayName {
			other, found, err := store.FindByDisplayName(ctx, newName)
			if err != nil {
				return fmt.Errorf("find account by name: %w", err)
			}
			if found && other.ID != acc.ID {
				return domain.Invalid("display_name", domain.ErrDisplayNameTaken)
			}
		}

		acc.Rename(newName, s.now())
		saved, err := store.Save(ctx, &acc)
		if err != nil {
			return mapStoreConflict(err)
		}
		account = saved
		return nil
	})
	if err != nil {
		s.logFailure("rename_display", err)
		return nil, err
	}

	s.log.Info().Str("op", "rename_display").Stringer("account_id", id).Msg("display name changed")
	s.publish(id, domain.EventRenamed, 0, newName)
	return account, nil
}

// ChangePassword replaces the password after re-checking the current one.
func (s *AccountService) ChangePassword(ctx context.Context, id domain.AccountID, password, newPassword string) (*domain.Account, error) {
	var account *domain.Account
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store ports.AccountStore) error {
		acc, err := mustFindByID(ctx, store, id)
		if err != nil {
			return err
		}
		if err := s.checkPassword(&acc, password); err != nil {
			return err
		}
		if err := validation.Password(newPassword, s.policy); err != nil {
			return err
		}

		hash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		acc.SetPasswordHash(hash, s.now())
		saved, err := store.Save(ctx, &acc)
		if err != nil {
			return fmt.Errorf("save account: %w", err)
		}
		account = saved
		return nil
	})
	if err != nil {
		s.logFailure("change_password", err)
		return nil, err
	}

	s.log.Info().Str("op", "change_password").Stringer("account_id", id).Msg("password changed")
	s.revokeSessions(ctx, id)
	s.publish(id, domain.EventPasswordChanged, 0, "")
	return account, nil
}

// Remove deletes the account once both the email and password match.
func (s *AccountService) Remove(ctx context.Context, id domain.AccountID, email, password string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store ports.AccountStore) error {
		acc, err := mustFindByID(ctx, store, id)
		if err != nil {
			return err
		}
		if !acc.OwnsEmail(email) {
			return domain.Invalid("email", domain.ErrEmailMismatch)
		}
		if err := s.checkPassword(&acc, password); err != nil {
			return err
		}
		if err := store.Delete(ctx, acc); err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logFailure("remove", err)
		return err
	}

	s.log.Info().Str("op", "remove").Stringer("account_id", id).Msg("account removed")
	s.revokeSessions(ctx, id)
	s.publish(id, domain.EventRemoved, 0, "")
	return nil
}

// ElevateRole lets an admin assign FISHER, GOODFISHER or GREATFISHER to the
// account named targetName. ADMIN cannot be granted here and the acting
// account is never the one mutated.
func (s *AccountService) ElevateRole(ctx context.Context, actorID domain.AccountID, targetName, roleToken string) (*domain.Account, error) {
	var target *domain.Account
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store ports.AccountStore) error {
		actor, err := mustFindByID(ctx, store, actorID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() {
			return domain.Invalid("role", domain.ErrNotAdmin)
		}

		acc, found, err := store.FindByDisplayName(ctx, targetName)
		if err != nil {
			return fmt.Errorf("find account by name: %w", err)
		}
		if !found {
			return domain.NotFound(domain.EntityAccount, targetName)
		}
		role, err := domain.AssignableRole(roleToken)
		if err != nil {
			return err
		}
		if acc.ID == actor.ID {
			return domain.Invalid("display_name", domain.ErrSelfRoleChange)
		}

		acc.AssignRole(role, s.now())
		saved, err := store.Save(ctx, &acc)
		if err != nil {
			return fmt.Errorf("save account: %w", err)
		}
		target = saved
		return nil
	})
	if err != nil {
		s.logFailure("elevate_role", err)
		return nil, err
	}

	s.log.Info().
		Str("op", "elevate_role").
		Stringer("account_id", target.ID).
		Stringer("actor_id", actorID).
		Stringer("role", target.Role).
		Msg("role changed")
	s.publish(target.ID, domain.EventRoleChanged, actorID, target.Role.String())
	return target, nil
}

func (s *AccountService) FindByID(ctx context.Context, id domain.AccountID) (domain.Account, bool, error) {
	acc, found, err := s.store.FindByID(ctx, id)
	if err != nil {
		return domain.Account{}, false, fmt.Errorf("find account by id: %w", err)
	}
	return acc, found, nil
}

// FindByEmail rejects malformed addresses instead of reporting them absent.
func (s *AccountService) FindByEmail(ctx context.Context, email string) (domain.Account, bool, error) {
	return findByEmail(ctx, s.store, email)
}

func (s *AccountService) FindByName(ctx context.Context, name string) (domain.Account, bool, error) {
	acc, found, err := s.store.FindByDisplayName(ctx, name)
	if err != nil {
		return domain.Account{}, false, fmt.Errorf("find account by name: %w", err)
	}
	return acc, found, nil
}

func (s *AccountService) initialRole(email string) domain.Role {
	if s.bootstrapAdmin != "" && email == s.bootstrapAdmin {
		return domain.RoleAdmin
	}
	return domain.RoleFisher
}

// checkPassword maps a false verification onto ErrCredentialMismatch; hasher
// failures pass through as infrastructure errors.
func (s *AccountService) checkPassword(acc *domain.Account, password string) error {
	ok, err := acc.VerifyPassword(s.hasher, password)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return domain.Invalid("password", domain.ErrCredentialMismatch)
	}
	return nil
}

func (s *AccountService) publish(id domain.AccountID, typ domain.AccountEventType, actor domain.AccountID, detail string) {
	s.events.Publish(domain.AccountEvent{
		AccountID: id,
		Type:      typ,
		ActorID:   actor,
		At:        s.now(),
		Detail:    detail,
	})
}

// revokeSessions runs after the change has committed, so a failure is logged
// rather than returned.
func (s *AccountService) revokeSessions(ctx context.Context, id domain.AccountID) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.RevokeAll(ctx, id); err != nil {
		s.log.Error().Str("op", "revoke_sessions").Stringer("account_id", id).Err(err).Msg("refresh tokens not revoked")
	}
}

// logFailure keeps business rejections at debug level; anything else is an
// infrastructure failure.
func (s *AccountService) logFailure(op string, err error) {
	if domain.IsValidation(err) || errors.Is(err, domain.ErrNotFound) {
		s.log.Debug().Str("op", op).Err(err).Msg("request rejected")
		return
	}
	s.log.Error().Str("op", op).Err(err).Msg("operation failed")
}

func findByEmail(ctx context.Context, store ports.AccountStore, email string) (domain.Account, bool, error) {
	if err := validation.Email(email); err != nil {
		return domain.Account{}, false, err
	}
	acc, found, err := store.FindByEmail(ctx, email)
	if err != nil {
		return domain.Account{}, false, fmt.Errorf("find account by email: %w", err)
	}
	return acc, found, nil
}

func mustFindByID(ctx context.Context, store ports.AccountStore, id domain.AccountID) (domain.Account, error) {
	acc, found, err := store.FindByID(ctx, id)
	if err != nil {
		return domain.Account{}, fmt.Errorf("find account by id: %w", err)
	}
	if !found {
		return domain.Account{}, domain.NotFound(domain.EntityAccount, id)
	}
	return acc, nil
}

// mapStoreConflict turns a storage-level unique violation into the same
// ValidationError the pre-check would have produced.
func mapStoreConflict(err error) error {
	switch {
	case errors.Is(err, domain.ErrEmailConflict):
		return domain.Invalid("email", domain.ErrEmailTaken)
	case errors.Is(err, domain.ErrDisplayNameConflict):
		return domain.Invalid("display_name", domain.ErrDisplayNameTaken)
	}
	return fmt.Errorf("save account: %w", err)
}

type noopPublisher struct{}

func (noopPublisher) Publish(domain.AccountEvent) {}
