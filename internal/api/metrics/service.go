package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/ourpoint/fisher-accounts/internal/core/domain"
	"github.com/ourpoint/fisher-accounts/internal/core/ports"
)

// AccountService decorates a ports.AccountService with operation counters
// and latency histograms.
type AccountService struct {
	next ports.AccountService
}

var _ ports.AccountService = (*AccountService)(nil)

func InstrumentAccountService(next ports.AccountService) *AccountService {
	return &AccountService{next: next}
}

func (s *AccountService) Register(ctx context.Context, email, password, displayName string) (*domain.Account, error) {
	defer observe("register", time.Now())
	account, err := s.next.Register(ctx, email, password, displayName)
	count("register", err)
	if err == nil {
		RegisteredTotal.WithLabelValues(account.Role.String()).Inc()
	}
	return account, err
}

func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*domain.Account, error) {
	defer observe("authenticate", time.Now())
	account, err := s.next.Authenticate(ctx, email, password)
	count("authenticate", err)
	return account, err
}

func (s *AccountService) RenameDisplay(ctx context.Context, id domain.AccountID, password, newName string) (*domain.Account, error) {
	defer observe("rename_display", time.Now())
	account, err := s.next.RenameDisplay(ctx, id, password, newName)
	count("rename_display", err)
	return account, err
}

func (s *AccountService) ChangePassword(ctx context.Context, id domain.AccountID, password, newPassword string) (*domain.Account, error) {
	defer observe("change_password", time.Now())
	account, err := s.next.ChangePassword(ctx, id, password, newPassword)
	count("change_password", err)
	return account, err
}

func (s *AccountService) Remove(ctx context.Context, id domain.AccountID, email, password string) error {
	defer observe("remove", time.Now())
	err := s.next.Remove(ctx, id, email, password)
	count("remove", err)
	return err
}

func (s *AccountService) ElevateRole(ctx context.Context, actorID domain.AccountID, targetName, roleToken string) (*domain.Account, error) {
	defer observe("elevate_role", time.Now())
	account, err := s.next.ElevateRole(ctx, actorID, targetName, roleToken)
	count("elevate_role", err)
	return account, err
}

func (s *AccountService) FindByID(ctx context.Context, id domain.AccountID) (domain.Account, bool, error) {
	account, ok, err := s.next.FindByID(ctx, id)
	countLookup("find_by_id", ok, err)
	return account, ok, err
}

func (s *AccountService) FindByEmail(ctx context.Context, email string) (domain.Account, bool, error) {
	account, ok, err := s.next.FindByEmail(ctx, email)
	countLookup("find_by_email", ok, err)
	return account, ok, err
}

func (s *AccountService) FindByName(ctx context.Context, name string) (domain.Account, bool, error) {
	account, ok, err := s.next.FindByName(ctx, name)
	countLookup("find_by_name", ok, err)
	return account, ok, err
}

func observe(op string, start time.Time) {
	OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func count(op string, err error) {
	OperationsTotal.WithLabelValues(op, resultOf(err)).Inc()
}

func countLookup(op string, found bool, err error) {
	result := resultOf(err)
	if err == nil && !found {
		result = ResultNotFound
	}
	OperationsTotal.WithLabelValues(op, result).Inc()
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, domain.ErrNotFound):
		return ResultNotFound
	case domain.IsValidation(err):
		return ResultInvalid
	default:
		return ResultError
	}
}
