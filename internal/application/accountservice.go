package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/keynai/keynai/internal/domain/model"
	"github.com/keynai/keynai/internal/domain/port/driven"
)

func nowUTC() time.Time {
	return time.Now().UTC()
}

// AccountService manages accounts and their password lifecycles. Reads derive
// the effective status of the current password from the service's lifespan
// policy; a derived flip to expired is written back so repeated reads are
// cheap, but the read never fails if the write-back does not stick.
type AccountService struct {
	accounts driven.AccountStore
	profiles driven.ProfileStore
	services driven.ServiceStore
	catalog  *CatalogService

	now func() time.Time
}

// NewAccountService creates an AccountService with the required dependencies.
func NewAccountService(
	accounts driven.AccountStore,
	profiles driven.ProfileStore,
	services driven.ServiceStore,
	catalog *CatalogService,
) *AccountService {
	return &AccountService{
		accounts: accounts,
		profiles: profiles,
		services: services,
		catalog:  catalog,
		now:      nowUTC,
	}
}

// CreateAccount registers the profile with the service under the given user
// identifier. The profile and service must exist; the same identifier may be
// registered for different services, and the store does not reject a repeat
// registration for the same service either.
func (s *AccountService) CreateAccount(ctx context.Context, profileID, serviceID int64, userIdentifier string) (*model.Account, error) {
	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("create account: profile %d: %w", profileID, driven.ErrProfileNotFound)
	}

	service, err := s.services.GetByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if service == nil {
		return nil, fmt.Errorf("create account: service %d: %w", serviceID, driven.ErrServiceNotFound)
	}

	return s.accounts.Create(ctx, model.Account{
		UserIdentifier: userIdentifier,
		ProfileID:      profileID,
		ServiceID:      serviceID,
	})
}

// GetAccount retrieves an account by id; ErrAccountNotFound when absent.
func (s *AccountService) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", id, driven.ErrAccountNotFound)
	}
	return account, nil
}

// ListAccounts returns a profile's accounts.
func (s *AccountService) ListAccounts(ctx context.Context, profileID int64) ([]model.Account, error) {
	return s.accounts.ListByProfile(ctx, profileID)
}

// DeleteAccount removes an account and its password history.
func (s *AccountService) DeleteAccount(ctx context.Context, id int64) error {
	return s.accounts.Delete(ctx, id)
}

// RotatePassword validates newSecret against the account's service rules and,
// on success, supersedes the current password: the previous most-recent
// password is marked changed atomically with the insertion of the new active
// one. On a validation failure nothing is mutated.
func (s *AccountService) RotatePassword(ctx context.Context, accountID int64, newSecret string) (*model.Password, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	service, err := s.catalog.GetService(ctx, account.ServiceID)
	if err != nil {
		return nil, err
	}

	// Length and format are checked here, before any write. The duplicate
	// guard is re-evaluated inside the rotation transaction, where it is
	// authoritative.
	if len(newSecret) < service.MinLength {
		return nil, fmt.Errorf("rotate password for account %d: %w", accountID, ErrSecretTooShort)
	}
	if len(newSecret) > service.MaxLength {
		return nil, fmt.Errorf("rotate password for account %d: %w", accountID, ErrSecretTooLong)
	}

	ok, err := s.catalog.formatSvc.Validate(ctx, service.FormatID, newSecret)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("rotate password for account %d: %w", accountID, ErrFormatMismatch)
	}

	return s.accounts.Rotate(ctx, accountID, newSecret, s.now())
}

// History returns the account's passwords oldest first. The latest entry's
// status is derived from the lifespan policy before returning.
func (s *AccountService) History(ctx context.Context, accountID int64) ([]model.Password, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	service, err := s.catalog.GetService(ctx, account.ServiceID)
	if err != nil {
		return nil, err
	}

	history, err := s.accounts.History(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if len(history) > 0 {
		latest := &history[len(history)-1]
		s.refreshStatus(ctx, latest, service)
	}

	return history, nil
}

// Current returns the account's most recent password with its derived
// status, or nil when the account has no passwords yet.
func (s *AccountService) Current(ctx context.Context, accountID int64) (*model.Password, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	service, err := s.catalog.GetService(ctx, account.ServiceID)
	if err != nil {
		return nil, err
	}

	current, err := s.accounts.Current(ctx, accountID)
	if err != nil || current == nil {
		return current, err
	}

	s.refreshStatus(ctx, current, service)
	return current, nil
}

// refreshStatus derives the password's effective status and memoizes a flip
// to expired. The write-back is best-effort: the derived value is already in
// the returned password, so a failed update only costs a recompute on the
// next read.
func (s *AccountService) refreshStatus(ctx context.Context, password *model.Password, service *model.Service) {
	effective := model.EffectiveStatus(password.Status, password.CreatedAt, service.LifespanAmount, service.LifespanUnit, s.now())
	if effective == password.Status {
		return
	}

	password.Status = effective
	if err := s.accounts.UpdateStatus(ctx, password.ID, effective); err != nil {
		slog.Warn("status write-back failed",
			"password_id", password.ID,
			"status", effective,
			"error", err,
		)
	}
}
