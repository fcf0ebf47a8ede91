package driven

import (
	"context"
	"errors"
	"time"

	"github.com/keynai/keynai/internal/domain/model"
)

// Sentinel errors returned by AccountStore implementations.
var (
	// ErrAccountNotFound indicates the requested account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrDuplicateCredential indicates the account already holds an active
	// password with the same secret and the service rejects duplicates.
	ErrDuplicateCredential = errors.New("duplicate credential for account")
)

// AccountStore defines the driven port for account and password persistence.
//
// Create does not enforce uniqueness of (profile, service, user identifier)
// beyond the primary key; registering the same identifier twice is allowed.
//
// Rotate atomically supersedes the account's current password: within one
// transaction it re-checks the duplicate-credential guard (when the service
// rejects duplicates), marks the current most-recent password changed if one
// exists, and inserts the new password as active with the given creation
// time. On ErrDuplicateCredential no mutation is applied.
//
// History returns the account's passwords oldest first, totally ordered by
// (creation time, id). Current returns the most recent password, or nil, nil
// when the account has none. Both return stored statuses; effective-status
// derivation is the application layer's job.
//
// UpdateStatus persists a recomputed status for a single password.
type AccountStore interface {
	Create(ctx context.Context, account model.Account) (*model.Account, error)
	GetByID(ctx context.Context, id int64) (*model.Account, error)
	ListByProfile(ctx context.Context, profileID int64) ([]model.Account, error)
	Delete(ctx context.Context, id int64) error

	Rotate(ctx context.Context, accountID int64, secret string, now time.Time) (*model.Password, error)
	History(ctx context.Context, accountID int64) ([]model.Password, error)
	Current(ctx context.Context, accountID int64) (*model.Password, error)
	HasActiveDuplicate(ctx context.Context, accountID int64, secret string, now time.Time) (bool, error)
	UpdateStatus(ctx context.Context, passwordID int64, status model.Status) error
}
