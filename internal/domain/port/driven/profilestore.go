// Package driven defines the store port interfaces the vault's application
// services depend on, together with the sentinel errors their implementations
// return.
package driven

import (
	"context"
	"errors"

	"github.com/keynai/keynai/internal/domain/model"
)

// Sentinel errors returned by ProfileStore implementations.
var (
	// ErrProfileNotFound indicates the requested profile does not exist.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrProfileExists indicates a profile with the same name already exists.
	ErrProfileExists = errors.New("profile already exists")
)

// ProfileStore defines the driven port for profile persistence.
// Create returns ErrProfileExists on a name collision.
// Delete removes the profile and cascades to its accounts, their password
// histories, and its custom formats in one transaction; it returns
// ErrProfileNotFound if the profile does not exist and ErrFormatInUse if any
// service still references one of the profile's custom formats.
type ProfileStore interface {
	Create(ctx context.Context, name, password string) (*model.Profile, error)
	GetByID(ctx context.Context, id int64) (*model.Profile, error)
	GetByName(ctx context.Context, name string) (*model.Profile, error)
	ListAll(ctx context.Context) ([]model.Profile, error)
	Delete(ctx context.Context, id int64) error
}
