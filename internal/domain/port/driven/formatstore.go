package driven

import (
	"context"
	"errors"

	"github.com/keynai/keynai/internal/domain/model"
)

// Sentinel errors returned by FormatStore implementations.
var (
	// ErrFormatNotFound indicates the requested format does not exist.
	ErrFormatNotFound = errors.New("format not found")

	// ErrFormatExists indicates a format with the same name already exists.
	ErrFormatExists = errors.New("format already exists")

	// ErrFormatInUse indicates the format is still referenced by a service.
	ErrFormatInUse = errors.New("format still referenced by a service")
)

// FormatStore defines the driven port for credential-format persistence.
// Create returns ErrFormatExists on a name collision (names are unique
// case-sensitively across global and custom formats).
// Delete returns ErrFormatInUse while any service references the format.
// ListAccessible returns the global formats plus the given profile's custom
// formats.
type FormatStore interface {
	Create(ctx context.Context, format model.Format) (*model.Format, error)
	GetByID(ctx context.Context, id int64) (*model.Format, error)
	GetByName(ctx context.Context, name string) (*model.Format, error)
	ListAccessible(ctx context.Context, profileID int64) ([]model.Format, error)
	Delete(ctx context.Context, id int64) error
}
