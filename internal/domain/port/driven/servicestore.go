package driven

import (
	"context"
	"errors"

	"github.com/keynai/keynai/internal/domain/model"
)

// Sentinel errors returned by ServiceStore implementations.
var (
	// ErrServiceNotFound indicates the requested service does not exist.
	ErrServiceNotFound = errors.New("service not found")

	// ErrServiceExists indicates a service with the same name already exists.
	ErrServiceExists = errors.New("service already exists")
)

// ServiceStore defines the driven port for service-catalog persistence.
// Create returns ErrServiceExists on a name collision.
// Delete removes the service and cascades to its accounts and their password
// histories in one transaction; it returns ErrServiceNotFound if the service
// does not exist.
type ServiceStore interface {
	Create(ctx context.Context, service model.Service) (*model.Service, error)
	GetByID(ctx context.Context, id int64) (*model.Service, error)
	GetByName(ctx context.Context, name string) (*model.Service, error)
	ListAll(ctx context.Context) ([]model.Service, error)
	Delete(ctx context.Context, id int64) error
}
