package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/keynai/keynai/internal/domain/model"
	"github.com/keynai/keynai/internal/domain/port/driven"
)

// Catalog rule violations.
var (
	// ErrInvalidLengthRange indicates service length bounds where min exceeds
	// max or either bound is non-positive.
	ErrInvalidLengthRange = errors.New("invalid credential length range")

	// ErrInvalidLifespanUnit indicates a lifespan unit outside the seeded set.
	ErrInvalidLifespanUnit = errors.New("invalid lifespan unit")
)

// Credential rule violations reported by CheckCredential.
var (
	ErrSecretTooShort = errors.New("secret shorter than service minimum")
	ErrSecretTooLong  = errors.New("secret longer than service maximum")
	ErrFormatMismatch = errors.New("secret does not match service format")
)

// CatalogService manages services and enforces their credential rules.
type CatalogService struct {
	services  driven.ServiceStore
	formats   driven.FormatStore
	accounts  driven.AccountStore
	formatSvc *FormatService
}

// NewCatalogService creates a CatalogService with the required dependencies.
func NewCatalogService(
	services driven.ServiceStore,
	formats driven.FormatStore,
	accounts driven.AccountStore,
	formatSvc *FormatService,
) *CatalogService {
	return &CatalogService{
		services:  services,
		formats:   formats,
		accounts:  accounts,
		formatSvc: formatSvc,
	}
}

// CreateService validates and creates a service. Length bounds must satisfy
// 0 < min <= max (ErrInvalidLengthRange), the lifespan unit must be one of
// the seeded units (ErrInvalidLifespanUnit), and the bound format must exist
// (ErrFormatNotFound). Name collisions return ErrServiceExists.
// model.DefaultService supplies the catalog defaults for callers that only
// care about a name, unit, and format.
func (s *CatalogService) CreateService(ctx context.Context, service model.Service) (*model.Service, error) {
	if service.MinLength <= 0 || service.MaxLength <= 0 || service.MinLength > service.MaxLength {
		return nil, fmt.Errorf("create service %q: min %d, max %d: %w",
			service.Name, service.MinLength, service.MaxLength, ErrInvalidLengthRange)
	}

	if !validLifespanUnit(service.LifespanUnit) {
		return nil, fmt.Errorf("create service %q: unit %q: %w", service.Name, service.LifespanUnit, ErrInvalidLifespanUnit)
	}

	format, err := s.formats.GetByID(ctx, service.FormatID)
	if err != nil {
		return nil, err
	}
	if format == nil {
		return nil, fmt.Errorf("create service %q: format %d: %w", service.Name, service.FormatID, driven.ErrFormatNotFound)
	}

	return s.services.Create(ctx, service)
}

// GetService retrieves a service by id; ErrServiceNotFound when absent.
func (s *CatalogService) GetService(ctx context.Context, id int64) (*model.Service, error) {
	service, err := s.services.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if service == nil {
		return nil, fmt.Errorf("service %d: %w", id, driven.ErrServiceNotFound)
	}
	return service, nil
}

// DeleteService removes a service, cascading to its accounts and their
// password histories.
func (s *CatalogService) DeleteService(ctx context.Context, id int64) error {
	return s.services.Delete(ctx, id)
}

// ListServices returns all services ordered by name.
func (s *CatalogService) ListServices(ctx context.Context) ([]model.Service, error) {
	return s.services.ListAll(ctx)
}

// CheckCredential verifies candidate against the service's rules: length
// within [MinLength, MaxLength], full-string format match, and, when the
// service rejects duplicates, no effectively active password with the same
// secret on the account. All checks are read-only; nothing is mutated.
func (s *CatalogService) CheckCredential(ctx context.Context, service *model.Service, accountID int64, candidate string) error {
	if len(candidate) < service.MinLength {
		return fmt.Errorf("service %q: %w", service.Name, ErrSecretTooShort)
	}
	if len(candidate) > service.MaxLength {
		return fmt.Errorf("service %q: %w", service.Name, ErrSecretTooLong)
	}

	ok, err := s.formatSvc.Validate(ctx, service.FormatID, candidate)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("service %q: %w", service.Name, ErrFormatMismatch)
	}

	if !service.AcceptsDuplicates {
		dup, err := s.accounts.HasActiveDuplicate(ctx, accountID, candidate, nowUTC())
		if err != nil {
			return err
		}
		if dup {
			return fmt.Errorf("service %q: %w", service.Name, driven.ErrDuplicateCredential)
		}
	}

	return nil
}

func validLifespanUnit(unit model.LifespanUnit) bool {
	for _, u := range model.LifespanUnits() {
		if unit == u {
			return true
		}
	}
	return false
}
