package application

import (
	"context"
	"fmt"

	"github.com/keynai/keynai/internal/domain/model"
	"github.com/keynai/keynai/internal/domain/port/driven"
)

// ProfileService manages profiles, the top-level owners of accounts and
// custom formats.
type ProfileService struct {
	profiles driven.ProfileStore
}

// NewProfileService creates a ProfileService backed by the given store.
func NewProfileService(profiles driven.ProfileStore) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// CreateProfile creates a profile. password is an opaque credential blob the
// caller has already hashed. Returns ErrProfileExists on a name collision.
func (s *ProfileService) CreateProfile(ctx context.Context, name, password string) (*model.Profile, error) {
	return s.profiles.Create(ctx, name, password)
}

// GetProfile retrieves a profile by id; ErrProfileNotFound when absent.
func (s *ProfileService) GetProfile(ctx context.Context, id int64) (*model.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("profile %d: %w", id, driven.ErrProfileNotFound)
	}
	return profile, nil
}

// GetProfileByName retrieves a profile by its unique name; ErrProfileNotFound
// when absent.
func (s *ProfileService) GetProfileByName(ctx context.Context, name string) (*model.Profile, error) {
	profile, err := s.profiles.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("profile %q: %w", name, driven.ErrProfileNotFound)
	}
	return profile, nil
}

// ListProfiles returns all profiles ordered by name.
func (s *ProfileService) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	return s.profiles.ListAll(ctx)
}

// DeleteProfile removes a profile, its accounts with their password
// histories, and its custom formats in one transaction. Fails with
// ErrFormatInUse while any service still references one of the profile's
// custom formats.
func (s *ProfileService) DeleteProfile(ctx context.Context, id int64) error {
	return s.profiles.Delete(ctx, id)
}
