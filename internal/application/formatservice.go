// Package application contains the vault's services: credential-format
// registration and matching, the service catalog with its credential rules,
// account and password lifecycle, and profile management. Services depend
// only on the driven port interfaces.
package application

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/keynai/keynai/internal/domain/model"
	"github.com/keynai/keynai/internal/domain/port/driven"
)

// ErrInvalidPattern indicates a format pattern that does not compile as a
// regular expression.
var ErrInvalidPattern = errors.New("invalid format pattern")

// FormatService manages credential formats and matches candidates against
// them. Matching is a full-string match: the pattern is anchored before
// compilation, and compiled expressions are kept in an LRU cache keyed by
// pattern so repeated validations against the same format are cheap.
type FormatService struct {
	formats driven.FormatStore
	cache   *lru.Cache[string, *regexp.Regexp]
}

// NewFormatService creates a FormatService with a compiled-pattern cache of
// the given size.
func NewFormatService(formats driven.FormatStore, cacheSize int) (*FormatService, error) {
	cache, err := lru.New[string, *regexp.Regexp](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create pattern cache: %w", err)
	}
	return &FormatService{formats: formats, cache: cache}, nil
}

// Register creates a new format. profileID nil registers a global format,
// otherwise a custom format owned by that profile. The pattern must compile;
// the name must be unique case-sensitively (ErrFormatExists).
func (s *FormatService) Register(ctx context.Context, profileID *int64, name, pattern, description string) (*model.Format, error) {
	if _, err := s.compile(pattern); err != nil {
		return nil, fmt.Errorf("register format %q: %w", name, err)
	}

	return s.formats.Create(ctx, model.Format{
		Name:        name,
		Pattern:     pattern,
		Description: description,
		ProfileID:   profileID,
	})
}

// Matches reports whether candidate satisfies the format as a full-string
// match.
func (s *FormatService) Matches(format *model.Format, candidate string) (bool, error) {
	re, err := s.compile(format.Pattern)
	if err != nil {
		return false, fmt.Errorf("format %q: %w", format.Name, err)
	}
	return re.MatchString(candidate), nil
}

// Validate loads a format by id and matches candidate against it.
// Returns ErrFormatNotFound when the format does not exist.
func (s *FormatService) Validate(ctx context.Context, formatID int64, candidate string) (bool, error) {
	format, err := s.formats.GetByID(ctx, formatID)
	if err != nil {
		return false, err
	}
	if format == nil {
		return false, fmt.Errorf("validate against format %d: %w", formatID, driven.ErrFormatNotFound)
	}
	return s.Matches(format, candidate)
}

// Delete removes a format; ErrFormatInUse while a service references it.
func (s *FormatService) Delete(ctx context.Context, id int64) error {
	return s.formats.Delete(ctx, id)
}

// ListAccessible returns the formats visible to a profile: global formats
// plus its own custom formats.
func (s *FormatService) ListAccessible(ctx context.Context, profileID int64) ([]model.Format, error) {
	return s.formats.ListAccessible(ctx, profileID)
}

// compile returns the anchored, compiled form of pattern, consulting the
// cache first. The \A...\z anchors make matching full-string rather than
// substring.
func (s *FormatService) compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := s.cache.Get(pattern); ok {
		return re, nil
	}

	re, err := regexp.Compile(`\A(?:` + pattern + `)\z`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}

	s.cache.Add(pattern, re)
	return re, nil
}
