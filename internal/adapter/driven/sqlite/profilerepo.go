package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/keynai/keynai/internal/domain/model"
	"github.com/keynai/keynai/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ProfileStore = (*ProfileRepo)(nil)

// ProfileRepo is the SQLite implementation of the ProfileStore port interface.
type ProfileRepo struct {
	db *DB
}

// NewProfileRepo creates a new ProfileRepo backed by the given DB.
func NewProfileRepo(db *DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// Create inserts a new profile. Returns ErrProfileExists if a profile with
// the same name already exists.
func (r *ProfileRepo) Create(ctx context.Context, name, password string) (*model.Profile, error) {
	const query = `INSERT INTO profiles (name, password) VALUES (?, ?)`

	result, err := r.db.Writer.ExecContext(ctx, query, name, password)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create profile %q: %w", name, driven.ErrProfileExists)
		}
		return nil, fmt.Errorf("create profile %q: %w", name, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create profile %q: last insert id: %w", name, err)
	}

	return &model.Profile{ID: id, Name: name, Password: password}, nil
}

// GetByID retrieves a profile by id. Returns nil, nil if it does not exist.
func (r *ProfileRepo) GetByID(ctx context.Context, id int64) (*model.Profile, error) {
	const query = `SELECT profile_id, name, password FROM profiles WHERE profile_id = ?`

	profile, err := scanProfile(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %d: %w", id, err)
	}

	return profile, nil
}

// GetByName retrieves a profile by its unique name. Returns nil, nil if it
// does not exist.
func (r *ProfileRepo) GetByName(ctx context.Context, name string) (*model.Profile, error) {
	const query = `SELECT profile_id, name, password FROM profiles WHERE name = ?`

	profile, err := scanProfile(r.db.Reader.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %q: %w", name, err)
	}

	return profile, nil
}

// ListAll returns all profiles ordered by name.
func (r *ProfileRepo) ListAll(ctx context.Context) ([]model.Profile, error) {
	const query = `SELECT profile_id, name, password FROM profiles ORDER BY name`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, *profile)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	return profiles, nil
}

// Delete removes a profile and everything it owns in one transaction:
// password histories of its accounts, the accounts themselves, and its custom
// formats. Returns ErrFormatInUse if any service still references one of the
// profile's custom formats, and ErrProfileNotFound if the profile does not
// exist. Partial deletion is never observable.
func (r *ProfileRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete profile %d: begin: %w", id, err)
	}
	defer tx.Rollback()

	const refQuery = `
		SELECT COUNT(*)
		FROM services s
		JOIN formats f ON f.format_id = s.format_id
		WHERE f.profile_id = ?
	`
	var refs int
	if err := tx.QueryRowContext(ctx, refQuery, id).Scan(&refs); err != nil {
		return fmt.Errorf("delete profile %d: count format references: %w", id, err)
	}
	if refs > 0 {
		return fmt.Errorf("delete profile %d: %w", id, driven.ErrFormatInUse)
	}

	steps := []string{
		`DELETE FROM passwords WHERE account_id IN (SELECT account_id FROM accounts WHERE profile_id = ?)`,
		`DELETE FROM accounts WHERE profile_id = ?`,
		`DELETE FROM formats WHERE profile_id = ?`,
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step, id); err != nil {
			return fmt.Errorf("delete profile %d: cascade: %w", id, err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE profile_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete profile %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete profile %d: check rows affected: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("delete profile %d: %w", id, driven.ErrProfileNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete profile %d: commit: %w", id, err)
	}

	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(s scanner) (*model.Profile, error) {
	var profile model.Profile
	if err := s.Scan(&profile.ID, &profile.Name, &profile.Password); err != nil {
		return nil, err
	}
	return &profile, nil
}

// isUniqueViolation reports whether err is a SQLite unique-constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}

// parseTime tries multiple SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
