package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/keynai/keynai/internal/domain/model"
	"github.com/keynai/keynai/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.FormatStore = (*FormatRepo)(nil)

// FormatRepo is the SQLite implementation of the FormatStore port interface.
type FormatRepo struct {
	db *DB
}

// NewFormatRepo creates a new FormatRepo backed by the given DB.
func NewFormatRepo(db *DB) *FormatRepo {
	return &FormatRepo{db: db}
}

// Create inserts a new format. A nil ProfileID registers a global format;
// otherwise the format is custom to that profile. Returns ErrFormatExists on
// a name collision.
func (r *FormatRepo) Create(ctx context.Context, format model.Format) (*model.Format, error) {
	const query = `INSERT INTO formats (name, pattern, description, profile_id) VALUES (?, ?, ?, ?)`

	var description any
	if format.Description != "" {
		description = format.Description
	}

	var profileID any
	if format.ProfileID != nil {
		profileID = *format.ProfileID
	}

	result, err := r.db.Writer.ExecContext(ctx, query, format.Name, format.Pattern, description, profileID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create format %q: %w", format.Name, driven.ErrFormatExists)
		}
		return nil, fmt.Errorf("create format %q: %w", format.Name, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create format %q: last insert id: %w", format.Name, err)
	}

	created := format
	created.ID = id
	return &created, nil
}

// GetByID retrieves a format by id. Returns nil, nil if it does not exist.
func (r *FormatRepo) GetByID(ctx context.Context, id int64) (*model.Format, error) {
	const query = `SELECT format_id, name, pattern, description, profile_id FROM formats WHERE format_id = ?`

	format, err := scanFormat(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get format %d: %w", id, err)
	}

	return format, nil
}

// GetByName retrieves a format by its unique name. Returns nil, nil if it
// does not exist.
func (r *FormatRepo) GetByName(ctx context.Context, name string) (*model.Format, error) {
	const query = `SELECT format_id, name, pattern, description, profile_id FROM formats WHERE name = ?`

	format, err := scanFormat(r.db.Reader.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get format %q: %w", name, err)
	}

	return format, nil
}

// ListAccessible returns the global formats plus the given profile's custom
// formats, ordered by name.
func (r *FormatRepo) ListAccessible(ctx context.Context, profileID int64) ([]model.Format, error) {
	const query = `
		SELECT format_id, name, pattern, description, profile_id
		FROM formats
		WHERE profile_id IS NULL OR profile_id = ?
		ORDER BY name
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, profileID)
	if err != nil {
		return nil, fmt.Errorf("list formats for profile %d: %w", profileID, err)
	}
	defer rows.Close()

	var formats []model.Format
	for rows.Next() {
		format, err := scanFormat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan format: %w", err)
		}
		formats = append(formats, *format)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate formats: %w", err)
	}

	return formats, nil
}

// Delete removes a format. Returns ErrFormatInUse while any service still
// references it, and ErrFormatNotFound if it does not exist. The reference
// check and the delete run in one transaction.
func (r *FormatRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete format %d: begin: %w", id, err)
	}
	defer tx.Rollback()

	var refs int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM services WHERE format_id = ?`, id).Scan(&refs); err != nil {
		return fmt.Errorf("delete format %d: count references: %w", id, err)
	}
	if refs > 0 {
		return fmt.Errorf("delete format %d: %w", id, driven.ErrFormatInUse)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM formats WHERE format_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete format %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete format %d: check rows affected: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("delete format %d: %w", id, driven.ErrFormatNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete format %d: commit: %w", id, err)
	}

	return nil
}

func scanFormat(s scanner) (*model.Format, error) {
	var format model.Format
	var description sql.NullString
	var profileID sql.NullInt64

	if err := s.Scan(&format.ID, &format.Name, &format.Pattern, &description, &profileID); err != nil {
		return nil, err
	}

	if description.Valid {
		format.Description = description.String
	}
	if profileID.Valid {
		id := profileID.Int64
		format.ProfileID = &id
	}

	return &format, nil
}
