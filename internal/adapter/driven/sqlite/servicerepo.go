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
var _ driven.ServiceStore = (*ServiceRepo)(nil)

// ServiceRepo is the SQLite implementation of the ServiceStore port interface.
// Lifespan units are stored normalized in lifespan_types and resolved by name
// on write and by join on read.
type ServiceRepo struct {
	db *DB
}

// NewServiceRepo creates a new ServiceRepo backed by the given DB.
func NewServiceRepo(db *DB) *ServiceRepo {
	return &ServiceRepo{db: db}
}

const serviceColumns = `
	s.service_id, s.name, s.accepts_duplicates, s.min_length, s.max_length,
	s.lifespan_amount, lt.unit, s.format_id
`

// Create inserts a new service. Returns ErrServiceExists on a name collision.
// The lifespan unit must be one of the seeded units; an unknown unit fails
// the insert.
func (r *ServiceRepo) Create(ctx context.Context, service model.Service) (*model.Service, error) {
	const query = `
		INSERT INTO services (
			name, accepts_duplicates, min_length, max_length,
			lifespan_amount, lifespan_type_id, format_id
		) VALUES (?, ?, ?, ?, ?, (SELECT lifespan_type_id FROM lifespan_types WHERE unit = ?), ?)
	`

	acceptsDuplicates := 0
	if service.AcceptsDuplicates {
		acceptsDuplicates = 1
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		service.Name, acceptsDuplicates, service.MinLength, service.MaxLength,
		service.LifespanAmount, string(service.LifespanUnit), service.FormatID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create service %q: %w", service.Name, driven.ErrServiceExists)
		}
		return nil, fmt.Errorf("create service %q: %w", service.Name, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create service %q: last insert id: %w", service.Name, err)
	}

	created := service
	created.ID = id
	return &created, nil
}

// GetByID retrieves a service by id. Returns nil, nil if it does not exist.
func (r *ServiceRepo) GetByID(ctx context.Context, id int64) (*model.Service, error) {
	query := `
		SELECT ` + serviceColumns + `
		FROM services s
		JOIN lifespan_types lt ON lt.lifespan_type_id = s.lifespan_type_id
		WHERE s.service_id = ?
	`

	service, err := scanService(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get service %d: %w", id, err)
	}

	return service, nil
}

// GetByName retrieves a service by its unique name. Returns nil, nil if it
// does not exist.
func (r *ServiceRepo) GetByName(ctx context.Context, name string) (*model.Service, error) {
	query := `
		SELECT ` + serviceColumns + `
		FROM services s
		JOIN lifespan_types lt ON lt.lifespan_type_id = s.lifespan_type_id
		WHERE s.name = ?
	`

	service, err := scanService(r.db.Reader.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get service %q: %w", name, err)
	}

	return service, nil
}

// ListAll returns all services ordered by name.
func (r *ServiceRepo) ListAll(ctx context.Context) ([]model.Service, error) {
	query := `
		SELECT ` + serviceColumns + `
		FROM services s
		JOIN lifespan_types lt ON lt.lifespan_type_id = s.lifespan_type_id
		ORDER BY s.name
	`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		service, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, *service)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate services: %w", err)
	}

	return services, nil
}

// Delete removes a service and cascades to its accounts and their password
// histories in one transaction. Returns ErrServiceNotFound if the service
// does not exist.
func (r *ServiceRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete service %d: begin: %w", id, err)
	}
	defer tx.Rollback()

	steps := []string{
		`DELETE FROM passwords WHERE account_id IN (SELECT account_id FROM accounts WHERE service_id = ?)`,
		`DELETE FROM accounts WHERE service_id = ?`,
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step, id); err != nil {
			return fmt.Errorf("delete service %d: cascade: %w", id, err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM services WHERE service_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete service %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete service %d: check rows affected: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("delete service %d: %w", id, driven.ErrServiceNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete service %d: commit: %w", id, err)
	}

	return nil
}

func scanService(s scanner) (*model.Service, error) {
	var service model.Service
	var acceptsDuplicates int
	var unit string

	err := s.Scan(
		&service.ID, &service.Name, &acceptsDuplicates, &service.MinLength,
		&service.MaxLength, &service.LifespanAmount, &unit, &service.FormatID,
	)
	if err != nil {
		return nil, err
	}

	service.AcceptsDuplicates = acceptsDuplicates != 0
	service.LifespanUnit = model.LifespanUnit(unit)

	return &service, nil
}
