package sqlite

import (
	"context"
	"fmt"

	"github.com/keynai/keynai/internal/domain/model"
)

// Seed inserts the fixed lifespan units {day, month, year} and password
// statuses {active, expired, changed} if they are not already present.
// It is idempotent and safe to call on every startup; the unique constraints
// on lifespan_types.unit and statuses.name back the insert-if-absent guard.
func Seed(ctx context.Context, db *DB) error {
	const insertUnit = `INSERT INTO lifespan_types (unit) VALUES (?) ON CONFLICT (unit) DO NOTHING`
	for _, unit := range model.LifespanUnits() {
		if _, err := db.Writer.ExecContext(ctx, insertUnit, string(unit)); err != nil {
			return fmt.Errorf("seed lifespan type %q: %w", unit, err)
		}
	}

	const insertStatus = `INSERT INTO statuses (name) VALUES (?) ON CONFLICT (name) DO NOTHING`
	for _, status := range model.Statuses() {
		if _, err := db.Writer.ExecContext(ctx, insertStatus, string(status)); err != nil {
			return fmt.Errorf("seed status %q: %w", status, err)
		}
	}

	return nil
}
