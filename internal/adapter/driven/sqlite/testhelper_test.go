package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/keynai/keynai/internal/domain/model"
)

// setupTestDB creates a named shared in-memory SQLite database for testing.
// Writer and reader connections share the same in-memory database via
// cache=shared. A unique name derived from t.Name() ensures isolation between
// parallel tests. Migrations and base-data seeding are applied so every test
// starts from a fully initialized vault.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Percent-encode the test name so it's a safe SQLite URI filename component
	// and cannot be misinterpreted as query parameters in the "file:%s?..." DSN.
	safeName := url.PathEscape(t.Name())
	// WAL mode is not applicable to in-memory databases; omit journal_mode pragma.
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=cache_size(-64000)",
		safeName,
	)

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("create test db writer: %v", err)
	}
	writer.SetMaxOpenConns(1)
	if err := writer.PingContext(context.Background()); err != nil {
		_ = writer.Close()
		t.Fatalf("ping test db writer: %v", err)
	}

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = writer.Close()
		t.Fatalf("create test db reader: %v", err)
	}
	reader.SetMaxOpenConns(4)
	if err := reader.PingContext(context.Background()); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		t.Fatalf("ping test db reader: %v", err)
	}

	db := &DB{Writer: writer, Reader: reader, path: dsn}

	if err := RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	if err := Seed(context.Background(), db); err != nil {
		_ = db.Close()
		t.Fatalf("seed base data: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}

// newTestVault creates a profile, a global format accepting any string, and a
// service with the given policy, returning an account bound to them.
func newTestVault(t *testing.T, db *DB, svc model.Service) *model.Account {
	t.Helper()
	ctx := context.Background()

	profile, err := NewProfileRepo(db).Create(ctx, t.Name(), "hashed-master")
	if err != nil {
		t.Fatalf("create test profile: %v", err)
	}

	format, err := NewFormatRepo(db).Create(ctx, model.Format{Name: t.Name() + "/any", Pattern: `.*`})
	if err != nil {
		t.Fatalf("create test format: %v", err)
	}

	svc.Name = t.Name() + "/" + svc.Name
	svc.FormatID = format.ID
	service, err := NewServiceRepo(db).Create(ctx, svc)
	if err != nil {
		t.Fatalf("create test service: %v", err)
	}

	account, err := NewAccountRepo(db).Create(ctx, model.Account{
		UserIdentifier: "user@example.com",
		ProfileID:      profile.ID,
		ServiceID:      service.ID,
	})
	if err != nil {
		t.Fatalf("create test account: %v", err)
	}

	return account
}

func testClock(d int) time.Time {
	return time.Date(2023, time.June, d, 12, 0, 0, 0, time.UTC)
}
