package application

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keynai/keynai/internal/adapter/driven/sqlite"
	"github.com/keynai/keynai/internal/domain/model"
)

// fixture wires the application services against a real SQLite store in a
// temp directory, migrated and seeded.
type fixture struct {
	db *sqlite.DB

	formats  *FormatService
	catalog  *CatalogService
	accounts *AccountService
	profiles *ProfileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, sqlite.RunMigrations(db.Writer))
	require.NoError(t, sqlite.Seed(context.Background(), db))

	profileStore := sqlite.NewProfileRepo(db)
	formatStore := sqlite.NewFormatRepo(db)
	serviceStore := sqlite.NewServiceRepo(db)
	accountStore := sqlite.NewAccountRepo(db)

	formatSvc, err := NewFormatService(formatStore, 64)
	require.NoError(t, err)

	catalog := NewCatalogService(serviceStore, formatStore, accountStore, formatSvc)

	return &fixture{
		db:       db,
		formats:  formatSvc,
		catalog:  catalog,
		accounts: NewAccountService(accountStore, profileStore, serviceStore, catalog),
		profiles: NewProfileService(profileStore),
	}
}

// seedAccount creates a profile, a global format, a service with the given
// policy (name and format binding filled in), and an account, returning the
// account and the created service.
func (f *fixture) seedAccount(t *testing.T, svc model.Service) (*model.Account, *model.Service) {
	t.Helper()
	ctx := context.Background()

	profile, err := f.profiles.CreateProfile(ctx, "owner", "hashed-master")
	if err != nil {
		profile, err = f.profiles.GetProfileByName(ctx, "owner")
		require.NoError(t, err)
	}

	format, err := f.formats.Register(ctx, nil, "fixture/"+svc.Name, `.*`, "")
	require.NoError(t, err)

	svc.FormatID = format.ID
	service, err := f.catalog.CreateService(ctx, svc)
	require.NoError(t, err)

	account, err := f.accounts.CreateAccount(ctx, profile.ID, service.ID, "user@example.com")
	require.NoError(t, err)

	return account, service
}
