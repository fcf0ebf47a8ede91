package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keynai/keynai/internal/domain/model"
	"github.com/keynai/keynai/internal/domain/port/driven"
)

func TestAccountRepo_Create_AllowsDuplicateIdentifier(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)
	ctx := context.Background()

	account := newTestVault(t, db, model.DefaultService("mail", model.LifespanDay, 0))

	// Same (profile, service, user identifier) triple: only the primary key is
	// enforced, mirroring the source schema.
	again, err := repo.Create(ctx, model.Account{
		UserIdentifier: account.UserIdentifier,
		ProfileID:      account.ProfileID,
		ServiceID:      account.ServiceID,
	})
	require.NoError(t, err)
	assert.NotEqual(t, account.ID, again.ID)
}

func TestAccountRepo_Rotate_FirstPasswordIsActive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)
	ctx := context.Background()

	account := newTestVault(t, db, model.DefaultService("mail", model.LifespanDay, 0))

	password, err := repo.Rotate(ctx, account.ID, "1234567890abcdef", testClock(1))
	require.NoError(t, err)

	assert.Equal(t, model.StatusActive, password.Status)
	assert.Equal(t, "1234567890abcdef", password.Secret)

	current, err := repo.Current(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, password.ID, current.ID)
	assert.Equal(t, model.StatusActive, current.Status)
}

func TestAccountRepo_Rotate_MarksPreviousChanged(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)
	ctx := context.Background()

	account := newTestVault(t, db, model.DefaultService("mail", model.LifespanDay, 0))

	secrets := []string{"aaaaaaaaaaaaaaaa", "bbbbbbbbbbbbbbbb", "cccccccccccccccc"}
	for i, secret := range secrets {
		_, err := repo.Rotate(ctx, account.ID, secret, testClock(i+1))
		require.NoError(t, err)
	}

	history, err := repo.History(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)

	// Oldest first; all but the latest are changed, exactly one is current.
	assert.Equal(t, "aaaaaaaaaaaaaaaa", history[0].Secret)
	assert.Equal(t, model.StatusChanged, history[0].Status)
	assert.Equal(t, model.StatusChanged, history[1].Status)
	assert.Equal(t, model.StatusActive, history[2].Status)
	assert.True(t, history[0].CreatedAt.Before(history[1].CreatedAt))
	assert.True(t, history[1].CreatedAt.Before(history[2].CreatedAt))
}

func TestAccountRepo_Rotate_UnknownAccount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)

	_, err := repo.Rotate(context.Background(), 9999, "1234567890abcdef", testClock(1))
	assert.ErrorIs(t, err, driven.ErrAccountNotFound)
}

func TestAccountRepo_Rotate_RejectsActiveDuplicate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)
	ctx := context.Background()

	svc := model.DefaultService("bank", model.LifespanDay, 0)
	svc.AcceptsDuplicates = false
	svc.MinLength = 8
	svc.MaxLength = 8
	account := newTestVault(t, db, svc)

	_, err := repo.Rotate(ctx, account.ID, "abcdefgh", testClock(1))
	require.NoError(t, err)

	_, err = repo.Rotate(ctx, account.ID, "abcdefgh", testClock(2))
	assert.ErrorIs(t, err, driven.ErrDuplicateCredential)

	// The failed rotation must not have mutated anything.
	history, err := repo.History(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.StatusActive, history[0].Status)
}

func TestAccountRepo_Rotate_AllowsDuplicateOfExpiredPassword(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)
	ctx := context.Background()

	svc := model.DefaultService("bank", model.LifespanDay, 0)
	svc.AcceptsDuplicates = false
	svc.LifespanAmount = 1
	account := newTestVault(t, db, svc)

	_, err := repo.Rotate(ctx, account.ID, "1234567890abcdef", testClock(1))
	require.NoError(t, err)

	// Ten days later the stored-active password is effectively expired, so the
	// same secret no longer counts as an active duplicate.
	_, err = repo.Rotate(ctx, account.ID, "1234567890abcdef", testClock(11))
	require.NoError(t, err)

	history, err := repo.History(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.StatusChanged, history[0].Status)
	assert.Equal(t, model.StatusActive, history[1].Status)
}

func TestAccountRepo_Rotate_DuplicatesAcceptedByDefault(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)
	ctx := context.Background()

	account := newTestVault(t, db, model.DefaultService("mail", model.LifespanDay, 0))

	_, err := repo.Rotate(ctx, account.ID, "1234567890abcdef", testClock(1))
	require.NoError(t, err)
	_, err = repo.Rotate(ctx, account.ID, "1234567890abcdef", testClock(2))
	require.NoError(t, err)

	history, err := repo.History(ctx, account.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestAccountRepo_Current_NoPasswords(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)

	account := newTestVault(t, db, model.DefaultService("mail", model.LifespanDay, 0))

	current, err := repo.Current(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Nil(t, current, "account without passwords should have no current password")
}

func TestAccountRepo_HasActiveDuplicate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)
	ctx := context.Background()

	svc := model.DefaultService("bank", model.LifespanDay, 0)
	svc.AcceptsDuplicates = false
	account := newTestVault(t, db, svc)

	_, err := repo.Rotate(ctx, account.ID, "1234567890abcdef", testClock(1))
	require.NoError(t, err)

	dup, err := repo.HasActiveDuplicate(ctx, account.ID, "1234567890abcdef", testClock(2))
	require.NoError(t, err)
	assert.True(t, dup)

	dup, err = repo.HasActiveDuplicate(ctx, account.ID, "othersecretvalue", testClock(2))
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestAccountRepo_UpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)
	ctx := context.Background()

	account := newTestVault(t, db, model.DefaultService("mail", model.LifespanDay, 0))

	password, err := repo.Rotate(ctx, account.ID, "1234567890abcdef", testClock(1))
	require.NoError(t, err)

	require.NoError(t, repo.UpdateStatus(ctx, password.ID, model.StatusExpired))

	current, err := repo.Current(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, model.StatusExpired, current.Status)
}

func TestAccountRepo_Delete_CascadesPasswords(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)
	ctx := context.Background()

	account := newTestVault(t, db, model.DefaultService("mail", model.LifespanDay, 0))

	_, err := repo.Rotate(ctx, account.ID, "1234567890abcdef", testClock(1))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, account.ID))

	history, err := repo.History(ctx, account.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAccountRepo_ListByProfile(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)
	ctx := context.Background()

	account := newTestVault(t, db, model.DefaultService("mail", model.LifespanDay, 0))

	second, err := repo.Create(ctx, model.Account{
		UserIdentifier: "admin@example.com",
		ProfileID:      account.ProfileID,
		ServiceID:      account.ServiceID,
	})
	require.NoError(t, err)

	accounts, err := repo.ListByProfile(ctx, account.ProfileID)
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	// Ordered by user identifier.
	assert.Equal(t, second.ID, accounts[0].ID)
	assert.Equal(t, account.ID, accounts[1].ID)
}
