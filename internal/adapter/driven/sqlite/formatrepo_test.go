package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keynai/keynai/internal/domain/model"
	"github.com/keynai/keynai/internal/domain/port/driven"
)

func TestFormatRepo_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFormatRepo(db)
	ctx := context.Background()

	format, err := repo.Create(ctx, model.Format{
		Name:        "hex",
		Pattern:     `[0-9a-f]+`,
		Description: "lowercase hexadecimal",
	})
	require.NoError(t, err)
	require.NotZero(t, format.ID)

	got, err := repo.GetByName(ctx, "hex")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, `[0-9a-f]+`, got.Pattern)
	assert.Equal(t, "lowercase hexadecimal", got.Description)
	assert.Nil(t, got.ProfileID, "format without owner should be global")
}

func TestFormatRepo_Create_DuplicateName(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFormatRepo(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, model.Format{Name: "hex", Pattern: `[0-9a-f]+`})
	require.NoError(t, err)

	_, err = repo.Create(ctx, model.Format{Name: "hex", Pattern: `.*`})
	assert.ErrorIs(t, err, driven.ErrFormatExists)
}

func TestFormatRepo_Create_EmptyDescriptionStoredAsNull(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFormatRepo(db)
	ctx := context.Background()

	format, err := repo.Create(ctx, model.Format{Name: "hex", Pattern: `[0-9a-f]+`})
	require.NoError(t, err)

	var description any
	err = db.Reader.QueryRowContext(ctx, `SELECT description FROM formats WHERE format_id = ?`, format.ID).Scan(&description)
	require.NoError(t, err)
	assert.Nil(t, description)
}

func TestFormatRepo_ListAccessible(t *testing.T) {
	db := setupTestDB(t)
	formats := NewFormatRepo(db)
	profiles := NewProfileRepo(db)
	ctx := context.Background()

	alice, err := profiles.Create(ctx, "alice", "pw")
	require.NoError(t, err)
	bob, err := profiles.Create(ctx, "bob", "pw")
	require.NoError(t, err)

	_, err = formats.Create(ctx, model.Format{Name: "any", Pattern: `.*`})
	require.NoError(t, err)
	_, err = formats.Create(ctx, model.Format{Name: "alice-pin", Pattern: `[0-9]{4}`, ProfileID: &alice.ID})
	require.NoError(t, err)
	_, err = formats.Create(ctx, model.Format{Name: "bob-words", Pattern: `[a-z ]+`, ProfileID: &bob.ID})
	require.NoError(t, err)

	accessible, err := formats.ListAccessible(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, accessible, 2)

	assert.Equal(t, "alice-pin", accessible[0].Name)
	assert.Equal(t, "any", accessible[1].Name)
}

func TestFormatRepo_Delete_BlockedWhileReferenced(t *testing.T) {
	db := setupTestDB(t)
	formats := NewFormatRepo(db)
	services := NewServiceRepo(db)
	ctx := context.Background()

	format, err := formats.Create(ctx, model.Format{Name: "any", Pattern: `.*`})
	require.NoError(t, err)

	service, err := services.Create(ctx, model.DefaultService("mail", model.LifespanMonth, format.ID))
	require.NoError(t, err)

	err = formats.Delete(ctx, format.ID)
	assert.ErrorIs(t, err, driven.ErrFormatInUse)

	// Deleting after the referencing service is removed succeeds.
	require.NoError(t, services.Delete(ctx, service.ID))
	require.NoError(t, formats.Delete(ctx, format.ID))

	got, err := formats.GetByID(ctx, format.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFormatRepo_Delete_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFormatRepo(db)

	err := repo.Delete(context.Background(), 9999)
	assert.ErrorIs(t, err, driven.ErrFormatNotFound)
}
