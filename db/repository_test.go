// ABOUTME: Shared setup and contact tests for the repository
// ABOUTME: Each test gets its own temp-dir SQLite database
package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/focus/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	database, err := OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return NewRepository(database)
}

// withClock pins the repository's notion of now.
func withClock(r *Repository, now time.Time) {
	r.now = func() time.Time { return now }
}

func TestCreateAndGetContact(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	last := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	contact := &models.Contact{
		Name:            "Dana Scully",
		Email:           "dana@fbi.gov",
		CompanyName:     "FBI",
		LastContactedAt: &last,
	}
	require.NoError(t, repo.CreateContact(ctx, contact))
	assert.NotEqual(t, uuid.Nil, contact.ID)
	assert.Equal(t, models.ContactActive, contact.Status)

	got, err := repo.GetContact(ctx, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dana Scully", got.Name)
	assert.Equal(t, "FBI", got.CompanyName)
	require.NotNil(t, got.LastContactedAt)
	assert.True(t, last.Equal(*got.LastContactedAt))
	assert.Nil(t, got.LastPurchaseDate)

	byEmail, err := repo.FindContactByEmail(ctx, "DANA@fbi.gov")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, contact.ID, byEmail.ID)

	none, err := repo.FindContactByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestGetContactNotFound(t *testing.T) {
	repo := setupTestRepo(t)
	_, err := repo.GetContact(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrContactNotFound)
}

func TestCreateContactRequiresName(t *testing.T) {
	repo := setupTestRepo(t)
	err := repo.CreateContact(context.Background(), &models.Contact{})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestListContactsOrderedByName(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	for _, name := range []string{"Zed", "Amy", "Moe"} {
		require.NoError(t, repo.CreateContact(ctx, &models.Contact{Name: name}))
	}

	contacts, err := repo.ListContacts(ctx)
	require.NoError(t, err)
	require.Len(t, contacts, 3)
	assert.Equal(t, "Amy", contacts[0].Name)
	assert.Equal(t, "Zed", contacts[2].Name)
}

func TestTouchContactOnlyMovesForward(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	c := &models.Contact{Name: "Fox"}
	require.NoError(t, repo.CreateContact(ctx, c))

	later := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	earlier := later.AddDate(0, 0, -10)

	require.NoError(t, repo.TouchContact(ctx, c.ID, later))
	require.NoError(t, repo.TouchContact(ctx, c.ID, earlier))

	got, err := repo.GetContact(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastContactedAt)
	assert.True(t, later.Equal(*got.LastContactedAt))

	assert.ErrorIs(t, repo.TouchContact(ctx, uuid.New(), later), ErrContactNotFound)
}
