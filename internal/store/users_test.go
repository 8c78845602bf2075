package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func testUser(username string) *User {
	return &User{
		ID:           "user-" + username,
		Username:     username,
		PasswordHash: "$2a$10$fakehashfakehashfakehashfakehashfakehashfakehashfake",
		Email:        username + "@example.com",
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
}

func TestStore_CreateUser(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := testUser("alice")
	require.NoError(t, store.CreateUser(ctx, user))

	retrieved, err := store.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, retrieved.ID)
	assert.Equal(t, user.Email, retrieved.Email)
	assert.Empty(t, retrieved.MFASecret)
	assert.Nil(t, retrieved.MFAConfirmedAt)
}

func TestStore_CreateUser_DuplicateUsername(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, testUser("alice")))

	dup := testUser("alice")
	dup.ID = "user-alice-2"
	dup.Email = "other@example.com"
	err := store.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, ErrUsernameExists)

	// Original row is unmodified
	retrieved, err := store.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "user-alice", retrieved.ID)
	assert.Equal(t, "alice@example.com", retrieved.Email)
}

func TestStore_GetUser_NotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.GetUser(ctx, "nope")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = store.GetUserByUsername(ctx, "nope")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = store.GetUserByEmail(ctx, "nope@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestStore_GetUserByEmail(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := testUser("alice")
	require.NoError(t, store.CreateUser(ctx, user))

	retrieved, err := store.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", retrieved.Username)
}

func TestStore_GetUserByEmail_SharedAddress(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	older := testUser("alice")
	older.Email = "shared@example.com"
	older.CreatedAt = time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, store.CreateUser(ctx, older))

	newer := testUser("bobby")
	newer.Email = "shared@example.com"
	require.NoError(t, store.CreateUser(ctx, newer))

	// Email is not unique; the oldest account wins
	retrieved, err := store.GetUserByEmail(ctx, "shared@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", retrieved.Username)
}

func TestStore_SetMFASecret(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, testUser("alice")))
	require.NoError(t, store.SetMFASecret(ctx, "user-alice", "JBSWY3DPEHPK3PXP"))

	retrieved, err := store.GetUser(ctx, "user-alice")
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", retrieved.MFASecret)
	assert.Nil(t, retrieved.MFAConfirmedAt)
	assert.False(t, retrieved.MFAEnforced())
}

func TestStore_SetMFASecret_UnknownUser(t *testing.T) {
	store := setupTestStore(t)

	err := store.SetMFASecret(context.Background(), "nope", "JBSWY3DPEHPK3PXP")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestStore_ConfirmMFA(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, testUser("alice")))
	require.NoError(t, store.SetMFASecret(ctx, "user-alice", "JBSWY3DPEHPK3PXP"))

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.ConfirmMFA(ctx, "user-alice", now))

	retrieved, err := store.GetUser(ctx, "user-alice")
	require.NoError(t, err)
	require.NotNil(t, retrieved.MFAConfirmedAt)
	assert.True(t, retrieved.MFAConfirmedAt.Equal(now))
	assert.True(t, retrieved.MFAEnforced())

	// Confirming again is a no-op, not an error
	require.NoError(t, store.ConfirmMFA(ctx, "user-alice", now.Add(time.Minute)))
	retrieved, err = store.GetUser(ctx, "user-alice")
	require.NoError(t, err)
	assert.True(t, retrieved.MFAConfirmedAt.Equal(now))
}

func TestStore_ConfirmMFA_WithoutSecret(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, testUser("alice")))

	err := store.ConfirmMFA(ctx, "user-alice", time.Now())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestStore_SetMFASecret_ResetsConfirmation(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, testUser("alice")))
	require.NoError(t, store.SetMFASecret(ctx, "user-alice", "JBSWY3DPEHPK3PXP"))
	require.NoError(t, store.ConfirmMFA(ctx, "user-alice", time.Now()))

	// Re-enrollment replaces the secret and requires a fresh verification
	require.NoError(t, store.SetMFASecret(ctx, "user-alice", "KRSXG5CTMVRXEZLU"))

	retrieved, err := store.GetUser(ctx, "user-alice")
	require.NoError(t, err)
	assert.Equal(t, "KRSXG5CTMVRXEZLU", retrieved.MFASecret)
	assert.Nil(t, retrieved.MFAConfirmedAt)
}

func TestStore_UpdatePassword(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, testUser("alice")))
	require.NoError(t, store.UpdatePassword(ctx, "user-alice", "$2a$10$newhash"))

	retrieved, err := store.GetUser(ctx, "user-alice")
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$newhash", retrieved.PasswordHash)

	err = store.UpdatePassword(ctx, "nope", "$2a$10$newhash")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
