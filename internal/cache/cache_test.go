package cache

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/savemate/auth-service/internal/models"
)

func entryUser(id uuid.UUID, now time.Time) *models.User {
	return &models.User{
		ID:              id,
		Email:           "user@example.com",
		Username:        "user",
		FullName:        "User Example",
		IsActive:        true,
		IsAdmin:         true,
		IsBusinessOwner: true,
		CreatedAt:       now,
		UpdatedAt:       now.Add(time.Minute),
	}
}

// TestEntryRoundTrip — снимок сохраняет все поля, кроме хэша пароля.
func TestEntryRoundTrip(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)

	u := entryUser(id, now)
	u.PasswordHash = "secret-hash"

	got := EntryFromUser(u).User(id)

	require.Equal(t, u.ID, got.ID)
	require.Equal(t, u.Email, got.Email)
	require.Equal(t, u.Username, got.Username)
	require.Equal(t, u.FullName, got.FullName)
	require.Equal(t, u.IsActive, got.IsActive)
	require.Equal(t, u.IsAdmin, got.IsAdmin)
	require.Equal(t, u.IsBusinessOwner, got.IsBusinessOwner)
	require.Equal(t, u.CreatedAt, got.CreatedAt)
	require.Equal(t, u.UpdatedAt, got.UpdatedAt)

	// Хэш пароля в снимок не попадает.
	require.Empty(t, got.PasswordHash)
}

func TestNewRedisCache_BadURL(t *testing.T) {
	t.Parallel()

	_, err := NewRedisCache("not-a-url", "")
	require.Error(t, err)
}
