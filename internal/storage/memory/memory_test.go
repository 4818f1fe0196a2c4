package memory

import (
	"context"
	"testing"
	"time"

	"estatemetrics/internal/domain/models"
	"estatemetrics/internal/storage"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := New(storage.DefaultTTLs())

	want := storage.Credentials{
		AccessToken:  gofakeit.UUID(),
		RefreshToken: gofakeit.UUID(),
		ExpiresAt:    time.Now().Add(15 * time.Minute).Unix(),
		User:         &models.User{ID: 7, Email: gofakeit.Email(), Name: gofakeit.FirstName(), Phone: gofakeit.Phone()},
	}

	require.NoError(t, st.Persist(ctx, want))

	got, err := st.Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, st.Clear(ctx))

	got, err = st.Credentials(ctx)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestSlotsExpireIndependently(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	st := New(storage.DefaultTTLs()).WithClock(func() time.Time { return now })

	require.NoError(t, st.Persist(ctx, storage.Credentials{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    now.Add(15 * time.Minute).Unix(),
		User:         &models.User{ID: 1, Email: "a@b.c"},
	}))

	now = now.Add(20 * time.Minute)

	got, err := st.Credentials(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.AccessToken)
	assert.Equal(t, "refresh", got.RefreshToken)
	assert.NotZero(t, got.ExpiresAt)
	require.NotNil(t, got.User)

	now = now.Add(8 * 24 * time.Hour)

	got, err = st.Credentials(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.RefreshToken)
	assert.Zero(t, got.ExpiresAt)
	require.NotNil(t, got.User, "user slot has no ttl")
}

func TestPersistEmptyFieldDropsSlot(t *testing.T) {
	ctx := context.Background()
	st := New(storage.DefaultTTLs())

	require.NoError(t, st.Persist(ctx, storage.Credentials{AccessToken: "a", RefreshToken: "r", ExpiresAt: 1}))
	require.NoError(t, st.Persist(ctx, storage.Credentials{RefreshToken: "r2"}))

	got, err := st.Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.Credentials{RefreshToken: "r2"}, got)
}
