package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"estatemetrics/internal/domain/models"
	"estatemetrics/internal/storage"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStorage(t *testing.T, namespace string) *Storage {
	t.Helper()

	st, err := New(filepath.Join(t.TempDir(), "estatemetrics.db"), storage.DefaultTTLs(), namespace)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.Migrate())
	require.NoError(t, st.Migrate(), "migrations must be re-runnable")

	return st
}

func TestCredentialsRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newStorage(t, "test")

	want := storage.Credentials{
		AccessToken:  gofakeit.UUID(),
		RefreshToken: gofakeit.UUID(),
		ExpiresAt:    time.Now().Add(15 * time.Minute).Unix(),
		User: &models.User{
			ID:       gofakeit.Int64(),
			Name:     gofakeit.Name(),
			Email:    gofakeit.Email(),
			Phone:    gofakeit.Phone(),
			Telegram: gofakeit.Username(),
		},
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

func TestCredentialsExpireBySlot(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	st := newStorage(t, "").WithClock(func() time.Time { return now })

	require.NoError(t, st.Persist(ctx, storage.Credentials{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    now.Add(15 * time.Minute).Unix(),
		User:         &models.User{ID: 3, Email: "owner@example.com"},
	}))

	now = now.Add(16 * time.Minute)

	got, err := st.Credentials(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.AccessToken)
	assert.Equal(t, "refresh", got.RefreshToken)
	require.NotNil(t, got.User)
	assert.Equal(t, int64(3), got.User.ID)
}

func TestNamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shared.db")

	a, err := New(path, storage.DefaultTTLs(), "alice")
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	require.NoError(t, a.Migrate())

	b, err := New(path, storage.DefaultTTLs(), "bob")
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	require.NoError(t, a.Persist(ctx, storage.Credentials{AccessToken: "a-token", ExpiresAt: 10}))

	got, err := b.Credentials(ctx)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	require.NoError(t, b.Clear(ctx))

	got, err = a.Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a-token", got.AccessToken)
}

func TestMeetings(t *testing.T) {
	ctx := context.Background()
	st := newStorage(t, "")

	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	first := models.Meeting{ID: "m1", Title: "Tenant viewing", Date: day.Add(15 * time.Hour), Priority: models.PriorityHigh}
	second := models.Meeting{ID: "m2", Title: "Notary", Date: day.Add(9 * time.Hour), Priority: models.PriorityMedium, AllDay: true}
	other := models.Meeting{ID: "m3", Title: "Plumber", Date: day.Add(48 * time.Hour), Priority: models.PriorityLow}

	for _, m := range []models.Meeting{first, second, other} {
		require.NoError(t, st.SaveMeeting(ctx, m))
	}

	got, err := st.Meetings(ctx, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "m2", got[0].ID)
	assert.True(t, got[0].AllDay)
	assert.Equal(t, "m1", got[1].ID)
	assert.True(t, first.Date.Equal(got[1].Date))

	require.NoError(t, st.DeleteMeeting(ctx, "m1"))

	err = st.DeleteMeeting(ctx, "m1")
	assert.True(t, errors.Is(err, storage.ErrMeetingNotFound))
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	st := newStorage(t, "")

	_, err := st.Setting(ctx, "notifications")
	assert.True(t, errors.Is(err, storage.ErrSettingNotFound))

	require.NoError(t, st.SaveSetting(ctx, "notifications", `{"emailNotifications":false}`))
	require.NoError(t, st.SaveSetting(ctx, "notifications", `{"emailNotifications":true}`))

	got, err := st.Setting(ctx, "notifications")
	require.NoError(t, err)
	assert.Equal(t, `{"emailNotifications":true}`, got)
}
