package app_test

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"estatemetrics/config"
	"estatemetrics/internal/app"
	"estatemetrics/internal/devapi"
	"estatemetrics/internal/domain/models"
	"estatemetrics/internal/lib/logger/handlers/slogdiscard"
	"estatemetrics/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testConfig(t *testing.T, driver, apiURL string) *config.Config {
	t.Helper()

	return &config.Config{
		Env: "local",
		API: config.APIConfig{BaseURL: apiURL, Key: "k", Timeout: 5 * time.Second},
		Credentials: config.CredentialsConfig{
			Driver:      driver,
			StoragePath: filepath.Join(t.TempDir(), "nested", "estatemetrics.db"),
			Namespace:   "test",
			AccessTTL:   15 * time.Minute,
			RefreshTTL:  7 * 24 * time.Hour,
			ExpiresTTL:  7 * 24 * time.Hour,
		},
		Session: config.SessionConfig{RefreshThreshold: 5 * time.Minute, RefreshTimeout: 5 * time.Second},
		HTTP:    config.HTTPConfig{Timeout: 5 * time.Second, UpstreamURL: apiURL, UpstreamKey: "k"},
	}
}

func TestStorageDrivers(t *testing.T) {
	mr := miniredis.RunT(t)

	for _, driver := range []string{app.DriverSQLite, app.DriverMemory, app.DriverRedis} {
		t.Run(driver, func(t *testing.T) {
			cfg := testConfig(t, driver, "http://unused")
			cfg.Credentials.RedisAddr = mr.Addr()

			sa, err := app.NewStorageApp(app.StorageConfigFrom(cfg))
			require.NoError(t, err)
			t.Cleanup(func() { assert.NoError(t, sa.Stop()) })

			ctx := context.Background()
			in := storage.Credentials{
				AccessToken:  "access",
				RefreshToken: "refresh",
				ExpiresAt:    time.Now().Add(time.Hour).Unix(),
				User:         &models.User{ID: 3, Email: "a@b.c"},
			}
			require.NoError(t, sa.Credentials().Persist(ctx, in))

			out, err := sa.Credentials().Credentials(ctx)
			require.NoError(t, err)
			assert.Equal(t, in, out)
		})
	}
}

func TestUnknownDriver(t *testing.T) {
	_, err := app.NewStorageApp(app.StorageConfigFrom(testConfig(t, "etcd", "http://unused")))
	require.ErrorIs(t, err, storage.ErrUnknownDriver)
}

func TestAppSharesOneSession(t *testing.T) {
	srv := httptest.NewServer(devapi.New(slogdiscard.NewDiscardLogger(), devapi.Config{APIKey: "k"}).Handler())
	t.Cleanup(srv.Close)

	cfg := testConfig(t, app.DriverSQLite, srv.URL)

	sa, err := app.NewStorageApp(app.StorageConfigFrom(cfg))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sa.Stop() })

	a := app.New(slogdiscard.NewDiscardLogger(), cfg, sa)
	ctx := context.Background()

	require.NoError(t, a.Sessions.InitAuth(ctx))
	assert.False(t, a.Sessions.IsAuthenticated())

	_, err = a.Sessions.Register(ctx, gofakeit.Email(), "password", gofakeit.Name())
	require.NoError(t, err)

	estate, err := a.Portfolio.CreateEstate(ctx, models.EstateRequest{EstateTypeID: 1, Name: "Flat"})
	require.NoError(t, err)

	_, err = a.Portfolio.AddTransaction(ctx, models.Transaction{
		EstateID:          estate.ID,
		TransactionTypeID: 3,
		Amount:            1000,
		Direction:         models.DirectionIncome,
		Regularity:        models.RegularityOneTime,
		Date:              "2024-05-10",
	})
	require.NoError(t, err)

	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	items, err := a.Calendar.Items(ctx, from, from.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.CalendarSourceTransaction, items[0].Source)

	require.NoError(t, a.Dictionaries.Init(ctx))
	assert.True(t, a.Dictionaries.IsLoaded())

	ns, err := a.Settings.Notifications(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultNotificationSettings(), ns)
}
