package devapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"estatemetrics/internal/clients/backend"
	"estatemetrics/internal/devapi"
	"estatemetrics/internal/domain/models"
	"estatemetrics/internal/lib/logger/handlers/slogdiscard"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	apiKey         = "test-api-key"
	passDefaultLen = 10
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newClient(t *testing.T) *backend.Client {
	t.Helper()

	srv := httptest.NewServer(devapi.New(slogdiscard.NewDiscardLogger(), devapi.Config{APIKey: apiKey}).Handler())
	t.Cleanup(srv.Close)

	return backend.New(slogdiscard.NewDiscardLogger(), srv.URL, apiKey, 5*time.Second)
}

func randomFakePassword() string {
	return gofakeit.Password(true, true, true, true, false, passDefaultLen)
}

// signup registers and logs in a fresh account.
func signup(t *testing.T, c *backend.Client) models.TokenResponse {
	t.Helper()
	ctx := context.Background()

	email := gofakeit.Email()
	pass := randomFakePassword()

	reg, err := c.Register(ctx, models.RegisterRequest{Email: email, Password: pass, Name: gofakeit.Name()})
	require.NoError(t, err)
	require.NotZero(t, reg.ID)

	resp, err := c.Login(ctx, email, pass)
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	require.Equal(t, reg.ID, resp.User.ID)

	return resp
}

func TestRegisterLoginHappyPath(t *testing.T) {
	c := newClient(t)

	resp := signup(t, c)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.InDelta(t, time.Now().Add(15*time.Minute).Unix(), resp.ExpiresAt, 2)

	user, err := c.User(context.Background(), resp.AccessToken, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, *resp.User, user)
}

func TestRegisterDuplicate(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	email := gofakeit.Email()
	_, err := c.Register(ctx, models.RegisterRequest{Email: email, Password: randomFakePassword()})
	require.NoError(t, err)

	_, err = c.Register(ctx, models.RegisterRequest{Email: email, Password: randomFakePassword()})
	assert.Equal(t, http.StatusConflict, backend.StatusOf(err))
}

func TestLoginWrongPassword(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	email := gofakeit.Email()
	_, err := c.Register(ctx, models.RegisterRequest{Email: email, Password: randomFakePassword()})
	require.NoError(t, err)

	_, err = c.Login(ctx, email, "wrong-password")
	assert.True(t, backend.IsAuthFailure(err))

	_, err = c.Login(ctx, gofakeit.Email(), "whatever")
	assert.True(t, backend.IsAuthFailure(err))
}

func TestRefreshRotates(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	first := signup(t, c)

	second, err := c.RefreshToken(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	require.NotNil(t, second.User)
	assert.Equal(t, first.User.ID, second.User.ID)

	// A spent refresh token is rejected.
	_, err = c.RefreshToken(ctx, first.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, backend.StatusOf(err))

	_, err = c.RefreshToken(ctx, second.RefreshToken)
	require.NoError(t, err)
}

func TestAPIKeyRequired(t *testing.T) {
	srv := httptest.NewServer(devapi.New(slogdiscard.NewDiscardLogger(), devapi.Config{APIKey: apiKey}).Handler())
	t.Cleanup(srv.Close)

	c := backend.New(slogdiscard.NewDiscardLogger(), srv.URL, "wrong", time.Second)

	_, err := c.EstateTypes(context.Background(), "")
	assert.Equal(t, http.StatusUnauthorized, backend.StatusOf(err))
}

func TestGatedRoutes(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	_, err := c.Users(ctx, "")
	assert.Equal(t, http.StatusUnauthorized, backend.StatusOf(err))

	_, err = c.Users(ctx, "garbage")
	assert.Equal(t, http.StatusUnauthorized, backend.StatusOf(err))

	alice := signup(t, c)
	bob := signup(t, c)

	users, err := c.Users(ctx, alice.AccessToken)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = c.Estates(ctx, alice.AccessToken, bob.User.ID)
	assert.Equal(t, http.StatusForbidden, backend.StatusOf(err))
}

func TestProfileAndPassword(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	email := gofakeit.Email()
	pass := randomFakePassword()
	_, err := c.Register(ctx, models.RegisterRequest{Email: email, Password: pass})
	require.NoError(t, err)
	s, err := c.Login(ctx, email, pass)
	require.NoError(t, err)

	tg := "@estate"
	user, err := c.UpdateProfile(ctx, s.AccessToken, s.User.ID, models.UpdateProfileRequest{Telegram: &tg})
	require.NoError(t, err)
	assert.Equal(t, tg, user.Telegram)
	assert.Equal(t, email, user.Email)

	err = c.ChangePassword(ctx, s.AccessToken, s.User.ID, models.ChangePasswordRequest{
		CurrentPassword: "not-it",
		NewPassword:     "new-password",
	})
	assert.Equal(t, http.StatusBadRequest, backend.StatusOf(err))

	require.NoError(t, c.ChangePassword(ctx, s.AccessToken, s.User.ID, models.ChangePasswordRequest{
		CurrentPassword: pass,
		NewPassword:     "new-password",
		ConfirmPassword: "new-password",
	}))

	_, err = c.Login(ctx, email, pass)
	assert.True(t, backend.IsAuthFailure(err))

	_, err = c.Login(ctx, email, "new-password")
	require.NoError(t, err)

	// Sessions started before the change are revoked.
	_, err = c.RefreshToken(ctx, s.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, backend.StatusOf(err))
}

func TestEstatesAndTransactions(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()
	s := signup(t, c)
	token, uid := s.AccessToken, s.User.ID

	_, err := c.CreateEstate(ctx, token, uid, models.EstateRequest{EstateTypeID: 99, Name: "Nowhere"})
	assert.Equal(t, http.StatusBadRequest, backend.StatusOf(err))

	estate, err := c.CreateEstate(ctx, token, uid, models.EstateRequest{EstateTypeID: 1, Name: "Flat on Lenina"})
	require.NoError(t, err)
	assert.Equal(t, "Apartment", estate.EstateTypeName)
	assert.Equal(t, uid, estate.UserID)

	got, err := c.Estate(ctx, token, uid, estate.ID)
	require.NoError(t, err)
	assert.Equal(t, estate, got)

	for i := 1; i <= 12; i++ {
		_, err := c.AddTransaction(ctx, token, models.Transaction{
			EstateID:          estate.ID,
			TransactionTypeID: 2,
			Amount:            float64(i * 100),
			Regularity:        models.RegularityOneTime,
			Direction:         models.DirectionExpense,
			Date:              time.Date(2024, time.Month(i), 10, 0, 0, 0, 0, time.UTC).Format(time.DateOnly),
		})
		require.NoError(t, err)
	}

	page, err := c.EstateTransactions(ctx, token, uid, models.TransactionFilter{EstateID: estate.ID, Page: 2, Limit: 5})
	require.NoError(t, err)
	assert.Len(t, page.Data, 5)
	assert.Equal(t, models.Pagination{Page: 2, PageSize: 5, TotalItems: 12, TotalPages: 3}, page.Pagination)

	page, err = c.EstateTransactions(ctx, token, uid, models.TransactionFilter{
		EstateID:  estate.ID,
		DateStart: "2024-03-01",
		DateEnd:   "2024-05-31",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalItems)

	require.NoError(t, c.DeleteTransaction(ctx, token, page.Data[0].ID))

	_, err = c.AddTransaction(ctx, token, models.Transaction{EstateID: estate.ID, TransactionTypeID: 2, Amount: 1})
	assert.Equal(t, http.StatusBadRequest, backend.StatusOf(err))

	require.NoError(t, c.DeleteEstate(ctx, token, estate.ID))
	estates, err := c.Estates(ctx, token, uid)
	require.NoError(t, err)
	assert.Empty(t, estates)
}

func TestEstateValues(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()
	s := signup(t, c)
	token, uid := s.AccessToken, s.User.ID

	estate, err := c.CreateEstate(ctx, token, uid, models.EstateRequest{EstateTypeID: 1, Name: "Studio"})
	require.NoError(t, err)

	_, err = c.AddTransaction(ctx, token, models.Transaction{
		EstateID: estate.ID, TransactionTypeID: 1, Amount: 1000,
		Regularity: models.RegularityOneTime, Direction: models.DirectionExpense, Date: "2024-01-15",
	})
	require.NoError(t, err)

	_, err = c.AddTransaction(ctx, token, models.Transaction{
		EstateID: estate.ID, TransactionTypeID: 4, Amount: 300,
		Regularity: models.RegularityRegular, Direction: models.DirectionIncome,
		StartDate: "2024-02-01", PaymentDay: 31,
	})
	require.NoError(t, err)

	data, err := c.EstateValues(ctx, token, uid, estate.ID, models.ValuesFilter{DateStart: "2024-01-01", DateEnd: "2024-04-30"})
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03", "2024-04"}, data.Categories)
	assert.Equal(t, []float64{0, 300, 300, 300}, data.Series.Income)
	assert.Equal(t, []float64{1000, 0, 0, 0}, data.Series.Expense)
	assert.Equal(t, []float64{-1000, 300, 300, 300}, data.Series.Balance)
	assert.Equal(t, []float64{-1000, -700, -400, -100}, data.Series.CumulativeBalance)
	assert.Equal(t, models.ChartTotals{TotalIncome: 900, TotalExpense: 1000, NetBalance: -100}, data.Totals)

	calendar, err := c.UserTransactions(ctx, token, uid)
	require.NoError(t, err)
	require.NotEmpty(t, calendar.Data)
	assert.Equal(t, "2024-01-15", calendar.Data[0].Date)
	assert.Equal(t, "Studio", calendar.Data[0].EstateName)
	assert.Equal(t, "2024-02-29", calendar.Data[1].Date)
}

func TestDictionaries(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	types, err := c.EstateTypes(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, types)

	txTypes, err := c.TransactionTypes(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, txTypes)

	freqs, err := c.TransactionFrequencies(ctx, "")
	require.NoError(t, err)
	plans, err := c.RepaymentPlans(ctx, "")
	require.NoError(t, err)
	assert.NotEqual(t, freqs, plans)
}
