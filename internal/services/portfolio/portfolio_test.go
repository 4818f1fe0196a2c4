package portfolio_test

import (
	"context"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"estatemetrics/internal/clients/backend"
	"estatemetrics/internal/devapi"
	"estatemetrics/internal/domain/models"
	"estatemetrics/internal/lib/logger/handlers/slogdiscard"
	"estatemetrics/internal/lib/validate"
	"estatemetrics/internal/services/portfolio"
	"estatemetrics/internal/services/session"
	"estatemetrics/internal/storage"
	"estatemetrics/internal/storage/memory"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type suite struct {
	api      *backend.Client
	sessions *session.Manager
	svc      *portfolio.Service
}

func newSuite(t *testing.T, login bool) *suite {
	t.Helper()

	log := slogdiscard.NewDiscardLogger()

	srv := httptest.NewServer(devapi.New(log, devapi.Config{APIKey: "k"}).Handler())
	t.Cleanup(srv.Close)

	api := backend.New(log, srv.URL, "k", 5*time.Second)
	sessions := session.New(log, api, memory.New(storage.DefaultTTLs()))

	if login {
		_, err := sessions.Register(context.Background(), gofakeit.Email(), "password", gofakeit.Name())
		require.NoError(t, err)
	}

	return &suite{
		api:      api,
		sessions: sessions,
		svc:      portfolio.New(log, api, sessions),
	}
}

func TestEstates(t *testing.T) {
	st := newSuite(t, true)
	ctx := context.Background()

	_, err := st.svc.CreateEstate(ctx, models.EstateRequest{Name: "No type"})
	var vErr *validate.Error
	require.ErrorAs(t, err, &vErr)

	created, err := st.svc.CreateEstate(ctx, models.EstateRequest{EstateTypeID: 2, Name: "Dacha"})
	require.NoError(t, err)

	estates, err := st.svc.Estates(ctx)
	require.NoError(t, err)
	require.Len(t, estates, 1)
	assert.Equal(t, created, estates[0])

	got, err := st.svc.Estate(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "House", got.EstateTypeName)

	require.NoError(t, st.svc.DeleteEstate(ctx, created.ID))

	estates, err = st.svc.Estates(ctx)
	require.NoError(t, err)
	assert.Empty(t, estates)
}

func TestTransactions(t *testing.T) {
	st := newSuite(t, true)
	ctx := context.Background()

	estate, err := st.svc.CreateEstate(ctx, models.EstateRequest{EstateTypeID: 1, Name: "Loft"})
	require.NoError(t, err)

	_, err = st.svc.AddTransaction(ctx, models.Transaction{EstateID: estate.ID, TransactionTypeID: 4, Amount: 500, Regularity: models.RegularityRegular})
	var vErr *validate.Error
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "start_date")
	assert.Contains(t, vErr.Fields, "payment_day")

	page, err := st.svc.AddTransaction(ctx, models.Transaction{
		EstateID:          estate.ID,
		TransactionTypeID: 4,
		Amount:            500,
		Regularity:        models.RegularityRegular,
		Direction:         models.DirectionIncome,
		StartDate:         "2024-01-01",
		PaymentDay:        5,
	})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, portfolio.DefaultPage, page.Page)
	assert.Equal(t, portfolio.DefaultLimit, page.PageSize)
	assert.Equal(t, 1, page.TotalItems)

	calendar, err := st.svc.UserTransactions(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, calendar)
	assert.Equal(t, "2024-01-05", calendar[0].Date)

	stats, err := st.svc.FinancialStats(ctx, estate.ID, "2024-01-01", "2024-03-31")
	require.NoError(t, err)
	assert.Equal(t, []float64{500, 500, 500}, stats.Series.Income)

	_, err = st.svc.FinancialStats(ctx, estate.ID, "2024-03-01", "2024-01-01")
	require.ErrorIs(t, err, portfolio.ErrInvalidDateRange)

	page, err = st.svc.DeleteTransaction(ctx, estate.ID, page.Data[0].ID)
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.NotNil(t, page.Data)
}

func TestGatedWithoutSession(t *testing.T) {
	st := newSuite(t, false)
	ctx := context.Background()

	_, err := st.svc.Estates(ctx)
	require.ErrorIs(t, err, session.ErrUnauthenticated)

	_, err = st.svc.EstateTransactions(ctx, 1, models.TransactionFilter{})
	require.ErrorIs(t, err, session.ErrUnauthenticated)

	_, err = st.svc.FinancialStats(ctx, 1, "", "")
	require.ErrorIs(t, err, session.ErrUnauthenticated)
}

type anonymousGate struct{}

func (anonymousGate) Call(ctx context.Context, fn func(context.Context, session.Snapshot) error) error {
	return fn(ctx, session.Snapshot{AccessToken: "t", User: &models.User{}})
}

func (anonymousGate) Authorize(context.Context) (session.Snapshot, error) {
	return session.Snapshot{}, session.ErrUnauthenticated
}

func TestEstateTransactionsWithoutUserID(t *testing.T) {
	svc := portfolio.New(slogdiscard.NewDiscardLogger(), nil, anonymousGate{})

	page, err := svc.EstateTransactions(context.Background(), 3, models.TransactionFilter{Limit: 25})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Equal(t, models.Pagination{Page: 1, PageSize: 25}, page.Pagination)
}

type countingDictionaries struct {
	calls atomic.Int32
	fail  atomic.Bool
	api   portfolio.DictionaryAPI
}

func (c *countingDictionaries) EstateTypes(ctx context.Context, token string) ([]models.EstateType, error) {
	c.calls.Add(1)
	if c.fail.Load() {
		return nil, &backend.APIError{Message: "down"}
	}
	return c.api.EstateTypes(ctx, token)
}

func (c *countingDictionaries) TransactionTypes(ctx context.Context, token string) ([]models.TransactionType, error) {
	return c.api.TransactionTypes(ctx, token)
}

func (c *countingDictionaries) TransactionFrequencies(ctx context.Context, token string) ([]models.Frequency, error) {
	return c.api.TransactionFrequencies(ctx, token)
}

func (c *countingDictionaries) RepaymentPlans(ctx context.Context, token string) ([]models.Frequency, error) {
	return c.api.RepaymentPlans(ctx, token)
}

func TestDictionariesLoadOnce(t *testing.T) {
	st := newSuite(t, false)
	api := &countingDictionaries{api: st.api}
	d := portfolio.NewDictionaries(slogdiscard.NewDiscardLogger(), api, anonymousGate{})
	ctx := context.Background()

	api.fail.Store(true)
	require.Error(t, d.Init(ctx))
	assert.False(t, d.IsLoaded())

	api.fail.Store(false)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, d.Init(ctx))
		}()
	}
	wg.Wait()

	assert.True(t, d.IsLoaded())
	assert.Equal(t, int32(2), api.calls.Load())

	opts := d.EstateTypeOptions()
	require.NotEmpty(t, opts)
	assert.Equal(t, "Apartment", opts[0].Label)

	et, ok := d.EstateType(opts[0].Value)
	require.True(t, ok)
	assert.Equal(t, opts[0].Icon, et.Icon)

	_, ok = d.EstateType(-1)
	assert.False(t, ok)

	for _, tt := range d.TransactionTypesFor(models.DirectionIncome, models.RegularityRegular) {
		assert.Equal(t, models.DirectionIncome, tt.Direction)
		assert.Equal(t, models.RegularityRegular, tt.Regularity)
	}
	assert.NotEmpty(t, d.TransactionFrequencies())
	assert.NotEmpty(t, d.RepaymentPlans())
	assert.NotEmpty(t, d.TransactionTypes())
	assert.Len(t, d.EstateTypes(), len(opts))
}
