package session

import (
	"context"
	"sync/atomic"
	"testing"

	"estatemetrics/internal/domain/models"
	"estatemetrics/internal/lib/logger/handlers/slogdiscard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type refreshCounter struct {
	API
	calls atomic.Int32
}

func (r *refreshCounter) RefreshToken(context.Context, string) (models.TokenResponse, error) {
	r.calls.Add(1)
	return models.TokenResponse{}, nil
}

func TestExchangeSkipsReplacedRefreshToken(t *testing.T) {
	api := &refreshCounter{}
	m := New(slogdiscard.NewDiscardLogger(), api, nil)

	u := models.User{ID: 1}
	m.set(context.Background(), Snapshot{User: &u, AccessToken: "access-2", RefreshToken: "refresh-2", ExpiresAt: 1})

	require.NoError(t, m.exchange(context.Background(), "refresh-1"))

	assert.Zero(t, api.calls.Load())
	s := m.Snapshot()
	assert.Equal(t, "access-2", s.AccessToken)
	assert.Equal(t, "refresh-2", s.RefreshToken)
}
