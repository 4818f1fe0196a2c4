package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"estatemetrics/internal/domain/models"
	"estatemetrics/internal/lib/logger/handlers/slogdiscard"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return New(slogdiscard.NewDiscardLogger(), srv.URL, "secret", time.Second, WithHTTPClient(srv.Client()))
}

func TestLoginSendsHeadersAndDecodes(t *testing.T) {
	email := gofakeit.Email()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/login", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get(HeaderAPIKey))
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req models.LoginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, email, req.Email)

		_, _ = w.Write([]byte(`{"token":"legacy","refresh_token":"r","expires_at":99,"user":{"id":7,"email":"` + email + `"}}`))
	})

	resp, err := c.Login(context.Background(), email, "pass")
	require.NoError(t, err)
	assert.Equal(t, "legacy", resp.AccessToken)
	assert.Equal(t, "r", resp.RefreshToken)
	assert.Equal(t, int64(99), resp.ExpiresAt)
	require.NotNil(t, resp.User)
	assert.Equal(t, int64(7), resp.User.ID)
}

func TestGatedCallSendsBearer(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access", r.Header.Get("Authorization"))
		assert.Equal(t, "/users/3/estates", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":1,"name":"Flat"}]`))
	})

	estates, err := c.Estates(context.Background(), "access", 3)
	require.NoError(t, err)
	require.Len(t, estates, 1)
	assert.Equal(t, "Flat", estates[0].Name)
}

func TestErrorNormalization(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "body message wins", status: http.StatusConflict, body: `{"message":"email taken"}`, message: "email taken"},
		{name: "status default", status: http.StatusNotFound, body: ``, message: "resource not found"},
		{name: "non json body", status: http.StatusUnauthorized, body: `nope`, message: "invalid credentials"},
		{name: "unknown status", status: http.StatusTeapot, body: `{}`, message: defaultMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Users(context.Background(), "t")
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.status, StatusOf(err))
		})
	}
}

func TestNetworkFailureHasZeroStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(slogdiscard.NewDiscardLogger(), url, "", time.Second)

	_, err := c.RefreshToken(context.Background(), "r")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Zero(t, apiErr.Status)
	assert.NotEmpty(t, apiErr.Message)
	assert.False(t, IsAuthFailure(err))
}

func TestIsAuthFailure(t *testing.T) {
	assert.True(t, IsAuthFailure(&APIError{Status: http.StatusUnauthorized}))
	assert.True(t, IsAuthFailure(&APIError{Status: http.StatusForbidden}))
	assert.False(t, IsAuthFailure(&APIError{Status: http.StatusInternalServerError}))
	assert.False(t, IsAuthFailure(errors.New("plain")))
}

func TestNoContentResponse(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/transactions/12", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.DeleteTransaction(context.Background(), "t", 12))
}
