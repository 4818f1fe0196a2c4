package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"estatemetrics/internal/clients/backend"
	"estatemetrics/internal/lib/logger/sl"
)

// IsValidToken reports whether the session may make privileged calls,
// refreshing the access token when it has expired or is about to.
func (m *Manager) IsValidToken(ctx context.Context) bool {
	const op = "session.IsValidToken"

	log := m.log.With(slog.String("op", op))

	s := m.Snapshot()
	if s.AccessToken == "" && s.User == nil {
		return false
	}
	if s.AccessToken == "" || s.User == nil {
		log.Warn("half-populated session, clearing")
		m.clearLogged(ctx)
		return false
	}

	if m.IsTokenExpired() {
		if err := m.Refresh(ctx); err != nil {
			log.Info("expired token could not be refreshed", sl.Err(err))
			return false
		}
		return m.IsAuthenticated()
	}

	if m.NeedsRefresh() {
		err := m.Refresh(ctx)
		if err == nil {
			return m.IsAuthenticated()
		}

		log.Info("early refresh failed", sl.Err(err))

		// The current token may still be good for a few minutes.
		return m.IsAuthenticated() && !m.IsTokenExpired()
	}

	return true
}

// Authorize initializes the session if needed and checks it. The returned
// snapshot carries the access token to use.
func (m *Manager) Authorize(ctx context.Context) (Snapshot, error) {
	const op = "session.Authorize"

	if err := m.InitAuth(ctx); err != nil {
		m.log.With(slog.String("op", op)).Warn("session bootstrap failed", sl.Err(err))
	}

	if !m.IsValidToken(ctx) {
		return Snapshot{}, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	s := m.Snapshot()
	if s.AccessToken == "" || s.User == nil {
		return Snapshot{}, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	return s, nil
}

// Call runs fn behind the gate. A 401 from fn means the API no longer
// accepts the session, so it is ended, unless a login or refresh has already
// replaced the token fn was given.
func (m *Manager) Call(ctx context.Context, fn func(ctx context.Context, s Snapshot) error) error {
	const op = "session.Call"

	s, err := m.Authorize(ctx)
	if err != nil {
		return err
	}

	err = fn(ctx, s)
	if err == nil {
		return nil
	}

	if backend.StatusOf(err) == http.StatusUnauthorized {
		log := m.log.With(slog.String("op", op))

		cleared, clearErr := m.clearIfCurrent(ctx, s.AccessToken)
		if clearErr != nil {
			log.Error("failed to clear credentials", sl.Err(clearErr))
		}
		if !cleared {
			log.Info("stale token rejected, session already replaced", sl.Err(err))
			return err
		}

		log.Warn("token rejected, logging out", sl.Err(err))
		return fmt.Errorf("%w: %w", ErrSessionTerminated, err)
	}

	return err
}
