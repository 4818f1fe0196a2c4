package session

import (
	"context"
	"fmt"
	"log/slog"

	"estatemetrics/internal/lib/jwt"
	"estatemetrics/internal/lib/logger/sl"
)

// InitAuth restores the session from the credential store once per Manager.
// Concurrent callers wait for the first run; later calls return immediately.
// The returned error is the store read failure, if any; the Manager is
// initialized either way.
func (m *Manager) InitAuth(ctx context.Context) error {
	if m.initialized.Load() {
		return nil
	}

	m.initMu.Lock()
	defer m.initMu.Unlock()

	if m.initialized.Load() {
		return nil
	}
	defer m.initialized.Store(true)

	return m.bootstrap(ctx)
}

func (m *Manager) bootstrap(ctx context.Context) error {
	const op = "session.InitAuth"

	log := m.log.With(slog.String("op", op))

	if m.store == nil {
		log.Debug("no credential store, starting empty")
		return nil
	}

	creds, err := m.store.Credentials(ctx)
	if err != nil {
		log.Error("failed to read credentials", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	switch {
	case creds.AccessToken != "":
		expiresAt := creds.ExpiresAt
		if expiresAt == 0 {
			if exp, err := jwt.ExpiresAt(creds.AccessToken); err == nil {
				expiresAt = exp.Unix()
			}
		}

		m.mu.Lock()
		m.user = creds.User
		m.accessToken = creds.AccessToken
		m.refreshToken = creds.RefreshToken
		m.expiresAt = expiresAt
		m.mu.Unlock()

		if creds.User == nil {
			log.Warn("access token without cached user, clearing session")
			m.clearLogged(ctx)
			return nil
		}

		if !m.IsValidToken(ctx) {
			log.Info("restored session is no longer valid, clearing")
			m.clearLogged(ctx)
			return nil
		}

		log.Info("session restored", slog.Int64("user_id", creds.User.ID))

	case creds.RefreshToken != "":
		m.mu.Lock()
		m.user = creds.User
		m.refreshToken = creds.RefreshToken
		m.mu.Unlock()

		if err := m.Refresh(ctx); err != nil {
			log.Info("failed to restore session from refresh token", sl.Err(err))
			m.clearLogged(ctx)
			return nil
		}

		if !m.IsAuthenticated() {
			log.Warn("refreshed session has no user, clearing")
			m.clearLogged(ctx)
			return nil
		}

		log.Info("session restored from refresh token")

	default:
		m.clearLogged(ctx)
	}

	return nil
}

func (m *Manager) clearLogged(ctx context.Context) {
	if err := m.clear(ctx); err != nil {
		m.log.Error("failed to clear credentials", sl.Err(err))
	}
}
