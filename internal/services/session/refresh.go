package session

import (
	"context"
	"fmt"
	"log/slog"

	"estatemetrics/internal/clients/backend"
	"estatemetrics/internal/lib/logger/sl"
)

// Refresh exchanges the refresh token for a new token triple.
//
// Concurrent callers holding the same refresh token share one exchange. The
// exchange is bounded by the refresh timeout and outlives a caller that gives
// up early. A 401 or 403 ends the session; any other failure leaves it as is.
func (m *Manager) Refresh(ctx context.Context) error {
	const op = "session.Refresh"

	m.mu.RLock()
	refreshToken := m.refreshToken
	m.mu.RUnlock()

	if refreshToken == "" {
		return fmt.Errorf("%s: %w", op, ErrNoRefreshToken)
	}

	ch := m.refreshes.DoChan(refreshToken, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.refreshTimeout)
		defer cancel()

		return nil, m.exchange(ctx, refreshToken)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return fmt.Errorf("%s: %w", op, res.Err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
}

func (m *Manager) exchange(ctx context.Context, refreshToken string) error {
	const op = "session.exchange"

	log := m.log.With(slog.String("op", op))

	// A shared exchange may have rotated the token since the caller read it.
	m.mu.RLock()
	current := m.refreshToken
	m.mu.RUnlock()
	if current != refreshToken {
		log.Debug("refresh token already replaced, skipping exchange")
		return nil
	}

	log.Debug("refreshing tokens")

	resp, err := m.api.RefreshToken(ctx, refreshToken)
	if err != nil {
		if backend.IsAuthFailure(err) {
			log.Warn("refresh token rejected, clearing session", sl.Err(err))

			m.mu.Lock()
			defer m.mu.Unlock()

			// A login or another refresh may have replaced the token meanwhile.
			if m.refreshToken != refreshToken {
				log.Info("rejected refresh token already replaced", sl.Err(err))
				return err
			}

			if clearErr := m.clearLocked(ctx); clearErr != nil {
				log.Error("failed to clear credentials", sl.Err(clearErr))
			}

			return fmt.Errorf("%w: %w", ErrSessionTerminated, err)
		}

		log.Warn("refresh failed", sl.Err(err))
		return err
	}

	if resp.AccessToken == "" {
		log.Error("refresh response without access token")
		return ErrMalformedResponse
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.refreshToken != refreshToken {
		log.Info("session changed during refresh, dropping result")
		return nil
	}

	next := Snapshot{
		User:         resp.User,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    resp.ExpiresAt,
	}
	if next.User == nil && m.user != nil {
		u := *m.user
		next.User = &u
	}
	if next.RefreshToken == "" {
		next.RefreshToken = refreshToken
	}
	if next.ExpiresAt == 0 {
		next.ExpiresAt = m.deriveExpiry(next.AccessToken)
	}

	m.setLocked(ctx, next)

	log.Info("tokens refreshed")

	return nil
}
