package session

import (
	"context"
	"log/slog"
	"time"

	"estatemetrics/internal/domain/models"
	"estatemetrics/internal/lib/jwt"
	"estatemetrics/internal/lib/logger/sl"
	"estatemetrics/internal/storage"
)

// Snapshot is a point-in-time copy of the session.
type Snapshot struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64 // unix seconds, zero when there is no access token
}

func (s Snapshot) credentials() storage.Credentials {
	return storage.Credentials{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt,
		User:         s.User,
	}
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	s := Snapshot{
		AccessToken:  m.accessToken,
		RefreshToken: m.refreshToken,
		ExpiresAt:    m.expiresAt,
	}
	if m.user != nil {
		u := *m.user
		s.User = &u
	}
	return s
}

// User returns the cached user, if any.
func (m *Manager) User() (models.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.user == nil {
		return models.User{}, false
	}
	return *m.user, true
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.accessToken != "" && m.user != nil
}

func (m *Manager) IsTokenExpired() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.expired(m.expiresAt)
}

// NeedsRefresh reports whether the access token expires within the refresh
// threshold. An unknown expiry never needs a refresh; it is already expired.
func (m *Manager) NeedsRefresh() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.expiresAt == 0 {
		return false
	}
	return !m.now().Before(time.Unix(m.expiresAt, 0).Add(-m.refreshThreshold))
}

func (m *Manager) IsInitialized() bool {
	return m.initialized.Load()
}

func (m *Manager) expired(expiresAt int64) bool {
	return expiresAt == 0 || !m.now().Before(time.Unix(expiresAt, 0))
}

// deriveExpiry is used when the API did not report expires_at.
func (m *Manager) deriveExpiry(accessToken string) int64 {
	if exp, err := jwt.ExpiresAt(accessToken); err == nil {
		return exp.Unix()
	}
	return m.now().Add(m.accessTTL).Unix()
}

// set replaces the whole session and mirrors it to the store.
func (m *Manager) set(ctx context.Context, s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setLocked(ctx, s)
}

func (m *Manager) setLocked(ctx context.Context, s Snapshot) {
	m.user = s.User
	m.accessToken = s.AccessToken
	m.refreshToken = s.RefreshToken
	m.expiresAt = s.ExpiresAt
	if m.accessToken == "" {
		m.expiresAt = 0
	}

	m.persistLocked(ctx)
}

// setUser replaces the cached profile of the session that accessToken
// belongs to. It reports false and writes nothing when that session has
// since been replaced or ended.
func (m *Manager) setUser(ctx context.Context, accessToken string, u models.User) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if accessToken == "" || m.accessToken != accessToken {
		return false
	}

	m.user = &u
	m.persistLocked(ctx)

	return true
}

func (m *Manager) persistLocked(ctx context.Context) {
	const op = "session.persist"

	if m.store == nil {
		return
	}

	if err := m.store.Persist(ctx, m.snapshotLocked().credentials()); err != nil {
		m.log.With(slog.String("op", op)).Error("failed to persist credentials", sl.Err(err))
	}
}

// clear empties the session and the store.
func (m *Manager) clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.clearLocked(ctx)
}

// clearIfCurrent ends the session only while accessToken is still its token.
func (m *Manager) clearIfCurrent(ctx context.Context, accessToken string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.accessToken != accessToken {
		return false, nil
	}

	return true, m.clearLocked(ctx)
}

func (m *Manager) clearLocked(ctx context.Context) error {
	m.user = nil
	m.accessToken = ""
	m.refreshToken = ""
	m.expiresAt = 0

	if m.store == nil {
		return nil
	}

	return m.store.Clear(ctx)
}
