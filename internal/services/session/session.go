// Package session owns the client-side session: the cached user and token
// triple, its durable mirror in a credential store, refresh before expiry and
// the gate every privileged remote call goes through.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"estatemetrics/internal/domain/models"
	"estatemetrics/internal/lib/logger/sl"
	"estatemetrics/internal/lib/validate"
	"estatemetrics/internal/storage"

	"golang.org/x/sync/singleflight"
)

const (
	DefaultRefreshThreshold = 5 * time.Minute
	DefaultRefreshTimeout   = 10 * time.Second
	DefaultAccessTTL        = 15 * time.Minute
)

type CredentialStore interface {
	Credentials(ctx context.Context) (storage.Credentials, error)
	Persist(ctx context.Context, c storage.Credentials) error
	Clear(ctx context.Context) error
}

// API is the part of the remote API the session talks to.
type API interface {
	Login(ctx context.Context, email, password string) (models.TokenResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (models.RegisterResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (models.TokenResponse, error)
	Users(ctx context.Context, token string) ([]models.User, error)
	User(ctx context.Context, token string, id int64) (models.User, error)
	UpdateProfile(ctx context.Context, token string, id int64, req models.UpdateProfileRequest) (models.User, error)
	ChangePassword(ctx context.Context, token string, id int64, req models.ChangePasswordRequest) error
}

type Manager struct {
	log   *slog.Logger
	api   API
	store CredentialStore

	now              func() time.Time
	refreshThreshold time.Duration
	refreshTimeout   time.Duration
	accessTTL        time.Duration

	mu           sync.RWMutex
	user         *models.User
	accessToken  string
	refreshToken string
	expiresAt    int64

	initMu      sync.Mutex
	initialized atomic.Bool

	refreshes singleflight.Group
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func WithRefreshThreshold(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.refreshThreshold = d
		}
	}
}

func WithRefreshTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.refreshTimeout = d
		}
	}
}

// WithAccessTTL sets the lifetime assumed for an access token whose expiry
// is neither reported by the API nor readable from the token.
func WithAccessTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.accessTTL = d
		}
	}
}

// New returns a Manager. A nil store means credentials are kept in memory
// only and nothing is restored on start.
func New(log *slog.Logger, api API, store CredentialStore, opts ...Option) *Manager {
	m := &Manager{
		log:              log,
		api:              api,
		store:            store,
		now:              time.Now,
		refreshThreshold: DefaultRefreshThreshold,
		refreshTimeout:   DefaultRefreshTimeout,
		accessTTL:        DefaultAccessTTL,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Login authenticates with email and password and starts a new session.
func (m *Manager) Login(ctx context.Context, email, password string) (models.User, error) {
	const op = "session.Login"

	log := m.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)

	if err := validate.Credentials(email, password); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("attempting to login user")

	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		log.Warn("login failed", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if resp.AccessToken == "" || resp.User == nil {
		log.Error("login response without token or user")
		return models.User{}, fmt.Errorf("%s: %w", op, ErrMalformedResponse)
	}

	s := Snapshot{
		User:         resp.User,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    resp.ExpiresAt,
	}
	if s.ExpiresAt == 0 {
		s.ExpiresAt = m.deriveExpiry(s.AccessToken)
	}
	m.set(ctx, s)

	user := *s.User

	// The login payload may carry a partial profile.
	profile, err := m.api.User(ctx, s.AccessToken, s.User.ID)
	switch {
	case err != nil:
		log.Warn("failed to fetch profile", sl.Err(err))
	case m.setUser(ctx, s.AccessToken, profile):
		user = profile
	default:
		log.Info("session changed during profile fetch, dropping profile")
	}

	log.Info("user logged in successfully")

	return user, nil
}

// Register creates an account and logs into it.
func (m *Manager) Register(ctx context.Context, email, password, name string) (models.User, error) {
	const op = "session.Register"

	log := m.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)

	if err := validate.Credentials(email, password); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("registering user")

	resp, err := m.api.Register(ctx, models.RegisterRequest{Email: email, Password: password, Name: name})
	if err != nil {
		log.Warn("failed to register user", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.Int64("user_id", resp.ID))

	user, err := m.Login(ctx, email, password)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// Logout ends the session locally. The remote API keeps no session to revoke.
func (m *Manager) Logout(ctx context.Context) error {
	const op = "session.Logout"

	m.log.With(slog.String("op", op)).Info("logging out user")

	if err := m.clear(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (m *Manager) Users(ctx context.Context) ([]models.User, error) {
	const op = "session.Users"

	var users []models.User
	err := m.Call(ctx, func(ctx context.Context, s Snapshot) error {
		var err error
		users, err = m.api.Users(ctx, s.AccessToken)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}

// UpdateProfile saves the changed profile fields and refreshes the cached user.
func (m *Manager) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (models.User, error) {
	const op = "session.UpdateProfile"

	var (
		updated models.User
		token   string
	)
	err := m.Call(ctx, func(ctx context.Context, s Snapshot) error {
		resp, err := m.api.UpdateProfile(ctx, s.AccessToken, s.User.ID, req)
		if err != nil {
			return err
		}
		updated = mergeProfile(s.User.Merge(req), resp)
		token = s.AccessToken
		return nil
	})
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if !m.setUser(ctx, token, updated) {
		m.log.With(slog.String("op", op)).Info("session changed during update, cached profile left as is")
	}

	return updated, nil
}

func (m *Manager) ChangePassword(ctx context.Context, req models.ChangePasswordRequest) error {
	const op = "session.ChangePassword"

	if err := validate.ChangePassword(req); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err := m.Call(ctx, func(ctx context.Context, s Snapshot) error {
		return m.api.ChangePassword(ctx, s.AccessToken, s.User.ID, req)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m.log.With(slog.String("op", op)).Info("password changed successfully")

	return nil
}

// mergeProfile overlays the non-empty fields the API returned on u.
func mergeProfile(u, resp models.User) models.User {
	if resp.Name != "" {
		u.Name = resp.Name
	}
	if resp.Email != "" {
		u.Email = resp.Email
	}
	if resp.Phone != "" {
		u.Phone = resp.Phone
	}
	if resp.Telegram != "" {
		u.Telegram = resp.Telegram
	}
	return u
}
