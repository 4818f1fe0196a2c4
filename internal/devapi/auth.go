package devapi

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"estatemetrics/internal/domain/models"
	"estatemetrics/internal/lib/jwt"
	"estatemetrics/internal/lib/logger/sl"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

type AccountSaver interface {
	SaveAccount(ctx context.Context, email, name string, passHash []byte) (int64, error)
	UpdatePassword(ctx context.Context, accountID int64, passHash []byte) error
}

type AccountProvider interface {
	AccountByEmail(ctx context.Context, email string) (Account, error)
	AccountByID(ctx context.Context, accountID int64) (Account, error)
}

type SessionSaver interface {
	SaveSession(ctx context.Context, accountID int64, refreshToken string, expiresAt time.Time) error
	RevokeSessions(ctx context.Context, accountID int64)
}

type SessionProvider interface {
	TakeSession(ctx context.Context, refreshToken string) (Session, error)
}

// Auth issues and rotates tokens for the stand-in API.
type Auth struct {
	log             *slog.Logger
	accountSaver    AccountSaver
	accountProvider AccountProvider
	sessionSaver    SessionSaver
	sessionProvider SessionProvider
	secret          string
	tokenTTL        time.Duration
	refreshTokenTTL time.Duration
}

func NewAuth(
	log *slog.Logger,
	accountSaver AccountSaver,
	accountProvider AccountProvider,
	sessionSaver SessionSaver,
	sessionProvider SessionProvider,
	secret string,
	tokenTTL time.Duration,
	refreshTokenTTL time.Duration,
) *Auth {
	return &Auth{
		log:             log,
		accountSaver:    accountSaver,
		accountProvider: accountProvider,
		sessionSaver:    sessionSaver,
		sessionProvider: sessionProvider,
		secret:          secret,
		tokenTTL:        tokenTTL,
		refreshTokenTTL: refreshTokenTTL,
	}
}

// Register creates an account and returns its ID.
func (a *Auth) Register(ctx context.Context, req models.RegisterRequest) (int64, error) {
	const op = "devapi.Auth.Register"

	log := a.log.With(
		slog.String("op", op),
		slog.String("email", req.Email),
	)

	log.Info("registering account")

	passHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := a.accountSaver.SaveAccount(ctx, req.Email, req.Name, passHash)
	if err != nil {
		log.Warn("failed to save account", sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// Login checks the credentials and starts a session.
func (a *Auth) Login(ctx context.Context, email, password string) (models.TokenResponse, error) {
	const op = "devapi.Auth.Login"

	log := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)

	log.Info("attempting to login user")

	account, err := a.accountProvider.AccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			log.Warn("account not found", sl.Err(err))
			return models.TokenResponse{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		log.Error("failed to get account", sl.Err(err))
		return models.TokenResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(account.PassHash, []byte(password)); err != nil {
		log.Info("invalid credentials", sl.Err(err))
		return models.TokenResponse{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	resp, err := a.issue(ctx, account.User)
	if err != nil {
		log.Error("failed to issue tokens", sl.Err(err))
		return models.TokenResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in successfully")

	return resp, nil
}

// Refresh exchanges a refresh token for a new pair. The old refresh token
// is spent either way.
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (models.TokenResponse, error) {
	const op = "devapi.Auth.Refresh"

	log := a.log.With(slog.String("op", op))

	session, err := a.sessionProvider.TakeSession(ctx, refreshToken)
	if err != nil {
		log.Info("unknown refresh token", sl.Err(err))
		return models.TokenResponse{}, fmt.Errorf("%s: %w", op, ErrInvalidRefreshToken)
	}

	if session.ExpiresAt.Before(time.Now()) {
		log.Info("refresh token expired")
		return models.TokenResponse{}, fmt.Errorf("%s: %w", op, ErrInvalidRefreshToken)
	}

	account, err := a.accountProvider.AccountByID(ctx, session.AccountID)
	if err != nil {
		log.Error("invalid account id", sl.Err(err))
		return models.TokenResponse{}, fmt.Errorf("%s: %w", op, ErrInvalidRefreshToken)
	}

	resp, err := a.issue(ctx, account.User)
	if err != nil {
		log.Error("failed to issue tokens", sl.Err(err))
		return models.TokenResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("session refreshed", slog.Int64("account_id", account.ID))

	return resp, nil
}

func (a *Auth) ChangePassword(ctx context.Context, accountID int64, req models.ChangePasswordRequest) error {
	const op = "devapi.Auth.ChangePassword"

	log := a.log.With(
		slog.String("op", op),
		slog.Int64("account_id", accountID),
	)

	log.Info("attempting to change password")

	account, err := a.accountProvider.AccountByID(ctx, accountID)
	if err != nil {
		log.Error("failed to get account", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(account.PassHash, []byte(req.CurrentPassword)); err != nil {
		log.Info("invalid current password", sl.Err(err))
		return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	newPassHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to hash new password", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.accountSaver.UpdatePassword(ctx, accountID, newPassHash); err != nil {
		log.Error("failed to update password", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	// Other devices have to log in with the new password.
	a.sessionSaver.RevokeSessions(ctx, accountID)

	log.Info("password changed successfully")

	return nil
}

// Verify returns the account ID an access token was issued to.
func (a *Auth) Verify(token string) (int64, error) {
	claims, err := jwt.ParseToken(token, a.secret)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

func (a *Auth) issue(ctx context.Context, user models.User) (models.TokenResponse, error) {
	token, expiresAt, err := jwt.NewToken(user, a.secret, a.tokenTTL)
	if err != nil {
		return models.TokenResponse{}, err
	}

	refreshToken, err := generateRefreshToken()
	if err != nil {
		return models.TokenResponse{}, err
	}

	if err := a.sessionSaver.SaveSession(ctx, user.ID, refreshToken, time.Now().Add(a.refreshTokenTTL)); err != nil {
		return models.TokenResponse{}, err
	}

	return models.TokenResponse{
		AccessToken:  token,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt.Unix(),
		User:         &user,
	}, nil
}

func generateRefreshToken() (string, error) {
	const tokenSize = 32
	token := make([]byte, tokenSize)

	if _, err := rand.Read(token); err != nil {
		return "", err
	}

	return base64.URLEncoding.EncodeToString(token), nil
}
