// Package devapi is an in-memory stand-in for the estatemetrics remote API,
// used for local development and tests.
package devapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"estatemetrics/internal/domain/models"

	"github.com/gin-gonic/gin"
)

const (
	HeaderAPIKey = "X-API-Key"

	ctxUserID = "user_id"
)

type Config struct {
	APIKey     string
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Server struct {
	log   *slog.Logger
	cfg   Config
	store *Store
	auth  *Auth
	now   func() time.Time

	estateTypes      []models.EstateType
	transactionTypes []models.TransactionType
	frequencies      []models.Frequency
	repaymentPlans   []models.Frequency
}

func New(log *slog.Logger, cfg Config) *Server {
	if cfg.Secret == "" {
		cfg.Secret = "devapi-secret"
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}

	store := NewStore()

	return &Server{
		log:              log,
		cfg:              cfg,
		store:            store,
		auth:             NewAuth(log, store, store, store, store, cfg.Secret, cfg.AccessTTL, cfg.RefreshTTL),
		now:              time.Now,
		estateTypes:      defaultEstateTypes(),
		transactionTypes: defaultTransactionTypes(),
		frequencies:      defaultFrequencies(),
		repaymentPlans:   defaultRepaymentPlans(),
	}
}

// Handler returns the router. Routes match the remote API paths.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requireAPIKey())

	r.POST("/login", s.login)
	r.POST("/register", s.register)
	r.POST("/refresh-token", s.refreshToken)

	r.GET("/estate-types", s.listEstateTypes)
	r.GET("/transaction-types", s.listTransactionTypes)
	r.GET("/transaction-frequencies", s.listFrequencies)
	r.GET("/repayment-plans", s.listRepaymentPlans)

	authed := r.Group("/")
	authed.Use(s.requireToken())
	{
		authed.GET("/users", s.listUsers)
		authed.DELETE("/estates/:estate_id", s.deleteEstate)
		authed.POST("/transactions", s.addTransaction)
		authed.DELETE("/transactions/:transaction_id", s.deleteTransaction)

		own := authed.Group("/users/:user_id")
		own.Use(s.requireOwner())
		{
			own.GET("", s.getUser)
			own.PUT("/profile", s.updateProfile)
			own.PUT("/change-password", s.changePassword)
			own.GET("/estates", s.listEstates)
			own.POST("/estates", s.createEstate)
			own.GET("/estates/:estate_id", s.getEstate)
			own.GET("/transactions", s.listUserTransactions)
			own.POST("/estates/:estate_id/transactions/filter", s.filterTransactions)
			own.POST("/estates/:estate_id/values/filter", s.estateValues)
		}
	}

	return r
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}

func (s *Server) requireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.APIKey != "" && c.GetHeader(HeaderAPIKey) != s.cfg.APIKey {
			fail(c, http.StatusUnauthorized, "invalid api key")
			return
		}
		c.Next()
	}
}

func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			fail(c, http.StatusUnauthorized, "missing authorization token")
			return
		}

		userID, err := s.auth.Verify(parts[1])
		if err != nil {
			fail(c, http.StatusUnauthorized, "invalid token")
			return
		}

		c.Set(ctxUserID, userID)
		c.Next()
	}
}

// requireOwner restricts /users/:user_id routes to the caller's own account.
func (s *Server) requireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "user_id")
		if !ok {
			return
		}
		if id != c.GetInt64(ctxUserID) {
			fail(c, http.StatusForbidden, "access denied")
			return
		}
		c.Next()
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// ownedEstate loads an estate that belongs to the caller.
func (s *Server) ownedEstate(ctx context.Context, c *gin.Context, id int64) (models.Estate, bool) {
	estate, err := s.store.Estate(ctx, id)
	if err != nil {
		fail(c, http.StatusNotFound, "estate not found")
		return models.Estate{}, false
	}
	if estate.UserID != c.GetInt64(ctxUserID) {
		fail(c, http.StatusForbidden, "access denied")
		return models.Estate{}, false
	}
	return estate, true
}

func failErr(c *gin.Context, err error) {
	status, msg := errorStatus(err)
	fail(c, status, msg)
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, ErrInvalidRefreshToken):
		return http.StatusUnauthorized, "invalid refresh token"
	case errors.Is(err, ErrAccountExists):
		return http.StatusConflict, "user already exists"
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrEstateNotFound), errors.Is(err, ErrTransactionMissing):
		return http.StatusNotFound, "resource not found"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
