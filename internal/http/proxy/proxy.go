// Package proxy is the backend-for-frontend: it exposes the remote API under
// /api, adding the server-side API key so the browser never sees it.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"estatemetrics/internal/clients/backend"
	"estatemetrics/internal/lib/logger/sl"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"
)

const (
	prefix      = "/api"
	maxBodySize = 1 << 20
)

var errUpstream = errors.New("upstream failure")

type Config struct {
	UpstreamURL string
	UpstreamKey string
	Timeout     time.Duration
	// Breaker overrides the circuit breaker settings; zero fields keep the defaults.
	Breaker gobreaker.Settings
}

type Proxy struct {
	log      *slog.Logger
	cfg      Config
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	metrics  *metrics
	upstream string
}

func New(log *slog.Logger, cfg Config) *Proxy {
	settings := cfg.Breaker
	if settings.Name == "" {
		settings.Name = "upstream"
	}
	if settings.MaxRequests == 0 {
		settings.MaxRequests = 100
	}
	if settings.Interval == 0 {
		settings.Interval = 5 * time.Second
	}
	if settings.Timeout == 0 {
		settings.Timeout = 3 * time.Second
	}
	if settings.ReadyToTrip == nil {
		settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		}
	}
	settings.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn("circuit breaker state changed",
			slog.String("breaker", name),
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	}

	return &Proxy{
		log:      log,
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		breaker:  gobreaker.NewCircuitBreaker(settings),
		metrics:  newMetrics(),
		upstream: strings.TrimRight(cfg.UpstreamURL, "/"),
	}
}

var routes = []struct {
	method string
	path   string
}{
	{http.MethodPost, "/login"},
	{http.MethodPost, "/register"},
	{http.MethodPost, "/refresh-token"},
	{http.MethodGet, "/users"},
	{http.MethodGet, "/users/:user_id"},
	{http.MethodPut, "/users/:user_id/profile"},
	{http.MethodPut, "/users/:user_id/change-password"},
	{http.MethodGet, "/users/:user_id/estates"},
	{http.MethodPost, "/users/:user_id/estates"},
	{http.MethodGet, "/users/:user_id/estates/:estate_id"},
	{http.MethodDelete, "/estates/:estate_id"},
	{http.MethodGet, "/users/:user_id/transactions"},
	{http.MethodPost, "/users/:user_id/estates/:estate_id/transactions/filter"},
	{http.MethodPost, "/users/:user_id/estates/:estate_id/values/filter"},
	{http.MethodPost, "/transactions"},
	{http.MethodDelete, "/transactions/:transaction_id"},
	{http.MethodGet, "/estate-types"},
	{http.MethodGet, "/transaction-types"},
	{http.MethodGet, "/transaction-frequencies"},
	{http.MethodGet, "/repayment-plans"},
}

func (p *Proxy) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), p.metrics.middleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(p.metrics.handler()))

	api := r.Group(prefix)
	for _, rt := range routes {
		api.Handle(rt.method, rt.path, p.forward)
	}

	return r
}

type upstreamResponse struct {
	status      int
	contentType string
	body        []byte
}

func (p *Proxy) forward(c *gin.Context) {
	const op = "proxy.forward"

	path := strings.TrimPrefix(c.Request.URL.Path, prefix)

	log := p.log.With(
		slog.String("op", op),
		slog.String("method", c.Request.Method),
		slog.String("path", path),
	)

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warn("request body too large", slog.Int64("limit", tooLarge.Limit))
			fail(c, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		fail(c, http.StatusBadRequest, backend.StatusMessage(http.StatusBadRequest))
		return
	}

	res, err := p.breaker.Execute(func() (interface{}, error) {
		return p.roundTrip(c.Request.Context(), c.Request, path, body)
	})

	var resp *upstreamResponse
	if r, ok := res.(*upstreamResponse); ok {
		resp = r
	}

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		log.Warn("upstream unavailable", sl.Err(err))
		fail(c, http.StatusServiceUnavailable, "service temporarily unavailable")
		return
	case err != nil && resp == nil:
		log.Error("upstream request failed", sl.Err(err))
		fail(c, http.StatusBadGateway, err.Error())
		return
	}

	if resp.status >= http.StatusBadRequest {
		log.Debug("upstream error relayed", slog.Int("status", resp.status))
		fail(c, resp.status, errorMessage(resp))
		return
	}

	if len(resp.body) == 0 {
		c.Status(resp.status)
		return
	}

	c.Data(resp.status, resp.contentType, resp.body)
}

// roundTrip sends the request upstream. A 5xx response is returned together
// with errUpstream so that the breaker counts it.
func (p *Proxy) roundTrip(ctx context.Context, in *http.Request, path string, body []byte) (*upstreamResponse, error) {
	const op = "proxy.roundTrip"

	target := p.upstream + path
	if in.URL.RawQuery != "" {
		target += "?" + in.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(ctx, in.Method, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if auth := in.Header.Get("Authorization"); auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if p.cfg.UpstreamKey != "" {
		req.Header.Set(backend.HeaderAPIKey, p.cfg.UpstreamKey)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := &upstreamResponse{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        data,
	}
	if out.contentType == "" {
		out.contentType = "application/json"
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return out, fmt.Errorf("%s: %w: status %d", op, errUpstream, resp.StatusCode)
	}

	return out, nil
}

func errorMessage(resp *upstreamResponse) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.body, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return backend.StatusMessage(resp.status)
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}
