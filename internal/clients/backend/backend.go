// Package backend is a typed client for the estatemetrics remote API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"estatemetrics/internal/lib/logger/sl"
)

const HeaderAPIKey = "X-API-Key"

type Client struct {
	log     *slog.Logger
	http    *http.Client
	baseURL string
	apiKey  string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client, e.g. with an
// httptest server's client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func New(log *slog.Logger, baseURL, apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		log:     log,
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type errorBody struct {
	Message string `json:"message"`
}

// do sends in as JSON and decodes the response into out. A non-empty token
// is sent as a bearer credential. Every failure comes back as *APIError.
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	const op = "backend.do"

	log := c.log.With(
		slog.String("op", op),
		slog.String("method", method),
		slog.String("path", path),
	)

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &APIError{Message: err.Error(), Err: fmt.Errorf("%s: %w", op, err)}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &APIError{Message: err.Error(), Err: fmt.Errorf("%s: %w", op, err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(HeaderAPIKey, c.apiKey)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("request failed", sl.Err(err))
		return &APIError{Message: err.Error(), Err: fmt.Errorf("%s: %w", op, err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Message: err.Error(), Status: resp.StatusCode, Err: fmt.Errorf("%s: %w", op, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := StatusMessage(resp.StatusCode)

		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Message != "" {
			msg = eb.Message
		}

		log.Debug("api error", slog.Int("status", resp.StatusCode), slog.String("message", msg))

		return &APIError{Message: msg, Status: resp.StatusCode}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &APIError{
			Message: "malformed response",
			Status:  resp.StatusCode,
			Err:     fmt.Errorf("%s: %w", op, err),
		}
	}

	return nil
}
