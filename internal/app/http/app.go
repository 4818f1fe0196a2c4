package httpapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"
)

// App runs one HTTP handler: the BFF proxy or the devapi.
type App struct {
	log      *slog.Logger
	name     string
	server   *http.Server
	port     int
	draining atomic.Bool
}

func New(log *slog.Logger, name string, handler http.Handler, port int, timeout time.Duration) *App {
	a := &App{
		log:  log,
		name: name,
		port: port,
	}

	a.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           a.readiness(handler),
		ReadHeaderTimeout: timeout,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
		IdleTimeout:       4 * timeout,
	}

	return a
}

// readiness answers /readyz, failing once Drain has been called.
func (a *App) readiness(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/readyz" {
			next.ServeHTTP(w, r)
			return
		}
		if a.draining.Load() {
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

func (a *App) Handler() http.Handler {
	return a.server.Handler
}

func (a *App) MustRun() {
	if err := a.Run(); err != nil {
		panic(err)
	}
}

func (a *App) Run() error {
	const op = "httpapp.Run"

	l, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	a.log.Info("http server started",
		slog.String("name", a.name),
		slog.String("addr", l.Addr().String()),
	)

	if err := a.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (a *App) Drain() {
	a.draining.Store(true)
}

// Shutdown waits for in-flight requests until ctx is done.
func (a *App) Shutdown(ctx context.Context) error {
	const op = "httpapp.Shutdown"

	a.log.With(slog.String("op", op)).
		Info("stopping http server", slog.String("name", a.name), slog.Int("port", a.port))

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (a *App) Close() error {
	return a.server.Close()
}
