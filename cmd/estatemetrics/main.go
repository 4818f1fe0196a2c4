package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"estatemetrics/config"
	"estatemetrics/internal/app"
	"estatemetrics/internal/clients/backend"
	"estatemetrics/internal/lib/logger/sl"
	"estatemetrics/internal/lib/validate"
	"estatemetrics/internal/services/session"

	"github.com/spf13/cobra"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "estatemetrics",
		Short:         "Real-estate portfolio client: session, portfolio and calendar",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("CONFIG_PATH"), "path to config file")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newDevAPICmd(opts),
		newLoginCmd(opts),
		newRegisterCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newEstatesCmd(opts),
		newTransactionsCmd(opts),
		newCalendarCmd(opts),
		newMeetingsCmd(opts),
	)

	return rootCmd
}

func (o *options) load() (*config.Config, error) {
	if o.configPath == "" {
		return nil, errors.New("config path is empty: pass --config or set CONFIG_PATH")
	}
	return config.Load(o.configPath)
}

// build wires the application and restores the persisted session. The
// returned stop func releases the storage.
func (o *options) build(ctx context.Context) (*app.App, *slog.Logger, func(), error) {
	cfg, err := o.load()
	if err != nil {
		return nil, nil, nil, err
	}

	log := setupLogger(cfg.Env)

	storageApp, err := app.NewStorageApp(app.StorageConfigFrom(cfg))
	if err != nil {
		return nil, nil, nil, err
	}
	stop := func() {
		if err := storageApp.Stop(); err != nil {
			log.Error("closing storage app", sl.Err(err))
		}
	}

	application := app.New(log, cfg, storageApp)

	if err := application.Sessions.InitAuth(ctx); err != nil {
		log.Warn("session not restored", sl.Err(err))
	}

	return application, log, stop, nil
}

// withApp runs fn against a freshly built application.
func (o *options) withApp(fn func(cmd *cobra.Command, a *app.App) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		a, _, stop, err := o.build(cmd.Context())
		if err != nil {
			return err
		}
		defer stop()

		return present(fn(cmd, a))
	}
}

// present turns an error into what the user should read.
func present(err error) error {
	if err == nil {
		return nil
	}

	var vErr *validate.Error
	var apiErr *backend.APIError

	switch {
	case errors.Is(err, session.ErrUnauthenticated), errors.Is(err, session.ErrSessionTerminated):
		return errors.New("session expired, please log in again")
	case errors.As(err, &vErr):
		return vErr
	case errors.As(err, &apiErr):
		return errors.New(apiErr.Message)
	}

	return err
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func printf(cmd *cobra.Command, format string, args ...any) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
