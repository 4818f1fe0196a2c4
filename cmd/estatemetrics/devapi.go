package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	httpapp "estatemetrics/internal/app/http"
	"estatemetrics/internal/devapi"
	"estatemetrics/internal/lib/logger/sl"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newDevAPICmd(opts *options) *cobra.Command {
	var (
		port   int
		secret string
	)

	cmd := &cobra.Command{
		Use:   "devapi",
		Short: "Run an in-memory stand-in for the remote API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			log := setupLogger(cfg.Env)
			if cfg.Env == envProd {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := devapi.New(log, devapi.Config{
				APIKey:     cfg.API.Key,
				Secret:     secret,
				AccessTTL:  cfg.Credentials.AccessTTL,
				RefreshTTL: cfg.Credentials.RefreshTTL,
			})

			a := httpapp.New(log, "devapi", server.Handler(), port, cfg.API.Timeout)
			go a.MustRun()

			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := a.Shutdown(shutdownCtx); err != nil {
				log.Error("devapi shutdown", sl.Err(err))
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 8081, "listen port")
	cmd.Flags().StringVar(&secret, "secret", "dev-secret", "JWT signing secret")

	return cmd
}
