package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"estatemetrics/internal/lib/logger/sl"

	"github.com/spf13/cobra"
)

const (
	_shutdownPeriod      = 15 * time.Second
	_shutdownHardPeriod  = 3 * time.Second
	_readinessDrainDelay = 5 * time.Second
)

func newServeCmd(opts *options) *cobra.Command {
	var drain time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP proxy and the gRPC health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rootCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, log, closeStorage, err := opts.build(rootCtx)
			if err != nil {
				return err
			}
			defer closeStorage()

			log.Info("starting estatemetrics")

			if err := application.Dictionaries.Init(rootCtx); err != nil {
				log.Warn("dictionaries not loaded", sl.Err(err))
			}

			go application.GRPCServer.MustRun()
			go application.HTTPServer.MustRun()

			// Waiting for SIGINT (pkill -2) or SIGTERM
			<-rootCtx.Done()
			stop()

			log.Info("Received shutdown signal, shutting down gracefully")

			application.GRPCServer.Drain()
			application.HTTPServer.Drain()

			// Give time for readiness check to propagate
			time.Sleep(drain)
			log.Info("Readiness check propagated, now waiting for ongoing requests to finish.")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), _shutdownPeriod)
			defer cancel()

			timer := time.AfterFunc(_shutdownPeriod+_shutdownHardPeriod, func() {
				log.Error("Server couldn't stop gracefully in time. Doing force stop.")
				application.GRPCServer.Stop()
				_ = application.HTTPServer.Close()
			})
			defer timer.Stop()

			if err := application.HTTPServer.Shutdown(shutdownCtx); err != nil {
				log.Error("http shutdown", sl.Err(err))
				_ = application.HTTPServer.Close()
			}
			application.GRPCServer.GracefulStop()

			log.Info("Server shut down gracefully.")

			return nil
		},
	}

	cmd.Flags().DurationVar(&drain, "drain", _readinessDrainDelay, "readiness drain delay before stopping")

	return cmd
}
