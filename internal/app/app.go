package app

import (
	"log/slog"

	"estatemetrics/config"
	httpapp "estatemetrics/internal/app/http"
	grpcapp "estatemetrics/internal/app/grpc"
	"estatemetrics/internal/clients/backend"
	"estatemetrics/internal/http/proxy"
	"estatemetrics/internal/services/calendar"
	"estatemetrics/internal/services/portfolio"
	"estatemetrics/internal/services/session"
	"estatemetrics/internal/services/settings"
	"estatemetrics/internal/storage"
)

// App holds one session manager shared by every service built on top of it.
type App struct {
	Sessions     *session.Manager
	Portfolio    *portfolio.Service
	Dictionaries *portfolio.Dictionaries
	Calendar     *calendar.Service
	Settings     *settings.Service

	HTTPServer *httpapp.App
	GRPCServer *grpcapp.App
	StorageApp *StorageApp
}

func New(log *slog.Logger, cfg *config.Config, storageApp *StorageApp) *App {
	api := backend.New(log, cfg.API.BaseURL, cfg.API.Key, cfg.API.Timeout)

	sessions := session.New(log, api, storageApp.Credentials(),
		session.WithRefreshThreshold(cfg.Session.RefreshThreshold),
		session.WithRefreshTimeout(cfg.Session.RefreshTimeout),
		session.WithAccessTTL(cfg.Credentials.AccessTTL),
	)

	portfolioService := portfolio.New(log, api, sessions)

	bff := proxy.New(log, proxy.Config{
		UpstreamURL: cfg.HTTP.UpstreamURL,
		UpstreamKey: cfg.HTTP.UpstreamKey,
		Timeout:     cfg.HTTP.Timeout,
	})

	return &App{
		Sessions:     sessions,
		Portfolio:    portfolioService,
		Dictionaries: portfolio.NewDictionaries(log, api, sessions),
		Calendar:     calendar.New(log, storageApp.Storage(), portfolioService),
		Settings:     settings.New(log, storageApp.Storage()),
		HTTPServer:   httpapp.New(log, "proxy", bff.Handler(), cfg.HTTP.Port, cfg.HTTP.Timeout),
		GRPCServer:   grpcapp.New(log, cfg.GRPC.Port, cfg.GRPC.Trusted),
		StorageApp:   storageApp,
	}
}

// StorageConfigFrom maps the credentials section onto the storage app settings.
func StorageConfigFrom(cfg *config.Config) StorageConfig {
	return StorageConfig{
		Driver:      cfg.Credentials.Driver,
		StoragePath: cfg.Credentials.StoragePath,
		RedisAddr:   cfg.Credentials.RedisAddr,
		RedisDB:     cfg.Credentials.RedisDB,
		Namespace:   cfg.Credentials.Namespace,
		TTLs: storage.TTLs{
			AccessToken:  cfg.Credentials.AccessTTL,
			RefreshToken: cfg.Credentials.RefreshTTL,
			ExpiresAt:    cfg.Credentials.ExpiresTTL,
		},
	}
}
