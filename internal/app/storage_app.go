package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"estatemetrics/internal/services/session"
	"estatemetrics/internal/storage"
	"estatemetrics/internal/storage/memory"
	redisstore "estatemetrics/internal/storage/redis"
	"estatemetrics/internal/storage/sqlite"

	"github.com/redis/go-redis/v9"
)

const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

type StorageConfig struct {
	Driver      string
	StoragePath string
	RedisAddr   string
	RedisDB     int
	Namespace   string
	TTLs        storage.TTLs
}

// StorageApp owns the local sqlite database (meetings, settings) and the
// credential store picked by Driver. With the sqlite driver both are the
// same database.
type StorageApp struct {
	storage     *sqlite.Storage
	credentials session.CredentialStore
	closers     []func() error
}

func NewStorageApp(cfg StorageConfig) (*StorageApp, error) {
	const op = "app.NewStorageApp"

	if dir := filepath.Dir(cfg.StoragePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	db, err := sqlite.New(cfg.StoragePath, cfg.TTLs, cfg.Namespace)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := &StorageApp{storage: db, closers: []func() error{db.Close}}

	switch cfg.Driver {
	case DriverSQLite, "":
		s.credentials = db
	case DriverRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			_ = rdb.Close()
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		store := redisstore.New(rdb, cfg.TTLs, cfg.Namespace)
		s.credentials = store
		s.closers = append(s.closers, store.Close)
	case DriverMemory:
		s.credentials = memory.New(cfg.TTLs)
	default:
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w: %q", op, storage.ErrUnknownDriver, cfg.Driver)
	}

	return s, nil
}

func (s *StorageApp) Stop() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func (s *StorageApp) Storage() *sqlite.Storage {
	return s.storage
}

func (s *StorageApp) Credentials() session.CredentialStore {
	return s.credentials
}
