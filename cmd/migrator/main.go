package main

import (
	"errors"
	"flag"
	"fmt"

	"estatemetrics/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// The database comes from the config file unless --storage-path is given:
// go run ./cmd/migrator --config=./config/local.yaml
func main() {
	var storagePath, migrationsPath, migrationsTable string
	var down bool

	flag.StringVar(&storagePath, "storage-path", "", "path to storage")
	flag.StringVar(&migrationsPath, "migrations-path", "", "path to migrations")
	flag.StringVar(&migrationsTable, "migrations-table", "schema_migrations", "name of migrations table")
	flag.BoolVar(&down, "down", false, "roll every migration back")

	cfg := config.MustLoad()

	if storagePath == "" {
		storagePath = cfg.Credentials.StoragePath
	}
	if migrationsPath == "" {
		migrationsPath = cfg.MigrationsPath
	}

	m, err := migrate.New(
		"file://"+migrationsPath,
		fmt.Sprintf("sqlite3://%s?x-migrations-table=%s", storagePath, migrationsTable),
	)
	if err != nil {
		panic(err)
	}

	if down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("no migrations to apply")

			return
		}

		panic(err)
	}

	fmt.Println("migrations applied")
}
