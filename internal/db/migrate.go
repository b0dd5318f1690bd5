package db

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/imagetext/apiserver/config"
)

//go:embed migrations
var migrationsFS embed.FS

// Direction selects which way Migrate moves the schema.
type Direction int

const (
	Up Direction = iota
	Down
)

// Migrate applies the embedded migrations for the configured driver.
// It uses its own connection and closes it when done.
func Migrate(ctx context.Context, cfg config.DatabaseConfig, dir Direction) error {
	conn, err := open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open database failed: %w", err)
	}

	driverName := cfg.Driver
	if driverName == "" {
		driverName = config.DriverPostgres
	}

	var instance database.Driver
	switch driverName {
	case config.DriverPostgres:
		instance, err = postgres.WithInstance(conn.DB, &postgres.Config{})
	case config.DriverSQLite:
		instance, err = sqlite.WithInstance(conn.DB, &sqlite.Config{})
	default:
		err = fmt.Errorf("unsupported database driver %q", driverName)
	}
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("init migration driver failed: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations/"+driverName)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("load migrations failed: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, driverName, instance)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("init migrator failed: %w", err)
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	switch dir {
	case Down:
		err = migrator.Down()
	default:
		err = migrator.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate failed: %w", err)
	}
	return nil
}
