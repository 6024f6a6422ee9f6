package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// EnsureSchema brings the database up to the latest schema and inserts the
// default categories. Running it against an up-to-date database is a no-op.
func EnsureSchema(ctx context.Context, dialect Dialect, source string) error {
	if err := runMigrations(dialect, source); err != nil {
		return err
	}

	db, err := dialect.openDB(source)
	if err != nil {
		return fmt.Errorf("open seed database: %w", err)
	}
	defer db.Close()

	inserted, err := seedCategories(ctx, db, dialect)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Schema ensured", "dialect", string(dialect), "categories_seeded", inserted)
	return nil
}

func runMigrations(dialect Dialect, source string) error {
	// The migrate driver closes its connection, so it gets its own pool.
	migrateDB, err := dialect.openDB(source)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	var driver database.Driver
	switch dialect {
	case SQLite:
		driver, err = sqlite.WithInstance(migrateDB, &sqlite.Config{})
	case Postgres:
		driver, err = migratepgx.WithInstance(migrateDB, &migratepgx.Config{})
	default:
		return fmt.Errorf("unsupported dialect %q", dialect)
	}
	if err != nil {
		return fmt.Errorf("create %s migration driver: %w", dialect, err)
	}

	d, err := iofs.New(migrationsFS, "migrations/"+string(dialect))
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, string(dialect), driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
