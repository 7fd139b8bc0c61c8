// Package pgstore is a Postgres-backed store.Store using the pgx driver.
// The schema is managed by embedded golang-migrate migrations.
package pgstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver

	"github.com/nathoo/econcore/store/sqlstore"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DriverName is the database/sql driver used.
const DriverName = "pgx"

// Dialect is the Postgres statement set for the econ_kv table.
var Dialect = sqlstore.Dialect{
	Name: "pgstore",
	Get:  `SELECT value FROM econ_kv WHERE key = $1`,
	Upsert: `INSERT INTO econ_kv (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
	Delete: `DELETE FROM econ_kv WHERE key = $1`,
	List:   `SELECT key FROM econ_kv WHERE key LIKE $1 ORDER BY key`,
}

// Open connects to Postgres and returns a store over the econ_kv table.
func Open(ctx context.Context, dsn string) (*sqlstore.Store, error) {
	db, err := sqlstore.Open(ctx, DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore: %w", err)
	}
	return sqlstore.New(db, Dialect), nil
}

// Migrate applies the embedded migrations.
func Migrate(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("init postgres driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("m.Up: %w", err)
	}
	return nil
}
