// Package mysqlstore is a MySQL/MariaDB-backed store.Store.
package mysqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/nathoo/econcore/store/sqlstore"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Dialect is the MySQL statement set for the econ_kv table.
var Dialect = sqlstore.Dialect{
	Name: "mysqlstore",
	Get:  "SELECT value FROM econ_kv WHERE name = ?",
	Upsert: "INSERT INTO econ_kv (name, value) VALUES (?, ?) " +
		"ON DUPLICATE KEY UPDATE value = VALUES(value)",
	Delete: "DELETE FROM econ_kv WHERE name = ?",
	List:   "SELECT name FROM econ_kv WHERE name LIKE ? ORDER BY name",
}

// NormalizeDSN parses dsn and sets the options the store relies on:
// parseTime for timestamps and multiStatements for migrations.
func NormalizeDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.MultiStatements = true
	return cfg.FormatDSN(), nil
}

// Open connects to MySQL and returns a store over the econ_kv table.
func Open(ctx context.Context, dsn string) (*sqlstore.Store, error) {
	dsn, err := NormalizeDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("mysqlstore: %w", err)
	}
	db, err := sqlstore.Open(ctx, "mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("mysqlstore: %w", err)
	}
	return sqlstore.New(db, Dialect), nil
}

// Migrate applies the embedded migrations.
func Migrate(db *sql.DB) error {
	driver, err := migratemysql.WithInstance(db, &migratemysql.Config{})
	if err != nil {
		return fmt.Errorf("init mysql driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "mysql", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("m.Up: %w", err)
	}
	return nil
}
