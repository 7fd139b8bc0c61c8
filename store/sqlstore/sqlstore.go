// Package sqlstore implements store.Store over database/sql. The SQL
// dialect is supplied by the driver packages (pgstore, mysqlstore).
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Dialect holds the statements for one database. Placeholders follow the
// driver's convention.
type Dialect struct {
	Name   string
	Get    string // key -> value
	Upsert string // key, value
	Delete string // key
	List   string // like-pattern -> keys, ordered
}

// Store is a key-value table accessed through database/sql.
type Store struct {
	db *sql.DB
	d  Dialect
}

// New wraps an open database.
func New(db *sql.DB, d Dialect) *Store {
	return &Store{db: db, d: d}
}

// DB returns the underlying database.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.d.Get, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s: get %s: %w", s.d.Name, key, err)
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value *string) error {
	if value == nil {
		if _, err := s.db.ExecContext(ctx, s.d.Delete, key); err != nil {
			return fmt.Errorf("%s: delete %s: %w", s.d.Name, key, err)
		}
		return nil
	}
	if _, err := s.db.ExecContext(ctx, s.d.Upsert, key, *value); err != nil {
		return fmt.Errorf("%s: set %s: %w", s.d.Name, key, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.d.List, LikePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("%s: list: %w", s.d.Name, err)
	}
	//nolint:errcheck
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("%s: list scan: %w", s.d.Name, err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePrefix returns a LIKE pattern matching keys that start with prefix.
func LikePrefix(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}

// Open opens db with driverName and pings it.
func Open(ctx context.Context, driverName, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
