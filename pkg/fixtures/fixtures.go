// Package fixtures loads YAML test fixtures into PostgreSQL and tears them
// down with fast truncation instead of a full database flush.
package fixtures

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"gopkg.in/yaml.v3"
)

// DB is the subset of pgxpool.Pool the loader needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Execer runs a single statement. Satisfied by pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Queryer runs a query. Satisfied by pgxpool.Pool and pgx.Tx.
type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Fixture is one table's worth of seed rows.
type Fixture struct {
	Table string           `yaml:"table"`
	Rows  []map[string]any `yaml:"rows"`
}

// ParseFile reads fixtures from a YAML file.
func ParseFile(path string) ([]Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture file: %w", err)
	}

	var fixtures []Fixture
	if err := yaml.Unmarshal(data, &fixtures); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}

	for i, f := range fixtures {
		if f.Table == "" {
			return nil, fmt.Errorf("%s: fixture %d has no table", filepath.Base(path), i)
		}
	}
	return fixtures, nil
}

// ParseFiles reads fixtures from several YAML files, preserving file order.
func ParseFiles(paths ...string) ([]Fixture, error) {
	var all []Fixture
	for _, path := range paths {
		fixtures, err := ParseFile(path)
		if err != nil {
			return nil, err
		}
		all = append(all, fixtures...)
	}
	return all, nil
}

// Load inserts all fixture rows from the given files in a single
// transaction. Foreign-key triggers are disabled for the transaction so
// fixtures with circular references load in any order.
func Load(ctx context.Context, db DB, paths ...string) error {
	fixtures, err := ParseFiles(paths...)
	if err != nil {
		return err
	}
	return Insert(ctx, db, fixtures)
}

// Insert writes already-parsed fixtures in a single transaction.
func Insert(ctx context.Context, db DB, fixtures []Fixture) error {
	if len(fixtures) == 0 {
		return nil
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin fixture transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// The replica role skips FK triggers, the Postgres equivalent of
	// disabling foreign key checks while fixtures load.
	if _, err := tx.Exec(ctx, `SET LOCAL session_replication_role = 'replica'`); err != nil {
		return fmt.Errorf("disable foreign key triggers: %w", err)
	}

	for _, f := range fixtures {
		for _, row := range f.Rows {
			if err := insertRow(ctx, tx, f.Table, row); err != nil {
				return fmt.Errorf("fixture table %s: %w", f.Table, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit fixtures: %w", err)
	}
	return nil
}

// insertRow inserts one row with deterministic column ordering.
func insertRow(ctx context.Context, tx pgx.Tx, table string, row map[string]any) error {
	if len(row) == 0 {
		return nil
	}

	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		quoted[i] = pgx.Identifier{col}.Sanitize()
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = row[col]
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{table}.Sanitize(),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert row: %w", err)
	}
	return nil
}
