package dbtest

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/gotestkit/testkit/internal/envutil"
)

// ForceDBEnv forces recreation of the test database when set to a truthy
// value. By default an existing test database is reused, which skips the
// slow create-and-migrate path on every run.
const ForceDBEnv = "FORCE_DB"

// adminDB is the maintenance database used for create/drop statements.
const adminDB = "postgres"

// TestDatabase is a ready-to-use test database.
type TestDatabase struct {
	// Name is the test database name (the application name with a
	// "test_" prefix).
	Name string
	// Pool is an open connection pool on the test database.
	Pool *pgxpool.Pool
	// Reused reports whether an existing database was reused rather than
	// created fresh.
	Reused bool
}

// Close releases the connection pool. The database itself is left in place
// for the next run.
func (d *TestDatabase) Close() {
	if d.Pool != nil {
		d.Pool.Close()
	}
}

// Prepare returns a migrated test database. An existing database is reused
// unless the FORCE_DB environment variable is truthy; on reuse, sequences
// are reset so auto-generated IDs are deterministic across runs.
// migrationsFS may be nil when the schema is managed elsewhere.
func Prepare(ctx context.Context, cfg Config, migrationsFS fs.FS, migrationsDir string, log *zap.Logger) (*TestDatabase, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if !cfg.Configured() {
		return nil, fmt.Errorf("no database configured (database.name is empty)")
	}

	name := cfg.TestDBName()
	force := envutil.IsTruthy(ForceDBEnv)

	admin, err := cfg.connect(ctx, adminDB)
	if err != nil {
		return nil, fmt.Errorf("connect to maintenance database: %w", err)
	}
	defer admin.Close()

	exists, err := databaseExists(ctx, admin, name)
	if err != nil {
		return nil, err
	}

	reused := exists && !force
	if exists && force {
		log.Info("dropping test database", zap.String("database", name))
		if err := dropDatabase(ctx, admin, name); err != nil {
			return nil, err
		}
	}
	if !reused {
		log.Info("creating test database", zap.String("database", name))
		if err := createDatabase(ctx, admin, name); err != nil {
			return nil, err
		}
	} else {
		log.Info("reusing test database; set FORCE_DB=1 for a fresh one",
			zap.String("database", name))
	}

	pool, err := cfg.connect(ctx, name)
	if err != nil {
		return nil, err
	}

	if migrationsFS != nil {
		migrator, err := NewMigrator(pool, migrationsFS, migrationsDir)
		if err != nil {
			pool.Close()
			return nil, err
		}
		applied, err := migrator.Up(ctx)
		if err != nil {
			pool.Close()
			return nil, err
		}
		if applied > 0 {
			log.Info("applied migrations", zap.Int("count", applied))
		}
	}

	if reused {
		if err := ResetSequences(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}

	return &TestDatabase{Name: name, Pool: pool, Reused: reused}, nil
}

// Drop destroys the test database. The suite teardown never calls this;
// it exists for the CLI and for tests that must start from nothing.
func Drop(ctx context.Context, cfg Config) error {
	if !cfg.Configured() {
		return fmt.Errorf("no database configured (database.name is empty)")
	}

	admin, err := cfg.connect(ctx, adminDB)
	if err != nil {
		return fmt.Errorf("connect to maintenance database: %w", err)
	}
	defer admin.Close()

	return dropDatabase(ctx, admin, cfg.TestDBName())
}

// databaseExists checks the system catalog for the database.
func databaseExists(ctx context.Context, pool *pgxpool.Pool, name string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`,
		name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check database existence: %w", err)
	}
	return exists, nil
}

// createDatabase creates the database. CREATE DATABASE cannot run inside a
// transaction or take bind parameters, so the name is sanitized instead.
func createDatabase(ctx context.Context, pool *pgxpool.Pool, name string) error {
	query := fmt.Sprintf("CREATE DATABASE %s", pgx.Identifier{name}.Sanitize())
	if _, err := pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create database %s: %w", name, err)
	}
	return nil
}

// dropDatabase drops the database, severing open connections.
func dropDatabase(ctx context.Context, pool *pgxpool.Pool, name string) error {
	query := fmt.Sprintf("DROP DATABASE IF EXISTS %s WITH (FORCE)", pgx.Identifier{name}.Sanitize())
	if _, err := pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("drop database %s: %w", name, err)
	}
	return nil
}

// ResetSequences restarts every sequence in the public schema so tests that
// depend on specific auto-generated IDs behave the same on reused databases.
func ResetSequences(ctx context.Context, pool *pgxpool.Pool) error {
	rows, err := pool.Query(ctx, `
		SELECT sequence_name
		FROM information_schema.sequences
		WHERE sequence_schema = 'public'
	`)
	if err != nil {
		return fmt.Errorf("list sequences: %w", err)
	}
	defer rows.Close()

	var sequences []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		sequences = append(sequences, name)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, seq := range sequences {
		query := fmt.Sprintf("ALTER SEQUENCE %s RESTART WITH 1", pgx.Identifier{seq}.Sanitize())
		if _, err := pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("reset sequence %s: %w", seq, err)
		}
	}
	return nil
}
