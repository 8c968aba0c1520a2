// Package dbtest manages the lifecycle of reusable PostgreSQL test
// databases: create on first run, reuse on later runs, recreate on demand.
package dbtest

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gotestkit/testkit/pkg/settings"
)

// Config holds the connection parameters for the application database the
// test database is derived from.
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// ConfigFromSettings reads the database.* settings keys.
func ConfigFromSettings(s *settings.Settings) Config {
	return Config{
		Host:            s.String("database.host", "localhost"),
		Port:            s.Int("database.port", 5432),
		User:            s.String("database.user", "postgres"),
		Password:        s.String("database.password", ""),
		DBName:          s.String("database.name", ""),
		SSLMode:         s.String("database.sslmode", "disable"),
		MaxOpenConns:    s.Int("database.max_open_conns", 10),
		ConnMaxLifetime: s.Duration("database.conn_max_lifetime", 5*time.Minute),
	}
}

// Configured reports whether settings name a database at all. Suites without
// one skip database setup entirely.
func (c Config) Configured() bool {
	return c.DBName != ""
}

// TestDBName returns the name of the derived test database.
func (c Config) TestDBName() string {
	return "test_" + c.DBName
}

// DSN constructs a connection string for the given database name.
func (c Config) DSN(dbname string) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		dbname,
		c.SSLMode,
	)
}

// connect opens a verified pgx pool on the given database.
func (c Config) connect(ctx context.Context, dbname string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(c.DSN(dbname))
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	if c.MaxOpenConns > 0 && c.MaxOpenConns <= 1000 {
		poolConfig.MaxConns = int32(c.MaxOpenConns)
	}
	if c.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = c.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database %s: %w", dbname, err)
	}
	return pool, nil
}
