package fixtures

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Truncate empties the given tables in one statement, resetting their
// sequences. Tables in keep are skipped; so is the migration-tracking table.
func Truncate(ctx context.Context, db Execer, tables, keep []string) error {
	targets := filterTables(tables, keep)
	if len(targets) == 0 {
		return nil
	}

	quoted := make([]string, len(targets))
	for i, t := range targets {
		quoted[i] = pgx.Identifier{t}.Sanitize()
	}

	query := fmt.Sprintf(
		"TRUNCATE %s RESTART IDENTITY CASCADE",
		strings.Join(quoted, ", "),
	)
	if _, err := db.Exec(ctx, query); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

// TruncateAll empties every application table except those in keep.
func TruncateAll(ctx context.Context, db interface {
	Execer
	Queryer
}, keep []string) error {
	tables, err := AppTables(ctx, db)
	if err != nil {
		return err
	}
	return Truncate(ctx, db, tables, keep)
}

// filterTables removes kept tables and the migrations table.
func filterTables(tables, keep []string) []string {
	skip := make(map[string]struct{}, len(keep)+1)
	skip[MigrationsTable] = struct{}{}
	for _, k := range keep {
		skip[k] = struct{}{}
	}

	out := make([]string, 0, len(tables))
	for _, t := range tables {
		if _, ok := skip[t]; ok {
			continue
		}
		out = append(out, t)
	}
	return out
}
