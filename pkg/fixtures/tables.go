package fixtures

import (
	"context"
	"fmt"
	"sort"
)

// MigrationsTable is the migration-tracking table excluded from
// introspection and truncation.
const MigrationsTable = "schema_migrations"

// Tables returns the sorted set of table names referenced by the given
// fixture files, so teardown can truncate only what the fixtures touched.
func Tables(paths ...string) ([]string, error) {
	fixtures, err := ParseFiles(paths...)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(fixtures))
	for _, f := range fixtures {
		seen[f.Table] = struct{}{}
	}

	tables := make([]string, 0, len(seen))
	for t := range seen {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	return tables, nil
}

// AppTables lists the application's tables in the public schema, excluding
// the migration-tracking table.
func AppTables(ctx context.Context, db Queryer) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		  AND table_type = 'BASE TABLE'
		  AND table_name <> $1
		ORDER BY table_name
	`

	rows, err := db.Query(ctx, query, MigrationsTable)
	if err != nil {
		return nil, fmt.Errorf("list application tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}
