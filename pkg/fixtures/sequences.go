package fixtures

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// RowQueryer runs a single-row query. Satisfied by pgxpool.Pool and pgx.Tx.
type RowQueryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SyncSequences advances each table's serial sequences past the highest
// loaded value. Fixture rows carry explicit IDs, which leaves sequences
// behind; without this, the first default-valued insert after a fixture
// load collides with a fixture row.
func SyncSequences(ctx context.Context, db interface {
	Queryer
	RowQueryer
}, tables []string) error {
	for _, table := range tables {
		cols, err := serialColumns(ctx, db, table)
		if err != nil {
			return err
		}
		for _, col := range cols {
			query := fmt.Sprintf(
				"SELECT setval(pg_get_serial_sequence($1, $2), COALESCE((SELECT MAX(%s) FROM %s), 0) + 1, false)",
				pgx.Identifier{col}.Sanitize(),
				pgx.Identifier{table}.Sanitize(),
			)
			var ignored int64
			if err := db.QueryRow(ctx, query, table, col).Scan(&ignored); err != nil {
				return fmt.Errorf("sync sequence for %s.%s: %w", table, col, err)
			}
		}
	}
	return nil
}

// serialColumns lists the table's columns backed by a sequence.
func serialColumns(ctx context.Context, db Queryer, table string) ([]string, error) {
	query := `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = 'public'
		  AND table_name = $1
		  AND column_default LIKE 'nextval(%'
	`

	rows, err := db.Query(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("list serial columns for %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}
