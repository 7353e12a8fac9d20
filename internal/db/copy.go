package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// CopyFrom streams rows into table over the COPY protocol. Table and column
// names must pass CheckIdent and every row must match the column count.
func CopyFrom(ctx context.Context, pool Pool, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := CheckIdent(table); err != nil {
		return 0, err
	}
	for _, c := range columns {
		if err := CheckIdent(c); err != nil {
			return 0, err
		}
	}
	for i, r := range rows {
		if len(r) != len(columns) {
			return 0, eris.Errorf("db: row %d has %d values for %d columns", i, len(r), len(columns))
		}
	}

	n, err := pool.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", table)
	}
	return n, nil
}
