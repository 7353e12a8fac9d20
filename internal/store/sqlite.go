package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/naac-validator/internal/db"
	"github.com/sells-group/naac-validator/internal/model"
	"github.com/sells-group/naac-validator/internal/registry"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: conn}, nil
}

// sqliteTime keeps created_at lexically sortable.
const sqliteTime = "2006-01-02T15:04:05.000000000Z07:00"

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS validation_results (
	id               TEXT PRIMARY KEY,
	criterion_code   TEXT NOT NULL,
	record_id        TEXT NOT NULL DEFAULT '',
	document         TEXT NOT NULL DEFAULT '',
	decision         TEXT NOT NULL,
	confidence_score REAL NOT NULL,
	fallback_mode    INTEGER NOT NULL DEFAULT 0,
	result           TEXT NOT NULL,
	created_at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_validation_results_criterion ON validation_results(criterion_code, created_at);
CREATE INDEX IF NOT EXISTS idx_validation_results_decision ON validation_results(decision);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) EnsureTables(ctx context.Context, defs []registry.Definition) error {
	for _, def := range defs {
		stmt, err := createTableSQL(def, "INTEGER PRIMARY KEY AUTOINCREMENT", "DATETIME NOT NULL DEFAULT (datetime('now'))")
		if err != nil {
			return eris.Wrapf(err, "sqlite: table for %s", def.Code)
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return eris.Wrapf(err, "sqlite: create table for %s", def.Code)
		}
	}
	return nil
}

func (s *SQLiteStore) InsertRecord(ctx context.Context, table string, rec model.Record) error {
	stmt, args, err := insertSQL(table, rec, question)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert record")
	}
	_, err = s.db.ExecContext(ctx, stmt, args...)
	return eris.Wrapf(err, "sqlite: insert into %s", table)
}

func (s *SQLiteStore) GetRecord(ctx context.Context, table, id string) (model.Record, error) {
	if err := db.CheckIdent(table); err != nil {
		return model.Record{}, err
	}
	for _, col := range []string{"sl_no", "id"} {
		q := fmt.Sprintf(`SELECT * FROM %s WHERE CAST(%s AS TEXT) = ? ORDER BY submitted_at DESC LIMIT 1`, db.Quote(table), col)
		recs, err := s.queryRecords(ctx, q, id)
		if err != nil {
			return model.Record{}, eris.Wrapf(err, "sqlite: get record %s from %s", id, table)
		}
		if len(recs) > 0 {
			return recs[0], nil
		}
	}
	return model.Record{}, eris.Wrapf(ErrRecordNotFound, "sqlite: %s in %s", id, table)
}

func (s *SQLiteStore) ListRecords(ctx context.Context, table string, limit int) ([]model.Record, error) {
	if err := db.CheckIdent(table); err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`SELECT * FROM %s ORDER BY submitted_at DESC, id DESC LIMIT ?`, db.Quote(table))
	recs, err := s.queryRecords(ctx, q, clampLimit(limit, 10, 1000))
	return recs, eris.Wrapf(err, "sqlite: list records from %s", table)
}

func (s *SQLiteStore) SearchRecords(ctx context.Context, table string, filters map[string]string, allowed []string) ([]model.Record, error) {
	if err := db.CheckIdent(table); err != nil {
		return nil, err
	}
	where, args := searchWhere(filters, allowed, question, "LIKE")
	if where == "" {
		return []model.Record{}, nil
	}
	q := fmt.Sprintf(`SELECT * FROM %s WHERE %s ORDER BY submitted_at DESC LIMIT %d`, db.Quote(table), where, MaxSearchResults)
	recs, err := s.queryRecords(ctx, q, args...)
	return recs, eris.Wrapf(err, "sqlite: search %s", table)
}

func (s *SQLiteStore) TableCounts(ctx context.Context, tables []string) (map[string]int64, error) {
	out := make(map[string]int64, len(tables))
	for _, t := range tables {
		if err := db.CheckIdent(t); err != nil {
			return nil, err
		}
		var n int64
		if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, db.Quote(t))).Scan(&n); err != nil {
			n = -1
		}
		out[t] = n
	}
	return out, nil
}

func (s *SQLiteStore) SaveResults(ctx context.Context, results []StoredResult) error {
	if len(results) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO validation_results
		(id, criterion_code, record_id, document, decision, confidence_score, fallback_mode, result, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare save results")
	}
	defer stmt.Close() //nolint:errcheck

	for _, r := range results {
		body, err := json.Marshal(r.Result)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal result")
		}
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.Result.CriterionCode, r.RecordID, r.Document, string(r.Result.Decision),
			r.Result.ConfidenceScore, r.Result.FallbackMode, string(body), r.CreatedAt.UTC().Format(sqliteTime),
		); err != nil {
			return eris.Wrapf(err, "sqlite: save result %s", r.ID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit results")
}

func (s *SQLiteStore) ListResults(ctx context.Context, filter ResultFilter) ([]StoredResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, record_id, document, result, created_at FROM validation_results
		WHERE (?1 = '' OR criterion_code = ?1) AND (?2 = '' OR decision = ?2)
		ORDER BY created_at DESC LIMIT ?3`,
		filter.CriterionCode, string(filter.Decision), clampLimit(filter.Limit, 50, 1000),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list results")
	}
	defer rows.Close() //nolint:errcheck

	out := []StoredResult{}
	for rows.Next() {
		var r StoredResult
		var body, created string
		if err := rows.Scan(&r.ID, &r.RecordID, &r.Document, &body, &created); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result")
		}
		if err := json.Unmarshal([]byte(body), &r.Result); err != nil {
			return nil, eris.Wrapf(err, "sqlite: decode result %s", r.ID)
		}
		if r.CreatedAt, err = time.Parse(sqliteTime, created); err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse created_at of %s", r.ID)
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate results")
}

func (s *SQLiteStore) queryRecords(ctx context.Context, q string, args ...any) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []model.Record{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := model.NewRecord()
		for i, col := range cols {
			rec.Set(col, model.FromAny(col, vals[i]))
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
