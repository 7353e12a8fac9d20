package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/naac-validator/internal/db"
	"github.com/sells-group/naac-validator/internal/model"
	"github.com/sells-group/naac-validator/internal/registry"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// NewPostgres creates a PostgresStore with a connection pool and pings it.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns, minConns := int32(10), int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS validation_results (
	id               TEXT PRIMARY KEY,
	criterion_code   TEXT NOT NULL,
	record_id        TEXT NOT NULL DEFAULT '',
	document         TEXT NOT NULL DEFAULT '',
	decision         TEXT NOT NULL,
	confidence_score DOUBLE PRECISION NOT NULL,
	fallback_mode    BOOLEAN NOT NULL DEFAULT false,
	result           JSONB NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_validation_results_criterion ON validation_results(criterion_code, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_validation_results_decision ON validation_results(decision);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) EnsureTables(ctx context.Context, defs []registry.Definition) error {
	for _, def := range defs {
		stmt, err := createTableSQL(def, "BIGSERIAL PRIMARY KEY", "TIMESTAMPTZ NOT NULL DEFAULT now()")
		if err != nil {
			return eris.Wrapf(err, "postgres: table for %s", def.Code)
		}
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return eris.Wrapf(err, "postgres: create table for %s", def.Code)
		}
	}
	return nil
}

func (s *PostgresStore) InsertRecord(ctx context.Context, table string, rec model.Record) error {
	stmt, args, err := insertSQL(table, rec, dollar)
	if err != nil {
		return eris.Wrap(err, "postgres: insert record")
	}
	_, err = s.pool.Exec(ctx, stmt, args...)
	return eris.Wrapf(err, "postgres: insert into %s", table)
}

func (s *PostgresStore) GetRecord(ctx context.Context, table, id string) (model.Record, error) {
	if err := db.CheckIdent(table); err != nil {
		return model.Record{}, err
	}
	for _, col := range []string{"sl_no", "id"} {
		q := fmt.Sprintf(`SELECT * FROM %s WHERE CAST(%s AS TEXT) = $1 ORDER BY submitted_at DESC LIMIT 1`, db.Quote(table), col)
		recs, err := s.queryRecords(ctx, q, id)
		if err != nil {
			return model.Record{}, eris.Wrapf(err, "postgres: get record %s from %s", id, table)
		}
		if len(recs) > 0 {
			return recs[0], nil
		}
	}
	return model.Record{}, eris.Wrapf(ErrRecordNotFound, "postgres: %s in %s", id, table)
}

func (s *PostgresStore) ListRecords(ctx context.Context, table string, limit int) ([]model.Record, error) {
	if err := db.CheckIdent(table); err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`SELECT * FROM %s ORDER BY submitted_at DESC LIMIT $1`, db.Quote(table))
	recs, err := s.queryRecords(ctx, q, clampLimit(limit, 10, 1000))
	return recs, eris.Wrapf(err, "postgres: list records from %s", table)
}

func (s *PostgresStore) SearchRecords(ctx context.Context, table string, filters map[string]string, allowed []string) ([]model.Record, error) {
	if err := db.CheckIdent(table); err != nil {
		return nil, err
	}
	where, args := searchWhere(filters, allowed, dollar, "ILIKE")
	if where == "" {
		return []model.Record{}, nil
	}
	q := fmt.Sprintf(`SELECT * FROM %s WHERE %s ORDER BY submitted_at DESC LIMIT %d`, db.Quote(table), where, MaxSearchResults)
	recs, err := s.queryRecords(ctx, q, args...)
	return recs, eris.Wrapf(err, "postgres: search %s", table)
}

func (s *PostgresStore) TableCounts(ctx context.Context, tables []string) (map[string]int64, error) {
	out := make(map[string]int64, len(tables))
	for _, t := range tables {
		if err := db.CheckIdent(t); err != nil {
			return nil, err
		}
		var n int64
		if err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, db.Quote(t))).Scan(&n); err != nil {
			n = -1
		}
		out[t] = n
	}
	return out, nil
}

var resultColumns = []string{"id", "criterion_code", "record_id", "document", "decision", "confidence_score", "fallback_mode", "result", "created_at"}

func (s *PostgresStore) SaveResults(ctx context.Context, results []StoredResult) error {
	rows := make([][]any, 0, len(results))
	for _, r := range results {
		body, err := json.Marshal(r.Result)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal result")
		}
		rows = append(rows, []any{
			r.ID, r.Result.CriterionCode, r.RecordID, r.Document, string(r.Result.Decision),
			r.Result.ConfidenceScore, r.Result.FallbackMode, body, r.CreatedAt,
		})
	}
	_, err := db.CopyFrom(ctx, s.pool, ResultsTable, resultColumns, rows)
	return eris.Wrap(err, "postgres: save results")
}

func (s *PostgresStore) ListResults(ctx context.Context, filter ResultFilter) ([]StoredResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, record_id, document, result, created_at FROM validation_results
		WHERE ($1 = '' OR criterion_code = $1) AND ($2 = '' OR decision = $2)
		ORDER BY created_at DESC LIMIT $3`,
		filter.CriterionCode, string(filter.Decision), clampLimit(filter.Limit, 50, 1000),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list results")
	}
	defer rows.Close()

	out := []StoredResult{}
	for rows.Next() {
		var r StoredResult
		var body []byte
		if err := rows.Scan(&r.ID, &r.RecordID, &r.Document, &body, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan result")
		}
		if err := json.Unmarshal(body, &r.Result); err != nil {
			return nil, eris.Wrapf(err, "postgres: decode result %s", r.ID)
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate results")
}

func (s *PostgresStore) queryRecords(ctx context.Context, q string, args ...any) ([]model.Record, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	defer rows.Close()

	out := []model.Record{}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		fds := rows.FieldDescriptions()
		rec := model.NewRecord()
		for i, fd := range fds {
			rec.Set(fd.Name, model.FromAny(fd.Name, pgValue(vals[i])))
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// pgValue unwraps pgx types that model.FromAny does not know.
func pgValue(v any) any {
	switch t := v.(type) {
	case pgtype.Numeric:
		if f, err := t.Float64Value(); err == nil && f.Valid {
			return f.Float64
		}
		return nil
	case [16]byte:
		return uuid.UUID(t).String()
	default:
		return v
	}
}
