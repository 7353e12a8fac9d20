// Package store looks up institution records and persists validation
// results.
package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/naac-validator/internal/compare"
	"github.com/sells-group/naac-validator/internal/db"
	"github.com/sells-group/naac-validator/internal/model"
	"github.com/sells-group/naac-validator/internal/registry"
)

// ErrRecordNotFound is returned when no row matches a record identifier.
var ErrRecordNotFound = eris.New("store: record not found")

// MaxSearchResults caps SearchRecords.
const MaxSearchResults = 20

// ResultsTable holds persisted validation results.
const ResultsTable = "validation_results"

// RecordStore reads criterion response tables.
type RecordStore interface {
	// GetRecord returns the newest row whose sl_no, or failing that id,
	// equals id.
	GetRecord(ctx context.Context, table, id string) (model.Record, error)
	// ListRecords returns up to limit rows, newest first.
	ListRecords(ctx context.Context, table string, limit int) ([]model.Record, error)
	// SearchRecords returns rows whose columns contain every filter value.
	// Filters on columns outside allowed are ignored; no usable filter
	// yields no rows.
	SearchRecords(ctx context.Context, table string, filters map[string]string, allowed []string) ([]model.Record, error)
	// TableCounts returns the row count of each table, or -1 when the
	// table cannot be counted.
	TableCounts(ctx context.Context, tables []string) (map[string]int64, error)
}

// ResultStore persists validation results.
type ResultStore interface {
	SaveResults(ctx context.Context, results []StoredResult) error
	ListResults(ctx context.Context, filter ResultFilter) ([]StoredResult, error)
}

// Store is the full persistence interface.
type Store interface {
	RecordStore
	ResultStore

	// EnsureTables creates a response table for each definition if missing.
	EnsureTables(ctx context.Context, defs []registry.Definition) error
	// InsertRecord appends rec to table.
	InsertRecord(ctx context.Context, table string, rec model.Record) error

	Migrate(ctx context.Context) error
	Close() error
}

// StoredResult is a validation result with its persistence metadata.
type StoredResult struct {
	ID        string                 `json:"id"`
	RecordID  string                 `json:"record_id,omitempty"`
	Document  string                 `json:"document,omitempty"`
	Result    model.ValidationResult `json:"result"`
	CreatedAt time.Time              `json:"created_at"`
}

// NewStoredResult assigns an ID to res for persistence.
func NewStoredResult(recordID, document string, res *model.ValidationResult) StoredResult {
	return StoredResult{
		ID:        uuid.NewString(),
		RecordID:  recordID,
		Document:  document,
		Result:    *res,
		CreatedAt: res.Timestamp.UTC(),
	}
}

// ResultFilter narrows ListResults. Zero fields match everything.
type ResultFilter struct {
	CriterionCode string
	Decision      model.Decision
	Limit         int
}

// placeholder renders the i-th (1-based) bind parameter.
type placeholder func(i int) string

func dollar(i int) string { return fmt.Sprintf("$%d", i) }
func question(int) string { return "?" }

// searchWhere builds the WHERE clause for SearchRecords. Filters are applied
// in sorted column order so the SQL is stable.
func searchWhere(filters map[string]string, allowed []string, ph placeholder, like string) (string, []any) {
	cols := make([]string, 0, len(filters))
	for col, val := range filters {
		if strings.TrimSpace(val) == "" || !slices.Contains(allowed, col) || db.CheckIdent(col) != nil {
			continue
		}
		cols = append(cols, col)
	}
	if len(cols) == 0 {
		return "", nil
	}
	slices.Sort(cols)

	conds := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		conds[i] = fmt.Sprintf("CAST(%s AS TEXT) %s %s", db.Quote(col), like, ph(i+1))
		args[i] = "%" + strings.TrimSpace(filters[col]) + "%"
	}
	return strings.Join(conds, " AND "), args
}

// createTableSQL renders a response table for def with every non-bookkeeping
// field stored as text.
func createTableSQL(def registry.Definition, idType, tsType string) (string, error) {
	table := def.Table
	if table == "" {
		table = registry.DefaultTable(def.Code)
	}
	if err := db.CheckIdent(table); err != nil {
		return "", err
	}

	cols := []string{
		"id " + idType,
		"sl_no INTEGER",
		"criteria_code TEXT",
		"session TEXT",
		"submitted_at " + tsType,
	}
	for _, f := range def.RequiredFields {
		if compare.IsBookkeeping(f) {
			continue
		}
		if err := db.CheckIdent(f); err != nil {
			return "", err
		}
		cols = append(cols, db.Quote(f)+" TEXT")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", db.Quote(table), strings.Join(cols, ",\n\t")), nil
}

// insertSQL renders an INSERT of rec's fields into table.
func insertSQL(table string, rec model.Record, ph placeholder) (string, []any, error) {
	if err := db.CheckIdent(table); err != nil {
		return "", nil, err
	}
	if rec.Len() == 0 {
		return "", nil, eris.New("store: empty record")
	}

	names := make([]string, 0, rec.Len())
	marks := make([]string, 0, rec.Len())
	args := make([]any, 0, rec.Len())
	for i, f := range rec.Fields {
		if err := db.CheckIdent(f.Name); err != nil {
			return "", nil, err
		}
		names = append(names, f.Name)
		marks = append(marks, ph(i+1))
		args = append(args, sqlValue(f.Value))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", db.Quote(table), db.QuoteAll(names), strings.Join(marks, ", ")), args, nil
}

func sqlValue(v model.Value) any {
	switch v.Kind {
	case model.KindNumber:
		return v.Number
	case model.KindYear:
		return v.Year
	default:
		return v.Text
	}
}

func clampLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, maxLimit)
}
