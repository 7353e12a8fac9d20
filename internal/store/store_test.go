package store

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/naac-validator/internal/model"
	"github.com/sells-group/naac-validator/internal/registry"
)

func TestSearchWhere(t *testing.T) {
	t.Parallel()

	allowed := []string{"name_of_project", "year_of_award"}
	tests := []struct {
		name    string
		filters map[string]string
		where   string
		args    []any
	}{
		{
			name:    "sorted and trimmed",
			filters: map[string]string{"year_of_award": " 2021 ", "name_of_project": "Solar"},
			where:   `CAST("name_of_project" AS TEXT) LIKE $1 AND CAST("year_of_award" AS TEXT) LIKE $2`,
			args:    []any{"%Solar%", "%2021%"},
		},
		{
			name:    "disallowed column ignored",
			filters: map[string]string{"password": "x", "name_of_project": "Solar"},
			where:   `CAST("name_of_project" AS TEXT) LIKE $1`,
			args:    []any{"%Solar%"},
		},
		{
			name:    "blank values ignored",
			filters: map[string]string{"name_of_project": "  "},
		},
		{
			name: "no filters",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			where, args := searchWhere(tt.filters, allowed, dollar, "LIKE")
			assert.Equal(t, tt.where, where)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestCreateTableSQL(t *testing.T) {
	t.Parallel()

	def := registry.Definition{
		Code:           "3.1.1",
		RequiredFields: []string{"name_of_project", "sl_no", "amount_sanctioned"},
	}
	stmt, err := createTableSQL(def, "BIGSERIAL PRIMARY KEY", "TIMESTAMPTZ")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stmt, `CREATE TABLE IF NOT EXISTS "response_3_1_1"`))
	assert.Contains(t, stmt, "id BIGSERIAL PRIMARY KEY")
	assert.Contains(t, stmt, "submitted_at TIMESTAMPTZ")
	assert.Contains(t, stmt, `"name_of_project" TEXT`)
	assert.Equal(t, 1, strings.Count(stmt, "sl_no"))

	_, err = createTableSQL(registry.Definition{Code: "x", Table: "bad table"}, "INTEGER", "TEXT")
	assert.Error(t, err)

	_, err = createTableSQL(registry.Definition{Code: "1.1", RequiredFields: []string{"Drop;"}}, "INTEGER", "TEXT")
	assert.Error(t, err)
}

func TestInsertSQL(t *testing.T) {
	t.Parallel()

	rec := model.NewRecord(
		model.Field{Name: "name_of_project", Value: model.Text("Solar")},
		model.Field{Name: "amount_sanctioned", Value: model.Number(12.5)},
		model.Field{Name: "year_of_award", Value: model.Year(2021)},
	)
	stmt, args, err := insertSQL("response_3_1_1", rec, question)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "response_3_1_1" ("name_of_project", "amount_sanctioned", "year_of_award") VALUES (?, ?, ?)`, stmt)
	assert.Equal(t, []any{"Solar", 12.5, 2021}, args)

	_, _, err = insertSQL("response_3_1_1", model.NewRecord(), question)
	assert.Error(t, err)

	bad := model.NewRecord(model.Field{Name: "x y", Value: model.Text("v")})
	_, _, err = insertSQL("response_3_1_1", bad, question)
	assert.Error(t, err)
}

func TestClampLimit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 10, clampLimit(0, 10, 100))
	assert.Equal(t, 10, clampLimit(-3, 10, 100))
	assert.Equal(t, 42, clampLimit(42, 10, 100))
	assert.Equal(t, 100, clampLimit(500, 10, 100))
}

func TestNewStoredResult(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("IST", 19800))
	res := &model.ValidationResult{CriterionCode: "3.1.1", Decision: model.DecisionAccept, Timestamp: ts}
	a := NewStoredResult("12", "grant.pdf", res)
	b := NewStoredResult("12", "grant.pdf", res)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "12", a.RecordID)
	assert.Equal(t, "grant.pdf", a.Document)
	assert.Equal(t, time.UTC, a.CreatedAt.Location())
	assert.True(t, a.CreatedAt.Equal(ts))
}
