package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/naac-validator/internal/model"
	"github.com/sells-group/naac-validator/internal/pipeline"
	"github.com/sells-group/naac-validator/internal/registry"
	"github.com/sells-group/naac-validator/internal/store"
)

func sampleOutcomes() []pipeline.Outcome {
	return []pipeline.Outcome{
		{
			RecordID: "2",
			Document: "sanction.pdf",
			Result: &model.ValidationResult{
				CriterionCode:   "3.1.1",
				Decision:        model.DecisionFlag,
				ConfidenceScore: 0.5512,
				Coverage: &model.CoverageReport{
					ContentFields: []string{"name_of_project", "year_of_award"},
					FoundFields:   []string{"name_of_project"},
					MissingFields: []string{"year_of_award"},
					PerField: map[string]model.FieldMatchOutcome{
						"name_of_project": {Expected: "Advanced AI Research", Found: true, Kind: model.MatchExact},
						"year_of_award":   {Expected: "2012", Kind: model.MatchNone},
					},
				},
				RuleViolations: []model.RuleViolation{{Field: "year_of_award", Severity: model.SeverityError}},
				FallbackMode:   true,
			},
		},
		{
			RecordID: "7",
			Result: &model.ValidationResult{
				CriterionCode: "3.1.1",
				Decision:      model.DecisionReject,
				Error:         &model.ResultError{Code: model.ErrCodeEmptyInput, Message: "no text extracted from document"},
			},
		},
	}
}

func TestFormatOutcomes(t *testing.T) {
	var buf bytes.Buffer
	formatOutcomes(&buf, sampleOutcomes())

	output := buf.String()
	assert.Contains(t, output, "RECORD")
	assert.Contains(t, output, "FLAG_FOR_REVIEW")
	assert.Contains(t, output, "0.55")
	assert.Contains(t, output, "1/2")
	assert.Contains(t, output, "year_of_award error")
	assert.Contains(t, output, "EmptyInput: no text extracted from document")
	assert.Contains(t, output, "Advanced AI Research")
	assert.Contains(t, output, "exact")
}

func TestWriteOutcomes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeOutcomes(&buf, "json", sampleOutcomes()))
	assert.Contains(t, buf.String(), `"decision": "FLAG_FOR_REVIEW"`)
	assert.Contains(t, buf.String(), `"record_id": "2"`)

	assert.Error(t, writeOutcomes(&buf, "yaml", nil))
}

func TestReportRows(t *testing.T) {
	rows := reportRows(sampleOutcomes())
	require.Len(t, rows, 2)
	assert.Equal(t, "2", rows[0].RecordID)
	assert.Equal(t, "sanction.pdf", rows[0].Document)
	assert.Equal(t, model.DecisionReject, rows[1].Result.Decision)
}

func TestFormatCriteria(t *testing.T) {
	var buf bytes.Buffer
	formatCriteria(&buf, registry.Catalogue())
	assert.Contains(t, buf.String(), "3.1.1")
	assert.Contains(t, buf.String(), "CODE")
}

func TestFormatRecords(t *testing.T) {
	var buf bytes.Buffer
	formatRecords(&buf, []model.Record{
		model.NewRecord(model.Field{Name: "sl_no", Value: model.Number(1)}, model.Field{Name: "programme_name", Value: model.Text("B.Sc Physics")}),
		model.NewRecord(model.Field{Name: "sl_no", Value: model.Number(2)}, model.Field{Name: "year", Value: model.Year(2022)}),
	})
	output := buf.String()
	assert.Contains(t, output, "SL_NO")
	assert.Contains(t, output, "PROGRAMME_NAME")
	assert.Contains(t, output, "YEAR")
	assert.Contains(t, output, "B.Sc Physics")
	assert.Contains(t, output, "2022")
}

func TestFormatCounts(t *testing.T) {
	var buf bytes.Buffer
	formatCounts(&buf, map[string]int64{"response_3_1_1": 4, "response_2_1_1": -1})
	output := buf.String()
	assert.Contains(t, output, "missing")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("response_2_1_1")), bytes.Index(buf.Bytes(), []byte("response_3_1_1")))
}

func TestFormatResults(t *testing.T) {
	var buf bytes.Buffer
	formatResults(&buf, []store.StoredResult{{
		ID:        "abc12345-6789-0000-0000-000000000000",
		RecordID:  "4",
		Document:  "grant.pdf",
		Result:    model.ValidationResult{CriterionCode: "3.1.1", Decision: model.DecisionAccept, ConfidenceScore: 0.8},
		CreatedAt: time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC),
	}})
	output := buf.String()
	assert.Contains(t, output, "abc12345")
	assert.NotContains(t, output, "abc12345-")
	assert.Contains(t, output, "ACCEPT")
	assert.Contains(t, output, "2025-06-15 10:30")
}

func TestParseFilters(t *testing.T) {
	got, err := parseFilters([]string{"name_of_project=Solar", " year_of_award =2021", "note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name_of_project": "Solar", "year_of_award": "2021", "note": "a=b"}, got)

	_, err = parseFilters([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseFilters([]string{"=x"})
	assert.Error(t, err)
}

func TestReadRecordFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sl_no": 3, "name_of_project": "Solar", "year_of_award": 2021}`), 0o600))

	rec, err := readRecordFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, rec.Len())
	v, _ := rec.Get("year_of_award")
	assert.Equal(t, model.Year(2021), v)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[1,2]`), 0o600))
	_, err = readRecordFile(bad)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "abc12345", truncateID("abc12345-6789"))
	assert.Equal(t, "abc", truncateID("abc"))
}
