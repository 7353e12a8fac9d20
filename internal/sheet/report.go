package sheet

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/naac-validator/internal/model"
)

// Report sheet names.
const (
	ResultsSheet = "Results"
	FieldsSheet  = "Fields"
)

// ReportRow is one validated document/record pair.
type ReportRow struct {
	RecordID string
	Document string
	Result   *model.ValidationResult
}

var resultHeader = []string{
	"Record", "Document", "Criterion", "Decision", "Confidence", "Coverage",
	"Found", "Missing", "Fallback", "Violations", "Warnings", "Error", "Timestamp",
}

var fieldHeader = []string{"Record", "Criterion", "Field", "Expected", "Found", "Match", "Note"}

// WriteResults saves a workbook with one Results row per entry and one Fields
// row per compared field.
func WriteResults(path string, rows []ReportRow) error {
	f := xlsx.NewFile()
	results, err := f.AddSheet(ResultsSheet)
	if err != nil {
		return eris.Wrap(err, "sheet: add results sheet")
	}
	fields, err := f.AddSheet(FieldsSheet)
	if err != nil {
		return eris.Wrap(err, "sheet: add fields sheet")
	}
	addStrings(results.AddRow(), resultHeader)
	addStrings(fields.AddRow(), fieldHeader)

	for _, r := range rows {
		if r.Result == nil {
			continue
		}
		writeResultRow(results.AddRow(), r)
		writeFieldRows(fields, r)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "sheet: save %s", path)
	}
	return nil
}

func writeResultRow(row *xlsx.Row, r ReportRow) {
	res := r.Result
	addStrings(row, []string{r.RecordID, r.Document, res.CriterionCode, string(res.Decision)})
	row.AddCell().SetFloat(res.ConfidenceScore)

	var coverage float64
	var found, missing []string
	if res.Coverage != nil {
		coverage = res.Coverage.CoverageRatio
		found, missing = res.Coverage.FoundFields, res.Coverage.MissingFields
	}
	row.AddCell().SetFloat(coverage)
	addStrings(row, []string{strings.Join(found, ", "), strings.Join(missing, ", ")})
	row.AddCell().SetBool(res.FallbackMode)

	violations := make([]string, len(res.RuleViolations))
	for i, v := range res.RuleViolations {
		violations[i] = fmt.Sprintf("%s [%s]: %s", v.Field, v.Severity, v.Message)
	}
	var errText string
	if res.Error != nil {
		errText = fmt.Sprintf("%s: %s", res.Error.Code, res.Error.Message)
	}
	addStrings(row, []string{
		strings.Join(violations, "; "),
		strings.Join(res.Warnings, "; "),
		errText,
		res.Timestamp.UTC().Format(time.RFC3339),
	})
}

func writeFieldRows(sh *xlsx.Sheet, r ReportRow) {
	if r.Result.Coverage == nil {
		return
	}
	for _, name := range r.Result.Coverage.ContentFields {
		o := r.Result.Coverage.PerField[name]
		row := sh.AddRow()
		addStrings(row, []string{r.RecordID, r.Result.CriterionCode, name, o.Expected})
		row.AddCell().SetBool(o.Found)
		addStrings(row, []string{string(o.Kind), o.Note})
	}
}

func addStrings(row *xlsx.Row, vals []string) {
	for _, v := range vals {
		row.AddCell().SetString(v)
	}
}
