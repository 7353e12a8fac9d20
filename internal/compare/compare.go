// Package compare measures how much of a stored record a document corroborates.
package compare

import (
	"github.com/sells-group/naac-validator/internal/matcher"
	"github.com/sells-group/naac-validator/internal/model"
)

// bookkeeping lists system columns that never count as content.
var bookkeeping = map[string]bool{
	"id":            true,
	"sl_no":         true,
	"criteria_code": true,
	"session":       true,
	"submitted_at":  true,
}

// IsBookkeeping reports whether field is a system column excluded from
// comparison.
func IsBookkeeping(field string) bool {
	return bookkeeping[field]
}

// ContentFields returns the record fields that take part in comparison, in
// record order: non-bookkeeping fields with a non-blank value.
func ContentFields(rec model.Record) []string {
	out := []string{}
	for _, f := range rec.Fields {
		if IsBookkeeping(f.Name) || f.Value.IsBlank() {
			continue
		}
		out = append(out, f.Name)
	}
	return out
}

// Comparator runs a Matcher over every content field of a record.
type Comparator struct {
	matcher *matcher.Matcher
}

// New creates a Comparator backed by m.
func New(m *matcher.Matcher) *Comparator {
	return &Comparator{matcher: m}
}

// Compare matches each content field of rec against text and aggregates the
// outcomes. FoundFields and MissingFields partition ContentFields.
func (c *Comparator) Compare(rec model.Record, text string) model.CoverageReport {
	normalized := matcher.Normalize(text)

	report := model.CoverageReport{
		ContentFields: []string{},
		FoundFields:   []string{},
		MissingFields: []string{},
		PerField:      make(map[string]model.FieldMatchOutcome),
	}
	for _, f := range rec.Fields {
		if IsBookkeeping(f.Name) || f.Value.IsBlank() {
			continue
		}
		report.ContentFields = append(report.ContentFields, f.Name)

		outcome := c.matcher.MatchNormalized(f.Name, f.Value.String(), normalized)
		report.PerField[f.Name] = outcome
		if outcome.Found {
			report.FoundFields = append(report.FoundFields, f.Name)
		} else {
			report.MissingFields = append(report.MissingFields, f.Name)
		}
	}

	if n := len(report.ContentFields); n > 0 {
		report.CoverageRatio = float64(len(report.FoundFields)) / float64(n)
	}
	return report
}
