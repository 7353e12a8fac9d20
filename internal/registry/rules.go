package registry

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/sells-group/naac-validator/internal/model"
)

// Rule names understood by the evaluator.
const (
	RuleWithinAssessmentPeriod = "withinAssessmentPeriod"
	RulePositiveNumber         = "positiveNumber"
	RulePositiveNumberCrores   = "positiveNumberCrores"
	RuleTeachingPosition       = "teachingPosition"
	RuleUGCListed              = "ugcListed"
)

// ruleAliases maps catalogue spellings found in older data files onto
// canonical rule names.
var ruleAliases = map[string]string{
	"within_assessment_period": RuleWithinAssessmentPeriod,
	"positive_number":          RulePositiveNumber,
	"positive_number_crores":   RulePositiveNumberCrores,
	"teaching_position":        RuleTeachingPosition,
	"ugc_listed":               RuleUGCListed,
}

var (
	yearRe      = regexp.MustCompile(`\b(20\d{2})\b`)
	nonNumberRe = regexp.MustCompile(`[^0-9.\-]`)

	teachingKeywords = []string{"professor", "assistant", "associate", "lecturer", "faculty", "teacher"}
)

// CanonicalRule resolves aliases to a canonical rule name.
func CanonicalRule(name string) string {
	if canon, ok := ruleAliases[strings.TrimSpace(name)]; ok {
		return canon
	}
	return strings.TrimSpace(name)
}

// AssessmentWindow is the inclusive range of years a submission may cite.
type AssessmentWindow struct {
	FromYear int `json:"from_year"`
	ToYear   int `json:"to_year"`
}

// NewAssessmentWindow returns the window ending at endYear and reaching back
// the given number of years.
func NewAssessmentWindow(endYear, years int) AssessmentWindow {
	return AssessmentWindow{FromYear: endYear - years, ToYear: endYear}
}

// Contains reports whether year falls inside the window.
func (w AssessmentWindow) Contains(year int) bool {
	return year >= w.FromYear && year <= w.ToYear
}

// RuleEvaluator applies a definition's hard rules to a record. It holds no
// mutable state and is safe for concurrent use.
type RuleEvaluator struct {
	Window AssessmentWindow
}

// Evaluate returns rule violations for rec, ordered by required-field order
// and then by field name. Missing required fields produce warnings; rules
// on absent or blank fields are skipped.
func (e RuleEvaluator) Evaluate(def Definition, rec model.Record) []model.RuleViolation {
	var out []model.RuleViolation

	report := RequiredFields(def, rec)
	for _, f := range report.Missing {
		out = append(out, model.RuleViolation{
			Field:    f,
			Rule:     "required",
			Severity: model.SeverityWarning,
			Message:  fmt.Sprintf("required field %s missing from record", f),
		})
	}

	for _, field := range ruleOrder(def) {
		v, ok := rec.Get(field)
		if !ok || v.IsBlank() {
			continue
		}
		if viol, bad := e.apply(field, CanonicalRule(def.Rules[field]), v); bad {
			out = append(out, viol)
		}
	}
	return out
}

func (e RuleEvaluator) apply(field, rule string, v model.Value) (model.RuleViolation, bool) {
	viol := model.RuleViolation{Field: field, Rule: rule, Severity: model.SeverityError}

	switch rule {
	case RuleWithinAssessmentPeriod:
		year, ok := ParseYear(v)
		if !ok {
			viol.Severity = model.SeverityWarning
			viol.Message = fmt.Sprintf("could not determine year from %q", v.String())
			return viol, true
		}
		if !e.Window.Contains(year) {
			viol.Message = fmt.Sprintf("year %d outside assessment period %d-%d", year, e.Window.FromYear, e.Window.ToYear)
			return viol, true
		}
	case RulePositiveNumber, RulePositiveNumberCrores:
		if ParseNumber(v) <= 0 {
			viol.Message = fmt.Sprintf("%s must be a positive number, got %q", field, v.String())
			return viol, true
		}
	case RuleTeachingPosition:
		lower := strings.ToLower(v.String())
		if !slices.ContainsFunc(teachingKeywords, func(k string) bool { return strings.Contains(lower, k) }) {
			viol.Severity = model.SeverityWarning
			viol.Message = fmt.Sprintf("designation %q may not be a teaching position", v.String())
			return viol, true
		}
	case RuleUGCListed:
		switch strings.ToLower(strings.TrimSpace(v.String())) {
		case "no", "false", "0", "n":
			viol.Message = "journal must be UGC listed"
			return viol, true
		}
	default:
		viol.Severity = model.SeverityWarning
		viol.Message = fmt.Sprintf("unknown rule %q", rule)
		return viol, true
	}
	return model.RuleViolation{}, false
}

// RequiredFields reports which required fields carry a non-blank value.
func RequiredFields(def Definition, rec model.Record) model.RequiredFieldReport {
	report := model.RequiredFieldReport{Present: []string{}, Missing: []string{}}
	for _, f := range def.RequiredFields {
		if v, ok := rec.Get(f); ok && !v.IsBlank() {
			report.Present = append(report.Present, f)
		} else {
			report.Missing = append(report.Missing, f)
		}
	}
	if n := len(def.RequiredFields); n > 0 {
		report.CompletionPercent = float64(len(report.Present)) / float64(n) * 100
	}
	return report
}

// ParseYear extracts a year from a value: year and integral number values
// directly, text values via the first 20xx token.
func ParseYear(v model.Value) (int, bool) {
	switch v.Kind {
	case model.KindYear:
		return v.Year, true
	case model.KindNumber:
		if v.Number == float64(int(v.Number)) {
			return int(v.Number), true
		}
		return 0, false
	}
	m := yearRe.FindStringSubmatch(v.Text)
	if m == nil {
		return 0, false
	}
	y, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return y, true
}

// ParseNumber extracts a number from a value, stripping currency symbols,
// separators and units from text. Unparseable text yields 0.
func ParseNumber(v model.Value) float64 {
	switch v.Kind {
	case model.KindNumber:
		return v.Number
	case model.KindYear:
		return float64(v.Year)
	}
	cleaned := strings.Trim(nonNumberRe.ReplaceAllString(v.Text, ""), ".")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return f
}

func ruleOrder(def Definition) []string {
	fields := make([]string, 0, len(def.Rules))
	for _, f := range def.RequiredFields {
		if _, ok := def.Rules[f]; ok {
			fields = append(fields, f)
		}
	}
	var rest []string
	for f := range def.Rules {
		if !slices.Contains(def.RequiredFields, f) {
			rest = append(rest, f)
		}
	}
	sort.Strings(rest)
	return append(fields, rest...)
}
