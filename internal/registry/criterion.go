package registry

import (
	"regexp"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

// FieldKind is a matching hint for a record field. The matcher uses it to
// pick which specialised strategy applies after exact containment fails.
type FieldKind string

// Field kinds.
const (
	FieldText           FieldKind = "text"
	FieldAmount         FieldKind = "amount"
	FieldName           FieldKind = "name"
	FieldDepartment     FieldKind = "department"
	FieldClassification FieldKind = "classification"
	FieldYear           FieldKind = "year"
)

var tableNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Definition describes one accreditation criterion: which record fields it
// needs, which of those weigh most in scoring, and which hard rules apply.
type Definition struct {
	Code           string               `yaml:"code" json:"code"`
	Name           string               `yaml:"name" json:"name"`
	Table          string               `yaml:"table" json:"table"`
	RequiredFields []string             `yaml:"required_fields" json:"required_fields"`
	CriticalFields []string             `yaml:"critical_fields" json:"critical_fields"`
	Rules          map[string]string    `yaml:"rules" json:"rules,omitempty"`
	FieldKinds     map[string]FieldKind `yaml:"field_kinds" json:"field_kinds,omitempty"`
}

// KindOf returns the matching hint for a field: an explicit override from the
// definition when present, otherwise the kind inferred from the field name.
func (d Definition) KindOf(field string) FieldKind {
	if k, ok := d.FieldKinds[field]; ok && k != "" {
		return k
	}
	return InferKind(field)
}

// Validate checks structural invariants of a definition.
func (d Definition) Validate() error {
	var errs []string
	if strings.TrimSpace(d.Code) == "" {
		errs = append(errs, "code is required")
	}
	if d.Table != "" && !tableNameRe.MatchString(d.Table) {
		errs = append(errs, "table "+d.Table+" is not a valid identifier")
	}
	for _, f := range d.CriticalFields {
		if !slices.Contains(d.RequiredFields, f) {
			errs = append(errs, "critical field "+f+" is not required")
		}
	}
	if len(errs) > 0 {
		return eris.Errorf("registry: invalid criterion %q: %s", d.Code, strings.Join(errs, "; "))
	}
	return nil
}

// clone returns a deep copy so registered definitions never share backing
// storage with callers.
func (d Definition) clone() Definition {
	out := d
	out.RequiredFields = slices.Clone(d.RequiredFields)
	out.CriticalFields = slices.Clone(d.CriticalFields)
	if d.Rules != nil {
		out.Rules = make(map[string]string, len(d.Rules))
		for k, v := range d.Rules {
			out.Rules[k] = v
		}
	}
	if d.FieldKinds != nil {
		out.FieldKinds = make(map[string]FieldKind, len(d.FieldKinds))
		for k, v := range d.FieldKinds {
			out.FieldKinds[k] = v
		}
	}
	return out
}

// DefaultTable derives the backing table name for a criterion code,
// e.g. "3.1.1" -> "response_3_1_1".
func DefaultTable(code string) string {
	return "response_" + strings.ReplaceAll(strings.TrimSpace(code), ".", "_")
}

// InferKind guesses a field's matching hint from its name. Hints are tried
// in matching precedence: amount, name, department, classification, then
// year. Amount words must be whole tokens so "account_name" stays a name.
func InferKind(field string) FieldKind {
	f := strings.ToLower(field)
	tokens := strings.FieldsFunc(f, func(r rune) bool { return r == '_' || r == ' ' || r == '-' })
	switch {
	case hasAnyToken(tokens, "amount", "sanctioned", "count", "participants") ||
		strings.HasPrefix(f, "no_of") || strings.HasPrefix(f, "number_of"):
		return FieldAmount
	case strings.Contains(f, "name") || strings.Contains(f, "investigator") ||
		strings.Contains(f, "author"):
		return FieldName
	case strings.Contains(f, "department") || strings.Contains(f, "dept"):
		return FieldDepartment
	case strings.Contains(f, "type") || strings.Contains(f, "category"):
		return FieldClassification
	case strings.Contains(f, "year"):
		return FieldYear
	default:
		return FieldText
	}
}

func hasAnyToken(tokens []string, words ...string) bool {
	for _, w := range words {
		if slices.Contains(tokens, w) {
			return true
		}
	}
	return false
}
