// Package matcher locates expected record values inside noisy OCR text.
package matcher

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/naac-validator/internal/model"
	"github.com/sells-group/naac-validator/internal/registry"
)

// Thresholds for the fuzzy strategies.
const (
	nameTokenThreshold    = 0.6
	partialWordsThreshold = 0.5
)

var (
	honorificRe = regexp.MustCompile(`(?i)^(?:dr|prof|mr|ms|mrs)\.?\s+`)
	spaceRe     = regexp.MustCompile(`\s+`)
	nonGovtRe   = regexp.MustCompile(`non[\s\-]*government`)
)

// departmentGroups maps a canonical department to the spellings and
// abbreviations that commonly stand in for it.
var departmentGroups = map[string][]string{
	"computer science": {"cse", "cs", "computer", "computing"},
	"electronics":      {"ece", "eee", "electrical", "electronics"},
	"mechanical":       {"mech", "mechanical"},
	"civil":            {"civil", "ce"},
	"physics":          {"physics", "phy"},
	"mathematics":      {"mathematics", "maths", "math"},
	"chemistry":        {"chemistry", "chem"},
}

// departmentOrder fixes iteration order over departmentGroups.
var departmentOrder = []string{
	"computer science", "electronics", "mechanical", "civil", "physics", "mathematics", "chemistry",
}

// KindFunc returns the matching hint for a field name.
type KindFunc func(field string) registry.FieldKind

// Matcher decides whether and how an expected value appears in a text.
// It is stateless and safe for concurrent use.
type Matcher struct {
	kindOf KindFunc
}

// New creates a Matcher using kindOf for field hints. A nil kindOf falls
// back to name-based inference.
func New(kindOf KindFunc) *Matcher {
	if kindOf == nil {
		kindOf = registry.InferKind
	}
	return &Matcher{kindOf: kindOf}
}

// ForDefinition creates a Matcher that honours a criterion's field hints.
func ForDefinition(def registry.Definition) *Matcher {
	return New(def.KindOf)
}

// Normalize prepares text for matching: NFKC folding of OCR ligatures and
// full-width forms, then lower-casing.
func Normalize(s string) string {
	return strings.ToLower(norm.NFKC.String(s))
}

// Match looks for expected in text. Strategies are tried in a fixed order
// and the first success wins: exact containment, amount patterns, name
// fragments, department synonyms, classification, then partial words.
func (m *Matcher) Match(field, expected, text string) model.FieldMatchOutcome {
	return m.MatchNormalized(field, expected, Normalize(text))
}

// MatchNormalized is Match for text already passed through Normalize.
// Callers matching many fields against one document normalise once.
func (m *Matcher) MatchNormalized(field, expected, text string) model.FieldMatchOutcome {
	out := model.FieldMatchOutcome{FieldName: field, Expected: expected, Kind: model.MatchNone}

	exp := Normalize(strings.TrimSpace(expected))
	if exp == "" {
		out.Note = "empty expected value"
		return out
	}

	if strings.Contains(text, exp) {
		return found(out, model.MatchExact, "literal match")
	}

	switch m.kindOf(field) {
	case registry.FieldAmount:
		if pat, ok := matchAmount(exp, text); ok {
			return found(out, model.MatchNormalizedAmount, "matched pattern "+pat)
		}
	case registry.FieldName:
		if hit, total, ok := matchName(exp, text); ok {
			return found(out, model.MatchNameFragment, fmt.Sprintf("%d of %d name tokens", hit, total))
		}
	case registry.FieldDepartment:
		if group, member, ok := matchDepartment(exp, text); ok {
			return found(out, model.MatchAbbreviation, fmt.Sprintf("%s via %q", group, member))
		}
	case registry.FieldClassification:
		if matchClassification(exp, text) {
			return found(out, model.MatchClassification, "normalized classification")
		}
	}

	if hit, total, ok := matchPartialWords(exp, text); ok {
		return found(out, model.MatchPartialWords, fmt.Sprintf("%d of %d words", hit, total))
	}

	out.Note = "not found"
	return out
}

func found(out model.FieldMatchOutcome, kind model.MatchKind, note string) model.FieldMatchOutcome {
	out.Found = true
	out.Kind = kind
	out.Note = note
	return out
}

// matchAmount tries a currency symbol and crore/lakh unit around the value
// in either order. It returns the pattern that hit.
func matchAmount(exp, text string) (string, bool) {
	num := numberPattern(exp)
	const (
		lead     = `(?:^|[^0-9.,])`
		trail    = `(?:$|[^0-9])`
		currency = `(?:₹|rs\.?|inr)?\s*`
		unit     = `(?:crores?|lakhs?|lacs?)(?:\(s\))?`
	)
	variants := []string{
		lead + currency + num + `\s*` + unit,
		unit + `\s*(?:of\s+)?` + currency + num + trail,
		`(?:₹|rs\.?|inr)\s*` + num + trail,
		lead + num + trail,
	}
	for _, v := range variants {
		re, err := regexp.Compile(v)
		if err != nil {
			continue
		}
		if re.MatchString(text) {
			return v, true
		}
	}
	return "", false
}

// numberPattern turns a numeric expected value into a regex that tolerates
// digit grouping commas and trailing fractional zeros. The decimal point and
// magnitude are preserved. Non-numeric values are quoted literally.
func numberPattern(exp string) string {
	raw := strings.ReplaceAll(exp, ",", "")
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return regexp.QuoteMeta(exp)
	}

	intPart, frac, _ := strings.Cut(raw, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 {
			b.WriteString(`,?`)
		}
		b.WriteString(regexp.QuoteMeta(string(r)))
	}

	if frac = strings.TrimRight(frac, "0"); frac != "" {
		b.WriteString(`\.` + frac + `0*`)
	} else {
		b.WriteString(`(?:\.0+)?`)
	}
	return b.String()
}

func matchName(exp, text string) (int, int, bool) {
	name := exp
	for {
		stripped := honorificRe.ReplaceAllString(name, "")
		if stripped == name {
			break
		}
		name = stripped
	}
	return tokenRatio(tokens(name, 2), text, nameTokenThreshold)
}

func matchDepartment(exp, text string) (string, string, bool) {
	words := wordSet(text)
	for _, group := range departmentOrder {
		members := departmentGroups[group]
		if !inGroup(exp, group, members) {
			continue
		}
		for _, m := range members {
			if words[m] {
				return group, m, true
			}
		}
		if strings.Contains(text, group) {
			return group, group, true
		}
	}
	return "", "", false
}

func inGroup(exp, group string, members []string) bool {
	if strings.Contains(exp, group) {
		return true
	}
	expWords := wordSet(exp)
	for _, m := range members {
		if expWords[m] {
			return true
		}
	}
	return false
}

func matchClassification(exp, text string) bool {
	ne := normalizeClassification(exp)
	return ne != "" && strings.Contains(normalizeClassification(text), ne)
}

func normalizeClassification(s string) string {
	s = nonGovtRe.ReplaceAllString(s, "non govt")
	s = strings.ReplaceAll(s, "government", "govt")
	return spaceRe.ReplaceAllString(s, "")
}

func matchPartialWords(exp, text string) (int, int, bool) {
	if len(strings.Fields(exp)) < 2 {
		return 0, 0, false
	}
	return tokenRatio(tokens(exp, 3), text, partialWordsThreshold)
}

// tokenRatio counts how many tokens occur in text and compares the share
// against threshold. No tokens means no match.
func tokenRatio(toks []string, text string, threshold float64) (int, int, bool) {
	if len(toks) == 0 {
		return 0, 0, false
	}
	hit := 0
	for _, t := range toks {
		if strings.Contains(text, t) {
			hit++
		}
	}
	return hit, len(toks), float64(hit)/float64(len(toks)) >= threshold
}

// tokens splits s on anything that is not a letter or digit and keeps
// tokens longer than minLen runes.
func tokens(s string, minLen int) []string {
	var out []string
	for _, t := range strings.FieldsFunc(s, splitRune) {
		if len([]rune(t)) > minLen {
			out = append(out, t)
		}
	}
	return out
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.FieldsFunc(s, splitRune) {
		set[w] = true
	}
	return set
}

func splitRune(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
