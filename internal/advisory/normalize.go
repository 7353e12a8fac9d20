// Package advisory obtains and normalises the language-model opinion that
// nudges a document's confidence score.
package advisory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/naac-validator/internal/model"
)

// Fallback opinion constants.
const (
	FallbackConfidence = 0.7
	FallbackSimilarity = 0.8
	FallbackConcern    = "uses fallback heuristic, manual review recommended"

	// fallbackAcceptAbove is the confidence a synthesized opinion must
	// exceed to recommend ACCEPT.
	fallbackAcceptAbove = 0.6
)

// ErrParse marks an advisory opinion that failed structural validation.
var ErrParse = eris.New("advisory: opinion failed validation")

// wireOpinion is the JSON shape the advisory prompt asks for.
type wireOpinion struct {
	ConfidenceScore   *float64                 `json:"confidence_score"`
	FieldMatches      map[string]wireFieldView `json:"field_matches"`
	OverallAssessment string                   `json:"overall_assessment"`
	Concerns          []string                 `json:"concerns"`
	Strengths         []string                 `json:"strengths"`
	Recommendation    string                   `json:"recommendation"`
}

type wireFieldView struct {
	Found      *bool    `json:"found"`
	Similarity *float64 `json:"similarity"`
	Notes      string   `json:"notes"`
}

// Fallback synthesizes the neutral opinion used when no usable advisory
// opinion is available. Every content field is assumed found.
func Fallback(contentFields []string) model.AdvisoryOpinion {
	fa := make(map[string]model.FieldAssessment, len(contentFields))
	for _, f := range contentFields {
		fa[f] = model.FieldAssessment{Found: true, Similarity: FallbackSimilarity}
	}
	rec := model.DecisionFlag
	if FallbackConfidence > fallbackAcceptAbove {
		rec = model.DecisionAccept
	}
	return model.AdvisoryOpinion{
		Confidence:          FallbackConfidence,
		FieldAssessments:    fa,
		Concerns:            []string{FallbackConcern},
		Strengths:           []string{},
		RecommendedDecision: rec,
		Fallback:            true,
	}
}

// Normalize turns whatever the advisory channel produced into a usable
// opinion. A structured opinion takes precedence over raw text. When
// neither validates, the fallback opinion is returned with a warning that
// explains why. Normalize never fails.
func Normalize(op *model.AdvisoryOpinion, raw string, contentFields []string) (model.AdvisoryOpinion, string) {
	var err error
	switch {
	case op != nil:
		var checked model.AdvisoryOpinion
		if checked, err = Check(*op); err == nil {
			return checked, ""
		}
	case strings.TrimSpace(raw) != "":
		var parsed model.AdvisoryOpinion
		if parsed, err = Parse(raw); err == nil {
			return parsed, ""
		}
	default:
		return Fallback(contentFields), "advisory opinion unavailable, using fallback"
	}
	return Fallback(contentFields), fmt.Sprintf("advisory opinion rejected, using fallback: %v", err)
}

// Parse strictly decodes a raw advisory response. Markdown fences, prose
// around the object, comments and trailing commas are tolerated; unknown
// keys, missing confidence and out-of-range numbers are not.
func Parse(raw string) (model.AdvisoryOpinion, error) {
	cleaned := cleanJSON(raw)
	if cleaned == "" {
		return model.AdvisoryOpinion{}, eris.Wrap(ErrParse, "no JSON object in response")
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(cleaned)))
	dec.DisallowUnknownFields()

	var w wireOpinion
	if err := dec.Decode(&w); err != nil {
		return model.AdvisoryOpinion{}, eris.Wrapf(ErrParse, "decode: %v", err)
	}
	if w.ConfidenceScore == nil {
		return model.AdvisoryOpinion{}, eris.Wrap(ErrParse, "confidence_score missing")
	}

	op := model.AdvisoryOpinion{
		Confidence:        *w.ConfidenceScore,
		FieldAssessments:  make(map[string]model.FieldAssessment, len(w.FieldMatches)),
		Concerns:          nonNil(w.Concerns),
		Strengths:         nonNil(w.Strengths),
		OverallAssessment: w.OverallAssessment,
	}
	for name, fv := range w.FieldMatches {
		if fv.Found == nil || fv.Similarity == nil {
			return model.AdvisoryOpinion{}, eris.Wrapf(ErrParse, "field %s incomplete", name)
		}
		op.FieldAssessments[name] = model.FieldAssessment{Found: *fv.Found, Similarity: *fv.Similarity, Notes: fv.Notes}
	}

	if w.Recommendation != "" {
		d, ok := parseDecision(w.Recommendation)
		if !ok {
			return model.AdvisoryOpinion{}, eris.Wrapf(ErrParse, "unknown recommendation %q", w.Recommendation)
		}
		op.RecommendedDecision = d
	}
	return Check(op)
}

// Check validates a structured opinion: confidence and similarities must lie
// in [0,1] and the recommendation, when set, must be a known decision. A
// missing recommendation is derived from the confidence.
func Check(op model.AdvisoryOpinion) (model.AdvisoryOpinion, error) {
	if !inUnit(op.Confidence) {
		return model.AdvisoryOpinion{}, eris.Wrapf(ErrParse, "confidence %v out of range", op.Confidence)
	}
	fa := make(map[string]model.FieldAssessment, len(op.FieldAssessments))
	for name, a := range op.FieldAssessments {
		if !inUnit(a.Similarity) {
			return model.AdvisoryOpinion{}, eris.Wrapf(ErrParse, "similarity for %s out of range", name)
		}
		fa[name] = a
	}
	op.FieldAssessments = fa

	switch op.RecommendedDecision {
	case model.DecisionAccept, model.DecisionFlag, model.DecisionReject:
	case "":
		op.RecommendedDecision = recommendFor(op.Confidence)
	default:
		return model.AdvisoryOpinion{}, eris.Wrapf(ErrParse, "unknown recommendation %q", op.RecommendedDecision)
	}

	op.Concerns = nonNil(op.Concerns)
	op.Strengths = nonNil(op.Strengths)
	op.Fallback = false
	return op, nil
}

func parseDecision(s string) (model.Decision, bool) {
	switch strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(s, " ", "_"))) {
	case "ACCEPT", "APPROVE":
		return model.DecisionAccept, true
	case "FLAG_FOR_REVIEW", "FLAG", "REVIEW":
		return model.DecisionFlag, true
	case "REJECT":
		return model.DecisionReject, true
	}
	return "", false
}

func recommendFor(confidence float64) model.Decision {
	switch {
	case confidence >= 0.6:
		return model.DecisionAccept
	case confidence >= 0.4:
		return model.DecisionFlag
	default:
		return model.DecisionReject
	}
}

func inUnit(f float64) bool {
	return !math.IsNaN(f) && f >= 0 && f <= 1
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
