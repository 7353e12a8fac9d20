package advisory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/naac-validator/internal/model"
)

var fields = []string{"name_of_project", "amount_sanctioned"}

func TestFallback(t *testing.T) {
	t.Parallel()

	op := Fallback(fields)
	assert.True(t, op.Fallback)
	assert.InDelta(t, 0.7, op.Confidence, 1e-9)
	assert.Equal(t, model.DecisionAccept, op.RecommendedDecision)
	assert.Equal(t, []string{FallbackConcern}, op.Concerns)
	require.Len(t, op.FieldAssessments, 2)
	for _, f := range fields {
		assert.True(t, op.FieldAssessments[f].Found)
		assert.InDelta(t, 0.8, op.FieldAssessments[f].Similarity, 1e-9)
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	valid := &model.AdvisoryOpinion{Confidence: 0.9, RecommendedDecision: model.DecisionAccept}
	tests := []struct {
		name         string
		op           *model.AdvisoryOpinion
		raw          string
		wantFallback bool
		wantWarning  string
		wantConf     float64
	}{
		{name: "absent", wantFallback: true, wantWarning: "advisory opinion unavailable, using fallback", wantConf: 0.7},
		{name: "structured valid", op: valid, wantConf: 0.9},
		{name: "structured out of range", op: &model.AdvisoryOpinion{Confidence: 1.5}, wantFallback: true, wantWarning: "advisory opinion rejected", wantConf: 0.7},
		{name: "raw valid", raw: `{"confidence_score": 0.35, "recommendation": "REJECT"}`, wantConf: 0.35},
		{name: "raw garbage", raw: "I cannot help with that", wantFallback: true, wantWarning: "advisory opinion rejected", wantConf: 0.7},
		{name: "whitespace raw", raw: "   ", wantFallback: true, wantWarning: "unavailable", wantConf: 0.7},
		{name: "structured wins over raw", op: valid, raw: "garbage", wantConf: 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, warning := Normalize(tt.op, tt.raw, fields)
			assert.Equal(t, tt.wantFallback, got.Fallback)
			assert.InDelta(t, tt.wantConf, got.Confidence, 1e-9)
			if tt.wantWarning == "" {
				assert.Empty(t, warning)
			} else {
				assert.Contains(t, warning, tt.wantWarning)
			}
		})
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	raw := "Here is my analysis:\n```json\n" + `{
  "confidence_score": 0.82, // fairly sure
  "field_matches": {
    "name_of_project": {"found": true, "similarity": 0.95, "notes": "title matches"},
    "amount_sanctioned": {"found": false, "similarity": 0.1, "notes": "see http://example.org"},
  },
  "overall_assessment": "mostly consistent",
  "concerns": ["amount missing"],
  "strengths": ["title"],
  "recommendation": "flag for review",
}` + "\n```"

	op, err := Parse(raw)
	require.NoError(t, err)
	assert.InDelta(t, 0.82, op.Confidence, 1e-9)
	assert.Equal(t, model.DecisionFlag, op.RecommendedDecision)
	assert.Equal(t, "see http://example.org", op.FieldAssessments["amount_sanctioned"].Notes)
	assert.True(t, op.FieldAssessments["name_of_project"].Found)
	assert.Equal(t, []string{"amount missing"}, op.Concerns)
	assert.False(t, op.Fallback)
}

func TestParseRejects(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"no object":          "no json here",
		"missing confidence": `{"overall_assessment": "ok"}`,
		"unknown key":        `{"confidence_score": 0.5, "score": 0.5}`,
		"out of range":       `{"confidence_score": 1.2}`,
		"bad similarity":     `{"confidence_score": 0.5, "field_matches": {"a": {"found": true, "similarity": -0.1}}}`,
		"incomplete field":   `{"confidence_score": 0.5, "field_matches": {"a": {"notes": "x"}}}`,
		"bad recommendation": `{"confidence_score": 0.5, "recommendation": "MAYBE"}`,
		"wrong type":         `{"confidence_score": "high"}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestCheckDerivesRecommendation(t *testing.T) {
	t.Parallel()

	for conf, want := range map[float64]model.Decision{
		0.6:  model.DecisionAccept,
		0.59: model.DecisionFlag,
		0.4:  model.DecisionFlag,
		0.39: model.DecisionReject,
	} {
		op, err := Check(model.AdvisoryOpinion{Confidence: conf, Fallback: true})
		require.NoError(t, err)
		assert.Equal(t, want, op.RecommendedDecision, conf)
		assert.False(t, op.Fallback)
		assert.NotNil(t, op.Concerns)
		assert.NotNil(t, op.Strengths)
	}
}

func TestCheckCopiesAssessments(t *testing.T) {
	t.Parallel()

	in := model.AdvisoryOpinion{
		Confidence:       0.5,
		FieldAssessments: map[string]model.FieldAssessment{"a": {Found: true, Similarity: 1}},
	}
	out, err := Check(in)
	require.NoError(t, err)
	out.FieldAssessments["b"] = model.FieldAssessment{}
	assert.Len(t, in.FieldAssessments, 1)
}
