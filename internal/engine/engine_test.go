package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/naac-validator/internal/decision"
	"github.com/sells-group/naac-validator/internal/model"
	"github.com/sells-group/naac-validator/internal/registry"
)

var fixedNow = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func newEngine(opts ...Option) *Engine {
	opts = append([]Option{
		WithClock(func() time.Time { return fixedNow }),
		WithWindow(registry.NewAssessmentWindow(2025, 5)),
	}, opts...)
	return New(registry.NewDefault(), opts...)
}

func grantRecord() model.Record {
	return model.NewRecord(
		model.Field{Name: "sl_no", Value: model.Number(7)},
		model.Field{Name: "name_of_project", Value: model.Text("Advanced AI Research")},
		model.Field{Name: "name_of_principal_investigator", Value: model.Text("Dr. John Doe")},
		model.Field{Name: "name_of_funding_agency", Value: model.Text("UGC")},
		model.Field{Name: "amount_sanctioned", Value: model.Text("2.50")},
		model.Field{Name: "year_of_award", Value: model.Text("2024")},
	)
}

const (
	matchingText  = "Sanction order: Dr. John Doe is awarded the project Advanced AI Research by UGC for 2.50 Crore(s) in 2024."
	unrelatedText = "Project Machine Learning in Healthcare led by Dr. Alice Smith, funded by DST with Rs. 4.75 Lakhs in 2019."
)

func TestValidateMatchingDocumentAccepted(t *testing.T) {
	t.Parallel()

	res := newEngine().Validate(Request{CriterionCode: "3.1.1", Record: grantRecord(), Text: matchingText})
	require.Nil(t, res.Error)
	assert.Equal(t, model.DecisionAccept, res.Decision)
	assert.GreaterOrEqual(t, res.ConfidenceScore, 0.75)
	assert.Len(t, res.Coverage.FoundFields, 5)
	assert.Empty(t, res.Coverage.MissingFields)
	assert.True(t, res.FallbackMode)
	assert.Equal(t, []string{"advisory opinion unavailable, using fallback"}, res.Warnings)
	assert.Empty(t, res.RuleViolations)
	assert.InDelta(t, 100.0, res.RequiredFields.CompletionPercent, 1e-9)
	assert.Equal(t, fixedNow, res.Timestamp)
	assert.NotEmpty(t, res.CriterionName)
}

func TestValidateUnrelatedDocumentRejected(t *testing.T) {
	t.Parallel()

	res := newEngine().Validate(Request{CriterionCode: "3.1.1", Record: grantRecord(), Text: unrelatedText})
	require.Nil(t, res.Error)
	assert.Equal(t, model.DecisionReject, res.Decision)
	assert.LessOrEqual(t, res.ConfidenceScore, 0.3)
	assert.Empty(t, res.Coverage.FoundFields)
	assert.Len(t, res.Coverage.MissingFields, 5)
}

func TestValidateUnknownCriterion(t *testing.T) {
	t.Parallel()

	res := newEngine().Validate(Request{CriterionCode: "9.9.9", Record: grantRecord(), Text: matchingText})
	assert.Equal(t, model.DecisionReject, res.Decision)
	require.NotNil(t, res.Error)
	assert.Equal(t, model.ErrCodeCriterionNotFound, res.Error.Code)
	assert.Zero(t, res.ConfidenceScore)
	assert.Nil(t, res.Coverage)
}

func TestValidateEmptyInputs(t *testing.T) {
	t.Parallel()

	e := newEngine()
	for name, req := range map[string]Request{
		"empty text":       {CriterionCode: "3.1.1", Record: grantRecord(), Text: ""},
		"blank text":       {CriterionCode: "3.1.1", Record: grantRecord(), Text: " \n\t"},
		"empty record":     {CriterionCode: "3.1.1", Record: model.NewRecord(), Text: matchingText},
		"only bookkeeping": {CriterionCode: "3.1.1", Record: model.NewRecord(model.Field{Name: "id", Value: model.Number(1)}), Text: matchingText},
	} {
		res := e.Validate(req)
		assert.Equal(t, model.DecisionReject, res.Decision, name)
		require.NotNil(t, res.Error, name)
		assert.Equal(t, model.ErrCodeEmptyInput, res.Error.Code, name)
	}
}

func TestValidateUnknownCriterionCheckedBeforeEmptyText(t *testing.T) {
	t.Parallel()

	res := newEngine().Validate(Request{CriterionCode: "nope", Record: grantRecord()})
	assert.Equal(t, model.ErrCodeCriterionNotFound, res.Error.Code)
}

func TestValidateDeterministic(t *testing.T) {
	t.Parallel()

	e := newEngine()
	req := Request{CriterionCode: "3.1.1", Record: grantRecord(), Text: "UGC sanctioned 2.50 crore for Advanced AI Research", AdvisoryRaw: `{"confidence_score": 0.3}`}
	first := e.Validate(req)
	for range 5 {
		assert.Equal(t, first, e.Validate(req))
	}
}

func TestValidateAdvisoryFallbackSafety(t *testing.T) {
	t.Parallel()

	e := newEngine()
	for name, req := range map[string]Request{
		"garbage raw":        {AdvisoryRaw: "{not json"},
		"out of range":       {Advisory: &model.AdvisoryOpinion{Confidence: -3}},
		"unknown recommends": {AdvisoryRaw: `{"confidence_score": 0.5, "recommendation": "SHRUG"}`},
	} {
		req.CriterionCode = "3.1.1"
		req.Record = grantRecord()
		req.Text = matchingText
		res := e.Validate(req)
		assert.True(t, res.FallbackMode, name)
		assert.Nil(t, res.Error, name)
		require.Len(t, res.Warnings, 1, name)
		assert.Contains(t, res.Warnings[0], "rejected", name)
	}
}

func TestValidateAdvisoryUsed(t *testing.T) {
	t.Parallel()

	res := newEngine().Validate(Request{
		CriterionCode: "3.1.1",
		Record:        grantRecord(),
		Text:          unrelatedText,
		Advisory:      &model.AdvisoryOpinion{Confidence: 1},
	})
	assert.False(t, res.FallbackMode)
	assert.Empty(t, res.Warnings)
	assert.InDelta(t, 0.05, res.ConfidenceScore, 1e-9)
}

func TestValidateCriticalFloorWithHostileAdvisory(t *testing.T) {
	t.Parallel()

	res := newEngine().Validate(Request{
		CriterionCode: "3.1.1",
		Record:        grantRecord(),
		Text:          matchingText,
		Advisory:      &model.AdvisoryOpinion{Confidence: 0},
	})
	assert.GreaterOrEqual(t, res.ConfidenceScore, 0.75)
	assert.Equal(t, model.DecisionAccept, res.Decision)
}

func TestValidateErrorViolationDemotesAccept(t *testing.T) {
	t.Parallel()

	rec := grantRecord()
	rec.Set("year_of_award", model.Text("2012"))
	text := "Dr. John Doe, Advanced AI Research, UGC, 2.50 Crore(s), 2012"

	res := newEngine().Validate(Request{CriterionCode: "3.1.1", Record: rec, Text: text})
	assert.GreaterOrEqual(t, res.ConfidenceScore, 0.6)
	assert.Equal(t, model.DecisionFlag, res.Decision)
	require.Len(t, res.RuleViolations, 1)
	assert.Equal(t, "year_of_award", res.RuleViolations[0].Field)
	assert.Equal(t, model.SeverityError, res.RuleViolations[0].Severity)
}

func TestValidateStrictPolicy(t *testing.T) {
	t.Parallel()

	req := Request{
		CriterionCode: "3.1.1",
		Record:        grantRecord(),
		Text:          "Dr. John Doe, Advanced AI Research, UGC",
		Advisory:      &model.AdvisoryOpinion{Confidence: 0.5},
	}
	// Three of five fields found scores 0.72.
	assert.Equal(t, model.DecisionAccept, newEngine().Validate(req).Decision)
	assert.Equal(t, model.DecisionFlag, newEngine(WithPolicy(decision.StrictPolicy())).Validate(req).Decision)
}

func TestValidateRecoversPanics(t *testing.T) {
	t.Parallel()

	e := newEngine()
	e.scorer = nil

	res := e.Validate(Request{CriterionCode: "3.1.1", Record: grantRecord(), Text: matchingText})
	assert.Equal(t, model.DecisionReject, res.Decision)
	require.NotNil(t, res.Error)
	assert.Equal(t, model.ErrCodeInternal, res.Error.Code)
}

func TestValidateConcurrent(t *testing.T) {
	t.Parallel()

	e := newEngine()
	want := e.Validate(Request{CriterionCode: "3.1.1", Record: grantRecord(), Text: matchingText})

	done := make(chan *model.ValidationResult, 16)
	for range 16 {
		go func() {
			done <- e.Validate(Request{CriterionCode: "3.1.1", Record: grantRecord(), Text: matchingText})
		}()
	}
	for range 16 {
		assert.Equal(t, want, <-done)
	}
}
