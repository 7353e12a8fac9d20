// Package engine validates one extracted document against one stored record
// for a named criterion. Validate is pure apart from the result timestamp
// and never performs I/O.
package engine

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/naac-validator/internal/advisory"
	"github.com/sells-group/naac-validator/internal/compare"
	"github.com/sells-group/naac-validator/internal/decision"
	"github.com/sells-group/naac-validator/internal/matcher"
	"github.com/sells-group/naac-validator/internal/model"
	"github.com/sells-group/naac-validator/internal/registry"
	"github.com/sells-group/naac-validator/internal/scorer"
)

// Request is the input to a single validation.
type Request struct {
	CriterionCode string
	Record        model.Record
	Text          string
	// Advisory is a structured opinion; it is checked structurally and
	// takes precedence over AdvisoryRaw.
	Advisory *model.AdvisoryOpinion
	// AdvisoryRaw is unparsed advisory service output.
	AdvisoryRaw string
}

// Engine runs the matching, scoring and decision pipeline. It is safe for
// concurrent use.
type Engine struct {
	registry *registry.Registry
	rules    registry.RuleEvaluator
	scorer   *scorer.Scorer
	policy   decision.Policy
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used to stamp results.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithPolicy sets the decision thresholds.
func WithPolicy(p decision.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithScorer sets the confidence scorer.
func WithScorer(s *scorer.Scorer) Option {
	return func(e *Engine) { e.scorer = s }
}

// WithWindow sets the assessment period used by year rules.
func WithWindow(w registry.AssessmentWindow) Option {
	return func(e *Engine) { e.rules.Window = w }
}

// New creates an Engine over reg. Without WithWindow the assessment period
// is the five years ending with the current year.
func New(reg *registry.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: reg,
		rules:    registry.RuleEvaluator{Window: registry.NewAssessmentWindow(time.Now().Year(), 5)},
		scorer:   scorer.Default(),
		policy:   decision.DefaultPolicy(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the criterion registry the engine looks codes up in.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// Validate never panics and never returns nil. Inputs that cannot be scored
// yield a REJECT carrying an error code.
func (e *Engine) Validate(req Request) (res *model.ValidationResult) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("engine: recovered panic",
				zap.String("criterion", req.CriterionCode),
				zap.Any("panic", r),
			)
			res = e.reject(req.CriterionCode, "", model.ErrCodeInternal, fmt.Sprintf("internal error: %v", r))
		}
	}()

	def, err := e.registry.Lookup(req.CriterionCode)
	if err != nil {
		return e.reject(req.CriterionCode, "", model.ErrCodeCriterionNotFound,
			fmt.Sprintf("criterion %q is not registered", req.CriterionCode))
	}
	if strings.TrimSpace(req.Text) == "" {
		return e.reject(def.Code, def.Name, model.ErrCodeEmptyInput, "no text extracted from document")
	}
	if len(compare.ContentFields(req.Record)) == 0 {
		return e.reject(def.Code, def.Name, model.ErrCodeEmptyInput, "record has no content fields")
	}

	cov := compare.New(matcher.ForDefinition(def)).Compare(req.Record, req.Text)
	adv, warning := advisory.Normalize(req.Advisory, req.AdvisoryRaw, cov.ContentFields)
	violations := e.rules.Evaluate(def, req.Record)
	required := registry.RequiredFields(def, req.Record)
	confidence := e.scorer.Score(cov, adv, def.CriticalFields)
	verdict := e.policy.Decide(confidence, violations)

	warnings := []string{}
	if warning != "" {
		warnings = append(warnings, warning)
	}
	if violations == nil {
		violations = []model.RuleViolation{}
	}

	zap.L().Debug("engine: validated",
		zap.String("criterion", def.Code),
		zap.Int("found", len(cov.FoundFields)),
		zap.Int("content", len(cov.ContentFields)),
		zap.Float64("confidence", confidence),
		zap.String("decision", string(verdict)),
	)

	return &model.ValidationResult{
		CriterionCode:   def.Code,
		CriterionName:   def.Name,
		Decision:        verdict,
		ConfidenceScore: confidence,
		Coverage:        &cov,
		Advisory:        &adv,
		RequiredFields:  &required,
		RuleViolations:  violations,
		Warnings:        warnings,
		FallbackMode:    adv.Fallback,
		Timestamp:       e.now(),
	}
}

func (e *Engine) reject(code, name string, ec model.ErrorCode, msg string) *model.ValidationResult {
	return &model.ValidationResult{
		CriterionCode:  code,
		CriterionName:  name,
		Decision:       model.DecisionReject,
		RuleViolations: []model.RuleViolation{},
		Warnings:       []string{},
		Error:          &model.ResultError{Code: ec, Message: msg},
		Timestamp:      e.now(),
	}
}
