package model

import "time"

// MatchKind identifies which matching strategy located a field value in the
// document text.
type MatchKind string

// Match kinds, in the order the matcher tries them.
const (
	MatchExact            MatchKind = "exact"
	MatchNormalizedAmount MatchKind = "normalizedAmount"
	MatchNameFragment     MatchKind = "nameFragment"
	MatchAbbreviation     MatchKind = "abbreviation"
	MatchClassification   MatchKind = "classification"
	MatchPartialWords     MatchKind = "partialWords"
	MatchNone             MatchKind = "none"
)

// FieldMatchOutcome is the result of looking for one expected value in the text.
type FieldMatchOutcome struct {
	FieldName string    `json:"field_name"`
	Expected  string    `json:"expected"`
	Found     bool      `json:"found"`
	Kind      MatchKind `json:"match_kind"`
	Note      string    `json:"note,omitempty"`
}

// CoverageReport summarises how many content fields of a record were found in
// the document. FoundFields and MissingFields partition ContentFields.
type CoverageReport struct {
	ContentFields []string                     `json:"content_fields"`
	FoundFields   []string                     `json:"found_fields"`
	MissingFields []string                     `json:"missing_fields"`
	PerField      map[string]FieldMatchOutcome `json:"per_field"`
	CoverageRatio float64                      `json:"coverage_ratio"`
}

// Decision is the final accreditation verdict for a document.
type Decision string

// Decisions.
const (
	DecisionAccept Decision = "ACCEPT"
	DecisionFlag   Decision = "FLAG_FOR_REVIEW"
	DecisionReject Decision = "REJECT"
)

// FieldAssessment is the advisory service's view of a single field.
type FieldAssessment struct {
	Found      bool    `json:"found"`
	Similarity float64 `json:"similarity"`
	Notes      string  `json:"notes,omitempty"`
}

// AdvisoryOpinion is the normalised opinion of the external advisory service.
type AdvisoryOpinion struct {
	Confidence          float64                    `json:"confidence"`
	FieldAssessments    map[string]FieldAssessment `json:"field_assessments"`
	Concerns            []string                   `json:"concerns"`
	Strengths           []string                   `json:"strengths"`
	OverallAssessment   string                     `json:"overall_assessment,omitempty"`
	RecommendedDecision Decision                   `json:"recommended_decision"`
	Fallback            bool                       `json:"fallback"`
}

// Severity grades a rule violation.
type Severity string

// Severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// RuleViolation is a failed hard rule on a record field.
type RuleViolation struct {
	Field    string   `json:"field"`
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// RequiredFieldReport lists which required fields the record carries.
type RequiredFieldReport struct {
	Present           []string `json:"present"`
	Missing           []string `json:"missing"`
	CompletionPercent float64  `json:"completion_percent"`
}

// ErrorCode classifies a validation that could not be scored.
type ErrorCode string

// Error codes.
const (
	ErrCodeCriterionNotFound ErrorCode = "CriterionNotFound"
	ErrCodeEmptyInput        ErrorCode = "EmptyInput"
	ErrCodeInternal          ErrorCode = "InternalError"
)

// ResultError is attached to results that short-circuited to REJECT.
type ResultError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ValidationResult is the full outcome of validating one document against
// one record.
type ValidationResult struct {
	CriterionCode   string               `json:"criterion_code"`
	CriterionName   string               `json:"criterion_name,omitempty"`
	Decision        Decision             `json:"decision"`
	ConfidenceScore float64              `json:"confidence_score"`
	Coverage        *CoverageReport      `json:"coverage,omitempty"`
	Advisory        *AdvisoryOpinion     `json:"advisory,omitempty"`
	RequiredFields  *RequiredFieldReport `json:"required_fields,omitempty"`
	RuleViolations  []RuleViolation      `json:"rule_violations"`
	Warnings        []string             `json:"warnings"`
	FallbackMode    bool                 `json:"fallback_mode"`
	Error           *ResultError         `json:"error,omitempty"`
	Timestamp       time.Time            `json:"timestamp"`
}

// HasError reports whether any violation has error severity.
func (r *ValidationResult) HasError() bool {
	for _, v := range r.RuleViolations {
		if v.Severity == SeverityError {
			return true
		}
	}
	return false
}
