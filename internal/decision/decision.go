// Package decision maps a confidence score and rule outcomes to a verdict.
package decision

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/naac-validator/internal/model"
)

// Default thresholds. StrictAccept is the older acceptance bar some
// institutions still configure.
const (
	DefaultAccept = 0.6
	DefaultFlag   = 0.4
	StrictAccept  = 0.8
)

// Policy holds the decision thresholds. Scores at or above Accept are
// accepted, at or above Flag are flagged, and the rest rejected.
type Policy struct {
	Accept float64
	Flag   float64
}

// DefaultPolicy returns the standard thresholds.
func DefaultPolicy() Policy {
	return Policy{Accept: DefaultAccept, Flag: DefaultFlag}
}

// StrictPolicy returns the legacy thresholds.
func StrictPolicy() Policy {
	return Policy{Accept: StrictAccept, Flag: DefaultFlag}
}

// Validate checks 0 <= Flag <= Accept <= 1.
func (p Policy) Validate() error {
	if p.Flag < 0 || p.Accept > 1 || p.Flag > p.Accept {
		return eris.Errorf("decision: thresholds must satisfy 0 <= flag (%v) <= accept (%v) <= 1", p.Flag, p.Accept)
	}
	return nil
}

// Decide returns the decision for confidence. Any error-severity violation
// demotes ACCEPT to FLAG_FOR_REVIEW; warnings never change the outcome.
func (p Policy) Decide(confidence float64, violations []model.RuleViolation) model.Decision {
	var d model.Decision
	switch {
	case confidence >= p.Accept:
		d = model.DecisionAccept
	case confidence >= p.Flag:
		d = model.DecisionFlag
	default:
		return model.DecisionReject
	}

	if d == model.DecisionAccept && HasErrors(violations) {
		return model.DecisionFlag
	}
	return d
}

// HasErrors reports whether any violation has error severity.
func HasErrors(violations []model.RuleViolation) bool {
	for _, v := range violations {
		if v.Severity == model.SeverityError {
			return true
		}
	}
	return false
}
