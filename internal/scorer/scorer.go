// Package scorer blends field coverage and the advisory opinion into one
// confidence value.
package scorer

import (
	"math"
	"slices"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/naac-validator/internal/model"
)

// Floor lifts the score to Min once at least Matches critical fields are found.
type Floor struct {
	Matches int
	Min     float64
}

// Config holds the scoring weights.
type Config struct {
	FieldWeight    float64
	CriticalWeight float64
	CoverageBoost  float64
	// AdvisoryWeight scales the advisory confidence around 0.5.
	AdvisoryWeight float64
	// Floors are checked in order; the first satisfied one applies.
	Floors []Floor
}

// DefaultConfig returns the canonical weights.
func DefaultConfig() Config {
	return Config{
		FieldWeight:    0.4,
		CriticalWeight: 0.6,
		CoverageBoost:  0.2,
		AdvisoryWeight: 0.1,
		Floors: []Floor{
			{Matches: 4, Min: 0.75},
			{Matches: 3, Min: 0.65},
		},
	}
}

// Validate checks that weights are sane.
func (c Config) Validate() error {
	var errs []string
	for name, w := range map[string]float64{
		"field_weight":    c.FieldWeight,
		"critical_weight": c.CriticalWeight,
		"coverage_boost":  c.CoverageBoost,
		"advisory_weight": c.AdvisoryWeight,
	} {
		if w < 0 || math.IsNaN(w) {
			errs = append(errs, name+" must be non-negative")
		}
	}
	if math.Abs(c.FieldWeight+c.CriticalWeight-1) > 1e-9 {
		errs = append(errs, "field_weight + critical_weight must equal 1")
	}
	for i, f := range c.Floors {
		if f.Matches <= 0 || f.Min < 0 || f.Min > 1 {
			errs = append(errs, "floor has invalid matches or min")
		}
		if i > 0 && f.Matches >= c.Floors[i-1].Matches {
			errs = append(errs, "floors must be ordered by descending matches")
		}
	}
	if len(errs) > 0 {
		slices.Sort(errs)
		return eris.Errorf("scorer: invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Breakdown records each term of a score for auditing.
type Breakdown struct {
	FieldRatio      float64 `json:"field_ratio"`
	CriticalRatio   float64 `json:"critical_ratio"`
	CriticalMatches int     `json:"critical_matches"`
	Base            float64 `json:"base"`
	CoverageBoost   float64 `json:"coverage_boost"`
	AdvisoryAdjust  float64 `json:"advisory_adjustment"`
	FloorApplied    float64 `json:"floor_applied,omitempty"`
	Final           float64 `json:"final"`
}

// Scorer computes confidence scores.
type Scorer struct {
	cfg Config
}

// New validates cfg and returns a Scorer.
func New(cfg Config) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg}, nil
}

// Default returns a Scorer with DefaultConfig.
func Default() *Scorer {
	return &Scorer{cfg: DefaultConfig()}
}

// Score returns the confidence in [0,1].
func (s *Scorer) Score(cov model.CoverageReport, adv model.AdvisoryOpinion, critical []string) float64 {
	return s.Explain(cov, adv, critical).Final
}

// Explain computes the score and returns every intermediate term.
func (s *Scorer) Explain(cov model.CoverageReport, adv model.AdvisoryOpinion, critical []string) Breakdown {
	var b Breakdown

	if n := len(cov.ContentFields); n > 0 {
		b.FieldRatio = float64(len(cov.FoundFields)) / float64(n)
	}

	b.CriticalRatio = 1
	if len(critical) > 0 {
		for _, f := range critical {
			if slices.Contains(cov.FoundFields, f) {
				b.CriticalMatches++
			}
		}
		b.CriticalRatio = float64(b.CriticalMatches) / float64(len(critical))
	}

	b.Base = s.cfg.FieldWeight*b.FieldRatio + s.cfg.CriticalWeight*b.CriticalRatio
	b.CoverageBoost = s.cfg.CoverageBoost * cov.CoverageRatio
	b.AdvisoryAdjust = s.cfg.AdvisoryWeight * (adv.Confidence - 0.5)

	raw := b.Base + b.CoverageBoost + b.AdvisoryAdjust
	for _, f := range s.cfg.Floors {
		if b.CriticalMatches >= f.Matches {
			if raw < f.Min {
				raw = f.Min
				b.FloorApplied = f.Min
			}
			break
		}
	}

	b.Final = math.Max(0, math.Min(1, raw))
	return b
}
