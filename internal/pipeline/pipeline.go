// Package pipeline performs the I/O around a validation: record lookup,
// text extraction, the advisory call, persistence and bulk ranking. The
// scoring itself is delegated to the engine.
package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/naac-validator/internal/advisory"
	"github.com/sells-group/naac-validator/internal/compare"
	"github.com/sells-group/naac-validator/internal/config"
	"github.com/sells-group/naac-validator/internal/engine"
	"github.com/sells-group/naac-validator/internal/metrics"
	"github.com/sells-group/naac-validator/internal/model"
	"github.com/sells-group/naac-validator/internal/ocr"
	"github.com/sells-group/naac-validator/internal/store"
)

// Deps are the collaborators a Pipeline talks to. Records and Results may be
// nil when the caller supplies records directly and does not persist.
type Deps struct {
	Records   store.RecordStore
	Results   store.ResultStore
	Extractor ocr.Extractor
	Advisor   advisory.Advisor
	Metrics   *metrics.Metrics
}

// Pipeline validates documents end to end.
type Pipeline struct {
	cfg     config.ValidationConfig
	engine  *engine.Engine
	records store.RecordStore
	results store.ResultStore
	extract ocr.Extractor
	advisor advisory.Advisor
	metrics *metrics.Metrics
}

// New creates a Pipeline. A nil Advisor disables the advisory call.
func New(cfg config.ValidationConfig, eng *engine.Engine, deps Deps) *Pipeline {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = 10
	}
	adv := deps.Advisor
	if adv == nil {
		adv = advisory.Disabled{}
	}
	return &Pipeline{
		cfg:     cfg,
		engine:  eng,
		records: deps.Records,
		results: deps.Results,
		extract: deps.Extractor,
		advisor: adv,
		metrics: deps.Metrics,
	}
}

// Outcome is one validated record/document pair.
type Outcome struct {
	RecordID string                  `json:"record_id,omitempty"`
	Document string                  `json:"document,omitempty"`
	Record   model.Record            `json:"record"`
	Result   *model.ValidationResult `json:"result"`
}

// ExtractText returns the text of the document at path, or "" when
// extraction fails.
func (p *Pipeline) ExtractText(ctx context.Context, path string) string {
	if p.extract == nil {
		zap.L().Warn("pipeline: no extractor configured", zap.String("path", path))
		return ""
	}
	start := time.Now()
	text := ocr.ExtractOrEmpty(ctx, p.extract, path)
	p.metrics.ObserveExtractionLatency(fileType(path), time.Since(start))
	return text
}

// ValidateText validates text against rec without touching the record store.
func (p *Pipeline) ValidateText(ctx context.Context, code string, rec model.Record, text, document string) (*Outcome, error) {
	out := p.validate(ctx, code, rec, text, document)
	if err := p.persist(ctx, []Outcome{*out}); err != nil {
		return out, err
	}
	return out, nil
}

// ValidateRecord fetches record id for code, extracts the document at path
// and validates one against the other.
func (p *Pipeline) ValidateRecord(ctx context.Context, code, id, path string) (*Outcome, error) {
	def, err := p.engine.Registry().Lookup(code)
	if err != nil {
		// The engine turns unknown codes into a REJECT result.
		return p.ValidateText(ctx, code, model.Record{}, "", filepath.Base(path))
	}
	if p.records == nil {
		return nil, eris.New("pipeline: no record store configured")
	}

	rec, err := p.records.GetRecord(ctx, def.Table, id)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: fetch record %s for %s", id, code)
	}
	text := p.ExtractText(ctx, path)
	return p.ValidateText(ctx, code, rec, text, filepath.Base(path))
}

func (p *Pipeline) validate(ctx context.Context, code string, rec model.Record, text, document string) *Outcome {
	raw := p.assess(ctx, code, rec, text)
	res := p.engine.Validate(engine.Request{
		CriterionCode: code,
		Record:        rec,
		Text:          text,
		AdvisoryRaw:   raw,
	})
	p.metrics.ObserveResult(res)

	id := RecordID(rec)
	fields := []zap.Field{
		zap.String("criterion", res.CriterionCode),
		zap.String("record_id", id),
		zap.String("decision", string(res.Decision)),
		zap.Float64("confidence", res.ConfidenceScore),
		zap.Bool("fallback", res.FallbackMode),
	}
	if res.Error != nil {
		fields = append(fields, zap.String("error_code", string(res.Error.Code)), zap.String("reason", res.Error.Message))
	}
	zap.L().Info("pipeline: validated", fields...)

	return &Outcome{RecordID: id, Document: document, Record: rec, Result: res}
}

// assess asks the advisor for an opinion. Any failure yields "", which the
// engine scores with the fallback opinion.
func (p *Pipeline) assess(ctx context.Context, code string, rec model.Record, text string) string {
	def, err := p.engine.Registry().Lookup(code)
	if err != nil || strings.TrimSpace(text) == "" || len(compare.ContentFields(rec)) == 0 {
		return ""
	}

	start := time.Now()
	raw, err := p.advisor.Assess(ctx, def, rec, text)
	if err != nil {
		if !errors.Is(err, advisory.ErrDisabled) {
			p.metrics.ObserveAdvisoryLatency(time.Since(start))
			zap.L().Warn("pipeline: advisory unavailable",
				zap.String("criterion", code),
				zap.String("record_id", RecordID(rec)),
				zap.Error(err),
			)
		}
		return ""
	}
	p.metrics.ObserveAdvisoryLatency(time.Since(start))
	return raw
}

func (p *Pipeline) persist(ctx context.Context, outs []Outcome) error {
	if !p.cfg.PersistResults || p.results == nil || len(outs) == 0 {
		return nil
	}
	stored := make([]store.StoredResult, 0, len(outs))
	for _, o := range outs {
		stored = append(stored, store.NewStoredResult(o.RecordID, o.Document, o.Result))
	}
	if err := p.results.SaveResults(ctx, stored); err != nil {
		return eris.Wrap(err, "pipeline: persist results")
	}
	return nil
}

// RecordID identifies rec by its sl_no, falling back to id.
func RecordID(rec model.Record) string {
	for _, k := range []string{"sl_no", "id"} {
		if v, ok := rec.Get(k); ok && !v.IsBlank() {
			return v.String()
		}
	}
	return ""
}

func fileType(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "unknown"
	}
	return ext
}
