package pipeline

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/naac-validator/internal/model"
)

// MatchDocument extracts the document at path once and validates it against
// the most recent records for code, up to limit (the configured candidate
// limit when limit <= 0). Outcomes are ordered by confidence, highest first;
// ties keep the store's order.
func (p *Pipeline) MatchDocument(ctx context.Context, code, path string, limit int) ([]Outcome, error) {
	def, err := p.engine.Registry().Lookup(code)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: match %s", code)
	}
	if p.records == nil {
		return nil, eris.New("pipeline: no record store configured")
	}
	if limit <= 0 {
		limit = p.cfg.CandidateLimit
	}

	recs, err := p.records.ListRecords(ctx, def.Table, limit)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: list candidates for %s", code)
	}
	text := p.ExtractText(ctx, path)
	outs := p.RankRecords(ctx, code, recs, text, filepath.Base(path))

	if err := p.persist(ctx, outs); err != nil {
		return outs, err
	}
	return outs, nil
}

// RankRecords validates text against every record concurrently and sorts the
// outcomes by confidence, highest first.
func (p *Pipeline) RankRecords(ctx context.Context, code string, recs []model.Record, text, document string) []Outcome {
	outs := make([]Outcome, len(recs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)
	for i, rec := range recs {
		g.Go(func() error {
			outs[i] = *p.validate(gCtx, code, rec, text, document)
			return nil
		})
	}
	// validate never fails; errors become REJECT results.
	_ = g.Wait()

	sort.SliceStable(outs, func(a, b int) bool {
		return outs[a].Result.ConfidenceScore > outs[b].Result.ConfidenceScore
	})

	if len(outs) > 0 {
		zap.L().Info("pipeline: ranked candidates",
			zap.String("criterion", code),
			zap.Int("candidates", len(outs)),
			zap.String("best_record_id", outs[0].RecordID),
			zap.Float64("best_confidence", outs[0].Result.ConfidenceScore),
		)
	}
	return outs
}
