package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/naac-validator/internal/model"
)

func candidates() []model.Record {
	return []model.Record{
		grant(1, "Machine Learning in Healthcare", "Dr. Alice Smith", "DST", "4.75", "2019"),
		matchingGrant(),
		grant(3, "Advanced AI Research", "Dr. Priya Nair", "DBT", "9.99", "2023"),
		grant(4, "Machine Learning in Healthcare", "Dr. Alice Smith", "DST", "4.75", "2019"),
	}
}

func TestMatchDocument_RanksByConfidence(t *testing.T) {
	t.Parallel()

	recs := &mockRecords{}
	recs.On("ListRecords", mock.Anything, "response_3_1_1", 10).Return(candidates(), nil)
	ext := &mockExtractor{}
	ext.On("ExtractText", mock.Anything, "sanction.pdf").Return(matchingText, nil).Once()
	results := &fakeResults{}

	p := New(validationConfig(true), newEngine(), Deps{Records: recs, Results: results, Extractor: ext})
	outs, err := p.MatchDocument(context.Background(), "3.1.1", "sanction.pdf", 0)
	require.NoError(t, err)
	require.Len(t, outs, 4)

	ids := make([]string, len(outs))
	for i, o := range outs {
		ids[i] = o.RecordID
	}
	assert.Equal(t, []string{"2", "3", "1", "4"}, ids, "ties keep store order")
	assert.Equal(t, model.DecisionAccept, outs[0].Result.Decision)
	for i := 1; i < len(outs); i++ {
		assert.GreaterOrEqual(t, outs[i-1].Result.ConfidenceScore, outs[i].Result.ConfidenceScore)
	}
	assert.Len(t, results.saved, 4)
	ext.AssertExpectations(t)
}

func TestMatchDocument_ExplicitLimit(t *testing.T) {
	t.Parallel()

	recs := &mockRecords{}
	recs.On("ListRecords", mock.Anything, "response_3_1_1", 1).Return([]model.Record{matchingGrant()}, nil)
	ext := &mockExtractor{}
	ext.On("ExtractText", mock.Anything, "doc.txt").Return(matchingText, nil)

	p := New(validationConfig(false), newEngine(), Deps{Records: recs, Extractor: ext})
	outs, err := p.MatchDocument(context.Background(), "3.1.1", "doc.txt", 1)
	require.NoError(t, err)
	assert.Len(t, outs, 1)
}

func TestMatchDocument_Errors(t *testing.T) {
	t.Parallel()

	p := New(validationConfig(false), newEngine(), Deps{})
	_, err := p.MatchDocument(context.Background(), "9.9.9", "doc.txt", 0)
	assert.ErrorContains(t, err, "match 9.9.9")

	_, err = p.MatchDocument(context.Background(), "3.1.1", "doc.txt", 0)
	assert.ErrorContains(t, err, "no record store")

	recs := &mockRecords{}
	recs.On("ListRecords", mock.Anything, "response_3_1_1", 10).Return(nil, errors.New("connection refused"))
	p = New(validationConfig(false), newEngine(), Deps{Records: recs})
	_, err = p.MatchDocument(context.Background(), "3.1.1", "doc.txt", 0)
	assert.ErrorContains(t, err, "list candidates for 3.1.1")
}

func TestRankRecords_Empty(t *testing.T) {
	t.Parallel()

	p := New(validationConfig(false), newEngine(), Deps{})
	assert.Empty(t, p.RankRecords(context.Background(), "3.1.1", nil, matchingText, ""))
}

func TestRankRecords_FailuresBecomeOutcomes(t *testing.T) {
	t.Parallel()

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		code string
	}{
		{name: "unknown criterion", ctx: context.Background(), code: "9.9.9"},
		{name: "cancelled context", ctx: cancelled, code: "9.9.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := New(validationConfig(false), newEngine(), Deps{})
			outs := p.RankRecords(tt.ctx, tt.code, candidates(), matchingText, "doc.txt")
			require.Len(t, outs, 4)

			ids := make([]string, len(outs))
			for i, o := range outs {
				ids[i] = o.RecordID
				assert.Equal(t, model.DecisionReject, o.Result.Decision)
				assert.NotNil(t, o.Result.Error)
				assert.Equal(t, "doc.txt", o.Document)
			}
			assert.ElementsMatch(t, []string{"1", "2", "3", "4"}, ids)
		})
	}
}
