package pipeline

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/naac-validator/internal/model"
	"github.com/sells-group/naac-validator/internal/registry"
	"github.com/sells-group/naac-validator/internal/store"
)

// --- Extractor Mock ---

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	args := m.Called(ctx, path)
	return args.String(0), args.Error(1)
}

// --- Advisor Mock ---

type mockAdvisor struct {
	mock.Mock
}

func (m *mockAdvisor) Assess(ctx context.Context, def registry.Definition, rec model.Record, text string) (string, error) {
	args := m.Called(ctx, def.Code, text)
	return args.String(0), args.Error(1)
}

// --- Record Store Mock ---

type mockRecords struct {
	mock.Mock
}

func (m *mockRecords) GetRecord(ctx context.Context, table, id string) (model.Record, error) {
	args := m.Called(ctx, table, id)
	return args.Get(0).(model.Record), args.Error(1)
}

func (m *mockRecords) ListRecords(ctx context.Context, table string, limit int) ([]model.Record, error) {
	args := m.Called(ctx, table, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Record), args.Error(1)
}

func (m *mockRecords) SearchRecords(ctx context.Context, table string, filters map[string]string, allowed []string) ([]model.Record, error) {
	args := m.Called(ctx, table, filters, allowed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Record), args.Error(1)
}

func (m *mockRecords) TableCounts(ctx context.Context, tables []string) (map[string]int64, error) {
	args := m.Called(ctx, tables)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

// --- Result Store Fake ---

type fakeResults struct {
	mu    sync.Mutex
	saved []store.StoredResult
	err   error
}

func (f *fakeResults) SaveResults(_ context.Context, results []store.StoredResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, results...)
	return nil
}

func (f *fakeResults) ListResults(context.Context, store.ResultFilter) ([]store.StoredResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saved, nil
}
