package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/naac-validator/internal/advisory"
	"github.com/sells-group/naac-validator/internal/cache"
	"github.com/sells-group/naac-validator/internal/config"
	"github.com/sells-group/naac-validator/internal/decision"
	"github.com/sells-group/naac-validator/internal/engine"
	"github.com/sells-group/naac-validator/internal/model"
	"github.com/sells-group/naac-validator/internal/registry"
)

func testConfig() *config.Config {
	return &config.Config{
		Store: config.StoreConfig{Driver: "sqlite"},
		OCR:   config.OCRConfig{Provider: "local", PdfToTextPath: "pdftotext"},
		Validation: config.ValidationConfig{
			AcceptThreshold: 0.6,
			FlagThreshold:   0.4,
			AssessmentYears: 5,
			Concurrency:     2,
			CandidateLimit:  10,
		},
		Log: config.LogConfig{Level: "info", Format: "json"},
	}
}

func TestBuildPolicy(t *testing.T) {
	v := testConfig().Validation

	p, err := buildPolicy(v)
	require.NoError(t, err)
	assert.Equal(t, decision.DefaultPolicy(), p)

	v.Strict = true
	p, err = buildPolicy(v)
	require.NoError(t, err)
	assert.Equal(t, decision.StrictPolicy(), p)

	v.Strict = false
	v.FlagThreshold = 0.9
	_, err = buildPolicy(v)
	assert.Error(t, err)
}

func TestBuildRegistry_CriteriaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "criteria.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
criteria:
  - code: "7.1.1"
    name: Gender equity programmes
    required_fields: [title_of_programme, year]
    critical_fields: [title_of_programme]
    rules:
      year: withinAssessmentPeriod
`), 0o600))

	c := testConfig()
	c.Validation.CriteriaFile = path
	reg, err := buildRegistry(c)
	require.NoError(t, err)

	def, err := reg.Lookup("7.1.1")
	require.NoError(t, err)
	assert.Equal(t, "response_7_1_1", def.Table)
	_, err = reg.Lookup("3.1.1")
	assert.NoError(t, err, "built-in criteria stay registered")

	c.Validation.CriteriaFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = buildRegistry(c)
	assert.ErrorContains(t, err, "load criteria file")
}

func TestBuildEngine_AssessmentWindow(t *testing.T) {
	c := testConfig()
	c.Validation.AssessmentEndYear = 2020

	eng, err := buildEngine(c, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	rec := model.NewRecord(
		model.Field{Name: "name_of_project", Value: model.Text("Advanced AI Research")},
		model.Field{Name: "year_of_award", Value: model.Text("2024")},
	)
	res := eng.Validate(engine.Request{CriterionCode: "3.1.1", Record: rec, Text: "Advanced AI Research 2024"})
	var yearViolation *model.RuleViolation
	for i, v := range res.RuleViolations {
		if v.Field == "year_of_award" {
			yearViolation = &res.RuleViolations[i]
		}
	}
	require.NotNil(t, yearViolation, "2024 lies outside 2015-2020")
	assert.Equal(t, model.SeverityError, yearViolation.Severity)
}

func TestInitAdvisor_Disabled(t *testing.T) {
	cfg = testConfig()

	adv, c, err := initAdvisor(context.Background())
	require.NoError(t, err)
	assert.Nil(t, c)
	_, err = adv.Assess(context.Background(), registry.Definition{Code: "3.1.1"}, model.Record{}, "text")
	assert.ErrorIs(t, err, advisory.ErrDisabled)
}

func TestInitCache_MemoryWithoutRedis(t *testing.T) {
	cfg = testConfig()

	c, err := initCache(context.Background())
	require.NoError(t, err)
	_, ok := c.(*cache.Memory)
	assert.True(t, ok)
}

func TestInitEnv_ValidateMode(t *testing.T) {
	cfg = testConfig()

	env, err := initEnv(context.Background(), false)
	require.NoError(t, err)
	defer env.Close()
	assert.Nil(t, env.Store)
	assert.NotNil(t, env.Pipeline)
}

func TestInitEnv_SQLiteStore(t *testing.T) {
	cfg = testConfig()
	cfg.Store.DatabaseURL = filepath.Join(t.TempDir(), "naac.db")
	cfg.Metrics.TextfilePath = filepath.Join(t.TempDir(), "naac.prom")

	env, err := initEnv(context.Background(), true)
	require.NoError(t, err)
	require.NotNil(t, env.Store)
	env.Close()

	_, err = os.Stat(cfg.Metrics.TextfilePath)
	assert.NoError(t, err, "metrics textfile written on close")
}

func TestInitEnv_InvalidConfig(t *testing.T) {
	cfg = testConfig()

	_, err := initEnv(context.Background(), true)
	assert.ErrorContains(t, err, "store.database_url is required")
}
