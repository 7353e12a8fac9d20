package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/naac-validator/internal/advisory"
	"github.com/sells-group/naac-validator/internal/cache"
	"github.com/sells-group/naac-validator/internal/config"
	"github.com/sells-group/naac-validator/internal/decision"
	"github.com/sells-group/naac-validator/internal/engine"
	"github.com/sells-group/naac-validator/internal/metrics"
	"github.com/sells-group/naac-validator/internal/ocr"
	"github.com/sells-group/naac-validator/internal/pipeline"
	"github.com/sells-group/naac-validator/internal/registry"
	"github.com/sells-group/naac-validator/internal/resilience"
	"github.com/sells-group/naac-validator/internal/store"
	anthropicpkg "github.com/sells-group/naac-validator/pkg/anthropic"
)

// appEnv holds the initialized collaborators needed by the validate and
// match commands.
type appEnv struct {
	Store    store.Store // nil when no record store is needed
	Cache    cache.Cache // nil when advisory is disabled
	Metrics  *metrics.Metrics
	Pipeline *pipeline.Pipeline
}

// Close flushes metrics and releases resources held by the environment.
func (env *appEnv) Close() {
	if err := env.Metrics.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
		zap.L().Warn("metrics textfile not written", zap.Error(err))
	}
	if env.Cache != nil {
		_ = env.Cache.Close()
	}
	if env.Store != nil {
		_ = env.Store.Close()
	}
}

// initEnv builds the pipeline. withStore opens the record store; callers
// should defer env.Close().
func initEnv(ctx context.Context, withStore bool) (*appEnv, error) {
	mode := config.ModeValidate
	if withStore {
		mode = config.ModeStore
	}
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	eng, err := buildEngine(cfg, time.Now())
	if err != nil {
		return nil, err
	}

	env := &appEnv{Metrics: metrics.New()}
	if withStore {
		st, err := openStore(ctx)
		if err != nil {
			return nil, err
		}
		env.Store = st
	}

	extractor, err := ocr.NewExtractor(cfg.OCR, cfg.OCR.MistralKey)
	if err != nil {
		env.Close()
		return nil, err
	}

	adv, c, err := initAdvisor(ctx)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Cache = c

	deps := pipeline.Deps{Extractor: extractor, Advisor: adv, Metrics: env.Metrics}
	if env.Store != nil {
		deps.Records = env.Store
		deps.Results = env.Store
	}
	env.Pipeline = pipeline.New(cfg.Validation, eng, deps)
	return env, nil
}

// buildRegistry returns the built-in catalogue extended by the configured
// criteria file.
func buildRegistry(c *config.Config) (*registry.Registry, error) {
	reg := registry.NewDefault()
	if c.Validation.CriteriaFile == "" {
		return reg, nil
	}
	n, err := reg.RegisterFile(c.Validation.CriteriaFile)
	if err != nil {
		return nil, eris.Wrap(err, "load criteria file")
	}
	zap.L().Info("registered criteria from file",
		zap.String("path", c.Validation.CriteriaFile),
		zap.Int("count", n),
	)
	return reg, nil
}

// buildEngine constructs the registry and engine from configuration.
func buildEngine(c *config.Config, now time.Time) (*engine.Engine, error) {
	reg, err := buildRegistry(c)
	if err != nil {
		return nil, err
	}

	policy, err := buildPolicy(c.Validation)
	if err != nil {
		return nil, err
	}

	window := registry.NewAssessmentWindow(c.Validation.EndYear(now), c.Validation.AssessmentYears)
	return engine.New(reg, engine.WithPolicy(policy), engine.WithWindow(window)), nil
}

// openStore opens and migrates the configured store. Callers should defer
// Close.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// buildPolicy applies the configured thresholds; strict mode raises the
// accept threshold to the legacy value.
func buildPolicy(v config.ValidationConfig) (decision.Policy, error) {
	policy := decision.Policy{Accept: v.AcceptThreshold, Flag: v.FlagThreshold}
	if v.Strict {
		policy.Accept = decision.StrictAccept
	}
	if err := policy.Validate(); err != nil {
		return decision.Policy{}, err
	}
	return policy, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{MaxConns: cfg.Store.MaxConns})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initAdvisor returns the Disabled advisor unless advisory is enabled. The
// returned cache, if any, is owned by the caller.
func initAdvisor(ctx context.Context) (advisory.Advisor, cache.Cache, error) {
	if !cfg.Advisory.Enabled {
		zap.L().Debug("advisory disabled, results use the fallback opinion")
		return advisory.Disabled{}, nil, nil
	}

	c, err := initCache(ctx)
	if err != nil {
		return nil, nil, err
	}

	settings := resilience.Settings(cfg.Resilience)
	breakers := resilience.NewServiceBreakers(settings.BreakerConfig())

	adv := advisory.NewAnthropicAdvisor(
		anthropicpkg.NewClient(cfg.Anthropic.Key,
			anthropicpkg.WithTimeout(time.Duration(cfg.Anthropic.TimeoutSecs)*time.Second)),
		advisory.Config{
			Model:             cfg.Anthropic.Model,
			MaxTokens:         cfg.Anthropic.MaxTokens,
			MaxPromptChars:    cfg.Anthropic.MaxPromptChars,
			PromptCacheTTL:    cfg.Anthropic.PromptCacheTTL,
			CacheTTL:          time.Duration(cfg.Advisory.CacheTTLHours) * time.Hour,
			RequestsPerSecond: cfg.Advisory.RequestsPerSecond,
			Burst:             cfg.Advisory.Burst,
		},
		advisory.WithCache(c),
		advisory.WithBreaker(breakers.Get("anthropic")),
		advisory.WithRetry(settings.RetryConfig()),
	)
	return adv, c, nil
}

// initCache prefers Redis and falls back to an in-process cache when no
// Redis URL is configured.
func initCache(ctx context.Context) (cache.Cache, error) {
	r, err := cache.NewRedis(ctx, cache.RedisConfig{
		URL:          cfg.Redis.URL,
		PoolSize:     cfg.Redis.PoolSize,
		DialTimeout:  time.Duration(cfg.Redis.DialTimeoutSecs) * time.Second,
		ReadTimeout:  time.Duration(cfg.Redis.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Redis.WriteTimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	if r == nil {
		return cache.NewMemory(), nil
	}
	return r, nil
}
