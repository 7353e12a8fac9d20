package advisory

import (
	"context"
	"errors"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/naac-validator/internal/cache"
	"github.com/sells-group/naac-validator/internal/model"
	"github.com/sells-group/naac-validator/internal/registry"
	"github.com/sells-group/naac-validator/internal/resilience"
	"github.com/sells-group/naac-validator/pkg/anthropic"
)

// ErrDisabled is returned by advisors that are switched off.
var ErrDisabled = eris.New("advisory: disabled")

// Advisor asks an external service for an opinion on one record and document
// and returns its raw response text.
type Advisor interface {
	Assess(ctx context.Context, def registry.Definition, rec model.Record, text string) (string, error)
}

// Disabled is an Advisor that always returns ErrDisabled.
type Disabled struct{}

// Assess implements Advisor.
func (Disabled) Assess(context.Context, registry.Definition, model.Record, string) (string, error) {
	return "", ErrDisabled
}

// Config tunes the Anthropic advisor.
type Config struct {
	Model          string
	MaxTokens      int64
	MaxPromptChars int
	// PromptCacheTTL is the Anthropic prompt-cache TTL for the system block.
	PromptCacheTTL string
	// CacheTTL is how long raw responses stay in the response cache.
	CacheTTL          time.Duration
	RequestsPerSecond float64
	Burst             int
}

// DefaultConfig returns the advisor defaults.
func DefaultConfig() Config {
	return Config{
		Model:             "claude-haiku-4-5-20251001",
		MaxTokens:         1024,
		MaxPromptChars:    DefaultMaxPromptChars,
		PromptCacheTTL:    "5m",
		CacheTTL:          24 * time.Hour,
		RequestsPerSecond: 2,
		Burst:             2,
	}
}

// AnthropicAdvisor obtains opinions from the Anthropic Messages API.
type AnthropicAdvisor struct {
	client  anthropic.Client
	cfg     Config
	cache   cache.Cache
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
	limiter *AdaptiveLimiter
}

// Option configures an AnthropicAdvisor.
type Option func(*AnthropicAdvisor)

// WithCache stores raw responses in c.
func WithCache(c cache.Cache) Option {
	return func(a *AnthropicAdvisor) { a.cache = c }
}

// WithBreaker guards calls with cb.
func WithBreaker(cb *resilience.CircuitBreaker) Option {
	return func(a *AnthropicAdvisor) { a.breaker = cb }
}

// WithRetry overrides the retry policy.
func WithRetry(rc resilience.RetryConfig) Option {
	return func(a *AnthropicAdvisor) { a.retry = rc }
}

// NewAnthropicAdvisor creates an advisor. Zero config fields take their
// defaults.
func NewAnthropicAdvisor(client anthropic.Client, cfg Config, opts ...Option) *AnthropicAdvisor {
	def := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.MaxPromptChars <= 0 {
		cfg.MaxPromptChars = def.MaxPromptChars
	}
	if cfg.PromptCacheTTL == "" {
		cfg.PromptCacheTTL = def.PromptCacheTTL
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}

	a := &AnthropicAdvisor{
		client:  client,
		cfg:     cfg,
		breaker: resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig()),
		retry:   resilience.DefaultRetryConfig(),
		limiter: NewAdaptiveLimiter(cfg.RequestsPerSecond, cfg.Burst),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.retry.OnRetry == nil {
		a.retry.OnRetry = resilience.RetryLogger("anthropic", "create_message")
	}
	return a
}

// Assess implements Advisor. The raw response is returned unparsed; callers
// hand it to Normalize.
func (a *AnthropicAdvisor) Assess(ctx context.Context, def registry.Definition, rec model.Record, text string) (string, error) {
	prompt, err := BuildPrompt(def, rec, text, a.cfg.MaxPromptChars)
	if err != nil {
		return "", err
	}

	key := cache.Key(a.cfg.Model, def.Code, prompt)
	if a.cache != nil {
		if hit, err := a.cache.Get(ctx, key); err == nil {
			zap.L().Debug("advisory: cache hit", zap.String("criterion", def.Code))
			return hit, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			zap.L().Warn("advisory: cache get failed", zap.Error(err))
		}
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "advisory: rate limit wait")
	}

	temp := 0.0
	req := anthropic.MessageRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		System:      anthropic.BuildCachedSystemBlocks(systemPrompt, a.cfg.PromptCacheTTL),
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
		Prefill:     "{",
	}

	resp, err := resilience.ExecuteVal(ctx, a.breaker, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return resilience.DoVal(ctx, a.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
			return a.call(ctx, req)
		})
	})
	if err != nil {
		return "", eris.Wrapf(err, "advisory: assess %s", def.Code)
	}

	resp.Usage.LogCost(a.cfg.Model, def.Code)
	if resp.Truncated() {
		zap.L().Warn("advisory: response hit max tokens",
			zap.String("criterion", def.Code),
			zap.Int64("max_tokens", a.cfg.MaxTokens),
		)
	}
	raw := strings.TrimSpace(resp.Text())
	if raw == "" {
		return "", eris.Errorf("advisory: empty response for %s", def.Code)
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, key, raw, a.cfg.CacheTTL); err != nil {
			zap.L().Warn("advisory: cache set failed", zap.Error(err))
		}
	}
	return raw, nil
}

func (a *AnthropicAdvisor) call(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	resp, err := a.client.CreateMessage(ctx, req)
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			if apiErr.StatusCode == 429 {
				a.limiter.OnRateLimit()
			}
			if resilience.IsTransientHTTPStatus(apiErr.StatusCode) {
				return nil, resilience.NewTransientError(err, apiErr.StatusCode)
			}
		}
		return nil, err
	}
	a.limiter.OnSuccess()
	return resp, nil
}
