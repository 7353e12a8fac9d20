package anthropic

import "go.uber.org/zap"

// TokenUsage tracks token consumption for one call.
type TokenUsage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

// price is USD per million tokens.
type price struct {
	input  float64
	output float64
}

var modelPricing = map[string]price{
	"claude-haiku-4-5-20251001":  {input: 0.80, output: 4.00},
	"claude-sonnet-4-5-20250929": {input: 3.00, output: 15.00},
	"claude-opus-4-6":            {input: 15.00, output: 75.00},
}

// Cache writes cost 1.25x input, cache reads 0.1x.
const (
	cacheWriteFactor = 1.25
	cacheReadFactor  = 0.1
)

// EstimateCost returns the estimated USD cost of u under model, or 0 for
// models without a price.
func (u TokenUsage) EstimateCost(model string) float64 {
	p, ok := modelPricing[model]
	if !ok {
		return 0
	}
	perTok := func(n int64, rate float64) float64 { return float64(n) / 1e6 * rate }
	return perTok(u.InputTokens, p.input) +
		perTok(u.OutputTokens, p.output) +
		perTok(u.CacheCreationInputTokens, p.input*cacheWriteFactor) +
		perTok(u.CacheReadInputTokens, p.input*cacheReadFactor)
}

// LogCost logs usage and estimated cost attributed to a criterion.
func (u TokenUsage) LogCost(model, criterion string) {
	zap.L().Info("advisory cost attribution",
		zap.String("model", model),
		zap.String("criterion", criterion),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
		zap.Int64("cache_write_tokens", u.CacheCreationInputTokens),
		zap.Int64("cache_read_tokens", u.CacheReadInputTokens),
		zap.Float64("estimated_cost_usd", u.EstimateCost(model)),
	)
}
