// Package cost estimates what an oracle call cost from its token usage.
package cost

import "go.uber.org/zap"

// Usage is the token consumption of one oracle call.
type Usage struct {
	Input      int64
	Output     int64
	CacheWrite int64
	CacheRead  int64
}

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input         float64 `yaml:"input" mapstructure:"input"`
	Output        float64 `yaml:"output" mapstructure:"output"`
	CacheWriteMul float64 `yaml:"cache_write_mul" mapstructure:"cache_write_mul"`
	CacheReadMul  float64 `yaml:"cache_read_mul" mapstructure:"cache_read_mul"`
}

// Rates maps a model ID to its pricing, whichever provider serves it.
type Rates map[string]ModelRate

// Calculator computes costs for oracle usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Estimate returns the cost in USD of u against model. Unknown models cost 0.
func (c *Calculator) Estimate(model string, u Usage) float64 {
	rate, ok := c.rates[model]
	if !ok {
		return 0
	}
	inCost := (float64(u.Input) / 1e6) * rate.Input
	outCost := (float64(u.Output) / 1e6) * rate.Output
	cwCost := (float64(u.CacheWrite) / 1e6) * rate.Input * rate.CacheWriteMul
	crCost := (float64(u.CacheRead) / 1e6) * rate.Input * rate.CacheReadMul
	return inCost + outCost + cwCost + crCost
}

// Log records usage and estimated cost for one document and returns the
// estimate.
func (c *Calculator) Log(model, document string, u Usage) float64 {
	usd := c.Estimate(model, u)
	zap.L().Info("cost attribution",
		zap.String("model", model),
		zap.String("document", document),
		zap.Int64("input_tokens", u.Input),
		zap.Int64("output_tokens", u.Output),
		zap.Int64("cache_write_tokens", u.CacheWrite),
		zap.Int64("cache_read_tokens", u.CacheRead),
		zap.Float64("estimated_cost_usd", usd),
	)
	return usd
}

// DefaultRates returns list prices for the models the oracles default to.
func DefaultRates() Rates {
	claude := func(in, out float64) ModelRate {
		return ModelRate{Input: in, Output: out, CacheWriteMul: 1.25, CacheReadMul: 0.1}
	}
	openai := func(in, out float64) ModelRate {
		return ModelRate{Input: in, Output: out, CacheReadMul: 0.5}
	}
	return Rates{
		"claude-haiku-4-5-20251001":  claude(0.80, 4.00),
		"claude-sonnet-4-5-20250929": claude(3.00, 15.00),
		"claude-opus-4-6":            claude(15.00, 75.00),
		"gpt-4-turbo-preview":        {Input: 10.00, Output: 30.00},
		"gpt-4o":                     openai(2.50, 10.00),
		"gpt-4o-mini":                openai(0.15, 0.60),
	}
}
