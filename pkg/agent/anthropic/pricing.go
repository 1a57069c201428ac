package anthropic

import (
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// ModelPricing is the USD price per token for each usage class.
type ModelPricing struct {
	Input              float64
	Output             float64
	PromptCachingWrite float64
	PromptCachingRead  float64
}

var (
	sonnetPricing = ModelPricing{
		Input:              0.000003,   // $3.00 per million tokens
		Output:             0.000015,   // $15.00 per million tokens
		PromptCachingWrite: 0.00000375, // $3.75 per million tokens
		PromptCachingRead:  0.0000003,  // $0.30 per million tokens
	}
	opusPricing = ModelPricing{
		Input:              0.000015,   // $15.00 per million tokens
		Output:             0.000075,   // $75.00 per million tokens
		PromptCachingWrite: 0.00001875, // $18.75 per million tokens
		PromptCachingRead:  0.0000015,  // $1.50 per million tokens
	}
	haikuPricing = ModelPricing{
		Input:              0.0000008,  // $0.80 per million tokens
		Output:             0.000004,   // $4.00 per million tokens
		PromptCachingWrite: 0.000001,   // $1.00 per million tokens
		PromptCachingRead:  0.00000008, // $0.08 per million tokens
	}
)

// ModelPricingMap maps known model ids to their pricing.
var ModelPricingMap = map[anthropic.Model]ModelPricing{
	anthropic.ModelClaudeSonnet4_0:         sonnetPricing,
	anthropic.ModelClaudeSonnet4_20250514:  sonnetPricing,
	anthropic.ModelClaude3_7Sonnet20250219: sonnetPricing,
	anthropic.ModelClaudeOpus4_0:           opusPricing,
	anthropic.ModelClaude4Opus20250514:     opusPricing,
	anthropic.ModelClaudeOpus4_1_20250805:  opusPricing,
	anthropic.ModelClaude3_5HaikuLatest:    haikuPricing,
}

// PricingFor returns the pricing of model, falling back to its
// family and then to Sonnet pricing.
func PricingFor(model anthropic.Model) ModelPricing {
	if p, ok := ModelPricingMap[model]; ok {
		return p
	}
	name := strings.ToLower(string(model))
	switch {
	case strings.Contains(name, "opus"):
		return opusPricing
	case strings.Contains(name, "haiku"):
		return haikuPricing
	default:
		return sonnetPricing
	}
}

// Cost prices one response's token usage.
func Cost(model anthropic.Model, usage anthropic.Usage) float64 {
	p := PricingFor(model)
	return float64(usage.InputTokens)*p.Input +
		float64(usage.OutputTokens)*p.Output +
		float64(usage.CacheCreationInputTokens)*p.PromptCachingWrite +
		float64(usage.CacheReadInputTokens)*p.PromptCachingRead
}
