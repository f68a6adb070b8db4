// Package llm defines the text-generation backend contract.
package llm

import "context"

// Provider is a pluggable text-generation backend. Implementations are
// shared across debates; concurrent calls must be safe.
type Provider interface {
	// Generate completes the prompt and returns raw model output, which may
	// echo the prompt itself.
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
	HealthCheck() error
}

// GenerationParams carries decoding parameters for one generation call.
type GenerationParams struct {
	MaxNewTokens       int
	Temperature        float64
	TopP               float64
	RepetitionPenalty  float64
	NoRepeatNGramSize  int
	NumReturnSequences int
	DoSample           bool
}

// DebateParams returns the fixed decoding parameters used for every
// debate turn.
func DebateParams() GenerationParams {
	return GenerationParams{
		MaxNewTokens:       150,
		Temperature:        0.7,
		TopP:               0.9,
		RepetitionPenalty:  1.2,
		NoRepeatNGramSize:  3,
		NumReturnSequences: 1,
		DoSample:           true,
	}
}
