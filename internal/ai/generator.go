package ai

import "context"

// Params control a single generation call.
type Params struct {
	MaxTokens   int32
	Temperature float32
}

// Generator produces a completion for a single prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, params Params) (string, error)
}
