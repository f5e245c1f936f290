package llm

import "context"

type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// AnswerGenerator defines the standard interface for any LLM backend.
// One synchronous call, plain text out; the pipeline owns the prompts.
type AnswerGenerator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, params GenerationParams) (string, error)
}
