package llm

import (
	"context"
)

type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// StreamingLLMClient is implemented by providers that can forward partial
// output token-by-token. onDelta is called for each text increment; the full
// response is returned once the stream ends.
type StreamingLLMClient interface {
	GenerateStream(ctx context.Context, prompt string, onDelta func(delta string)) (string, error)
}

type EmbedderClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
