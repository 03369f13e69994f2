package llm

import (
	"context"
	"fmt"

	"github.com/blendpipe/blendpipe/logger"
	"github.com/blendpipe/blendpipe/trace"
)

// NewClient constructs a provider client for one model tier and wraps it with
// the default transient-error retry policy.
func NewClient(ctx context.Context, cfg *LlmConfig, tracer trace.Tracer, l logger.Logger) (LlmClient, error) {
	var (
		client LlmClient
		err    error
	)
	switch cfg.Provider {
	case "gemini":
		client, err = NewGeminiClient(ctx, cfg, tracer, l)
	case "openai":
		client, err = NewOpenAIClient(cfg, tracer, l)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WithRetry(client, DefaultRetryPolicy(), l), nil
}
