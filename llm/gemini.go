package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/blendpipe/blendpipe/logger"
	"github.com/blendpipe/blendpipe/trace"
)

const geminiTemperature = 0.1

// GeminiClient talks to the Gemini API through the google genai SDK.
type GeminiClient struct {
	client *genai.Client
	config *LlmConfig
	tracer trace.Tracer
	logger logger.Logger
}

// NewGeminiClient creates a new Gemini-backed LLM client.
func NewGeminiClient(ctx context.Context, cfg *LlmConfig, tracer trace.Tracer, logger logger.Logger) (LlmClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("Google API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if tracer == nil {
		tracer = trace.NewNoopTracer()
	}
	return &GeminiClient{
		client: client,
		config: cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

func (c *GeminiClient) ModelName() string {
	return c.config.ModelName
}

// GetCompletion sends a request to the Gemini API and returns the generated text.
func (c *GeminiClient) GetCompletion(ctx context.Context, prompt, responseType string) (string, error) {
	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: getSystemPrompt()}},
		},
		Temperature: genai.Ptr[float32](geminiTemperature),
	}
	if responseType == ResponseJSON {
		genCfg.ResponseMIMEType = "application/json"
	}

	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}

	result, err := c.client.Models.GenerateContent(ctx, c.config.ModelName, contents, genCfg)
	if err != nil {
		return "", mapGeminiError(err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}
	res := result.Candidates[0].Content.Parts[0].Text
	if res == "" {
		return "", fmt.Errorf("Gemini response did not include any output text")
	}

	gen := trace.Generation{
		Name:   "gemini.completion",
		Model:  c.config.ModelName,
		Input:  prompt,
		Output: res,
	}
	if result.UsageMetadata != nil {
		gen.PromptTokens = int(result.UsageMetadata.PromptTokenCount)
		gen.CompletionTokens = int(result.UsageMetadata.CandidatesTokenCount)
	}
	if err := c.tracer.LogGeneration(ctx, gen); err != nil {
		c.logger.WithField("warning", err).Warn("failed to log generation trace")
	}

	return res, nil
}

func mapGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 401 || apiErr.Code == 403:
			return ErrUnauthorized
		case apiErr.Code == 429:
			return fmt.Errorf("%w: %s", ErrRateLimited, apiErr.Message)
		case apiErr.Code >= 500:
			return fmt.Errorf("%w: %s", ErrServer, apiErr.Message)
		}
	}
	return fmt.Errorf("gemini request failed: %w", err)
}
