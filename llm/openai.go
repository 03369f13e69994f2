package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/blendpipe/blendpipe/logger"
	"github.com/blendpipe/blendpipe/trace"
)

// OpenAIClient talks to the OpenAI chat completion API.
type OpenAIClient struct {
	openAIClient *openai.Client
	config       *LlmConfig
	tracer       trace.Tracer
	logger       logger.Logger
}

// NewOpenAIClient creates a new OpenAI-backed LLM client.
func NewOpenAIClient(cfg *LlmConfig, tracer trace.Tracer, logger logger.Logger) (LlmClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if tracer == nil {
		tracer = trace.NewNoopTracer()
	}
	return &OpenAIClient{
		openAIClient: openai.NewClient(cfg.APIKey),
		config:       cfg,
		tracer:       tracer,
		logger:       logger,
	}, nil
}

func (c *OpenAIClient) ModelName() string {
	return c.config.ModelName
}

// GetCompletion sends a request to the OpenAI API and returns the generated text.
func (c *OpenAIClient) GetCompletion(ctx context.Context, prompt, responseType string) (string, error) {
	resp, err := c.openAIClient.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.config.ModelName,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: getSystemPrompt(),
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatType(responseType)},
		},
	)

	e := &openai.APIError{}
	if errors.As(err, &e) {
		switch e.HTTPStatusCode {
		case 401:
			return "", ErrUnauthorized
		case 429:
			// rate limiting or engine overload (wait and retry)
			return "", fmt.Errorf("%w: %s", ErrRateLimited, e.Message)
		case 500, 502, 503:
			return "", fmt.Errorf("%w: %s", ErrServer, e.Message)
		default:
			return "", fmt.Errorf("OpenAI API error: %v", e)
		}
	}
	if err != nil {
		return "", fmt.Errorf("OpenAI request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from OpenAI")
	}
	res := resp.Choices[0].Message.Content

	usage := resp.Usage
	gen := trace.Generation{
		Name:             "openai.completion",
		Model:            c.config.ModelName,
		Input:            prompt,
		Output:           res,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
	}
	if err := c.tracer.LogGeneration(ctx, gen); err != nil {
		c.logger.WithField("warning", err).Warn("failed to log generation trace")
	}

	return res, nil
}
