package llm

import (
	"context"
	"errors"
)

const (
	ResponseText = "text"
	ResponseJSON = "json_object"
)

// LlmConfig configures a single provider client bound to one model tier.
type LlmConfig struct {
	Provider  string
	APIKey    string
	ModelName string
}

// LlmClient is the minimal completion surface the pipeline needs. One client
// is constructed per pipeline role (planner, codegen, validator), each bound
// to its own model name.
type LlmClient interface {
	GetCompletion(ctx context.Context, prompt, responseType string) (string, error)
	ModelName() string
}

// Provider failure classes. Rate limits and server errors are transient and
// worth retrying; auth failures are not.
var (
	ErrUnauthorized = errors.New("unauthorized: invalid API key")
	ErrRateLimited  = errors.New("rate limited by provider")
	ErrServer       = errors.New("provider server error")
)

// IsRetryable reports whether a provider error is transient.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrServer)
}
