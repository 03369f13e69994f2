package llm

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/blendpipe/blendpipe/logger"
)

// RetryPolicy configures exponential backoff for transient provider errors.
// This is separate from the pipeline's validate/regenerate loop, which retries
// on model judgment rather than transport failure.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

// DefaultRetryPolicy returns the policy used for hosted model calls.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

type retryClient struct {
	inner  LlmClient
	policy *RetryPolicy
	logger logger.Logger
}

// WithRetry wraps a client so transient failures (rate limits, 5xx) are
// retried with exponential backoff. Non-retryable errors return immediately.
func WithRetry(inner LlmClient, policy *RetryPolicy, l logger.Logger) LlmClient {
	if policy == nil {
		policy = DefaultRetryPolicy()
	}
	if l == nil {
		l = logger.NewNullLogger()
	}
	return &retryClient{inner: inner, policy: policy, logger: l}
}

func (r *retryClient) ModelName() string {
	return r.inner.ModelName()
}

func (r *retryClient) GetCompletion(ctx context.Context, prompt, responseType string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		res, err := r.inner.GetCompletion(ctx, prompt, responseType)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt == r.policy.MaxAttempts {
			return "", err
		}

		delay := r.delay(attempt)
		r.logger.Warn(fmt.Sprintf("Provider call failed (attempt %d/%d), retrying in %v: %v",
			attempt, r.policy.MaxAttempts, delay, err))

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
	return "", lastErr
}

func (r *retryClient) delay(attempt int) time.Duration {
	d := float64(r.policy.InitialDelay) * math.Pow(r.policy.Multiplier, float64(attempt-1))
	if d > float64(r.policy.MaxDelay) {
		d = float64(r.policy.MaxDelay)
	}
	if r.policy.Jitter {
		// up to 25% random jitter to avoid synchronized retries
		d += d * 0.25 * rand.Float64()
	}
	return time.Duration(d)
}
