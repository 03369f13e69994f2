package trace

import (
	"context"
	"os"
	"time"

	langfuse "github.com/henomis/langfuse-go"
	"github.com/henomis/langfuse-go/model"

	"github.com/blendpipe/blendpipe/logger"
)

// Generation is one model call worth recording: the prompt, the completion
// and the token counts the provider reported.
type Generation struct {
	Name             string
	Model            string
	Input            string
	Output           string
	PromptTokens     int
	CompletionTokens int
}

// Tracer records pipeline runs and their model calls. The Langfuse
// implementation ships them to a tracing backend; the noop implementation is
// used when tracing is disabled and in tests.
type Tracer interface {
	StartTrace(ctx context.Context, name string)
	LogGeneration(ctx context.Context, gen Generation) error
	Flush(ctx context.Context)
}

type NoopTracer struct{}

func NewNoopTracer() Tracer {
	return NoopTracer{}
}

func (NoopTracer) StartTrace(ctx context.Context, name string)             {}
func (NoopTracer) LogGeneration(ctx context.Context, gen Generation) error { return nil }
func (NoopTracer) Flush(ctx context.Context)                               {}

// LangfuseTracer records traces through the Langfuse SDK.
type LangfuseTracer struct {
	client  *langfuse.Langfuse
	traceID string
	logger  logger.Logger
}

// LangfuseConfig carries the tracing keys. The SDK itself reads the LANGFUSE_*
// environment variables, so explicit keys are exported before the client is
// created.
type LangfuseConfig struct {
	PublicKey string
	SecretKey string
	Host      string
}

// NewLangfuseTracer creates a tracer backed by Langfuse.
func NewLangfuseTracer(ctx context.Context, cfg LangfuseConfig, l logger.Logger) Tracer {
	if cfg.SecretKey == "" {
		l.Warn("Langfuse tracing requested but no secret key configured")
		return NewNoopTracer()
	}
	os.Setenv("LANGFUSE_PUBLIC_KEY", cfg.PublicKey)
	os.Setenv("LANGFUSE_SECRET_KEY", cfg.SecretKey)
	if cfg.Host != "" {
		os.Setenv("LANGFUSE_HOST", cfg.Host)
	}

	return &LangfuseTracer{
		client: langfuse.New(ctx),
		logger: l,
	}
}

// StartTrace opens a new trace; subsequent generations attach to it.
func (t *LangfuseTracer) StartTrace(ctx context.Context, name string) {
	tr, err := t.client.Trace(&model.Trace{Name: name})
	if err != nil {
		t.logger.WithField("warning", err).Warn("failed to create Langfuse trace")
		return
	}
	t.traceID = tr.ID
}

// LogGeneration records one model call under the current trace.
func (t *LangfuseTracer) LogGeneration(ctx context.Context, gen Generation) error {
	now := time.Now()
	g := &model.Generation{
		TraceID:   t.traceID,
		Name:      gen.Name,
		Model:     gen.Model,
		StartTime: &now,
		EndTime:   &now,
		Input:     gen.Input,
		Output:    gen.Output,
		Usage: model.Usage{
			Input:  gen.PromptTokens,
			Output: gen.CompletionTokens,
			Total:  gen.PromptTokens + gen.CompletionTokens,
			Unit:   model.ModelUsageUnitTokens,
		},
	}
	if _, err := t.client.Generation(g, nil); err != nil {
		return err
	}
	_, err := t.client.GenerationEnd(g)
	return err
}

// Flush blocks until queued events have been sent.
func (t *LangfuseTracer) Flush(ctx context.Context) {
	t.client.Flush(ctx)
}
