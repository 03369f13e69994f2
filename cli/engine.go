package cli

import (
	"context"
	"sync"
	"time"

	"github.com/blendpipe/blendpipe/agent"
	"github.com/blendpipe/blendpipe/blender"
	"github.com/blendpipe/blendpipe/config"
	"github.com/blendpipe/blendpipe/core"
	"github.com/blendpipe/blendpipe/fs"
	"github.com/blendpipe/blendpipe/llm"
	"github.com/blendpipe/blendpipe/logger"
	"github.com/blendpipe/blendpipe/trace"
)

// ExecutionResult is what a finished run hands back to the UI.
type ExecutionResult struct {
	Answer     string
	RenderPath string
	BundlePath string
	Err        error
}

type ExecutionRequest struct {
	Prompt     string
	ResultChan chan ExecutionResult
	CreatedAt  time.Time
}

// Engine owns the worker that runs generation requests. The TUI submits a
// prompt and awaits the result channel while step events stream through the
// publisher.
type Engine struct {
	cfg          *config.Config
	pub          core.StepPublisher
	logger       logger.Logger
	tracer       trace.Tracer
	requests     chan ExecutionRequest
	workers      int
	workerWG     sync.WaitGroup
	shutdownChan chan struct{}
}

func NewEngine(cfg *config.Config, pub core.StepPublisher, l logger.Logger, workers int) (*Engine, error) {
	if l == nil {
		l = logger.NewNullLogger()
	}
	tracer := trace.NewNoopTracer()
	if cfg.LangfuseEnabled {
		tracer = trace.NewLangfuseTracer(context.Background(), trace.LangfuseConfig{
			PublicKey: cfg.LangfusePublicKey,
			SecretKey: cfg.LangfuseSecretKey,
			Host:      cfg.LangfuseHost,
		}, l)
	}
	return &Engine{
		cfg:          cfg,
		pub:          pub,
		logger:       l,
		tracer:       tracer,
		requests:     make(chan ExecutionRequest, 16),
		workers:      workers,
		shutdownChan: make(chan struct{}),
	}, nil
}

func (e *Engine) Start(ctx context.Context) {
	for i := 0; i < e.workers; i++ {
		e.workerWG.Add(1)
		go e.worker(ctx)
	}
}

func (e *Engine) worker(ctx context.Context) {
	defer e.workerWG.Done()
	for {
		select {
		case req := <-e.requests:
			req.ResultChan <- e.process(ctx, req.Prompt)
			close(req.ResultChan)
		case <-ctx.Done():
			return
		case <-e.shutdownChan:
			return
		}
	}
}

func (e *Engine) process(ctx context.Context, prompt string) ExecutionResult {
	cfg := e.cfg

	workspace, err := fs.NewOsWorkspace(cfg.OutputDir)
	if err != nil {
		return ExecutionResult{Err: err}
	}

	binary, err := blender.FindExecutable(cfg.BlenderPath)
	if err != nil {
		return ExecutionResult{Err: err}
	}

	planner, err := e.newClient(ctx, cfg.PlannerModel)
	if err != nil {
		return ExecutionResult{Err: err}
	}
	coder, err := e.newClient(ctx, cfg.CodegenModel)
	if err != nil {
		return ExecutionResult{Err: err}
	}
	validator, err := e.newClient(ctx, cfg.ValidatorModel)
	if err != nil {
		return ExecutionResult{Err: err}
	}

	executor := blender.NewExecutor(binary, workspace, cfg.RenderTimeout(), cfg.OpenRender, e.logger)
	manager := core.NewDefaultStepManager(planner, coder, validator, executor, workspace, cfg.MaxScriptRetries, cfg.ArchiveSession)
	tool := core.NewBlenderSceneTool(manager, e.pub, e.logger)

	e.tracer.StartTrace(ctx, "blendpipe.generate")
	defer e.tracer.Flush(ctx)

	answer, err := agent.New(planner, e.logger, tool).Run(ctx, prompt)
	if err != nil {
		return ExecutionResult{Err: err}
	}

	result := ExecutionResult{Answer: answer}
	if tool.LastRequest != nil {
		result.RenderPath = tool.LastRequest.RenderPath
		result.BundlePath = tool.LastRequest.BundlePath
	}
	return result
}

func (e *Engine) newClient(ctx context.Context, model string) (llm.LlmClient, error) {
	apiKey := e.cfg.GoogleAPIKey
	if e.cfg.Provider == config.ProviderOpenAI {
		apiKey = e.cfg.OpenAIAPIKey
	}
	return llm.NewClient(ctx, &llm.LlmConfig{
		Provider:  e.cfg.Provider,
		APIKey:    apiKey,
		ModelName: model,
	}, e.tracer, e.logger)
}

func (e *Engine) AddRequest(prompt string) chan ExecutionResult {
	resultChan := make(chan ExecutionResult, 1)
	e.requests <- ExecutionRequest{
		Prompt:     prompt,
		ResultChan: resultChan,
		CreatedAt:  time.Now(),
	}
	return resultChan
}

func (e *Engine) Shutdown(timeout time.Duration) {
	close(e.shutdownChan)

	done := make(chan struct{})
	go func() {
		e.workerWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("All workers shut down gracefully")
	case <-time.After(timeout):
		e.logger.Warn("Shutdown timed out, some workers may still be running")
	}
}
