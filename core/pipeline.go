package core

import (
	"context"
	"fmt"
	"time"

	"github.com/blendpipe/blendpipe/logger"
)

type Step interface {
	Execute(ctx context.Context, state *State) error
}

type StepType int

const (
	Preprocess StepType = iota
	GeneratePlan
	GenerateScript
	ValidateScript
	RenderScene
	SaveArtifacts
	Done
)

func (s StepType) String() string {
	switch s {
	case Preprocess:
		return "Preprocess"
	case GeneratePlan:
		return "GeneratePlan"
	case GenerateScript:
		return "GenerateScript"
	case ValidateScript:
		return "ValidateScript"
	case RenderScene:
		return "RenderScene"
	case SaveArtifacts:
		return "SaveArtifacts"
	case Done:
		return "Done"
	}
	return fmt.Sprintf("StepType(%d)", int(s))
}

type State struct {
	Request *Request
	Logger  logger.Logger
}

type Pipeline struct {
	stepManager *StepManager
	state       *State
	publisher   StepPublisher
}

func NewPipeline(r *Request, sm *StepManager, pub StepPublisher, l logger.Logger) (*Pipeline, error) {
	if r == nil {
		return nil, fmt.Errorf("request is required")
	}
	if l == nil {
		l = logger.NewNullLogger()
	}
	if pub == nil {
		pub = &DefaultStepPublisher{}
	}
	return &Pipeline{
		state:       &State{Request: r, Logger: l},
		publisher:   pub,
		stepManager: sm,
	}, nil
}

// Execute runs every step in order, strictly sequentially. The first failing
// step aborts the run; the publisher hears about each completed step and the
// terminal error.
func (p *Pipeline) Execute(ctx context.Context) error {
	steps := p.stepManager.GetSteps()
	p.state.Logger.Info("Starting pipeline execution")
	for i, stepType := range steps {
		select {
		case <-ctx.Done():
			p.state.Logger.Info("Pipeline execution cancelled")
			return context.Canceled
		default:
			p.state.Logger.Info(fmt.Sprintf("Attempting to execute step %d: %v", i, stepType))
			step := p.stepManager.GetStep(stepType)
			if step == nil {
				p.state.Logger.Error(fmt.Sprintf("Step %v not found", stepType))
				p.publisher.Error(stepType, fmt.Errorf("step %v not found", stepType))
				return fmt.Errorf("step %v not found", stepType)
			}

			startTime := time.Now()
			if err := step.Execute(ctx, p.state); err != nil {
				p.state.Logger.Error(fmt.Sprintf("Error executing step %v: %v", stepType, err))
				p.publisher.Error(stepType, err)
				return err
			}
			p.state.Logger.Info(fmt.Sprintf("Step %v completed in %v", stepType, time.Since(startTime)))
			p.publisher.PublishStep(stepType)
		}
	}

	p.publisher.PublishStep(Done)
	p.state.Logger.Info("Pipeline execution completed")
	return nil
}

// Request exposes the run's record so callers can read the artifact paths
// after execution.
func (p *Pipeline) Request() *Request {
	return p.state.Request
}

type StepPublisher interface {
	PublishStep(step StepType)
	Error(step StepType, err error)
}

type DefaultStepPublisher struct{}

func (p *DefaultStepPublisher) PublishStep(step StepType) {}

func (p *DefaultStepPublisher) Error(step StepType, err error) {}
