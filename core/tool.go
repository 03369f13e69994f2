package core

import (
	"context"
	"fmt"

	"github.com/blendpipe/blendpipe/logger"
)

// BlenderSceneTool exposes the generation pipeline to the planner agent as a
// single tool. Each invocation runs a fresh pipeline over a new Request.
type BlenderSceneTool struct {
	manager   *StepManager
	publisher StepPublisher
	logger    logger.Logger

	// LastRequest keeps the most recent run's record so the caller can
	// surface artifact paths after the agent loop finishes.
	LastRequest *Request
}

func NewBlenderSceneTool(manager *StepManager, pub StepPublisher, l logger.Logger) *BlenderSceneTool {
	return &BlenderSceneTool{
		manager:   manager,
		publisher: pub,
		logger:    l,
	}
}

func (t *BlenderSceneTool) Name() string {
	return "RunBlenderScript"
}

func (t *BlenderSceneTool) Description() string {
	return "Generate a 3D model in Blender from a text description and render it to a PNG. " +
		`Input: {"description": "a detailed, descriptive string of the scene to build"}`
}

func (t *BlenderSceneTool) Run(ctx context.Context, input map[string]any) (string, error) {
	description, _ := input["description"].(string)
	if description == "" {
		return "", fmt.Errorf("missing 'description' in tool input")
	}

	request := NewRequest(description)
	request.SceneDescription = description
	t.LastRequest = request

	pipeline, err := NewPipeline(request, t.manager, t.publisher, t.logger)
	if err != nil {
		return "", err
	}
	if err := pipeline.Execute(ctx); err != nil {
		return "", err
	}

	return fmt.Sprintf("SUCCESS: Blender render completed. Output saved to: %s", request.RenderPath), nil
}
