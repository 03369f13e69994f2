package core

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/blendpipe/blendpipe/blender"
	"github.com/blendpipe/blendpipe/fs"
	"github.com/blendpipe/blendpipe/llm"
	"github.com/blendpipe/blendpipe/logger"
)

type mockLlmClient struct {
	mock.Mock
}

func (m *mockLlmClient) GetCompletion(ctx context.Context, prompt, responseType string) (string, error) {
	args := m.Called(ctx, prompt, responseType)
	return args.String(0), args.Error(1)
}

func (m *mockLlmClient) ModelName() string {
	return "mock-model"
}

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Render(ctx context.Context, script string) (*blender.Result, error) {
	args := m.Called(ctx, script)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blender.Result), args.Error(1)
}

type recordingPublisher struct {
	steps []StepType
	errs  []error
}

func (p *recordingPublisher) PublishStep(step StepType) {
	p.steps = append(p.steps, step)
}

func (p *recordingPublisher) Error(step StepType, err error) {
	p.errs = append(p.errs, err)
}

const testScript = "import bpy\nbpy.ops.mesh.primitive_cube_add(size=2)"

func validVerdict() string {
	return `{"valid": true, "explanation": "", "corrected": ""}`
}

func rejectVerdict(reason string) string {
	return `{"valid": false, "explanation": "` + reason + `", "corrected": ""}`
}

func newTestManager(planner, coder, validator *mockLlmClient, runner *mockRunner, maxRetries int) *StepManager {
	return NewDefaultStepManager(planner, coder, validator, runner, fs.NewMemoryWorkspace(), maxRetries, false)
}

func TestPipelineHappyPath(t *testing.T) {
	planner := new(mockLlmClient)
	coder := new(mockLlmClient)
	validator := new(mockLlmClient)
	runner := new(mockRunner)

	planner.On("GetCompletion", mock.Anything, mock.Anything, llm.ResponseText).
		Return("1. Add a cube", nil).Once()
	coder.On("GetCompletion", mock.Anything, mock.Anything, llm.ResponseText).
		Return(testScript, nil).Once()
	validator.On("GetCompletion", mock.Anything, mock.Anything, llm.ResponseJSON).
		Return(validVerdict(), nil).Once()
	runner.On("Render", mock.Anything, testScript).
		Return(&blender.Result{ImagePath: "outputs/render.png"}, nil).Once()

	request := NewRequest("a red cube")
	publisher := &recordingPublisher{}
	pipeline, err := NewPipeline(request, newTestManager(planner, coder, validator, runner, 3), publisher, nil)
	require.NoError(t, err)

	err = pipeline.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, testScript, request.Script)
	assert.True(t, request.Validated)
	assert.Equal(t, 1, request.Attempts)
	assert.Equal(t, "outputs/render.png", request.RenderPath)
	assert.NotEmpty(t, request.Spec)
	assert.Equal(t, "1. Add a cube", request.Plan)

	assert.Equal(t, []StepType{
		Preprocess, GeneratePlan, GenerateScript, ValidateScript, RenderScene, SaveArtifacts, Done,
	}, publisher.steps)
	assert.Empty(t, publisher.errs)

	planner.AssertExpectations(t)
	coder.AssertExpectations(t)
	validator.AssertExpectations(t)
	runner.AssertExpectations(t)
}

func TestPipelineValidatorRetry(t *testing.T) {
	planner := new(mockLlmClient)
	coder := new(mockLlmClient)
	validator := new(mockLlmClient)
	runner := new(mockRunner)

	fixedScript := testScript + "\nbpy.ops.object.shade_smooth()"

	planner.On("GetCompletion", mock.Anything, mock.Anything, llm.ResponseText).
		Return("1. Add a cube", nil).Once()
	coder.On("GetCompletion", mock.Anything, mock.Anything, llm.ResponseText).
		Return(testScript, nil).Once()
	validator.On("GetCompletion", mock.Anything, mock.Anything, llm.ResponseJSON).
		Return(rejectVerdict("cube is not smooth shaded"), nil).Once()
	// the regeneration prompt must carry the rejection feedback
	coder.On("GetCompletion", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "cube is not smooth shaded")
	}), llm.ResponseText).Return(fixedScript, nil).Once()
	validator.On("GetCompletion", mock.Anything, mock.Anything, llm.ResponseJSON).
		Return(validVerdict(), nil).Once()
	runner.On("Render", mock.Anything, fixedScript).
		Return(&blender.Result{ImagePath: "outputs/render.png"}, nil).Once()

	request := NewRequest("a red cube")
	pipeline, err := NewPipeline(request, newTestManager(planner, coder, validator, runner, 3), nil, nil)
	require.NoError(t, err)

	err = pipeline.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, fixedScript, request.Script)
	assert.Equal(t, 2, request.Attempts)
	assert.Equal(t, []string{"cube is not smooth shaded"}, request.Feedback)

	coder.AssertExpectations(t)
	validator.AssertExpectations(t)
	runner.AssertExpectations(t)
}

func TestPipelineValidationExhausted(t *testing.T) {
	planner := new(mockLlmClient)
	coder := new(mockLlmClient)
	validator := new(mockLlmClient)
	runner := new(mockRunner)

	planner.On("GetCompletion", mock.Anything, mock.Anything, llm.ResponseText).
		Return("1. Add a cube", nil).Once()
	coder.On("GetCompletion", mock.Anything, mock.Anything, llm.ResponseText).
		Return(testScript, nil)
	validator.On("GetCompletion", mock.Anything, mock.Anything, llm.ResponseJSON).
		Return(rejectVerdict("still broken"), nil)

	request := NewRequest("a red cube")
	publisher := &recordingPublisher{}
	pipeline, err := NewPipeline(request, newTestManager(planner, coder, validator, runner, 2), publisher, nil)
	require.NoError(t, err)

	err = pipeline.Execute(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationExhausted)

	assert.Equal(t, 2, request.Attempts)
	assert.False(t, request.Validated)
	assert.Len(t, publisher.errs, 1)

	// a rejected script must never reach the executor
	runner.AssertNotCalled(t, "Render", mock.Anything, mock.Anything)
}

func TestPipelineAppliesCorrectedScript(t *testing.T) {
	planner := new(mockLlmClient)
	coder := new(mockLlmClient)
	validator := new(mockLlmClient)
	runner := new(mockRunner)

	corrected := "import bpy\nbpy.ops.mesh.primitive_uv_sphere_add()"
	verdict := "{\"valid\": true, \"explanation\": \"\", \"corrected\": \"import bpy\\nbpy.ops.mesh.primitive_uv_sphere_add()\"}"

	planner.On("GetCompletion", mock.Anything, mock.Anything, llm.ResponseText).
		Return("1. Add a sphere", nil).Once()
	coder.On("GetCompletion", mock.Anything, mock.Anything, llm.ResponseText).
		Return(testScript, nil).Once()
	validator.On("GetCompletion", mock.Anything, mock.Anything, llm.ResponseJSON).
		Return(verdict, nil).Once()
	runner.On("Render", mock.Anything, corrected).
		Return(&blender.Result{ImagePath: "outputs/render.png"}, nil).Once()

	request := NewRequest("a sphere")
	pipeline, err := NewPipeline(request, newTestManager(planner, coder, validator, runner, 3), nil, nil)
	require.NoError(t, err)

	require.NoError(t, pipeline.Execute(context.Background()))
	assert.Equal(t, corrected, request.Script)
	runner.AssertExpectations(t)
}

func TestPipelineCancellation(t *testing.T) {
	planner := new(mockLlmClient)
	request := NewRequest("a red cube")
	pipeline, err := NewPipeline(request, newTestManager(planner, new(mockLlmClient), new(mockLlmClient), new(mockRunner), 3), nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = pipeline.Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	planner.AssertNotCalled(t, "GetCompletion", mock.Anything, mock.Anything, mock.Anything)
}

func TestPreprocessDeterministic(t *testing.T) {
	step := &PreprocessStep{}

	first := NewRequest("  A   shiny\tred cube! ")
	second := NewRequest("  A   shiny\tred cube! ")

	require.NoError(t, step.Execute(context.Background(), &State{Request: first, Logger: logger.NewNullLogger()}))
	require.NoError(t, step.Execute(context.Background(), &State{Request: second, Logger: logger.NewNullLogger()}))

	assert.Equal(t, first.Spec, second.Spec)
	assert.Contains(t, first.Spec, "Subject: A shiny red cube!")
}

func TestSaveArtifactsWritesBundle(t *testing.T) {
	workspace := fs.NewMemoryWorkspace()
	manager := NewDefaultStepManager(nil, nil, nil, nil, workspace, 3, true)

	request := NewRequest("a red cube")
	request.Spec = "Subject: a red cube"
	request.Plan = "1. Add a cube"
	request.Script = testScript
	request.RenderPath = "outputs/render.png"

	step := &SaveArtifactsStep{manager: manager}
	require.NoError(t, step.Execute(context.Background(), &State{Request: request, Logger: logger.NewNullLogger()}))

	assert.NotEmpty(t, request.BundlePath)
	assert.True(t, strings.HasSuffix(request.BundlePath, ".zip"))
}
