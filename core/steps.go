package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/blendpipe/blendpipe/blender"
	"github.com/blendpipe/blendpipe/fs"
	"github.com/blendpipe/blendpipe/llm"
	"github.com/blendpipe/blendpipe/utils"
)

// ErrValidationExhausted means the validator rejected every candidate script
// within the retry bound. The executor is never invoked in that case.
var ErrValidationExhausted = errors.New("script validation retries exhausted")

// StepManager wires the pipeline steps to their collaborators: one LLM client
// per model tier, the Blender runner, and the artifact workspace.
type StepManager struct {
	planner    llm.LlmClient
	coder      llm.LlmClient
	validator  llm.LlmClient
	runner     blender.Runner
	workspace  *fs.Workspace
	maxRetries int
	archive    bool
	steps      []StepType
}

func NewDefaultStepManager(planner, coder, validator llm.LlmClient, runner blender.Runner, workspace *fs.Workspace, maxRetries int, archive bool) *StepManager {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &StepManager{
		planner:    planner,
		coder:      coder,
		validator:  validator,
		runner:     runner,
		workspace:  workspace,
		maxRetries: maxRetries,
		archive:    archive,
		steps: []StepType{
			Preprocess,
			GeneratePlan,
			GenerateScript,
			ValidateScript,
			RenderScene,
			SaveArtifacts,
		},
	}
}

func (m *StepManager) GetSteps() []StepType {
	return m.steps
}

func (m *StepManager) GetStep(stepType StepType) Step {
	switch stepType {
	case Preprocess:
		return &PreprocessStep{}
	case GeneratePlan:
		return &GeneratePlanStep{manager: m}
	case GenerateScript:
		return &GenerateScriptStep{manager: m}
	case ValidateScript:
		return &ValidateScriptStep{manager: m}
	case RenderScene:
		return &RenderSceneStep{manager: m}
	case SaveArtifacts:
		return &SaveArtifactsStep{manager: m}
	}
	return nil
}

// PreprocessStep rewrites the free-text prompt into the structured
// specification string. Pure text transformation, no failure mode.
type PreprocessStep struct{}

func (s *PreprocessStep) Execute(ctx context.Context, state *State) error {
	state.Logger.Debug("Preprocessing prompt into scene specification.")
	state.Request.Spec = llm.SpecFromPrompt(state.Request.description())
	state.Logger.Debug("Scene specification built")
	return nil
}

type GeneratePlanStep struct {
	manager *StepManager
}

func (s *GeneratePlanStep) Execute(ctx context.Context, state *State) error {
	state.Logger.Debug("Generating modelling plan.")
	plan, err := llm.GeneratePlan(ctx, s.manager.planner, state.Request.Spec)
	if err != nil {
		state.Logger.Error(fmt.Sprintf("Failed to generate modelling plan: %v", err))
		return fmt.Errorf("failed to generate modelling plan: %w", err)
	}
	state.Request.Plan = plan
	state.Logger.Debug("Modelling plan generated successfully")
	return nil
}

type GenerateScriptStep struct {
	manager *StepManager
}

func (s *GenerateScriptStep) Execute(ctx context.Context, state *State) error {
	state.Logger.Debug("Generating Blender script.")
	script, err := llm.GenerateScript(ctx, s.manager.coder, state.Request.Plan, nil)
	if err != nil {
		state.Logger.Error(fmt.Sprintf("Failed to generate script: %v", err))
		return fmt.Errorf("failed to generate script: %w", err)
	}
	state.Request.Script = script
	state.Request.Attempts = 1
	state.Logger.Debug("Blender script generated successfully")
	return nil
}

// ValidateScriptStep runs the validate/regenerate loop. Each failed verdict
// feeds its explanation back into the next codegen call, up to the configured
// retry bound.
type ValidateScriptStep struct {
	manager *StepManager
}

func (s *ValidateScriptStep) Execute(ctx context.Context, state *State) error {
	r := state.Request
	for {
		state.Logger.Debug(fmt.Sprintf("Validating script (attempt %d/%d).", r.Attempts, s.manager.maxRetries))
		verdict, err := llm.ValidateScript(ctx, s.manager.validator, r.Script)
		if err != nil {
			state.Logger.Error(fmt.Sprintf("Failed to validate script: %v", err))
			return fmt.Errorf("failed to validate script: %w", err)
		}

		if verdict.Valid {
			if verdict.Corrected != "" {
				r.Script = llm.StripCodeFences(verdict.Corrected)
				state.Logger.Debug("Validator supplied a corrected script")
			}
			r.Validated = true
			state.Logger.Debug("Script validated successfully")
			return nil
		}

		r.Feedback = append(r.Feedback, verdict.Explanation)
		state.Logger.Warn(fmt.Sprintf("Script rejected by validator: %s", utils.TruncateString(verdict.Explanation, 200)))

		if r.Attempts >= s.manager.maxRetries {
			return fmt.Errorf("%w after %d attempts: %s", ErrValidationExhausted, r.Attempts, verdict.Explanation)
		}

		script, err := llm.GenerateScript(ctx, s.manager.coder, r.Plan, r.Feedback)
		if err != nil {
			state.Logger.Error(fmt.Sprintf("Failed to regenerate script: %v", err))
			return fmt.Errorf("failed to regenerate script: %w", err)
		}
		r.Script = script
		r.Attempts++
	}
}

// RenderSceneStep hands the validated script to the executor byte-identical.
type RenderSceneStep struct {
	manager *StepManager
}

func (s *RenderSceneStep) Execute(ctx context.Context, state *State) error {
	state.Logger.Debug("Rendering scene in Blender.")
	result, err := s.manager.runner.Render(ctx, state.Request.Script)
	if err != nil {
		state.Logger.Error(fmt.Sprintf("Render failed: %v", err))
		return fmt.Errorf("render failed: %w", err)
	}
	state.Request.RenderPath = result.ImagePath
	state.Logger.Debug(fmt.Sprintf("Render completed: %s", result.ImagePath))
	return nil
}

// SaveArtifactsStep persists the session texts next to the render and,
// optionally, bundles them into a zip.
type SaveArtifactsStep struct {
	manager *StepManager
}

func (s *SaveArtifactsStep) Execute(ctx context.Context, state *State) error {
	state.Logger.Debug("Saving session artifacts.")
	r := state.Request

	sceneName := utils.FormatSceneName(r.Prompt)
	prefix := fmt.Sprintf("%s_%s", sceneName, r.CreatedAt.Format("20060102_150405"))

	files := map[string]string{
		"spec.txt":  r.Spec,
		"plan.txt":  r.Plan,
		"script.py": r.Script,
		"session.txt": fmt.Sprintf("request: %s\nprompt: %s\nattempts: %d\nrender: %s\n",
			r.ID, r.Prompt, r.Attempts, r.RenderPath),
	}

	for name, content := range files {
		if _, err := s.manager.workspace.WriteFile(prefix+"_"+name, content); err != nil {
			state.Logger.Error(fmt.Sprintf("Failed to save artifact %s: %v", name, err))
			return fmt.Errorf("failed to save artifact %s: %w", name, err)
		}
	}

	if s.manager.archive {
		bundlePath, err := s.manager.workspace.WriteBundle(prefix+".zip", files)
		if err != nil {
			state.Logger.Error(fmt.Sprintf("Failed to write session bundle: %v", err))
			return fmt.Errorf("failed to write session bundle: %w", err)
		}
		r.BundlePath = bundlePath
	}

	state.Logger.Debug("Session artifacts saved successfully")
	return nil
}
