package llm

import (
	"context"
	"fmt"
)

// GeneratePlan asks the reasoning tier for a step-by-step modelling plan.
func GeneratePlan(ctx context.Context, client LlmClient, spec string) (string, error) {
	prompt := getBuildPlanPrompt(spec)
	plan, err := client.GetCompletion(ctx, prompt, ResponseText)
	if err != nil {
		return "", fmt.Errorf("failed to generate build plan: %w", err)
	}
	if plan == "" {
		return "", fmt.Errorf("generated build plan is empty")
	}
	return plan, nil
}

// GenerateScript asks the codegen tier for a Blender Python script. On retry,
// feedback accumulated from failed validations is appended to the prompt.
func GenerateScript(ctx context.Context, client LlmClient, plan string, feedback []string) (string, error) {
	prompt := getScriptPrompt(plan, feedback)
	raw, err := client.GetCompletion(ctx, prompt, ResponseText)
	if err != nil {
		return "", fmt.Errorf("failed to generate script: %w", err)
	}
	script := StripCodeFences(raw)
	if script == "" {
		return "", fmt.Errorf("generated script is empty")
	}
	return script, nil
}

// ValidateScript asks the validator tier for a pass/fail verdict on a script.
func ValidateScript(ctx context.Context, client LlmClient, script string) (*Verdict, error) {
	prompt := getValidatePrompt(script)
	raw, err := client.GetCompletion(ctx, prompt, ResponseJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to validate script: %w", err)
	}
	return ParseVerdict(raw)
}

// PlannerDecision asks the reasoning tier for the next ReAct step given the
// user query, the available tools and the step summaries so far.
func PlannerDecision(ctx context.Context, client LlmClient, query string, tools []ToolInfo, memory []string) (string, error) {
	prompt := getPlannerDecisionPrompt(query, tools, memory)
	raw, err := client.GetCompletion(ctx, prompt, ResponseJSON)
	if err != nil {
		return "", fmt.Errorf("failed to get planner decision: %w", err)
	}
	return raw, nil
}
