package llm

import (
	"fmt"
	"strings"

	"github.com/blendpipe/blendpipe/utils"
)

func getSystemPrompt() string {
	return `You are an expert 3D technical artist and Blender Python developer. Your task is to plan 3D scenes and write Blender Python (bpy) scripts that build them.

Provide precise, well-structured answers that directly address the request. Scripts must be self-contained, use only the bpy, bmesh and mathutils modules, and never touch render settings, cameras or output paths - those are managed by the host.

Do NOT use markdown code blocks at the beginning or end of your responses. Only use them in the middle when specifying code.`
}

// SpecFromPrompt rewrites a free-text prompt into the structured specification
// string fed to the planner. Pure text transformation, deterministic for a
// fixed input.
func SpecFromPrompt(prompt string) string {
	subject := utils.SanitizePrompt(prompt)
	var b strings.Builder
	b.WriteString("Subject: ")
	b.WriteString(subject)
	b.WriteString("\n")
	b.WriteString("Medium: single Blender scene built programmatically with the bpy API\n")
	b.WriteString("Constraints:\n")
	b.WriteString("- geometry only: meshes, curves, modifiers and materials\n")
	b.WriteString("- no render settings, cameras, lights or output paths in the script\n")
	b.WriteString("- the scene must be visible within a 20 unit bounding box around the origin\n")
	return b.String()
}

// ToolInfo describes one tool offered to the planner.
type ToolInfo struct {
	Name        string
	Description string
}

func getPlannerDecisionPrompt(query string, tools []ToolInfo, memory []string) string {
	var toolDescriptions strings.Builder
	for _, t := range tools {
		toolDescriptions.WriteString(fmt.Sprintf("- %s: %s\n", t.Name, t.Description))
	}

	var contextSummary strings.Builder
	if len(memory) == 0 {
		contextSummary.WriteString("No previous steps.")
	} else {
		for i, m := range memory {
			contextSummary.WriteString(fmt.Sprintf("- Step %d: %s\n", i+1, m))
		}
	}

	return fmt.Sprintf(`You are a planner agent that decides which tool to use to fulfill a user request.

You must only respond with "final": true if the task is purely descriptive or conversational.

If the task involves creating, generating, or manipulating 3D models, always call the RunBlenderScript tool. Provide a detailed, descriptive string for the 'description' parameter.

Example: for a user query 'make a cool spaceship', the tool call should be:
{
  "final": false,
  "tool_call": "RunBlenderScript",
  "tool_input": {"description": "A cool, futuristic spaceship with intricate details, glowing engines, and a sleek metallic finish"},
  "answer": "Generating a cool spaceship now..."
}

Never generate 3D descriptions or stories when tools are available to fulfill the request visually.
If a user asks to "make", "build", "create", "model", or "render" anything - it MUST be done via a RunBlenderScript tool call.

In this session, multiple tools may need to be used in sequence before you respond with "final": true.

You must respond with a valid JSON structure.

Only use available tools. Don't invent tool names.

When "final" is true, you must include the actual values returned by tools (like file paths or summaries). Do not say 'OK' or 'Done' - always include the actual result value in your response.

Available tools:
%s
User Query:
%s

Tool Call History:
%s

Respond with the next step or final answer as valid JSON.

If none of the tools are suitable for the task, and the request is general knowledge, creative writing, or opinion-based, respond directly with "final": true and a helpful answer as if you were answering without tools.`,
		toolDescriptions.String(), query, contextSummary.String())
}

func getBuildPlanPrompt(spec string) string {
	return fmt.Sprintf(`Based on this scene specification:

%s

Produce a step-by-step modelling plan for building the scene with the Blender Python API. The plan should cover:

1. The primitives and mesh operations for each object
2. Object placement, scale and orientation relative to the origin
3. Materials and colors for each object
4. Any modifiers (subdivision, mirror, array) worth applying

Keep it under 15 numbered steps. Be concrete: name the bpy operators or mesh techniques you would use for each step. Do not write code yet.`, spec)
}

func getScriptPrompt(plan string, feedback []string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(`Write a complete Blender Python script that implements this modelling plan:

%s

Requirements:
- start with "import bpy" (plus bmesh/mathutils/math if needed)
- use only the bpy, bmesh, mathutils and math modules
- do NOT set render settings, output paths, cameras or lights
- do NOT call any render operator
- keep all geometry within roughly 20 units of the world origin
- name every created object descriptively

Respond with only the Python source, no explanations.`, plan))

	if len(feedback) > 0 {
		b.WriteString("\n\nPrevious attempts were rejected by the reviewer. Fix every issue below:\n")
		for i, f := range feedback {
			b.WriteString(fmt.Sprintf("%d. %s\n", i+1, f))
		}
	}
	return b.String()
}

func getValidatePrompt(script string) string {
	return fmt.Sprintf(`Review the following Blender Python script for correctness. Check that:

1. It is syntactically valid Python
2. Every API call exists in the current bpy, bmesh and mathutils modules
3. It does not touch render settings, cameras, lights or output paths
4. It would run headless without user interaction or external files
5. Objects are created at sensible scales near the world origin

Script:
"""
%s
"""

Respond with a JSON object of this exact shape:
{
  "valid": true or false,
  "explanation": "why the script fails, empty when valid",
  "corrected": "a fixed version of the script, or empty if no small fix applies"
}

Only set "valid": true when you are confident the script runs as-is. A "corrected" script may accompany either verdict; only provide one when the fix is small and certain.`, script)
}
