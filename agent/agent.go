package agent

import (
	"context"
	"fmt"

	"github.com/blendpipe/blendpipe/llm"
	"github.com/blendpipe/blendpipe/logger"
	"github.com/blendpipe/blendpipe/utils"
)

// maxSteps bounds the planner loop; a run that has not produced a final
// answer by then is aborted rather than spinning on model calls.
const maxSteps = 8

// Tool is an action the planner may take. The planner only ever sees the
// name and description; Run receives the tool_input object verbatim.
type Tool interface {
	Name() string
	Description() string
	Run(ctx context.Context, input map[string]any) (string, error)
}

// Agent is the ReAct planner loop: it asks the reasoning model for the next
// step, executes the chosen tool, feeds the result back as memory, and stops
// when the model answers with final: true.
type Agent struct {
	planner llm.LlmClient
	tools   map[string]Tool
	infos   []llm.ToolInfo
	logger  logger.Logger
}

func New(planner llm.LlmClient, l logger.Logger, tools ...Tool) *Agent {
	if l == nil {
		l = logger.NewNullLogger()
	}
	a := &Agent{
		planner: planner,
		tools:   make(map[string]Tool, len(tools)),
		logger:  l,
	}
	for _, t := range tools {
		a.tools[t.Name()] = t
		a.infos = append(a.infos, llm.ToolInfo{Name: t.Name(), Description: t.Description()})
	}
	return a
}

// Run drives the loop for one user request and returns the final answer.
func (a *Agent) Run(ctx context.Context, userInput string) (string, error) {
	memory := []string{fmt.Sprintf("User requested: %s", userInput)}

	for step := 1; step <= maxSteps; step++ {
		raw, err := llm.PlannerDecision(ctx, a.planner, userInput, a.infos, memory)
		if err != nil {
			return "", err
		}

		decision, err := ParseDecision(raw)
		if err != nil {
			return "", fmt.Errorf("planner step %d: %w", step, err)
		}

		a.logger.Info(fmt.Sprintf("Planner step %d: final=%v tool=%s", step, decision.Final, decision.ToolCall))

		if decision.Final {
			return decision.Answer, nil
		}

		tool, ok := a.tools[decision.ToolCall]
		if !ok {
			return "", fmt.Errorf("unknown tool: %s", decision.ToolCall)
		}

		result, err := tool.Run(ctx, decision.ToolInput)
		if err != nil {
			return "", fmt.Errorf("tool %s failed: %w", decision.ToolCall, err)
		}

		a.logger.Debug(fmt.Sprintf("Tool %s returned: %s", decision.ToolCall, utils.TruncateString(result, 200)))
		memory = append(memory, fmt.Sprintf("Tool `%s` returned: %s", decision.ToolCall, result))
	}

	return "", fmt.Errorf("planner did not reach a final answer within %d steps", maxSteps)
}
