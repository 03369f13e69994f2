package agent

import (
	"encoding/json"
	"fmt"

	"github.com/blendpipe/blendpipe/llm"
)

// Decision is the planner's JSON verdict for one ReAct step.
type Decision struct {
	Final     bool           `json:"final"`
	ToolCall  string         `json:"tool_call"`
	ToolInput map[string]any `json:"tool_input"`
	Answer    string         `json:"answer"`
}

// ParseDecision decodes planner output, tolerating markdown fences and
// surrounding prose around the JSON object.
func ParseDecision(raw string) (*Decision, error) {
	obj, err := llm.ExtractJSONObject(raw)
	if err != nil {
		return nil, fmt.Errorf("could not parse planner output: %w", err)
	}
	var d Decision
	if err := json.Unmarshal([]byte(obj), &d); err != nil {
		return nil, fmt.Errorf("could not parse planner output: %w", err)
	}
	if !d.Final && d.ToolCall == "" {
		return nil, fmt.Errorf("planner output names no tool and is not final")
	}
	return &d, nil
}
