package agent

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
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

type fakeTool struct {
	name   string
	result string
	err    error
	calls  int
	inputs []map[string]any
}

func (t *fakeTool) Name() string        { return t.name }
func (t *fakeTool) Description() string { return "a tool for testing" }
func (t *fakeTool) Run(ctx context.Context, input map[string]any) (string, error) {
	t.calls++
	t.inputs = append(t.inputs, input)
	return t.result, t.err
}

func TestAgentFinalAnswer(t *testing.T) {
	planner := new(mockLlmClient)
	planner.On("GetCompletion", mock.Anything, mock.Anything, mock.Anything).
		Return("```json\n{\"final\": true, \"answer\": \"A cube has six faces.\"}\n```", nil).Once()

	answer, err := New(planner, nil).Run(context.Background(), "how many faces does a cube have?")
	require.NoError(t, err)
	assert.Equal(t, "A cube has six faces.", answer)
	planner.AssertExpectations(t)
}

func TestAgentToolCallThenFinal(t *testing.T) {
	planner := new(mockLlmClient)
	tool := &fakeTool{name: "RunBlenderScript", result: "SUCCESS: saved to outputs/render.png"}

	planner.On("GetCompletion", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"final": false, "tool_call": "RunBlenderScript", "tool_input": {"description": "a red cube"}, "answer": ""}`, nil).Once()
	// the second decision must see the tool result in its prompt
	planner.On("GetCompletion", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "SUCCESS: saved to outputs/render.png")
	}), mock.Anything).
		Return(`{"final": true, "answer": "Done, rendered to outputs/render.png"}`, nil).Once()

	answer, err := New(planner, nil, tool).Run(context.Background(), "make a red cube")
	require.NoError(t, err)
	assert.Equal(t, "Done, rendered to outputs/render.png", answer)
	assert.Equal(t, 1, tool.calls)
	require.Len(t, tool.inputs, 1)
	assert.Equal(t, "a red cube", tool.inputs[0]["description"])
	planner.AssertExpectations(t)
}

func TestAgentUnknownTool(t *testing.T) {
	planner := new(mockLlmClient)
	planner.On("GetCompletion", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"final": false, "tool_call": "LaunchRocket", "tool_input": {}}`, nil).Once()

	_, err := New(planner, nil).Run(context.Background(), "do something")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tool")
}

func TestAgentToolFailure(t *testing.T) {
	planner := new(mockLlmClient)
	tool := &fakeTool{name: "RunBlenderScript", err: fmt.Errorf("blender exploded")}

	planner.On("GetCompletion", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"final": false, "tool_call": "RunBlenderScript", "tool_input": {"description": "a cube"}}`, nil).Once()

	_, err := New(planner, nil, tool).Run(context.Background(), "make a cube")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blender exploded")
}

func TestAgentStepLimit(t *testing.T) {
	planner := new(mockLlmClient)
	tool := &fakeTool{name: "RunBlenderScript", result: "ok"}

	// planner never settles on a final answer
	planner.On("GetCompletion", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"final": false, "tool_call": "RunBlenderScript", "tool_input": {"description": "again"}}`, nil)

	_, err := New(planner, nil, tool).Run(context.Background(), "loop forever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "final answer")
	assert.Equal(t, maxSteps, tool.calls)
}

func TestParseDecision(t *testing.T) {
	t.Run("valid tool call", func(t *testing.T) {
		d, err := ParseDecision(`{"final": false, "tool_call": "RunBlenderScript", "tool_input": {"description": "x"}}`)
		require.NoError(t, err)
		assert.Equal(t, "RunBlenderScript", d.ToolCall)
	})

	t.Run("prose around the object", func(t *testing.T) {
		d, err := ParseDecision(`Sure! Here is my decision: {"final": true, "answer": "hi"} Hope that helps.`)
		require.NoError(t, err)
		assert.True(t, d.Final)
		assert.Equal(t, "hi", d.Answer)
	})

	t.Run("not final and no tool", func(t *testing.T) {
		_, err := ParseDecision(`{"final": false, "answer": "thinking..."}`)
		require.Error(t, err)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := ParseDecision("I cannot answer that.")
		require.Error(t, err)
	})
}
