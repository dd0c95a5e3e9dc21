package assistant

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeOutcomeNavigationWins(t *testing.T) {
	steps := []AgentStep{
		{Agent: "task", Action: "create_task", Result: &ToolResult{Result: "Task created", Action: ActionRefresh}},
		{Agent: "navigation", Action: "navigate_to_page", Result: &ToolResult{Result: "Navigating to Tasks", Action: ActionNavigate, Path: "/dashboard/tasks", Name: "Tasks"}},
		{Agent: "summary", Action: "chat", Text: "All done"},
	}
	out, err := shapeOutcome(steps)
	require.NoError(t, err)
	require.NotNil(t, out.ToolResult)
	assert.Equal(t, ActionNavigate, out.ToolResult.Action)
	assert.Equal(t, "/dashboard/tasks", out.ToolResult.Path)
}

func TestShapeOutcomeFirstSuccessfulMutation(t *testing.T) {
	steps := []AgentStep{
		{Agent: "router", Action: "edit_task", Err: "record not found"},
		{Agent: "task", Action: "create_task", Result: &ToolResult{Result: "Task \"a\" created", Action: ActionRefresh}},
		{Agent: "task", Action: "create_task", Result: &ToolResult{Result: "Task \"b\" created", Action: ActionRefresh}},
	}
	out, err := shapeOutcome(steps)
	require.NoError(t, err)
	require.NotNil(t, out.ToolResult)
	assert.Equal(t, "Task \"a\" created", out.ToolResult.Result)
}

func TestShapeOutcomeLastSummaryOverrideWins(t *testing.T) {
	steps := []AgentStep{
		{Agent: "task", Action: "create_task", Result: &ToolResult{Result: "Task created", Action: ActionRefresh}},
		{Agent: "summary", Action: "chat", Text: "first summary"},
		{Agent: "summary", Action: "chat", Text: "second summary"},
	}
	out, err := shapeOutcome(steps)
	require.NoError(t, err)
	require.NotNil(t, out.ToolResult)
	assert.Equal(t, "second summary", out.ToolResult.Result)
	assert.Equal(t, ActionRefresh, out.ToolResult.Action)
}

func TestShapeOutcomeChatConcatenation(t *testing.T) {
	steps := []AgentStep{
		{Agent: "router", Action: "create_task", Err: "store: disk full"},
		{Agent: "task", Action: "chat", Text: "part one"},
		{Agent: "summary", Action: "chat", Text: "part two"},
		{Agent: "habit", Action: "system", Err: "model call failed"},
	}
	out, err := shapeOutcome(steps)
	require.NoError(t, err)
	assert.Nil(t, out.ToolResult)
	assert.Equal(t, "part one\n\npart two", out.ChatText)
}

func TestShapeOutcomeEmpty(t *testing.T) {
	_, err := shapeOutcome(nil)
	assert.True(t, errors.Is(err, ErrNoUsableOutput))

	_, err = shapeOutcome([]AgentStep{
		{Agent: "task", Action: "system", Err: "model call failed"},
	})
	assert.True(t, errors.Is(err, ErrNoUsableOutput))
}
