package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyUser(t *testing.T) {
	line := `{"type":"user","uuid":"u1","timestamp":"2026-01-28T10:00:00Z","message":{"role":"user","content":"Hello Claude"}}`
	ev := Classify(line)
	require.Equal(t, KindUser, ev.Kind)
	assert.Equal(t, "u1", ev.User.UUID)
	assert.Equal(t, "Hello Claude", ev.User.Content)
}

func TestClassifyUserWithToolResultArray(t *testing.T) {
	line := `{"type":"user","uuid":"u2","timestamp":"2026-01-28T10:00:00Z",
		"message":{"role":"user","content":[
			{"type":"tool_result","tool_use_id":"t1","content":"ok"},
			{"type":"tool_result","tool_use_id":"t2","content":{"x":1}}
		]}}`
	ev := Classify(line)
	require.Equal(t, KindUser, ev.Kind)
	assert.Equal(t, "ok\n{\"x\":1}", ev.User.Content)
}

func TestClassifyAssistantDiscardsThinking(t *testing.T) {
	line := `{"type":"assistant","uuid":"a1","timestamp":"2026-01-28T10:00:01Z",
		"message":{"role":"assistant","content":[
			{"type":"thinking","thinking":"secret"},
			{"type":"text","text":"Hi"},
			{"type":"tool_use","id":"tu1","name":"Read","input":{"path":"x"}}
		]}}`
	ev := Classify(line)
	require.Equal(t, KindAssistant, ev.Kind)
	require.Len(t, ev.Assistant.ContentBlocks, 2)
	assert.Equal(t, "text", ev.Assistant.ContentBlocks[0].Type)
	assert.Equal(t, "Hi", ev.Assistant.ContentBlocks[0].Text)
	assert.Equal(t, "tool_use", ev.Assistant.ContentBlocks[1].Type)
	assert.Equal(t, "Read", ev.Assistant.ContentBlocks[1].ToolUse.Name)
}

func TestClassifySkipsNonSemanticKinds(t *testing.T) {
	for _, typ := range []string{
		"progress", "agent_progress", "bash_progress", "mcp_progress",
		"hook_progress", "base64", "image", "file-history-snapshot",
		"waiting_for_task", "create", "update", "queue-operation",
	} {
		ev := Classify(`{"type":"` + typ + `"}`)
		assert.Equal(t, KindSkipped, ev.Kind, "type=%s", typ)
	}
}

func TestClassifyUnknownTypeIsSkipped(t *testing.T) {
	ev := Classify(`{"type":"some_future_kind","foo":1}`)
	assert.Equal(t, KindSkipped, ev.Kind)
}

func TestClassifyMissingTypeIsSkipped(t *testing.T) {
	ev := Classify(`{"foo":1}`)
	assert.Equal(t, KindSkipped, ev.Kind)
}

func TestClassifyNonObjectIsSkipped(t *testing.T) {
	ev := Classify(`[1,2,3]`)
	assert.Equal(t, KindSkipped, ev.Kind)
	ev = Classify(`"just a string"`)
	assert.Equal(t, KindSkipped, ev.Kind)
}

func TestClassifyMissingRequiredFieldsIsSkipped(t *testing.T) {
	ev := Classify(`{"type":"user","uuid":"u1"}`) // missing timestamp/message
	assert.Equal(t, KindSkipped, ev.Kind)

	ev = Classify(`{"type":"summary"}`) // missing summary/timestamp
	assert.Equal(t, KindSkipped, ev.Kind)
}

func TestExtractToolUses(t *testing.T) {
	line := `{"type":"assistant","uuid":"a1","timestamp":"t","message":{"content":[
		{"type":"tool_use","id":"tu1","name":"Bash","input":{"command":"ls"}},
		{"type":"tool_use","id":"tu2","name":"Read","input":{"path":"x"}}
	]}}`
	ev := Classify(line)
	require.Equal(t, KindAssistant, ev.Kind)
	uses := ExtractToolUses(ev.Assistant)
	require.Len(t, uses, 2)
	assert.Equal(t, "tu1", uses[0].ID)
	assert.Equal(t, "Bash", uses[0].Name)
}

func TestExtractToolResults(t *testing.T) {
	line := `{"type":"user","uuid":"u1","timestamp":"t","message":{"content":[
		{"type":"tool_result","tool_use_id":"tu1","content":"done","is_error":false}
	]}}`
	results := ExtractToolResults(line)
	require.Len(t, results, 1)
	assert.Equal(t, "tu1", results[0].ToolUseID)
	assert.Equal(t, "done", results[0].Content)
	assert.False(t, results[0].IsError)
}
