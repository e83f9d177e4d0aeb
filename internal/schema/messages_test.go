package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessages_WithDoesNotMutateReceiver(t *testing.T) {
	base := NewMessages(NewSystemMessage("sys"), NewUserMessage("hi"))

	extended := base.WithAssistant("", []ToolCallRequest{{ID: "call_1", Name: "get_med_schedule"}})

	assert.Equal(t, 2, base.Len())
	assert.Equal(t, 3, extended.Len())

	extended.Messages[0].Content = "changed"
	assert.Equal(t, "sys", base.Messages[0].Content)
}

func TestNewMessages_CopiesInput(t *testing.T) {
	in := []Message{NewUserMessage("a")}
	m := NewMessages(in...)
	in[0].Content = "b"
	assert.Equal(t, "a", m.Messages[0].Content)
}

func TestMessages_WithToolResultsKeepsOrderAndIDs(t *testing.T) {
	results := []ToolResult{
		{CallID: "call_a", Name: "one", Content: `{"x":1}`},
		{CallID: "call_b", Name: "two", Content: `{"x":2}`},
	}

	m := NewMessages(NewUserMessage("q")).WithToolResults(results)

	require.Equal(t, 3, m.Len())
	assert.Equal(t, RoleTool, m.Messages[1].Role)
	assert.Equal(t, "call_a", m.Messages[1].ToolCallID)
	assert.Equal(t, "one", m.Messages[1].ToolName)
	assert.Equal(t, "call_b", m.Messages[2].ToolCallID)
}

func TestMessages_CloneIsDeep(t *testing.T) {
	m := NewMessages(NewAssistantMessage("", []ToolCallRequest{{ID: "1", Name: "x"}}))
	c := m.Clone()
	c.Messages[0].ToolCalls[0].Name = "y"
	assert.Equal(t, "x", m.Messages[0].ToolCalls[0].Name)
}

func TestMessages_Flatten(t *testing.T) {
	m := NewMessages(
		NewSystemMessage("be kind"),
		NewUserMessage("hello"),
		NewAssistantMessage("hi there", nil),
	)

	assert.Equal(t, "system: be kind\n\nuser: hello\n\nassistant: hi there", m.Flatten())
}

func TestMessages_FlattenNamesToolCalls(t *testing.T) {
	m := NewMessages(NewAssistantMessage("", []ToolCallRequest{{ID: "1", Name: "log_event"}}))
	assert.Equal(t, "assistant: [called log_event]", m.Flatten())
}

func TestToolCallRequest_ToWireMapDefaultsEmptyArguments(t *testing.T) {
	wire := ToolCallRequest{ID: "call_1", Name: "get_med_schedule"}.ToWireMap()
	fn := wire["function"].(map[string]any)
	assert.Equal(t, "{}", fn["arguments"])
	assert.Equal(t, "function", wire["type"])
}

func TestNewToolResult_SerialisesValue(t *testing.T) {
	r := NewToolResult("call_9", "log_event", map[string]any{"ok": true})
	assert.Equal(t, "call_9", r.CallID)
	assert.JSONEq(t, `{"ok":true}`, r.Content)
}

func TestNewToolResult_UnserialisableBecomesError(t *testing.T) {
	r := NewToolResult("call_9", "bad", map[string]any{"ch": make(chan int)})

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.Content), &decoded))
	assert.Contains(t, decoded["error"], "unserialisable")
}
