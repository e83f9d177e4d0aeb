package schema

import "strings"

// Messages is the ordered list of messages exchanged with the LLM.
//
// A Messages value is never extended in place: every With method returns a
// new list backed by its own slice, so a conversation handed to a provider
// stays exactly as it was sent.
type Messages struct {
	Messages []Message
}

// NewMessages returns a Messages initialised with a copy of the given messages.
// Called with no arguments it returns an empty Messages ready for use.
func NewMessages(msgs ...Message) Messages {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return Messages{Messages: out}
}

// Len reports the number of messages.
func (m Messages) Len() int { return len(m.Messages) }

// With returns a new list holding m followed by msgs.
func (m Messages) With(msgs ...Message) Messages {
	out := make([]Message, 0, len(m.Messages)+len(msgs))
	out = append(out, m.Messages...)
	out = append(out, msgs...)
	return Messages{Messages: out}
}

// WithAssistant returns a new list with an assistant turn appended.
func (m Messages) WithAssistant(content string, toolCalls []ToolCallRequest) Messages {
	return m.With(NewAssistantMessage(content, toolCalls))
}

// WithToolResults returns a new list with one tool message per result,
// in the order given.
func (m Messages) WithToolResults(results []ToolResult) Messages {
	msgs := make([]Message, len(results))
	for i, r := range results {
		msgs[i] = NewToolResultMessage(r)
	}
	return m.With(msgs...)
}

// Clone returns a deep copy of m with an independent backing slice.
func (m Messages) Clone() Messages {
	out := make([]Message, len(m.Messages))
	for i, msg := range m.Messages {
		out[i] = msg
		if len(msg.ToolCalls) > 0 {
			out[i].ToolCalls = append([]ToolCallRequest(nil), msg.ToolCalls...)
		}
	}
	return Messages{Messages: out}
}

// Flatten renders the conversation as "<role>: <content>" blocks separated by
// a blank line, for endpoints that take a single text input.
//
// The encoding is lossy. Role boundaries survive only as text, so content
// that itself contains "user: " lines cannot be told apart from a real turn,
// and tool call ids are dropped.
func (m Messages) Flatten() string {
	parts := make([]string, 0, len(m.Messages))
	for _, msg := range m.Messages {
		content := msg.Content
		if msg.Role == RoleAssistant && content == "" && len(msg.ToolCalls) > 0 {
			names := make([]string, len(msg.ToolCalls))
			for i, tc := range msg.ToolCalls {
				names[i] = tc.Name
			}
			content = "[called " + strings.Join(names, ", ") + "]"
		}
		parts = append(parts, msg.Role+": "+content)
	}
	return strings.Join(parts, "\n\n")
}
