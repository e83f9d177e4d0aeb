package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crystaldolphin/pillpal/internal/schema"
)

// fakeUpstream serves canned chat completion responses and records request bodies.
type fakeUpstream struct {
	srv     *httptest.Server
	calls   atomic.Int32
	mu      sync.Mutex
	bodies  []map[string]any
	handler func(n int, w http.ResponseWriter)
}

func newFakeUpstream(t *testing.T, handler func(n int, w http.ResponseWriter)) *fakeUpstream {
	f := &fakeUpstream{handler: handler}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(f.calls.Add(1))
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		f.mu.Lock()
		f.bodies = append(f.bodies, body)
		f.mu.Unlock()
		f.handler(n, w)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeUpstream) body(i int) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[i]
}

func (f *fakeUpstream) provider(key string) *OpenAIProvider {
	return NewOpenAIProvider(Params{APIKey: key, APIBase: f.srv.URL, DefaultModel: "test-model", Logger: zerolog.Nop()})
}

func reply(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

var testTools = []schema.ToolSpec{{
	Name:        "get_med_schedule",
	Description: "schedule",
	Parameters:  json.RawMessage(`{"type":"object","properties":{"userId":{"type":"string"}}}`),
}}

func structured() schema.ChatOptions {
	return schema.NewChatOptions("", 256, 0.2, 0.9, true)
}

func TestOpenAI_RequestShape(t *testing.T) {
	up := newFakeUpstream(t, func(_ int, w http.ResponseWriter) {
		reply(w, `{"choices":[{"message":{"content":"{\"reply\":\"Hi there\"}"},"finish_reason":"stop"}]}`)
	})

	msgs := schema.NewMessages(schema.NewSystemMessage("sys"), schema.NewUserMessage("hello"))
	resp, err := up.provider("sk-test").Chat(context.Background(), msgs, testTools, structured())
	require.NoError(t, err)
	assert.Equal(t, schema.ReplyResponse, resp.Kind)
	assert.Equal(t, "Hi there", resp.Reply.Text)

	require.EqualValues(t, 1, up.calls.Load())
	body := up.body(0)
	assert.Equal(t, "test-model", body["model"])
	assert.Equal(t, 0.9, body["top_p"])
	assert.Equal(t, "auto", body["tool_choice"])
	assert.Len(t, body["tools"], 1)

	messages := body["messages"].([]any)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])

	format := body["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	sch := format["json_schema"].(map[string]any)["schema"].(map[string]any)
	assert.Equal(t, []any{"reply"}, sch["required"])
}

func TestOpenAI_ToolCallsAndFollowUpCorrelation(t *testing.T) {
	up := newFakeUpstream(t, func(n int, w http.ResponseWriter) {
		if n == 1 {
			reply(w, `{"choices":[{"message":{"content":null,"tool_calls":[{"id":"call_42","type":"function","function":{"name":"get_med_schedule","arguments":"{}"}}]},"finish_reason":"tool_calls"}]}`)
			return
		}
		reply(w, `{"choices":[{"message":{"content":"{\"reply\":\"Metformin at 20:00\"}"}}]}`)
	})
	p := up.provider("sk-test")

	msgs := schema.NewMessages(schema.NewSystemMessage("sys"), schema.NewUserMessage("what now?"))
	first, err := p.Chat(context.Background(), msgs, testTools, structured())
	require.NoError(t, err)
	require.True(t, first.HasToolCalls())
	assert.Equal(t, "call_42", first.ToolCalls[0].ID)
	assert.Equal(t, "{}", first.ToolCalls[0].RawArguments)

	follow := msgs.
		WithAssistant(first.Content, first.ToolCalls).
		WithToolResults([]schema.ToolResult{schema.NewToolResult("call_42", "get_med_schedule", map[string]any{"date": "2026-10-16"})})
	second, err := p.Chat(context.Background(), follow, testTools, structured())
	require.NoError(t, err)
	assert.Equal(t, "Metformin at 20:00", second.Reply.Text)

	wire := up.body(1)["messages"].([]any)
	require.Len(t, wire, 4)
	assistant := wire[2].(map[string]any)
	assert.Nil(t, assistant["content"])
	assert.Equal(t, "call_42", assistant["tool_calls"].([]any)[0].(map[string]any)["id"])
	tool := wire[3].(map[string]any)
	assert.Equal(t, "tool", tool["role"])
	assert.Equal(t, "call_42", tool["tool_call_id"])
	assert.Contains(t, tool["content"], "2026-10-16")
}

func TestOpenAI_RateLimitBodyTruncated(t *testing.T) {
	long := strings.Repeat("x", 10_000)
	up := newFakeUpstream(t, func(_ int, w http.ResponseWriter) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, long)
	})

	_, err := up.provider("sk-test").Chat(context.Background(), schema.NewMessages(schema.NewUserMessage("hi")), nil, structured())

	var perr *schema.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusTooManyRequests, perr.Status)
	assert.LessOrEqual(t, len([]rune(perr.Body)), schema.MaxErrorBodyChars+1)
	assert.Contains(t, err.Error(), "429")
}

func TestOpenAI_MalformedResponses(t *testing.T) {
	for name, body := range map[string]string{
		"not json":      "<html>gateway</html>",
		"empty choices": `{"choices":[]}`,
	} {
		t.Run(name, func(t *testing.T) {
			up := newFakeUpstream(t, func(_ int, w http.ResponseWriter) { reply(w, body) })

			_, err := up.provider("sk-test").Chat(context.Background(), schema.NewMessages(schema.NewUserMessage("hi")), nil, structured())

			var mre *schema.MalformedResponseError
			assert.True(t, errors.As(err, &mre), "got %v", err)
		})
	}
}

func TestOpenAI_MissingKeyMakesNoCall(t *testing.T) {
	up := newFakeUpstream(t, func(_ int, w http.ResponseWriter) { reply(w, `{}`) })

	_, err := up.provider("  ").Chat(context.Background(), schema.NewMessages(schema.NewUserMessage("hi")), nil, structured())

	var cfgErr *schema.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Zero(t, up.calls.Load())
}

func TestOpenAI_PlainTextWhenUnstructured(t *testing.T) {
	up := newFakeUpstream(t, func(_ int, w http.ResponseWriter) {
		reply(w, `{"choices":[{"message":{"content":"<think>hmm</think>Take it with food."}}]}`)
	})
	opts := schema.NewChatOptions("", 0, 0, 0, false)

	resp, err := up.provider("sk-test").Chat(context.Background(), schema.NewMessages(schema.NewUserMessage("hi")), nil, opts)
	require.NoError(t, err)
	assert.Equal(t, "Take it with food.", resp.Reply.Text)
	assert.NotContains(t, up.body(0), "response_format")
	assert.NotContains(t, up.body(0), "top_p")
}

func TestOpenAI_TransportFailure(t *testing.T) {
	p := NewOpenAIProvider(Params{APIKey: "sk-test", APIBase: "http://127.0.0.1:1", Logger: zerolog.Nop()})

	_, err := p.Chat(context.Background(), schema.NewMessages(schema.NewUserMessage("hi")), nil, structured())

	var perr *schema.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Zero(t, perr.Status)
	assert.True(t, perr.Retryable())
}
