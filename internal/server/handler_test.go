package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crystaldolphin/pillpal/internal/agent"
	serverconfig "github.com/crystaldolphin/pillpal/internal/config/server"
	"github.com/crystaldolphin/pillpal/internal/providers"
	"github.com/crystaldolphin/pillpal/internal/schema"
	"github.com/crystaldolphin/pillpal/internal/tools"
)

// upstream is a fake OpenAI-compatible endpoint answering with scripted bodies.
type upstream struct {
	srv    *httptest.Server
	calls  atomic.Int32
	mu     sync.Mutex
	bodies []map[string]any
}

func newUpstream(t *testing.T, respond func(n int, w http.ResponseWriter)) *upstream {
	u := &upstream{}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(u.calls.Add(1))
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		u.mu.Lock()
		u.bodies = append(u.bodies, body)
		u.mu.Unlock()
		respond(n, w)
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func (u *upstream) body(i int) map[string]any {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.bodies[i]
}

func okBody(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

func fixedNow() time.Time { return time.Date(2026, 10, 16, 19, 30, 0, 0, time.UTC) }

// newTestServer wires the real pipeline against u. An empty key leaves the
// provider unconfigured.
func newTestServer(t *testing.T, u *upstream, apiKey string) *httptest.Server {
	provider, err := providers.New(providers.Params{
		API:        "chat",
		APIKey:     apiKey,
		APIBase:    u.srv.URL,
		MaxRetries: 0,
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)

	registry := tools.NewRegistryBuilder().WithDefaults(fixedNow).Build()
	pipeline := agent.NewPipeline(provider, registry, agent.Settings{StructuredReply: true}, zerolog.Nop())

	srv := httptest.NewServer(NewMux(NewChatHandler(pipeline), serverconfig.DefaultServerConfig().CORS, zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, body string) (*http.Response, map[string]any) {
	resp, err := http.Post(srv.URL+"/chat", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	}
	return resp, out
}

func TestChat_SingleTurnReply(t *testing.T) {
	u := newUpstream(t, func(_ int, w http.ResponseWriter) {
		okBody(w, `{"choices":[{"message":{"content":"{\"reply\":\"That's okay. Take it now if it's within a few hours.\"}"}}]}`)
	})
	srv := newTestServer(t, u, "sk-test")

	resp, out := post(t, srv, `{"messages":[{"role":"user","content":"I missed my evening pill"}],"userId":"u1"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, out["reply"])
	assert.Len(t, out, 1)

	messages := u.body(0)["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "I missed my evening pill", messages[1].(map[string]any)["content"])
}

func TestChat_ToolRoundTripUsesFallbackUserID(t *testing.T) {
	u := newUpstream(t, func(n int, w http.ResponseWriter) {
		if n == 1 {
			okBody(w, `{"choices":[{"message":{"content":null,"tool_calls":[{"id":"call_1","type":"function","function":{"name":"get_med_schedule","arguments":"{}"}}]}}]}`)
			return
		}
		okBody(w, `{"choices":[{"message":{"content":"{\"reply\":\"Your next dose is Metformin at 20:00.\"}"}}]}`)
	})
	srv := newTestServer(t, u, "sk-test")

	resp, out := post(t, srv, `{"messages":[{"role":"user","content":"What do I take tonight?"}],"userId":"u1"}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Your next dose is Metformin at 20:00.", out["reply"])
	require.EqualValues(t, 2, u.calls.Load())

	follow := u.body(1)["messages"].([]any)
	last := follow[len(follow)-1].(map[string]any)
	assert.Equal(t, "tool", last["role"])
	assert.Equal(t, "call_1", last["tool_call_id"])

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(last["content"].(string)), &result))
	assert.Equal(t, "u1", result["userId"])
	assert.Equal(t, "2026-10-16", result["date"])
}

func TestChat_UpstreamRateLimit(t *testing.T) {
	long := strings.Repeat("r", 10_000)
	u := newUpstream(t, func(_ int, w http.ResponseWriter) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, long)
	})
	srv := newTestServer(t, u, "sk-test")

	resp, out := post(t, srv, `{"messages":[{"role":"user","content":"hi"}]}`)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	msg := out["error"].(string)
	assert.Contains(t, msg, "429")
	assert.NotContains(t, msg, long)
	assert.Less(t, len(msg), 1000)
}

func TestChat_Preflight(t *testing.T) {
	u := newUpstream(t, func(int, http.ResponseWriter) {})
	srv := newTestServer(t, u, "sk-test")

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/chat", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, body)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", resp.Header.Get("Access-Control-Allow-Headers"))
	assert.Zero(t, u.calls.Load())
}

func TestChat_MethodNotAllowed(t *testing.T) {
	u := newUpstream(t, func(int, http.ResponseWriter) {})
	srv := newTestServer(t, u, "sk-test")

	resp, err := http.Get(srv.URL + "/chat")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "POST, OPTIONS", resp.Header.Get("Allow"))
	assert.Zero(t, u.calls.Load())
}

func TestChat_InvalidBodies(t *testing.T) {
	cases := map[string]string{
		"not json":        `{"messages":`,
		"empty body":      ``,
		"no messages":     `{"userId":"u1"}`,
		"empty messages":  `{"messages":[]}`,
		"bad role":        `{"messages":[{"role":"tool","content":"x"}]}`,
		"blank content":   `{"messages":[{"role":"user","content":"   "}]}`,
		"content type":    `{"messages":[{"role":"user","content":42}]}`,
		"userId type":     `{"messages":[{"role":"user","content":"hi"}],"userId":7}`,
		"single message":  `{"message":"hi"}`,
		"extra field":     `{"messages":[{"role":"user","content":"hi"}],"stream":true}`,
		"messages object": `{"messages":{"role":"user","content":"hi"}}`,
	}
	u := newUpstream(t, func(int, http.ResponseWriter) {})
	srv := newTestServer(t, u, "sk-test")

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp, out := post(t, srv, body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, out["error"])
		})
	}
	assert.Zero(t, u.calls.Load())
}

func TestChat_SingleMessageFieldExplained(t *testing.T) {
	u := newUpstream(t, func(int, http.ResponseWriter) {})
	srv := newTestServer(t, u, "sk-test")

	_, out := post(t, srv, `{"message":"hi"}`)

	assert.Contains(t, out["error"], `"messages"`)
}

func TestDecodeChatRequest_BodyTooLarge(t *testing.T) {
	big := `{"messages":[{"role":"user","content":"` + strings.Repeat("a", MaxBodyBytes) + `"}]}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(big))

	_, err := decodeChatRequest(httptest.NewRecorder(), req)

	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "exceeds")
}

func TestDecodeChatRequest_KeepsOrderAndUserID(t *testing.T) {
	body := `{"messages":[{"role":"system","content":"note"},{"role":"user","content":"a"},{"role":"assistant","content":"b"}],"userId":"u2"}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))

	got, err := decodeChatRequest(httptest.NewRecorder(), req)
	require.NoError(t, err)

	assert.Equal(t, "u2", got.UserID)
	history := got.history()
	require.Equal(t, 3, history.Len())
	assert.Equal(t, schema.RoleSystem, history.Messages[0].Role)
	assert.Equal(t, "b", history.Messages[2].Content)
}

func TestChat_MissingCredential(t *testing.T) {
	u := newUpstream(t, func(_ int, w http.ResponseWriter) { okBody(w, `{}`) })
	srv := newTestServer(t, u, "")

	resp, out := post(t, srv, `{"messages":[{"role":"user","content":"hi"}],"userId":"u1"}`)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, out["error"], "server is not configured")
	assert.Zero(t, u.calls.Load())
}

func TestChat_MalformedUpstream(t *testing.T) {
	u := newUpstream(t, func(_ int, w http.ResponseWriter) { okBody(w, `{"choices":[]}`) })
	srv := newTestServer(t, u, "sk-test")

	resp, out := post(t, srv, `{"messages":[{"role":"user","content":"hi"}]}`)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, out["error"], "upstream provider failed")
}

func TestChat_RequestIDEchoed(t *testing.T) {
	u := newUpstream(t, func(_ int, w http.ResponseWriter) {
		okBody(w, `{"choices":[{"message":{"content":"{\"reply\":\"ok\"}"}}]}`)
	})
	srv := newTestServer(t, u, "sk-test")

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/chat", strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "req-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "req-123", resp.Header.Get(RequestIDHeader))
}

func TestHealthz(t *testing.T) {
	u := newUpstream(t, func(int, http.ResponseWriter) {})
	srv := newTestServer(t, u, "")

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", out["status"])
}
