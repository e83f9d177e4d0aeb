package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/crystaldolphin/pillpal/internal/agent"
	serverconfig "github.com/crystaldolphin/pillpal/internal/config/server"
	"github.com/crystaldolphin/pillpal/internal/schema"
)

// Replier produces an assistant reply for one turn.
type Replier interface {
	Reply(ctx context.Context, turn agent.Turn, onProgress func(string)) (schema.AgentReply, error)
}

type requestState string

const (
	stateReceived   requestState = "RECEIVED"
	stateValidated  requestState = "VALIDATED"
	stateProcessing requestState = "PROCESSING"
	stateResponded  requestState = "RESPONDED"
	stateErrored    requestState = "ERRORED"
)

// ChatHandler serves POST /chat.
type ChatHandler struct {
	pipeline Replier
}

func NewChatHandler(pipeline Replier) *ChatHandler {
	return &ChatHandler{pipeline: pipeline}
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		w.Header().Set("Allow", "POST, OPTIONS")
		writeError(w, http.StatusMethodNotAllowed, "method "+r.Method+" not allowed")
		return
	}

	log := zerolog.Ctx(r.Context())
	state := stateReceived
	advance := func(next requestState) {
		log.Trace().Str("from", string(state)).Str("to", string(next)).Msg("chat state")
		state = next
	}
	defer func() { log.Debug().Str("state", string(state)).Msg("chat request finished") }()

	req, err := decodeChatRequest(w, r)
	if err != nil {
		advance(stateErrored)
		h.fail(w, log, err)
		return
	}
	advance(stateValidated)

	turn := agent.Turn{
		RequestID: w.Header().Get(RequestIDHeader),
		UserID:    req.UserID,
		History:   req.history(),
	}
	advance(stateProcessing)
	reply, err := h.pipeline.Reply(r.Context(), turn, nil)
	if err != nil {
		advance(stateErrored)
		h.fail(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, reply)
	advance(stateResponded)
}

// fail logs err and writes its client-facing form.
func (h *ChatHandler) fail(w http.ResponseWriter, log *zerolog.Logger, err error) {
	status, msg := classify(err)
	ev := log.Error()
	if status < http.StatusInternalServerError {
		ev = log.Warn()
	}
	ev.Err(err).Int("status", status).Msg("chat request failed")
	writeError(w, status, msg)
}

// classify maps an error to an HTTP status and a message safe to show callers.
func classify(err error) (int, string) {
	var (
		validation *schema.ValidationError
		cfg        *schema.ConfigurationError
		provider   *schema.ProviderError
		malformed  *schema.MalformedResponseError
		timeout    *schema.TimeoutError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Error()
	case errors.As(err, &cfg):
		return http.StatusInternalServerError, "server is not configured: " + cfg.Reason
	case errors.As(err, &provider):
		return http.StatusInternalServerError, "upstream provider failed: " + provider.Error()
	case errors.As(err, &malformed):
		return http.StatusInternalServerError, "upstream provider failed: " + malformed.Reason
	case errors.As(err, &timeout):
		return http.StatusInternalServerError, "upstream provider failed: " + timeout.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

func healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, http.StatusMethodNotAllowed, "method "+r.Method+" not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NewMux routes /chat and /healthz behind the CORS and request-log middleware.
func NewMux(chat *ChatHandler, cors serverconfig.CORSConfig, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/chat", chat)
	mux.HandleFunc("/healthz", healthz)
	return withRequestLog(log, withCORS(cors, mux))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
