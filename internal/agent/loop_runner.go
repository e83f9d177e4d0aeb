package agent

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/crystaldolphin/pillpal/internal/schema"
	"github.com/crystaldolphin/pillpal/internal/shared/llmutils"
	"github.com/crystaldolphin/pillpal/internal/tools"
)

// Turn is one inbound request: the caller's history plus who is asking.
type Turn struct {
	RequestID string
	UserID    string
	History   schema.Messages
}

// Pipeline runs assemble → complete → dispatch → complete for one Turn.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	provider   schema.LLMProvider
	context    *ContextBuilder
	tools      *tools.ToolList
	dispatcher *Dispatcher
	settings   Settings
	log        zerolog.Logger
}

// Reply produces the assistant's answer to turn. onProgress, when non-nil,
// receives a short hint before each tool batch runs.
func (p *Pipeline) Reply(ctx context.Context, turn Turn, onProgress func(string)) (schema.AgentReply, error) {
	start := time.Now()
	log := p.log.With().Str("request_id", turn.RequestID).Logger()

	ctx = tools.WithTurn(ctx, tools.TurnContext{RequestID: turn.RequestID, UserID: turn.UserID})
	var fallback map[string]any
	if turn.UserID != "" {
		fallback = map[string]any{"userId": turn.UserID}
	}

	conversation := p.context.BuildMessages(turn.History)
	specs := p.tools.Specs()
	opts := p.settings.chatOptions()

	for round := 0; ; round++ {
		resp, err := p.provider.Chat(ctx, conversation, specs, opts)
		if err != nil {
			return schema.AgentReply{}, err
		}

		if !resp.HasToolCalls() {
			log.Info().Int("rounds", round).Dur("duration", time.Since(start)).Msg("reply ready")
			return resp.Reply, nil
		}

		if round >= p.settings.MaxToolRounds {
			log.Warn().Int("rounds", round).Str("tools", llmutils.ToolHint(resp.ToolCalls)).
				Msg("tool round limit reached, answering without further calls")
			return schema.AgentReply{Text: llmutils.StringOrDefault(llmutils.StripThink(resp.Content), schema.FallbackReplyText)}, nil
		}

		hint := llmutils.ToolHint(resp.ToolCalls)
		log.Info().Int("round", round+1).Str("tools", hint).Msg("dispatching tool calls")
		if onProgress != nil {
			onProgress(hint)
		}

		results := p.dispatcher.Resolve(ctx, resp.ToolCalls, fallback)
		conversation = conversation.
			WithAssistant(resp.Content, resp.ToolCalls).
			WithToolResults(results)
	}
}

// ReplyText is Reply for a single user message with no prior history.
func (p *Pipeline) ReplyText(ctx context.Context, userID, message string) (string, error) {
	reply, err := p.Reply(ctx, Turn{UserID: userID, History: FromSingleTurn(message)}, nil)
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}

func (p *Pipeline) SystemPrompt() string { return p.context.SystemPrompt() }
