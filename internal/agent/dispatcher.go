package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/iter"

	"github.com/crystaldolphin/pillpal/internal/schema"
	"github.com/crystaldolphin/pillpal/internal/shared/llmutils"
	"github.com/crystaldolphin/pillpal/internal/tools"
)

// DefaultToolConcurrency bounds how many tool calls of one batch run at once.
const DefaultToolConcurrency = 4

// Dispatcher resolves the tool calls of one model response.
type Dispatcher struct {
	tools       *tools.ToolList
	concurrency int
	log         zerolog.Logger
}

func NewDispatcher(tls *tools.ToolList, concurrency int, log zerolog.Logger) *Dispatcher {
	if concurrency <= 0 {
		concurrency = DefaultToolConcurrency
	}
	return &Dispatcher{
		tools:       tls,
		concurrency: concurrency,
		log:         log.With().Str("component", "dispatcher").Logger(),
	}
}

// Resolve runs every call and returns one result per call, in call order.
// Unknown tools and handler failures become error payloads; the batch is
// never aborted. fallback supplies argument values, such as userId, for
// declared parameters the model omitted.
func (d *Dispatcher) Resolve(ctx context.Context, calls []schema.ToolCallRequest, fallback map[string]any) []schema.ToolResult {
	mapper := iter.Mapper[schema.ToolCallRequest, schema.ToolResult]{MaxGoroutines: d.concurrency}
	return mapper.Map(calls, func(call *schema.ToolCallRequest) schema.ToolResult {
		return d.resolveOne(ctx, *call, fallback)
	})
}

func (d *Dispatcher) resolveOne(ctx context.Context, call schema.ToolCallRequest, fallback map[string]any) (res schema.ToolResult) {
	t := d.tools.Get(call.Name)
	if t == nil {
		d.log.Warn().Str("tool", call.Name).Str("call_id", call.ID).Msg("unknown tool requested")
		return errorResult(call, "Unknown function: "+call.Name)
	}

	args := mergeFallback(parseArguments(call.RawArguments), fallback, tools.DeclaredProperties(t.Parameters()))

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Str("tool", call.Name).Interface("panic", r).Msg("tool panicked")
			res = errorResult(call, fmt.Sprintf("tool %s failed", call.Name))
		}
	}()

	out, err := t.Execute(ctx, args)
	if err != nil {
		d.log.Warn().Err(err).Str("tool", call.Name).Dur("duration", time.Since(start)).Msg("tool failed")
		return errorResult(call, err.Error())
	}

	res = schema.NewToolResult(call.ID, call.Name, out)
	d.log.Debug().
		Str("tool", call.Name).
		Str("call_id", call.ID).
		Dur("duration", time.Since(start)).
		Str("result", llmutils.Truncate(res.Content, 200)).
		Msg("tool call resolved")
	return res
}

func errorResult(call schema.ToolCallRequest, msg string) schema.ToolResult {
	return schema.NewToolResult(call.ID, call.Name, map[string]any{"error": msg})
}
