package tools

import (
	"context"
	"encoding/json"
	"maps"
	"time"

	"github.com/google/uuid"
)

// LogEventArgs are the parameters accepted by log_event. Type is free-form:
// unknown event types are recorded as given.
type LogEventArgs struct {
	UserID     string `json:"userId,omitempty" jsonschema_description:"Identifier of the user the event belongs to."`
	Type       string `json:"type" jsonschema_description:"Kind of event, e.g. dose_taken, missed_dose, symptom, mood, note."`
	Note       string `json:"note,omitempty" jsonschema_description:"Free-text details in the user's words."`
	OccurredAt string `json:"occurredAt,omitempty" jsonschema_description:"When the event happened (RFC 3339), if the user said."`
}

var logEventSchema = GenerateSchema[LogEventArgs]()

// LogEventTool records a journal entry. Nothing is persisted; the tool
// returns the record a real store would have written.
type LogEventTool struct {
	now   func() time.Time
	newID func() string
}

// NewLogEventTool creates the tool. Nil arguments fall back to time.Now and
// random UUIDs.
func NewLogEventTool(now func() time.Time, newID func() string) *LogEventTool {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return &LogEventTool{now: now, newID: newID}
}

func (t *LogEventTool) Name() string { return string(ToolLogEvent) }
func (t *LogEventTool) Description() string {
	return "Log an event to the user's care journal, such as a taken or missed dose, a symptom or a mood."
}
func (t *LogEventTool) Parameters() json.RawMessage { return logEventSchema }

// Execute returns a copy of args with id and loggedAt added. Every value,
// including keys the schema does not declare, is kept as given.
func (t *LogEventTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	record := make(map[string]any, len(args)+3)
	maps.Copy(record, args)
	record["id"] = t.newID()
	record["loggedAt"] = t.now().UTC().Format(time.RFC3339Nano)
	if rid := TurnCtx(ctx).RequestID; rid != "" {
		record["requestId"] = rid
	}
	return record, nil
}
