package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseArguments decodes a tool call's raw argument text. It never fails:
// anything that cannot be read as a JSON object becomes an empty map.
func parseArguments(raw string) map[string]any {
	args, err := repairJSON(raw)
	if err != nil || args == nil {
		return map[string]any{}
	}
	return args
}

// repairJSON attempts to parse raw as a JSON object, recovering from the
// truncated or trailing-garbage output some models emit.
func repairJSON(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err == nil {
		return out, nil
	}

	// Attempt 1: trim trailing non-JSON characters.
	stripped := strings.TrimRight(raw, " \t\n\r}]")
	if !strings.HasSuffix(stripped, "}") {
		stripped += "}"
	}
	if err := json.Unmarshal([]byte(stripped), &out); err == nil {
		return out, nil
	}

	// Attempt 2: find the last complete JSON object.
	if i := strings.LastIndex(raw, "}"); i >= 0 {
		if err := json.Unmarshal([]byte(raw[:i+1]), &out); err == nil {
			return out, nil
		}
	}

	return map[string]any{}, fmt.Errorf("cannot repair JSON: %s", raw)
}

// mergeFallback returns args plus every fallback key the tool declares and
// the model left out or empty. args is not modified.
func mergeFallback(args, fallback map[string]any, declared map[string]bool) map[string]any {
	out := make(map[string]any, len(args)+len(fallback))
	for k, v := range args {
		out[k] = v
	}
	for k, v := range fallback {
		if !declared[k] {
			continue
		}
		if cur, ok := out[k]; ok && !isEmpty(cur) {
			continue
		}
		out[k] = v
	}
	return out
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}
