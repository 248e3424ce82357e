package generator

import (
	"encoding/json"
	"strings"
)

// Decode parses generator output into a JSON object.
//
// It strips markdown code fences, tries a strict parse, then retries on the
// span from the first '{' to the last '}'. When nothing parses it returns
// FailurePayload. The bool reports whether the output had to be repaired or
// replaced.
func Decode(raw string) (map[string]any, bool) {
	trimmed := strings.TrimSpace(raw)

	var doc map[string]any
	if err := json.Unmarshal([]byte(trimmed), &doc); err == nil && doc != nil {
		return doc, false
	}

	body := stripCodeFence(trimmed)
	if err := json.Unmarshal([]byte(body), &doc); err == nil && doc != nil {
		return doc, true
	}

	if start := strings.Index(body, "{"); start >= 0 {
		if end := strings.LastIndex(body, "}"); end > start {
			if err := json.Unmarshal([]byte(body[start:end+1]), &doc); err == nil && doc != nil {
				return doc, true
			}
		}
	}

	return FailurePayload(), true
}

// FailurePayload is the envelope substituted for output that is not JSON.
func FailurePayload() map[string]any {
	return map[string]any{
		"status":         "failed",
		"action":         "json_extraction_failed",
		"result_summary": "Could not extract valid JSON from AI response",
		"result":         map[string]any{},
		"assumptions":    []any{"AI response was not valid JSON"},
		"confidence":     0.0,
		"next_steps":     []any{"retry_with_clearer_prompt"},
	}
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := strings.TrimLeft(trimmed[3:], " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

// Render substitutes {{key}} placeholders in template.
func Render(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
