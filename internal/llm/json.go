package llm

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// ParseJSONResponse parses a JSON object from an LLM, handling markdown code blocks.
func ParseJSONResponse(text string) map[string]any {
	obj, ok := ParseJSONValue(text).(map[string]any)
	if !ok {
		return nil
	}
	return obj
}

// ParseJSONValue parses any JSON value from an LLM response. It returns nil
// when the text is not valid JSON.
func ParseJSONValue(text string) any {
	text = stripFences(text)
	if text == "" {
		return nil
	}

	var result any
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		slog.Debug("failed to parse LLM response as JSON", "error", err)
		return nil
	}
	return result
}

// StringList extracts a list of strings from a parsed response: the value
// itself when it is an array, else the value under key, else the first array
// found in the object. Non-string and blank entries are dropped.
func StringList(v any, key string) []string {
	switch val := v.(type) {
	case []any:
		return toStrings(val)
	case map[string]any:
		if arr, ok := val[key].([]any); ok {
			return toStrings(arr)
		}
		for _, field := range val {
			if arr, ok := field.([]any); ok {
				return toStrings(arr)
			}
		}
	}
	return nil
}

func toStrings(arr []any) []string {
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	endIdx := len(lines)
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			endIdx = i
			break
		}
	}
	if endIdx <= 1 {
		return ""
	}
	return strings.TrimSpace(strings.Join(lines[1:endIdx], "\n"))
}
