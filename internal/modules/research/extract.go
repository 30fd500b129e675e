package research

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ExtractJSON finds the span running from the first '{' or '[' in text to the
// last matching closer of the same kind and parses it. Matching is greedy, not
// bracket balanced: two independent objects in one reply are captured as one
// span and fail to parse. It returns (nil, false) when no span parses.
func ExtractJSON(text string) (any, bool) {
	span, ok := candidateSpan(text)
	if !ok {
		return nil, false
	}
	return parseSpan(span)
}

// ExtractObject is ExtractJSON restricted to a '{' ... '}' span.
func ExtractObject(text string) (map[string]any, bool) {
	span, ok := spanBetween(text, '{', '}')
	if !ok {
		return nil, false
	}
	v, ok := parseSpan(span)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// ExtractArray is ExtractJSON restricted to a '[' ... ']' span.
func ExtractArray(text string) ([]any, bool) {
	span, ok := spanBetween(text, '[', ']')
	if !ok {
		return nil, false
	}
	v, ok := parseSpan(span)
	if !ok {
		return nil, false
	}
	a, ok := v.([]any)
	return a, ok
}

func candidateSpan(text string) (string, bool) {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", false
	}
	if text[start] == '[' {
		return spanBetween(text, '[', ']')
	}
	return spanBetween(text, '{', '}')
}

func spanBetween(text string, open, closer byte) (string, bool) {
	start := strings.IndexByte(text, open)
	if start < 0 {
		return "", false
	}
	end := strings.LastIndexByte(text, closer)
	if end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func parseSpan(span string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(span), &v); err != nil {
		return nil, false
	}
	return v, true
}

// extractRecord is the extraction step of the pipeline: an object span is
// preferred since records are objects, then any JSON span, then a repaired
// span. Repair runs only when a bracketed span exists so plain prose is
// never coerced into JSON.
func extractRecord(raw string) (any, bool) {
	cleaned := cleanJSONString(raw)
	if m, ok := ExtractObject(cleaned); ok {
		return m, true
	}
	if v, ok := ExtractJSON(cleaned); ok {
		return v, true
	}
	return repairJSON(cleaned)
}

// repairJSON runs jsonrepair over the candidate span and accepts the result
// only if it decodes to an object or array.
func repairJSON(text string) (any, bool) {
	span, ok := spanBetween(text, '{', '}')
	if !ok {
		span, ok = candidateSpan(text)
	}
	if !ok {
		// An opening brace with a truncated tail is still worth repairing.
		start := strings.IndexAny(text, "{[")
		if start < 0 {
			return nil, false
		}
		span = text[start:]
	}

	repaired, err := jsonrepair.JSONRepair(span)
	if err != nil {
		return nil, false
	}
	v, ok := parseSpan(repaired)
	if !ok {
		return nil, false
	}
	switch v.(type) {
	case map[string]any, []any:
		return v, true
	default:
		return nil, false
	}
}

// cleanJSONString removes a BOM and markdown code fences if present (e.g. ```json ... ```).
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "\uFEFF")
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```JSON")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
