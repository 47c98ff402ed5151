package services

import (
	"encoding/json"
	"strings"
)

// RepairOutcome reports what the repair pipeline did to a model reply.
type RepairOutcome struct {
	Text     string
	Repaired bool
}

// RepairJSON normalizes a model reply into a parseable JSON object.
// Stages run in order: strip Markdown code fences, then cut the
// outermost {...} span to drop surrounding prose, then validate.
// Already-clean input passes through byte-identical, so running the
// pipeline twice is a no-op.
func RepairJSON(raw string) (RepairOutcome, error) {
	if json.Valid([]byte(raw)) {
		return RepairOutcome{Text: raw}, nil
	}

	cleaned := stripCodeFences(raw)
	if json.Valid([]byte(cleaned)) {
		return RepairOutcome{Text: cleaned, Repaired: true}, nil
	}

	if span, ok := braceSpan(cleaned); ok && json.Valid([]byte(span)) {
		return RepairOutcome{Text: span, Repaired: true}, nil
	}

	return RepairOutcome{}, &MalformedResponseError{
		Message: "model reply is not valid JSON and could not be repaired",
		Preview: preview(raw, 200),
	}
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// braceSpan returns the substring from the first '{' through the last
// '}', which discards prose the model wrapped around the object.
func braceSpan(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func preview(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
