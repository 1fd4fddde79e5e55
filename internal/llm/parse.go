package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSONArray parses a JSON array of strings out of raw model output.
// Markdown code fences and surrounding prose are tolerated; the first
// top-level array found is used. Blank elements are dropped.
func ExtractJSONArray(raw string) ([]string, error) {
	cleaned := stripFences(raw)

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array in output: %q", truncate(raw, 120))
	}

	var items []string
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("parse JSON array: %w", err)
	}

	var out []string
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// ExtractJSONObject parses a JSON object out of raw model output into v,
// tolerating code fences and surrounding prose.
func ExtractJSONObject(raw string, v any) error {
	cleaned := stripFences(raw)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return fmt.Errorf("no JSON object in output: %q", truncate(raw, 120))
	}

	if err := json.Unmarshal([]byte(cleaned[start:end+1]), v); err != nil {
		return fmt.Errorf("parse JSON object: %w", err)
	}
	return nil
}

// stripFences removes markdown code fences, keeping their content.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.Contains(s, "```") {
		return s
	}
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
