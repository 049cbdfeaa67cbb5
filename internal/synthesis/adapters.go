package synthesis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// stringOrList normalizes the shape variants models produce for list-valued
// fields. Accepted raw shapes: a JSON array of strings, a single JSON string
// (split on newlines), or null. Anything else is rejected rather than
// silently coerced.
type stringOrList []string

func (s *stringOrList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*s = nil
		return nil
	}

	switch {
	case strings.HasPrefix(trimmed, "["):
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("synthesis: list field: %w", err)
		}
		*s = cleanLines(items)
		return nil
	case strings.HasPrefix(trimmed, `"`):
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return fmt.Errorf("synthesis: string field: %w", err)
		}
		*s = cleanLines(strings.Split(text, "\n"))
		return nil
	default:
		return fmt.Errorf("synthesis: unsupported field shape %s", abbreviate(trimmed))
	}
}

// cleanLines trims each entry and drops empties.
func cleanLines(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func abbreviate(s string) string {
	const max = 40
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// firstString returns the first non-empty string among the raw fields,
// tolerating the field-name variants models use.
func firstString(fields map[string]json.RawMessage, names ...string) string {
	for _, name := range names {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			return text
		}
	}
	return ""
}

// firstList returns the first present list-valued field among names,
// normalized through [stringOrList].
func firstList(fields map[string]json.RawMessage, names ...string) []string {
	for _, name := range names {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		var list stringOrList
		if err := json.Unmarshal(raw, &list); err != nil {
			continue
		}
		if len(list) > 0 {
			return list
		}
	}
	return nil
}
