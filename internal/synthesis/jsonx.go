// Package synthesis drives the text-generation capability: curated-script
// synthesis from recorded takes, live comparison of a spoken utterance
// against the curated script, and full-script composition across slides.
//
// Models asked for JSON routinely wrap the object in prose or code fences, so
// every JSON-mode response goes through defensive extraction before parsing,
// with fallback paths that never leave a half-written result.
package synthesis

import "strings"

// extractJSONObject returns the first balanced top-level JSON object embedded
// in text. The scan is string-aware so braces inside string values do not
// unbalance it. Returns false when no balanced object is found.
func extractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
