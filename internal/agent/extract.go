package agent

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
)

// ExtractJSON pulls one JSON object out of raw LLM output and unmarshals it
// into v. Models wrap JSON in prose, code fences, HTML entities, and raw
// newlines inside strings; four strategies are tried in order before giving up.
func ExtractJSON(raw string, v interface{}) error {
	candidates := make([]string, 0, 4)

	if fenced := fencedBlock(raw); fenced != "" {
		candidates = append(candidates, fenced)
	}
	if sliced := braceSlice(raw); sliced != "" {
		candidates = append(candidates, sliced)
	}

	var lastErr error
	for _, c := range candidates {
		if err := json.Unmarshal([]byte(c), v); err == nil {
			return nil
		} else {
			lastErr = err
		}

		// Entity-escaped output ("&quot;", "&lt;br&gt;") from some models.
		decoded := html.UnescapeString(c)
		if decoded != c {
			if err := json.Unmarshal([]byte(decoded), v); err == nil {
				return nil
			} else {
				lastErr = err
			}
		}

		// Literal newlines inside string values break the JSON grammar;
		// turn them into <br> so downstream rendering keeps the break.
		fixed := escapeStringNewlines(c)
		if fixed != c {
			if err := json.Unmarshal([]byte(fixed), v); err == nil {
				return nil
			} else {
				lastErr = err
			}
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no JSON object found")
	}
	return fmt.Errorf("extract json: %w", lastErr)
}

// fencedBlock returns the body of the first ```json ... ``` (or bare ```)
// fenced block, or "".
func fencedBlock(s string) string {
	start := strings.Index(s, "```")
	if start < 0 {
		return ""
	}
	rest := s[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		// drop the language tag line ("json", "JSON", or empty)
		tag := strings.TrimSpace(rest[:nl])
		if tag == "" || strings.EqualFold(tag, "json") {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}

// braceSlice returns the substring from the first '{' to the last '}', or "".
func braceSlice(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// escapeStringNewlines replaces raw newlines that occur inside JSON string
// literals with "<br>", leaving structural whitespace alone.
func escapeStringNewlines(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
			b.WriteByte(c)
		case c == '\\' && inString:
			escaped = true
			b.WriteByte(c)
		case c == '"':
			inString = !inString
			b.WriteByte(c)
		case (c == '\n' || c == '\r') && inString:
			if c == '\r' && i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
			b.WriteString("<br>")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
