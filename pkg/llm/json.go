package llm

import (
	"encoding/json"
	"strings"
)

// The repair chain tolerates the ways models mangle JSON: markdown fences,
// prose around the object, smart quotes, stray control characters. Each
// strategy is a pure function; they are tried in order and the first parse
// wins. If every strategy fails the caller gets the zero value and ok=false
// rather than an error, so a single malformed response degrades into
// "discovered nothing" instead of crashing the pipeline.

// ParseJSONResponse decodes a model response into T using the layered
// repair chain: strict parse, sanitized parse, balanced-substring
// extraction, then empty fallback.
func ParseJSONResponse[T any](response string) (T, bool) {
	var result T

	for _, candidate := range repairCandidates(response) {
		if err := json.Unmarshal([]byte(candidate), &result); err == nil {
			return result, true
		}
		// Reset partial decoding before the next attempt.
		var zero T
		result = zero
	}

	var zero T
	return zero, false
}

// repairCandidates returns the ordered parse attempts for a response.
func repairCandidates(response string) []string {
	var candidates []string

	trimmed := strings.TrimSpace(response)
	if trimmed != "" {
		candidates = append(candidates, trimmed)
	}

	sanitized := Sanitize(trimmed)
	if sanitized != trimmed && sanitized != "" {
		candidates = append(candidates, sanitized)
	}

	if extracted, ok := extractBalanced(sanitized, '{', '}'); ok {
		candidates = append(candidates, extracted)
	}
	if extracted, ok := extractBalanced(sanitized, '[', ']'); ok {
		candidates = append(candidates, extracted)
	}

	return candidates
}

// Sanitize normalizes smart quotes and strips control characters that
// commonly break strict JSON parsing of LLM output.
func Sanitize(s string) string {
	replacer := strings.NewReplacer(
		"“", `"`, // left double quote
		"”", `"`, // right double quote
		"‘", "'", // left single quote
		"’", "'", // right single quote
	)
	s = replacer.Replace(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// extractBalanced finds the longest balanced structure starting at the
// first openChar, tracking string literals and escapes so brackets inside
// strings don't affect depth.
func extractBalanced(s string, openChar, closeChar byte) (string, bool) {
	start := strings.IndexByte(s, openChar)
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}

		if c == '\\' && inString {
			escaped = true
			continue
		}

		if c == '"' {
			inString = !inString
			continue
		}

		if inString {
			continue
		}

		if c == openChar {
			depth++
		} else if c == closeChar {
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}
