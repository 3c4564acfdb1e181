package usecase

import (
	"strings"

	"InsightDigest/internal/domain"
)

// ExtractPayload pulls a JSON object out of a chat completion. Models wrap
// answers in markdown fences or add prose around the object, so the text is
// unfenced first, then scanned for the first balanced {...} run. Anything
// that still fails to parse yields an empty payload rather than an error.
func ExtractPayload(text string) domain.Payload {
	text = unfence(strings.TrimSpace(text))

	if candidate, ok := balancedObject(text); ok {
		var p domain.Payload
		if err := p.UnmarshalJSON([]byte(candidate)); err == nil {
			return p
		}
	}

	var p domain.Payload
	if err := p.UnmarshalJSON([]byte(text)); err != nil {
		return domain.Payload{}
	}
	return p
}

// unfence strips markdown code fences, keeping the first fragment that
// contains an opening brace. Language tags after the fence are discarded.
func unfence(text string) string {
	if !strings.Contains(text, "```") {
		return text
	}
	for _, fragment := range strings.Split(text, "```") {
		fragment = strings.TrimSpace(fragment)
		if tagged, ok := strings.CutPrefix(fragment, "json"); ok {
			fragment = strings.TrimSpace(tagged)
		}
		if strings.Contains(fragment, "{") {
			return fragment
		}
	}
	return text
}

// balancedObject returns the substring from the first '{' to its matching
// '}', tracking brace depth through string literals and escapes.
func balancedObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
