package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"fintrack/internal/core"
)

// Sanitize strips Markdown code fences and any prose around the first
// complete JSON array. Bracketed prose that does not decode is skipped.
// When no array decodes, the span from the first '[' to the last ']' is
// returned so that ParseArray reports it. The JSON is never repaired.
func Sanitize(raw string) string {
	s := strings.TrimSpace(raw)
	s = stripFences(s)

	if arr, ok := firstArray(s); ok {
		return arr
	}

	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// firstArray returns the first substring starting at a '[' that decodes
// as a whole JSON array. A truncated array ends the search so that nested
// arrays inside it are never returned.
func firstArray(s string) (string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] != '[' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(s[i:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return "", false
			}
			continue
		}
		return s[i : i+int(dec.InputOffset())], true
	}
	return "", false
}

func stripFences(s string) string {
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseArray strictly decodes candidate as a JSON array. Anything else,
// including trailing data after the array, is malformed output.
func ParseArray(candidate string) ([]json.RawMessage, error) {
	dec := json.NewDecoder(strings.NewReader(candidate))

	var elems []json.RawMessage
	if err := dec.Decode(&elems); err != nil {
		return nil, core.Fail(core.KindMalformedAIOutput, "model output is not a JSON array", err)
	}
	if elems == nil {
		// a literal null decodes without error
		return nil, core.Fail(core.KindMalformedAIOutput, "model output is not a JSON array", nil)
	}
	if dec.More() {
		return nil, core.Fail(core.KindMalformedAIOutput, "unexpected data after JSON array", nil)
	}
	return elems, nil
}

// decodeObject decodes one array element into a generic object, keeping
// numbers as json.Number. ok is false when the element is not an object.
func decodeObject(raw json.RawMessage) (map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}
