package recipe

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"

	apperrors "github.com/dictameal/backend/internal/errors"
)

const (
	fence = "```"
	// previewLen bounds raw model text quoted in errors and degraded records.
	previewLen = 200
)

// Extract pulls the JSON object out of a model completion. Models wrap
// their answer in markdown fences or prose often enough that the raw text
// is never parsed directly:
//
//  1. trim whitespace
//  2. prefer the body of a ```json fence, else the body of the first fence
//  3. keep the span from the first '{' to the last '}'
//  4. parse; if that fails, parse the first complete value at the first '{'
//
// When the fenced body yields nothing the whole text is tried once more,
// which covers fences quoted inside string values. Every failure is an
// EXTRACTION_ERROR carrying a preview of raw.
func Extract(raw string) (Object, error) {
	text := strings.TrimSpace(raw)
	body := strings.TrimSpace(stripFence(text))

	obj, err := objectIn(body, raw)
	if err == nil {
		return obj, nil
	}
	if body != text {
		if obj, fallbackErr := objectIn(text, raw); fallbackErr == nil {
			return obj, nil
		}
	}
	return nil, err
}

func objectIn(text, raw string) (Object, error) {
	if text == "" {
		return nil, apperrors.NewExtractionError("empty response", "")
	}

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start == -1 || end == -1 || end < start {
		return nil, apperrors.NewExtractionError("no JSON object found", Preview(raw))
	}

	var obj Object
	if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err == nil {
		return obj, nil
	}

	// Two objects separated by prose, or stray braces after the real
	// answer, make the outer span invalid. The first complete value
	// usually is the answer.
	if obj, ok := firstObject(text[start:]); ok {
		return obj, nil
	}

	return nil, apperrors.NewExtractionError("invalid JSON in response", Preview(raw))
}

// stripFence returns the fenced body when text contains a code fence.
// A ```json fence wins over any other; an unterminated fence runs to the
// end of text.
func stripFence(text string) string {
	if idx := jsonFenceIndex(text); idx != -1 {
		body := text[idx+len(fence)+len("json"):]
		if end := strings.Index(body, fence); end != -1 {
			body = body[:end]
		}
		return body
	}
	if idx := strings.Index(text, fence); idx != -1 {
		body := text[idx+len(fence):]
		if end := strings.Index(body, fence); end != -1 {
			body = body[:end]
		}
		return body
	}
	return text
}

// jsonFenceIndex finds the first fence tagged json in any letter case.
func jsonFenceIndex(text string) int {
	offset := 0
	for {
		idx := strings.Index(text[offset:], fence)
		if idx == -1 {
			return -1
		}
		idx += offset
		tag := text[idx+len(fence):]
		if len(tag) >= 4 && strings.EqualFold(tag[:4], "json") {
			return idx
		}
		offset = idx + 1
	}
}

func firstObject(text string) (Object, bool) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	var obj Object
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// Preview returns at most the first 200 characters of s.
func Preview(s string) string {
	if utf8.RuneCountInString(s) <= previewLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:previewLen])
}
