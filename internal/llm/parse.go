package llm

import (
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/market-views/internal/common"
)

var fenced = regexp.MustCompile("(?s)^```[A-Za-z0-9_+-]*[ \t]*\\n?(.*?)\\s*```$")

// ParseResult is the three-part outcome of parsing an oracle response. On success
// Elements holds the decoded array (possibly empty) and Err is nil. On failure
// Elements is nil, Err carries the kind and Raw is the original response text.
type ParseResult struct {
	Elements []any
	Err      error
	Raw      string
}

// OK reports whether the response decoded to an array.
func (r ParseResult) OK() bool { return r.Err == nil }

// StripFences removes surrounding whitespace and a leading/trailing code fence with an
// optional language hint.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fenced.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	// unbalanced fences still get peeled
	if strings.HasPrefix(s, "```") {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ParseResponse decodes the oracle's response. It never panics; empty or non-JSON text
// yields KindInvalidPayload and any JSON value other than an array yields KindUnexpectedShape.
// Element shape is checked later by CoerceElements.
func ParseResponse(raw string) ParseResult {
	body := StripFences(raw)
	if body == "" {
		return ParseResult{Err: common.NewAppError(common.KindInvalidPayload, "empty response", nil), Raw: raw}
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return ParseResult{Err: common.NewAppError(common.KindInvalidPayload, "response is not JSON", err), Raw: raw}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return ParseResult{Err: common.NewAppError(common.KindInvalidPayload, "trailing data after JSON value", err), Raw: raw}
	}

	arr, ok := v.([]any)
	if !ok {
		return ParseResult{
			Err: common.NewAppError(common.KindUnexpectedShape, "expected a JSON array, got "+jsonKind(v), nil),
			Raw: raw,
		}
	}
	return ParseResult{Elements: arr}
}

func jsonKind(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return "unknown"
	}
}
