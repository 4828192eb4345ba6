package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Rejection records an array element that could not be coerced into a flat record.
type Rejection struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
	Raw    string `json:"raw"`
}

// CoerceElements walks decoded array elements and turns each into a string map.
// Numbers and booleans become their JSON text, nulls are dropped, and keys and
// string values are trimmed. Elements that are not flat objects are rejected.
func CoerceElements(elements []any) ([]map[string]string, []Rejection) {
	out := make([]map[string]string, 0, len(elements))
	var rejected []Rejection

	schema, err := elementSchema()
	for i, el := range elements {
		if err != nil {
			rejected = append(rejected, Rejection{Index: i, Reason: err.Error(), Raw: rawJSON(el)})
			continue
		}
		if vErr := schema.Validate(el); vErr != nil {
			rejected = append(rejected, Rejection{Index: i, Reason: reasonFor(el, vErr), Raw: rawJSON(el)})
			continue
		}

		obj := el.(map[string]any)
		rec := make(map[string]string, len(obj))
		for k, v := range obj {
			key := strings.TrimSpace(k)
			switch t := v.(type) {
			case nil:
				continue
			case string:
				rec[key] = strings.TrimSpace(t)
			case json.Number:
				rec[key] = t.String()
			case float64:
				rec[key] = strconv.FormatFloat(t, 'f', -1, 64)
			case bool:
				rec[key] = strconv.FormatBool(t)
			}
		}
		out = append(out, rec)
	}
	return out, rejected
}

func reasonFor(el any, err error) string {
	if _, ok := el.(map[string]any); !ok {
		return "element is not an object: got " + jsonKind(el)
	}
	return fmt.Sprintf("element has nested values: %v", err)
}

func rawJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
