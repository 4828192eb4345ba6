package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildElementJSONSchema returns the JSON Schema every array element must satisfy:
// an object whose values are scalars. Unknown keys are allowed and ignored downstream.
func BuildElementJSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"additionalProperties": map[string]any{
			"type": []string{"string", "number", "boolean", "null"},
		},
	}
}

// schemaURL is an absolute in-memory id, so validation errors never carry host paths.
const schemaURL = "mem://market-views/element.json"

// CompileSchema compiles a schema given as a generic map.
func CompileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

var elementSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return CompileSchema(BuildElementJSONSchema())
})
