// Input schema generation.
//
// Tool input schemas are reflected from the handlers' args structs with
// invopop/jsonschema, so the catalogue can never drift from what a
// handler actually decodes.

package tools

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// schemaFor reflects a {type: "object", properties, required} schema from
// an args struct. Panics on reflection failure: schemas are built once at
// startup from static types, so a failure is a programming error.
func schemaFor(args interface{}) map[string]interface{} {
	reflector := &jsonschema.Reflector{
		Anonymous:                 true,
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
	}

	schema := reflector.Reflect(args)

	raw, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("tools: failed to marshal schema for %T: %v", args, err))
	}

	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		panic(fmt.Sprintf("tools: failed to build schema for %T: %v", args, err))
	}

	// Keep only what the tool contract defines.
	delete(m, "$schema")
	delete(m, "$id")
	delete(m, "additionalProperties")

	m["type"] = "object"
	if _, ok := m["properties"]; !ok {
		m["properties"] = map[string]interface{}{}
	}

	// json.Unmarshal yields []interface{}; providers expect []string.
	if req, ok := m["required"].([]interface{}); ok {
		required := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				required = append(required, s)
			}
		}
		m["required"] = required
	}

	return m
}
