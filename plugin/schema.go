package plugin

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// invokeParamsSchema guards the params shape of library.call and
// library.check before any decoding happens. Argument values themselves are
// not constrained here; the value codec handles those leniently.
const invokeParamsSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["function"],
	"properties": {
		"function": {"type": "string", "minLength": 1},
		"args": {"type": "array"},
		"workspace": {"type": "string"}
	}
}`

var invokeParamsSchema = mustCompileSchema(invokeParamsSchemaJSON)

func mustCompileSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("invalid embedded params schema: %v", err))
	}
	return schema
}

// validateInvokeParams checks raw params against the protocol schema.
// Violations surface as application errors on the protocol error channel.
func validateInvokeParams(raw json.RawMessage) error {
	result, err := invokeParamsSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("invalid params: %v", err)
	}
	if result.Valid() {
		return nil
	}
	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("invalid params: %s", strings.Join(details, "; "))
}
