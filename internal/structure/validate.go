package structure

import (
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
)

// recordSchema is the shape gate: the five top-level keys must be present.
// Their values, null included, are coerced later by Decode.
const recordSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["project_overview", "amenities", "connectivity", "floor_plans", "faqs"]
}`

var (
	schemaOnce sync.Once
	compiled   *jsonschema.Schema
	compileErr error
)

func schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if compileErr = c.AddResource("record.json", strings.NewReader(recordSchema)); compileErr != nil {
			return
		}
		compiled, compileErr = c.Compile("record.json")
	})
	return compiled, compileErr
}

// Validate checks a parsed model document against the record shape.
func Validate(doc map[string]any) error {
	s, err := schema()
	if err != nil {
		return domain.ConfigError("compile record schema", err)
	}
	if doc == nil {
		return domain.ValidationError("Top-level keys missing", nil)
	}
	if err := s.Validate(doc); err != nil {
		return domain.ValidationError("record shape invalid", err)
	}
	return nil
}
