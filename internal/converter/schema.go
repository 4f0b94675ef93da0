package converter

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/scenario.schema.json
var scenarioSchemaJSON []byte

const scenarioSchemaURL = "scenario.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// SchemaJSON returns the JSON Schema every scenario block is validated against.
func SchemaJSON() []byte {
	return scenarioSchemaJSON
}

func scenarioSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(scenarioSchemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("unmarshal schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(scenarioSchemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(scenarioSchemaURL)
	})
	return compiledSchema, schemaErr
}

// SchemaViolation is one leaf error reported by the schema validator.
type SchemaViolation struct {
	Path    string
	Message string
}

func (v SchemaViolation) String() string {
	if v.Path == "" {
		return v.Message
	}
	return v.Path + ": " + v.Message
}

// validateAgainstSchema checks a decoded YAML value (maps, slices, scalars)
// against the scenario schema.
func validateAgainstSchema(value any) ([]SchemaViolation, error) {
	sch, err := scenarioSchema()
	if err != nil {
		return nil, err
	}

	// Round-trip through JSON so numbers reach the validator as json.Number.
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal for schema validation: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}

	err = sch.Validate(inst)
	if err == nil {
		return nil, nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []SchemaViolation{{Message: err.Error()}}, nil
	}

	printer := message.NewPrinter(language.English)
	var out []SchemaViolation
	seen := make(map[string]bool)
	for _, cause := range flattenValidationErrors(ve) {
		v := SchemaViolation{
			Path:    strings.Join(cause.InstanceLocation, "/"),
			Message: cause.ErrorKind.LocalizedString(printer),
		}
		if !seen[v.String()] {
			seen[v.String()] = true
			out = append(out, v)
		}
	}
	return out, nil
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var flat []*jsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}
