package api

import (
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"
)

type schemaProperty struct {
	def         any
	description string
}

var ErrUnknownSchema = errors.New("unknown schema")

var schemaSources = map[string]any{
	SchemaInputValueRequest:    &InputValueRequest{},
	SchemaSimplifiedAPIRequest: &SimplifiedAPIRequest{},
	SchemaRunFlowRequest:       &RunFlowRequest{},
	"flow":                     &Flow{},
}

var inputValueExamples = []any{
	map[string]any{
		"components":  []string{"components_id", "Component Name"},
		"input_value": "input_value",
		"session":     "session_id",
	},
	map[string]any{
		"components":  []string{"Component Name"},
		"input_value": "input_value",
	},
	map[string]any{"input_value": "input_value"},
	map[string]any{
		"components":  []string{"Component Name"},
		"input_value": "input_value",
		"session":     "session_id",
	},
	map[string]any{"input_value": "input_value", "session": "session_id"},
	map[string]any{"type": "chat", "input_value": "input_value"},
	map[string]any{"type": "json", "input_value": `{"key": "value"}`},
}

// SchemaNames lists the documents served by RequestSchema
func SchemaNames() []string {
	return []string{
		SchemaInputValueRequest,
		SchemaSimplifiedAPIRequest,
		SchemaRunFlowRequest,
		"flow",
	}
}

// RequestSchema reflects the named type into a JSON Schema document
func RequestSchema(name string) (*jsonschema.Schema, error) {
	src, ok := schemaSources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, name)
	}
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	s := r.Reflect(src)
	s.ID = jsonschema.ID(name)
	s.Version = "http://json-schema.org/draft-07/schema#"
	return s, nil
}

// JSONSchemaExtend documents defaults and examples, and forbids undeclared
// properties
func (InputValueRequest) JSONSchemaExtend(s *jsonschema.Schema) {
	s.Required = nil
	s.AdditionalProperties = jsonschema.FalseSchema
	s.Examples = inputValueExamples
	describe(s, map[string]schemaProperty{
		"components": {
			def:         []string{},
			description: "Component IDs or names that receive the value",
		},
		"input_value": {description: "The input value"},
		"session":     {description: "The session id"},
		"type": {
			def: string(InputTypeAny),
			description: "Defines on which components the input value " +
				"should be applied. 'any' applies to all input components.",
		},
	})
}

// JSONSchemaExtend documents defaults and descriptions
func (SimplifiedAPIRequest) JSONSchemaExtend(s *jsonschema.Schema) {
	s.Required = nil
	describe(s, map[string]schemaProperty{
		"input_value": {description: "The input value"},
		"input_type": {
			def:         string(InputTypeChat),
			description: "The input type",
		},
		"output_type": {
			def:         string(OutputTypeChat),
			description: "The output type",
		},
		"output_component": {
			def: "",
			description: "If there are multiple output components, you " +
				"can specify the component to get the output from.",
		},
		"tweaks":     {description: "The tweaks"},
		"session_id": {description: "The session id"},
	})
}

// JSONSchemaExtend documents the advanced run body
func (RunFlowRequest) JSONSchemaExtend(s *jsonschema.Schema) {
	s.Required = nil
	describe(s, map[string]schemaProperty{
		"inputs":     {description: "Input values, each applied in its own run"},
		"outputs":    {description: "Component IDs or names to report"},
		"tweaks":     {description: "The tweaks"},
		"session_id": {description: "The session id"},
		"stream": {
			def:         false,
			description: "Enables streaming on components that support it",
		},
	})
}

func describe(s *jsonschema.Schema, props map[string]schemaProperty) {
	if s.Properties == nil {
		return
	}
	for name, p := range props {
		prop, ok := s.Properties.Get(name)
		if !ok || prop == nil {
			continue
		}
		prop.Description = p.description
		if p.def != nil {
			prop.Default = p.def
		}
	}
}
