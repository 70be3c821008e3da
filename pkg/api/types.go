package api

import (
	"slices"

	"github.com/invopop/jsonschema"
)

type (
	// InputType selects which input components receive an input value
	InputType string

	// OutputType selects which output components are reported by a run
	OutputType string

	// Tweaks overrides component parameters for a single invocation. A key
	// is either a component ID or display name mapped to an object of
	// parameter overrides, or a bare parameter name mapped to a value that
	// applies to every component
	Tweaks map[string]any
)

const (
	InputTypeChat InputType = "chat"
	InputTypeText InputType = "text"
	InputTypeAny  InputType = "any"
	InputTypeJSON InputType = "json"
)

const (
	OutputTypeChat  OutputType = "chat"
	OutputTypeText  OutputType = "text"
	OutputTypeAny   OutputType = "any"
	OutputTypeDebug OutputType = "debug"
)

var (
	// InputTypes lists every accepted InputType
	InputTypes = []InputType{
		InputTypeChat, InputTypeText, InputTypeAny, InputTypeJSON,
	}

	// OutputTypes lists every accepted OutputType
	OutputTypes = []OutputType{
		OutputTypeChat, OutputTypeText, OutputTypeAny, OutputTypeDebug,
	}
)

// IsValid reports whether the type belongs to the closed set
func (t InputType) IsValid() bool {
	return slices.Contains(InputTypes, t)
}

// Matches reports whether a component with the given ID accepts inputs of
// this type. The wildcard matches everything; otherwise the type name must
// appear in the lowercased component ID
func (t InputType) Matches(id ComponentID) bool {
	return t == InputTypeAny || containsFold(id, string(t))
}

// JSONSchema documents InputType as a string enum
func (InputType) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "string",
		Enum: enumValues(InputTypes),
	}
}

// IsValid reports whether the type belongs to the closed set
func (t OutputType) IsValid() bool {
	return slices.Contains(OutputTypes, t)
}

// Matches reports whether an output component with the given ID is
// selected by this type
func (t OutputType) Matches(id ComponentID) bool {
	switch t {
	case OutputTypeAny, OutputTypeDebug:
		return true
	default:
		return containsFold(id, string(t))
	}
}

// JSONSchema documents OutputType as a string enum
func (OutputType) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "string",
		Enum: enumValues(OutputTypes),
	}
}

// Global returns the tweaks that are not addressed to a single component
func (t Tweaks) Global() Tweaks {
	res := Tweaks{}
	for k, v := range t {
		if _, ok := v.(map[string]any); !ok {
			res[k] = v
		}
	}
	return res
}

func enumValues[T ~string](values []T) []any {
	res := make([]any, len(values))
	for i, v := range values {
		res[i] = string(v)
	}
	return res
}

func enumStrings[T ~string](values []T) []string {
	res := make([]string, len(values))
	for i, v := range values {
		res[i] = string(v)
	}
	return res
}
