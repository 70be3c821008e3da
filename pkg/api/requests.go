package api

import (
	"encoding/json"
	"fmt"
)

type (
	// InputValueRequest submits a single input value to zero or more
	// components of a flow. Unknown fields are rejected
	InputValueRequest struct {
		// Components lists the IDs or display names of the components that
		// receive the value. Empty means every matching input component
		Components []string `json:"components"`

		// InputValue is the payload. Its interpretation depends on Type
		InputValue *string `json:"input_value"`

		// Session correlates the request with prior execution state
		Session *string `json:"session"`

		// Type defines on which components the input value should be
		// applied. "any" applies to all input components
		Type InputType `json:"type" validate:"input_type"`
	}

	// SimplifiedAPIRequest invokes a flow with a single input and shapes
	// the output that is returned. Unknown fields are ignored
	SimplifiedAPIRequest struct {
		InputValue *string    `json:"input_value"`
		InputType  InputType  `json:"input_type" validate:"input_type"`
		OutputType OutputType `json:"output_type" validate:"output_type"`

		// OutputComponent picks one output when a flow has several. Empty
		// means unspecified
		OutputComponent string `json:"output_component"`

		Tweaks    Tweaks  `json:"tweaks"`
		SessionID *string `json:"session_id"`
	}

	// RunFlowRequest is the advanced run body: several inputs, explicit
	// output selection, and tweaks. Each input is validated strictly
	RunFlowRequest struct {
		Inputs    []*InputValueRequest `json:"inputs"`
		Outputs   []string             `json:"outputs"`
		Tweaks    Tweaks               `json:"tweaks"`
		SessionID *string              `json:"session_id"`
		Stream    bool                 `json:"stream"`
	}
)

const (
	SchemaInputValueRequest    = "input_value_request"
	SchemaSimplifiedAPIRequest = "simplified_api_request"
	SchemaRunFlowRequest       = "run_flow_request"
)

var inputValueFields = []string{
	"components", "input_value", "session", "type",
}

// NewInputValueRequest returns an InputValueRequest with every default
// applied
func NewInputValueRequest() *InputValueRequest {
	return &InputValueRequest{
		Components: []string{},
		Type:       InputTypeAny,
	}
}

// ParseInputValueRequest validates an untyped key/value map and constructs
// an InputValueRequest from it. Keys that are not declared fields are
// reported, as is every value that cannot be decoded into its field
func ParseInputValueRequest(data map[string]any) (*InputValueRequest, error) {
	res := NewInputValueRequest()
	var errs fieldErrors
	errs.rejectUnknown(data, inputValueFields)
	decodeField(&errs, data, "components", &res.Components)
	decodeField(&errs, data, "input_value", &res.InputValue)
	decodeField(&errs, data, "session", &res.Session)
	decodeField(&errs, data, "type", &res.Type)
	errs.check(res)
	if err := errs.err(SchemaInputValueRequest); err != nil {
		return nil, err
	}
	return res, nil
}

// UnmarshalJSON applies ParseInputValueRequest to a JSON object. A JSON
// null leaves the request untouched
func (r *InputValueRequest) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return notObjectError(SchemaInputValueRequest)
	}
	res, err := ParseInputValueRequest(raw)
	if err != nil {
		return err
	}
	*r = *res
	return nil
}

// Value returns the input value, or the empty string when none was given
func (r *InputValueRequest) Value() string {
	if r.InputValue == nil {
		return ""
	}
	return *r.InputValue
}

// NewSimplifiedAPIRequest returns a SimplifiedAPIRequest with every default
// applied
func NewSimplifiedAPIRequest() *SimplifiedAPIRequest {
	return &SimplifiedAPIRequest{
		InputType:  InputTypeChat,
		OutputType: OutputTypeChat,
	}
}

// ParseSimplifiedAPIRequest validates an untyped key/value map and
// constructs a SimplifiedAPIRequest from it. Undeclared keys are ignored
func ParseSimplifiedAPIRequest(
	data map[string]any,
) (*SimplifiedAPIRequest, error) {
	res := NewSimplifiedAPIRequest()
	var errs fieldErrors
	decodeField(&errs, data, "input_value", &res.InputValue)
	decodeField(&errs, data, "input_type", &res.InputType)
	decodeField(&errs, data, "output_type", &res.OutputType)
	decodeField(&errs, data, "output_component", &res.OutputComponent)
	decodeField(&errs, data, "tweaks", &res.Tweaks)
	decodeField(&errs, data, "session_id", &res.SessionID)
	errs.check(res)
	if err := errs.err(SchemaSimplifiedAPIRequest); err != nil {
		return nil, err
	}
	return res, nil
}

// UnmarshalJSON applies ParseSimplifiedAPIRequest to a JSON object
func (r *SimplifiedAPIRequest) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return notObjectError(SchemaSimplifiedAPIRequest)
	}
	res, err := ParseSimplifiedAPIRequest(raw)
	if err != nil {
		return err
	}
	*r = *res
	return nil
}

// Inputs converts the simplified request into the input list consumed by a
// run. No input value means no inputs at all
func (r *SimplifiedAPIRequest) Inputs() []*InputValueRequest {
	if r.InputValue == nil {
		return nil
	}
	in := NewInputValueRequest()
	in.InputValue = r.InputValue
	in.Type = r.InputType
	return []*InputValueRequest{in}
}

// ParseRunFlowRequest validates an untyped key/value map and constructs a
// RunFlowRequest from it. Each entry of "inputs" is parsed strictly as an
// InputValueRequest and its errors are reported under "inputs[i]"
func ParseRunFlowRequest(data map[string]any) (*RunFlowRequest, error) {
	res := &RunFlowRequest{}
	var errs fieldErrors
	decodeField(&errs, data, "outputs", &res.Outputs)
	decodeField(&errs, data, "tweaks", &res.Tweaks)
	decodeField(&errs, data, "session_id", &res.SessionID)
	decodeField(&errs, data, "stream", &res.Stream)

	var inputs []any
	decodeField(&errs, data, "inputs", &inputs)
	for i, raw := range inputs {
		path := fmt.Sprintf("inputs[%d]", i)
		obj, ok := raw.(map[string]any)
		if !ok {
			errs.add(path, msgNotObject)
			continue
		}
		in, err := ParseInputValueRequest(obj)
		if err != nil {
			errs = append(errs, err.(*ValidationError).Prefixed(path)...)
			continue
		}
		res.Inputs = append(res.Inputs, in)
	}

	if err := errs.err(SchemaRunFlowRequest); err != nil {
		return nil, err
	}
	return res, nil
}

// UnmarshalJSON applies ParseRunFlowRequest to a JSON object
func (r *RunFlowRequest) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return notObjectError(SchemaRunFlowRequest)
	}
	res, err := ParseRunFlowRequest(raw)
	if err != nil {
		return err
	}
	*r = *res
	return nil
}
