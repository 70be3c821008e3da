package api_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/flowrun/pkg/api"
)

func TestInputValueRequestDefaults(t *testing.T) {
	req, err := api.ParseInputValueRequest(map[string]any{})
	require.NoError(t, err)

	assert.Equal(t, []string{}, req.Components)
	assert.Nil(t, req.InputValue)
	assert.Nil(t, req.Session)
	assert.Equal(t, api.InputTypeAny, req.Type)
}

func TestInputValueRequestInputOnly(t *testing.T) {
	var req api.InputValueRequest
	err := json.Unmarshal([]byte(`{"input_value": "hello"}`), &req)
	require.NoError(t, err)

	assert.Equal(t, []string{}, req.Components)
	require.NotNil(t, req.InputValue)
	assert.Equal(t, "hello", *req.InputValue)
	assert.Nil(t, req.Session)
	assert.Equal(t, api.InputTypeAny, req.Type)
}

func TestInputValueRequestJSONType(t *testing.T) {
	var req api.InputValueRequest
	body := `{"type": "json", "input_value": "{\"key\": \"value\"}"}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	assert.Equal(t, api.InputTypeJSON, req.Type)
	assert.Equal(t, `{"key": "value"}`, req.Value())
}

func TestInputValueRequestRejectsExtraFields(t *testing.T) {
	_, err := api.ParseInputValueRequest(map[string]any{"foo": "bar"})
	require.ErrorIs(t, err, api.ErrValidation)

	var ve *api.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, api.SchemaInputValueRequest, ve.Schema)
	assert.Equal(t, []api.FieldError{
		{Field: "foo", Message: "extra fields not permitted"},
	}, ve.Fields)
}

func TestInputValueRequestExtraWithValidFields(t *testing.T) {
	var req api.InputValueRequest
	err := json.Unmarshal(
		[]byte(`{"components": ["c1"], "extra_field": 1}`), &req,
	)

	var ve *api.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Fields, 1)
	assert.Equal(t, "extra_field", ve.Fields[0].Field)
}

func TestInputValueRequestTypeErrors(t *testing.T) {
	_, err := api.ParseInputValueRequest(map[string]any{
		"components":  []any{"ok", 3.0},
		"input_value": 42.0,
		"session":     true,
	})

	var ve *api.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []api.FieldError{
		{Field: "components", Message: "expected array of string"},
		{Field: "input_value", Message: "expected string"},
		{Field: "session", Message: "expected string"},
	}, ve.Fields)
}

func TestInputValueRequestNullElements(t *testing.T) {
	var req api.InputValueRequest
	err := json.Unmarshal([]byte(`{"components": ["ok", null]}`), &req)

	var ve *api.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []api.FieldError{
		{Field: "components[1]", Message: "expected string"},
	}, ve.Fields)
}

func TestInputValueRequestBadType(t *testing.T) {
	_, err := api.ParseInputValueRequest(map[string]any{"type": "audio"})

	var ve *api.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Fields, 1)
	assert.Equal(t, "type", ve.Fields[0].Field)
	assert.Contains(t, ve.Fields[0].Message, `"audio"`)
	assert.Contains(t, ve.Error(), "type: must be one of")
}

func TestInputValueRequestNullUsesDefaults(t *testing.T) {
	var req api.InputValueRequest
	body := `{"components": null, "type": null, "session": null}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	assert.Equal(t, []string{}, req.Components)
	assert.Equal(t, api.InputTypeAny, req.Type)
	assert.Nil(t, req.Session)
}

func TestInputValueRequestNotObject(t *testing.T) {
	var req api.InputValueRequest
	err := json.Unmarshal([]byte(`["a"]`), &req)
	assert.ErrorIs(t, err, api.ErrValidation)
	assert.ErrorIs(t, err, api.ErrNotObject)
}

func TestInputValueRequestNullIsNoop(t *testing.T) {
	value := "kept"
	req := api.NewInputValueRequest()
	req.InputValue = &value
	require.NoError(t, json.Unmarshal([]byte(`null`), req))
	assert.Equal(t, "kept", req.Value())

	var wrapper struct {
		Input api.InputValueRequest `json:"input"`
		Name  string                `json:"name"`
	}
	err := json.Unmarshal([]byte(`{"input": null, "name": "n"}`), &wrapper)
	require.NoError(t, err)
	assert.Equal(t, "n", wrapper.Name)
	assert.Nil(t, wrapper.Input.InputValue)
}

func TestInputValueRequestRoundTrip(t *testing.T) {
	bodies := []string{
		`{"components":["components_id","Component Name"],` +
			`"input_value":"input_value","session":"session_id","type":"any"}`,
		`{"components":[],"input_value":null,"session":null,"type":"chat"}`,
		`{"components":["x"],"input_value":"{\"key\": \"value\"}",` +
			`"session":null,"type":"json"}`,
	}

	for _, body := range bodies {
		var req api.InputValueRequest
		require.NoError(t, json.Unmarshal([]byte(body), &req))

		out, err := json.Marshal(&req)
		require.NoError(t, err)
		assert.JSONEq(t, body, string(out))
	}
}

func TestSimplifiedAPIRequestDefaults(t *testing.T) {
	var req api.SimplifiedAPIRequest
	require.NoError(t, json.Unmarshal([]byte(`{}`), &req))

	assert.Nil(t, req.InputValue)
	assert.Equal(t, api.InputTypeChat, req.InputType)
	assert.Equal(t, api.OutputTypeChat, req.OutputType)
	assert.Equal(t, "", req.OutputComponent)
	assert.Nil(t, req.Tweaks)
	assert.Nil(t, req.SessionID)
	assert.Equal(t, api.NewSimplifiedAPIRequest(), &req)
}

func TestSimplifiedAPIRequestIgnoresExtraFields(t *testing.T) {
	req, err := api.ParseSimplifiedAPIRequest(map[string]any{
		"input_value": "hi",
		"unknown":     1.0,
	})
	require.NoError(t, err)
	assert.Equal(t, "hi", *req.InputValue)
}

func TestSimplifiedAPIRequestFields(t *testing.T) {
	body := `{
		"input_value": "hello",
		"input_type": "text",
		"output_type": "debug",
		"output_component": "ChatOutput-1",
		"tweaks": {"Prompt-1": {"template": "x"}, "stream": true},
		"session_id": "s-1"
	}`
	var req api.SimplifiedAPIRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	assert.Equal(t, "hello", *req.InputValue)
	assert.Equal(t, api.InputTypeText, req.InputType)
	assert.Equal(t, api.OutputTypeDebug, req.OutputType)
	assert.Equal(t, "ChatOutput-1", req.OutputComponent)
	assert.Equal(t, api.Tweaks{
		"Prompt-1": map[string]any{"template": "x"},
		"stream":   true,
	}, req.Tweaks)
	assert.Equal(t, "s-1", *req.SessionID)

	out, err := json.Marshal(&req)
	require.NoError(t, err)
	assert.JSONEq(t, body, string(out))
}

func TestSimplifiedAPIRequestErrors(t *testing.T) {
	_, err := api.ParseSimplifiedAPIRequest(map[string]any{
		"tweaks":           "not-a-map",
		"output_component": 7.0,
	})

	var ve *api.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, api.SchemaSimplifiedAPIRequest, ve.Schema)
	assert.Equal(t, []api.FieldError{
		{Field: "output_component", Message: "expected string"},
		{Field: "tweaks", Message: "expected object"},
	}, ve.Fields)
}

func TestSimplifiedAPIRequestBadOutputType(t *testing.T) {
	_, err := api.ParseSimplifiedAPIRequest(map[string]any{
		"input_type":  "json",
		"output_type": "json",
	})

	var ve *api.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Fields, 1)
	assert.Equal(t, "output_type", ve.Fields[0].Field)
}

func TestSimplifiedAPIRequestInputs(t *testing.T) {
	req := api.NewSimplifiedAPIRequest()
	assert.Nil(t, req.Inputs())

	value := "hi"
	req.InputValue = &value
	req.InputType = api.InputTypeText

	inputs := req.Inputs()
	require.Len(t, inputs, 1)
	assert.Equal(t, "hi", inputs[0].Value())
	assert.Equal(t, api.InputTypeText, inputs[0].Type)
	assert.Equal(t, []string{}, inputs[0].Components)
}

func TestRunFlowRequest(t *testing.T) {
	body := `{
		"inputs": [
			{"components": ["ChatInput-1"], "input_value": "a"},
			{"input_value": "b", "type": "text", "session": "s"}
		],
		"outputs": ["ChatOutput-1"],
		"tweaks": {"stream": false},
		"session_id": "sess",
		"stream": true
	}`
	var req api.RunFlowRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	require.Len(t, req.Inputs, 2)
	assert.Equal(t, []string{"ChatInput-1"}, req.Inputs[0].Components)
	assert.Equal(t, api.InputTypeAny, req.Inputs[0].Type)
	assert.Equal(t, api.InputTypeText, req.Inputs[1].Type)
	assert.Equal(t, "s", *req.Inputs[1].Session)
	assert.Equal(t, []string{"ChatOutput-1"}, req.Outputs)
	assert.Equal(t, "sess", *req.SessionID)
	assert.True(t, req.Stream)
}

func TestRunFlowRequestNestedErrors(t *testing.T) {
	_, err := api.ParseRunFlowRequest(map[string]any{
		"inputs": []any{
			map[string]any{"input_value": "ok"},
			map[string]any{"bogus": 1.0},
			"not-an-object",
		},
	})

	var ve *api.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, api.SchemaRunFlowRequest, ve.Schema)
	assert.Equal(t, []api.FieldError{
		{Field: "inputs[1].bogus", Message: "extra fields not permitted"},
		{Field: "inputs[2]", Message: "expected a JSON object"},
	}, ve.Fields)
}

func TestRunFlowRequestNullOutputs(t *testing.T) {
	_, err := api.ParseRunFlowRequest(map[string]any{
		"outputs": []any{nil, "ChatOutput-1"},
	})

	var ve *api.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []api.FieldError{
		{Field: "outputs[0]", Message: "expected string"},
	}, ve.Fields)
}

func TestRequestNullBodies(t *testing.T) {
	var simple api.SimplifiedAPIRequest
	assert.NoError(t, json.Unmarshal([]byte(`null`), &simple))

	var run api.RunFlowRequest
	assert.NoError(t, json.Unmarshal([]byte(`null`), &run))
	assert.Nil(t, run.Inputs)
}
