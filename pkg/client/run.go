package client

import (
	"context"
	"maps"

	"github.com/kode4food/flowrun/pkg/api"
)

// Run is a builder for simplified flow runs
type Run struct {
	client *Client
	req    api.SimplifiedAPIRequest
	flowID api.FlowID
}

// NewRun creates a run builder for the specified flow
func (c *Client) NewRun(id api.FlowID) *Run {
	return &Run{
		client: c,
		flowID: id,
		req:    *api.NewSimplifiedAPIRequest(),
	}
}

// WithInput sets the input value and the type of inputs that receive it
func (r *Run) WithInput(value string, typ api.InputType) *Run {
	res := *r
	res.req.InputValue = &value
	res.req.InputType = typ
	return &res
}

// WithOutputType selects output components by type
func (r *Run) WithOutputType(typ api.OutputType) *Run {
	res := *r
	res.req.OutputType = typ
	return &res
}

// WithOutputComponent selects a single output component by ID or display
// name
func (r *Run) WithOutputComponent(ref string) *Run {
	res := *r
	res.req.OutputComponent = ref
	return &res
}

// WithSession sets the session the run records its chat history under
func (r *Run) WithSession(id api.SessionID) *Run {
	res := *r
	s := string(id)
	res.req.SessionID = &s
	return &res
}

// WithTweak overrides a field of one component for this run only
func (r *Run) WithTweak(component, field string, value any) *Run {
	res := *r
	res.req.Tweaks = maps.Clone(r.req.Tweaks)
	if res.req.Tweaks == nil {
		res.req.Tweaks = api.Tweaks{}
	}
	fields, _ := res.req.Tweaks[component].(map[string]any)
	fields = maps.Clone(fields)
	if fields == nil {
		fields = map[string]any{}
	}
	fields[field] = value
	res.req.Tweaks[component] = fields
	return &res
}

// Execute runs the flow and returns its results
func (r *Run) Execute(ctx context.Context) (*api.RunResponse, error) {
	req := r.req
	return r.client.Run(ctx, r.flowID, &req)
}
