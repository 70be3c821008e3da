// Package runner executes flow graphs against run inputs
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/kode4food/flowrun/pkg/api"
	"github.com/kode4food/flowrun/pkg/log"
)

type (
	// Runner executes flows one component at a time in dependency order
	Runner struct {
		sessions SessionRecorder
	}

	// SessionRecorder receives the chat messages produced by a run
	SessionRecorder interface {
		Append(context.Context, api.SessionID, ...*api.ChatMessage) error
	}

	// Request describes a single invocation of a flow
	Request struct {
		Sink      EventSink
		SessionID *string
		Inputs    []*api.InputValueRequest
		Outputs   []string
	}

	// EventSink receives progress events while a run executes
	EventSink func(*api.RunEvent)
)

var (
	ErrRunFailed       = errors.New("flow run failed")
	ErrOutputNotFound  = errors.New("output component not found")
	ErrInvalidJSONData = errors.New("input is not valid JSON")
)

// New creates a Runner. A nil recorder disables session history
func New(sessions SessionRecorder) *Runner {
	return &Runner{sessions: sessions}
}

// Run executes the flow once per input (or once when there are no inputs)
// and collects the results of the selected output components
func (r *Runner) Run(
	ctx context.Context, fl *api.Flow, req *Request,
) (*api.RunResponse, error) {
	order, err := fl.Order()
	if err != nil {
		return nil, err
	}
	outputs, err := resolveOutputs(fl, req.Outputs)
	if err != nil {
		return nil, err
	}

	sessionID := api.SessionID(fl.ID)
	if req.SessionID != nil && *req.SessionID != "" {
		sessionID = api.SessionID(*req.SessionID)
	}

	inputs := req.Inputs
	if len(inputs) == 0 {
		inputs = []*api.InputValueRequest{nil}
	}

	res := &api.RunResponse{
		SessionID: sessionID,
		Outputs:   make([]*api.RunOutputs, 0, len(inputs)),
	}
	for _, in := range inputs {
		ex := &execution{
			runner:    r,
			flow:      fl,
			sink:      req.Sink,
			sessionID: sessionID,
			results:   map[api.ComponentID]*result{},
			durations: map[api.ComponentID]time.Duration{},
		}
		if in != nil && in.Session != nil && *in.Session != "" {
			ex.sessionID = api.SessionID(*in.Session)
		}
		out, err := ex.run(ctx, order, in, outputs)
		if err != nil {
			slog.Error("Flow run failed",
				log.FlowID(fl.ID),
				log.SessionID(ex.sessionID),
				log.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrRunFailed, err)
		}
		res.Outputs = append(res.Outputs, out)
	}

	emit(req.Sink, api.EventEnd, res)
	return res, nil
}

// SelectOutputs picks the output components of a simplified request. An
// explicit component wins; debug selects every component; otherwise output
// components are matched by type
func SelectOutputs(
	fl *api.Flow, outputType api.OutputType, component string,
) []string {
	if component != "" {
		return []string{component}
	}
	var res []string
	for _, n := range fl.Nodes {
		if outputType == api.OutputTypeDebug ||
			(n.IsOutput() && outputType.Matches(n.ID)) {
			res = append(res, string(n.ID))
		}
	}
	return res
}

// resolveOutputs maps output references to component IDs. No references
// means every output component
func resolveOutputs(fl *api.Flow, refs []string) ([]api.ComponentID, error) {
	if len(refs) == 0 {
		var res []api.ComponentID
		for _, n := range fl.Nodes {
			if n.IsOutput() {
				res = append(res, n.ID)
			}
		}
		return res, nil
	}

	res := make([]api.ComponentID, 0, len(refs))
	for _, ref := range refs {
		n, ok := fl.Find(ref)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrOutputNotFound, ref)
		}
		if !slices.Contains(res, n.ID) {
			res = append(res, n.ID)
		}
	}
	return res, nil
}

func emit(sink EventSink, event string, data any) {
	if sink != nil {
		sink(&api.RunEvent{Event: event, Data: data})
	}
}
