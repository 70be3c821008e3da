package runner

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/kode4food/flowrun/pkg/api"
	"github.com/kode4food/flowrun/pkg/log"
)

type (
	execution struct {
		runner    *Runner
		flow      *api.Flow
		sink      EventSink
		results   map[api.ComponentID]*result
		durations map[api.ComponentID]time.Duration
		sessionID api.SessionID
	}

	result struct {
		data    any
		message *api.ChatMessage
		text    string
	}
)

const (
	placeholderInput  = "input"
	fieldStoreMessage = "should_store_message"
)

var placeholder = regexp.MustCompile(`\{(\w+)\}`)

func (e *execution) run(
	ctx context.Context, order []api.ComponentID,
	in *api.InputValueRequest, outputs []api.ComponentID,
) (*api.RunOutputs, error) {
	assigned := e.assignInputs(in)

	for _, id := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, _ := e.flow.Node(id)

		start := time.Now()
		res, err := e.build(ctx, n, assigned)
		if err != nil {
			emit(e.sink, api.EventVertexBuilt, &api.VertexBuilt{ID: id})
			return nil, fmt.Errorf("%s: %w", id, err)
		}
		e.results[id] = res
		e.durations[id] = time.Since(start)
		emit(e.sink, api.EventVertexBuilt,
			&api.VertexBuilt{ID: id, Valid: true},
		)
	}

	out := &api.RunOutputs{
		Inputs:  map[string]any{},
		Outputs: make([]*api.ResultData, 0, len(outputs)),
	}
	if in != nil {
		out.Inputs[api.FieldInputValue] = in.Value()
	}
	for _, id := range outputs {
		out.Outputs = append(out.Outputs, e.resultData(id))
	}
	return out, nil
}

// assignInputs decides which input components receive the request's value.
// A component is skipped when the request names components and neither its
// ID nor display name is among them, or when the input type does not match
// the component ID
func (e *execution) assignInputs(
	in *api.InputValueRequest,
) map[api.ComponentID]string {
	res := map[api.ComponentID]string{}
	if in == nil {
		return res
	}
	for _, n := range e.flow.Nodes {
		if !n.IsInput() {
			continue
		}
		if len(in.Components) > 0 &&
			!slices.Contains(in.Components, string(n.ID)) &&
			(n.DisplayName == "" ||
				!slices.Contains(in.Components, n.DisplayName)) {
			continue
		}
		if !in.Type.Matches(n.ID) {
			continue
		}
		res[n.ID] = in.Value()
	}
	return res
}

func (e *execution) build(
	ctx context.Context, n *api.Node, assigned map[api.ComponentID]string,
) (*result, error) {
	switch n.Type {
	case api.ChatInput, api.TextInput, api.Webhook:
		text := inputText(n, assigned)
		res := &result{text: text, data: text}
		if n.IsChat() {
			res.message = e.record(ctx, n, api.SenderUser, text)
		}
		return res, nil

	case api.JSONInput:
		text := inputText(n, assigned)
		if text == "" {
			return &result{}, nil
		}
		if !gjson.Valid(text) {
			return nil, ErrInvalidJSONData
		}
		return &result{text: text, data: gjson.Parse(text).Value()}, nil

	case api.Prompt:
		text := e.render(n)
		return &result{text: text, data: text}, nil

	case api.ChatOutput:
		text := e.upstreamText(n)
		return &result{
			text:    text,
			data:    text,
			message: e.record(ctx, n, api.SenderMachine, text),
		}, nil

	case api.TextOutput:
		text := e.upstreamText(n)
		return &result{text: text, data: text}, nil

	case api.DataOutput:
		res := &result{text: e.upstreamText(n)}
		for _, up := range e.upstream(n) {
			if up.data != nil {
				res.data = up.data
				break
			}
		}
		return res, nil

	default:
		return nil, fmt.Errorf("%w: %s", api.ErrUnknownComponent, n.Type)
	}
}

func inputText(n *api.Node, assigned map[api.ComponentID]string) string {
	if v, ok := assigned[n.ID]; ok {
		return v
	}
	return n.GetString(api.FieldInputValue, "")
}

// render fills {name} placeholders of the node's template. {input} is the
// text of the upstream components; other names resolve to template fields.
// Unresolved placeholders are left as written
func (e *execution) render(n *api.Node) string {
	tmpl := n.GetString(api.FieldTemplate, "{input}")
	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[1 : len(m)-1]
		if name == placeholderInput {
			return e.upstreamText(n)
		}
		if f, ok := n.Template[name]; ok && f != nil && f.Value != nil {
			return fmt.Sprint(f.Value)
		}
		return m
	})
}

func (e *execution) upstream(n *api.Node) []*result {
	ids := e.flow.Upstream(n.ID)
	res := make([]*result, 0, len(ids))
	for _, id := range ids {
		if r, ok := e.results[id]; ok {
			res = append(res, r)
		}
	}
	return res
}

func (e *execution) upstreamText(n *api.Node) string {
	var parts []string
	for _, r := range e.upstream(n) {
		if r.text != "" {
			parts = append(parts, r.text)
		}
	}
	return strings.Join(parts, "\n")
}

func (e *execution) record(
	ctx context.Context, n *api.Node, sender, text string,
) *api.ChatMessage {
	msg := &api.ChatMessage{
		ID:          uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		SessionID:   e.sessionID,
		FlowID:      e.flow.ID,
		ComponentID: n.ID,
		Sender:      sender,
		Text:        text,
	}
	if e.runner.sessions == nil || !storesMessages(n) {
		return msg
	}
	if err := e.runner.sessions.Append(ctx, e.sessionID, msg); err != nil {
		slog.Warn("Failed to record session message",
			log.FlowID(e.flow.ID),
			log.ComponentID(n.ID),
			log.SessionID(e.sessionID),
			log.Error(err))
	}
	return msg
}

func storesMessages(n *api.Node) bool {
	f, ok := n.Template[fieldStoreMessage]
	if !ok || f == nil || f.Type != api.FieldTypeBool {
		return true
	}
	store, ok := f.Value.(bool)
	return !ok || store
}

func (e *execution) resultData(id api.ComponentID) *api.ResultData {
	n, _ := e.flow.Node(id)
	r := e.results[id]
	d := e.durations[id]

	rd := &api.ResultData{
		ComponentID:          id,
		ComponentDisplayName: n.Name(),
		Timedelta:            d.Seconds(),
		Duration:             d.Round(time.Microsecond).String(),
	}
	switch {
	case r.message != nil:
		rd.Results = map[string]any{"message": r.message}
		rd.Messages = []*api.ChatMessage{r.message}
	case n.Type == api.DataOutput || n.Type == api.JSONInput:
		rd.Results = map[string]any{"data": r.data}
	default:
		rd.Results = map[string]any{"text": r.text}
	}
	return rd
}
