package api

import (
	"errors"
	"fmt"
	"maps"
	"strings"
)

type (
	// Flow is a graph of connected components
	Flow struct {
		ID          FlowID  `json:"id"`
		Name        string  `json:"name" validate:"required"`
		Description string  `json:"description,omitempty"`
		Nodes       []*Node `json:"nodes" validate:"required,min=1,dive,required"`
		Edges       []*Edge `json:"edges" validate:"dive,required"`
	}

	// Node is a single component in a flow graph
	Node struct {
		Template    map[string]*Field `json:"template,omitempty"`
		ID          ComponentID       `json:"id" validate:"required"`
		Type        ComponentType     `json:"type" validate:"required"`
		DisplayName string            `json:"display_name,omitempty"`
	}

	// Field is a configurable parameter of a component
	Field struct {
		Value    any            `json:"value,omitempty"`
		Attrs    map[string]any `json:"attrs,omitempty"`
		Type     string         `json:"type"`
		FilePath string         `json:"file_path,omitempty"`
	}

	// Edge connects the output of Source to an input of Target
	Edge struct {
		Source ComponentID `json:"source" validate:"required"`
		Target ComponentID `json:"target" validate:"required"`
	}

	// ComponentType names the behavior of a node
	ComponentType string
)

const (
	ChatInput  ComponentType = "ChatInput"
	TextInput  ComponentType = "TextInput"
	JSONInput  ComponentType = "JSONInput"
	Webhook    ComponentType = "Webhook"
	Prompt     ComponentType = "Prompt"
	ChatOutput ComponentType = "ChatOutput"
	TextOutput ComponentType = "TextOutput"
	DataOutput ComponentType = "DataOutput"
)

const (
	FieldTypeNestedDict = "NestedDict"
	FieldTypeFile       = "file"
	FieldTypeBool       = "bool"

	FieldInputValue = "input_value"
	FieldTemplate   = "template"
	FieldStream     = "stream"
)

var (
	ErrInvalidFlow      = errors.New("invalid flow")
	ErrDuplicateNode    = errors.New("duplicate node ID")
	ErrUnknownComponent = errors.New("unknown component type")
	ErrDanglingEdge     = errors.New("edge references unknown node")
	ErrCyclicFlow       = errors.New("flow graph contains a cycle")
)

var componentTypes = map[ComponentType]struct{}{
	ChatInput: {}, TextInput: {}, JSONInput: {}, Webhook: {},
	Prompt: {}, ChatOutput: {}, TextOutput: {}, DataOutput: {},
}

// Validate checks the flow's required fields and graph structure
func (f *Flow) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFlow, err)
	}

	seen := make(map[ComponentID]struct{}, len(f.Nodes))
	for _, n := range f.Nodes {
		if _, ok := seen[n.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
		}
		seen[n.ID] = struct{}{}
		if _, ok := componentTypes[n.Type]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownComponent, n.Type)
		}
	}

	for _, e := range f.Edges {
		if _, ok := seen[e.Source]; !ok {
			return fmt.Errorf("%w: %s", ErrDanglingEdge, e.Source)
		}
		if _, ok := seen[e.Target]; !ok {
			return fmt.Errorf("%w: %s", ErrDanglingEdge, e.Target)
		}
	}

	_, err := f.Order()
	return err
}

// Node returns the node with the given ID
func (f *Flow) Node(id ComponentID) (*Node, bool) {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// Find resolves a component by ID first, then by display name
func (f *Flow) Find(ref string) (*Node, bool) {
	if n, ok := f.Node(ComponentID(ref)); ok {
		return n, true
	}
	for _, n := range f.Nodes {
		if n.DisplayName != "" && n.DisplayName == ref {
			return n, true
		}
	}
	return nil, false
}

// Upstream returns the nodes feeding into the given node, in edge order
func (f *Flow) Upstream(id ComponentID) []ComponentID {
	var res []ComponentID
	for _, e := range f.Edges {
		if e.Target == id {
			res = append(res, e.Source)
		}
	}
	return res
}

// Order returns the node IDs in topological order. Nodes without
// dependencies between them keep their declaration order
func (f *Flow) Order() ([]ComponentID, error) {
	inDegree := make(map[ComponentID]int, len(f.Nodes))
	for _, n := range f.Nodes {
		inDegree[n.ID] = 0
	}
	for _, e := range f.Edges {
		inDegree[e.Target]++
	}

	res := make([]ComponentID, 0, len(f.Nodes))
	done := make(map[ComponentID]bool, len(f.Nodes))
	for len(res) < len(f.Nodes) {
		progressed := false
		for _, n := range f.Nodes {
			if done[n.ID] || inDegree[n.ID] != 0 {
				continue
			}
			done[n.ID] = true
			res = append(res, n.ID)
			progressed = true
			for _, e := range f.Edges {
				if e.Source == n.ID {
					inDegree[e.Target]--
				}
			}
		}
		if !progressed {
			return nil, ErrCyclicFlow
		}
	}
	return res, nil
}

// Clone returns a deep copy of the flow
func (f *Flow) Clone() *Flow {
	res := *f
	res.Nodes = make([]*Node, len(f.Nodes))
	for i, n := range f.Nodes {
		res.Nodes[i] = n.Clone()
	}
	res.Edges = make([]*Edge, len(f.Edges))
	for i, e := range f.Edges {
		ce := *e
		res.Edges[i] = &ce
	}
	return &res
}

// IsInput reports whether the node accepts run inputs
func (n *Node) IsInput() bool {
	switch n.Type {
	case ChatInput, TextInput, JSONInput, Webhook:
		return true
	default:
		return false
	}
}

// IsOutput reports whether the node produces run outputs
func (n *Node) IsOutput() bool {
	switch n.Type {
	case ChatOutput, TextOutput, DataOutput:
		return true
	default:
		return false
	}
}

// IsChat reports whether the node records to the session history
func (n *Node) IsChat() bool {
	return n.Type == ChatInput || n.Type == ChatOutput
}

// Name returns the display name, falling back to the node ID
func (n *Node) Name() string {
	if n.DisplayName != "" {
		return n.DisplayName
	}
	return string(n.ID)
}

// GetString returns a template value as a string, or defaultValue when the
// field is missing or not a string
func (n *Node) GetString(name, defaultValue string) string {
	f, ok := n.Template[name]
	if !ok || f == nil {
		return defaultValue
	}
	s, ok := f.Value.(string)
	if !ok {
		return defaultValue
	}
	return s
}

// Clone returns a deep copy of the node
func (n *Node) Clone() *Node {
	res := *n
	if n.Template != nil {
		res.Template = make(map[string]*Field, len(n.Template))
		for k, f := range n.Template {
			if f == nil {
				res.Template[k] = nil
				continue
			}
			cf := *f
			cf.Value = cloneValue(f.Value)
			cf.Attrs = maps.Clone(f.Attrs)
			res.Template[k] = &cf
		}
	}
	return &res
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		res := make(map[string]any, len(v))
		for k, e := range v {
			res[k] = cloneValue(e)
		}
		return res
	case []any:
		res := make([]any, len(v))
		for i, e := range v {
			res[i] = cloneValue(e)
		}
		return res
	default:
		return v
	}
}

func containsFold(id ComponentID, s string) bool {
	return strings.Contains(strings.ToLower(string(id)), s)
}
