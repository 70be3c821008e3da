// Package tweaks applies per-invocation parameter overrides to a flow
package tweaks

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tidwall/gjson"

	"github.com/kode4food/flowrun/pkg/api"
	"github.com/kode4food/flowrun/pkg/log"
)

const (
	attrValue    = "value"
	attrFilePath = "file_path"
)

var ErrInvalidNestedDict = errors.New("invalid JSON for NestedDict field")

// Apply returns a copy of the flow with the tweaks applied. Object-valued
// tweaks address one node by ID or display name; any other value applies
// to the like-named field of every node. Tweaks naming fields a node does
// not declare are ignored. The "stream" tweak defaults to the stream
// argument unless the caller supplied one
func Apply(fl *api.Flow, tw api.Tweaks, stream bool) (*api.Flow, error) {
	res := fl.Clone()

	all := tw.Global()
	if _, ok := tw[api.FieldStream]; !ok {
		all[api.FieldStream] = stream
	}

	for ref, v := range tw {
		nodeTweaks, ok := v.(map[string]any)
		if !ok {
			continue
		}
		n, ok := res.Find(ref)
		if !ok {
			slog.Debug("Tweak target not found",
				log.FlowID(fl.ID),
				log.ComponentID(ref))
			continue
		}
		if err := applyNode(n, nodeTweaks); err != nil {
			return nil, err
		}
	}

	for _, n := range res.Nodes {
		if err := applyNode(n, all); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func applyNode(n *api.Node, tw map[string]any) error {
	for name, value := range tw {
		f, ok := n.Template[name]
		if !ok || f == nil {
			continue
		}
		if err := applyField(f, value); err != nil {
			return fmt.Errorf("%w: %s.%s", err, n.ID, name)
		}
	}
	return nil
}

func applyField(f *api.Field, value any) error {
	if f.Type == api.FieldTypeNestedDict {
		v, err := nestedDict(value)
		if err != nil {
			return err
		}
		f.Value = v
		return nil
	}

	attrs, ok := value.(map[string]any)
	if !ok {
		setAttr(f, attrValue, value)
		return nil
	}
	for k, v := range attrs {
		setAttr(f, k, v)
	}
	return nil
}

func setAttr(f *api.Field, name string, value any) {
	if f.Type == api.FieldTypeFile {
		f.FilePath = fmt.Sprint(value)
		return
	}
	switch name {
	case attrValue:
		f.Value = value
	case attrFilePath:
		f.FilePath = fmt.Sprint(value)
	default:
		if f.Attrs == nil {
			f.Attrs = map[string]any{}
		}
		f.Attrs[name] = value
	}
}

// nestedDict accepts an object as-is and parses a string as JSON
func nestedDict(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	if !gjson.Valid(s) {
		return nil, ErrInvalidNestedDict
	}
	return gjson.Parse(s).Value(), nil
}
