package log_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/flowrun/pkg/api"
	"github.com/kode4food/flowrun/pkg/log"
)

type errStub string

func TestFlowID(t *testing.T) {
	attr := log.FlowID(api.FlowID("flow-123"))
	assertAttrEqual(t, attr, "flow_id", "flow-123")
}

func TestComponentID(t *testing.T) {
	attr := log.ComponentID(api.ComponentID("ChatInput-1"))
	assertAttrEqual(t, attr, "component_id", "ChatInput-1")
}

func TestSessionID(t *testing.T) {
	attr := log.SessionID(api.SessionID("sess-9"))
	assertAttrEqual(t, attr, "session_id", "sess-9")
}

func TestSchema(t *testing.T) {
	attr := log.Schema(api.SchemaInputValueRequest)
	assertAttrEqual(t, attr, "schema", "input_value_request")
}

func TestError(t *testing.T) {
	attr := log.Error(nil)
	assertAttrEqual(t, attr, "error", "")

	attr = log.Error(errStub("boom"))
	assertAttrEqual(t, attr, "error", "boom")
}

func TestErrorString(t *testing.T) {
	attr := log.ErrorString("badness")
	assertAttrEqual(t, attr, "error", "badness")
}

func (e errStub) Error() string { return string(e) }

func assertAttrEqual(t *testing.T, attr slog.Attr, key, value string) {
	t.Helper()
	assert.Equal(t, key, attr.Key)
	assert.Equal(t, value, attr.Value.String())
}
