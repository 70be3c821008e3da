package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/flowrun/internal/config"
	"github.com/kode4food/flowrun/internal/runner"
	"github.com/kode4food/flowrun/internal/server"
	"github.com/kode4food/flowrun/internal/store"
	"github.com/kode4food/flowrun/pkg/api"
)

type testServerEnv struct {
	Server *server.Server
	Store  *store.Store
	Redis  *miniredis.Miniredis
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
}

func testServer(t *testing.T) *testServerEnv {
	t.Helper()
	return testServerWith(t, func(st *store.Store) runner.SessionRecorder {
		return st.Sessions
	})
}

// testServerWith builds a server whose runner records sessions through the
// recorder returned by rec
func testServerWith(
	t *testing.T, rec func(*store.Store) runner.SessionRecorder,
) *testServerEnv {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := config.NewDefaultConfig().Store
	cfg.Addr = mr.Addr()
	cfg.Prefix = "test"

	st, err := store.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	srv := server.NewServer(st, runner.New(rec(st)), 5*time.Second)
	t.Cleanup(srv.CloseWebSockets)

	return &testServerEnv{
		Server: srv,
		Store:  st,
		Redis:  mr,
		Router: srv.SetupRoutes(),
	}
}

func (e *testServerEnv) do(
	t *testing.T, method, path string, body any,
) *httptest.ResponseRecorder {
	t.Helper()
	var data []byte
	switch b := body.(type) {
	case nil:
	case string:
		data = []byte(b)
	default:
		var err error
		data, err = json.Marshal(b)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

func (e *testServerEnv) register(t *testing.T, fl *api.Flow) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/flows", fl)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) *T {
	t.Helper()
	var res T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return &res
}

func chatFlow(id api.FlowID) *api.Flow {
	return &api.Flow{
		ID:   id,
		Name: "Chat " + string(id),
		Nodes: []*api.Node{
			{
				ID:          "ChatInput-1",
				Type:        api.ChatInput,
				DisplayName: "Question",
			},
			{
				ID:   "Prompt-1",
				Type: api.Prompt,
				Template: map[string]*api.Field{
					"template": {Type: "str", Value: "Echo: {input}"},
					"options":  {Type: api.FieldTypeNestedDict},
				},
			},
			{ID: "ChatOutput-1", Type: api.ChatOutput},
			{ID: "TextOutput-1", Type: api.TextOutput},
		},
		Edges: []*api.Edge{
			{Source: "ChatInput-1", Target: "Prompt-1"},
			{Source: "Prompt-1", Target: "ChatOutput-1"},
			{Source: "Prompt-1", Target: "TextOutput-1"},
		},
	}
}
