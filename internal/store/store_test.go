package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/flowrun/internal/config"
	"github.com/kode4food/flowrun/internal/store"
	"github.com/kode4food/flowrun/pkg/api"
)

func newTestStore(t *testing.T) (*store.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := config.NewDefaultConfig().Store
	cfg.Addr = mr.Addr()
	cfg.Prefix = "test"
	cfg.SessionTTL = time.Hour

	st, err := store.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st, mr
}

func testFlow(id api.FlowID) *api.Flow {
	return &api.Flow{
		ID:   id,
		Name: "Flow " + string(id),
		Nodes: []*api.Node{
			{ID: "ChatInput-1", Type: api.ChatInput},
			{ID: "ChatOutput-1", Type: api.ChatOutput},
		},
		Edges: []*api.Edge{
			{Source: "ChatInput-1", Target: "ChatOutput-1"},
		},
	}
}

func TestPing(t *testing.T) {
	st, mr := newTestStore(t)
	assert.NoError(t, st.Ping(context.Background()))

	mr.Close()
	assert.ErrorIs(t, st.Ping(context.Background()), store.ErrPing)
}

func TestFlowPutGet(t *testing.T) {
	st, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Flows.Put(ctx, testFlow("a")))
	assert.True(t, mr.Exists("test:flows"))

	fl, err := st.Flows.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Flow a", fl.Name)
	assert.Len(t, fl.Nodes, 2)
}

func TestFlowGetUncached(t *testing.T) {
	st, mr := newTestStore(t)
	ctx := context.Background()

	other, err := store.NewFlowStore(
		redisClient(t, mr), "test", 4,
	)
	require.NoError(t, err)
	require.NoError(t, other.Put(ctx, testFlow("b")))

	fl, err := st.Flows.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, api.FlowID("b"), fl.ID)
}

func TestFlowGetMissing(t *testing.T) {
	st, _ := newTestStore(t)
	_, err := st.Flows.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrFlowNotFound)
}

func TestFlowGetCorrupt(t *testing.T) {
	st, mr := newTestStore(t)
	mr.HSet("test:flows", "bad", "{not json")

	_, err := st.Flows.Get(context.Background(), "bad")
	assert.ErrorIs(t, err, store.ErrDecodeFlow)
}

func TestFlowCreateConflict(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Flows.Create(ctx, testFlow("c")))
	err := st.Flows.Create(ctx, testFlow("c"))
	assert.ErrorIs(t, err, store.ErrFlowExists)
}

func TestFlowCacheIsolation(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	fl := testFlow("d")
	require.NoError(t, st.Flows.Put(ctx, fl))
	fl.Name = "mutated"

	got, err := st.Flows.Get(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, "Flow d", got.Name)
}

func TestFlowList(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	for _, id := range []api.FlowID{"z", "a", "m"} {
		require.NoError(t, st.Flows.Put(ctx, testFlow(id)))
	}

	flows, err := st.Flows.List(ctx)
	require.NoError(t, err)
	require.Len(t, flows, 3)
	assert.Equal(t, api.FlowID("a"), flows[0].ID)
	assert.Equal(t, api.FlowID("m"), flows[1].ID)
	assert.Equal(t, api.FlowID("z"), flows[2].ID)
}

func TestFlowDelete(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Flows.Put(ctx, testFlow("e")))
	require.NoError(t, st.Flows.Delete(ctx, "e"))

	_, err := st.Flows.Get(ctx, "e")
	assert.ErrorIs(t, err, store.ErrFlowNotFound)
	assert.ErrorIs(t, st.Flows.Delete(ctx, "e"), store.ErrFlowNotFound)
}

func TestSessionAppendMessages(t *testing.T) {
	st, mr := newTestStore(t)
	ctx := context.Background()

	msg := &api.ChatMessage{Sender: api.SenderUser, Text: "hello"}
	require.NoError(t, st.Sessions.Append(ctx, "s1", msg))
	require.NoError(t, st.Sessions.Append(ctx, "s1",
		&api.ChatMessage{Sender: api.SenderMachine, Text: "hi"},
	))

	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.Timestamp.IsZero())
	assert.Equal(t, api.SessionID("s1"), msg.SessionID)
	assert.Equal(t, time.Hour, mr.TTL("test:session:s1"))

	msgs, err := st.Sessions.Messages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Text)
	assert.Equal(t, msg.ID, msgs[0].ID)
	assert.Equal(t, api.SenderMachine, msgs[1].Sender)
}

func TestSessionAppendNothing(t *testing.T) {
	st, mr := newTestStore(t)
	require.NoError(t, st.Sessions.Append(context.Background(), "s2"))
	assert.False(t, mr.Exists("test:session:s2"))
}

func TestSessionExpiry(t *testing.T) {
	st, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Sessions.Append(ctx, "s3",
		&api.ChatMessage{Text: "bye"},
	))
	mr.FastForward(2 * time.Hour)

	msgs, err := st.Sessions.Messages(ctx, "s3")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSessionClear(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Sessions.Append(ctx, "s4",
		&api.ChatMessage{Text: "x"},
	))
	require.NoError(t, st.Sessions.Clear(ctx, "s4"))
	assert.ErrorIs(t,
		st.Sessions.Clear(ctx, "s4"), store.ErrSessionNotFound,
	)
}
