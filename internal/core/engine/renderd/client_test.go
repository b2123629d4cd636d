package renderd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venkmine/proxx/internal/core/engine"
)

func newTestServer(t *testing.T, handle func(req rpcRequest) (any, *rpcError)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		result, rpcErr := handle(req)
		w.Header().Set("Content-Type", "application/json")
		resp := rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result, Error: rpcErr}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestClientCreate(t *testing.T) {
	var got rpcRequest
	srv := newTestServer(t, func(req rpcRequest) (any, *rpcError) {
		got = req
		return createResult{ID: "rj_42"}, nil
	})
	defer srv.Close()

	c := NewClient(srv.URL, "s3cret")
	id, err := c.Create(context.Background(), engine.CreateRequest{
		Name:        "promo-cut",
		SourcePaths: []string{"/mnt/media/promo.mov"},
		OutputDir:   "/mnt/out",
		Codec:       "prores_proxy",
		Container:   "mov",
		Delivery:    "editorial",
	})
	require.NoError(t, err)
	assert.Equal(t, "rj_42", id)

	assert.Equal(t, "job.create", got.Method)
	require.Len(t, got.Params, 2)
	assert.Equal(t, "token:s3cret", got.Params[0])
	spec, ok := got.Params[1].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "promo-cut", spec["name"])
	assert.Equal(t, "/mnt/out", spec["outputDir"])
	assert.Equal(t, []any{"/mnt/media/promo.mov"}, spec["sources"])
}

func TestClientCreateEmptyID(t *testing.T) {
	srv := newTestServer(t, func(rpcRequest) (any, *rpcError) {
		return createResult{}, nil
	})
	defer srv.Close()

	c := NewClient(srv.URL, "")
	id, err := c.Create(context.Background(), engine.CreateRequest{Name: "x"})
	require.NoError(t, err)
	assert.Empty(t, id, "empty id must be passed through, not rejected here")
}

func TestClientNoSecretOmitsToken(t *testing.T) {
	var got rpcRequest
	srv := newTestServer(t, func(req rpcRequest) (any, *rpcError) {
		got = req
		return "ok", nil
	})
	defer srv.Close()

	c := NewClient(srv.URL, "")
	require.NoError(t, c.Start(context.Background(), "rj_1"))
	assert.Equal(t, "job.start", got.Method)
	require.Len(t, got.Params, 1)
	assert.Equal(t, "rj_1", got.Params[0])
}

func TestClientList(t *testing.T) {
	srv := newTestServer(t, func(req rpcRequest) (any, *rpcError) {
		require.Equal(t, "job.list", req.Method)
		return []jobInfo{
			{
				ID:        "rj_1",
				Name:      "dailies",
				State:     "rendering",
				Counts:    taskCounts{Total: 8, Done: 3},
				CreatedAt: "2026-08-20T10:00:00Z",
				StartedAt: "2026-08-20T10:00:05Z",
			},
			{
				ID:        "rj_2",
				Name:      "archive-pass",
				State:     "done",
				Counts:    taskCounts{Total: 2, Done: 2},
				CreatedAt: "2026-08-20T09:00:00Z",
				EndedAt:   "2026-08-20T09:30:00Z",
			},
		}, nil
	})
	defer srv.Close()

	c := NewClient(srv.URL, "")
	records, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, engine.StateRunning, records[0].State)
	assert.Equal(t, 8, records[0].Counts.Total)
	require.NotNil(t, records[0].StartedAt)
	assert.Equal(t, time.Date(2026, 8, 20, 10, 0, 5, 0, time.UTC), records[0].StartedAt.UTC())
	assert.Nil(t, records[0].EndedAt)

	assert.Equal(t, engine.StateCompleted, records[1].State)
	require.NotNil(t, records[1].EndedAt)
}

func TestClientDetail(t *testing.T) {
	srv := newTestServer(t, func(req rpcRequest) (any, *rpcError) {
		require.Equal(t, "job.detail", req.Method)
		require.Equal(t, "rj_7", req.Params[0])
		return jobDetail{
			jobInfo: jobInfo{ID: "rj_7", State: "paused", CreatedAt: "2026-08-20T12:00:00Z"},
			Tasks: []taskInfo{
				{Index: 0, Source: "/mnt/a.mov", State: "done"},
				{Index: 1, Source: "/mnt/b.mov", State: "error", Error: "decode failed"},
			},
		}, nil
	})
	defer srv.Close()

	c := NewClient(srv.URL, "")
	detail, err := c.Detail(context.Background(), "rj_7")
	require.NoError(t, err)
	assert.Equal(t, engine.StatePaused, detail.State)
	require.Len(t, detail.Tasks, 2)
	assert.Equal(t, engine.StateCompleted, detail.Tasks[0].State)
	assert.Equal(t, engine.StateFailed, detail.Tasks[1].State)
	assert.Equal(t, "decode failed", detail.Tasks[1].Error)
}

func TestClientRPCError(t *testing.T) {
	srv := newTestServer(t, func(rpcRequest) (any, *rpcError) {
		return nil, &rpcError{Code: 3, Message: "unknown job"}
	})
	defer srv.Close()

	c := NewClient(srv.URL, "")
	err := c.Cancel(context.Background(), "rj_9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "renderd rpc error 3")
	assert.Contains(t, err.Error(), "unknown job")
}

func TestMapState(t *testing.T) {
	cases := map[string]engine.JobState{
		"queued":    engine.StatePending,
		"rendering": engine.StateRunning,
		"paused":    engine.StatePaused,
		"done":      engine.StateCompleted,
		"error":     engine.StateFailed,
		"cancelled": engine.StateCancelled,
		"warming":   engine.StatePending,
	}
	for in, want := range cases {
		assert.Equal(t, want, mapState(in), "state %q", in)
	}
}

func TestJobStateIsTerminal(t *testing.T) {
	assert.True(t, engine.StateCompleted.IsTerminal())
	assert.True(t, engine.StateFailed.IsTerminal())
	assert.True(t, engine.StateCancelled.IsTerminal())
	assert.False(t, engine.StatePending.IsTerminal())
	assert.False(t, engine.StateRunning.IsTerminal())
	assert.False(t, engine.StatePaused.IsTerminal())
}
