package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venkmine/proxx/internal/core/event"
)

func TestSSEWriteSplitsMultilineData(t *testing.T) {
	rec := httptest.NewRecorder()
	resp := echo.NewResponse(rec, echo.New())

	sseWrite(resp, "mirror.updated", "line1\nline2")

	assert.Equal(t, "event: mirror.updated\ndata: line1\ndata: line2\n\n", rec.Body.String())
}

func TestSSEHandlerStreamsBusEvents(t *testing.T) {
	bus := event.NewBus()
	e := echo.New()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	done := make(chan error, 1)
	go func() { done <- SSEHandler(bus)(c) }()

	// Give the handler time to subscribe, then let it drain the event
	// before cancelling. The body is only read after the handler returns.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, bus.Publish(context.Background(), event.Event{
		Type:    event.EventQueueChanged,
		Payload: event.QueueEvent{SpecID: "s1", QueueLength: 1},
	}))
	time.Sleep(50 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))
	assert.Contains(t, body, "event: queue.changed\n")
	assert.Contains(t, body, `"type":"queue.changed"`)
	assert.Contains(t, body, `"SpecID":"s1"`)
}
