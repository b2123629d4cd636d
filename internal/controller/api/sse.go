package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/venkmine/proxx/internal/core/event"
)

type sseEnvelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// SSEHandler streams every bus event to the client as a server-sent event.
// Consumers treat any event as a view-refresh signal; the payload is
// informational.
func SSEHandler(bus event.Bus) echo.HandlerFunc {
	return func(c echo.Context) error {
		w := c.Response()
		w.Header().Set(echo.HeaderContentType, "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		w.Flush()

		// A full buffer means a slow client; dropped events are fine
		// because every event is only a refresh hint.
		events := make(chan event.Event, 16)
		unsubscribe := bus.Subscribe(event.EventAny, func(ctx context.Context, e event.Event) error {
			select {
			case events <- e:
			default:
			}
			return nil
		})
		defer unsubscribe()

		ctx := c.Request().Context()
		keepAlive := time.NewTicker(15 * time.Second)
		defer keepAlive.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-keepAlive.C:
				fmt.Fprint(w, ": keep-alive\n\n")
				w.Flush()
			case e := <-events:
				data, err := json.Marshal(sseEnvelope{Type: string(e.Type), Payload: e.Payload})
				if err != nil {
					continue
				}
				sseWrite(w, string(e.Type), string(data))
			}
		}
	}
}

// sseWrite emits one SSE event, splitting multi-line data across data:
// lines per the protocol.
func sseWrite(w *echo.Response, eventName, data string) {
	fmt.Fprintf(w, "event: %s\n", eventName)
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
	w.Flush()
}
