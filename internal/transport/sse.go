package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tablegate/tablegate/internal/auth"
	"github.com/tablegate/tablegate/internal/logger"
	"github.com/tablegate/tablegate/internal/mcp"
	"github.com/tablegate/tablegate/internal/session"
)

const (
	contentTypeEventStream = "text/event-stream"

	heartbeatInterval = 30 * time.Second
)

// SSETransport serves the persistent GET /mcp-sse stream. Each connection is
// registered for its lifetime and removed on disconnect; an optional inbound
// envelope in the message query parameter is answered with one pushed event.
type SSETransport struct {
	handler  *mcp.Handler
	gate     *auth.Gate
	registry *session.Registry
}

// NewSSETransport creates the SSE transport.
func NewSSETransport(handler *mcp.Handler, gate *auth.Gate, registry *session.Registry) *SSETransport {
	return &SSETransport{handler: handler, gate: gate, registry: registry}
}

// HandleSSE handles GET /mcp-sse.
func (t *SSETransport) HandleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !t.gate.Authorize(r) {
		writeUnauthorized(w)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", contentTypeEventStream)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	client := t.registry.Add(r)
	defer t.registry.Remove(client.ID)
	logger.Info("SSE client connected: %s", client.ID)

	client.EventCallback = func(event string, data []byte) error {
		logger.SSEEventLog(event, client.ID, string(data))
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	// Initial capabilities and tool catalog, pushed immediately on connect.
	t.pushJSON(client, "initialized", map[string]interface{}{
		"clientId": client.ID,
		"server":   mcp.InitializeResult(),
		"tools":    mcp.ListToolsResult(t.handler.Registry())["tools"],
	})

	// One inline envelope may ride along on the connect request.
	if message := r.URL.Query().Get("message"); message != "" {
		if resp := t.handler.DispatchRaw(r.Context(), []byte(message)); resp != nil {
			t.pushJSON(client, "message", resp)
		}
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-heartbeat.C:
			if err := client.SendEvent("heartbeat", []byte(`{"type":"heartbeat"}`)); err != nil {
				logger.Debug("Heartbeat failed for %s: %v", client.ID, err)
				return
			}
		case <-client.Context().Done():
			logger.Info("SSE client disconnected: %s", client.ID)
			return
		}
	}
}

// pushJSON marshals payload and sends it as one SSE event.
func (t *SSETransport) pushJSON(client *session.Client, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal %s event: %v", event, err)
		return
	}
	if err := client.SendEvent(event, data); err != nil {
		logger.Error("Failed to send %s event to %s: %v", event, client.ID, err)
	}
}
