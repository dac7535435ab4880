package transport

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/tablegate/tablegate/internal/auth"
	"github.com/tablegate/tablegate/internal/catalog"
	"github.com/tablegate/tablegate/internal/logger"
	"github.com/tablegate/tablegate/internal/mcp"
)

// HTTPTransport serves the single-shot POST endpoint and the health check.
type HTTPTransport struct {
	handler *mcp.Handler
	gate    *auth.Gate
}

// NewHTTPTransport creates the POST /mcp transport.
func NewHTTPTransport(handler *mcp.Handler, gate *auth.Gate) *HTTPTransport {
	return &HTTPTransport{handler: handler, gate: gate}
}

// HandleMCP handles POST /mcp: one JSON-RPC request in, one response out.
// The auth gate runs before anything touches the dispatcher.
func (t *HTTPTransport) HandleMCP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !t.gate.Authorize(r) {
		writeUnauthorized(w)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer r.Body.Close()

	logger.RequestLog(r.Method, r.URL.Path, "", string(body))

	resp := t.handler.DispatchRaw(r.Context(), body)
	if resp == nil {
		// Notification: accepted, nothing to send back.
		w.WriteHeader(http.StatusAccepted)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("Failed to encode response: %v", err)
	}
}

// HandleHealth handles GET /: unauthenticated process status.
func (t *HTTPTransport) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	status := map[string]interface{}{
		"status": "ok",
		"server": mcp.ServerName,
		"tools":  t.handler.Registry().Names(),
		"tables": catalog.Tables(),
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		logger.Error("Failed to encode health response: %v", err)
	}
}

// writeUnauthorized sends the 401 body. It deliberately carries no detail
// about why the token failed.
func writeUnauthorized(w http.ResponseWriter) {
	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		logger.Error("Failed to encode error response: %v", err)
	}
}
