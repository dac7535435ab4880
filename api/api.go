// Package api exposes the gateway as one mountable http.Handler, for
// serverless platforms that hand the process a single request at a time. It
// is thin glue over the same core the long-lived server uses.
package api

import (
	"net/http"

	"github.com/tablegate/tablegate/internal/auth"
	"github.com/tablegate/tablegate/internal/mcp"
	"github.com/tablegate/tablegate/internal/session"
	"github.com/tablegate/tablegate/internal/transport"
)

// New builds the full route set over an already-wired dispatcher.
func New(handler *mcp.Handler, gate *auth.Gate, clients *session.Registry) http.Handler {
	httpTransport := transport.NewHTTPTransport(handler, gate)
	sseTransport := transport.NewSSETransport(handler, gate, clients)

	mux := http.NewServeMux()
	mux.HandleFunc("/", httpTransport.HandleHealth)
	mux.HandleFunc("/mcp", httpTransport.HandleMCP)
	mux.HandleFunc("/mcp-sse", sseTransport.HandleSSE)
	return mux
}
