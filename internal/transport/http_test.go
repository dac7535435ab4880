package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablegate/tablegate/internal/auth"
	"github.com/tablegate/tablegate/internal/logger"
	"github.com/tablegate/tablegate/internal/mcp"
	"github.com/tablegate/tablegate/internal/query"
	"github.com/tablegate/tablegate/internal/session"
	"github.com/tablegate/tablegate/pkg/dbtools"
	"github.com/tablegate/tablegate/pkg/tools"
)

func init() {
	logger.Initialize("error")
}

// spyStore counts how often the data store is reached.
type spyStore struct {
	calls int
}

func (s *spyStore) Select(ctx context.Context, sql string, args ...interface{}) ([]map[string]interface{}, error) {
	s.calls++
	return []map[string]interface{}{}, nil
}

func newTestStack() (*spyStore, *mcp.Handler, *auth.Gate) {
	store := &spyStore{}
	registry := tools.NewRegistry()
	dbtools.RegisterTools(registry, store, query.NewCompiler("mysql"))
	return store, mcp.NewHandler(registry), auth.NewGate("s3cret", true)
}

func TestHandleMCP_Unauthenticated(t *testing.T) {
	store, handler, gate := newTestStack()
	transport := NewHTTPTransport(handler, gate)

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"query_table","arguments":{"table":"articles"}}}`
	r := httptest.NewRequest("POST", "/mcp", strings.NewReader(body))
	w := httptest.NewRecorder()
	transport.HandleMCP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, store.calls, "the store must not be reached without auth")

	var errBody map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errBody))
	assert.Equal(t, "unauthorized", errBody["error"])
}

func TestHandleMCP_AuthorizedCall(t *testing.T) {
	store, handler, gate := newTestStack()
	transport := NewHTTPTransport(handler, gate)

	body := `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"query_table","arguments":{"table":"articles"}}}`
	r := httptest.NewRequest("POST", "/mcp", strings.NewReader(body))
	r.Header.Set("Authorization", "Bearer s3cret")
	w := httptest.NewRecorder()
	transport.HandleMCP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, store.calls)

	var resp struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Result  struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2.0", resp.JSONRPC)
	assert.Equal(t, json.RawMessage("7"), resp.ID)
	require.Len(t, resp.Result.Content, 1)
	assert.Equal(t, "text", resp.Result.Content[0].Type)
	assert.Contains(t, resp.Result.Content[0].Text, `"rowCount":0`)
}

func TestHandleMCP_NotificationAccepted(t *testing.T) {
	_, handler, gate := newTestStack()
	transport := NewHTTPTransport(handler, gate)

	body := `{"jsonrpc":"2.0","method":"notifications/initialized"}`
	r := httptest.NewRequest("POST", "/mcp", strings.NewReader(body))
	r.Header.Set("Authorization", "Bearer s3cret")
	w := httptest.NewRecorder()
	transport.HandleMCP(w, r)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestHandleMCP_RejectsGet(t *testing.T) {
	_, handler, gate := newTestStack()
	transport := NewHTTPTransport(handler, gate)

	r := httptest.NewRequest("GET", "/mcp", nil)
	w := httptest.NewRecorder()
	transport.HandleMCP(w, r)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandleHealth(t *testing.T) {
	_, handler, gate := newTestStack()
	transport := NewHTTPTransport(handler, gate)

	r := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	transport.HandleHealth(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var status struct {
		Status string   `json:"status"`
		Tools  []string `json:"tools"`
		Tables []string `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "ok", status.Status)
	assert.Contains(t, status.Tools, "query_table")
	assert.Len(t, status.Tables, 16)
}

func TestHandleSSE_Unauthenticated(t *testing.T) {
	store, handler, gate := newTestStack()
	registry := session.NewRegistry()
	transport := NewSSETransport(handler, gate, registry)

	r := httptest.NewRequest("GET", "/mcp-sse", nil)
	w := httptest.NewRecorder()
	transport.HandleSSE(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, store.calls)
	assert.Equal(t, 0, registry.Len())
}

func TestHandleSSE_ConnectPushesCapabilitiesAndAnswersMessage(t *testing.T) {
	store, handler, gate := newTestStack()
	registry := session.NewRegistry()
	transport := NewSSETransport(handler, gate, registry)

	message := `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"list_tables","arguments":{}}}`
	target := "/mcp-sse?token=s3cret&message=" + urlEncode(message)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // disconnect immediately after the initial events
	r := httptest.NewRequest("GET", target, nil).WithContext(ctx)
	w := httptest.NewRecorder()
	transport.HandleSSE(w, r)

	body := w.Body.String()
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, body, "event: initialized")
	assert.Contains(t, body, `"protocolVersion"`)
	assert.Contains(t, body, "event: message")
	assert.Contains(t, body, `"id":3`)
	assert.Contains(t, body, `\"count\":16`)
	assert.Equal(t, 0, store.calls, "list_tables needs no store access")

	// The connection is deregistered on disconnect.
	assert.Equal(t, 0, registry.Len())
}

func urlEncode(s string) string {
	replacer := strings.NewReplacer(
		`{`, `%7B`, `}`, `%7D`, `"`, `%22`, ` `, `%20`, `:`, `%3A`, `,`, `%2C`, `/`, `%2F`,
	)
	return replacer.Replace(s)
}
