package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablegate/tablegate/internal/logger"
	"github.com/tablegate/tablegate/pkg/jsonrpc"
	"github.com/tablegate/tablegate/pkg/tools"
)

func init() {
	logger.Initialize("error")
}

func newTestHandler() *Handler {
	registry := tools.NewRegistry()
	registry.Register(&tools.Tool{
		Name:        "echo",
		Description: "echoes its arguments",
		InputSchema: tools.ToolInputSchema{Type: "object"},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return args, nil
		},
	})
	registry.Register(&tools.Tool{
		Name:        "boom",
		Description: "always fails",
		InputSchema: tools.ToolInputSchema{Type: "object"},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return nil, errors.New("store exploded")
		},
	})
	return NewHandler(registry)
}

func dispatch(t *testing.T, h *Handler, raw string) *jsonrpc.Response {
	t.Helper()
	return h.DispatchRaw(context.Background(), []byte(raw))
}

func TestInitialize(t *testing.T) {
	h := newTestHandler()

	resp := dispatch(t, h, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"test","version":"0.1"}}}`)
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)
	assert.Equal(t, json.RawMessage("1"), resp.ID)

	result := resp.Result.(map[string]interface{})
	assert.Equal(t, ProtocolVersion, result["protocolVersion"])
	caps := result["capabilities"].(map[string]interface{})
	toolsCap := caps["tools"].(map[string]interface{})
	assert.Equal(t, false, toolsCap["listChanged"])
}

func TestToolsListWorksBeforeInitialize(t *testing.T) {
	h := newTestHandler()

	resp := dispatch(t, h, `{"jsonrpc":"2.0","id":"a","method":"tools/list"}`)
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)

	result := resp.Result.(map[string]interface{})
	listed := result["tools"].([]map[string]interface{})
	require.Len(t, listed, 2)
	assert.Equal(t, "boom", listed[0]["name"])
	assert.Equal(t, "echo", listed[1]["name"])
}

func TestCallTool_IDEchoedVerbatim(t *testing.T) {
	h := newTestHandler()

	tests := []struct {
		id     string
		wantID string
	}{
		{`42`, `42`},
		{`"req-9"`, `"req-9"`},
		{`null`, `null`},
	}

	for _, tc := range tests {
		raw := `{"jsonrpc":"2.0","id":` + tc.id + `,"method":"tools/call","params":{"name":"echo","arguments":{"x":1}}}`
		resp := dispatch(t, h, raw)
		require.NotNil(t, resp)
		assert.Equal(t, json.RawMessage(tc.wantID), resp.ID)
		assert.Nil(t, resp.Error)
	}
}

func TestCallTool_ResultIsTextContentBlock(t *testing.T) {
	h := newTestHandler()

	resp := dispatch(t, h, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo","arguments":{"x":"y"}}}`)
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	require.Len(t, content, 1)
	assert.Equal(t, "text", content[0]["type"])
	assert.JSONEq(t, `{"x":"y"}`, content[0]["text"].(string))
}

func TestCallTool_UnknownToolIsMethodNotFound(t *testing.T) {
	h := newTestHandler()

	resp := dispatch(t, h, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"nope","arguments":{}}}`)
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.MethodNotFoundCode, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "nope")
	assert.Nil(t, resp.Result)
}

func TestCallTool_FailureBecomesInternalError(t *testing.T) {
	h := newTestHandler()

	resp := dispatch(t, h, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"boom","arguments":{}}}`)
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.InternalErrorCode, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "store exploded")
}

func TestCallTool_MissingName(t *testing.T) {
	h := newTestHandler()

	resp := dispatch(t, h, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"arguments":{}}}`)
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.InvalidParamsCode, resp.Error.Code)
}

func TestUnknownMethod(t *testing.T) {
	h := newTestHandler()

	resp := dispatch(t, h, `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`)
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.MethodNotFoundCode, resp.Error.Code)
}

func TestNotificationsProduceNoResponse(t *testing.T) {
	h := newTestHandler()

	resp := dispatch(t, h, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	assert.Nil(t, resp)

	// Even unknown methods stay silent without an ID.
	resp = dispatch(t, h, `{"jsonrpc":"2.0","method":"no/such/method"}`)
	assert.Nil(t, resp)
}

func TestMalformedJSONIsParseError(t *testing.T) {
	h := newTestHandler()

	resp := dispatch(t, h, `{not json`)
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.ParseErrorCode, resp.Error.Code)
	assert.Equal(t, json.RawMessage("null"), resp.ID)
}
