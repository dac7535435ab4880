package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tablegate/tablegate/internal/logger"
	"github.com/tablegate/tablegate/pkg/jsonrpc"
	"github.com/tablegate/tablegate/pkg/tools"
)

const (
	// ProtocolVersion is the MCP protocol revision supported
	ProtocolVersion = "2024-11-05"

	// ServerName and ServerVersion identify this server to clients
	ServerName    = "tablegate"
	ServerVersion = "1.0.0"
)

// Handler dispatches JSON-RPC methods onto the tool registry. Transports are
// stateless per call: every message is treated as arriving on an initialized
// session, so tools/list works before initialize.
type Handler struct {
	toolRegistry   *tools.Registry
	methodHandlers map[string]MethodHandler
}

// MethodHandler handles one JSON-RPC method.
type MethodHandler func(ctx context.Context, req *jsonrpc.Request) (interface{}, *jsonrpc.Error)

// NewHandler creates a new Handler over the given tool registry.
func NewHandler(toolRegistry *tools.Registry) *Handler {
	h := &Handler{
		toolRegistry: toolRegistry,
	}
	h.methodHandlers = map[string]MethodHandler{
		"initialize":                h.Initialize,
		"tools/list":                h.ListTools,
		"tools/call":                h.CallTool,
		"notifications/initialized": h.HandleInitialized,
	}
	return h
}

// Dispatch routes one request and produces its response envelope. It returns
// nil for notifications: an inbound envelope without an ID gets no reply.
// Nothing escapes as a panic or raw error; every failure becomes a JSON-RPC
// error object.
func (h *Handler) Dispatch(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	logger.Debug("Dispatching method=%s id=%s", req.Method, string(req.ID))

	handler, ok := h.methodHandlers[req.Method]
	if !ok {
		logger.Warn("Method not found: %s", req.Method)
		if req.IsNotification() {
			return nil
		}
		return jsonrpc.NewErrorResponse(req, jsonrpc.NewError(
			jsonrpc.MethodNotFoundCode,
			fmt.Sprintf("Method not found: %s", req.Method),
			nil,
		))
	}

	result, rpcErr := handler(ctx, req)
	if req.IsNotification() {
		return nil
	}
	if rpcErr != nil {
		return jsonrpc.NewErrorResponse(req, rpcErr)
	}
	return jsonrpc.NewResult(req, result)
}

// DispatchRaw decodes one JSON-RPC message and dispatches it. Malformed JSON
// yields a parse error envelope.
func (h *Handler) DispatchRaw(ctx context.Context, message []byte) *jsonrpc.Response {
	var req jsonrpc.Request
	if err := json.Unmarshal(message, &req); err != nil {
		return jsonrpc.NewErrorResponse(nil, jsonrpc.ParseError(err.Error()))
	}
	return h.Dispatch(ctx, &req)
}

// Initialize handles the initialize request.
func (h *Handler) Initialize(ctx context.Context, req *jsonrpc.Request) (interface{}, *jsonrpc.Error) {
	var params struct {
		ProtocolVersion string                 `json:"protocolVersion"`
		ClientInfo      map[string]interface{} `json:"clientInfo"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, jsonrpc.InvalidParamsError(err.Error())
		}
	}
	if params.ClientInfo != nil {
		logger.Info("Client connected: %v v%v", params.ClientInfo["name"], params.ClientInfo["version"])
	}

	return InitializeResult(), nil
}

// InitializeResult builds the capability negotiation payload. The SSE
// transport pushes the same payload on connect.
func InitializeResult() map[string]interface{} {
	return map[string]interface{}{
		"protocolVersion": ProtocolVersion,
		"serverInfo": map[string]interface{}{
			"name":    ServerName,
			"version": ServerVersion,
		},
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{
				"listChanged": false,
			},
		},
	}
}

// ListTools handles the tools/list request.
func (h *Handler) ListTools(ctx context.Context, req *jsonrpc.Request) (interface{}, *jsonrpc.Error) {
	return ListToolsResult(h.toolRegistry), nil
}

// ListToolsResult builds the tool catalog payload.
func ListToolsResult(registry *tools.Registry) map[string]interface{} {
	all := registry.All()
	toolsData := make([]map[string]interface{}, 0, len(all))
	for _, tool := range all {
		toolsData = append(toolsData, map[string]interface{}{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": tool.InputSchema,
		})
	}
	return map[string]interface{}{"tools": toolsData}
}

// CallTool handles the tools/call request. The tool's result is wrapped as a
// single text content block containing the JSON-serialized result.
func (h *Handler) CallTool(ctx context.Context, req *jsonrpc.Request) (interface{}, *jsonrpc.Error) {
	var params struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	}
	if len(req.Params) == 0 {
		return nil, jsonrpc.InvalidParamsError("missing tool parameters")
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, jsonrpc.InvalidParamsError(err.Error())
	}
	if params.Name == "" {
		return nil, jsonrpc.InvalidParamsError("missing tool name")
	}
	if params.Arguments == nil {
		params.Arguments = make(map[string]interface{})
	}

	if _, ok := h.toolRegistry.Get(params.Name); !ok {
		logger.Warn("Tool not found: %s", params.Name)
		return nil, jsonrpc.NewError(
			jsonrpc.MethodNotFoundCode,
			fmt.Sprintf("Tool not found: %s", params.Name),
			nil,
		)
	}

	logger.Info("Executing tool: %s", params.Name)
	result, err := h.toolRegistry.Execute(ctx, params.Name, params.Arguments)
	if err != nil {
		logger.Error("Tool %s failed: %v", params.Name, err)
		return nil, jsonrpc.NewError(jsonrpc.InternalErrorCode, err.Error(), nil)
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		logger.Error("Failed to marshal tool result: %v", err)
		return nil, jsonrpc.NewError(jsonrpc.InternalErrorCode, "failed to serialize tool result", nil)
	}

	return map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": string(resultJSON)},
		},
	}, nil
}

// HandleInitialized accepts the initialized notification. It is fire and
// forget; the dispatcher suppresses the response.
func (h *Handler) HandleInitialized(ctx context.Context, req *jsonrpc.Request) (interface{}, *jsonrpc.Error) {
	logger.Debug("Client reported initialized")
	return map[string]interface{}{}, nil
}

// Registry exposes the underlying tool registry to transports that report
// tool names, e.g. the health endpoint.
func (h *Handler) Registry() *tools.Registry {
	return h.toolRegistry
}
