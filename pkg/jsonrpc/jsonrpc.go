package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Version is the JSON-RPC protocol version
const Version = "2.0"

// Request represents a JSON-RPC request or notification.
//
// The ID is kept as raw JSON so it can be echoed back verbatim: an absent ID
// marks a notification, while an explicit "null" still produces a response
// carrying id null.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification returns true if the request carries no ID at all.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Response represents a JSON-RPC response
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error represents a JSON-RPC error object
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Standard error codes as defined in the JSON-RPC 2.0 spec
const (
	ParseErrorCode     = -32700
	InvalidRequestCode = -32600
	MethodNotFoundCode = -32601
	InvalidParamsCode  = -32602
	InternalErrorCode  = -32603
)

// Error returns a string representation of the error
func (e *Error) Error() string {
	return fmt.Sprintf("JSON-RPC error %d: %s", e.Code, e.Message)
}

// NewResult creates a success response echoing the request ID.
func NewResult(req *Request, result interface{}) *Response {
	return &Response{
		JSONRPC: Version,
		ID:      normalizeID(req.ID),
		Result:  result,
	}
}

// NewErrorResponse creates an error response echoing the request ID.
func NewErrorResponse(req *Request, rpcErr *Error) *Response {
	var id json.RawMessage
	if req != nil {
		id = req.ID
	}
	return &Response{
		JSONRPC: Version,
		ID:      normalizeID(id),
		Error:   rpcErr,
	}
}

// normalizeID maps an absent ID to an explicit null so the outbound envelope
// always carries an id field.
func normalizeID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return bytes.TrimSpace(id)
}

// NewError creates an Error with the given code and message
func NewError(code int, message string, data interface{}) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// ParseError creates a parse error
func ParseError(data interface{}) *Error {
	return NewError(ParseErrorCode, "Parse error", data)
}

// InvalidRequestError creates an invalid request error
func InvalidRequestError(data interface{}) *Error {
	return NewError(InvalidRequestCode, "Invalid Request", data)
}

// MethodNotFoundError creates a method not found error
func MethodNotFoundError(data interface{}) *Error {
	return NewError(MethodNotFoundCode, "Method not found", data)
}

// InvalidParamsError creates an invalid params error
func InvalidParamsError(data interface{}) *Error {
	return NewError(InvalidParamsCode, "Invalid params", data)
}

// InternalError creates an internal error
func InternalError(data interface{}) *Error {
	return NewError(InternalErrorCode, "Internal error", data)
}
