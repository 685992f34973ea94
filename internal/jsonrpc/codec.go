// Package jsonrpc implements the JSON-RPC 2.0 message envelope used by
// the MCP protocol core: request/notification/response framing, the
// standard error-code table, and builders for the three response shapes
// the rest of the server ever needs to construct.
package jsonrpc

import (
	"encoding/json"
	"strconv"
)

// Version is the only JSON-RPC version this server accepts.
const Version = "2.0"

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// MCP-reserved error codes (spec.md §4.1, §4.2, §7). The range
// -32000..-32099 is reserved for server-defined errors; -32002 is the
// "server not initialized" lifecycle error called out by name in spec.md.
const (
	CodeServerNotInitialized = -32002
)

// Message is a decoded JSON-RPC frame, tagged by which fields are present.
// Exactly one of the IsRequest/IsNotification/IsResponse predicates holds.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *ID             `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// ID is a JSON-RPC request identifier: a string, an integer, or absent.
// A non-nil *ID with both fields zero still distinguishes "id: 0" from
// "no id" (notification), which plain `any` cannot do once marshalled.
type ID struct {
	str    string
	num    int64
	isStr  bool
	isNull bool
}

// NewStringID constructs a string-valued request id.
func NewStringID(s string) *ID { return &ID{str: s, isStr: true} }

// NewNumberID constructs an integer-valued request id.
func NewNumberID(n int64) *ID { return &ID{num: n} }

// String returns the id rendered as a string, regardless of underlying kind.
func (id *ID) String() string {
	if id == nil {
		return ""
	}
	if id.isStr {
		return id.str
	}
	return strconv.FormatInt(id.num, 10)
}

// Equal reports whether two ids carry the same value and kind.
func (id *ID) Equal(other *ID) bool {
	if id == nil || other == nil {
		return id == other
	}
	return id.isStr == other.isStr && id.str == other.str && id.num == other.num
}

func (id *ID) MarshalJSON() ([]byte, error) {
	if id == nil || id.isNull {
		return []byte("null"), nil
	}
	if id.isStr {
		return json.Marshal(id.str)
	}
	return json.Marshal(id.num)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		id.isStr = true
		id.str = v
	case float64:
		id.isStr = false
		id.num = int64(v)
	case nil:
		id.isNull = true
	default:
		return errUnsupportedIDType
	}
	return nil
}

var errUnsupportedIDType = &Error{Code: CodeInvalidRequest, Message: "request id must be a string, a number, or absent"}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// IsRequest reports whether msg is a request (has both method and id).
func (m *Message) IsRequest() bool { return m.Method != "" && m.ID != nil }

// IsNotification reports whether msg is a notification (method, no id).
func (m *Message) IsNotification() bool { return m.Method != "" && m.ID == nil }

// IsResponse reports whether msg is a response (no method, has id).
func (m *Message) IsResponse() bool { return m.Method == "" && m.ID != nil }

// Validate rejects anything that isn't a well-formed 2.0 envelope.
func (m *Message) Validate() error {
	if m.JSONRPC != Version {
		return &Error{Code: CodeInvalidRequest, Message: `missing or invalid "jsonrpc":"2.0"`}
	}
	if m.Method == "" && m.ID == nil {
		return &Error{Code: CodeInvalidRequest, Message: "message is neither a request, a notification, nor a response"}
	}
	return nil
}

// NewRequest builds a request message.
func NewRequest(id *ID, method string, params any) (*Message, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	return &Message{JSONRPC: Version, ID: id, Method: method, Params: raw}, nil
}

// NewNotification builds a notification message (no id, never a response).
func NewNotification(method string, params any) (*Message, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	return &Message{JSONRPC: Version, Method: method, Params: raw}, nil
}

// NewSuccess builds a response-success message for the given request id.
func NewSuccess(id *ID, result any) (*Message, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &Message{JSONRPC: Version, ID: id, Result: raw}, nil
}

// NewError builds a response-error message for the given request id.
// id may be nil when the request could not even be identified (parse error).
func NewError(id *ID, code int, message string, data any) *Message {
	return &Message{JSONRPC: Version, ID: id, Error: &Error{Code: code, Message: message, Data: data}}
}

// NewMethodNotFound is a convenience wrapper for the common -32601 case.
func NewMethodNotFound(id *ID, method string) *Message {
	return NewError(id, CodeMethodNotFound, "method not found", map[string]any{"method": method})
}

// NewInvalidParams is a convenience wrapper for the common -32602 case.
func NewInvalidParams(id *ID, detail any) *Message {
	return NewError(id, CodeInvalidParams, "invalid params", detail)
}

func marshalParams(params any) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	return json.Marshal(params)
}

// Decode parses a single JSON-RPC frame from raw bytes.
func Decode(raw []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, &Error{Code: CodeParseError, Message: "parse error: " + err.Error()}
	}
	return &msg, nil
}

// Encode serializes a message back to its wire form.
func Encode(msg *Message) ([]byte, error) {
	return json.Marshal(msg)
}
