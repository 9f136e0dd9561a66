// Package wire defines the JSON-RPC flavored envelope exchanged between the
// host and an external library plugin. One JSON document per line in each
// direction; requests flow host to plugin, responses flow back. The envelope
// is not strictly JSON-RPC 2.0 compliant: the "jsonrpc" field is emitted but
// never enforced on receipt.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Reserved error codes carried in error responses.
const (
	// CodeParseError signals a line that was not valid JSON.
	CodeParseError = -32700
	// CodeMethodNotFound signals a method outside the supported set.
	CodeMethodNotFound = -32601
	// CodeApplication signals an application-level failure: unknown
	// function, invalid params, or an uncaught failure inside a handler.
	CodeApplication = -32000
)

// Protocol method names.
const (
	MethodMetadata = "library.metadata"
	MethodCall     = "library.call"
	MethodCheck    = "library.check"
)

// Version is the protocol version string emitted in every message.
const Version = "2.0"

// ZeroID is the correlation id used for responses to lines that could not be
// parsed, there being no request id to echo.
var ZeroID = json.RawMessage("0")

// Request is one inbound protocol request. The id is opaque to the plugin
// (integer or string) and is echoed verbatim on the response.
type Request struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// CorrelationID returns the id to echo on the response. A request that
// carried no id at all correlates as 1.
func (r Request) CorrelationID() json.RawMessage {
	if len(bytes.TrimSpace(r.ID)) == 0 {
		return json.RawMessage("1")
	}
	return r.ID
}

// Response is one outbound protocol response. Exactly one of Result and Error
// is set; a check that failed is still a Result, never an Error.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// Error is the error member of a failed response.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// NewResult builds a success response, marshaling the payload in place.
func NewResult(id json.RawMessage, result interface{}) (Response, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return Response{}, fmt.Errorf("failed to marshal result: %w", err)
	}
	return Response{JSONRPC: Version, Result: data, ID: id}, nil
}

// NewError builds an error response.
func NewError(id json.RawMessage, code int, message string) Response {
	return Response{JSONRPC: Version, Error: &Error{Code: code, Message: message}, ID: id}
}

// NumberID renders a numeric correlation id for outbound requests.
func NumberID(n uint64) json.RawMessage {
	return json.RawMessage(strconv.FormatUint(n, 10))
}

// Metadata is a plugin's self-description, static for the process lifetime.
// Functions and checks are listed in registration order.
type Metadata struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Functions []string `json:"functions"`
	Checks    []string `json:"checks"`
}
