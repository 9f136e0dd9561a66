// Package host implements the host side of the external library protocol:
// loading library configurations, spawning plugin processes, and issuing
// one-request-one-response calls over their standard streams.
package host

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/hielements/extlib-go/value"
	"github.com/hielements/extlib-go/wire"
)

// Session conducts the line-delimited JSON-RPC conversation over an
// arbitrary reader/writer pair. It writes one request line, then blocks
// reading exactly one response line; calls are serialized so at most one
// request is ever in flight, matching the plugin side's strict
// request-then-response loop.
type Session struct {
	mu     sync.Mutex
	w      io.Writer
	r      *bufio.Reader
	nextID uint64
}

// NewSession creates a session reading responses from r and writing
// requests to w.
func NewSession(r io.Reader, w io.Writer) *Session {
	return &Session{
		w: w,
		r: bufio.NewReader(r),
	}
}

// Metadata fetches the plugin's self-description.
func (s *Session) Metadata() (wire.Metadata, error) {
	result, err := s.send(wire.MethodMetadata, struct{}{})
	if err != nil {
		return wire.Metadata{}, err
	}
	var meta wire.Metadata
	if err := json.Unmarshal(result, &meta); err != nil {
		return wire.Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return meta, nil
}

// Call invokes a selector function and decodes its value.
func (s *Session) Call(function string, args []value.Value, workspace string) (value.Value, error) {
	result, err := s.send(wire.MethodCall, invokeParams(function, args, workspace))
	if err != nil {
		return value.Null(), err
	}
	var out value.Value
	if err := json.Unmarshal(result, &out); err != nil {
		return value.Null(), fmt.Errorf("failed to parse call result: %w", err)
	}
	return out, nil
}

// Check invokes a check function and decodes its outcome. Fail and Error
// outcomes arrive here as values, not as returned errors.
func (s *Session) Check(function string, args []value.Value, workspace string) (value.CheckResult, error) {
	result, err := s.send(wire.MethodCheck, invokeParams(function, args, workspace))
	if err != nil {
		return value.CheckResult{}, err
	}
	var out value.CheckResult
	if err := json.Unmarshal(result, &out); err != nil {
		return value.CheckResult{}, fmt.Errorf("failed to parse check result: %w", err)
	}
	return out, nil
}

func invokeParams(function string, args []value.Value, workspace string) wire.InvokeParams {
	if args == nil {
		args = []value.Value{}
	}
	return wire.InvokeParams{Function: function, Args: args, Workspace: workspace}
}

// send writes one request line and reads the matching response line. A
// protocol error response comes back as *ProtocolError.
func (s *Session) send(method string, params interface{}) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	paramsRaw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize params: %w", err)
	}

	s.nextID++
	id := wire.NumberID(s.nextID)
	req := wire.Request{
		JSONRPC: wire.Version,
		Method:  method,
		Params:  paramsRaw,
		ID:      id,
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize request: %w", err)
	}
	data = append(data, '\n')
	if _, err := s.w.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write to plugin: %w", err)
	}

	line, err := s.r.ReadBytes('\n')
	if err != nil && (err != io.EOF || len(line) == 0) {
		return nil, fmt.Errorf("failed to read from plugin: %w", err)
	}

	var resp wire.Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w (response was: %s)", err, string(line))
	}

	if string(resp.ID) != string(id) {
		return nil, fmt.Errorf("response id %s does not match request id %s", string(resp.ID), string(id))
	}
	if resp.Error != nil {
		return nil, &ProtocolError{Code: resp.Error.Code, Message: resp.Error.Message}
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("plugin returned empty result")
	}
	return resp.Result, nil
}
