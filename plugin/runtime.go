// Package plugin implements the plugin-side protocol handler: a registry of
// named selector functions and check functions, a dispatcher that routes
// inbound requests to them, and a transport loop that reads one request per
// line from an input stream and writes one response per line to an output
// stream.
//
// The runtime is single-threaded and stateless across requests: the next
// request is not read until the current response has been written and
// flushed, and nothing persists from one cycle to the next.
package plugin

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/hielements/extlib-go/value"
	"github.com/hielements/extlib-go/wire"
)

// MaxLineBytes bounds the size of a single request line.
const MaxLineBytes = 4 * 1024 * 1024

// FunctionHandler implements a selector: it receives the decoded positional
// arguments and the workspace root, and produces a Value (typically a Scope).
// A returned error becomes a protocol error response, never a check outcome.
type FunctionHandler func(args []value.Value, workspace string) (value.Value, error)

// CheckHandler implements a check. Precondition failures (wrong argument
// types and the like) should be reported as value.Error results, not as
// returned errors: "check could not run" is a meaningful outcome the host
// renders to the user. A returned error becomes a protocol error response.
type CheckHandler func(args []value.Value, workspace string) (value.CheckResult, error)

// Runtime dispatches protocol requests to registered functions and checks.
type Runtime struct {
	name    string
	version string

	functions     map[string]FunctionHandler
	functionNames []string
	checks        map[string]CheckHandler
	checkNames    []string

	log zerolog.Logger
}

// NewRuntime creates an empty runtime for a library with the given name and
// version. Logging goes to stderr; stdout belongs to the wire.
func NewRuntime(name, version string) *Runtime {
	return &Runtime{
		name:      name,
		version:   version,
		functions: make(map[string]FunctionHandler),
		checks:    make(map[string]CheckHandler),
		log: zerolog.New(os.Stderr).With().
			Timestamp().
			Str("library", name).
			Logger(),
	}
}

// RegisterFunction makes fn callable via library.call under the given name.
// Registration order is preserved in the metadata listing.
func (r *Runtime) RegisterFunction(name string, fn FunctionHandler) {
	if _, exists := r.functions[name]; !exists {
		r.functionNames = append(r.functionNames, name)
	}
	r.functions[name] = fn
}

// RegisterCheck makes fn callable via library.check under the given name.
func (r *Runtime) RegisterCheck(name string, fn CheckHandler) {
	if _, exists := r.checks[name]; !exists {
		r.checkNames = append(r.checkNames, name)
	}
	r.checks[name] = fn
}

// Metadata returns the library's self-description.
func (r *Runtime) Metadata() wire.Metadata {
	functions := make([]string, len(r.functionNames))
	copy(functions, r.functionNames)
	checks := make([]string, len(r.checkNames))
	copy(checks, r.checkNames)
	return wire.Metadata{
		Name:      r.name,
		Version:   r.version,
		Functions: functions,
		Checks:    checks,
	}
}

// Dispatch routes one parsed request and shapes the outcome into a response.
// It is a pure function of the request and the file-system contents the
// invoked handler inspects; every failure is converted to an error response
// scoped to this request.
func (r *Runtime) Dispatch(req wire.Request) wire.Response {
	id := req.CorrelationID()

	switch req.Method {
	case wire.MethodMetadata:
		resp, err := wire.NewResult(id, r.Metadata())
		if err != nil {
			return wire.NewError(id, wire.CodeApplication, err.Error())
		}
		return resp

	case wire.MethodCall:
		out, err := r.call(req.Params)
		if err != nil {
			return wire.NewError(id, wire.CodeApplication, err.Error())
		}
		resp, err := wire.NewResult(id, out)
		if err != nil {
			return wire.NewError(id, wire.CodeApplication, err.Error())
		}
		return resp

	case wire.MethodCheck:
		out, err := r.check(req.Params)
		if err != nil {
			return wire.NewError(id, wire.CodeApplication, err.Error())
		}
		resp, err := wire.NewResult(id, out)
		if err != nil {
			return wire.NewError(id, wire.CodeApplication, err.Error())
		}
		return resp

	default:
		return wire.NewError(id, wire.CodeMethodNotFound,
			fmt.Sprintf("Unknown method: %s", req.Method))
	}
}

// call handles library.call: look the function up, invoke it, return its
// value. An unknown function is a protocol-level failure, never a check
// outcome.
func (r *Runtime) call(params json.RawMessage) (out value.Value, err error) {
	p, err := decodeInvokeParams(params)
	if err != nil {
		return value.Null(), err
	}
	fn, ok := r.functions[p.Function]
	if !ok {
		return value.Null(), fmt.Errorf("Unknown function: %s", p.Function)
	}

	defer recoverInvoke(&err)
	return fn(p.Args, p.Workspace)
}

// check handles library.check. The same lookup discipline applies: an
// unknown check name is a protocol error, while a known check reports its
// own evaluability through the result value.
func (r *Runtime) check(params json.RawMessage) (out value.CheckResult, err error) {
	p, err := decodeInvokeParams(params)
	if err != nil {
		return value.CheckResult{}, err
	}
	fn, ok := r.checks[p.Function]
	if !ok {
		return value.CheckResult{}, fmt.Errorf("Unknown check: %s", p.Function)
	}

	defer recoverInvoke(&err)
	return fn(p.Args, p.Workspace)
}

// recoverInvoke converts a handler panic into the per-request error channel
// so a misbehaving handler cannot take the process down.
func recoverInvoke(err *error) {
	if p := recover(); p != nil {
		*err = fmt.Errorf("handler panicked: %v", p)
	}
}

// decodeInvokeParams validates the params shape against the protocol schema
// and decodes it. Workspace defaults to the current directory.
func decodeInvokeParams(raw json.RawMessage) (wire.InvokeParams, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage(`{}`)
	}
	if err := validateInvokeParams(raw); err != nil {
		return wire.InvokeParams{}, err
	}
	var p wire.InvokeParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return wire.InvokeParams{}, fmt.Errorf("invalid params: %w", err)
	}
	if p.Workspace == "" {
		p.Workspace = "."
	}
	return p, nil
}

// Serve runs the transport loop: one request per input line, one response
// per output line, each response flushed before the next line is read. Blank
// lines are skipped. A line that is not valid JSON produces a single parse
// error response with id 0 and does not terminate the loop. Serve returns
// when the input reaches EOF, or with the first unrecoverable I/O error.
func (r *Runtime) Serve(in io.Reader, out io.Writer) error {
	r.log.Info().Str("version", r.version).Msg("library serving")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	w := bufio.NewWriter(out)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var resp wire.Response
		var req wire.Request
		if err := json.Unmarshal(line, &req); err != nil {
			r.log.Warn().Err(err).Msg("discarding unparseable request line")
			resp = wire.NewError(wire.ZeroID, wire.CodeParseError,
				fmt.Sprintf("Parse error: %v", err))
		} else {
			r.log.Debug().Str("method", req.Method).Msg("dispatching request")
			resp = r.Dispatch(req)
		}

		if err := writeResponse(w, resp); err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}
	r.log.Info().Msg("input closed, library exiting")
	return nil
}

// Run serves the protocol over the process's standard input and output.
func (r *Runtime) Run() error {
	return r.Serve(os.Stdin, os.Stdout)
}

// writeResponse emits one complete JSON document plus newline and flushes,
// so a host reading line-by-line never stalls on buffering.
func writeResponse(w *bufio.Writer, resp wire.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if err := w.WriteByte('\n'); err != nil {
		return err
	}
	return w.Flush()
}
