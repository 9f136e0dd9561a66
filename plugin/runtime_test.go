package plugin_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hielements/extlib-go/plugin"
	"github.com/hielements/extlib-go/sample"
	"github.com/hielements/extlib-go/value"
	"github.com/hielements/extlib-go/wire"
)

// serve feeds input through a fresh sample runtime and returns the emitted
// response lines.
func serve(t *testing.T, input string) []string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, sample.NewRuntime().Serve(strings.NewReader(input), &out))
	raw := strings.TrimRight(out.String(), "\n")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, "\n")
}

func serveOne(t *testing.T, input string) string {
	t.Helper()
	lines := serve(t, input)
	require.Len(t, lines, 1)
	return lines[0]
}

func TestMetadataRequest(t *testing.T) {
	got := serveOne(t, `{"method":"library.metadata","params":{},"id":1}`+"\n")
	assert.Equal(t,
		`{"jsonrpc":"2.0","result":{"name":"sample","version":"1.0.0",`+
			`"functions":["simple_selector"],"checks":["file_count_check","always_pass","always_fail"]},"id":1}`,
		got)
}

func TestCheckAlwaysFail(t *testing.T) {
	got := serveOne(t, `{"method":"library.check","params":{"function":"always_fail","args":["too big"]},"id":2}`+"\n")
	assert.Equal(t, `{"jsonrpc":"2.0","result":{"Fail":"too big"},"id":2}`, got)
}

func TestCheckFileCountOverLimit(t *testing.T) {
	got := serveOne(t, `{"method":"library.check","params":{"function":"file_count_check",`+
		`"args":[{"Scope":{"kind":{"Folder":"src"},"paths":["a","b","c"],"resolved":true}},2]},"id":3}`+"\n")
	assert.Equal(t, `{"jsonrpc":"2.0","result":{"Fail":"Too many files: 3 > 2"},"id":3}`, got)
}

func TestUnknownMethod(t *testing.T) {
	got := serveOne(t, `{"method":"library.frobnicate","params":{},"id":4}`+"\n")
	assert.Equal(t,
		`{"jsonrpc":"2.0","error":{"code":-32601,"message":"Unknown method: library.frobnicate"},"id":4}`,
		got)
}

func TestUnknownFunctionIsProtocolError(t *testing.T) {
	got := serveOne(t, `{"method":"library.call","params":{"function":"missing","args":[]},"id":5}`+"\n")
	assert.Equal(t,
		`{"jsonrpc":"2.0","error":{"code":-32000,"message":"Unknown function: missing"},"id":5}`,
		got)
}

func TestUnknownCheckIsProtocolErrorNotCheckResult(t *testing.T) {
	got := serveOne(t, `{"method":"library.check","params":{"function":"missing","args":[]},"id":6}`+"\n")
	assert.Equal(t,
		`{"jsonrpc":"2.0","error":{"code":-32000,"message":"Unknown check: missing"},"id":6}`,
		got)
	assert.NotContains(t, got, "Fail")
}

func TestCheckPreconditionFailureIsResultNotError(t *testing.T) {
	// A known check whose first argument is not a Scope yields an Error
	// outcome inside a successful response, never a protocol error.
	got := serveOne(t, `{"method":"library.check","params":{"function":"file_count_check","args":["not a scope"]},"id":7}`+"\n")
	assert.Equal(t,
		`{"jsonrpc":"2.0","result":{"Error":"First argument must be a scope"},"id":7}`,
		got)
}

func TestBlankLinesProduceNoOutput(t *testing.T) {
	lines := serve(t, "\n   \n\n")
	assert.Empty(t, lines)
}

func TestMalformedLineDoesNotStopTheLoop(t *testing.T) {
	input := "this is not json\n" +
		`{"method":"library.check","params":{"function":"always_pass"},"id":8}` + "\n"
	lines := serve(t, input)
	require.Len(t, lines, 2)

	var resp wire.Response
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, wire.CodeParseError, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "Parse error")
	assert.Equal(t, "0", string(resp.ID))

	assert.Equal(t, `{"jsonrpc":"2.0","result":{"Pass":null},"id":8}`, lines[1])
}

func TestDispatchIsDeterministic(t *testing.T) {
	req := `{"method":"library.metadata","params":{},"id":1}` + "\n"
	first := serveOne(t, req)
	second := serveOne(t, req)
	assert.Equal(t, first, second)
}

func TestStringIDEchoedVerbatim(t *testing.T) {
	got := serveOne(t, `{"method":"library.check","params":{"function":"always_pass"},"id":"req-9f"}`+"\n")
	assert.Equal(t, `{"jsonrpc":"2.0","result":{"Pass":null},"id":"req-9f"}`, got)
}

func TestMissingIDDefaultsToOne(t *testing.T) {
	got := serveOne(t, `{"method":"library.metadata","params":{}}`+"\n")
	assert.True(t, strings.HasSuffix(got, `"id":1}`), "got %s", got)
}

func TestInvalidParamsRejectedBySchema(t *testing.T) {
	cases := []string{
		`{"method":"library.call","params":{"function":5},"id":10}`,
		`{"method":"library.call","params":{},"id":11}`,
		`{"method":"library.call","id":12}`,
		`{"method":"library.check","params":[],"id":13}`,
	}
	for _, in := range cases {
		got := serveOne(t, in+"\n")
		var resp wire.Response
		require.NoError(t, json.Unmarshal([]byte(got), &resp))
		require.NotNil(t, resp.Error, "input %s should produce an error response", in)
		assert.Equal(t, wire.CodeApplication, resp.Error.Code)
		assert.Contains(t, resp.Error.Message, "invalid params")
	}
}

func TestBadMaxArgumentSurfacesAsApplicationError(t *testing.T) {
	// An integer coercion failure inside a check is an uncaught handler
	// failure, which lands on the protocol error channel.
	got := serveOne(t, `{"method":"library.check","params":{"function":"file_count_check",`+
		`"args":[{"Scope":{"kind":{"Folder":"src"},"paths":[],"resolved":true}},"not a number"]},"id":14}`+"\n")
	var resp wire.Response
	require.NoError(t, json.Unmarshal([]byte(got), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, wire.CodeApplication, resp.Error.Code)
}

func TestHandlerPanicBecomesApplicationError(t *testing.T) {
	rt := plugin.NewRuntime("panicky", "0.0.1")
	rt.RegisterCheck("boom", func(_ []value.Value, _ string) (value.CheckResult, error) {
		panic("kaboom")
	})

	var out bytes.Buffer
	input := `{"method":"library.check","params":{"function":"boom"},"id":1}` + "\n"
	require.NoError(t, rt.Serve(strings.NewReader(input), &out))

	var resp wire.Response
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(out.Bytes()), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, wire.CodeApplication, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "kaboom")
}

func TestMetadataListsNamesInRegistrationOrder(t *testing.T) {
	rt := plugin.NewRuntime("ordered", "0.0.1")
	pass := func(_ []value.Value, _ string) (value.CheckResult, error) {
		return value.Pass(), nil
	}
	rt.RegisterCheck("zeta", pass)
	rt.RegisterCheck("alpha", pass)
	rt.RegisterCheck("zeta", pass) // re-registration keeps the original slot

	meta := rt.Metadata()
	assert.Equal(t, []string{"zeta", "alpha"}, meta.Checks)
	assert.Equal(t, []string{}, meta.Functions)
}

func TestWorkspaceDefaultsToCurrentDirectory(t *testing.T) {
	rt := plugin.NewRuntime("ws", "0.0.1")
	var seen string
	rt.RegisterFunction("probe", func(_ []value.Value, workspace string) (value.Value, error) {
		seen = workspace
		return value.Null(), nil
	})

	var out bytes.Buffer
	input := `{"method":"library.call","params":{"function":"probe"},"id":1}` + "\n"
	require.NoError(t, rt.Serve(strings.NewReader(input), &out))
	assert.Equal(t, ".", seen)
}

func TestEveryRequestGetsExactlyOneResponse(t *testing.T) {
	input := strings.Join([]string{
		`{"method":"library.metadata","params":{},"id":1}`,
		``,
		`garbage`,
		`{"method":"library.check","params":{"function":"always_pass"},"id":2}`,
		`{"method":"library.nope","params":{},"id":3}`,
	}, "\n") + "\n"

	lines := serve(t, input)
	// Four parseable or unparseable requests, one blank line skipped.
	assert.Len(t, lines, 4)
}
