package wire

import (
	"github.com/hielements/extlib-go/value"
)

// InvokeParams is the params shape shared by library.call and library.check:
// a function name, positional Value arguments, and the workspace root the
// invocation may inspect. Workspace defaults to "." when omitted.
type InvokeParams struct {
	Function  string        `json:"function"`
	Args      []value.Value `json:"args"`
	Workspace string        `json:"workspace,omitempty"`
}
