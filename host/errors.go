package host

import "fmt"

// ProtocolError is an error response received from a plugin process: the
// request itself could not be serviced. Semantic check outcomes (Fail,
// Error) never surface this way; they arrive as CheckResult values.
type ProtocolError struct {
	Code    int
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("plugin error %d: %s", e.Code, e.Message)
}
