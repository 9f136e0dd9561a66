package value

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CheckStatus discriminates the three check outcomes.
type CheckStatus int

const (
	// StatusPass: the rule holds.
	StatusPass CheckStatus = iota
	// StatusFail: the rule is violated. A normal, expected outcome.
	StatusFail
	// StatusError: the check itself could not run (bad arguments, missing
	// preconditions). Still delivered inside a successful response; the
	// host must be able to tell "rule violated" from "rule unevaluable".
	StatusError
)

// CheckResult is the outcome of a check function.
type CheckResult struct {
	status  CheckStatus
	message string
}

// Pass creates a passing result.
func Pass() CheckResult {
	return CheckResult{status: StatusPass}
}

// Fail creates a failing result with an explanation for the user.
func Fail(message string) CheckResult {
	return CheckResult{status: StatusFail, message: message}
}

// Error creates a could-not-evaluate result. This is a check outcome, not a
// protocol error; it travels in the result field of a successful response.
func Error(message string) CheckResult {
	return CheckResult{status: StatusError, message: message}
}

// Status returns the outcome discriminator.
func (c CheckResult) Status() CheckStatus { return c.status }

// Message returns the explanation for Fail and Error outcomes.
func (c CheckResult) Message() string { return c.message }

// IsPass reports whether the rule held.
func (c CheckResult) IsPass() bool { return c.status == StatusPass }

// IsFail reports whether the rule was violated.
func (c CheckResult) IsFail() bool { return c.status == StatusFail }

// IsError reports whether the check could not be evaluated.
func (c CheckResult) IsError() bool { return c.status == StatusError }

func (c CheckResult) String() string {
	switch c.status {
	case StatusPass:
		return "Pass"
	case StatusFail:
		return fmt.Sprintf("Fail(%s)", c.message)
	default:
		return fmt.Sprintf("Error(%s)", c.message)
	}
}

// MarshalJSON emits the wire form: {"Pass":null}, {"Fail":message}, or
// {"Error":message}.
func (c CheckResult) MarshalJSON() ([]byte, error) {
	switch c.status {
	case StatusPass:
		return []byte(`{"Pass":null}`), nil
	case StatusFail:
		return json.Marshal(map[string]string{"Fail": c.message})
	case StatusError:
		return json.Marshal(map[string]string{"Error": c.message})
	default:
		return nil, fmt.Errorf("cannot encode check status %d", int(c.status))
	}
}

// UnmarshalJSON decodes a check result leniently: the tagged form, the
// {"result": "pass", "message": ...} alternative, and bare strings are all
// accepted. Shapes matching none of those are an error.
func (c *CheckResult) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err == nil {
		if _, ok := fields["Pass"]; ok {
			*c = Pass()
			return nil
		}
		if inner, ok := fields["Fail"]; ok {
			*c = Fail(innerString(inner))
			return nil
		}
		if inner, ok := fields["Error"]; ok {
			*c = Error(innerString(inner))
			return nil
		}
		if inner, ok := fields["result"]; ok {
			switch innerString(inner) {
			case "pass":
				*c = Pass()
				return nil
			case "fail":
				*c = Fail(messageOr(fields, "Check failed"))
				return nil
			case "error":
				*c = Error(messageOr(fields, "Check error"))
				return nil
			}
		}
		return fmt.Errorf("cannot convert object to check result: %s", string(data))
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch strings.ToLower(s) {
		case "pass", "ok", "true":
			*c = Pass()
		case "fail", "false":
			*c = Fail("Check failed")
		default:
			*c = Fail(s)
		}
		return nil
	}

	return fmt.Errorf("cannot convert %s to check result", string(data))
}

func innerString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func messageOr(fields map[string]json.RawMessage, fallback string) string {
	if raw, ok := fields["message"]; ok {
		if s := innerString(raw); s != "" {
			return s
		}
	}
	return fallback
}
