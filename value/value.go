// Package value implements the tagged value domain passed between the host
// and external library plugins: strings, integers, booleans, lists, and
// file-system scopes, plus the three-way check outcome.
//
// Encoding always produces the tagged form ({"String": ...}, {"Int": ...},
// and so on). Decoding is deliberately lenient: bare JSON scalars are
// accepted as aliases for String and Int, a raw scope object is accepted
// where a scope is expected, and any shape that matches no alternative is
// coerced to a String holding the raw JSON text rather than rejected. The
// leniency keeps the cross-process contract from being brittle; round-trip
// decode(encode(v)) == v still holds for every representable value.
package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind discriminates the variants of Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindString
	KindList
	KindScope
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindString:
		return "String"
	case KindList:
		return "List"
	case KindScope:
		return "Scope"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Value is a member of the closed tagged union exchanged as function and
// check arguments and as selector results. The zero Value is Null.
type Value struct {
	kind  Kind
	b     bool
	n     int64
	s     string
	items []Value
	scope *Scope
}

// Null returns the null value.
func Null() Value {
	return Value{kind: KindNull}
}

// NewBool creates a Bool value.
func NewBool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// NewInt creates an Int value.
func NewInt(n int64) Value {
	return Value{kind: KindInt, n: n}
}

// NewString creates a String value.
func NewString(s string) Value {
	return Value{kind: KindString, s: s}
}

// NewList creates a List value from its elements.
func NewList(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, items: items}
}

// NewScope creates a Scope value.
func NewScope(s Scope) Value {
	return Value{kind: KindScope, scope: &s}
}

// Kind returns the variant discriminator.
func (v Value) Kind() Kind { return v.kind }

// AsBool returns the boolean payload if this is a Bool.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsInt returns the integer payload if this is an Int.
func (v Value) AsInt() (int64, bool) {
	return v.n, v.kind == KindInt
}

// AsString returns the text payload if this is a String.
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// AsList returns the elements if this is a List.
func (v Value) AsList() ([]Value, bool) {
	return v.items, v.kind == KindList
}

// AsScope returns the scope payload if this is a Scope.
func (v Value) AsScope() (*Scope, bool) {
	if v.kind != KindScope {
		return nil, false
	}
	return v.scope, true
}

// CoerceString renders any value as text. Strings pass through, simple
// scalars format naturally, and compound variants render as their tagged
// JSON encoding.
func (v Value) CoerceString() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.n, 10)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNull:
		return "null"
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return v.kind.String()
		}
		return string(data)
	}
}

// CoerceInt extracts an integer from an Int or a numeric String. Anything
// else is a hard failure, surfaced to the host as an application error.
func (v Value) CoerceInt() (int64, error) {
	switch v.kind {
	case KindInt:
		return v.n, nil
	case KindString:
		n, err := strconv.ParseInt(v.s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to an integer", v.s)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("cannot convert %s value to an integer", v.kind)
	}
}

// Equal reports deep equality of two values.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.n == other.n
	case KindString:
		return v.s == other.s
	case KindList:
		if len(v.items) != len(other.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(other.items[i]) {
				return false
			}
		}
		return true
	case KindScope:
		return v.scope.Equal(*other.scope)
	default:
		return false
	}
}

// MarshalJSON emits the fully tagged wire form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(map[string]bool{"Bool": v.b})
	case KindInt:
		return json.Marshal(map[string]int64{"Int": v.n})
	case KindString:
		return json.Marshal(map[string]string{"String": v.s})
	case KindList:
		items := v.items
		if items == nil {
			items = []Value{}
		}
		return json.Marshal(map[string][]Value{"List": items})
	case KindScope:
		return json.Marshal(map[string]*Scope{"Scope": v.scope})
	default:
		return nil, fmt.Errorf("cannot encode value of kind %d", int(v.kind))
	}
}

// UnmarshalJSON decodes the lenient wire form. It accepts bare scalars,
// single-key tagged objects, and raw scope objects; anything else coerces to
// a String carrying the raw JSON text. It never fails on valid JSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 {
		*v = Null()
		return nil
	}

	switch raw[0] {
	case 'n':
		*v = Null()
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err == nil {
			*v = NewBool(b)
			return nil
		}
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			*v = NewString(s)
			return nil
		}
	case '{':
		if out, ok := decodeObject(raw); ok {
			*v = out
			return nil
		}
	default:
		var num json.Number
		if err := json.Unmarshal(raw, &num); err == nil {
			if n, err := num.Int64(); err == nil {
				*v = NewInt(n)
				return nil
			}
		}
	}

	*v = NewString(string(raw))
	return nil
}

// decodeObject handles the tagged forms and the raw scope form. Reports
// false when the object matches no known shape so the caller can apply the
// string fallback.
func decodeObject(raw []byte) (Value, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Value{}, false
	}

	if len(fields) == 1 {
		for tag, inner := range fields {
			switch tag {
			case "String":
				var s string
				if err := json.Unmarshal(inner, &s); err == nil {
					return NewString(s), true
				}
			case "Int":
				var num json.Number
				if err := json.Unmarshal(inner, &num); err == nil {
					if n, err := num.Int64(); err == nil {
						return NewInt(n), true
					}
				}
			case "Bool":
				var b bool
				if err := json.Unmarshal(inner, &b); err == nil {
					return NewBool(b), true
				}
			case "List":
				var items []Value
				if err := json.Unmarshal(inner, &items); err == nil {
					return NewList(items...), true
				}
			case "Scope":
				var s Scope
				if err := json.Unmarshal(inner, &s); err == nil {
					return NewScope(s), true
				}
			}
			// A single-key object with an unknown or malformed tag falls
			// through to the raw scope check, then the string fallback.
		}
	}

	// A raw scope object is accepted where a value is expected, so peers
	// may pass scopes without the Scope tag.
	if _, hasKind := fields["kind"]; hasKind {
		if _, hasPaths := fields["paths"]; hasPaths {
			var s Scope
			if err := json.Unmarshal(raw, &s); err == nil {
				return NewScope(s), true
			}
		}
	}

	return Value{}, false
}
