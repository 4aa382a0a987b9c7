package dispatch

import (
	"strconv"
	"strings"

	"grimm.is/spring/internal/errors"
	"grimm.is/spring/internal/network"
)

// Type is the type of an operation argument or result.
type Type uint8

const (
	TypeNil Type = iota
	TypeInt
	TypeString
	TypeList
)

func (t Type) String() string {
	switch t {
	case TypeNil:
		return "nil"
	case TypeInt:
		return "int"
	case TypeString:
		return "string"
	case TypeList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a typed argument or result. Only the field matching Type is set.
// All fields are exported so values cross the control socket unchanged.
type Value struct {
	Type Type
	Int  int64
	Str  string
	List []network.Interface
}

// Nil is the empty result.
var Nil = Value{}

// Int wraps an integer.
func Int(n int64) Value { return Value{Type: TypeInt, Int: n} }

// String wraps a string.
func String(s string) Value { return Value{Type: TypeString, Str: s} }

// List wraps an enumeration result.
func List(l []network.Interface) Value { return Value{Type: TypeList, List: l} }

// String renders the value for terminal output. Lists print one
// "index<TAB>name" line per entry.
func (v Value) String() string {
	switch v.Type {
	case TypeInt:
		return strconv.FormatInt(v.Int, 10)
	case TypeString:
		return v.Str
	case TypeList:
		var b strings.Builder
		for i, e := range v.List {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(strconv.Itoa(int(e.Index)))
			b.WriteByte('\t')
			b.WriteString(e.Name)
		}
		return b.String()
	default:
		return ""
	}
}

// parseArg converts a command-line word to a value of type t. Integers
// accept any base prefix strconv understands, so flag masks may be given
// in hex.
func parseArg(s string, t Type) (Value, error) {
	switch t {
	case TypeString:
		return String(s), nil
	case TypeInt:
		n, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return Nil, errors.Errorf(errors.KindArgument, "%q is not an integer", s)
		}
		return Int(n), nil
	default:
		return Nil, errors.Errorf(errors.KindArgument, "cannot pass %s arguments", t)
	}
}
