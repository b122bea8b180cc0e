package value

import (
	"math"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindInteger
	KindFloat
	KindString
)

var kindNames = [...]string{
	KindNil:     "none",
	KindBool:    "bool",
	KindInteger: "integer",
	KindFloat:   "float",
	KindString:  "string",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is a tagged runtime value. Only the field matching Kind is
// meaningful. String values hold a handle owned by a Pool.
type Value struct {
	Kind Kind
	B    bool
	I    int64
	F    float64
	S    *String
}

func Nil() Value { return Value{Kind: KindNil} }
func Bool(b bool) Value {
	return Value{Kind: KindBool, B: b}
}
func Integer(i int64) Value {
	return Value{Kind: KindInteger, I: i}
}
func Float(f float64) Value {
	return Value{Kind: KindFloat, F: f}
}

// FromString wraps an interned handle. A nil handle yields Nil.
func FromString(s *String) Value {
	if s == nil {
		return Nil()
	}
	return Value{Kind: KindString, S: s}
}

func (v Value) IsNil() bool    { return v.Kind == KindNil }
func (v Value) IsNumber() bool { return v.Kind == KindInteger || v.Kind == KindFloat }

// AsFloat returns the numeric value promoted to float64.
func (v Value) AsFloat() (float64, bool) {
	switch v.Kind {
	case KindInteger:
		return float64(v.I), true
	case KindFloat:
		return v.F, true
	default:
		return 0, false
	}
}

// TypeName returns the script-visible name of the value's type.
func TypeName(v Value) string {
	return v.Kind.String()
}

// Truthy reports whether v counts as true in a condition. none, false,
// zero numbers and the empty string are false.
func Truthy(v Value) bool {
	switch v.Kind {
	case KindNil:
		return false
	case KindBool:
		return v.B
	case KindInteger:
		return v.I != 0
	case KindFloat:
		return v.F != 0
	case KindString:
		return v.S.Len() != 0
	default:
		return true
	}
}

// Equal compares without coercion: values of different kinds are never
// equal, so 1 and 1.0 differ. Strings compare by handle.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNil:
		return true
	case KindBool:
		return a.B == b.B
	case KindInteger:
		return a.I == b.I
	case KindFloat:
		return a.F == b.F
	case KindString:
		return a.S == b.S
	default:
		return false
	}
}

// String formats the value the way print shows it.
func (v Value) String() string {
	switch v.Kind {
	case KindNil:
		return "none"
	case KindBool:
		if v.B {
			return "true"
		}
		return "false"
	case KindInteger:
		return strconv.FormatInt(v.I, 10)
	case KindFloat:
		return FormatFloat(v.F)
	case KindString:
		return v.S.Text()
	default:
		return "?"
	}
}

// FormatFloat renders f so that integral floats keep a trailing ".0"
// and never read back as integers.
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// Quote formats the value for listings, quoting strings.
func Quote(v Value) string {
	if v.Kind == KindString {
		return strconv.Quote(v.S.Text())
	}
	return v.String()
}
