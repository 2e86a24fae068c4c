package tree

import (
	"reflect"
	"strconv"
	"strings"
)

// Kind identifies which member of the Value variant is populated.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindString
	KindNumber
	KindBool
	KindObject
	KindArray
	KindHandle
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindHandle:
		return "handle"
	}
	return "undefined"
}

// Value is the dynamically typed attribute value stored in the tree.
// The zero Value is undefined.
type Value struct {
	kind   Kind
	str    string
	num    float64
	flag   bool
	obj    *Object
	arr    []Value
	handle any
}

var Undefined = Value{}

func String(s string) Value { return Value{kind: KindString, str: s} }

func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

func Int(n int) Value { return Value{kind: KindNumber, num: float64(n)} }

func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

func ObjectValue(o *Object) Value {
	if o == nil {
		return Undefined
	}
	return Value{kind: KindObject, obj: o}
}

func Array(values ...Value) Value {
	return Value{kind: KindArray, arr: values}
}

// Handle wraps an opaque host value. The tree never inspects it.
func Handle(h any) Value {
	if h == nil {
		return Undefined
	}
	return Value{kind: KindHandle, handle: h}
}

// From converts common Go values into a Value.
func From(v any) Value {
	switch x := v.(type) {
	case nil:
		return Undefined
	case Value:
		return x
	case string:
		return String(x)
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case bool:
		return Bool(x)
	case *Object:
		return ObjectValue(x)
	case []Value:
		return Array(x...)
	case []any:
		out := make([]Value, len(x))
		for i, e := range x {
			out[i] = From(e)
		}
		return Array(out...)
	case map[string]any:
		return ObjectValue(ObjectFromMap(x))
	}
	return Handle(v)
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsUndefined() bool { return v.kind == KindUndefined }

func (v Value) IsString() bool { return v.kind == KindString }

func (v Value) IsNumber() bool { return v.kind == KindNumber }

// AsString renders the value as text. Numbers use the shortest
// representation that round-trips.
func (v Value) AsString() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.AsString()
		}
		return strings.Join(parts, " ")
	}
	return ""
}

// AsNumber converts to a float. Strings are parsed from their longest
// numeric prefix, so "12.5px" yields 12.5 and "abc" yields 0.
func (v Value) AsNumber() float64 {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindBool:
		if v.flag {
			return 1
		}
		return 0
	case KindString:
		n, _ := ParseNumberPrefix(v.str)
		return n
	}
	return 0
}

func (v Value) AsBool() bool {
	switch v.kind {
	case KindBool:
		return v.flag
	case KindNumber:
		return v.num != 0
	case KindString:
		s := strings.ToLower(strings.TrimSpace(v.str))
		return s == "true" || s == "1"
	}
	return false
}

func (v Value) AsObject() *Object {
	if v.kind == KindObject {
		return v.obj
	}
	return nil
}

func (v Value) AsArray() []Value {
	if v.kind == KindArray {
		return v.arr
	}
	return nil
}

func (v Value) AsHandle() any {
	if v.kind == KindHandle {
		return v.handle
	}
	return nil
}

// Equal compares scalars and arrays structurally and objects and handles
// by identity.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindUndefined:
		return true
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.flag == o.flag
	case KindObject:
		return v.obj == o.obj
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindHandle:
		// Functions and other incomparable handles never compare equal.
		a, b := reflect.TypeOf(v.handle), reflect.TypeOf(o.handle)
		if a != b || !a.Comparable() {
			return false
		}
		return v.handle == o.handle
	}
	return false
}

func (v Value) String() string {
	if v.kind == KindObject {
		return "[object]"
	}
	if v.kind == KindHandle {
		return "[handle]"
	}
	return v.AsString()
}

// ParseNumberPrefix parses the longest leading decimal number in s,
// ignoring surrounding whitespace. ok is false when no digits were found.
func ParseNumberPrefix(s string) (n float64, ok bool) {
	s = strings.TrimSpace(s)
	end := 0
	seenDigit := false
	seenDot := false
	seenExp := false
scan:
	for end < len(s) {
		c := s[end]
		switch {
		case c >= '0' && c <= '9':
			seenDigit = true
		case (c == '+' || c == '-') && end == 0:
		case c == '.' && !seenDot && !seenExp:
			seenDot = true
		case (c == 'e' || c == 'E') && seenDigit && !seenExp && end+1 < len(s) && isExpTail(s[end+1:]):
			seenExp = true
			if s[end+1] == '+' || s[end+1] == '-' {
				end++
			}
		default:
			break scan
		}
		end++
	}
	if !seenDigit {
		return 0, false
	}
	n, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func isExpTail(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	return s != "" && s[0] >= '0' && s[0] <= '9'
}
