// Package schema describes binprot values at runtime. A type descriptor such
// as "seq<option<i64>>" yields a Type that can parse text literals into
// encodable values and create decode targets, so tools can drive the codec
// without compile-time Go types.
package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownType = errors.New("unknown type descriptor")
	ErrBadLiteral  = errors.New("invalid literal")
)

type Kind uint8

const (
	KindBool Kind = iota + 1
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindChar
	KindString
	KindBytes
	KindUnit
	KindOption
	KindSeq
)

var scalarNames = map[string]Kind{
	"bool":   KindBool,
	"i8":     KindInt8,
	"i16":    KindInt16,
	"i32":    KindInt32,
	"i64":    KindInt64,
	"f32":    KindFloat32,
	"f64":    KindFloat64,
	"char":   KindChar,
	"string": KindString,
	"bytes":  KindBytes,
	"unit":   KindUnit,
}

func (k Kind) String() string {
	for name, kind := range scalarNames {
		if kind == k {
			return name
		}
	}
	switch k {
	case KindOption:
		return "option"
	case KindSeq:
		return "seq"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Type is a parsed descriptor. Elem is set for option and seq.
type Type struct {
	Kind Kind
	Elem *Type
}

// ParseType parses a descriptor like "i64", "option<string>" or
// "seq<seq<f64>>".
func ParseType(desc string) (*Type, error) {
	s := strings.TrimSpace(desc)
	if kind, ok := scalarNames[s]; ok {
		return &Type{Kind: kind}, nil
	}
	for prefix, kind := range map[string]Kind{"option<": KindOption, "seq<": KindSeq} {
		if strings.HasPrefix(s, prefix) && strings.HasSuffix(s, ">") {
			elem, err := ParseType(s[len(prefix) : len(s)-1])
			if err != nil {
				return nil, err
			}
			return &Type{Kind: kind, Elem: elem}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, desc)
}

// MustParseType is ParseType for descriptors known to be valid.
func MustParseType(desc string) *Type {
	t, err := ParseType(desc)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Type) String() string {
	switch t.Kind {
	case KindOption, KindSeq:
		return t.Kind.String() + "<" + t.Elem.String() + ">"
	default:
		return t.Kind.String()
	}
}

// New returns an empty value of this type, ready to be decoded into.
func (t *Type) New() *Value {
	return &Value{Type: t}
}

// Tuple is the schema of a record: its values in order.
type Tuple []*Type

// ParseTuple parses one descriptor per element.
func ParseTuple(descs []string) (Tuple, error) {
	if len(descs) == 0 {
		return nil, fmt.Errorf("%w: empty schema", ErrUnknownType)
	}
	tuple := make(Tuple, len(descs))
	for i, d := range descs {
		t, err := ParseType(d)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		tuple[i] = t
	}
	return tuple, nil
}

func (tu Tuple) String() string {
	names := make([]string, len(tu))
	for i, t := range tu {
		names[i] = t.String()
	}
	return "(" + strings.Join(names, ", ") + ")"
}

// New returns an empty record of this schema.
func (tu Tuple) New() *Record {
	values := make([]*Value, len(tu))
	for i, t := range tu {
		values[i] = t.New()
	}
	return &Record{Values: values}
}

// Parse builds a record from one literal per element.
func (tu Tuple) Parse(literals []string) (*Record, error) {
	if len(literals) != len(tu) {
		return nil, fmt.Errorf("%w: schema %s has %d elements, got %d literals", ErrBadLiteral, tu, len(tu), len(literals))
	}
	values := make([]*Value, len(tu))
	for i, t := range tu {
		v, err := t.Parse(literals[i])
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		values[i] = v
	}
	return &Record{Values: values}, nil
}
