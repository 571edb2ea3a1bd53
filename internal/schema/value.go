package schema

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/zeusync/binprot/pkg/encoding/binprot"
)

var (
	_ binprot.Encodable = (*Value)(nil)
	_ binprot.Decodable = (*Value)(nil)
	_ binprot.Encodable = (*Record)(nil)
	_ binprot.Decodable = (*Record)(nil)
)

// Value is a dynamically typed binprot value. Which fields are meaningful
// depends on Type.Kind.
type Value struct {
	Type *Type

	b     bool
	i     int64
	f     float64
	s     string
	raw   []byte
	some  bool
	elems []*Value
}

// Interface returns the value as plain Go data: bool, int64, float64, rune,
// string, []byte, struct{}, nil or the element for options, []any for seqs.
func (v *Value) Interface() any {
	switch v.Type.Kind {
	case KindBool:
		return v.b
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return v.i
	case KindFloat32, KindFloat64:
		return v.f
	case KindChar:
		return rune(v.i)
	case KindString:
		return v.s
	case KindBytes:
		return v.raw
	case KindUnit:
		return struct{}{}
	case KindOption:
		if !v.some {
			return nil
		}
		return v.elems[0].Interface()
	case KindSeq:
		out := make([]any, len(v.elems))
		for i, e := range v.elems {
			out[i] = e.Interface()
		}
		return out
	}
	return nil
}

// String renders the value in the literal syntax accepted by Type.Parse.
func (v *Value) String() string {
	switch v.Type.Kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return strconv.FormatInt(v.i, 10)
	case KindFloat32:
		return strconv.FormatFloat(v.f, 'g', -1, 32)
	case KindFloat64:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindChar:
		return strconv.QuoteRune(rune(v.i))
	case KindString:
		return strconv.Quote(v.s)
	case KindBytes:
		return hex.EncodeToString(v.raw)
	case KindUnit:
		return "()"
	case KindOption:
		if !v.some {
			return "none"
		}
		return "some(" + v.elems[0].String() + ")"
	case KindSeq:
		parts := make([]string, len(v.elems))
		for i, e := range v.elems {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return "?"
}

func (v *Value) Encode(s binprot.Serializer) error {
	switch v.Type.Kind {
	case KindBool:
		return s.SerializeBool(v.b)
	case KindInt8:
		return s.SerializeInt8(int8(v.i))
	case KindInt16:
		return s.SerializeInt16(int16(v.i))
	case KindInt32:
		return s.SerializeInt32(int32(v.i))
	case KindInt64:
		return s.SerializeInt64(v.i)
	case KindFloat32:
		return s.SerializeFloat32(float32(v.f))
	case KindFloat64:
		return s.SerializeFloat64(v.f)
	case KindChar:
		return s.SerializeChar(rune(v.i))
	case KindString:
		return s.SerializeString(v.s)
	case KindBytes:
		return s.SerializeBytes(v.raw)
	case KindUnit:
		return s.SerializeUnit()
	case KindOption:
		if !v.some {
			return s.SerializeNone()
		}
		return s.SerializeSome(v.elems[0])
	case KindSeq:
		seq, err := s.SerializeSeq(len(v.elems))
		if err != nil {
			return err
		}
		for _, e := range v.elems {
			if err := seq.SerializeElement(e); err != nil {
				return err
			}
		}
		return seq.End()
	}
	return binprot.Customf("schema: cannot encode kind %s", v.Type.Kind)
}

func (v *Value) Decode(d binprot.Deserializer) error {
	vis := &valueVisitor{binprot.BaseVisitor{Expect: v.Type.String()}, v}
	switch v.Type.Kind {
	case KindBool:
		return d.DeserializeBool(vis)
	case KindInt8:
		return d.DeserializeInt8(vis)
	case KindInt16:
		return d.DeserializeInt16(vis)
	case KindInt32:
		return d.DeserializeInt32(vis)
	case KindInt64:
		return d.DeserializeInt64(vis)
	case KindFloat32:
		return d.DeserializeFloat32(vis)
	case KindFloat64:
		return d.DeserializeFloat64(vis)
	case KindChar:
		return d.DeserializeChar(vis)
	case KindString:
		return d.DeserializeString(vis)
	case KindBytes:
		return d.DeserializeBytes(vis)
	case KindUnit:
		return d.DeserializeUnit(vis)
	case KindOption:
		return d.DeserializeOption(vis)
	case KindSeq:
		return d.DeserializeSeq(vis)
	}
	return binprot.Customf("schema: cannot decode kind %s", v.Type.Kind)
}

type valueVisitor struct {
	binprot.BaseVisitor
	v *Value
}

func (vv *valueVisitor) VisitBool(b bool) error {
	vv.v.b = b
	return nil
}

func (vv *valueVisitor) VisitInt8(n int8) error   { return vv.VisitInt64(int64(n)) }
func (vv *valueVisitor) VisitInt16(n int16) error { return vv.VisitInt64(int64(n)) }
func (vv *valueVisitor) VisitInt32(n int32) error { return vv.VisitInt64(int64(n)) }

func (vv *valueVisitor) VisitInt64(n int64) error {
	vv.v.i = n
	return nil
}

func (vv *valueVisitor) VisitFloat64(f float64) error {
	if vv.v.Type.Kind == KindFloat32 {
		f = float64(float32(f))
	}
	vv.v.f = f
	return nil
}

func (vv *valueVisitor) VisitChar(r rune) error {
	vv.v.i = int64(r)
	return nil
}

func (vv *valueVisitor) VisitString(s string) error {
	vv.v.s = s
	return nil
}

func (vv *valueVisitor) VisitBytes(p []byte) error {
	vv.v.raw = p
	return nil
}

func (vv *valueVisitor) VisitUnit() error {
	return nil
}

func (vv *valueVisitor) VisitNone() error {
	vv.v.some = false
	vv.v.elems = nil
	return nil
}

func (vv *valueVisitor) VisitSome(d binprot.Deserializer) error {
	inner := vv.v.Type.Elem.New()
	if err := inner.Decode(d); err != nil {
		return err
	}
	vv.v.some = true
	vv.v.elems = []*Value{inner}
	return nil
}

func (vv *valueVisitor) VisitSeq(a binprot.SeqAccess) error {
	elems := make([]*Value, 0, min(a.Remaining(), 1024))
	for {
		inner := vv.v.Type.Elem.New()
		ok, err := a.NextElement(inner)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		elems = append(elems, inner)
	}
	vv.v.elems = elems
	return nil
}

// Parse reads a literal of this type:
//
//	bool     true | false
//	iN       decimal, or 0x/0o/0b prefixed
//	fN       decimal, NaN, +Inf, -Inf
//	char     'a' or a single ASCII character
//	string   "quoted" or, outside aggregates, raw text
//	bytes    hex digits
//	unit     ()
//	option   none | some(X)
//	seq      [X, Y, ...]
func (t *Type) Parse(text string) (*Value, error) {
	return t.parse(strings.TrimSpace(text), false)
}

func (t *Type) parse(text string, nested bool) (*Value, error) {
	v := t.New()
	bad := func(cause error) (*Value, error) {
		if cause != nil {
			return nil, fmt.Errorf("%w for %s: %q: %w", ErrBadLiteral, t, text, cause)
		}
		return nil, fmt.Errorf("%w for %s: %q", ErrBadLiteral, t, text)
	}

	switch t.Kind {
	case KindBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return bad(err)
		}
		v.b = b
	case KindInt8, KindInt16, KindInt32, KindInt64:
		n, err := strconv.ParseInt(text, 0, intBits(t.Kind))
		if err != nil {
			return bad(err)
		}
		v.i = n
	case KindFloat32, KindFloat64:
		bits := 64
		if t.Kind == KindFloat32 {
			bits = 32
		}
		f, err := strconv.ParseFloat(text, bits)
		if err != nil {
			return bad(err)
		}
		v.f = f
	case KindChar:
		r, err := parseChar(text)
		if err != nil {
			return bad(err)
		}
		v.i = int64(r)
	case KindString:
		switch {
		case strings.HasPrefix(text, `"`):
			s, err := strconv.Unquote(text)
			if err != nil {
				return bad(err)
			}
			v.s = s
		case nested:
			return bad(fmt.Errorf("strings inside aggregates must be quoted"))
		default:
			v.s = text
		}
	case KindBytes:
		raw, err := hex.DecodeString(strings.TrimPrefix(text, "0x"))
		if err != nil {
			return bad(err)
		}
		v.raw = raw
	case KindUnit:
		if text != "()" {
			return bad(nil)
		}
	case KindOption:
		if text == "none" {
			return v, nil
		}
		if !strings.HasPrefix(text, "some(") || !strings.HasSuffix(text, ")") {
			return bad(nil)
		}
		inner, err := t.Elem.parse(strings.TrimSpace(text[len("some("):len(text)-1]), true)
		if err != nil {
			return nil, err
		}
		v.some = true
		v.elems = []*Value{inner}
	case KindSeq:
		if !strings.HasPrefix(text, "[") || !strings.HasSuffix(text, "]") {
			return bad(nil)
		}
		parts, err := splitList(text[1 : len(text)-1])
		if err != nil {
			return bad(err)
		}
		v.elems = make([]*Value, len(parts))
		for i, p := range parts {
			inner, err := t.Elem.parse(p, true)
			if err != nil {
				return nil, err
			}
			v.elems[i] = inner
		}
	default:
		return bad(nil)
	}
	return v, nil
}

func intBits(k Kind) int {
	switch k {
	case KindInt8:
		return 8
	case KindInt16:
		return 16
	case KindInt32:
		return 32
	default:
		return 64
	}
}

func parseChar(text string) (rune, error) {
	r := rune(-1)
	if strings.HasPrefix(text, "'") {
		s, err := strconv.Unquote(text)
		if err != nil {
			return 0, err
		}
		if len(s) == 1 {
			r = rune(s[0])
		}
	} else if len(text) == 1 {
		r = rune(text[0])
	}
	if r < 0 || r > math.MaxInt8 {
		return 0, fmt.Errorf("want one ASCII character")
	}
	return r, nil
}

// splitList splits on commas that are not nested in brackets, parentheses or
// quotes.
func splitList(s string) ([]string, error) {
	var parts []string
	depth, start := 0, 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(', '[':
			depth++
		case ')', ']':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced %q", c)
			}
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if quote != 0 || depth != 0 {
		return nil, fmt.Errorf("unterminated list")
	}
	if last := strings.TrimSpace(s[start:]); last != "" || len(parts) > 0 {
		parts = append(parts, last)
	}
	return parts, nil
}

// Record is a fixed-shape tuple of values, encoded with no header.
type Record struct {
	Values []*Value
}

func (r *Record) Encode(s binprot.Serializer) error {
	tup, err := s.SerializeTuple(len(r.Values))
	if err != nil {
		return err
	}
	for _, v := range r.Values {
		if err := tup.SerializeElement(v); err != nil {
			return err
		}
	}
	return tup.End()
}

func (r *Record) Decode(d binprot.Deserializer) error {
	return d.DeserializeTuple(len(r.Values), &recordVisitor{binprot.BaseVisitor{Expect: "a record"}, r})
}

type recordVisitor struct {
	binprot.BaseVisitor
	r *Record
}

func (rv *recordVisitor) VisitSeq(a binprot.SeqAccess) error {
	for _, v := range rv.r.Values {
		if _, err := a.NextElement(v); err != nil {
			return err
		}
	}
	return nil
}

func (r *Record) String() string {
	parts := make([]string, len(r.Values))
	for i, v := range r.Values {
		parts[i] = v.String()
	}
	return strings.Join(parts, " ")
}

// Interface returns the record's values as plain Go values, in order.
func (r *Record) Interface() []any {
	out := make([]any, len(r.Values))
	for i, v := range r.Values {
		out[i] = v.Interface()
	}
	return out
}
