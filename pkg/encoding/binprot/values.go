package binprot

import (
	"bytes"
	"math"
	"sort"

	"github.com/zeusync/binprot/pkg/generic"
)

const maxPooledBuffer = 64 << 10

var bufferPool = generic.NewResetPool(
	func() *bytes.Buffer { return new(bytes.Buffer) },
	func(b *bytes.Buffer) bool {
		b.Reset()
		return b.Cap() <= maxPooledBuffer
	},
)

// Marshal encodes v into a fresh byte slice.
func Marshal(v Encodable, opts ...Options) ([]byte, error) {
	buf := bufferPool.Get()
	defer bufferPool.Put(buf)

	if err := NewEncoder(buf, opts...).Encode(v); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// Unmarshal decodes exactly one value from data into v. Bytes left over after
// the value are an error.
func Unmarshal(data []byte, v Decodable, opts ...Options) error {
	r := bytes.NewReader(data)
	if err := NewDecoder(r, opts...).Decode(v); err != nil {
		// data holds the whole value, so running out of it is truncation.
		return truncated(err)
	}
	if r.Len() != 0 {
		return newError("unmarshal", ErrTrailingData).withMessage("%d bytes left", r.Len())
	}
	return nil
}

// Bool is a boolean value.
type Bool bool

func (b Bool) Encode(s Serializer) error {
	return s.SerializeBool(bool(b))
}

func (b *Bool) Decode(d Deserializer) error {
	return d.DeserializeBool(boolVisitor{BaseVisitor{"a bool"}, (*bool)(b)})
}

type boolVisitor struct {
	BaseVisitor
	out *bool
}

func (v boolVisitor) VisitBool(b bool) error {
	*v.out = b
	return nil
}

// intVisitor accepts any integer width and range-checks it against the target.
type intVisitor struct {
	BaseVisitor
	min, max int64
	set      func(int64)
}

func (v intVisitor) VisitInt8(n int8) error   { return v.VisitInt64(int64(n)) }
func (v intVisitor) VisitInt16(n int16) error { return v.VisitInt64(int64(n)) }
func (v intVisitor) VisitInt32(n int32) error { return v.VisitInt64(int64(n)) }

func (v intVisitor) VisitInt64(n int64) error {
	if n < v.min || n > v.max {
		return newError("visit "+v.Expecting(), ErrRange).withMessage("value %d does not fit", n)
	}
	v.set(n)
	return nil
}

// Int8 is a signed 8-bit integer.
type Int8 int8

func (i Int8) Encode(s Serializer) error {
	return s.SerializeInt8(int8(i))
}

func (i *Int8) Decode(d Deserializer) error {
	return d.DeserializeInt8(intVisitor{BaseVisitor{"an int8"}, math.MinInt8, math.MaxInt8, func(n int64) { *i = Int8(n) }})
}

// Int16 is a signed 16-bit integer.
type Int16 int16

func (i Int16) Encode(s Serializer) error {
	return s.SerializeInt16(int16(i))
}

func (i *Int16) Decode(d Deserializer) error {
	return d.DeserializeInt16(intVisitor{BaseVisitor{"an int16"}, math.MinInt16, math.MaxInt16, func(n int64) { *i = Int16(n) }})
}

// Int32 is a signed 32-bit integer.
type Int32 int32

func (i Int32) Encode(s Serializer) error {
	return s.SerializeInt32(int32(i))
}

func (i *Int32) Decode(d Deserializer) error {
	return d.DeserializeInt32(intVisitor{BaseVisitor{"an int32"}, math.MinInt32, math.MaxInt32, func(n int64) { *i = Int32(n) }})
}

// Int64 is a signed 64-bit integer.
type Int64 int64

func (i Int64) Encode(s Serializer) error {
	return s.SerializeInt64(int64(i))
}

func (i *Int64) Decode(d Deserializer) error {
	return d.DeserializeInt64(intVisitor{BaseVisitor{"an int64"}, math.MinInt64, math.MaxInt64, func(n int64) { *i = Int64(n) }})
}

type floatVisitor struct {
	BaseVisitor
	set func(float64)
}

func (v floatVisitor) VisitFloat64(f float64) error {
	v.set(f)
	return nil
}

// Float32 is encoded widened to 64 bits.
type Float32 float32

func (f Float32) Encode(s Serializer) error {
	return s.SerializeFloat32(float32(f))
}

func (f *Float32) Decode(d Deserializer) error {
	return d.DeserializeFloat32(floatVisitor{BaseVisitor{"a float32"}, func(v float64) { *f = Float32(v) }})
}

// Float64 is an IEEE-754 double.
type Float64 float64

func (f Float64) Encode(s Serializer) error {
	return s.SerializeFloat64(float64(f))
}

func (f *Float64) Decode(d Deserializer) error {
	return d.DeserializeFloat64(floatVisitor{BaseVisitor{"a float64"}, func(v float64) { *f = Float64(v) }})
}

// Char is a single ASCII character.
type Char rune

func (c Char) Encode(s Serializer) error {
	return s.SerializeChar(rune(c))
}

func (c *Char) Decode(d Deserializer) error {
	return d.DeserializeChar(charVisitor{BaseVisitor{"an ASCII char"}, c})
}

type charVisitor struct {
	BaseVisitor
	out *Char
}

func (v charVisitor) VisitChar(r rune) error {
	*v.out = Char(r)
	return nil
}

// String is UTF-8 text.
type String string

func (t String) Encode(s Serializer) error {
	return s.SerializeString(string(t))
}

func (t *String) Decode(d Deserializer) error {
	return d.DeserializeString(stringVisitor{BaseVisitor{"a string"}, (*string)(t)})
}

type stringVisitor struct {
	BaseVisitor
	out *string
}

func (v stringVisitor) VisitString(s string) error {
	*v.out = s
	return nil
}

// Bytes is an opaque byte buffer.
type Bytes []byte

func (b Bytes) Encode(s Serializer) error {
	return s.SerializeBytes(b)
}

func (b *Bytes) Decode(d Deserializer) error {
	return d.DeserializeBytes(bytesVisitor{BaseVisitor{"bytes"}, b})
}

type bytesVisitor struct {
	BaseVisitor
	out *Bytes
}

func (v bytesVisitor) VisitBytes(p []byte) error {
	*v.out = p
	return nil
}

// Unit is the value that carries no data.
type Unit struct{}

func (Unit) Encode(s Serializer) error {
	return s.SerializeUnit()
}

func (*Unit) Decode(d Deserializer) error {
	return d.DeserializeUnit(unitVisitor{BaseVisitor{"unit"}})
}

type unitVisitor struct {
	BaseVisitor
}

func (unitVisitor) VisitUnit() error {
	return nil
}

// Option is a value that may be absent. Value is only meaningful when Valid.
type Option[T any] struct {
	Value T
	Valid bool
}

// Some returns a present option.
func Some[T any](v T) Option[T] {
	return Option[T]{Value: v, Valid: true}
}

// None returns an absent option.
func None[T any]() Option[T] {
	return Option[T]{}
}

func (o Option[T]) Encode(s Serializer) error {
	if !o.Valid {
		return s.SerializeNone()
	}
	return s.SerializeSome(Value(o.Value))
}

func (o *Option[T]) Decode(d Deserializer) error {
	return d.DeserializeOption(&optionVisitor[T]{BaseVisitor{"an option"}, o})
}

type optionVisitor[T any] struct {
	BaseVisitor
	out *Option[T]
}

func (v *optionVisitor[T]) VisitNone() error {
	*v.out = Option[T]{}
	return nil
}

func (v *optionVisitor[T]) VisitSome(d Deserializer) error {
	var inner T
	if err := Target(&inner).Decode(d); err != nil {
		return err
	}
	*v.out = Some(inner)
	return nil
}

// Seq is a length-prefixed sequence.
type Seq[T any] []T

func (q Seq[T]) Encode(s Serializer) error {
	seq, err := s.SerializeSeq(len(q))
	if err != nil {
		return err
	}
	for _, elem := range q {
		if err := seq.SerializeElement(Value(elem)); err != nil {
			return err
		}
	}
	return seq.End()
}

func (q *Seq[T]) Decode(d Deserializer) error {
	return d.DeserializeSeq(&seqVisitor[T]{BaseVisitor{"a sequence"}, q})
}

type seqVisitor[T any] struct {
	BaseVisitor
	out *Seq[T]
}

func (v *seqVisitor[T]) VisitSeq(a SeqAccess) error {
	out := make(Seq[T], 0, preallocate(a.Remaining()))
	for {
		var elem T
		ok, err := a.NextElement(Target(&elem))
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		out = append(out, elem)
	}
	*v.out = out
	return nil
}

// Map is a length-prefixed map. Entries are written in ascending order of
// their encoded keys so equal maps always produce equal bytes.
type Map[K comparable, V any] map[K]V

func (m Map[K, V]) Encode(s Serializer) error {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	order, err := sortedKeyOrder(len(keys), func(i int) Encodable { return Value(keys[i]) })
	if err != nil {
		return err
	}
	ms, err := s.SerializeMap(len(keys))
	if err != nil {
		return err
	}
	for _, i := range order {
		if err := ms.SerializeEntry(Value(keys[i]), Value(m[keys[i]])); err != nil {
			return err
		}
	}
	return ms.End()
}

func (m *Map[K, V]) Decode(d Deserializer) error {
	return d.DeserializeMap(&mapVisitor[K, V]{BaseVisitor{"a map"}, m})
}

type mapVisitor[K comparable, V any] struct {
	BaseVisitor
	out *Map[K, V]
}

func (v *mapVisitor[K, V]) VisitMap(a MapAccess) error {
	out := make(Map[K, V], preallocate(a.Remaining()))
	for {
		var key K
		ok, err := a.NextKey(Target(&key))
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		var val V
		if err := a.NextValue(Target(&val)); err != nil {
			return err
		}
		if _, dup := out[key]; dup {
			return Customf("duplicate map key %v", key)
		}
		out[key] = val
	}
	*v.out = out
	return nil
}

// preallocate caps capacity hints taken from the wire.
func preallocate(n int) int {
	const limit = 1024
	if n > limit {
		return limit
	}
	return n
}

// sortedKeyOrder returns the indexes of n keys ordered by their encoded bytes.
func sortedKeyOrder(n int, key func(int) Encodable) ([]int, error) {
	encoded := make([][]byte, n)
	for i := 0; i < n; i++ {
		b, err := Marshal(key(i))
		if err != nil {
			return nil, err
		}
		encoded[i] = b
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return bytes.Compare(encoded[order[a]], encoded[order[b]]) < 0
	})
	return order, nil
}
