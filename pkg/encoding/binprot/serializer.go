package binprot

import (
	"io"
	"math"
)

// Encodable is implemented by values that know how to offer themselves to a
// Serializer. The value picks the primitive; the serializer only writes it.
type Encodable interface {
	Encode(s Serializer) error
}

// Serializer is the encode half of the data-model bridge. There is one
// method per logical shape.
type Serializer interface {
	SerializeBool(v bool) error
	SerializeInt8(v int8) error
	SerializeInt16(v int16) error
	SerializeInt32(v int32) error
	SerializeInt64(v int64) error
	SerializeUint8(v uint8) error
	SerializeUint16(v uint16) error
	SerializeUint32(v uint32) error
	SerializeUint64(v uint64) error
	SerializeFloat32(v float32) error
	SerializeFloat64(v float64) error
	SerializeChar(v rune) error
	SerializeString(v string) error
	SerializeBytes(v []byte) error

	SerializeNone() error
	SerializeSome(v Encodable) error
	SerializeUnit() error
	SerializeUnitStruct(name string) error
	SerializeNewtypeStruct(name string, v Encodable) error

	SerializeSeq(n int) (SeqSerializer, error)
	SerializeTuple(n int) (SeqSerializer, error)
	SerializeTupleStruct(name string, n int) (SeqSerializer, error)
	SerializeMap(n int) (MapSerializer, error)
	SerializeStruct(name string, n int) (StructSerializer, error)

	SerializeUnitVariant(name string, index uint32, variant string) error
	SerializeNewtypeVariant(name string, index uint32, variant string, v Encodable) error
	SerializeTupleVariant(name string, index uint32, variant string, n int) (SeqSerializer, error)
	SerializeStructVariant(name string, index uint32, variant string, n int) (StructSerializer, error)
}

// SeqSerializer receives the elements of a sequence or tuple.
type SeqSerializer interface {
	SerializeElement(v Encodable) error
	End() error
}

// MapSerializer receives the entries of a map.
type MapSerializer interface {
	SerializeEntry(key, value Encodable) error
	End() error
}

// StructSerializer receives the fields of a struct in declaration order.
type StructSerializer interface {
	SerializeField(name string, v Encodable) error
	End() error
}

var _ Serializer = (*Encoder)(nil)

// Encoder drives Encodable values into an io.Writer.
type Encoder struct {
	w     *Writer
	opts  Options
	depth int
}

// NewEncoder returns an Encoder that borrows w for the duration of each Encode.
func NewEncoder(w io.Writer, opts ...Options) *Encoder {
	return &Encoder{
		w:    NewWriter(w),
		opts: resolveOptions(opts),
	}
}

// Encode writes v.
func (e *Encoder) Encode(v Encodable) error {
	e.depth = 0
	return e.nested("encode", v)
}

func (e *Encoder) nested(op string, v Encodable) error {
	if v == nil {
		return Customf("%s: nil value", op)
	}
	e.depth++
	defer func() { e.depth-- }()
	if e.depth > e.opts.MaxDepth {
		return newError(op, ErrDepthExceeded).withMessage("limit %d", e.opts.MaxDepth)
	}
	return v.Encode(e)
}

func (e *Encoder) SerializeBool(v bool) error { return e.w.WriteBool(v) }
func (e *Encoder) SerializeInt8(v int8) error { return e.w.WriteInt(int64(v)) }
func (e *Encoder) SerializeInt16(v int16) error { return e.w.WriteInt(int64(v)) }
func (e *Encoder) SerializeInt32(v int32) error { return e.w.WriteInt(int64(v)) }
func (e *Encoder) SerializeInt64(v int64) error { return e.w.WriteInt(v) }
func (e *Encoder) SerializeFloat64(v float64) error { return e.w.WriteFloat64(v) }
func (e *Encoder) SerializeChar(v rune) error { return e.w.WriteChar(v) }
// SerializeString and SerializeBytes apply the same length limit a decoder
// with these options enforces.
func (e *Encoder) SerializeString(v string) error {
	if err := e.checkLength("encode string", len(v)); err != nil {
		return err
	}
	return e.w.WriteString(v)
}

func (e *Encoder) SerializeBytes(v []byte) error {
	if err := e.checkLength("encode bytes", len(v)); err != nil {
		return err
	}
	return e.w.WriteBytes(v)
}

// SerializeFloat32 widens v; the format has no 32-bit float form.
func (e *Encoder) SerializeFloat32(v float32) error {
	return e.w.WriteFloat64(float64(v))
}

// Unsigned integers only exist on the wire as lengths and discriminants.

func (e *Encoder) SerializeUint8(uint8) error { return unsupported("encode uint8") }
func (e *Encoder) SerializeUint16(uint16) error { return unsupported("encode uint16") }
func (e *Encoder) SerializeUint32(uint32) error { return unsupported("encode uint32") }
func (e *Encoder) SerializeUint64(uint64) error { return unsupported("encode uint64") }

func unsupported(op string) error {
	return newError(op, ErrUnsupported)
}

func (e *Encoder) SerializeNone() error {
	return e.w.WriteOptionTag(false)
}

func (e *Encoder) SerializeSome(v Encodable) error {
	if err := e.w.WriteOptionTag(true); err != nil {
		return err
	}
	return e.nested("encode option", v)
}

func (e *Encoder) SerializeUnit() error {
	return e.w.WriteUnit()
}

func (e *Encoder) SerializeUnitStruct(string) error {
	return e.w.WriteUnit()
}

func (e *Encoder) SerializeNewtypeStruct(name string, v Encodable) error {
	return e.nested("encode newtype "+name, v)
}

func (e *Encoder) SerializeSeq(n int) (SeqSerializer, error) {
	if err := e.announce("encode seq", n); err != nil {
		return nil, err
	}
	return &compound{e: e, op: "encode seq", want: n}, nil
}

func (e *Encoder) SerializeTuple(n int) (SeqSerializer, error) {
	if n < 0 {
		return nil, newError("encode tuple", ErrLengthMismatch).withMessage("negative arity %d", n)
	}
	return &compound{e: e, op: "encode tuple", want: n}, nil
}

func (e *Encoder) SerializeTupleStruct(name string, n int) (SeqSerializer, error) {
	if n < 0 {
		return nil, newError("encode tuple struct "+name, ErrLengthMismatch).withMessage("negative arity %d", n)
	}
	return &compound{e: e, op: "encode tuple struct " + name, want: n}, nil
}

func (e *Encoder) SerializeMap(n int) (MapSerializer, error) {
	if err := e.announce("encode map", n); err != nil {
		return nil, err
	}
	return &compound{e: e, op: "encode map", want: n}, nil
}

func (e *Encoder) SerializeStruct(name string, n int) (StructSerializer, error) {
	if n < 0 {
		return nil, newError("encode struct "+name, ErrLengthMismatch).withMessage("negative field count %d", n)
	}
	return &compound{e: e, op: "encode struct " + name, want: n}, nil
}

func (e *Encoder) SerializeUnitVariant(name string, index uint32, _ string) error {
	return e.w.WriteNat0(uint64(index))
}

func (e *Encoder) SerializeNewtypeVariant(name string, index uint32, variant string, v Encodable) error {
	if err := e.w.WriteNat0(uint64(index)); err != nil {
		return err
	}
	return e.nested("encode variant "+name+"::"+variant, v)
}

func (e *Encoder) SerializeTupleVariant(name string, index uint32, variant string, n int) (SeqSerializer, error) {
	op := "encode variant " + name + "::" + variant
	if n < 0 {
		return nil, newError(op, ErrLengthMismatch).withMessage("negative arity %d", n)
	}
	if err := e.w.WriteNat0(uint64(index)); err != nil {
		return nil, err
	}
	return &compound{e: e, op: op, want: n}, nil
}

func (e *Encoder) SerializeStructVariant(name string, index uint32, variant string, n int) (StructSerializer, error) {
	op := "encode variant " + name + "::" + variant
	if n < 0 {
		return nil, newError(op, ErrLengthMismatch).withMessage("negative field count %d", n)
	}
	if err := e.w.WriteNat0(uint64(index)); err != nil {
		return nil, err
	}
	return &compound{e: e, op: op, want: n}, nil
}

// announce writes the nat0 count that prefixes a sequence or map.
func (e *Encoder) announce(op string, n int) error {
	if n < 0 {
		return newError(op, ErrUnsupported).withMessage("length must be known up front")
	}
	if err := e.checkLength(op, n); err != nil {
		return err
	}
	return e.w.WriteNat0(uint64(n))
}

func (e *Encoder) checkLength(op string, n int) error {
	if uint64(n) > e.opts.MaxLength {
		return newError(op, ErrTooLarge).withMessage("length %d, limit %d", n, e.opts.MaxLength)
	}
	return nil
}

// compound counts the children of an aggregate so the announced length and
// the bytes written can never disagree.
type compound struct {
	e    *Encoder
	op   string
	want int
	got  int
}

func (c *compound) next() error {
	if c.got >= c.want {
		return newError(c.op, ErrLengthMismatch).withMessage("more than %d elements", c.want)
	}
	c.got++
	return nil
}

func (c *compound) SerializeElement(v Encodable) error {
	if err := c.next(); err != nil {
		return err
	}
	return c.e.nested(c.op, v)
}

func (c *compound) SerializeEntry(key, value Encodable) error {
	if err := c.next(); err != nil {
		return err
	}
	if err := c.e.nested(c.op+" key", key); err != nil {
		return err
	}
	return c.e.nested(c.op+" value", value)
}

func (c *compound) SerializeField(name string, v Encodable) error {
	if err := c.next(); err != nil {
		return err
	}
	return c.e.nested(c.op+"."+name, v)
}

func (c *compound) End() error {
	if c.got != c.want {
		return newError(c.op, ErrLengthMismatch).withMessage("wrote %d of %d elements", c.got, c.want)
	}
	return nil
}

// checkIndex guards variant indexes decoded from nat0.
func checkIndex(op string, idx uint64) (uint32, error) {
	if idx > math.MaxUint32 {
		return 0, newError(op, ErrRange).withMessage("variant index %d", idx)
	}
	return uint32(idx), nil
}
