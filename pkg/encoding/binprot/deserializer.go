package binprot

import (
	"errors"
	"io"
)

// Decodable is implemented by target types. Decode states which primitive
// the type expects and supplies the visitor that builds it.
type Decodable interface {
	Decode(d Deserializer) error
}

// Deserializer is the decode half of the data-model bridge. The caller's
// choice of method decides how the next bytes are interpreted; the format is
// never sniffed.
type Deserializer interface {
	DeserializeBool(v Visitor) error
	DeserializeInt8(v Visitor) error
	DeserializeInt16(v Visitor) error
	DeserializeInt32(v Visitor) error
	DeserializeInt64(v Visitor) error
	DeserializeUint8(v Visitor) error
	DeserializeUint16(v Visitor) error
	DeserializeUint32(v Visitor) error
	DeserializeUint64(v Visitor) error
	DeserializeFloat32(v Visitor) error
	DeserializeFloat64(v Visitor) error
	DeserializeChar(v Visitor) error
	DeserializeString(v Visitor) error
	DeserializeBytes(v Visitor) error

	DeserializeOption(v Visitor) error
	DeserializeUnit(v Visitor) error
	DeserializeUnitStruct(name string, v Visitor) error
	DeserializeNewtypeStruct(name string, v Visitor) error

	DeserializeSeq(v Visitor) error
	DeserializeTuple(n int, v Visitor) error
	DeserializeTupleStruct(name string, n int, v Visitor) error
	DeserializeMap(v Visitor) error
	DeserializeStruct(name string, fields []string, v Visitor) error
	DeserializeEnum(name string, variants []string, v Visitor) error
}

// SeqAccess hands the elements of a sequence or tuple to a visitor.
type SeqAccess interface {
	// Remaining reports how many elements are still unread.
	Remaining() int
	// NextElement decodes the next element into dst. It reports false once
	// every element has been read.
	NextElement(dst Decodable) (bool, error)
}

// MapAccess hands the entries of a map to a visitor, key then value.
type MapAccess interface {
	Remaining() int
	NextKey(dst Decodable) (bool, error)
	NextValue(dst Decodable) error
}

// EnumAccess exposes the discriminant of an enum value.
type EnumAccess interface {
	Variant() (uint32, VariantAccess, error)
}

// VariantAccess decodes the payload of the selected variant.
type VariantAccess interface {
	UnitVariant() error
	NewtypeVariant(dst Decodable) error
	TupleVariant(n int, v Visitor) error
	StructVariant(fields []string, v Visitor) error
}

var _ Deserializer = (*Decoder)(nil)

// Decoder reads values out of an io.Reader on behalf of Decodable targets.
type Decoder struct {
	r     *Reader
	opts  Options
	depth int
}

// NewDecoder returns a Decoder that borrows r for the duration of each Decode.
func NewDecoder(r io.Reader, opts ...Options) *Decoder {
	o := resolveOptions(opts)
	rd := NewReader(r)
	rd.SetMaxLength(o.MaxLength)
	return &Decoder{r: rd, opts: o}
}

// Decode reads one value into v.
func (d *Decoder) Decode(v Decodable) error {
	d.depth = 0
	return d.decodeNested("decode", v)
}

func (d *Decoder) enter(op string) error {
	d.depth++
	if d.depth > d.opts.MaxDepth {
		return newError(op, ErrDepthExceeded).withMessage("limit %d", d.opts.MaxDepth)
	}
	return nil
}

func (d *Decoder) leave() {
	d.depth--
}

func (d *Decoder) decodeNested(op string, dst Decodable) error {
	if dst == nil {
		return Customf("%s: nil target", op)
	}
	defer d.leave()
	if err := d.enter(op); err != nil {
		return err
	}
	return d.targetError(op, dst.Decode(d))
}

// targetError classifies an error surfacing from a Decodable or its visitor.
// Codec and stream errors pass through unchanged; anything else is a
// data-model failure and becomes KindCustom.
func (d *Decoder) targetError(op string, err error) error {
	if err == nil {
		return nil
	}
	var codecErr *Error
	if errors.As(err, &codecErr) || d.r.isStreamFault(err) {
		return err
	}
	return &Error{Kind: KindCustom, Op: op, Byte: -1, Cause: err}
}

func (d *Decoder) DeserializeBool(v Visitor) error {
	b, err := d.r.ReadBool()
	if err != nil {
		return err
	}
	return v.VisitBool(b)
}

func (d *Decoder) DeserializeInt8(v Visitor) error {
	n, err := d.r.ReadInt8()
	if err != nil {
		return err
	}
	return v.VisitInt8(n)
}

func (d *Decoder) DeserializeInt16(v Visitor) error {
	n, err := d.r.ReadInt16()
	if err != nil {
		return err
	}
	return v.VisitInt16(n)
}

func (d *Decoder) DeserializeInt32(v Visitor) error {
	n, err := d.r.ReadInt32()
	if err != nil {
		return err
	}
	return v.VisitInt32(n)
}

func (d *Decoder) DeserializeInt64(v Visitor) error {
	n, err := d.r.ReadInt()
	if err != nil {
		return err
	}
	return v.VisitInt64(n)
}

func (d *Decoder) DeserializeUint8(Visitor) error { return unsupported("decode uint8") }
func (d *Decoder) DeserializeUint16(Visitor) error { return unsupported("decode uint16") }
func (d *Decoder) DeserializeUint32(Visitor) error { return unsupported("decode uint32") }
func (d *Decoder) DeserializeUint64(Visitor) error { return unsupported("decode uint64") }

// DeserializeFloat32 delivers the full 64-bit value; narrowing is the
// visitor's decision.
func (d *Decoder) DeserializeFloat32(v Visitor) error {
	return d.DeserializeFloat64(v)
}

func (d *Decoder) DeserializeFloat64(v Visitor) error {
	f, err := d.r.ReadFloat64()
	if err != nil {
		return err
	}
	return v.VisitFloat64(f)
}

func (d *Decoder) DeserializeChar(v Visitor) error {
	c, err := d.r.ReadChar()
	if err != nil {
		return err
	}
	return v.VisitChar(c)
}

func (d *Decoder) DeserializeString(v Visitor) error {
	s, err := d.r.ReadString()
	if err != nil {
		return err
	}
	return v.VisitString(s)
}

func (d *Decoder) DeserializeBytes(v Visitor) error {
	p, err := d.r.ReadBytes()
	if err != nil {
		return err
	}
	return v.VisitBytes(p)
}

// DeserializeOption reads the presence tag and, when present, hands the
// decoder itself to the visitor so the inner value is read in place.
func (d *Decoder) DeserializeOption(v Visitor) error {
	present, err := d.r.ReadOptionTag()
	if err != nil {
		return err
	}
	if !present {
		return v.VisitNone()
	}
	defer d.leave()
	if err := d.enter("decode option"); err != nil {
		return err
	}
	return v.VisitSome(d)
}

func (d *Decoder) DeserializeUnit(v Visitor) error {
	if err := d.r.ReadUnit(); err != nil {
		return err
	}
	return v.VisitUnit()
}

func (d *Decoder) DeserializeUnitStruct(_ string, v Visitor) error {
	return d.DeserializeUnit(v)
}

func (d *Decoder) DeserializeNewtypeStruct(name string, v Visitor) error {
	defer d.leave()
	if err := d.enter("decode newtype " + name); err != nil {
		return err
	}
	return v.VisitNewtype(d)
}

func (d *Decoder) DeserializeSeq(v Visitor) error {
	n, err := d.r.ReadLength("decode seq")
	if err != nil {
		return err
	}
	return d.visitSeq("decode seq", n, v)
}

func (d *Decoder) DeserializeTuple(n int, v Visitor) error {
	return d.visitSeq("decode tuple", n, v)
}

func (d *Decoder) DeserializeTupleStruct(name string, n int, v Visitor) error {
	return d.visitSeq("decode tuple struct "+name, n, v)
}

func (d *Decoder) DeserializeStruct(name string, fields []string, v Visitor) error {
	return d.visitSeq("decode struct "+name, len(fields), v)
}

func (d *Decoder) visitSeq(op string, n int, v Visitor) error {
	if n < 0 {
		return newError(op, ErrLengthMismatch).withMessage("negative arity %d", n)
	}
	a := &seqAccess{d: d, op: op, left: n}
	if err := v.VisitSeq(a); err != nil {
		return err
	}
	if a.left != 0 {
		return newError(op, ErrLengthMismatch).withMessage("%d elements left unread", a.left)
	}
	return nil
}

func (d *Decoder) DeserializeMap(v Visitor) error {
	n, err := d.r.ReadLength("decode map")
	if err != nil {
		return err
	}
	a := &mapAccess{d: d, left: n}
	if err := v.VisitMap(a); err != nil {
		return err
	}
	if a.left != 0 || a.pending {
		return newError("decode map", ErrLengthMismatch).withMessage("%d entries left unread", a.left)
	}
	return nil
}

func (d *Decoder) DeserializeEnum(name string, variants []string, v Visitor) error {
	op := "decode enum " + name
	raw, err := d.r.ReadNat0()
	if err != nil {
		return err
	}
	idx, err := checkIndex(op, raw)
	if err != nil {
		return err
	}
	if len(variants) > 0 && int(idx) >= len(variants) {
		return newError(op, ErrUnknownVariant).withMessage("index %d of %d variants", idx, len(variants))
	}
	return v.VisitEnum(&enumAccess{d: d, op: op, index: idx})
}

type seqAccess struct {
	d    *Decoder
	op   string
	left int
}

func (a *seqAccess) Remaining() int {
	return a.left
}

func (a *seqAccess) NextElement(dst Decodable) (bool, error) {
	if a.left == 0 {
		return false, nil
	}
	a.left--
	if err := a.d.decodeNested(a.op, dst); err != nil {
		return false, err
	}
	return true, nil
}

type mapAccess struct {
	d       *Decoder
	left    int
	pending bool
}

func (a *mapAccess) Remaining() int {
	return a.left
}

func (a *mapAccess) NextKey(dst Decodable) (bool, error) {
	if a.pending {
		return false, newError("decode map", ErrLengthMismatch).withMessage("key read twice without a value")
	}
	if a.left == 0 {
		return false, nil
	}
	a.left--
	a.pending = true
	if err := a.d.decodeNested("decode map key", dst); err != nil {
		return false, err
	}
	return true, nil
}

func (a *mapAccess) NextValue(dst Decodable) error {
	if !a.pending {
		return newError("decode map", ErrLengthMismatch).withMessage("value read without a key")
	}
	a.pending = false
	return a.d.decodeNested("decode map value", dst)
}

type enumAccess struct {
	d     *Decoder
	op    string
	index uint32
}

func (a *enumAccess) Variant() (uint32, VariantAccess, error) {
	return a.index, a, nil
}

func (a *enumAccess) UnitVariant() error {
	return nil
}

func (a *enumAccess) NewtypeVariant(dst Decodable) error {
	return a.d.decodeNested(a.op, dst)
}

func (a *enumAccess) TupleVariant(n int, v Visitor) error {
	return a.d.visitSeq(a.op, n, v)
}

func (a *enumAccess) StructVariant(fields []string, v Visitor) error {
	return a.d.visitSeq(a.op, len(fields), v)
}
