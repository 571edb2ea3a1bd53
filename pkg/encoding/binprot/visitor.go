package binprot

// Visitor receives exactly one primitive from a Deserializer and turns it into
// the target's in-memory form. A visitor rejects primitives its target cannot
// represent.
type Visitor interface {
	// Expecting names what the visitor accepts, for error messages.
	Expecting() string

	VisitBool(v bool) error
	VisitInt8(v int8) error
	VisitInt16(v int16) error
	VisitInt32(v int32) error
	VisitInt64(v int64) error
	VisitFloat64(v float64) error
	VisitChar(v rune) error
	VisitString(v string) error
	VisitBytes(v []byte) error

	VisitNone() error
	VisitSome(d Deserializer) error
	VisitUnit() error
	VisitNewtype(d Deserializer) error

	VisitSeq(a SeqAccess) error
	VisitMap(a MapAccess) error
	VisitEnum(a EnumAccess) error
}

// BaseVisitor rejects every primitive. Embed it and override the methods the
// target accepts.
type BaseVisitor struct {
	Expect string
}

func (b BaseVisitor) Expecting() string {
	if b.Expect == "" {
		return "a value"
	}
	return b.Expect
}

func (b BaseVisitor) VisitBool(bool) error { return InvalidType("bool", b.Expecting()) }
func (b BaseVisitor) VisitInt8(int8) error { return InvalidType("int8", b.Expecting()) }
func (b BaseVisitor) VisitInt16(int16) error { return InvalidType("int16", b.Expecting()) }
func (b BaseVisitor) VisitInt32(int32) error { return InvalidType("int32", b.Expecting()) }
func (b BaseVisitor) VisitInt64(int64) error { return InvalidType("int64", b.Expecting()) }
func (b BaseVisitor) VisitFloat64(float64) error { return InvalidType("float", b.Expecting()) }
func (b BaseVisitor) VisitChar(rune) error { return InvalidType("char", b.Expecting()) }
func (b BaseVisitor) VisitString(string) error { return InvalidType("string", b.Expecting()) }
func (b BaseVisitor) VisitBytes([]byte) error { return InvalidType("bytes", b.Expecting()) }
func (b BaseVisitor) VisitNone() error { return InvalidType("none", b.Expecting()) }
func (b BaseVisitor) VisitSome(Deserializer) error { return InvalidType("some", b.Expecting()) }
func (b BaseVisitor) VisitUnit() error { return InvalidType("unit", b.Expecting()) }
func (b BaseVisitor) VisitNewtype(Deserializer) error { return InvalidType("newtype", b.Expecting()) }
func (b BaseVisitor) VisitSeq(SeqAccess) error { return InvalidType("sequence", b.Expecting()) }
func (b BaseVisitor) VisitMap(MapAccess) error { return InvalidType("map", b.Expecting()) }
func (b BaseVisitor) VisitEnum(EnumAccess) error { return InvalidType("enum", b.Expecting()) }
