package binprot

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/zeusync/binprot/pkg/encoding"
)

var (
	encodableType = reflect.TypeOf((*Encodable)(nil)).Elem()
	decodableType = reflect.TypeOf((*Decodable)(nil)).Elem()
)

// Value adapts any Go value to Encodable. Types that implement Encodable are
// used as is; everything else is mapped by reflection:
//
//	bool, int8..int64, int    -> bool, integers (int as int64)
//	float32, float64          -> float
//	string                    -> string
//	[]byte, [N]byte           -> bytes
//	[]T                       -> seq
//	[N]T                      -> tuple
//	map[K]V                   -> map, entries sorted by encoded key
//	struct{}                  -> unit
//	struct                    -> struct of its exported fields
//	*T                        -> option (nil is None)
//
// A field tagged `binprot:"-"` is skipped. Unsigned integers are rejected by
// the format. A rune is an int32; use Char for an ASCII character.
//
// As with encoding/json and MarshalJSON, a struct that embeds an Encodable
// type gets its Encode method through promotion and is encoded as the
// embedded value alone; the other fields are not written. Name the field,
// or give the outer type its own Encode, to encode every field. The same
// holds for Decodable and Target.
func Value(v any) Encodable {
	if e, ok := v.(Encodable); ok {
		return e
	}
	return reflectValue{reflect.ValueOf(v)}
}

// Target adapts a non-nil pointer to Decodable using the same mapping as Value.
func Target(ptr any) Decodable {
	if d, ok := ptr.(Decodable); ok {
		return d
	}
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return badTarget{typ: fmt.Sprintf("%T", ptr)}
	}
	return reflectTarget{rv.Elem()}
}

// MarshalValue encodes any Go value supported by Value.
func MarshalValue(v any, opts ...Options) ([]byte, error) {
	return Marshal(Value(v), opts...)
}

// UnmarshalValue decodes data into the value ptr points to.
func UnmarshalValue(data []byte, ptr any, opts ...Options) error {
	return Unmarshal(data, Target(ptr), opts...)
}

type codec struct {
	opts Options
}

// Codec exposes the format behind the generic encoding.Codec interface.
func Codec(opts ...Options) encoding.Codec {
	return codec{opts: resolveOptions(opts)}
}

func (codec) Name() string {
	return "binprot"
}

func (c codec) Marshal(v any) ([]byte, error) {
	return MarshalValue(v, c.opts)
}

func (c codec) Unmarshal(data []byte, v any) error {
	return UnmarshalValue(data, v, c.opts)
}

type badTarget struct {
	typ string
}

func (b badTarget) Decode(Deserializer) error {
	return Customf("decode target must be a non-nil pointer, got %s", b.typ)
}

type field struct {
	name  string
	index int
}

var fieldCache sync.Map // reflect.Type -> []field

func structFields(t reflect.Type) []field {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]field)
	}
	var fields []field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag := sf.Tag.Get("binprot")
		if tag == "-" {
			continue
		}
		name := sf.Name
		if tag != "" {
			name = tag
		}
		fields = append(fields, field{name: name, index: i})
	}
	cached, _ := fieldCache.LoadOrStore(t, fields)
	return cached.([]field)
}

func fieldNames(fields []field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.name
	}
	return names
}

func isByteElem(t reflect.Type) bool {
	return t.Elem().Kind() == reflect.Uint8
}

type reflectValue struct {
	rv reflect.Value
}

func (r reflectValue) Encode(s Serializer) error {
	rv := r.rv
	if !rv.IsValid() {
		return Custom("cannot encode untyped nil")
	}
	t := rv.Type()

	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return s.SerializeNone()
		}
		return s.SerializeSome(reflectValue{rv.Elem()})
	case reflect.Interface:
		if rv.IsNil() {
			return Customf("cannot encode nil %s", t)
		}
		return reflectValue{rv.Elem()}.Encode(s)
	}

	if t.Implements(encodableType) {
		return rv.Interface().(Encodable).Encode(s)
	}
	if reflect.PointerTo(t).Implements(encodableType) {
		if rv.CanAddr() {
			return rv.Addr().Interface().(Encodable).Encode(s)
		}
		p := reflect.New(t)
		p.Elem().Set(rv)
		return p.Interface().(Encodable).Encode(s)
	}

	switch rv.Kind() {
	case reflect.Bool:
		return s.SerializeBool(rv.Bool())
	case reflect.Int8:
		return s.SerializeInt8(int8(rv.Int()))
	case reflect.Int16:
		return s.SerializeInt16(int16(rv.Int()))
	case reflect.Int32:
		return s.SerializeInt32(int32(rv.Int()))
	case reflect.Int, reflect.Int64:
		return s.SerializeInt64(rv.Int())
	case reflect.Uint8:
		return s.SerializeUint8(uint8(rv.Uint()))
	case reflect.Uint16:
		return s.SerializeUint16(uint16(rv.Uint()))
	case reflect.Uint32:
		return s.SerializeUint32(uint32(rv.Uint()))
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return s.SerializeUint64(rv.Uint())
	case reflect.Float32:
		return s.SerializeFloat32(float32(rv.Float()))
	case reflect.Float64:
		return s.SerializeFloat64(rv.Float())
	case reflect.String:
		return s.SerializeString(rv.String())
	case reflect.Slice:
		if isByteElem(t) {
			return s.SerializeBytes(rv.Bytes())
		}
		seq, err := s.SerializeSeq(rv.Len())
		if err != nil {
			return err
		}
		return encodeElements(seq, rv)
	case reflect.Array:
		if isByteElem(t) {
			p := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(p), rv)
			return s.SerializeBytes(p)
		}
		tup, err := s.SerializeTuple(rv.Len())
		if err != nil {
			return err
		}
		return encodeElements(tup, rv)
	case reflect.Map:
		return encodeMap(s, rv)
	case reflect.Struct:
		fields := structFields(t)
		if len(fields) == 0 {
			return s.SerializeUnitStruct(t.Name())
		}
		st, err := s.SerializeStruct(t.Name(), len(fields))
		if err != nil {
			return err
		}
		for _, f := range fields {
			if err := st.SerializeField(f.name, reflectValue{rv.Field(f.index)}); err != nil {
				return err
			}
		}
		return st.End()
	}
	return newError("encode "+t.String(), ErrUnsupported)
}

func encodeElements(seq SeqSerializer, rv reflect.Value) error {
	for i := 0; i < rv.Len(); i++ {
		if err := seq.SerializeElement(reflectValue{rv.Index(i)}); err != nil {
			return err
		}
	}
	return seq.End()
}

func encodeMap(s Serializer, rv reflect.Value) error {
	keys := rv.MapKeys()
	order, err := sortedKeyOrder(len(keys), func(i int) Encodable { return reflectValue{keys[i]} })
	if err != nil {
		return err
	}
	ms, err := s.SerializeMap(len(keys))
	if err != nil {
		return err
	}
	for _, i := range order {
		if err := ms.SerializeEntry(reflectValue{keys[i]}, reflectValue{rv.MapIndex(keys[i])}); err != nil {
			return err
		}
	}
	return ms.End()
}

// reflectTarget decodes into an addressable value.
type reflectTarget struct {
	rv reflect.Value
}

func (r reflectTarget) Decode(d Deserializer) error {
	rv := r.rv
	t := rv.Type()

	switch rv.Kind() {
	case reflect.Pointer:
		return d.DeserializeOption(&reflectVisitor{BaseVisitor{"an option of " + t.Elem().String()}, rv})
	case reflect.Interface:
		if !rv.IsNil() && rv.Elem().Kind() == reflect.Pointer && !rv.Elem().IsNil() {
			return reflectTarget{rv.Elem().Elem()}.Decode(d)
		}
		return newError("decode "+t.String(), ErrUnsupported).withMessage("interface has no concrete target")
	}

	if reflect.PointerTo(t).Implements(decodableType) {
		return rv.Addr().Interface().(Decodable).Decode(d)
	}

	vis := &reflectVisitor{BaseVisitor{t.String()}, rv}
	switch rv.Kind() {
	case reflect.Bool:
		return d.DeserializeBool(vis)
	case reflect.Int8:
		return d.DeserializeInt8(vis)
	case reflect.Int16:
		return d.DeserializeInt16(vis)
	case reflect.Int32:
		return d.DeserializeInt32(vis)
	case reflect.Int, reflect.Int64:
		return d.DeserializeInt64(vis)
	case reflect.Uint8:
		return d.DeserializeUint8(vis)
	case reflect.Uint16:
		return d.DeserializeUint16(vis)
	case reflect.Uint32:
		return d.DeserializeUint32(vis)
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return d.DeserializeUint64(vis)
	case reflect.Float32:
		return d.DeserializeFloat32(vis)
	case reflect.Float64:
		return d.DeserializeFloat64(vis)
	case reflect.String:
		return d.DeserializeString(vis)
	case reflect.Slice:
		if isByteElem(t) {
			return d.DeserializeBytes(vis)
		}
		return d.DeserializeSeq(vis)
	case reflect.Array:
		if isByteElem(t) {
			return d.DeserializeBytes(vis)
		}
		return d.DeserializeTuple(rv.Len(), vis)
	case reflect.Map:
		return d.DeserializeMap(vis)
	case reflect.Struct:
		fields := structFields(t)
		if len(fields) == 0 {
			return d.DeserializeUnitStruct(t.Name(), vis)
		}
		return d.DeserializeStruct(t.Name(), fieldNames(fields), vis)
	}
	return newError("decode "+t.String(), ErrUnsupported)
}

// reflectVisitor stores whatever primitive its Decode asked for into rv.
type reflectVisitor struct {
	BaseVisitor
	rv reflect.Value
}

func (v *reflectVisitor) VisitBool(b bool) error {
	if v.rv.Kind() != reflect.Bool {
		return v.BaseVisitor.VisitBool(b)
	}
	v.rv.SetBool(b)
	return nil
}

func (v *reflectVisitor) VisitInt8(n int8) error   { return v.VisitInt64(int64(n)) }
func (v *reflectVisitor) VisitInt16(n int16) error { return v.VisitInt64(int64(n)) }
func (v *reflectVisitor) VisitInt32(n int32) error { return v.VisitInt64(int64(n)) }

func (v *reflectVisitor) VisitInt64(n int64) error {
	switch v.rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.rv.OverflowInt(n) {
			return newError("visit "+v.Expecting(), ErrRange).withMessage("value %d does not fit", n)
		}
		v.rv.SetInt(n)
		return nil
	}
	return v.BaseVisitor.VisitInt64(n)
}

func (v *reflectVisitor) VisitFloat64(f float64) error {
	switch v.rv.Kind() {
	case reflect.Float32, reflect.Float64:
		v.rv.SetFloat(f)
		return nil
	}
	return v.BaseVisitor.VisitFloat64(f)
}

func (v *reflectVisitor) VisitString(s string) error {
	if v.rv.Kind() != reflect.String {
		return v.BaseVisitor.VisitString(s)
	}
	v.rv.SetString(s)
	return nil
}

func (v *reflectVisitor) VisitBytes(p []byte) error {
	switch v.rv.Kind() {
	case reflect.Slice:
		v.rv.SetBytes(p)
		return nil
	case reflect.Array:
		if len(p) != v.rv.Len() {
			return newError("visit "+v.Expecting(), ErrLengthMismatch).withMessage("got %d bytes", len(p))
		}
		reflect.Copy(v.rv, reflect.ValueOf(p))
		return nil
	}
	return v.BaseVisitor.VisitBytes(p)
}

func (v *reflectVisitor) VisitNone() error {
	v.rv.Set(reflect.Zero(v.rv.Type()))
	return nil
}

func (v *reflectVisitor) VisitSome(d Deserializer) error {
	p := reflect.New(v.rv.Type().Elem())
	if err := (reflectTarget{p.Elem()}).Decode(d); err != nil {
		return err
	}
	v.rv.Set(p)
	return nil
}

func (v *reflectVisitor) VisitUnit() error {
	if v.rv.Kind() != reflect.Struct {
		return v.BaseVisitor.VisitUnit()
	}
	v.rv.Set(reflect.Zero(v.rv.Type()))
	return nil
}

func (v *reflectVisitor) VisitSeq(a SeqAccess) error {
	t := v.rv.Type()
	switch v.rv.Kind() {
	case reflect.Slice:
		out := reflect.MakeSlice(t, 0, preallocate(a.Remaining()))
		for {
			elem := reflect.New(t.Elem()).Elem()
			ok, err := a.NextElement(reflectTarget{elem})
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			out = reflect.Append(out, elem)
		}
		v.rv.Set(out)
		return nil
	case reflect.Array:
		for i := 0; i < v.rv.Len(); i++ {
			if err := v.next(a, v.rv.Index(i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Struct:
		for _, f := range structFields(t) {
			if err := v.next(a, v.rv.Field(f.index)); err != nil {
				return err
			}
		}
		return nil
	}
	return v.BaseVisitor.VisitSeq(a)
}

func (v *reflectVisitor) next(a SeqAccess, dst reflect.Value) error {
	ok, err := a.NextElement(reflectTarget{dst})
	if err != nil {
		return err
	}
	if !ok {
		return newError("visit "+v.Expecting(), ErrLengthMismatch).withMessage("too few elements")
	}
	return nil
}

func (v *reflectVisitor) VisitMap(a MapAccess) error {
	if v.rv.Kind() != reflect.Map {
		return v.BaseVisitor.VisitMap(a)
	}
	t := v.rv.Type()
	out := reflect.MakeMapWithSize(t, preallocate(a.Remaining()))
	for {
		key := reflect.New(t.Key()).Elem()
		ok, err := a.NextKey(reflectTarget{key})
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		val := reflect.New(t.Elem()).Elem()
		if err := a.NextValue(reflectTarget{val}); err != nil {
			return err
		}
		if out.MapIndex(key).IsValid() {
			return Customf("duplicate map key %v", key.Interface())
		}
		out.SetMapIndex(key, val)
	}
	v.rv.Set(out)
	return nil
}
