package encoding

// Codec turns arbitrary Go values into bytes and back. Implementations decide
// which Go types they accept.
type Codec interface {
	// Name identifies the wire format, e.g. "binprot".
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// FuncCodec adapts a pair of package-level functions, such as
// msgpack.Marshal and msgpack.Unmarshal, to Codec.
type FuncCodec struct {
	Format        string
	MarshalFunc   func(v any) ([]byte, error)
	UnmarshalFunc func(data []byte, v any) error
}

func (c FuncCodec) Name() string {
	return c.Format
}

func (c FuncCodec) Marshal(v any) ([]byte, error) {
	return c.MarshalFunc(v)
}

func (c FuncCodec) Unmarshal(data []byte, v any) error {
	return c.UnmarshalFunc(data, v)
}
