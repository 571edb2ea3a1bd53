package binprot

const (
	// DefaultMaxDepth bounds how deeply options, newtypes and aggregates may nest.
	DefaultMaxDepth = 128
	// DefaultMaxLength bounds any decoded length (text, bytes, element counts).
	DefaultMaxLength = 64 << 20
)

// Options tunes an Encoder or Decoder. Zero fields take the defaults.
type Options struct {
	MaxDepth  int
	MaxLength uint64
}

// DefaultOptions returns the limits used when none are given.
func DefaultOptions() Options {
	return Options{
		MaxDepth:  DefaultMaxDepth,
		MaxLength: DefaultMaxLength,
	}
}

func resolveOptions(opts []Options) Options {
	o := DefaultOptions()
	if len(opts) == 0 {
		return o
	}
	if opts[0].MaxDepth > 0 {
		o.MaxDepth = opts[0].MaxDepth
	}
	if opts[0].MaxLength > 0 {
		o.MaxLength = opts[0].MaxLength
	}
	return o
}
