package main

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/zeusync/binprot/internal/schema"
	"github.com/zeusync/binprot/pkg/encoding"
	"github.com/zeusync/binprot/pkg/encoding/binprot"
)

// comparisonCodecs are the formats reported by encode --compare, binprot
// first.
func comparisonCodecs(opts binprot.Options) []encoding.Codec {
	return []encoding.Codec{
		binprot.Codec(opts),
		encoding.FuncCodec{Format: "msgpack", MarshalFunc: msgpack.Marshal, UnmarshalFunc: msgpack.Unmarshal},
		encoding.FuncCodec{Format: "cbor", MarshalFunc: cbor.Marshal, UnmarshalFunc: cbor.Unmarshal},
	}
}

// writeSizes prints the encoded size of record in every codec. binprot
// encodes the record through its schema; the self-describing formats get
// the plain Go values.
func writeSizes(w io.Writer, record *schema.Record, codecs []encoding.Codec) error {
	for _, c := range codecs {
		var v any = record.Interface()
		if c.Name() == "binprot" {
			v = record
		}
		data, err := c.Marshal(v)
		if err != nil {
			return fmt.Errorf("%s: %w", c.Name(), err)
		}
		if _, err := fmt.Fprintf(w, "%-8s %d bytes\n", c.Name(), len(data)); err != nil {
			return err
		}
	}
	return nil
}
