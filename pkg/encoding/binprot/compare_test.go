package binprot

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type telemetry struct {
	ID     int64
	Name   string
	Tags   []string
	Scores map[string]int32
	Ratio  float64
	Active bool
	Blob   []byte
}

func sampleTelemetry() telemetry {
	return telemetry{
		ID:     123456789,
		Name:   "edge-gateway-7",
		Tags:   []string{"eu-west", "canary", "ipv6"},
		Scores: map[string]int32{"latency": 12, "loss": 0, "jitter": -3},
		Ratio:  0.875,
		Active: true,
		Blob:   []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07},
	}
}

// Self-describing formats carry field names; binprot carries only values.
func TestEncodedSize_AgainstSelfDescribingFormats(t *testing.T) {
	in := sampleTelemetry()

	bp, err := MarshalValue(in)
	require.NoError(t, err)
	mp, err := msgpack.Marshal(in)
	require.NoError(t, err)
	cb, err := cbor.Marshal(in)
	require.NoError(t, err)

	assert.Less(t, len(bp), len(mp))
	assert.Less(t, len(bp), len(cb))

	var fromBinprot, fromMsgpack, fromCBOR telemetry
	require.NoError(t, UnmarshalValue(bp, &fromBinprot))
	require.NoError(t, msgpack.Unmarshal(mp, &fromMsgpack))
	require.NoError(t, cbor.Unmarshal(cb, &fromCBOR))
	assert.Equal(t, in, fromBinprot)
	assert.Equal(t, fromMsgpack, fromBinprot)
	assert.Equal(t, fromCBOR, fromBinprot)
}

func BenchmarkMarshal_Binprot(b *testing.B) {
	in := sampleTelemetry()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := MarshalValue(in); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMarshal_Msgpack(b *testing.B) {
	in := sampleTelemetry()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := msgpack.Marshal(in); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMarshal_CBOR(b *testing.B) {
	in := sampleTelemetry()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := cbor.Marshal(in); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkUnmarshal_Binprot(b *testing.B) {
	data, err := MarshalValue(sampleTelemetry())
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var out telemetry
		if err := UnmarshalValue(data, &out); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkUnmarshal_Msgpack(b *testing.B) {
	data, err := msgpack.Marshal(sampleTelemetry())
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var out telemetry
		if err := msgpack.Unmarshal(data, &out); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkUnmarshal_CBOR(b *testing.B) {
	data, err := cbor.Marshal(sampleTelemetry())
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var out telemetry
		if err := cbor.Unmarshal(data, &out); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAppendInt(b *testing.B) {
	buf := make([]byte, 0, 9)
	for i := 0; i < b.N; i++ {
		buf = AppendInt(buf[:0], int64(i)*7919-1<<20)
	}
}
