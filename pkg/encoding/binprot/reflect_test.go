package binprot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/binprot/pkg/encoding"
)

type point struct {
	X int32
	Y int32
}

// celsius only implements the bridge through its pointer.
type celsius struct {
	deg int64
}

func (c *celsius) Encode(s Serializer) error {
	return s.SerializeInt64(c.deg)
}

func (c *celsius) Decode(d Deserializer) error {
	return d.DeserializeInt64(intVisitor{BaseVisitor{"celsius"}, -273, 1 << 20, func(n int64) { c.deg = n }})
}

type record struct {
	ID       int64
	Name     string
	Tags     []string
	Scores   map[string]int16
	Origin   point
	Parent   *point
	Missing  *point
	Raw      []byte
	Digest   [4]byte
	Pair     [2]float64
	Marker   struct{}
	Label    Option[String]
	Temp     celsius
	Readings map[string]celsius
	Ignored  string `binprot:"-"`
	Small    int8
	Ratio    float32
	private  int
}

func sampleRecord() record {
	return record{
		ID:       -42,
		Name:     "sensor",
		Tags:     []string{"a", "b"},
		Scores:   map[string]int16{"x": 300, "y": -2},
		Origin:   point{1, -1},
		Parent:   &point{7, 8},
		Raw:      []byte{0xDE, 0xAD},
		Digest:   [4]byte{1, 2, 3, 4},
		Pair:     [2]float64{0.5, -0.25},
		Label:    Some(String("lab")),
		Temp:     celsius{21},
		Readings: map[string]celsius{"am": {12}, "pm": {18}},
		Small:    -7,
		Ratio:    0.75,
	}
}

func TestReflect_RoundTrip(t *testing.T) {
	in := sampleRecord()
	in.Ignored = "dropped"
	in.private = 9

	data, err := MarshalValue(in)
	require.NoError(t, err)

	var out record
	require.NoError(t, UnmarshalValue(data, &out))

	want := sampleRecord()
	assert.Equal(t, want, out)
}

func TestReflect_StructWire(t *testing.T) {
	data, err := MarshalValue(point{1, -1})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0xFF, 0xFF}, data)
}

func TestReflect_PointerIsOption(t *testing.T) {
	type holder struct {
		P *point
	}

	data, err := MarshalValue(holder{})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, data)

	data, err = MarshalValue(holder{P: &point{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x01, 0x02}, data)

	var out holder
	require.NoError(t, UnmarshalValue(data, &out))
	require.NotNil(t, out.P)
	assert.Equal(t, point{1, 2}, *out.P)
}

func TestReflect_EmptyStructIsUnit(t *testing.T) {
	data, err := MarshalValue(struct{}{})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, data)
}

func TestReflect_MapMatchesAdapter(t *testing.T) {
	plain := map[string]int64{"b": 2, "a": 1, "c": 3}
	adapted := Map[String, Int64]{"b": 2, "a": 1, "c": 3}

	fromReflect, err := MarshalValue(plain)
	require.NoError(t, err)
	fromAdapter, err := Marshal(adapted)
	require.NoError(t, err)
	assert.Equal(t, fromAdapter, fromReflect)
}

func TestReflect_IntNarrowing(t *testing.T) {
	data, err := MarshalValue(int64(300))
	require.NoError(t, err)

	var small int8
	err = UnmarshalValue(data, &small)
	assert.ErrorIs(t, err, ErrRange)
	assert.Equal(t, KindRange, KindOf(err))

	var wide int
	require.NoError(t, UnmarshalValue(data, &wide))
	assert.Equal(t, 300, wide)
}

func TestReflect_FixedByteArrayLength(t *testing.T) {
	data, err := MarshalValue([]byte{1, 2, 3})
	require.NoError(t, err)

	var digest [4]byte
	err = UnmarshalValue(data, &digest)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestReflect_Unsupported(t *testing.T) {
	_, err := MarshalValue(uint16(1))
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = MarshalValue(make(chan int))
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = MarshalValue(complex(1, 2))
	assert.ErrorIs(t, err, ErrUnsupported)

	var sink any
	err = UnmarshalValue([]byte{0x00}, &sink)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestReflect_BadTarget(t *testing.T) {
	err := UnmarshalValue([]byte{0x00}, point{})
	require.Error(t, err)
	assert.Equal(t, KindCustom, KindOf(err))

	var p *point
	err = UnmarshalValue([]byte{0x00}, p)
	assert.Equal(t, KindCustom, KindOf(err))
}

func TestReflect_InterfaceHoldingPointer(t *testing.T) {
	data, err := MarshalValue(point{3, 4})
	require.NoError(t, err)

	var p point
	var target any = &p
	require.NoError(t, UnmarshalValue(data, &target))
	assert.Equal(t, point{3, 4}, p)
}

func TestCodec(t *testing.T) {
	var c encoding.Codec = Codec()
	assert.Equal(t, "binprot", c.Name())

	data, err := c.Marshal(point{5, 6})
	require.NoError(t, err)

	var out point
	require.NoError(t, c.Unmarshal(data, &out))
	assert.Equal(t, point{5, 6}, out)

	limited := Codec(Options{MaxLength: 1})
	_, err = limited.Marshal([]string{"a", "b"})
	assert.ErrorIs(t, err, ErrTooLarge)
}

// stamped embeds an Encodable, so it inherits Encode and Decode.
type stamped struct {
	Int8
	Note string
}

type namedStamp struct {
	Stamp Int8
	Note  string
}

func TestReflect_EmbeddedEncodableIsPromoted(t *testing.T) {
	data, err := MarshalValue(stamped{Int8: 7, Note: "dropped"})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x07}, data)

	var out stamped
	require.NoError(t, UnmarshalValue(data, &out))
	assert.Equal(t, stamped{Int8: 7}, out)

	data, err = MarshalValue(namedStamp{Stamp: 7, Note: "kept"})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x07, 0x04, 'k', 'e', 'p', 't'}, data)
}
