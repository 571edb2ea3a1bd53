package frame

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/binprot/pkg/encoding/binprot"
)

func TestWriter_Layout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteRecord([]byte("hi")))

	want := []byte{0x02, 'h', 'i'}
	want = binary.LittleEndian.AppendUint64(want, xxhash.Sum64String("hi"))
	assert.Equal(t, want, buf.Bytes())
}

func TestRecords_RoundTrip(t *testing.T) {
	payloads := [][]byte{
		{},
		[]byte("a"),
		bytes.Repeat([]byte{0x5A}, 300),
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, p := range payloads {
		require.NoError(t, w.WriteRecord(p))
	}
	assert.Equal(t, 3, w.Records())

	r := NewReader(&buf)
	for _, want := range payloads {
		got, err := r.ReadRecord()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := r.ReadRecord()
	assert.Equal(t, io.EOF, err, "clean boundary must report plain io.EOF")
	assert.Equal(t, 3, r.Records())
}

func TestReader_Truncation(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteRecord(bytes.Repeat([]byte{1}, 200)))
	full := buf.Bytes()

	// The length is FE C8 00. Cut right after the header byte, right after
	// the length, inside the payload, exactly before the checksum and inside
	// the checksum.
	for _, cut := range []int{1, 2, 3, 50, len(full) - 8, len(full) - 3} {
		_, err := NewReader(bytes.NewReader(full[:cut])).ReadRecord()
		assert.ErrorIs(t, err, ErrShortRecord, "cut at %d", cut)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF, "cut at %d", cut)
		assert.NotErrorIs(t, err, io.EOF, "cut at %d", cut)
	}
}

func TestReader_TruncationAfterRecords(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteRecord([]byte("one")))
	require.NoError(t, w.WriteRecord([]byte("two")))
	data := append(buf.Bytes(), 0xFE)

	r := NewReader(bytes.NewReader(data))
	for i := 0; i < 2; i++ {
		_, err := r.ReadRecord()
		require.NoError(t, err)
	}
	_, err := r.ReadRecord()
	assert.ErrorIs(t, err, ErrShortRecord)
	assert.NotErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, r.Records())
}

func TestReader_ChecksumMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteRecord([]byte("payload")))
	data := buf.Bytes()
	data[3] ^= 0xFF

	_, err := NewReader(bytes.NewReader(data)).ReadRecord()
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestLimits(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteRecord(make([]byte, 64)))

	_, err := NewReader(&buf, Limits{MaxRecordBytes: 16}).ReadRecord()
	assert.ErrorIs(t, err, ErrRecordTooLarge)

	err = NewWriter(io.Discard, Limits{MaxRecordBytes: 16}).WriteRecord(make([]byte, 17))
	assert.ErrorIs(t, err, ErrRecordTooLarge)
}

func TestValues_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteValue(binprot.Seq[binprot.Int64]{-5, 1000}))
	require.NoError(t, w.WriteValue(binprot.Some(binprot.String("x"))))

	r := NewReader(&buf)
	var seq binprot.Seq[binprot.Int64]
	require.NoError(t, r.ReadValue(&seq))
	assert.Equal(t, binprot.Seq[binprot.Int64]{-5, 1000}, seq)

	var opt binprot.Option[binprot.String]
	require.NoError(t, r.ReadValue(&opt))
	assert.Equal(t, binprot.Some(binprot.String("x")), opt)
}

func TestReadValue_RejectsLeftoverBytes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteRecord([]byte{0x01, 0x02}))

	var n binprot.Int64
	err := NewReader(&buf).ReadValue(&n)
	assert.ErrorIs(t, err, binprot.ErrTrailingData)
}

func TestReadValue_RecordShorterThanValue(t *testing.T) {
	cases := []struct {
		name    string
		payload []byte
		target  binprot.Decodable
	}{
		{"option tag without value", []byte{0x01}, new(binprot.Option[binprot.Int64])},
		{"seq missing an element", []byte{0x02, 0x05}, new(binprot.Seq[binprot.Int64])},
		{"int header without payload", []byte{0xFE}, new(binprot.Int64)},
		{"empty record", []byte{}, new(binprot.Int64)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewWriter(&buf).WriteRecord(tc.payload))

			err := NewReader(&buf).ReadValue(tc.target)
			assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
			assert.NotErrorIs(t, err, io.EOF)
		})
	}
}
