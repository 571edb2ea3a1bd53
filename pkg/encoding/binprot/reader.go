package binprot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"unicode/utf8"
)

// smallRead is the largest length allocated up front. Longer payloads grow
// as bytes actually arrive, so a forged length cannot force a huge allocation.
const smallRead = 4 << 10

// Reader reads scalar Wire Values from an io.Reader, consuming exactly the
// bytes of each primitive and nothing more.
type Reader struct {
	r         io.Reader
	br        io.ByteReader
	src       *trackedReader
	buf       [8]byte
	maxLength uint64
}

// trackedReader remembers the last error the underlying stream returned, so
// stream faults can be told apart from errors raised by decode targets.
type trackedReader struct {
	r   io.Reader
	br  io.ByteReader
	err error
}

func (t *trackedReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil {
		t.err = err
	}
	return n, err
}

func (t *trackedReader) ReadByte() (byte, error) {
	b, err := t.br.ReadByte()
	if err != nil {
		t.err = err
	}
	return b, err
}

// NewReader returns a Reader that borrows r. Decoded lengths are bounded by
// DefaultMaxLength.
func NewReader(r io.Reader) *Reader {
	src := &trackedReader{r: r}
	rd := &Reader{r: src, src: src, maxLength: DefaultMaxLength}
	if br, ok := r.(io.ByteReader); ok {
		src.br = br
		rd.br = src
	}
	return rd
}

// isStreamFault reports whether err came from the underlying stream rather
// than from the codec or a decode target.
func (r *Reader) isStreamFault(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	return r.src.err != nil && errors.Is(err, r.src.err)
}

// SetMaxLength replaces the bound applied by ReadLength. Zero restores the
// default.
func (r *Reader) SetMaxLength(n uint64) {
	if n == 0 {
		n = DefaultMaxLength
	}
	r.maxLength = n
}

func (r *Reader) readByte() (byte, error) {
	if r.br != nil {
		return r.br.ReadByte()
	}
	if _, err := io.ReadFull(r.r, r.buf[:1]); err != nil {
		return 0, err
	}
	return r.buf[0], nil
}

func (r *Reader) readFixed(n int) ([]byte, error) {
	if _, err := io.ReadFull(r.r, r.buf[:n]); err != nil {
		return nil, err
	}
	return r.buf[:n], nil
}

// truncated reports an end of stream inside a primitive whose first byte
// was already consumed.
func truncated(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// readN reads exactly n bytes into a fresh slice. It is only called after a
// length prefix, so running out of input is always ErrUnexpectedEOF.
func (r *Reader) readN(n int) ([]byte, error) {
	if n <= smallRead {
		p := make([]byte, n)
		if _, err := io.ReadFull(r.r, p); err != nil {
			return nil, truncated(err)
		}
		return p, nil
	}
	var b bytes.Buffer
	b.Grow(smallRead)
	if _, err := io.CopyN(&b, r.r, int64(n)); err != nil {
		return nil, truncated(err)
	}
	return b.Bytes(), nil
}

// payload reads the fixed-width little-endian payload announced by header h.
func (r *Reader) payload(h byte) (uint64, error) {
	p, err := r.readFixed(headerWidth[h])
	if err != nil {
		return 0, truncated(err)
	}
	switch len(p) {
	case 1:
		return uint64(p[0]), nil
	case 2:
		return uint64(binary.LittleEndian.Uint16(p)), nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(p)), nil
	default:
		return binary.LittleEndian.Uint64(p), nil
	}
}

// ReadNat0 reads an unsigned length or magnitude. A literal byte is the
// value itself and no further byte is consumed.
func (r *Reader) ReadNat0() (uint64, error) {
	b, err := r.readByte()
	if err != nil {
		return 0, err
	}
	if isLiteral(b) {
		return uint64(b), nil
	}
	if !isHeader(b) || b == CodeNegInt8 {
		return 0, newError("decode nat0", ErrUnknownHeader).withByte(b)
	}
	return r.payload(b)
}

// ReadInt reads a signed integer, sign-extending every payload width.
func (r *Reader) ReadInt() (int64, error) {
	b, err := r.readByte()
	if err != nil {
		return 0, err
	}
	if isLiteral(b) {
		return int64(b), nil
	}
	if !isHeader(b) {
		return 0, newError("decode int", ErrUnknownHeader).withByte(b)
	}
	v, err := r.payload(b)
	if err != nil {
		return 0, err
	}
	switch b {
	case CodeNegInt8:
		return int64(int8(v)), nil
	case CodeInt16:
		return int64(int16(v)), nil
	case CodeInt32:
		return int64(int32(v)), nil
	default:
		return int64(v), nil
	}
}

// ReadInt8 reads a signed integer that must fit in 8 bits.
func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.ReadInt()
	if err != nil {
		return 0, err
	}
	if v < math.MinInt8 || v > math.MaxInt8 {
		return 0, rangeError("int8", v)
	}
	return int8(v), nil
}

// ReadInt16 reads a signed integer that must fit in 16 bits.
func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadInt()
	if err != nil {
		return 0, err
	}
	if v < math.MinInt16 || v > math.MaxInt16 {
		return 0, rangeError("int16", v)
	}
	return int16(v), nil
}

// ReadInt32 reads a signed integer that must fit in 32 bits.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadInt()
	if err != nil {
		return 0, err
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, rangeError("int32", v)
	}
	return int32(v), nil
}

func rangeError(width string, v int64) error {
	return newError("decode "+width, ErrRange).withMessage("value %d does not fit", v)
}

// ReadLength reads a nat0 length and checks it against the length limit and
// the platform int range.
func (r *Reader) ReadLength(op string) (int, error) {
	n, err := r.ReadNat0()
	if err != nil {
		return 0, err
	}
	if n > r.maxLength {
		return 0, newError(op, ErrTooLarge).withMessage("length %d, limit %d", n, r.maxLength)
	}
	if n > math.MaxInt {
		return 0, newError(op, ErrRange).withMessage("length %d does not fit in int", n)
	}
	return int(n), nil
}

// ReadBool reads 0x00 or 0x01.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.readByte()
	if err != nil {
		return false, err
	}
	switch b {
	case tagFalse:
		return false, nil
	case tagTrue:
		return true, nil
	default:
		return false, newError("decode bool", ErrNotBool).withByte(b)
	}
}

// ReadFloat64 reads 8 raw little-endian bytes.
func (r *Reader) ReadFloat64() (float64, error) {
	p, err := r.readFixed(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(p)), nil
}

// ReadChar reads one ASCII byte.
func (r *Reader) ReadChar() (rune, error) {
	b, err := r.readByte()
	if err != nil {
		return 0, err
	}
	if !isLiteral(b) {
		return 0, newError("decode char", ErrNonASCII).withByte(b)
	}
	return rune(b), nil
}

// ReadString reads a nat0 length and that many bytes of UTF-8 text.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadLength("decode string")
	if err != nil {
		return "", err
	}
	p, err := r.readN(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(p) {
		return "", newError("decode string", ErrInvalidUTF8)
	}
	return string(p), nil
}

// ReadBytes reads a nat0 length and that many raw bytes.
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadLength("decode bytes")
	if err != nil {
		return nil, err
	}
	return r.readN(n)
}

// ReadOptionTag reads an option presence marker.
func (r *Reader) ReadOptionTag() (bool, error) {
	b, err := r.readByte()
	if err != nil {
		return false, err
	}
	switch b {
	case tagNone:
		return false, nil
	case tagSome:
		return true, nil
	default:
		return false, newError("decode option", ErrNotOption).withByte(b)
	}
}

// ReadUnit reads the single unit byte.
func (r *Reader) ReadUnit() error {
	b, err := r.readByte()
	if err != nil {
		return err
	}
	if b != tagUnit {
		return newError("decode unit", ErrNotUnit).withByte(b)
	}
	return nil
}
