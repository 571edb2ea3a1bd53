package binprot

import (
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"
)

// AppendNat0 appends the nat0 form of v to dst.
func AppendNat0(dst []byte, v uint64) []byte {
	switch {
	case v <= maxLiteral:
		return append(dst, byte(v))
	case v <= math.MaxUint16:
		return binary.LittleEndian.AppendUint16(append(dst, CodeInt16), uint16(v))
	case v <= math.MaxUint32:
		return binary.LittleEndian.AppendUint32(append(dst, CodeInt32), uint32(v))
	default:
		return binary.LittleEndian.AppendUint64(append(dst, CodeInt64), v)
	}
}

// AppendInt appends the signed form of v to dst.
func AppendInt(dst []byte, v int64) []byte {
	if v >= 0 {
		switch {
		case v <= maxLiteral:
			return append(dst, byte(v))
		case v <= math.MaxInt16:
			return binary.LittleEndian.AppendUint16(append(dst, CodeInt16), uint16(v))
		case v <= math.MaxInt32:
			return binary.LittleEndian.AppendUint32(append(dst, CodeInt32), uint32(v))
		default:
			return binary.LittleEndian.AppendUint64(append(dst, CodeInt64), uint64(v))
		}
	}
	switch {
	case v >= math.MinInt8:
		return append(dst, CodeNegInt8, byte(int8(v)))
	case v >= math.MinInt16:
		return binary.LittleEndian.AppendUint16(append(dst, CodeInt16), uint16(int16(v)))
	case v >= math.MinInt32:
		return binary.LittleEndian.AppendUint32(append(dst, CodeInt32), uint32(int32(v)))
	default:
		return binary.LittleEndian.AppendUint64(append(dst, CodeInt64), uint64(v))
	}
}

// AppendFloat64 appends the 8 little-endian bytes of v's IEEE-754 layout.
func AppendFloat64(dst []byte, v float64) []byte {
	return binary.LittleEndian.AppendUint64(dst, math.Float64bits(v))
}

// Writer writes scalar Wire Values to an io.Writer. Each call issues the
// bytes of exactly one primitive; nothing is held back between calls.
type Writer struct {
	w   io.Writer
	buf [9]byte
}

// NewWriter returns a Writer that borrows w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) write(p []byte) error {
	_, err := w.w.Write(p)
	return err
}

// WriteNat0 writes an unsigned length or magnitude.
func (w *Writer) WriteNat0(v uint64) error {
	return w.write(AppendNat0(w.buf[:0], v))
}

// WriteInt writes a signed integer.
func (w *Writer) WriteInt(v int64) error {
	return w.write(AppendInt(w.buf[:0], v))
}

// WriteBool writes 0x00 or 0x01.
func (w *Writer) WriteBool(v bool) error {
	w.buf[0] = tagFalse
	if v {
		w.buf[0] = tagTrue
	}
	return w.write(w.buf[:1])
}

// WriteFloat64 writes v as 8 raw little-endian bytes.
func (w *Writer) WriteFloat64(v float64) error {
	return w.write(AppendFloat64(w.buf[:0], v))
}

// WriteChar writes an ASCII rune as one byte.
func (w *Writer) WriteChar(r rune) error {
	if r < 0 || r > maxLiteral {
		return newError("encode char", ErrNonASCII).withMessage("rune %U", r)
	}
	w.buf[0] = byte(r)
	return w.write(w.buf[:1])
}

// WriteString writes a nat0 byte length followed by the UTF-8 bytes of s.
func (w *Writer) WriteString(s string) error {
	if !utf8.ValidString(s) {
		return newError("encode string", ErrInvalidUTF8)
	}
	if err := w.WriteNat0(uint64(len(s))); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	_, err := io.WriteString(w.w, s)
	return err
}

// WriteBytes writes a nat0 length followed by the raw bytes of p.
func (w *Writer) WriteBytes(p []byte) error {
	if err := w.WriteNat0(uint64(len(p))); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	return w.write(p)
}

// WriteOptionTag writes the presence marker of an option.
func (w *Writer) WriteOptionTag(present bool) error {
	w.buf[0] = tagNone
	if present {
		w.buf[0] = tagSome
	}
	return w.write(w.buf[:1])
}

// WriteUnit writes the single unit byte.
func (w *Writer) WriteUnit() error {
	w.buf[0] = tagUnit
	return w.write(w.buf[:1])
}
