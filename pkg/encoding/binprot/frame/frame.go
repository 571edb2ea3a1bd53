// Package frame delimits binprot values on a byte stream. A record is
//
//	nat0(len(payload)) payload xxhash64(payload)
//
// with the checksum written as 8 little-endian bytes. The codec itself leaves
// framing to the caller; this package is one such caller.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/binprot/pkg/encoding/binprot"
)

const checksumSize = 8

// DefaultMaxRecordBytes bounds a record payload when Limits leaves it unset.
const DefaultMaxRecordBytes = binprot.DefaultMaxLength

var (
	ErrChecksumMismatch = errors.New("frame: checksum mismatch")
	ErrShortRecord      = errors.New("frame: truncated record")
	ErrRecordTooLarge   = errors.New("frame: record exceeds limit")
)

// Limits bounds what a Reader accepts. Zero fields take the defaults.
type Limits struct {
	MaxRecordBytes uint64
	// Codec limits applied by ReadValue and WriteValue.
	Codec binprot.Options
}

func resolveLimits(limits []Limits) Limits {
	l := Limits{MaxRecordBytes: DefaultMaxRecordBytes}
	if len(limits) == 0 {
		return l
	}
	if limits[0].MaxRecordBytes > 0 {
		l.MaxRecordBytes = limits[0].MaxRecordBytes
	}
	l.Codec = limits[0].Codec
	return l
}

// Writer appends records to an io.Writer.
type Writer struct {
	w       io.Writer
	bw      *binprot.Writer
	limits  Limits
	sum     [checksumSize]byte
	records int
}

func NewWriter(w io.Writer, limits ...Limits) *Writer {
	return &Writer{
		w:      w,
		bw:     binprot.NewWriter(w),
		limits: resolveLimits(limits),
	}
}

// WriteRecord frames payload and writes it.
func (w *Writer) WriteRecord(payload []byte) error {
	if uint64(len(payload)) > w.limits.MaxRecordBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrRecordTooLarge, len(payload), w.limits.MaxRecordBytes)
	}
	if err := w.bw.WriteNat0(uint64(len(payload))); err != nil {
		return err
	}
	if _, err := w.w.Write(payload); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(w.sum[:], xxhash.Sum64(payload))
	if _, err := w.w.Write(w.sum[:]); err != nil {
		return err
	}
	w.records++
	return nil
}

// WriteValue encodes v and writes it as one record.
func (w *Writer) WriteValue(v binprot.Encodable) error {
	payload, err := binprot.Marshal(v, w.limits.Codec)
	if err != nil {
		return err
	}
	return w.WriteRecord(payload)
}

// Records reports how many records have been written.
func (w *Writer) Records() int {
	return w.records
}

// Reader reads records written by Writer.
type Reader struct {
	r       io.Reader
	br      *binprot.Reader
	limits  Limits
	sum     [checksumSize]byte
	records int
}

func NewReader(r io.Reader, limits ...Limits) *Reader {
	return &Reader{
		r:      r,
		br:     binprot.NewReader(r),
		limits: resolveLimits(limits),
	}
}

// ReadRecord returns the next verified payload. It returns io.EOF only when
// the stream ends exactly on a record boundary.
func (r *Reader) ReadRecord() ([]byte, error) {
	n, err := r.br.ReadNat0()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, r.short(err)
	}
	if n > r.limits.MaxRecordBytes {
		return nil, fmt.Errorf("%w: record %d announces %d bytes, limit %d", ErrRecordTooLarge, r.records, n, r.limits.MaxRecordBytes)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return nil, r.short(err)
	}
	if _, err := io.ReadFull(r.r, r.sum[:]); err != nil {
		return nil, r.short(err)
	}
	if want, got := binary.LittleEndian.Uint64(r.sum[:]), xxhash.Sum64(payload); want != got {
		return nil, fmt.Errorf("%w: record %d: stored %016x, computed %016x", ErrChecksumMismatch, r.records, want, got)
	}
	r.records++
	return payload, nil
}

// ReadValue reads one record and decodes it into v. The value must account
// for every byte of the record.
func (r *Reader) ReadValue(v binprot.Decodable) error {
	payload, err := r.ReadRecord()
	if err != nil {
		return err
	}
	return binprot.Unmarshal(payload, v, r.limits.Codec)
}

// Records reports how many records have been read successfully.
func (r *Reader) Records() int {
	return r.records
}

// short reports a stream that ended inside a record. The result never
// matches io.EOF, which ReadRecord reserves for a clean boundary.
func (r *Reader) short(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: record %d: %w", ErrShortRecord, r.records, io.ErrUnexpectedEOF)
	}
	return err
}
