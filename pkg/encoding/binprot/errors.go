package binprot

import (
	"errors"
	"fmt"
)

// Kind classifies why an encode or decode failed.
type Kind uint8

const (
	// KindNone is reported for a nil error.
	KindNone Kind = iota
	// KindStream means the underlying reader or writer failed. Such errors are
	// returned unchanged, never wrapped.
	KindStream
	// KindMalformed means a byte pattern is invalid for the primitive being read.
	KindMalformed
	// KindRange means a decoded integer does not fit the requested width.
	KindRange
	// KindUnsupported means the primitive has no wire form in this format.
	KindUnsupported
	// KindLimit means a configured depth or length limit was exceeded.
	KindLimit
	// KindCustom is raised by the data-model side (visitors, adapters).
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindStream:
		return "stream"
	case KindMalformed:
		return "malformed"
	case KindRange:
		return "range"
	case KindUnsupported:
		return "unsupported"
	case KindLimit:
		return "limit"
	case KindCustom:
		return "custom"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

var (
	// Malformed scalars

	ErrNotBool        = errors.New("not a bool")
	ErrNotOption      = errors.New("not an option tag")
	ErrNotUnit        = errors.New("not a unit")
	ErrNonASCII       = errors.New("non-ASCII character")
	ErrInvalidUTF8    = errors.New("invalid UTF-8 text")
	ErrUnknownHeader  = errors.New("unknown header code")
	ErrTrailingData   = errors.New("trailing data after value")
	ErrLengthMismatch = errors.New("element count does not match announced length")
	ErrUnknownVariant = errors.New("unknown enum variant")

	// Range and capability

	ErrRange       = errors.New("integer out of range")
	ErrUnsupported = errors.New("operation not supported by format")

	// Limits

	ErrDepthExceeded = errors.New("maximum nesting depth exceeded")
	ErrTooLarge      = errors.New("length exceeds limit")

	// Data-model failures

	ErrInvalidType = errors.New("invalid type")
)

var errorKindMap = map[error]Kind{
	ErrNotBool:        KindMalformed,
	ErrNotOption:      KindMalformed,
	ErrNotUnit:        KindMalformed,
	ErrNonASCII:       KindMalformed,
	ErrInvalidUTF8:    KindMalformed,
	ErrUnknownHeader:  KindMalformed,
	ErrTrailingData:   KindMalformed,
	ErrLengthMismatch: KindMalformed,
	ErrUnknownVariant: KindMalformed,

	ErrRange:       KindRange,
	ErrUnsupported: KindUnsupported,

	ErrDepthExceeded: KindLimit,
	ErrTooLarge:      KindLimit,

	ErrInvalidType: KindCustom,
}

// Error is a non-stream codec failure with enough context to diagnose it
// without re-reading the stream.
type Error struct {
	Kind    Kind
	Op      string // primitive being processed, e.g. "decode bool"
	Byte    int    // offending byte, or -1
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := "binprot"
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Byte >= 0 {
		msg += fmt.Sprintf(": byte 0x%02x", e.Byte)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the sentinel the error was built from.
func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(op string, cause error) *Error {
	kind, ok := errorKindMap[cause]
	if !ok {
		kind = KindCustom
	}
	return &Error{Kind: kind, Op: op, Byte: -1, Cause: cause}
}

func (e *Error) withByte(b byte) *Error {
	e.Byte = int(b)
	return e
}

func (e *Error) withMessage(format string, args ...any) *Error {
	e.Message = fmt.Sprintf(format, args...)
	return e
}

// KindOf classifies err. Errors that did not originate in the codec are
// treated as stream faults.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var codecErr *Error
	if errors.As(err, &codecErr) {
		return codecErr.Kind
	}
	return KindStream
}

// Custom builds a data-model failure carrying an opaque message.
func Custom(msg string) error {
	return &Error{Kind: KindCustom, Byte: -1, Message: msg}
}

// Customf is Custom with formatting.
func Customf(format string, args ...any) error {
	return Custom(fmt.Sprintf(format, args...))
}

// InvalidType reports that a visitor received a primitive it does not accept.
func InvalidType(got, expected string) error {
	return &Error{
		Kind:    KindCustom,
		Byte:    -1,
		Message: fmt.Sprintf("got %s, expected %s", got, expected),
		Cause:   ErrInvalidType,
	}
}
