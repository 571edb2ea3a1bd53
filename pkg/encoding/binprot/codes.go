package binprot

// Header codes. Every code is >= 0x80 so it can never be confused with a
// literal small value, which always fits in 0x00-0x7F.
const (
	CodeNegInt8 byte = 0xFF
	CodeInt16   byte = 0xFE
	CodeInt32   byte = 0xFD
	CodeInt64   byte = 0xFC
)

// maxLiteral is the largest value written as a bare byte.
const maxLiteral = 0x7F

// Tag bytes shared by bool, option and unit.
const (
	tagFalse byte = 0x00
	tagTrue  byte = 0x01

	tagNone byte = 0x00
	tagSome byte = 0x01

	tagUnit byte = 0x00
)

// headerWidth maps a header code to the payload width that follows it.
// A zero entry means the byte is not a header code.
var headerWidth = [256]int{
	CodeNegInt8: 1,
	CodeInt16:   2,
	CodeInt32:   4,
	CodeInt64:   8,
}

func isLiteral(b byte) bool {
	return b <= maxLiteral
}

func isHeader(b byte) bool {
	return headerWidth[b] != 0
}

func init() {
	for b := 0; b <= maxLiteral; b++ {
		if headerWidth[b] != 0 {
			panic("binprot: header code collides with literal range")
		}
	}
}
