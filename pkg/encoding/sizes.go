package encoding

// Encoded widths of the fixed-size primitives.
const (
	Uint8Size   = 1
	BoolSize    = 1
	Uint16Size  = 2
	Uint32Size  = 4
	Uint64Size  = 8
	Float32Size = 4
	Float64Size = 8
	UUIDSize    = 16

	// LengthPrefixSize is the width of the int32 prefix of a sized string.
	LengthPrefixSize = 4
)

// StringSize returns the number of UTF-8 bytes PutString writes for s.
func StringSize(s string) int {
	return len(s)
}

// SizedStringSize returns the number of bytes PutSizedString writes for s.
func SizedStringSize(s string) int {
	return LengthPrefixSize + len(s)
}
