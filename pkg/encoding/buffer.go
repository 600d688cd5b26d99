package encoding

import (
	"encoding/binary"
	"math"

	"github.com/google/uuid"
)

// Buffer-form codec. Every Put writes at off and returns the number of bytes
// produced; every read returns the value and the number of bytes consumed so
// call sites can accumulate an offset across a sequence of fields.
// Multi-byte integers are big-endian regardless of host order.

// PutUint8 writes 1 byte.
func PutUint8(dst []byte, off int, v uint8) (int, error) {
	if err := checkBounds("put uint8", dst, off, Uint8Size); err != nil {
		return 0, err
	}
	dst[off] = v
	return Uint8Size, nil
}

// Uint8 reads 1 byte.
func Uint8(src []byte, off int) (uint8, int, error) {
	if err := checkBounds("read uint8", src, off, Uint8Size); err != nil {
		return 0, 0, err
	}
	return src[off], Uint8Size, nil
}

func PutInt8(dst []byte, off int, v int8) (int, error) {
	return PutUint8(dst, off, uint8(v))
}

func Int8(src []byte, off int) (int8, int, error) {
	v, n, err := Uint8(src, off)
	return int8(v), n, err
}

// PutBool writes 1 for true and 0 for false.
func PutBool(dst []byte, off int, v bool) (int, error) {
	var b uint8
	if v {
		b = 1
	}
	return PutUint8(dst, off, b)
}

// Bool reads a byte and reports whether it equals 1.
func Bool(src []byte, off int) (bool, int, error) {
	v, n, err := Uint8(src, off)
	return v == 1, n, err
}

// PutUint16 writes 2 bytes big-endian.
func PutUint16(dst []byte, off int, v uint16) (int, error) {
	if err := checkBounds("put uint16", dst, off, Uint16Size); err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint16(dst[off:], v)
	return Uint16Size, nil
}

// Uint16 reads 2 bytes big-endian.
func Uint16(src []byte, off int) (uint16, int, error) {
	if err := checkBounds("read uint16", src, off, Uint16Size); err != nil {
		return 0, 0, err
	}
	return binary.BigEndian.Uint16(src[off:]), Uint16Size, nil
}

func PutInt16(dst []byte, off int, v int16) (int, error) {
	return PutUint16(dst, off, uint16(v))
}

func Int16(src []byte, off int) (int16, int, error) {
	v, n, err := Uint16(src, off)
	return int16(v), n, err
}

// PutUint32 writes 4 bytes big-endian.
func PutUint32(dst []byte, off int, v uint32) (int, error) {
	if err := checkBounds("put uint32", dst, off, Uint32Size); err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint32(dst[off:], v)
	return Uint32Size, nil
}

// Uint32 reads 4 bytes big-endian.
func Uint32(src []byte, off int) (uint32, int, error) {
	if err := checkBounds("read uint32", src, off, Uint32Size); err != nil {
		return 0, 0, err
	}
	return binary.BigEndian.Uint32(src[off:]), Uint32Size, nil
}

func PutInt32(dst []byte, off int, v int32) (int, error) {
	return PutUint32(dst, off, uint32(v))
}

func Int32(src []byte, off int) (int32, int, error) {
	v, n, err := Uint32(src, off)
	return int32(v), n, err
}

// PutUint64 writes 8 bytes big-endian.
func PutUint64(dst []byte, off int, v uint64) (int, error) {
	if err := checkBounds("put uint64", dst, off, Uint64Size); err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint64(dst[off:], v)
	return Uint64Size, nil
}

// Uint64 reads 8 bytes big-endian.
func Uint64(src []byte, off int) (uint64, int, error) {
	if err := checkBounds("read uint64", src, off, Uint64Size); err != nil {
		return 0, 0, err
	}
	return binary.BigEndian.Uint64(src[off:]), Uint64Size, nil
}

func PutInt64(dst []byte, off int, v int64) (int, error) {
	return PutUint64(dst, off, uint64(v))
}

func Int64(src []byte, off int) (int64, int, error) {
	v, n, err := Uint64(src, off)
	return int64(v), n, err
}

// PutFloat32 writes the IEEE-754 bit pattern of v. NaN payloads survive.
func PutFloat32(dst []byte, off int, v float32) (int, error) {
	return PutUint32(dst, off, math.Float32bits(v))
}

func Float32(src []byte, off int) (float32, int, error) {
	v, n, err := Uint32(src, off)
	return math.Float32frombits(v), n, err
}

// PutFloat64 writes the IEEE-754 bit pattern of v.
func PutFloat64(dst []byte, off int, v float64) (int, error) {
	return PutUint64(dst, off, math.Float64bits(v))
}

func Float64(src []byte, off int) (float64, int, error) {
	v, n, err := Uint64(src, off)
	return math.Float64frombits(v), n, err
}

// PutBytes copies b into dst at off.
func PutBytes(dst []byte, off int, b []byte) (int, error) {
	if err := checkBounds("put bytes", dst, off, len(b)); err != nil {
		return 0, err
	}
	return copy(dst[off:], b), nil
}

// Bytes reads n bytes into a fresh slice.
func Bytes(src []byte, off, n int) ([]byte, int, error) {
	if err := checkBounds("read bytes", src, off, n); err != nil {
		return nil, 0, err
	}
	out := make([]byte, n)
	copy(out, src[off:off+n])
	return out, n, nil
}

// PutString writes the raw UTF-8 bytes of s. The caller tracks the length.
// An empty string writes nothing.
func PutString(dst []byte, off int, s string) (int, error) {
	if err := checkBounds("put string", dst, off, len(s)); err != nil {
		return 0, err
	}
	return copy(dst[off:], s), nil
}

// String reads n raw UTF-8 bytes.
func String(src []byte, off, n int) (string, int, error) {
	if err := checkBounds("read string", src, off, n); err != nil {
		return "", 0, err
	}
	return string(src[off : off+n]), n, nil
}

// PutSizedString writes an int32 length prefix followed by the UTF-8 bytes.
// The empty string encodes as a zero length and no payload.
func PutSizedString(dst []byte, off int, s string) (int, error) {
	length, err := lengthPrefix("put sized string", len(s))
	if err != nil {
		return 0, err
	}
	if err := checkBounds("put sized string", dst, off, SizedStringSize(s)); err != nil {
		return 0, err
	}
	n, _ := PutInt32(dst, off, length)
	n += copy(dst[off+n:], s)
	return n, nil
}

// SizedString reads a string written by PutSizedString.
func SizedString(src []byte, off int) (string, int, error) {
	length, n, err := Int32(src, off)
	if err != nil {
		return "", 0, err
	}
	if length == 0 {
		return "", n, nil
	}
	if length < 0 {
		return "", 0, &BoundsError{Op: "read sized string", Offset: off + n, Need: int(length), Len: len(src)}
	}
	s, m, err := String(src, off+n, int(length))
	if err != nil {
		return "", 0, err
	}
	return s, n + m, nil
}

// PutUUID writes the 16 canonical bytes of id.
func PutUUID(dst []byte, off int, id uuid.UUID) (int, error) {
	return PutBytes(dst, off, id[:])
}

// UUID reads 16 canonical bytes.
func UUID(src []byte, off int) (uuid.UUID, int, error) {
	var id uuid.UUID
	if err := checkBounds("read uuid", src, off, UUIDSize); err != nil {
		return id, 0, err
	}
	copy(id[:], src[off:off+UUIDSize])
	return id, UUIDSize, nil
}
