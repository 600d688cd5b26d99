package encoding

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/google/uuid"
)

// Writer is the append-only form of the codec. All writes are sequential and
// return the number of bytes produced. Byte order matches the buffer form.
type Writer struct {
	w       io.Writer
	scratch [8]byte
	written int64
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Written returns the total number of bytes produced so far.
func (w *Writer) Written() int64 {
	return w.written
}

func (w *Writer) write(b []byte) (int, error) {
	n, err := w.w.Write(b)
	w.written += int64(n)
	return n, err
}

func (w *Writer) WriteUint8(v uint8) (int, error) {
	w.scratch[0] = v
	return w.write(w.scratch[:1])
}

func (w *Writer) WriteInt8(v int8) (int, error) {
	return w.WriteUint8(uint8(v))
}

func (w *Writer) WriteBool(v bool) (int, error) {
	if v {
		return w.WriteUint8(1)
	}
	return w.WriteUint8(0)
}

func (w *Writer) WriteUint16(v uint16) (int, error) {
	binary.BigEndian.PutUint16(w.scratch[:2], v)
	return w.write(w.scratch[:2])
}

func (w *Writer) WriteInt16(v int16) (int, error) {
	return w.WriteUint16(uint16(v))
}

func (w *Writer) WriteUint32(v uint32) (int, error) {
	binary.BigEndian.PutUint32(w.scratch[:4], v)
	return w.write(w.scratch[:4])
}

func (w *Writer) WriteInt32(v int32) (int, error) {
	return w.WriteUint32(uint32(v))
}

func (w *Writer) WriteUint64(v uint64) (int, error) {
	binary.BigEndian.PutUint64(w.scratch[:8], v)
	return w.write(w.scratch[:8])
}

func (w *Writer) WriteInt64(v int64) (int, error) {
	return w.WriteUint64(uint64(v))
}

func (w *Writer) WriteFloat32(v float32) (int, error) {
	return w.WriteUint32(math.Float32bits(v))
}

func (w *Writer) WriteFloat64(v float64) (int, error) {
	return w.WriteUint64(math.Float64bits(v))
}

// WriteBytes writes b as-is.
func (w *Writer) WriteBytes(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	return w.write(b)
}

// WriteString writes the raw UTF-8 bytes of s.
func (w *Writer) WriteString(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return w.write([]byte(s))
}

// WriteSizedString writes an int32 length prefix followed by the UTF-8 bytes.
func (w *Writer) WriteSizedString(s string) (int, error) {
	length, err := lengthPrefix("write sized string", len(s))
	if err != nil {
		return 0, err
	}
	n, err := w.WriteInt32(length)
	if err != nil {
		return n, err
	}
	m, err := w.WriteString(s)
	return n + m, err
}

func (w *Writer) WriteUUID(id uuid.UUID) (int, error) {
	return w.write(id[:])
}
