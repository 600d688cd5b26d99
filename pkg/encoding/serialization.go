package encoding

import "fmt"

// Sizer reports the exact number of bytes a value encodes to. It must be
// consulted before encoding into a fixed destination.
type Sizer interface {
	SerializeSize() int
}

// Marshaler encodes into a caller-sized buffer at an offset.
type Marshaler interface {
	Sizer
	Serialize(dst []byte, off int) (int, error)
}

// Unmarshaler decodes from a buffer at an offset and reports bytes consumed.
type Unmarshaler interface {
	Deserialize(src []byte, off int) (int, error)
}

// Marshal allocates exactly SerializeSize bytes and encodes m into them.
func Marshal(m Marshaler) ([]byte, error) {
	size := m.SerializeSize()
	buf := make([]byte, size)
	n, err := m.Serialize(buf, 0)
	if err != nil {
		return nil, err
	}
	if n != size {
		return nil, fmt.Errorf("marshal: wrote %d bytes, expected %d", n, size)
	}
	return buf, nil
}

// Unmarshal decodes src into u and requires every byte to be consumed.
func Unmarshal(src []byte, u Unmarshaler) error {
	n, err := u.Deserialize(src, 0)
	if err != nil {
		return err
	}
	if n != len(src) {
		return fmt.Errorf("unmarshal: consumed %d of %d bytes", n, len(src))
	}
	return nil
}
