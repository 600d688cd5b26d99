package models

import (
	"fmt"
	"io"

	"github.com/zeusync/simstore/pkg/encoding"
)

// Entity wire form:
//
//	[tag:uint16 BE][version:uint8][payload]  repeated per serializable component
//	[0xFFFF]                                 sentinel
//
// Components are written in insertion order; non-serializable kinds are skipped.

var (
	_ encoding.Marshaler   = (*Entity)(nil)
	_ encoding.Unmarshaler = (*Entity)(nil)
)

func (e *Entity) serializables() []Serializable {
	out := make([]Serializable, 0, len(e.slots))
	for _, s := range e.slots {
		info, ok := LookupKind(s.kind)
		if !ok || !info.Caps.Has(CapSerializable) {
			continue
		}
		if sc, ok := s.c.(Serializable); ok {
			out = append(out, sc)
		}
	}
	return out
}

// SerializeSize is the exact number of bytes Serialize writes.
func (e *Entity) SerializeSize() int {
	size := encoding.Uint16Size
	for _, sc := range e.serializables() {
		size += encoding.Uint16Size + sc.SerializeSize()
	}
	return size
}

// Serialize writes the tagged stream into dst at off. dst must hold
// SerializeSize bytes past off.
func (e *Entity) Serialize(dst []byte, off int) (int, error) {
	start := off
	for _, sc := range e.serializables() {
		n, err := encoding.PutUint16(dst, off, uint16(sc.Tag()))
		if err != nil {
			return 0, err
		}
		off += n

		want := sc.SerializeSize()
		if n, err = sc.Serialize(dst, off); err != nil {
			return 0, fmt.Errorf("serialize %s: %w", sc.Kind(), err)
		}
		if n != want {
			return 0, fmt.Errorf("serialize %s: wrote %d, reported %d: %w", sc.Kind(), n, want, ErrSizeMismatch)
		}
		off += n
	}
	n, err := encoding.PutUint16(dst, off, uint16(TagSentinel))
	if err != nil {
		return 0, err
	}
	off += n
	return off - start, nil
}

// EncodeTo writes the same bytes as Serialize to w.
func (e *Entity) EncodeTo(w io.Writer) (int64, error) {
	sw := encoding.NewWriter(w)
	for _, sc := range e.serializables() {
		if _, err := sw.WriteUint16(uint16(sc.Tag())); err != nil {
			return sw.Written(), err
		}
		if err := sc.Encode(sw); err != nil {
			return sw.Written(), fmt.Errorf("encode %s: %w", sc.Kind(), err)
		}
	}
	_, err := sw.WriteUint16(uint16(TagSentinel))
	return sw.Written(), err
}

// Deserialize reads a tagged stream at off into e. Components already
// attached are decoded in place; missing kinds are constructed and attached.
// It returns the bytes consumed including the sentinel.
func (e *Entity) Deserialize(src []byte, off int) (int, error) {
	start := off
	for {
		tagOff := off
		raw, n, err := encoding.Uint16(src, off)
		if err != nil {
			return 0, &DecodeError{Offset: tagOff, GUID: e.GUID(), Err: err}
		}
		off += n

		tag := Tag(raw)
		if tag == TagSentinel {
			return off - start, nil
		}

		info, ok := LookupTag(tag)
		if !ok {
			return 0, &DecodeError{Tag: tag, Offset: tagOff, GUID: e.GUID(), Err: ErrUnknownComponentTag}
		}

		sc, fresh, err := e.decodeTarget(info)
		if err != nil {
			return 0, &DecodeError{Tag: tag, Offset: tagOff, GUID: e.GUID(), Err: err}
		}
		if n, err = sc.Deserialize(src, off); err != nil {
			return 0, &DecodeError{Tag: tag, Offset: off, GUID: e.GUID(), Err: err}
		}
		// a new instance joins the entity only once it decoded cleanly
		if fresh {
			if err := e.attach(sc); err != nil {
				return 0, &DecodeError{Tag: tag, Offset: tagOff, GUID: e.GUID(), Err: err}
			}
		}
		off += n
	}
}

// decodeTarget returns the attached component of info's kind, or a new
// unattached instance with fresh set.
func (e *Entity) decodeTarget(info KindInfo) (sc Serializable, fresh bool, err error) {
	if c, ok := e.Component(info.ID); ok {
		sc, ok := c.(Serializable)
		if !ok {
			return nil, false, fmt.Errorf("%s: %w", info.Name, ErrNotSerializable)
		}
		return sc, false, nil
	}

	sc, ok := info.New().(Serializable)
	if !ok {
		return nil, false, fmt.Errorf("%s: %w", info.Name, ErrNotSerializable)
	}
	return sc, true, nil
}
