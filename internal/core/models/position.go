package models

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/simstore/pkg/encoding"
)

const positionVersion uint8 = 0

// Position is a 2D world coordinate.
type Position struct {
	mgl32.Vec2
}

var _ Serializable = (*Position)(nil)

func NewPosition(x, y float32) *Position {
	return &Position{Vec2: mgl32.Vec2{x, y}}
}

func (*Position) Kind() KindID   { return KindPosition }
func (*Position) Tag() Tag       { return TagPosition }
func (*Position) Version() uint8 { return positionVersion }

func (p *Position) SerializeSize() int {
	return encoding.Uint8Size + 2*encoding.Float32Size
}

func (p *Position) Serialize(dst []byte, off int) (int, error) {
	start := off
	n, err := encoding.PutUint8(dst, off, positionVersion)
	if err != nil {
		return 0, err
	}
	off += n
	for _, v := range p.Vec2 {
		if n, err = encoding.PutFloat32(dst, off, v); err != nil {
			return 0, err
		}
		off += n
	}
	return off - start, nil
}

func (p *Position) Deserialize(src []byte, off int) (int, error) {
	start := off
	_, n, err := encoding.Uint8(src, off)
	if err != nil {
		return 0, err
	}
	off += n

	var v mgl32.Vec2
	for i := range v {
		if v[i], n, err = encoding.Float32(src, off); err != nil {
			return 0, err
		}
		off += n
	}
	p.Vec2 = v
	return off - start, nil
}

func (p *Position) Encode(w *encoding.Writer) error {
	if _, err := w.WriteUint8(positionVersion); err != nil {
		return err
	}
	if _, err := w.WriteFloat32(p.X()); err != nil {
		return err
	}
	_, err := w.WriteFloat32(p.Y())
	return err
}
