package models

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/zeusync/simstore/pkg/encoding"
)

// EntityKind is the semantic type an entity was built as.
type EntityKind uint16

const (
	EntityKindNone    EntityKind = 0
	EntityKindPlayer  EntityKind = 1
	EntityKindVehicle EntityKind = 2
	EntityKindBox     EntityKind = 3
)

var entityKindNames = map[EntityKind]string{
	EntityKindNone:    "none",
	EntityKindPlayer:  "player",
	EntityKindVehicle: "vehicle",
	EntityKindBox:     "box",
}

func (k EntityKind) String() string {
	if name, ok := entityKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("entity_kind(%d)", uint16(k))
}

func ParseEntityKind(name string) (EntityKind, bool) {
	for k, n := range entityKindNames {
		if n == name {
			return k, true
		}
	}
	return EntityKindNone, false
}

const entityDataVersion uint8 = 0

// EntityData is the identity record every factory-built entity carries.
type EntityData struct {
	ID   EntityKind
	GUID uuid.UUID
}

var _ Serializable = (*EntityData)(nil)

func (*EntityData) Kind() KindID   { return KindEntityData }
func (*EntityData) Tag() Tag       { return TagEntityData }
func (*EntityData) Version() uint8 { return entityDataVersion }

func (d *EntityData) SerializeSize() int {
	return encoding.Uint8Size + encoding.Uint16Size + encoding.UUIDSize
}

func (d *EntityData) Serialize(dst []byte, off int) (int, error) {
	start := off
	n, err := encoding.PutUint8(dst, off, entityDataVersion)
	if err != nil {
		return 0, err
	}
	off += n
	if n, err = encoding.PutUint16(dst, off, uint16(d.ID)); err != nil {
		return 0, err
	}
	off += n
	if n, err = encoding.PutUUID(dst, off, d.GUID); err != nil {
		return 0, err
	}
	off += n
	return off - start, nil
}

func (d *EntityData) Deserialize(src []byte, off int) (int, error) {
	start := off
	// only version 0 exists
	_, n, err := encoding.Uint8(src, off)
	if err != nil {
		return 0, err
	}
	off += n
	id, n, err := encoding.Uint16(src, off)
	if err != nil {
		return 0, err
	}
	off += n
	guid, n, err := encoding.UUID(src, off)
	if err != nil {
		return 0, err
	}
	off += n

	d.ID = EntityKind(id)
	d.GUID = guid
	return off - start, nil
}

func (d *EntityData) Encode(w *encoding.Writer) error {
	if _, err := w.WriteUint8(entityDataVersion); err != nil {
		return err
	}
	if _, err := w.WriteUint16(uint16(d.ID)); err != nil {
		return err
	}
	_, err := w.WriteUUID(d.GUID)
	return err
}
