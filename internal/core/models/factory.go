package models

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/zeusync/simstore/internal/core/observability/log"
	"github.com/zeusync/simstore/pkg/encoding"
)

// Populator attaches the initial component set of an entity kind. The
// identity record is already attached when it runs.
type Populator func(e *Entity)

// Factory builds entities from a semantic kind.
type Factory struct {
	mu    sync.RWMutex
	sink  *log.Sink
	kinds map[EntityKind]Populator
}

func withPosition(e *Entity) { Add(e, NewPosition(0, 0)) }

// NewFactory returns a factory knowing the built-in entity kinds.
func NewFactory(sink *log.Sink) *Factory {
	return &Factory{
		sink: log.SinkOr(sink),
		kinds: map[EntityKind]Populator{
			EntityKindPlayer:  withPosition,
			EntityKindVehicle: withPosition,
			EntityKindBox:     withPosition,
		},
	}
}

// Define replaces the populator of kind.
func (f *Factory) Define(kind EntityKind, p Populator) {
	f.mu.Lock()
	f.kinds[kind] = p
	f.mu.Unlock()
}

// New builds an entity of kind with a random GUID.
func (f *Factory) New(kind EntityKind) (*Entity, error) {
	return f.NewWithGUID(kind, uuid.New())
}

func (f *Factory) NewWithGUID(kind EntityKind, guid uuid.UUID) (*Entity, error) {
	f.mu.RLock()
	populate, ok := f.kinds[kind]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", kind, ErrUnknownEntityKind)
	}

	e := NewEntity(f.sink)
	Add(e, &EntityData{ID: kind, GUID: guid})
	if populate != nil {
		populate(e)
	}
	return e, nil
}

// Decode builds an entity from a complete tagged stream. Trailing bytes
// after the sentinel are an error.
func (f *Factory) Decode(src []byte) (*Entity, error) {
	e := NewEntity(f.sink)
	if err := encoding.Unmarshal(src, e); err != nil {
		return nil, err
	}
	return e, nil
}
