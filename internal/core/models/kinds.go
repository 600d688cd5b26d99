package models

import (
	"fmt"
	"sort"
	"sync"
)

// KindID identifies a component kind. An entity holds at most one component per kind.
type KindID uint16

// Tag is the wire identifier of a serializable kind.
type Tag uint16

const (
	KindEntityData KindID = 1
	KindPosition   KindID = 2
)

const (
	TagEntityData Tag = 1
	TagPosition   Tag = 2
	// TagSentinel terminates a tagged entity stream.
	TagSentinel Tag = 0xFFFF
)

// Capability flags declared once per kind.
type Capability uint8

const (
	CapSerializable Capability = 1 << iota
	CapDisposable
)

func (c Capability) Has(flag Capability) bool { return c&flag == flag }

// KindInfo describes a component kind to the registry and codec.
type KindInfo struct {
	ID   KindID
	Name string
	// Tag is zero for kinds that never reach the wire.
	Tag  Tag
	Caps Capability
	// New builds a default instance, used by the decoder for absent kinds.
	New func() Component
}

type kindRegistry struct {
	mu     sync.RWMutex
	byKind map[KindID]KindInfo
	byTag  map[Tag]KindInfo
}

var kinds = &kindRegistry{
	byKind: make(map[KindID]KindInfo),
	byTag:  make(map[Tag]KindInfo),
}

func init() {
	MustRegisterKind(KindInfo{
		ID:   KindEntityData,
		Name: "entity_data",
		Tag:  TagEntityData,
		Caps: CapSerializable,
		New:  func() Component { return &EntityData{} },
	})
	MustRegisterKind(KindInfo{
		ID:   KindPosition,
		Name: "position",
		Tag:  TagPosition,
		Caps: CapSerializable,
		New:  func() Component { return &Position{} },
	})
}

// RegisterKind adds a component kind. Kinds and tags are unique.
func RegisterKind(info KindInfo) error {
	if info.Caps.Has(CapSerializable) && (info.Tag == 0 || info.Tag == TagSentinel) {
		return fmt.Errorf("kind %q: invalid tag %d", info.Name, info.Tag)
	}
	if info.Caps.Has(CapSerializable) && info.New == nil {
		return fmt.Errorf("kind %q: serializable kinds need a constructor", info.Name)
	}

	kinds.mu.Lock()
	defer kinds.mu.Unlock()

	if _, ok := kinds.byKind[info.ID]; ok {
		return fmt.Errorf("kind %d (%s): %w", info.ID, info.Name, ErrKindConflict)
	}
	if info.Tag != 0 {
		if _, ok := kinds.byTag[info.Tag]; ok {
			return fmt.Errorf("tag %d (%s): %w", info.Tag, info.Name, ErrKindConflict)
		}
		kinds.byTag[info.Tag] = info
	}
	kinds.byKind[info.ID] = info
	return nil
}

func MustRegisterKind(info KindInfo) {
	if err := RegisterKind(info); err != nil {
		panic(err)
	}
}

func LookupKind(id KindID) (KindInfo, bool) {
	kinds.mu.RLock()
	defer kinds.mu.RUnlock()
	info, ok := kinds.byKind[id]
	return info, ok
}

func LookupTag(tag Tag) (KindInfo, bool) {
	kinds.mu.RLock()
	defer kinds.mu.RUnlock()
	info, ok := kinds.byTag[tag]
	return info, ok
}

// Kinds returns every registered kind ordered by id.
func Kinds() []KindInfo {
	kinds.mu.RLock()
	out := make([]KindInfo, 0, len(kinds.byKind))
	for _, info := range kinds.byKind {
		out = append(out, info)
	}
	kinds.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (k KindID) String() string {
	if info, ok := LookupKind(k); ok {
		return info.Name
	}
	return fmt.Sprintf("kind(%d)", uint16(k))
}
