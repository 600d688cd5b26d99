package models

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/zeusync/simstore/internal/core/observability/log"
)

type slot struct {
	kind KindID
	c    Component
}

// Entity owns at most one component per kind, kept in insertion order.
//
// An Entity is not safe for concurrent use. Once registered, the registry's
// bucket lock serializes access from systems and visitors.
type Entity struct {
	slots []slot
	index map[KindID]int
	sink  *log.Sink
}

// NewEntity returns an empty entity publishing diagnostics to sink, or to the
// process default sink when sink is nil.
func NewEntity(sink *log.Sink) *Entity {
	return &Entity{
		index: make(map[KindID]int),
		sink:  log.SinkOr(sink),
	}
}

// Add attaches c. A kind that is already attached is left untouched, a
// warning is published and false is returned.
func Add(e *Entity, c Component) bool {
	if err := e.attach(c); err != nil {
		e.sink.Publish(err.Error(), log.SeverityWarning)
		return false
	}
	return true
}

func (e *Entity) attach(c Component) error {
	kind := c.Kind()
	if _, ok := e.index[kind]; ok {
		return fmt.Errorf("add %s: %w", kind, ErrDuplicateComponent)
	}
	e.index[kind] = len(e.slots)
	e.slots = append(e.slots, slot{kind: kind, c: c})
	return nil
}

// kindOf reports the kind of component type T. T must be a concrete
// component type, normally a pointer; an interface type has no kind and
// reports false.
func kindOf[T Component]() (KindID, bool) {
	var zero T
	if any(zero) == nil {
		return 0, false
	}
	return zero.Kind(), true
}

// Get returns the component of kind T. A missing component publishes an
// error and yields the zero value; TryGet is the quiet form.
func Get[T Component](e *Entity) T {
	c, ok := TryGet[T](e)
	if !ok {
		name := fmt.Sprintf("%T", c)
		if kind, known := kindOf[T](); known {
			name = kind.String()
		}
		e.sink.Publish(fmt.Sprintf("get %s: %v", name, ErrComponentNotFound), log.SeverityError)
	}
	return c
}

// TryGet returns the component of kind T. Interface type arguments never
// match.
func TryGet[T Component](e *Entity) (T, bool) {
	var zero T
	kind, ok := kindOf[T]()
	if !ok {
		return zero, false
	}
	i, ok := e.index[kind]
	if !ok {
		return zero, false
	}
	c, ok := e.slots[i].c.(T)
	return c, ok
}

// Has reports whether a component of kind T is attached.
func Has[T Component](e *Entity) bool {
	kind, ok := kindOf[T]()
	if !ok {
		return false
	}
	_, ok = e.index[kind]
	return ok
}

// Remove detaches the component of kind T and disposes it when it is
// Disposable. Removing an absent kind does nothing.
func Remove[T Component](e *Entity) {
	if kind, ok := kindOf[T](); ok {
		e.RemoveKind(kind)
	}
}

func (e *Entity) RemoveKind(kind KindID) {
	i, ok := e.index[kind]
	if !ok {
		return
	}
	c := e.slots[i].c

	e.slots = append(e.slots[:i], e.slots[i+1:]...)
	delete(e.index, kind)
	for j := i; j < len(e.slots); j++ {
		e.index[e.slots[j].kind] = j
	}

	if d, ok := c.(Disposable); ok {
		d.Dispose()
	}
}

// Component returns the component of the given kind.
func (e *Entity) Component(kind KindID) (Component, bool) {
	i, ok := e.index[kind]
	if !ok {
		return nil, false
	}
	return e.slots[i].c, true
}

// Each visits components in insertion order until fn returns false.
func (e *Entity) Each(fn func(KindID, Component) bool) {
	for _, s := range e.slots {
		if !fn(s.kind, s.c) {
			return
		}
	}
}

func (e *Entity) Len() int { return len(e.slots) }

// GUID returns the identity GUID, or uuid.Nil when no identity is attached.
func (e *Entity) GUID() uuid.UUID {
	if d, ok := TryGet[*EntityData](e); ok && d != nil {
		return d.GUID
	}
	return uuid.Nil
}

// EntityKind returns the semantic kind recorded in the identity component.
func (e *Entity) EntityKind() EntityKind {
	if d, ok := TryGet[*EntityData](e); ok && d != nil {
		return d.ID
	}
	return EntityKindNone
}

// Dispose releases every Disposable component in insertion order. The
// components stay attached.
func (e *Entity) Dispose() {
	e.Each(func(_ KindID, c Component) bool {
		if d, ok := c.(Disposable); ok {
			d.Dispose()
		}
		return true
	})
}

func (e *Entity) Sink() *log.Sink { return e.sink }

func (e *Entity) String() string {
	return fmt.Sprintf("entity(%s %s, %d components)", e.EntityKind(), e.GUID(), len(e.slots))
}
