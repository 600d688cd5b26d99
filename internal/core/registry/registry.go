package registry

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/zeusync/simstore/internal/core/events/bus"
	"github.com/zeusync/simstore/internal/core/models"
	"github.com/zeusync/simstore/internal/core/observability/log"
	"github.com/zeusync/simstore/internal/core/systems"
)

// Lifecycle event types published on the bus. Event data is a Lifecycle.
const (
	EventSpawned   = "registry.entity.spawned"
	EventDespawned = "registry.entity.despawned"
)

const eventSource = "registry"

// Lifecycle describes a spawn or despawn.
type Lifecycle struct {
	Category models.Category
	Entity   *models.Entity
}

type bucket struct {
	category models.Category
	mu       sync.Mutex
	entities []*models.Entity
}

// record remembers where an entity lives so Unregister touches exactly one bucket.
type record struct {
	category models.Category
}

// Registry stores entities in one bucket per category and dispatches
// systems over them each tick.
//
// Lock order is bucket then registry state; the registry lock is never held
// while waiting for a bucket.
type Registry struct {
	buckets []*bucket
	byFlag  map[models.Category]*bucket
	bus     bus.EventBus
	sink    *log.Sink

	mu      sync.Mutex
	records map[*models.Entity]record
	systems []systems.System
	closed  bool

	closeOnce sync.Once
}

func New(opts ...Option) *Registry {
	r := &Registry{
		byFlag:  make(map[models.Category]*bucket, len(models.Categories)),
		records: make(map[*models.Entity]record),
		sink:    log.DefaultSink(),
	}
	for _, c := range models.Categories {
		b := &bucket{category: c}
		r.buckets = append(r.buckets, b)
		r.byFlag[c] = b
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register appends e to the bucket of category and publishes a spawn event.
func (r *Registry) Register(category models.Category, e *models.Entity) error {
	if e == nil {
		return ErrNilEntity
	}
	if !category.IsSingle() {
		return fmt.Errorf("register %s: %w", category, ErrInvalidCategory)
	}
	b := r.byFlag[category]

	b.mu.Lock()
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		b.mu.Unlock()
		return ErrClosed
	}
	if rec, ok := r.records[e]; ok {
		r.mu.Unlock()
		b.mu.Unlock()
		return fmt.Errorf("register %s: already in %s: %w", e, rec.category, ErrAlreadyRegistered)
	}
	r.records[e] = record{category: category}
	r.mu.Unlock()
	b.entities = append(b.entities, e)
	b.mu.Unlock()

	r.publish(EventSpawned, category, e)
	return nil
}

// Unregister detaches e from its bucket, disposes its disposable components
// and publishes a despawn event.
func (r *Registry) Unregister(e *models.Entity) error {
	if e == nil {
		return ErrNilEntity
	}
	category, ok := r.Category(e)
	if !ok {
		return ErrNotRegistered
	}
	b := r.byFlag[category]

	b.mu.Lock()
	r.mu.Lock()
	rec, ok := r.records[e]
	if !ok || rec.category != category {
		// lost a race with another Unregister
		r.mu.Unlock()
		b.mu.Unlock()
		return ErrNotRegistered
	}
	delete(r.records, e)
	r.mu.Unlock()
	if i := slices.Index(b.entities, e); i >= 0 {
		b.entities = slices.Delete(b.entities, i, i+1)
	}
	b.mu.Unlock()

	e.Dispose()
	r.publish(EventDespawned, category, e)
	return nil
}

// Category returns the bucket e is registered in.
func (r *Registry) Category(e *models.Entity) (models.Category, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[e]
	return rec.category, ok
}

// Len counts entities in every bucket intersecting mask.
func (r *Registry) Len(mask models.Category) int {
	total := 0
	for _, b := range r.buckets {
		if !b.category.Intersects(mask) {
			continue
		}
		b.mu.Lock()
		total += len(b.entities)
		b.mu.Unlock()
	}
	return total
}

// Entities returns a cursor over every entity in buckets intersecting mask
// that satisfies pred (nil accepts all). See Cursor for consistency rules.
func (r *Registry) Entities(mask models.Category, pred func(*models.Entity) bool) models.Iterator[*models.Entity] {
	return newCursor(r, mask, pred)
}

// Visit calls fn for each entity in buckets intersecting mask while holding
// that bucket's lock, stopping at the first error. fn must not register or
// unregister entities.
func (r *Registry) Visit(mask models.Category, fn func(models.Category, *models.Entity) error) error {
	for _, b := range r.buckets {
		if !b.category.Intersects(mask) {
			continue
		}
		if err := b.visit(fn); err != nil {
			return err
		}
	}
	return nil
}

func (b *bucket) visit(fn func(models.Category, *models.Entity) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.entities {
		if err := fn(b.category, e); err != nil {
			return err
		}
	}
	return nil
}

// AddSystem appends s to the dispatch list. Adding the same system twice is a no-op.
func (r *Registry) AddSystem(s systems.System) error {
	if s == nil {
		return ErrNilSystem
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if slices.Contains(r.systems, s) {
		return nil
	}
	r.systems = append(r.systems, s)
	return nil
}

func (r *Registry) Systems() []systems.System {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.systems)
}

// OnTick runs every system over its handled buckets in registration order.
// Failing or panicking systems are reported in the joined error and do not
// stop the pass.
func (r *Registry) OnTick(tick uint64) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	list := slices.Clone(r.systems)
	r.mu.Unlock()

	var all error
	for _, s := range list {
		mask := s.Handles()
		for _, b := range r.buckets {
			if !b.category.Intersects(mask) {
				continue
			}
			if err := b.dispatch(s, tick); err != nil {
				all = errors.Join(all, err)
			}
		}
	}
	return all
}

func (b *bucket) dispatch(s systems.System, tick uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var all error
	for _, e := range b.entities {
		if err := process(s, e, b.category); err != nil {
			all = errors.Join(all, fmt.Errorf("tick %d: system %s on %s: %w", tick, s.Name(), e, err))
		}
	}
	return all
}

func process(s systems.System, e *models.Entity, category models.Category) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrSystemPanic, rec)
		}
	}()
	return s.Process(e, category)
}

// Close unregisters every live entity, then disposes every system in
// registration order. Only the first call does anything.
func (r *Registry) Close() error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		list := r.systems
		r.systems = nil
		r.mu.Unlock()

		for _, b := range r.buckets {
			b.mu.Lock()
			live := slices.Clone(b.entities)
			b.mu.Unlock()
			for _, e := range live {
				if err := r.Unregister(e); err != nil && !errors.Is(err, ErrNotRegistered) {
					r.sink.PublishError(err)
				}
			}
		}

		for _, s := range list {
			s.Dispose()
		}
	})
	return nil
}

func (r *Registry) publish(typ string, category models.Category, e *models.Entity) {
	if r.bus == nil {
		return
	}
	if err := r.bus.Publish(bus.NewEvent(typ, eventSource, Lifecycle{Category: category, Entity: e})); err != nil {
		r.sink.Publish(fmt.Sprintf("%s subscriber failed: %v", typ, err), log.SeverityWarning)
	}
}
