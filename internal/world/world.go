package world

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/simstore/internal/config"
	"github.com/zeusync/simstore/internal/core/clock"
	"github.com/zeusync/simstore/internal/core/events/bus"
	"github.com/zeusync/simstore/internal/core/models"
	"github.com/zeusync/simstore/internal/core/observability/log"
	"github.com/zeusync/simstore/internal/core/registry"
	"github.com/zeusync/simstore/internal/core/systems/physics"
	"github.com/zeusync/simstore/internal/persist"
	"github.com/zeusync/simstore/pkg/concurrent"
	"github.com/zeusync/simstore/pkg/encoding"
)

// SnapshotStore persists world snapshots. *persist.Store implements it.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap persist.Snapshot) error
	LoadSnapshot(ctx context.Context) (*persist.Snapshot, error)
}

// World owns the clock, the registry and the snapshot cadence.
type World struct {
	cfg      *config.Config
	bus      bus.EventBus
	clock    *clock.Clock
	registry *registry.Registry
	factory  *models.Factory
	bounds   *physics.Bounds
	store    SnapshotStore
	sink     *log.Sink
	log      log.Log

	saves   chan persist.Snapshot
	saved   atomic.Uint64
	dropped atomic.Uint64
}

// New wires a world. store may be nil to run without persistence.
func New(cfg *config.Config, store SnapshotStore, logger log.Log, sink *log.Sink) (*World, error) {
	sink = log.SinkOr(sink)
	events := bus.New()

	clk, err := clock.New(clock.Config{
		Period:      clock.PeriodFor(cfg.Clock.TicksPerSecond),
		StartPaused: cfg.Clock.StartPaused,
		StartTick:   cfg.Clock.StartTick,
	}, clock.WithBus(events), clock.WithSink(sink))
	if err != nil {
		return nil, fmt.Errorf("create clock: %w", err)
	}

	w := &World{
		cfg:      cfg,
		bus:      events,
		clock:    clk,
		registry: registry.New(registry.WithBus(events), registry.WithSink(sink)),
		factory:  models.NewFactory(sink),
		store:    store,
		sink:     sink,
		log:      logger.With(log.String("component", "world")),
		saves:    make(chan persist.Snapshot, 1),
	}

	b := cfg.World.Bounds
	w.bounds = physics.NewBounds(mgl32.Vec2{b.MinX, b.MinY}, mgl32.Vec2{b.MaxX, b.MaxY})
	if err := w.registry.AddSystem(w.bounds); err != nil {
		return nil, err
	}

	// systems run before the save check of the same tick
	if _, err := clk.OnTick(w.registry.OnTick); err != nil {
		return nil, err
	}
	if _, err := clk.OnTick(w.onTick); err != nil {
		return nil, err
	}
	for _, typ := range []string{registry.EventSpawned, registry.EventDespawned} {
		if _, err := events.Subscribe(typ, w.logLifecycle); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (w *World) Clock() *clock.Clock          { return w.clock }
func (w *World) Registry() *registry.Registry { return w.registry }
func (w *World) Factory() *models.Factory     { return w.factory }
func (w *World) Bus() bus.EventBus            { return w.bus }

// Saved and Dropped count snapshots written and skipped because the saver was busy.
func (w *World) Saved() uint64   { return w.saved.Load() }
func (w *World) Dropped() uint64 { return w.dropped.Load() }

// Load restores the last snapshot, or seeds the configured entities when
// there is none. It must run before Run.
func (w *World) Load(ctx context.Context) error {
	if w.store != nil {
		snap, err := w.store.LoadSnapshot(ctx)
		switch {
		case err == nil:
			return w.restore(ctx, snap)
		case !errors.Is(err, persist.ErrNoSnapshot):
			return fmt.Errorf("load snapshot: %w", err)
		}
	}
	return w.seed()
}

func (w *World) restore(ctx context.Context, snap *persist.Snapshot) error {
	// decoding is independent per entity; registration keeps snapshot order
	decoded, err := concurrent.Map(ctx, snap.Entities, 0,
		func(_ context.Context, i int, rec persist.Record) (*models.Entity, error) {
			e, err := w.factory.Decode(rec.Payload)
			if err != nil {
				return nil, fmt.Errorf("restore entity %d (%s): %w", i, rec.GUID, err)
			}
			return e, nil
		})
	if err != nil {
		return err
	}
	for i, e := range decoded {
		rec := snap.Entities[i]
		if err := w.registry.Register(rec.Category, e); err != nil {
			return fmt.Errorf("restore entity %d (%s): %w", i, rec.GUID, err)
		}
	}
	if err := w.clock.SetTime(snap.Tick); err != nil {
		return err
	}
	w.log.Info("world restored",
		log.Uint64("tick", snap.Tick),
		log.Int("entities", len(snap.Entities)),
		log.Time("saved_at", snap.SavedAt),
	)
	return nil
}

func (w *World) seed() error {
	for i, s := range w.cfg.World.Seed {
		kind, category, err := s.Resolve()
		if err != nil {
			return fmt.Errorf("seed[%d]: %w", i, err)
		}
		if _, err := w.Spawn(kind, category, s.X, s.Y); err != nil {
			return fmt.Errorf("seed[%d]: %w", i, err)
		}
	}
	w.log.Info("world seeded", log.Int("entities", len(w.cfg.World.Seed)))
	return nil
}

// Spawn builds an entity of kind at (x, y) and registers it.
func (w *World) Spawn(kind models.EntityKind, category models.Category, x, y float32) (*models.Entity, error) {
	e, err := w.factory.New(kind)
	if err != nil {
		return nil, err
	}
	if pos, ok := models.TryGet[*models.Position](e); ok {
		pos.Vec2 = mgl32.Vec2{x, y}
	}
	if err := w.registry.Register(category, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Snapshot encodes every registered entity at the current tick.
func (w *World) Snapshot() (persist.Snapshot, error) {
	return w.capture(w.clock.Time())
}

func (w *World) capture(tick uint64) (persist.Snapshot, error) {
	snap := persist.Snapshot{Tick: tick, SavedAt: time.Now()}
	err := w.registry.Visit(models.CategoryAll, func(c models.Category, e *models.Entity) error {
		payload, err := encoding.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode %s: %w", e, err)
		}
		snap.Entities = append(snap.Entities, persist.Record{
			Category: c,
			Kind:     e.EntityKind(),
			GUID:     e.GUID(),
			Payload:  payload,
		})
		return nil
	})
	return snap, err
}

func (w *World) onTick(tick uint64) error {
	every := w.cfg.Storage.SaveEveryTicks
	if w.store == nil || every == 0 || tick%every != 0 {
		return nil
	}
	snap, err := w.capture(tick)
	if err != nil {
		return err
	}
	select {
	case w.saves <- snap:
	default:
		w.dropped.Add(1)
		w.sink.Publishf(log.SeverityWarning, "snapshot saver busy, dropped tick %d", tick)
	}
	return nil
}

// Run drives the clock and the saver until ctx is done or Close is called,
// then writes a final snapshot and tears the registry down.
func (w *World) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.clock.Run(gctx) })
	g.Go(func() error { return w.saver(gctx) })

	if w.cfg.Clock.AutoResume {
		w.clock.SetPaused(false)
	}
	w.log.Info("world running",
		log.Int("ticks_per_second", w.cfg.Clock.TicksPerSecond),
		log.Uint64("save_every_ticks", w.cfg.Storage.SaveEveryTicks),
	)

	runErr := g.Wait()
	_ = w.clock.Close()
	<-w.clock.Done()

	var saveErr error
	if w.store != nil {
		saveErr = w.finalSave()
	}
	closeErr := w.registry.Close()

	w.log.Info("world stopped",
		log.Uint64("tick", w.clock.Time()),
		log.Uint64("saved", w.Saved()),
		log.Uint64("clamped", w.bounds.Clamped()),
	)
	return errors.Join(runErr, saveErr, closeErr)
}

// finalSave stores the world as it is after the clock stopped. A capture
// error leaves the stored snapshot untouched, since saving the partial
// capture would replace every stored entity.
func (w *World) finalSave() error {
	snap, err := w.Snapshot()
	if err != nil {
		w.log.Error("final snapshot skipped", log.Error(err))
		return fmt.Errorf("final snapshot: %w", err)
	}
	return w.save(context.Background(), snap)
}

// Close stops the clock; Run then finishes its shutdown sequence.
func (w *World) Close() error {
	return w.clock.Close()
}

func (w *World) saver(ctx context.Context) error {
	for {
		select {
		case snap := <-w.saves:
			if err := w.save(ctx, snap); err != nil {
				w.log.Error("snapshot save failed", log.Uint64("tick", snap.Tick), log.Error(err))
			}
		case <-ctx.Done():
			return nil
		case <-w.clock.Done():
			return nil
		}
	}
}

func (w *World) save(ctx context.Context, snap persist.Snapshot) error {
	timeout := w.cfg.Storage.SaveTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := w.store.SaveSnapshot(ctx, snap); err != nil {
		return err
	}
	w.saved.Add(1)
	return nil
}

func (w *World) logLifecycle(ev bus.Event) error {
	lc, ok := ev.Data().(registry.Lifecycle)
	if !ok {
		return nil
	}
	w.log.Debug(ev.Type(),
		log.String("category", lc.Category.String()),
		log.String("guid", lc.Entity.GUID().String()),
		log.String("kind", lc.Entity.EntityKind().String()),
	)
	return nil
}
