package clock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeusync/simstore/internal/core/events/bus"
	"github.com/zeusync/simstore/internal/core/observability/log"
)

// Event types published on the clock's bus for every tick, in this order.
const (
	EventTick   = "clock.tick"
	EventUpdate = "clock.update"
)

const eventSource = "clock"

var (
	ErrAlreadyRunning = errors.New("clock already running")
	ErrInvalidPeriod  = errors.New("clock period must be positive")
)

// UpdateKind tells update subscribers which loop produced the update.
type UpdateKind uint8

const (
	UpdateTicker UpdateKind = iota + 1
)

func (k UpdateKind) String() string {
	if k == UpdateTicker {
		return "ticker"
	}
	return fmt.Sprintf("update(%d)", uint8(k))
}

// Update is the data of an EventUpdate event.
type Update struct {
	Kind UpdateKind
	Tick uint64
}

type Config struct {
	Period      time.Duration
	StartPaused bool
	StartTick   uint64
}

// Clock advances a 64-bit tick counter at a fixed period on one goroutine.
// Subscribers run synchronously on that goroutine; a failing or panicking
// subscriber is reported to the sink and does not stop the others.
type Clock struct {
	period time.Duration
	bus    bus.EventBus
	sink   *log.Sink

	time    atomic.Uint64
	paused  atomic.Bool
	stopped atomic.Bool
	started atomic.Bool

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

type Option func(*Clock)

// WithBus shares an existing bus instead of a private one.
func WithBus(b bus.EventBus) Option {
	return func(c *Clock) { c.bus = b }
}

func WithSink(s *log.Sink) Option {
	return func(c *Clock) { c.sink = log.SinkOr(s) }
}

func New(cfg Config, opts ...Option) (*Clock, error) {
	if cfg.Period <= 0 {
		return nil, ErrInvalidPeriod
	}
	c := &Clock{
		period: cfg.Period,
		sink:   log.DefaultSink(),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	c.time.Store(cfg.StartTick)
	c.paused.Store(cfg.StartPaused)
	for _, opt := range opts {
		opt(c)
	}
	if c.bus == nil {
		c.bus = bus.New()
	}
	return c, nil
}

// PeriodFor converts a tick rate to a period.
func PeriodFor(ticksPerSecond int) time.Duration {
	if ticksPerSecond <= 0 {
		return 0
	}
	return time.Second / time.Duration(ticksPerSecond)
}

// OnTick subscribes fn to tick events. Cancel the returned subscription to stop.
func (c *Clock) OnTick(fn func(tick uint64) error) (bus.Subscription, error) {
	return c.bus.Subscribe(EventTick, func(ev bus.Event) error {
		return fn(ev.Data().(uint64))
	})
}

// OnUpdate subscribes fn to update events, which follow every tick event.
func (c *Clock) OnUpdate(fn func(kind UpdateKind, tick uint64) error) (bus.Subscription, error) {
	return c.bus.Subscribe(EventUpdate, func(ev bus.Event) error {
		u := ev.Data().(Update)
		return fn(u.Kind, u.Tick)
	})
}

// Time returns the current tick.
func (c *Clock) Time() uint64 { return c.time.Load() }

// SetTime moves the counter, e.g. to resume a restored world. It fails once
// the loop has started.
func (c *Clock) SetTime(tick uint64) error {
	if c.started.Load() {
		return ErrAlreadyRunning
	}
	c.time.Store(tick)
	return nil
}

func (c *Clock) Period() time.Duration { return c.period }

func (c *Clock) SetPaused(paused bool) { c.paused.Store(paused) }

func (c *Clock) Paused() bool { return c.paused.Load() }

// Run drives the loop on the calling goroutine until Close is called or ctx
// is done. It returns ErrAlreadyRunning if the loop was started before.
func (c *Clock) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(c.done)

	timer := time.NewTimer(c.period)
	timer.Stop()
	defer timer.Stop()

	for {
		if c.stopped.Load() || ctx.Err() != nil {
			return nil
		}

		wait := c.period
		if !c.paused.Load() {
			start := time.Now()
			c.advance()
			// an overrun starts the next tick at once without carrying debt
			if wait -= time.Since(start); wait <= 0 {
				continue
			}
		}

		timer.Reset(wait)
		select {
		case <-timer.C:
		case <-c.stop:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// Start runs the loop on a new goroutine.
func (c *Clock) Start() {
	go func() {
		if err := c.Run(context.Background()); err != nil {
			c.sink.PublishError(err)
		}
	}()
}

// Step advances one tick synchronously, regardless of the pause flag. It is
// meant for hosts driving the clock manually and must not race a running loop.
func (c *Clock) Step() uint64 {
	return c.advance()
}

func (c *Clock) advance() uint64 {
	tick := c.time.Add(1)
	c.report(c.bus.Publish(bus.NewEvent(EventTick, eventSource, tick)))
	c.report(c.bus.Publish(bus.NewEvent(EventUpdate, eventSource, Update{Kind: UpdateTicker, Tick: tick})))
	return tick
}

func (c *Clock) report(err error) {
	if err == nil {
		return
	}
	for _, de := range bus.DeliveryErrors(err) {
		c.sink.PublishError(de)
	}
}

// Close asks the loop to stop after the current tick. Done is closed once it
// has exited. Closing a clock that never ran closes Done immediately.
func (c *Clock) Close() error {
	c.stopped.Store(true)
	c.stopOnce.Do(func() { close(c.stop) })
	if c.started.CompareAndSwap(false, true) {
		close(c.done)
	}
	return nil
}

func (c *Clock) Done() <-chan struct{} { return c.done }
