package registry

import (
	"github.com/zeusync/simstore/internal/core/events/bus"
	"github.com/zeusync/simstore/internal/core/observability/log"
)

type Option func(*Registry)

// WithBus sets the bus lifecycle events are published on.
func WithBus(b bus.EventBus) Option {
	return func(r *Registry) { r.bus = b }
}

// WithSink sets the diagnostics sink. Nil selects the process default.
func WithSink(s *log.Sink) Option {
	return func(r *Registry) { r.sink = log.SinkOr(s) }
}
