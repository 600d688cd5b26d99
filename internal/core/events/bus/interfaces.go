package bus

import "time"

// EventBus is an in-process pub/sub used for clock ticks and entity lifecycle
// notifications.
//
// - Delivery is synchronous on the publisher's goroutine.
// - Handlers run in subscription order.
// - A failing or panicking handler does not stop later handlers; all failures
//   are joined into the error returned from Publish.
// - All methods are safe for concurrent use.
type EventBus interface {
	// Publish delivers the event to all active subscribers of event.Type().
	Publish(event Event) error
	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. It is safe to call with nil.
	Unsubscribe(Subscription) error
	// PublishAsync publishes in a separate goroutine and returns a channel that
	// receives the joined error (or nil) and is then closed.
	PublishAsync(event Event) <-chan error
	// Subscribers returns the number of active handlers for eventType.
	Subscribers(eventType string) int
}

// Event is an immutable message transported by the EventBus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

// EventHandler is invoked per delivered event.
type EventHandler func(event Event) error

// Subscription represents a registered handler bound to an event type.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}
