package bus

import (
	"errors"
	"fmt"
)

var (
	ErrNilHandler   = errors.New("event handler is nil")
	ErrHandlerPanic = errors.New("event handler panicked")
)

// DeliveryError identifies the subscription that failed to handle an event.
type DeliveryError struct {
	SubscriptionID string
	EventType      string
	Err            error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver %q to %s: %v", e.EventType, e.SubscriptionID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// DeliveryErrors splits an error returned by Publish into its per-handler parts.
func DeliveryErrors(err error) []*DeliveryError {
	if err == nil {
		return nil
	}
	var out []*DeliveryError
	var walk func(error)
	walk = func(e error) {
		if de, ok := e.(*DeliveryError); ok {
			out = append(out, de)
			return
		}
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner)
			}
		}
	}
	walk(err)
	return out
}
