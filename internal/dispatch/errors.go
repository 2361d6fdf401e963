package dispatch

import "errors"

// Domain errors for the dispatch package.
var (
	// ErrQueueFull is returned by Send under the Reject policy when the queue
	// is at capacity. Callers may retry after backing off.
	ErrQueueFull = errors.New("dispatch: queue full")

	// ErrQueueClosed is returned once Close has been called.
	ErrQueueClosed = errors.New("dispatch: queue closed")

	// ErrInvalidPolicy is returned when parsing an unknown policy name.
	ErrInvalidPolicy = errors.New("dispatch: invalid backpressure policy")
)
