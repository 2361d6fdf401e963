// Package dispatch provides the bounded outbound queue shared by every module
// binding and drained by a single transport worker.
//
// The queue is the only serialisation point for writes to the bus. Any number
// of producers may call Send concurrently; exactly one consumer calls Receive.
// Items leave in the order they entered, so each producer's own commands keep
// their order while different producers interleave by arrival.
//
// # Backpressure
//
// When the queue is at capacity, Send follows the configured Policy:
//
//   - Block: the caller waits for space, context cancellation, or Close
//   - Reject: the call fails at once with ErrQueueFull
//
// # Usage
//
//	q := dispatch.New[module.Command](dispatch.Options{Capacity: 256, Policy: dispatch.Reject})
//	if err := q.Send(ctx, cmd); errors.Is(err, dispatch.ErrQueueFull) {
//	    // caller may back off and retry
//	}
//
//	// consumer
//	for {
//	    cmd, err := q.Receive(ctx)
//	    if err != nil {
//	        return err
//	    }
//	    publish(cmd)
//	}
package dispatch
