// sink.go defines the Sink interface for analytics event destinations.

package analytics

import "context"

// Sink is the destination for analytics events.
// Implementations must be safe for concurrent use.
type Sink interface {
	// Write accepts an event. Sinks that forward over the network should
	// buffer rather than block the caller.
	Write(ctx context.Context, event Event) error

	// SetCheckoutAttemptID pushes the current checkout attempt id to the
	// sink. An empty id means no attempt id is available.
	SetCheckoutAttemptID(id string)

	// Flush ensures any buffered events are delivered.
	// For synchronous sinks, this may be a no-op.
	Flush(ctx context.Context) error

	// Close releases resources held by the sink.
	// After Close is called, Write and Flush should return errors.
	Close() error
}

// Acknowledger is implemented by sinks that can tell how many events the
// destination has accepted so far.
type Acknowledger interface {
	Acknowledged() int64
}

// Reporter is the event entry point components report through.
// *Provider implements it.
type Reporter interface {
	AddInfo(event InfoEvent)
	AddLog(event LogEvent)
	AddError(event ErrorEvent)
}
