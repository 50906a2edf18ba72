// Package logging carries instrumentation events from the accounting
// backends to their destinations, and builds the CLI's operational logger.
package logging

// Sink consumes events. Implementations must be safe for concurrent use
// and must not modify the event.
type Sink interface {
	Write(event *Event) error

	// Close flushes buffered data. Sinks that wrap a caller-owned writer
	// leave it open.
	Close() error
}

var (
	_ Sink = (*JSONLWriter)(nil)
	_ Sink = (*TextWriter)(nil)
	_ Sink = (*SlogSink)(nil)
)
