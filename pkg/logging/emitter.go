package logging

import (
	"encoding/json"
	"time"

	"github.com/jingkaihe/streamstat/internal/errx"
)

// EmitterConfig holds the static metadata stamped onto every event.
type EmitterConfig struct {
	RunID  string // Caller-supplied; the CLI uses a fresh UUID per invocation
	Source string // Process or tool name, e.g. "streamstat"
}

// Emitter builds events and dispatches them to one or more sinks.
// A nil *Emitter drops everything.
type Emitter struct {
	config EmitterConfig
	sinks  []Sink
	now    func() time.Time
}

// NewEmitter creates an emitter with the given configuration and sinks.
func NewEmitter(cfg EmitterConfig, sinks ...Sink) *Emitter {
	return &Emitter{
		config: cfg,
		sinks:  sinks,
		now:    time.Now,
	}
}

// RunID returns the run identifier stamped on events.
func (e *Emitter) RunID() string {
	if e == nil {
		return ""
	}
	return e.config.RunID
}

// Emit constructs an event with the emitter's static metadata and writes
// it to all registered sinks.
//
// Parameters:
//   - eventType: one of the Event* constants (e.g., EventFileIO)
//   - summary: human-readable one-line summary
//   - category: the path category the event concerns (may be empty)
//   - tags: optional tags for filtering (nil is fine)
//   - data: the typed payload (e.g., *OperationData); nil for no payload
//
// Returns the first error encountered. Instrumentation callers discard it.
func (e *Emitter) Emit(eventType, summary, category string, tags []string, data any) error {
	if e == nil {
		return nil
	}
	var rawData json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return errx.Wrap(ErrMarshalData, err)
		}
		rawData = b
	}

	event := &Event{
		Timestamp: e.now().UTC(),
		RunID:     e.config.RunID,
		Source:    e.config.Source,
		EventType: eventType,
		Summary:   summary,
		Category:  category,
		Tags:      tags,
		Data:      rawData,
	}

	for _, sink := range e.sinks {
		if err := sink.Write(event); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all sinks. Returns the first error encountered.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	var firstErr error
	for _, sink := range e.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
