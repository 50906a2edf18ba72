package logging

import (
	"context"
	"log/slog"
)

// SlogSink forwards events to a slog logger at a fixed level.
type SlogSink struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlogSink forwards to logger, or slog.Default() when nil.
func NewSlogSink(logger *slog.Logger, level slog.Level) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger.With("component", "events"), level: level}
}

func (s *SlogSink) Write(event *Event) error {
	attrs := []slog.Attr{
		slog.String("event_type", event.EventType),
		slog.String("run_id", event.RunID),
	}
	if event.Category != "" {
		attrs = append(attrs, slog.String("category", event.Category))
	}
	if len(event.Data) > 0 {
		attrs = append(attrs, slog.String("data", string(event.Data)))
	}
	s.logger.LogAttrs(context.Background(), s.level, event.Summary, attrs...)
	return nil
}

func (s *SlogSink) Close() error { return nil }
