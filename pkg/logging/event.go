package logging

import (
	"encoding/json"
	"time"

	"github.com/jingkaihe/streamstat/pkg/perf"
)

// Event is the structured record written to every sink.
// Required fields: Timestamp, RunID, Source, EventType, Summary.
// Optional fields use omitempty tags.
type Event struct {
	Timestamp time.Time       `json:"ts"`
	RunID     string          `json:"run_id"`
	Source    string          `json:"source"`
	EventType string          `json:"event_type"`
	Summary   string          `json:"summary"`
	Category  string          `json:"category,omitempty"`
	Tags      []string        `json:"tags,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

const (
	EventFileIO   = "fileio"
	EventHTTPIO   = "httpio"
	EventSnapshot = "perf_snapshot"
)

// OperationData is the payload for fileio and httpio events. It carries
// the same fields as the FILEIO text line.
type OperationData struct {
	Level   int    `json:"level"`
	Op      string `json:"op"`
	Path    string `json:"path"`
	Caller  string `json:"caller"`
	Context string `json:"context"`
}

// SnapshotData is the payload for perf_snapshot events.
type SnapshotData struct {
	Instrument string                   `json:"instrument"`
	Categories map[string]perf.Counters `json:"categories"`
}
