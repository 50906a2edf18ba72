package logging

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/streamstat/pkg/perf"
)

func TestEvent_JSONFieldNames(t *testing.T) {
	event := &Event{
		Timestamp: time.Date(2026, 10, 14, 14, 30, 0, 123000000, time.UTC),
		RunID:     "0b7c5a52-2f0e-4d9b-9d8e-5d1c7c0f9a11",
		Source:    "streamstat",
		EventType: EventFileIO,
		Summary:   "FILEIO [3] read /srv/data/a bootstrap",
	}
	b, err := json.Marshal(event)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))

	assert.Contains(t, m, "ts")
	assert.Contains(t, m, "run_id")
	assert.Contains(t, m, "source")
	assert.Contains(t, m, "event_type")
	assert.Contains(t, m, "summary")
	// Omitempty fields absent
	assert.NotContains(t, m, "category")
	assert.NotContains(t, m, "tags")
	assert.NotContains(t, m, "data")
}

func TestEvent_OmitemptyPresent(t *testing.T) {
	event := &Event{
		Timestamp: time.Now().UTC(),
		RunID:     "test",
		Source:    "test",
		EventType: EventHTTPIO,
		Summary:   "test",
		Category:  "api.example.com",
		Tags:      []string{"https"},
		Data:      json.RawMessage(`{"op":"bytes"}`),
	}
	b, err := json.Marshal(event)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))

	assert.Contains(t, m, "category")
	assert.Contains(t, m, "tags")
	assert.Contains(t, m, "data")
}

func TestEvent_TimestampFormat(t *testing.T) {
	ts := time.Date(2026, 10, 14, 14, 30, 0, 123456789, time.UTC)
	event := &Event{Timestamp: ts, RunID: "r", Source: "a", EventType: "t", Summary: "s"}

	b, err := json.Marshal(event)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))
	tsStr := m["ts"].(string)
	parsed, err := time.Parse(time.RFC3339Nano, tsStr)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(ts))
}

func TestOperationData_FieldsAlwaysPresent(t *testing.T) {
	b, err := json.Marshal(&OperationData{Op: "miss"})
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))
	for _, key := range []string{"level", "op", "path", "caller", "context"} {
		assert.Contains(t, m, key)
	}
}

func TestSnapshotData_Shape(t *testing.T) {
	b, err := json.Marshal(&SnapshotData{
		Instrument: "file",
		Categories: map[string]perf.Counters{"dataroot": {Read: 3, Bytes: 500}},
	})
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"instrument":"file","categories":{"dataroot":{"miss":0,"stat":0,"read":3,"write":0,"bytes":500}}}`,
		string(b))
}

func TestEventTypeConstants(t *testing.T) {
	assert.Equal(t, "fileio", EventFileIO)
	assert.Equal(t, "httpio", EventHTTPIO)
	assert.Equal(t, "perf_snapshot", EventSnapshot)
}
