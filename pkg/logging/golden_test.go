package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_GoldenFull(t *testing.T) {
	event := &Event{
		Timestamp: time.Date(2026, 10, 14, 14, 30, 0, 123000000, time.UTC),
		RunID:     "0b7c5a52-2f0e-4d9b-9d8e-5d1c7c0f9a11",
		Source:    "streamstat",
		EventType: EventFileIO,
		Summary:   "FILEIO [12] miss /var/cache/app/x.json cli main.go:40 main.run",
		Category:  "cache",
		Tags:      []string{"file"},
		Data:      json.RawMessage(`{"level":12,"op":"miss","path":"/var/cache/app/x.json","caller":"cli","context":"main.go:40 main.run"}`),
	}

	got, err := json.Marshal(event)
	require.NoError(t, err)

	goldenPath := filepath.Join("testdata", "event_full.golden")
	if os.Getenv("UPDATE_GOLDEN") != "" {
		os.MkdirAll("testdata", 0755)
		os.WriteFile(goldenPath, append(got, '\n'), 0644)
		t.Skip("golden file updated")
	}

	expected, err := os.ReadFile(goldenPath)
	require.NoError(t, err, "golden file missing; run with UPDATE_GOLDEN=1 to create")

	assert.JSONEq(t, string(expected), string(got))
}

func TestEvent_GoldenMinimal(t *testing.T) {
	event := &Event{
		Timestamp: time.Date(2026, 10, 14, 14, 30, 0, 0, time.UTC),
		RunID:     "run-a1b2c3d4",
		Source:    "streamstat",
		EventType: EventSnapshot,
		Summary:   "perf snapshot file",
	}

	got, err := json.Marshal(event)
	require.NoError(t, err)

	goldenPath := filepath.Join("testdata", "event_minimal.golden")
	if os.Getenv("UPDATE_GOLDEN") != "" {
		os.MkdirAll("testdata", 0755)
		os.WriteFile(goldenPath, append(got, '\n'), 0644)
		t.Skip("golden file updated")
	}

	expected, err := os.ReadFile(goldenPath)
	require.NoError(t, err, "golden file missing; run with UPDATE_GOLDEN=1 to create")

	assert.JSONEq(t, string(expected), string(got))
}
