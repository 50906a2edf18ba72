package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextWriter_WritesSummaryLines(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf)

	require.NoError(t, w.Write(fileIOEvent("FILEIO [1] write /srv/data/a bootstrap main.go:3 main.main")))
	require.NoError(t, w.Write(fileIOEvent("FILEIO [5] bytes /srv/data/a bootstrap main.go:4 main.main")))
	require.NoError(t, w.Close())

	assert.Equal(t,
		"FILEIO [1] write /srv/data/a bootstrap main.go:3 main.main\n"+
			"FILEIO [5] bytes /srv/data/a bootstrap main.go:4 main.main\n",
		buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestTextWriter_WriteError(t *testing.T) {
	w := NewTextWriter(failingWriter{})
	assert.ErrorIs(t, w.Write(fileIOEvent("x")), ErrWriteEvent)
}

func TestTextWriter_ConcurrentLinesIntact(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = w.Write(fileIOEvent("FILEIO [3] read /srv/data/a bootstrap"))
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 50)
	for _, l := range lines {
		assert.Equal(t, "FILEIO [3] read /srv/data/a bootstrap", l)
	}
}

func TestSlogSink_ForwardsAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sink := NewSlogSink(logger, slog.LevelDebug)

	event := fileIOEvent("FILEIO [2] miss /srv/data/x bootstrap")
	event.Category = "dataroot"
	event.Data = json.RawMessage(`{"level":2}`)
	require.NoError(t, sink.Write(event))
	require.NoError(t, sink.Close())

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "DEBUG", rec["level"])
	assert.Equal(t, "FILEIO [2] miss /srv/data/x bootstrap", rec["msg"])
	assert.Equal(t, "events", rec["component"])
	assert.Equal(t, EventFileIO, rec["event_type"])
	assert.Equal(t, "test-run", rec["run_id"])
	assert.Equal(t, "dataroot", rec["category"])
	assert.Equal(t, `{"level":2}`, rec["data"])
}

func TestSlogSink_RespectsHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	sink := NewSlogSink(logger, slog.LevelDebug)

	require.NoError(t, sink.Write(fileIOEvent("hidden")))
	assert.Empty(t, buf.String())
}
