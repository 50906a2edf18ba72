package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"

	"github.com/jingkaihe/streamstat/internal/errx"
)

// JSONLWriter appends events to a file, one JSON object per line.
//
// Operation events are buffered; the buffer is flushed whenever a
// perf_snapshot event is written, on Flush and on Close, so a snapshot line
// is never on disk ahead of the operations it counts.
type JSONLWriter struct {
	mu      sync.Mutex
	file    *os.File
	buf     *bufio.Writer
	enc     *json.Encoder
	written uint64
}

// NewJSONLWriter opens path for appending, creating the file if needed.
// The parent directory must already exist.
func NewJSONLWriter(path string) (*JSONLWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errx.Wrap(ErrCreateLogFile, err)
	}
	buf := bufio.NewWriter(f)
	return &JSONLWriter{
		file: f,
		buf:  buf,
		enc:  json.NewEncoder(buf),
	}, nil
}

func (w *JSONLWriter) Write(event *Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(event); err != nil {
		return errx.Wrap(ErrWriteEvent, err)
	}
	w.written++
	if event.EventType == EventSnapshot {
		return w.flushLocked()
	}
	return nil
}

// Flush writes buffered events to the file.
func (w *JSONLWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

// Written reports how many events have been encoded.
func (w *JSONLWriter) Written() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

func (w *JSONLWriter) flushLocked() error {
	if err := w.buf.Flush(); err != nil {
		return errx.Wrap(ErrWriteEvent, err)
	}
	return nil
}

// Close flushes, syncs and closes the file.
func (w *JSONLWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	flushErr := w.flushLocked()
	_ = w.file.Sync()
	if err := w.file.Close(); err != nil {
		return errx.Wrap(ErrCloseWriter, err)
	}
	return flushErr
}
