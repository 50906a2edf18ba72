package logging

import (
	"io"
	"os"
	"sync"

	"github.com/jingkaihe/streamstat/internal/errx"
)

// TextWriter writes each event's summary as one line. For fileio and
// httpio events the summary is the FILEIO line.
type TextWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTextWriter writes to w, or to stderr when w is nil.
func NewTextWriter(w io.Writer) *TextWriter {
	if w == nil {
		w = os.Stderr
	}
	return &TextWriter{w: w}
}

func (t *TextWriter) Write(event *Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := io.WriteString(t.w, event.Summary+"\n"); err != nil {
		return errx.Wrap(ErrWriteEvent, err)
	}
	return nil
}

// Close is a no-op; the writer belongs to the caller.
func (t *TextWriter) Close() error { return nil }
