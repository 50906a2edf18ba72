package logpolicy

import (
	"fmt"

	"github.com/jingkaihe/streamstat/pkg/perf"
)

// Entry is one operation that passed the threshold.
type Entry struct {
	Level    int
	Op       perf.Op
	Path     string
	Category string
	Caller   string
	Frames   []Frame
}

// Context is the formatted call-site stack.
func (e Entry) Context() string {
	return FormatFrames(e.Frames)
}

// Line formats the entry as "FILEIO [level] op path caller context".
func (e Entry) Line() string {
	return fmt.Sprintf("FILEIO [%d] %s %s %s %s", e.Level, e.Op, e.Path, e.Caller, e.Context())
}

// Entry builds an Entry for op if it passes the threshold, capturing the
// call site above skip frames of the caller.
func (e *Evaluator) Entry(op perf.Op, path, category, caller string, skip int) (Entry, bool) {
	l, ok := e.ShouldLog(op, category)
	if !ok {
		return Entry{}, false
	}
	return Entry{
		Level:    l,
		Op:       op,
		Path:     path,
		Category: category,
		Caller:   caller,
		Frames:   captureFrames(skip+1, e.StackDepth()),
	}, true
}
