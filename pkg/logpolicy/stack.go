package logpolicy

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

const modulePrefix = "github.com/jingkaihe/streamstat/pkg/"

// internalPackages are skipped when looking for the code that started an
// operation.
var internalPackages = []string{
	"classify",
	"instrument",
	"logging",
	"logpolicy",
	"perf",
	"proxy",
	"stream",
}

// stdlibHelpers are generic I/O helpers that sit between the application
// and the stream it reads.
var stdlibHelpers = []string{
	"bufio.",
	"io.",
	"io/ioutil.",
}

// Frame is one call site.
type Frame struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

func (f Frame) String() string {
	return fmt.Sprintf("%s:%d %s", filepath.Base(f.File), f.Line, shortFunc(f.Function))
}

// Capture returns up to StackDepth frames above the caller, skipping skip
// additional frames and any frame inside the instrumentation packages.
func (e *Evaluator) Capture(skip int) []Frame {
	return captureFrames(skip+1, e.StackDepth())
}

func captureFrames(skip, depth int) []Frame {
	if depth < 1 {
		depth = 1
	}
	pcs := make([]uintptr, 64)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	out := make([]Frame, 0, depth)
	for len(out) < depth {
		f, more := frames.Next()
		if f.Function != "" && !isInternal(f) {
			out = append(out, Frame{Function: f.Function, File: f.File, Line: f.Line})
		}
		if !more {
			break
		}
	}
	return out
}

func isInternal(f runtime.Frame) bool {
	if strings.HasSuffix(f.File, "_test.go") {
		return false
	}
	if strings.HasPrefix(f.Function, "runtime.") {
		return true
	}
	for _, p := range stdlibHelpers {
		if strings.HasPrefix(f.Function, p) {
			return true
		}
	}
	if !strings.HasPrefix(f.Function, modulePrefix) {
		return false
	}
	rest := f.Function[len(modulePrefix):]
	for _, pkg := range internalPackages {
		if strings.HasPrefix(rest, pkg+".") {
			return true
		}
	}
	return false
}

func shortFunc(fn string) string {
	if i := strings.LastIndexByte(fn, '/'); i >= 0 {
		return fn[i+1:]
	}
	return fn
}

// FormatFrames renders frames on one line, innermost first.
func FormatFrames(frames []Frame) string {
	parts := make([]string, len(frames))
	for i, f := range frames {
		parts[i] = f.String()
	}
	return strings.Join(parts, " <- ")
}
