// Package errx attaches context to sentinel errors while keeping them
// matchable with errors.Is.
package errx

import "fmt"

type wrapped struct {
	sentinel error
	cause    error
}

func (e *wrapped) Error() string {
	return e.sentinel.Error() + ": " + e.cause.Error()
}

func (e *wrapped) Unwrap() []error {
	return []error{e.sentinel, e.cause}
}

// Wrap returns an error that matches both sentinel and cause.
// A nil cause returns sentinel unchanged.
func Wrap(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return &wrapped{sentinel: sentinel, cause: cause}
}

type detailed struct {
	sentinel error
	detail   error
}

func (e *detailed) Error() string {
	return e.sentinel.Error() + e.detail.Error()
}

func (e *detailed) Unwrap() []error {
	return []error{e.sentinel, e.detail}
}

// With appends a formatted suffix to sentinel's message. The suffix is
// appended verbatim, so callers supply their own separator (": ...").
// Errors formatted with %w stay matchable with errors.Is.
func With(sentinel error, format string, args ...any) error {
	return &detailed{sentinel: sentinel, detail: fmt.Errorf(format, args...)}
}
