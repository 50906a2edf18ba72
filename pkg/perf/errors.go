package perf

import "errors"

var ErrUnknownOp = errors.New("perf: unknown operation")
