package metrics

import "errors"

var (
	ErrListen   = errors.New("metrics: listen")
	ErrServe    = errors.New("metrics: serve")
	ErrShutdown = errors.New("metrics: shutdown")
)
