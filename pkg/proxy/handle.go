package proxy

import "github.com/jingkaihe/streamstat/pkg/stream"

// handle owns the native handle and the path it was opened with.
type handle struct {
	inner stream.Handle
	proxy *Proxy
	op    Op
}

func (h *handle) Read(p []byte) (int, error) {
	n, err := h.inner.Read(p)
	h.proxy.hook("read", func() { h.proxy.backend.OnRead(h.op, n) })
	return n, err
}

func (h *handle) Write(p []byte) (int, error) {
	h.proxy.hook("write", func() { h.proxy.backend.OnWrite(h.op, len(p)) })
	return h.inner.Write(p)
}

func (h *handle) Seek(offset int64, whence int) (int64, error) {
	return h.inner.Seek(offset, whence)
}

func (h *handle) Tell() (int64, error)           { return h.inner.Tell() }
func (h *handle) Truncate(size int64) error      { return h.inner.Truncate(size) }
func (h *handle) Flush() error                   { return h.inner.Flush() }
func (h *handle) Lock(op stream.LockOp) error    { return h.inner.Lock(op) }
func (h *handle) EOF() bool                      { return h.inner.EOF() }
func (h *handle) Stat() (stream.FileInfo, error) { return h.inner.Stat() }
func (h *handle) Cast() any                      { return h.inner.Cast() }
func (h *handle) Close() error                   { return h.inner.Close() }

// Path returns the path the handle was opened with.
func (h *handle) Path() string { return h.op.Path }

var _ stream.Handle = (*handle)(nil)
