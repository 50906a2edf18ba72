package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/jingkaihe/streamstat/internal/errx"
)

const DefaultHTTPTimeout = 30 * time.Second

// HTTPOptions configures the native http(s) wrapper.
type HTTPOptions struct {
	// Client overrides the HTTP client. Timeout is ignored when set.
	Client    *http.Client
	Timeout   time.Duration
	UserAgent string
	// WriteMethod is used to send buffered writes on Close. Defaults to PUT.
	WriteMethod string
	Header      http.Header
}

// HTTPWrapper is the native wrapper for http and https URLs. Reading opens
// a GET and streams the body; writing buffers the body and sends it on
// Close. Stat issues a HEAD. Directory and rename-style operations are not
// supported.
type HTTPWrapper struct {
	client      *http.Client
	userAgent   string
	writeMethod string
	header      http.Header
}

var _ Wrapper = (*HTTPWrapper)(nil)

func NewHTTPWrapper(opts HTTPOptions) *HTTPWrapper {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultHTTPTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	method := opts.WriteMethod
	if method == "" {
		method = http.MethodPut
	}
	return &HTTPWrapper{
		client:      client,
		userAgent:   opts.UserAgent,
		writeMethod: method,
		header:      opts.Header.Clone(),
	}
}

func (w *HTTPWrapper) newRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, errx.Wrap(ErrInvalidURL, err)
	}
	for k, vs := range w.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if w.userAgent != "" {
		req.Header.Set("User-Agent", w.userAgent)
	}
	return req, nil
}

func (w *HTTPWrapper) Open(ctx context.Context, rawURL, mode string) (Handle, error) {
	if !IsReadOnlyMode(mode) {
		if _, err := ParseMode(mode); err != nil {
			return nil, err
		}
		if _, err := w.newRequest(ctx, w.writeMethod, rawURL, nil); err != nil {
			return nil, err
		}
		return &httpWriteHandle{w: w, ctx: ctx, url: rawURL}, nil
	}

	req, err := w.newRequest(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return nil, errx.Wrap(ErrHTTPRequest, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		resp.Body.Close()
		return nil, errx.With(ErrHTTPStatus, ": GET %s: %d", rawURL, resp.StatusCode)
	}
	return &httpReadHandle{resp: resp, url: rawURL}, nil
}

func (w *HTTPWrapper) Stat(ctx context.Context, rawURL string, _ StatFlags) (FileInfo, error) {
	req, err := w.newRequest(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return nil, errx.Wrap(ErrHTTPRequest, err)
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, &fs.PathError{Op: "stat", Path: rawURL, Err: fs.ErrNotExist}
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, errx.With(ErrHTTPStatus, ": HEAD %s: %d", rawURL, resp.StatusCode)
	}
	return responseInfo(resp, rawURL), nil
}

func (w *HTTPWrapper) OpenDir(context.Context, string) (DirHandle, error) {
	return nil, errx.With(ErrUnsupported, ": opendir over http")
}

func (w *HTTPWrapper) Mkdir(context.Context, string, os.FileMode, bool) error {
	return errx.With(ErrUnsupported, ": mkdir over http")
}

func (w *HTTPWrapper) Rmdir(context.Context, string) error {
	return errx.With(ErrUnsupported, ": rmdir over http")
}

func (w *HTTPWrapper) Unlink(context.Context, string) error {
	return errx.With(ErrUnsupported, ": unlink over http")
}

func (w *HTTPWrapper) Rename(context.Context, string, string) error {
	return errx.With(ErrUnsupported, ": rename over http")
}

func (w *HTTPWrapper) SetMetadata(context.Context, string, Metadata) error {
	return errx.With(ErrUnsupported, ": metadata over http")
}

func responseInfo(resp *http.Response, rawURL string) FileInfo {
	modTime := time.Time{}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			modTime = t
		}
	}
	size := resp.ContentLength
	if size < 0 {
		size = 0
	}
	name := path.Base(resp.Request.URL.Path)
	if name == "." || name == "/" {
		name = rawURL
	}
	return NewFileInfo(name, size, 0o444, modTime, false)
}

type httpReadHandle struct {
	resp *http.Response
	url  string
	pos  int64
	eof  bool
}

func (h *httpReadHandle) Read(p []byte) (int, error) {
	n, err := h.resp.Body.Read(p)
	h.pos += int64(n)
	if errors.Is(err, io.EOF) {
		h.eof = true
	}
	return n, err
}

func (h *httpReadHandle) Write([]byte) (int, error) {
	return 0, errx.With(ErrUnsupported, ": write on read-only http stream")
}

func (h *httpReadHandle) Seek(offset int64, whence int) (int64, error) {
	if offset == 0 && whence == io.SeekCurrent {
		return h.pos, nil
	}
	return h.pos, errx.With(ErrUnsupported, ": seek on http stream")
}

func (h *httpReadHandle) Tell() (int64, error) { return h.pos, nil }

func (h *httpReadHandle) Truncate(int64) error {
	return errx.With(ErrUnsupported, ": truncate on http stream")
}

func (h *httpReadHandle) Flush() error { return nil }

func (h *httpReadHandle) Lock(op LockOp) error {
	if op == 0 {
		return nil
	}
	return errx.With(ErrUnsupported, ": lock on http stream")
}

func (h *httpReadHandle) EOF() bool { return h.eof }

func (h *httpReadHandle) Stat() (FileInfo, error) {
	return responseInfo(h.resp, h.url), nil
}

func (h *httpReadHandle) Cast() any { return h.resp }

func (h *httpReadHandle) Close() error {
	return h.resp.Body.Close()
}

// httpWriteHandle buffers the request body until Close. The context given
// to Open is kept because the request is only sent then.
type httpWriteHandle struct {
	w      *HTTPWrapper
	ctx    context.Context
	url    string
	buf    bytes.Buffer
	resp   *http.Response
	closed bool
}

func (h *httpWriteHandle) Read([]byte) (int, error) {
	return 0, errx.With(ErrUnsupported, ": read on write-only http stream")
}

func (h *httpWriteHandle) Write(p []byte) (int, error) {
	if h.closed {
		return 0, os.ErrClosed
	}
	return h.buf.Write(p)
}

func (h *httpWriteHandle) Seek(offset int64, whence int) (int64, error) {
	if offset == 0 && whence == io.SeekCurrent {
		return int64(h.buf.Len()), nil
	}
	return int64(h.buf.Len()), errx.With(ErrUnsupported, ": seek on http stream")
}

func (h *httpWriteHandle) Tell() (int64, error) { return int64(h.buf.Len()), nil }

func (h *httpWriteHandle) Truncate(size int64) error {
	if size < 0 || size > int64(h.buf.Len()) {
		return errx.With(ErrUnsupported, ": truncate beyond buffered body")
	}
	h.buf.Truncate(int(size))
	return nil
}

func (h *httpWriteHandle) Flush() error { return nil }

func (h *httpWriteHandle) Lock(op LockOp) error {
	if op == 0 {
		return nil
	}
	return errx.With(ErrUnsupported, ": lock on http stream")
}

func (h *httpWriteHandle) EOF() bool { return false }

func (h *httpWriteHandle) Stat() (FileInfo, error) {
	return NewFileInfo(path.Base(h.url), int64(h.buf.Len()), 0o200, time.Time{}, false), nil
}

func (h *httpWriteHandle) Cast() any { return h.resp }

func (h *httpWriteHandle) Close() error {
	if h.closed {
		return os.ErrClosed
	}
	h.closed = true

	req, err := h.w.newRequest(h.ctx, h.w.writeMethod, h.url, bytes.NewReader(h.buf.Bytes()))
	if err != nil {
		return err
	}
	resp, err := h.w.client.Do(req)
	if err != nil {
		return errx.Wrap(ErrHTTPRequest, err)
	}
	h.resp = resp
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return errx.With(ErrHTTPStatus, ": %s %s: %d", h.w.writeMethod, h.url, resp.StatusCode)
	}
	return nil
}
