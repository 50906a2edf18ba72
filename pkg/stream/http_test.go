package stream

import (
	"context"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	path   string
	body   string
	agent  string
}

func newTestServer(t *testing.T) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recordedRequest{method: r.Method, path: r.URL.Path, body: string(body), agent: r.UserAgent()})
		mu.Unlock()

		switch r.URL.Path {
		case "/recipes.json":
			w.Header().Set("Last-Modified", "Mon, 02 Jan 2006 15:04:05 GMT")
			w.Header().Set("Content-Length", "13")
			w.WriteHeader(http.StatusOK)
			if r.Method != http.MethodHead {
				_, _ = w.Write([]byte(`{"results":1}`))
			}
		case "/upload":
			w.WriteHeader(http.StatusCreated)
		case "/forbidden":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), reqs...)
	}
}

func TestHTTPWrapper_Read(t *testing.T) {
	srv, requests := newTestServer(t)
	w := NewHTTPWrapper(HTTPOptions{UserAgent: "streamstat-test"})

	h, err := w.Open(context.Background(), srv.URL+"/recipes.json", "r")
	require.NoError(t, err)
	data, err := io.ReadAll(h)
	require.NoError(t, err)
	assert.Equal(t, `{"results":1}`, string(data))
	assert.True(t, h.EOF())

	pos, err := h.Tell()
	require.NoError(t, err)
	assert.Equal(t, int64(13), pos)

	_, err = h.Seek(0, io.SeekStart)
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = h.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrUnsupported)

	info, err := h.Stat()
	require.NoError(t, err)
	assert.Equal(t, "recipes.json", info.Name())
	assert.IsType(t, &http.Response{}, h.Cast())
	require.NoError(t, h.Close())

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].method)
	assert.Equal(t, "streamstat-test", reqs[0].agent)
}

func TestHTTPWrapper_OpenErrorStatus(t *testing.T) {
	srv, _ := newTestServer(t)
	w := NewHTTPWrapper(HTTPOptions{})

	_, err := w.Open(context.Background(), srv.URL+"/missing", "rb")
	assert.ErrorIs(t, err, ErrHTTPStatus)
}

func TestHTTPWrapper_Stat(t *testing.T) {
	srv, requests := newTestServer(t)
	w := NewHTTPWrapper(HTTPOptions{})
	ctx := context.Background()

	info, err := w.Stat(ctx, srv.URL+"/recipes.json", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(13), info.Size())
	assert.Equal(t, 2006, info.ModTime().Year())

	_, err = w.Stat(ctx, srv.URL+"/missing", StatQuiet)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = w.Stat(ctx, srv.URL+"/forbidden", 0)
	assert.ErrorIs(t, err, ErrHTTPStatus)

	for _, r := range requests() {
		assert.Equal(t, http.MethodHead, r.method)
	}
}

func TestHTTPWrapper_WriteSendsOnClose(t *testing.T) {
	srv, requests := newTestServer(t)
	w := NewHTTPWrapper(HTTPOptions{})

	h, err := w.Open(context.Background(), srv.URL+"/upload", "w")
	require.NoError(t, err)
	_, err = h.Write([]byte("hello "))
	require.NoError(t, err)
	_, err = h.Write([]byte("there"))
	require.NoError(t, err)
	assert.Empty(t, requests(), "nothing is sent before Close")

	require.NoError(t, h.Close())
	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].method)
	assert.Equal(t, "hello there", reqs[0].body)

	assert.ErrorIs(t, h.Close(), fs.ErrClosed)
}

func TestHTTPWrapper_WriteErrorStatus(t *testing.T) {
	srv, _ := newTestServer(t)
	w := NewHTTPWrapper(HTTPOptions{WriteMethod: http.MethodPost})

	h, err := w.Open(context.Background(), srv.URL+"/forbidden", "a")
	require.NoError(t, err)
	assert.ErrorIs(t, h.Close(), ErrHTTPStatus)
}

func TestHTTPWrapper_Unsupported(t *testing.T) {
	w := NewHTTPWrapper(HTTPOptions{})
	ctx := context.Background()
	u := "https://example.invalid/x"

	_, err := w.OpenDir(ctx, u)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.ErrorIs(t, w.Mkdir(ctx, u, 0o755, false), ErrUnsupported)
	assert.ErrorIs(t, w.Rmdir(ctx, u), ErrUnsupported)
	assert.ErrorIs(t, w.Unlink(ctx, u), ErrUnsupported)
	assert.ErrorIs(t, w.Rename(ctx, u, u+"2"), ErrUnsupported)
	assert.ErrorIs(t, w.SetMetadata(ctx, u, Metadata{Option: MetaTouch}), ErrUnsupported)
}
