package stream

import (
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jingkaihe/streamstat/internal/errx"
)

// Registry maps URL schemes to wrappers. Each scheme has one native wrapper,
// fixed at RegisterNative time, and at most one current wrapper which
// receives dispatched calls.
//
// A Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]*binding
}

type binding struct {
	// window guards current. It is also held for the whole lifetime of a
	// NativeScope, so lookups never observe the temporarily restored
	// native wrapper.
	window  sync.Mutex
	native  Wrapper
	current Wrapper
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{bindings: make(map[string]*binding)}
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry, creating it with the native
// file, http and https wrappers on first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = NewRegistry()
		defaultReg.RegisterNative("file", NewFileWrapper())
		httpWrapper := NewHTTPWrapper(HTTPOptions{})
		defaultReg.RegisterNative("http", httpWrapper)
		defaultReg.RegisterNative("https", httpWrapper)
	})
	return defaultReg
}

// RegisterNative installs w as both the native and current wrapper for
// scheme, replacing any earlier binding.
func (r *Registry) RegisterNative(scheme string, w Wrapper) {
	scheme = normScheme(scheme)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[scheme] = &binding{native: w, current: w}
}

func (r *Registry) binding(scheme string) (*binding, error) {
	scheme = normScheme(scheme)
	r.mu.RLock()
	b, ok := r.bindings[scheme]
	r.mu.RUnlock()
	if !ok {
		return nil, errx.With(ErrUnknownScheme, " %q", scheme)
	}
	return b, nil
}

// Register makes w the current wrapper for scheme. It fails if another
// wrapper is already current; call Unregister first or use Rebind.
func (r *Registry) Register(scheme string, w Wrapper) error {
	b, err := r.binding(scheme)
	if err != nil {
		return err
	}
	b.window.Lock()
	defer b.window.Unlock()
	if b.current != nil {
		return errx.With(ErrSchemeRegistered, " %q", scheme)
	}
	b.current = w
	return nil
}

// Unregister removes the current wrapper for scheme. Dispatched calls fail
// with ErrNotRegistered until something is registered again.
func (r *Registry) Unregister(scheme string) error {
	b, err := r.binding(scheme)
	if err != nil {
		return err
	}
	b.window.Lock()
	defer b.window.Unlock()
	b.current = nil
	return nil
}

// Rebind unregisters whatever is current for scheme and registers w in its
// place, as one step.
func (r *Registry) Rebind(scheme string, w Wrapper) error {
	b, err := r.binding(scheme)
	if err != nil {
		return err
	}
	b.window.Lock()
	defer b.window.Unlock()
	b.current = w
	return nil
}

// Restore makes the native wrapper current again.
func (r *Registry) Restore(scheme string) error {
	b, err := r.binding(scheme)
	if err != nil {
		return err
	}
	b.window.Lock()
	defer b.window.Unlock()
	b.current = b.native
	return nil
}

// Lookup returns the current wrapper for scheme. It blocks while a
// NativeScope for the scheme is open.
func (r *Registry) Lookup(scheme string) (Wrapper, error) {
	b, err := r.binding(scheme)
	if err != nil {
		return nil, err
	}
	b.window.Lock()
	w := b.current
	b.window.Unlock()
	if w == nil {
		return nil, errx.With(ErrNotRegistered, " %q", scheme)
	}
	return w, nil
}

// Native returns the native wrapper for scheme.
func (r *Registry) Native(scheme string) (Wrapper, error) {
	b, err := r.binding(scheme)
	if err != nil {
		return nil, err
	}
	return b.native, nil
}

// Schemes lists the known schemes in sorted order.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.bindings))
	for s := range r.bindings {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// NativeScope is an exclusive window during which the native wrapper of a
// scheme is current. Release puts back whatever was current when the scope
// was acquired and ends the window; it must be deferred.
type NativeScope struct {
	b        *binding
	previous Wrapper
	released bool
}

// AcquireNative opens a native scope for scheme. Scopes for the same scheme
// are serialized; lookups for the scheme wait until the scope is released.
// The native wrapper must not dispatch back into the registry for the same
// scheme while the scope is held.
func (r *Registry) AcquireNative(scheme string) (*NativeScope, error) {
	b, err := r.binding(scheme)
	if err != nil {
		return nil, err
	}
	b.window.Lock()
	s := &NativeScope{b: b, previous: b.current}
	b.current = b.native
	return s, nil
}

// Wrapper returns the native wrapper the scope resolved.
func (s *NativeScope) Wrapper() Wrapper {
	return s.b.current
}

// Release restores the previous registration. Calling it more than once is
// a no-op.
func (s *NativeScope) Release() {
	if s.released {
		return
	}
	s.released = true
	s.b.current = s.previous
	s.b.window.Unlock()
}

// SchemeOf returns the lower-cased scheme of a URL, or "file" for plain paths.
func SchemeOf(path string) string {
	i := strings.Index(path, "://")
	if i <= 0 {
		return "file"
	}
	scheme := path[:i]
	for _, c := range scheme {
		if !isSchemeChar(c) {
			return "file"
		}
	}
	return normScheme(scheme)
}

func isSchemeChar(c rune) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'
}

func normScheme(s string) string {
	return strings.ToLower(s)
}

// LocalPath converts a plain path or file:// URL into an OS path.
func LocalPath(path string) (string, error) {
	if !strings.HasPrefix(strings.ToLower(path), "file://") {
		return path, nil
	}
	u, err := url.Parse(path)
	if err != nil {
		return "", errx.Wrap(ErrInvalidURL, err)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", errx.With(ErrInvalidURL, " %q: remote file host", path)
	}
	return filepath.FromSlash(u.Path), nil
}
