// Package proxy implements a stream wrapper that forwards every primitive
// to the scheme's native wrapper and reports operations to a Backend.
package proxy

import (
	"context"
	"log/slog"
	"os"

	"github.com/jingkaihe/streamstat/pkg/stream"
)

// Proxy stands in for the native wrapper of one scheme.
type Proxy struct {
	registry *stream.Registry
	scheme   string
	backend  Backend
	logger   *slog.Logger
}

// Option configures a Proxy.
type Option func(*Proxy)

// WithLogger sets the logger used for recovered hook panics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Proxy) {
		if l != nil {
			p.logger = l
		}
	}
}

// New returns a proxy for scheme in registry. A nil backend behaves as
// NopBackend. The proxy is inert until Enable.
func New(registry *stream.Registry, scheme string, backend Backend, opts ...Option) *Proxy {
	if backend == nil {
		backend = NopBackend{}
	}
	p := &Proxy{
		registry: registry,
		scheme:   scheme,
		backend:  backend,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "proxy", "scheme", scheme)
	return p
}

// Scheme returns the scheme the proxy governs.
func (p *Proxy) Scheme() string { return p.scheme }

// Enable makes the proxy the current wrapper for its scheme, replacing
// whatever was registered. Enabling twice is harmless.
func (p *Proxy) Enable() error {
	return p.registry.Rebind(p.scheme, p)
}

// Disable puts the native wrapper back.
func (p *Proxy) Disable() error {
	return p.registry.Restore(p.scheme)
}

// native runs fn with the scheme's native wrapper current. The previous
// registration is restored when fn returns or panics.
func (p *Proxy) native(fn func(w stream.Wrapper) error) error {
	scope, err := p.registry.AcquireNative(p.scheme)
	if err != nil {
		return err
	}
	defer scope.Release()
	return fn(scope.Wrapper())
}

func (p *Proxy) hook(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Debug("hook panic recovered", "hook", name, "panic", r)
		}
	}()
	fn()
}

func (p *Proxy) Open(ctx context.Context, path, mode string) (stream.Handle, error) {
	p.hook("open", func() { p.backend.OnOpen(ctx, path, mode) })

	var h stream.Handle
	err := p.native(func(w stream.Wrapper) error {
		var err error
		h, err = w.Open(ctx, path, mode)
		return err
	})
	if err != nil {
		return h, err
	}
	return &handle{
		inner: h,
		proxy: p,
		op:    Op{Path: path, Mode: mode, Caller: CallerFrom(ctx)},
	}, nil
}

func (p *Proxy) Stat(ctx context.Context, path string, flags stream.StatFlags) (stream.FileInfo, error) {
	var info stream.FileInfo
	err := p.native(func(w stream.Wrapper) error {
		var err error
		info, err = w.Stat(ctx, path, flags)
		return err
	})
	p.hook("stat", func() { p.backend.OnStat(ctx, path, info, err) })
	return info, err
}

func (p *Proxy) OpenDir(ctx context.Context, path string) (stream.DirHandle, error) {
	var d stream.DirHandle
	err := p.native(func(w stream.Wrapper) error {
		var err error
		d, err = w.OpenDir(ctx, path)
		return err
	})
	return d, err
}

func (p *Proxy) Mkdir(ctx context.Context, path string, perm os.FileMode, recursive bool) error {
	return p.native(func(w stream.Wrapper) error {
		return w.Mkdir(ctx, path, perm, recursive)
	})
}

func (p *Proxy) Rmdir(ctx context.Context, path string) error {
	return p.native(func(w stream.Wrapper) error {
		return w.Rmdir(ctx, path)
	})
}

func (p *Proxy) Unlink(ctx context.Context, path string) error {
	return p.native(func(w stream.Wrapper) error {
		return w.Unlink(ctx, path)
	})
}

func (p *Proxy) Rename(ctx context.Context, from, to string) error {
	return p.native(func(w stream.Wrapper) error {
		return w.Rename(ctx, from, to)
	})
}

func (p *Proxy) SetMetadata(ctx context.Context, path string, meta stream.Metadata) error {
	return p.native(func(w stream.Wrapper) error {
		return w.SetMetadata(ctx, path, meta)
	})
}

var _ stream.Wrapper = (*Proxy)(nil)
