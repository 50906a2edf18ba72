package proxy

import (
	"context"

	"github.com/jingkaihe/streamstat/pkg/stream"
)

// DefaultCaller identifies work done before any request context exists.
const DefaultCaller = "bootstrap"

// Op identifies the stream a handle-level hook fires for.
type Op struct {
	Path   string
	Mode   string
	Caller string
}

// Backend receives notifications for proxied operations. Hooks observe;
// they cannot change arguments or results. A panicking hook is recovered
// and ignored.
type Backend interface {
	// OnOpen runs before the native open, whether or not it succeeds.
	OnOpen(ctx context.Context, path, mode string)
	// OnStat runs after the native stat with its outcome.
	OnStat(ctx context.Context, path string, info stream.FileInfo, err error)
	// OnRead runs after a native read with the byte count it returned.
	OnRead(op Op, n int)
	// OnWrite runs before a native write with the length of the buffer.
	OnWrite(op Op, n int)
}

// NopBackend ignores every notification.
type NopBackend struct{}

func (NopBackend) OnOpen(context.Context, string, string)                 {}
func (NopBackend) OnStat(context.Context, string, stream.FileInfo, error) {}
func (NopBackend) OnRead(Op, int)                                         {}
func (NopBackend) OnWrite(Op, int)                                        {}

type callerKey struct{}

// WithCaller tags ctx with a caller identifier that hooks report.
func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom returns the identifier set by WithCaller, or DefaultCaller.
func CallerFrom(ctx context.Context) string {
	if ctx != nil {
		if c, ok := ctx.Value(callerKey{}).(string); ok && c != "" {
			return c
		}
	}
	return DefaultCaller
}
