// Package instrument counts and logs I/O that flows through the stream
// layer. NewFile governs local files, NewHTTP governs outbound HTTP.
package instrument

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jingkaihe/streamstat/pkg/classify"
	"github.com/jingkaihe/streamstat/pkg/logging"
	"github.com/jingkaihe/streamstat/pkg/logpolicy"
	"github.com/jingkaihe/streamstat/pkg/perf"
	"github.com/jingkaihe/streamstat/pkg/proxy"
	"github.com/jingkaihe/streamstat/pkg/stream"
)

// Options configures an Instrument. Zero values pick defaults.
type Options struct {
	// Registry defaults to stream.Default().
	Registry *stream.Registry
	// Schemes overrides the governed schemes.
	Schemes []string
	// Classifier defaults to everything-is-other for files and the URL
	// host for HTTP.
	Classifier classify.Classifier
	// Evaluator defaults to logpolicy.NewFromEnv().
	Evaluator *logpolicy.Evaluator
	// Emitter receives entries that pass the policy. Defaults to a text
	// sink on stderr.
	Emitter *logging.Emitter
	Logger  *slog.Logger
}

// Instrument owns one counters table and the proxies for its schemes.
type Instrument struct {
	name      string
	eventType string
	registry  *stream.Registry
	schemes   []string
	proxies   []*proxy.Proxy
	collector *perf.Collector
	evaluator *logpolicy.Evaluator
	emitter   *logging.Emitter
	logger    *slog.Logger
}

// NewFile returns the filesystem instrument, governing "file" unless
// opts.Schemes says otherwise.
func NewFile(opts Options) *Instrument {
	if len(opts.Schemes) == 0 {
		opts.Schemes = []string{"file"}
	}
	if opts.Classifier == nil {
		opts.Classifier = classify.Fixed(classify.DefaultFallback)
	}
	return newInstrument("file", logging.EventFileIO, opts)
}

// NewHTTP returns the outbound HTTP instrument, governing "https" unless
// opts.Schemes says otherwise.
func NewHTTP(opts Options) *Instrument {
	if len(opts.Schemes) == 0 {
		opts.Schemes = []string{"https"}
	}
	if opts.Classifier == nil {
		opts.Classifier = classify.Host{}
	}
	return newInstrument("http", logging.EventHTTPIO, opts)
}

func newInstrument(name, eventType string, opts Options) *Instrument {
	if opts.Registry == nil {
		opts.Registry = stream.Default()
	}
	if opts.Evaluator == nil {
		opts.Evaluator = logpolicy.NewFromEnv()
	}
	if opts.Emitter == nil {
		opts.Emitter = logging.NewEmitter(logging.EmitterConfig{Source: "streamstat"}, logging.NewTextWriter(nil))
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	i := &Instrument{
		name:      name,
		eventType: eventType,
		registry:  opts.Registry,
		schemes:   append([]string(nil), opts.Schemes...),
		collector: perf.NewCollector(opts.Classifier),
		evaluator: opts.Evaluator,
		emitter:   opts.Emitter,
		logger:    opts.Logger.With("component", "instrument", "instrument", name),
	}
	backend := &accounting{inst: i}
	for _, scheme := range i.schemes {
		i.proxies = append(i.proxies, proxy.New(i.registry, scheme, backend, proxy.WithLogger(opts.Logger)))
	}
	return i
}

// Name is "file" or "http".
func (i *Instrument) Name() string { return i.name }

// Schemes lists the governed schemes.
func (i *Instrument) Schemes() []string {
	return append([]string(nil), i.schemes...)
}

// Enable routes every governed scheme through the instrument. If any
// scheme fails, the ones already enabled are restored.
func (i *Instrument) Enable() error {
	for n, p := range i.proxies {
		if err := p.Enable(); err != nil {
			for _, done := range i.proxies[:n] {
				_ = done.Disable()
			}
			return err
		}
	}
	i.logger.Debug("enabled", "schemes", i.schemes)
	return nil
}

// Disable restores the native wrapper of every governed scheme.
func (i *Instrument) Disable() error {
	var errs []error
	for _, p := range i.proxies {
		if err := p.Disable(); err != nil {
			errs = append(errs, err)
		}
	}
	i.logger.Debug("disabled", "schemes", i.schemes)
	return errors.Join(errs...)
}

// PerfStats returns a copy of the counters table.
func (i *Instrument) PerfStats() map[string]perf.Counters {
	return i.collector.Snapshot()
}

// Reset clears the counters table.
func (i *Instrument) Reset() {
	i.collector.Reset()
}

// Collector exposes the underlying table for exporters.
func (i *Instrument) Collector() *perf.Collector {
	return i.collector
}

// EmitSnapshot writes the current table as a perf_snapshot event.
func (i *Instrument) EmitSnapshot() error {
	return i.emitter.Emit(logging.EventSnapshot, "perf snapshot "+i.name, "", []string{i.name},
		&logging.SnapshotData{Instrument: i.name, Categories: i.PerfStats()})
}

// WithCaller tags ctx with the identifier logged as the operation's caller,
// typically the request or script being served.
func WithCaller(ctx context.Context, caller string) context.Context {
	return proxy.WithCaller(ctx, caller)
}

// CallerFrom returns the caller set by WithCaller, or "bootstrap".
func CallerFrom(ctx context.Context) string {
	return proxy.CallerFrom(ctx)
}
