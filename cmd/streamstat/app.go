package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/streamstat/internal/errx"
	"github.com/jingkaihe/streamstat/pkg/config"
	"github.com/jingkaihe/streamstat/pkg/history"
	"github.com/jingkaihe/streamstat/pkg/instrument"
	"github.com/jingkaihe/streamstat/pkg/logging"
	"github.com/jingkaihe/streamstat/pkg/logpolicy"
	"github.com/jingkaihe/streamstat/pkg/stream"
)

// rootBindings ties persistent flags to config keys. Commands add their
// own on top.
var rootBindings = config.FlagBindings{
	"logging.level": "log-level",
}

// app is the per-invocation wiring: config, loggers, the stream registry
// and both instruments.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	runID    string
	registry *stream.Registry
	emitter  *logging.Emitter
	file     *instrument.Instrument
	http     *instrument.Instrument
	closers  []io.Closer
}

func newApp(cmd *cobra.Command, bindings config.FlagBindings) (*app, error) {
	path, _ := cmd.Flags().GetString("config")

	all := config.FlagBindings{}
	for k, v := range rootBindings {
		all[k] = v
	}
	for k, v := range bindings {
		all[k] = v
	}
	cfg, err := config.LoadWithFlags(path, cmd.Flags(), all)
	if err != nil {
		return nil, errx.Wrap(ErrLoadConfig, err)
	}

	a := &app{cfg: cfg, runID: uuid.New().String()}

	logOut, err := a.logOutput(cmd)
	if err != nil {
		return nil, err
	}
	a.logger, err = logging.NewLogger(logging.LoggerOptions{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: logOut,
	})
	if err != nil {
		a.close()
		return nil, errx.Wrap(ErrLoadConfig, err)
	}

	sinks := []logging.Sink{logging.NewSlogSink(a.logger, slog.LevelDebug)}
	if cfg.Events.Text {
		sinks = append(sinks, logging.NewTextWriter(cmd.ErrOrStderr()))
	}
	if cfg.Events.JSONLPath != "" {
		w, err := logging.NewJSONLWriter(cfg.Events.JSONLPath)
		if err != nil {
			a.close()
			return nil, errx.With(ErrOpenEventLog, ": %s: %w", cfg.Events.JSONLPath, err)
		}
		sinks = append(sinks, w)
	}
	a.emitter = logging.NewEmitter(logging.EmitterConfig{RunID: a.runID, Source: "streamstat"}, sinks...)

	settings, err := cfg.FileIOPolicy()
	if err != nil {
		a.close()
		return nil, errx.Wrap(ErrLoadConfig, err)
	}
	evaluator := logpolicy.New(settings)

	a.registry = stream.NewRegistry()
	a.registry.RegisterNative("file", stream.NewFileWrapper())
	httpWrapper := stream.NewHTTPWrapper(cfg.HTTPOptions())
	a.registry.RegisterNative("http", httpWrapper)
	a.registry.RegisterNative("https", httpWrapper)

	a.file = instrument.NewFile(instrument.Options{
		Registry:   a.registry,
		Classifier: cfg.FileClassifier(),
		Evaluator:  evaluator,
		Emitter:    a.emitter,
		Logger:     a.logger,
	})
	a.http = instrument.NewHTTP(instrument.Options{
		Registry:   a.registry,
		Schemes:    cfg.HTTP.Schemes,
		Classifier: cfg.HTTPClassifier(),
		Evaluator:  evaluator,
		Emitter:    a.emitter,
		Logger:     a.logger,
	})

	a.logger.Debug("streamstat starting", "run_id", a.runID, "command", cmd.Name())
	return a, nil
}

func (a *app) logOutput(cmd *cobra.Command) (io.Writer, error) {
	switch out := strings.TrimSpace(a.cfg.Logging.Output); out {
	case "", "stderr":
		return cmd.ErrOrStderr(), nil
	case "stdout":
		return cmd.OutOrStdout(), nil
	default:
		f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, errx.With(ErrOpenLogFile, ": %s: %w", out, err)
		}
		a.closers = append(a.closers, f)
		return f, nil
	}
}

func (a *app) instruments() []*instrument.Instrument {
	return []*instrument.Instrument{a.file, a.http}
}

// enable attaches both instruments to the registry.
func (a *app) enable() error {
	if err := a.file.Enable(); err != nil {
		return errx.Wrap(ErrEnable, err)
	}
	if err := a.http.Enable(); err != nil {
		_ = a.file.Disable()
		return errx.Wrap(ErrEnable, err)
	}
	return nil
}

// snapshot emits a perf_snapshot event per instrument and, when a history
// database is configured, stores the tables under the run id.
func (a *app) snapshot(ctx context.Context) error {
	var errs []error
	for _, inst := range a.instruments() {
		if err := inst.EmitSnapshot(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.cfg.History.DBPath == "" {
		return errors.Join(errs...)
	}

	store, err := history.Open(a.cfg.History.DBPath)
	if err != nil {
		return errors.Join(append(errs, errx.Wrap(ErrOpenHistory, err))...)
	}
	defer store.Close()

	now := time.Now()
	for _, inst := range a.instruments() {
		err := store.Save(ctx, history.Snapshot{
			RunID:      a.runID,
			Instrument: inst.Name(),
			TakenAt:    now,
			Categories: inst.PerfStats(),
		})
		if err != nil {
			errs = append(errs, errx.Wrap(ErrSaveHistory, err))
		}
	}
	return errors.Join(errs...)
}

func (a *app) openHistory() (*history.Store, error) {
	if a.cfg.History.DBPath == "" {
		return nil, ErrNoHistory
	}
	store, err := history.Open(a.cfg.History.DBPath)
	if err != nil {
		return nil, errx.Wrap(ErrOpenHistory, err)
	}
	return store, nil
}

// close detaches the instruments and releases sinks and log files.
func (a *app) close() {
	for _, inst := range a.instruments() {
		if inst != nil {
			if err := inst.Disable(); err != nil {
				a.logger.Debug("disable instrument", "instrument", inst.Name(), "error", err)
			}
		}
	}
	if a.emitter != nil {
		_ = a.emitter.Close()
	}
	for _, c := range a.closers {
		_ = c.Close()
	}
}
