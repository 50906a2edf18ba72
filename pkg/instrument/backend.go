package instrument

import (
	"context"

	"github.com/jingkaihe/streamstat/pkg/logging"
	"github.com/jingkaihe/streamstat/pkg/perf"
	"github.com/jingkaihe/streamstat/pkg/proxy"
	"github.com/jingkaihe/streamstat/pkg/stream"
)

// accounting turns proxy notifications into counter updates and, when the
// policy allows, events.
type accounting struct {
	inst *Instrument
}

func (a *accounting) OnOpen(ctx context.Context, path, mode string) {
	op := perf.OpWrite
	if stream.IsReadOnlyMode(mode) {
		op = perf.OpRead
	}
	a.record(op, path, 1, proxy.CallerFrom(ctx))
}

func (a *accounting) OnStat(ctx context.Context, path string, _ stream.FileInfo, err error) {
	op := perf.OpStat
	if err != nil {
		op = perf.OpMiss
	}
	a.record(op, path, 1, proxy.CallerFrom(ctx))
}

func (a *accounting) OnRead(op proxy.Op, n int) {
	a.record(perf.OpBytes, op.Path, uint64(max(n, 0)), op.Caller)
}

func (a *accounting) OnWrite(op proxy.Op, n int) {
	a.record(perf.OpBytes, op.Path, uint64(max(n, 0)), op.Caller)
}

func (a *accounting) record(op perf.Op, path string, amount uint64, caller string) {
	i := a.inst
	category := i.collector.Record(op, path, amount)
	if category == "" {
		return
	}
	entry, ok := i.evaluator.Entry(op, path, category, caller, 0)
	if !ok {
		return
	}
	err := i.emitter.Emit(i.eventType, entry.Line(), category, []string{i.name}, &logging.OperationData{
		Level:   entry.Level,
		Op:      op.String(),
		Path:    path,
		Caller:  caller,
		Context: entry.Context(),
	})
	if err != nil {
		i.logger.Debug("emit failed", "error", err)
	}
}
