package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jingkaihe/streamstat/pkg/perf"
)

const namespace = "streamstat"

// Source is anything with a perf snapshot, such as *instrument.Instrument.
type Source interface {
	Name() string
	PerfStats() map[string]perf.Counters
}

// PerfCollector reads snapshots at scrape time, so counters are never
// duplicated into Prometheus state.
type PerfCollector struct {
	sources []Source
	ops     *prometheus.Desc
	bytes   *prometheus.Desc
	cats    *prometheus.Desc
}

// NewPerfCollector collects from sources.
func NewPerfCollector(sources ...Source) *PerfCollector {
	return &PerfCollector{
		sources: sources,
		ops: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "operations_total"),
			"Accounted stream operations by instrument, category and operation.",
			[]string{"instrument", "category", "op"}, nil,
		),
		bytes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "bytes_total"),
			"Bytes read or written through instrumented streams.",
			[]string{"instrument", "category"}, nil,
		),
		cats: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "categories"),
			"Number of categories with at least one accounted operation.",
			[]string{"instrument"}, nil,
		),
	}
}

func (c *PerfCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.ops
	ch <- c.bytes
	ch <- c.cats
}

func (c *PerfCollector) Collect(ch chan<- prometheus.Metric) {
	for _, src := range c.sources {
		name := src.Name()
		snap := src.PerfStats()
		ch <- prometheus.MustNewConstMetric(c.cats, prometheus.GaugeValue, float64(len(snap)), name)
		for category, counters := range snap {
			for _, op := range []perf.Op{perf.OpMiss, perf.OpStat, perf.OpRead, perf.OpWrite} {
				ch <- prometheus.MustNewConstMetric(c.ops, prometheus.CounterValue,
					float64(counters.Get(op)), name, category, op.String())
			}
			ch <- prometheus.MustNewConstMetric(c.bytes, prometheus.CounterValue,
				float64(counters.Bytes), name, category)
		}
	}
}

var _ prometheus.Collector = (*PerfCollector)(nil)
