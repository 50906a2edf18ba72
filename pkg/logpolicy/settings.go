// Package logpolicy decides which accounted operations are worth a log line
// and formats that line.
package logpolicy

import (
	"os"
	"strconv"
	"strings"

	"github.com/jingkaihe/streamstat/pkg/perf"
)

const (
	DefaultPenalty         = 10
	DefaultStackDepth      = 1
	DefaultPrimaryCategory = "dataroot"

	EnvThreshold = "STREAMSTAT_DEBUG_FILEIO"
	EnvStackSize = "STREAMSTAT_DEBUG_FILEIO_STACKSIZE"
)

// Weights is the per-operation base level. Cheaper, more interesting
// operations get lower levels so they log at lower thresholds.
type Weights map[perf.Op]int

// DefaultWeights returns write=1 miss=2 read=3 stat=4 bytes=5.
func DefaultWeights() Weights {
	return Weights{
		perf.OpWrite: 1,
		perf.OpMiss:  2,
		perf.OpRead:  3,
		perf.OpStat:  4,
		perf.OpBytes: 5,
	}
}

// Settings is the process-wide logging policy.
type Settings struct {
	Enabled         bool
	Threshold       int
	StackDepth      int
	Weights         Weights
	Penalty         int
	PrimaryCategory string
}

// DefaultSettings returns a disabled policy with the standard weights.
func DefaultSettings() Settings {
	return Settings{
		StackDepth:      DefaultStackDepth,
		Weights:         DefaultWeights(),
		Penalty:         DefaultPenalty,
		PrimaryCategory: DefaultPrimaryCategory,
	}
}

func (s Settings) normalized() Settings {
	if s.StackDepth < 1 {
		s.StackDepth = 1
	}
	if s.Weights == nil {
		s.Weights = DefaultWeights()
	} else {
		w := make(Weights, len(s.Weights))
		for op, v := range s.Weights {
			w[op] = v
		}
		s.Weights = w
	}
	return s
}

// FromEnv returns DefaultSettings adjusted by STREAMSTAT_DEBUG_FILEIO and
// STREAMSTAT_DEBUG_FILEIO_STACKSIZE. It only reads the environment so it is
// usable before any other configuration has loaded. Unparseable values are
// ignored.
func FromEnv() Settings {
	s := DefaultSettings()
	if v, ok := envInt(EnvThreshold); ok {
		s.Enabled = true
		s.Threshold = v
	}
	if v, ok := envInt(EnvStackSize); ok {
		s.StackDepth = max(1, v)
	}
	return s
}

func envInt(key string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
