package logpolicy

import (
	"sync/atomic"

	"github.com/jingkaihe/streamstat/pkg/perf"
)

// Evaluator applies Settings. The settings can be swapped at any time;
// concurrent callers see either the old or the new value in full.
// A nil or zero Evaluator never logs.
type Evaluator struct {
	settings atomic.Pointer[Settings]
}

// New returns an evaluator using s.
func New(s Settings) *Evaluator {
	e := &Evaluator{}
	e.Update(s)
	return e
}

// NewFromEnv is New(FromEnv()).
func NewFromEnv() *Evaluator {
	return New(FromEnv())
}

// Update replaces the settings.
func (e *Evaluator) Update(s Settings) {
	s = s.normalized()
	e.settings.Store(&s)
}

// Settings returns a copy of the current settings.
func (e *Evaluator) Settings() Settings {
	if s := e.load(); s != nil {
		return s.normalized()
	}
	return DefaultSettings()
}

func (e *Evaluator) load() *Settings {
	if e == nil {
		return nil
	}
	return e.settings.Load()
}

// Level is the operation's weight plus the penalty when category is not
// the primary category.
func (e *Evaluator) Level(op perf.Op, category string) int {
	s := e.load()
	if s == nil {
		d := DefaultSettings()
		s = &d
	}
	return level(s, op, category)
}

func level(s *Settings, op perf.Op, category string) int {
	l := s.Weights[op]
	if category != s.PrimaryCategory {
		l += s.Penalty
	}
	return l
}

// ShouldLog reports the operation's level and whether it is at or below
// the threshold of an enabled policy.
func (e *Evaluator) ShouldLog(op perf.Op, category string) (int, bool) {
	s := e.load()
	if s == nil || !s.Enabled {
		return 0, false
	}
	l := level(s, op, category)
	return l, l <= s.Threshold
}

// Enabled reports whether any logging can happen.
func (e *Evaluator) Enabled() bool {
	s := e.load()
	return s != nil && s.Enabled
}

// StackDepth is the number of frames Capture returns, at least 1.
func (e *Evaluator) StackDepth() int {
	s := e.load()
	if s == nil {
		return DefaultStackDepth
	}
	return s.StackDepth
}
