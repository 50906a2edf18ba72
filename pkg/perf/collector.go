// Package perf keeps per-category I/O counters.
package perf

import (
	"sync"
	"sync/atomic"

	"github.com/jingkaihe/streamstat/pkg/classify"
)

// Counters is a point-in-time copy of one category's record.
type Counters struct {
	Miss  uint64 `json:"miss"`
	Stat  uint64 `json:"stat"`
	Read  uint64 `json:"read"`
	Write uint64 `json:"write"`
	Bytes uint64 `json:"bytes"`
}

// Get returns the counter for op.
func (c Counters) Get(op Op) uint64 {
	switch op {
	case OpMiss:
		return c.Miss
	case OpStat:
		return c.Stat
	case OpRead:
		return c.Read
	case OpWrite:
		return c.Write
	case OpBytes:
		return c.Bytes
	}
	return 0
}

type record [numOps]atomic.Uint64

func (r *record) snapshot() Counters {
	return Counters{
		Miss:  r[OpMiss].Load(),
		Stat:  r[OpStat].Load(),
		Read:  r[OpRead].Load(),
		Write: r[OpWrite].Load(),
		Bytes: r[OpBytes].Load(),
	}
}

// Collector aggregates operations by the category its classifier assigns
// to each path. It is safe for concurrent use.
type Collector struct {
	classifier classify.Classifier

	mu    sync.RWMutex
	table map[string]*record
}

// NewCollector returns an empty collector. A nil classifier files every
// path under classify.DefaultFallback.
func NewCollector(c classify.Classifier) *Collector {
	if c == nil {
		c = classify.Fixed(classify.DefaultFallback)
	}
	return &Collector{
		classifier: c,
		table:      make(map[string]*record),
	}
}

// Record adds amount to op's counter for path's category and returns the
// category. Invalid ops and classifier panics are dropped and return "";
// Record never fails.
func (c *Collector) Record(op Op, path string, amount uint64) (category string) {
	if !op.Valid() {
		return ""
	}
	category, ok := c.classify(path)
	if !ok {
		return ""
	}
	c.add(category, op, amount)
	return category
}

// Inc records a single unit of op.
func (c *Collector) Inc(op Op, path string) string {
	return c.Record(op, path, 1)
}

// Classify exposes the collector's category for path.
func (c *Collector) Classify(path string) string {
	category, _ := c.classify(path)
	return category
}

func (c *Collector) classify(path string) (category string, ok bool) {
	defer func() {
		if recover() != nil {
			category, ok = "", false
		}
	}()
	category = c.classifier.Classify(path)
	if category == "" {
		category = classify.DefaultFallback
	}
	return category, true
}

// add updates the record while holding the table lock so a concurrent
// Reset cannot orphan it.
func (c *Collector) add(category string, op Op, amount uint64) {
	c.mu.RLock()
	if r, ok := c.table[category]; ok {
		r[op].Add(amount)
		c.mu.RUnlock()
		return
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.table[category]
	if !ok {
		r = &record{}
		c.table[category] = r
	}
	r[op].Add(amount)
}

// Snapshot copies the whole table.
func (c *Collector) Snapshot() map[string]Counters {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Counters, len(c.table))
	for k, r := range c.table {
		out[k] = r.snapshot()
	}
	return out
}

// Lookup returns one category's counters; absent categories are zero.
func (c *Collector) Lookup(category string) Counters {
	c.mu.RLock()
	r, ok := c.table[category]
	c.mu.RUnlock()
	if !ok {
		return Counters{}
	}
	return r.snapshot()
}

// Reset drops every record. Operations recorded concurrently land either
// before or after the swap, never on a dropped record.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.table = make(map[string]*record)
}
