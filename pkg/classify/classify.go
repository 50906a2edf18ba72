// Package classify maps stream paths to the category labels perf counters
// are aggregated under.
package classify

import (
	"net/url"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultFallback is the label for paths no rule claims.
const DefaultFallback = "other"

// Classifier assigns a category to a path. Implementations must be pure.
type Classifier interface {
	Classify(path string) string
}

// Func adapts a plain function to Classifier.
type Func func(path string) string

func (f Func) Classify(path string) string { return f(path) }

// Fixed returns a classifier that files every path under label.
func Fixed(label string) Classifier {
	return Func(func(string) string { return label })
}

// Rule names the category for paths under Prefix.
type Rule struct {
	Name   string
	Prefix string
}

// Prefix matches paths against rules, longest prefix first, on component
// boundaries: /data claims /data and /data/x but not /database. Trailing
// slashes on rule prefixes are ignored, and URL rules also end at a query
// or fragment.
type Prefix struct {
	rules    []Rule
	fallback Classifier
}

// NewPrefix builds a prefix classifier. Unmatched paths go to fallback, or
// to DefaultFallback when fallback is nil.
func NewPrefix(rules []Rule, fallback Classifier) *Prefix {
	if fallback == nil {
		fallback = Fixed(DefaultFallback)
	}
	sorted := make([]Rule, 0, len(rules))
	for _, r := range rules {
		p := normalize(r.Prefix)
		if p == "" {
			continue
		}
		if p = strings.TrimRight(p, "/"); p == "" {
			p = "/"
		}
		sorted = append(sorted, Rule{Name: r.Name, Prefix: p})
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})
	return &Prefix{rules: sorted, fallback: fallback}
}

func (p *Prefix) Classify(path string) string {
	n := normalize(path)
	for _, r := range p.rules {
		if underPrefix(n, r.Prefix) {
			return r.Name
		}
	}
	return p.fallback.Classify(path)
}

// Rules returns the normalized rules in match order.
func (p *Prefix) Rules() []Rule {
	return append([]Rule(nil), p.rules...)
}

func underPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	if len(path) == len(prefix) || prefix == "/" {
		return true
	}
	switch path[len(prefix)] {
	case '/':
		return true
	case '?', '#':
		return strings.Contains(prefix, "://")
	}
	return false
}

// normalize strips file:// and cleans local paths; for other URLs it
// lower-cases scheme and host and leaves the rest alone.
func normalize(path string) string {
	if path == "" {
		return ""
	}
	lower := strings.ToLower(path)
	if strings.HasPrefix(lower, "file://") {
		path = path[len("file://"):]
		if i := strings.IndexByte(path, '/'); i > 0 {
			// file://localhost/x
			path = path[i:]
		}
		return filepath.ToSlash(filepath.Clean(path))
	}
	i := strings.Index(path, "://")
	if i <= 0 {
		trailing := strings.HasSuffix(path, "/") && len(path) > 1
		cleaned := filepath.ToSlash(filepath.Clean(path))
		if trailing && cleaned != "/" {
			cleaned += "/"
		}
		return cleaned
	}
	rest := path[i+3:]
	host, tail := rest, ""
	if j := strings.IndexAny(rest, "/?#"); j >= 0 {
		host, tail = rest[:j], rest[j:]
	}
	return strings.ToLower(path[:i]) + "://" + strings.ToLower(host) + tail
}

// Host files URLs under their lower-cased host name, port removed. Paths
// that are not URLs go to the fallback label.
type Host struct {
	Fallback string
}

func (h Host) Classify(path string) string {
	fallback := h.Fallback
	if fallback == "" {
		fallback = DefaultFallback
	}
	if !strings.Contains(path, "://") {
		return fallback
	}
	u, err := url.Parse(path)
	if err != nil || u.Hostname() == "" {
		return fallback
	}
	return strings.ToLower(u.Hostname())
}
