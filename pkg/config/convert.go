package config

import (
	"github.com/jingkaihe/streamstat/pkg/classify"
	"github.com/jingkaihe/streamstat/pkg/logpolicy"
	"github.com/jingkaihe/streamstat/pkg/perf"
	"github.com/jingkaihe/streamstat/pkg/stream"
)

// FileIOPolicy converts the fileio section into evaluator settings.
func (c *Config) FileIOPolicy() (logpolicy.Settings, error) {
	s := logpolicy.DefaultSettings()
	s.Enabled = c.FileIO.Enabled
	s.Threshold = c.FileIO.Threshold
	s.StackDepth = max(1, c.FileIO.StackSize)
	s.Penalty = c.FileIO.Penalty
	if c.FileIO.PrimaryCategory != "" {
		s.PrimaryCategory = c.FileIO.PrimaryCategory
	}
	for name, w := range c.FileIO.Weights {
		op, err := perf.ParseOp(name)
		if err != nil {
			return logpolicy.Settings{}, err
		}
		s.Weights[op] = w
	}
	return s, nil
}

// FileClassifier matches fileio.roots, falling back to fallback_category.
func (c *Config) FileClassifier() classify.Classifier {
	rules := make([]classify.Rule, 0, len(c.FileIO.Roots))
	for _, r := range c.FileIO.Roots {
		rules = append(rules, classify.Rule{Name: r.Name, Prefix: r.Path})
	}
	return classify.NewPrefix(rules, classify.Fixed(c.FileIO.FallbackCategory))
}

// HTTPClassifier matches http.categories, falling back to the URL host or
// a fixed label.
func (c *Config) HTTPClassifier() classify.Classifier {
	rules := make([]classify.Rule, 0, len(c.HTTP.Categories))
	for _, r := range c.HTTP.Categories {
		rules = append(rules, classify.Rule{Name: r.Name, Prefix: r.Prefix})
	}
	var fallback classify.Classifier = classify.Host{Fallback: c.FileIO.FallbackCategory}
	if c.HTTP.Fallback != DefaultHTTPFallback {
		fallback = classify.Fixed(c.HTTP.Fallback)
	}
	return classify.NewPrefix(rules, fallback)
}

// HTTPOptions configures the native http(s) wrapper.
func (c *Config) HTTPOptions() stream.HTTPOptions {
	return stream.HTTPOptions{
		Timeout:   timeoutOrDefault(c.HTTP.Timeout),
		UserAgent: c.HTTP.UserAgent,
	}
}
