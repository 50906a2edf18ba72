package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jingkaihe/streamstat/pkg/classify"
	"github.com/jingkaihe/streamstat/pkg/logpolicy"
	"github.com/jingkaihe/streamstat/pkg/perf"
	"github.com/jingkaihe/streamstat/pkg/stream"
)

const (
	DefaultHTTPFallback = "host"
	DefaultUserAgent    = "streamstat"
)

// setDefaults registers scalar defaults with viper so that environment
// overrides resolve even when the file does not mention a key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("fileio.enabled", false)
	v.SetDefault("fileio.threshold", 0)
	v.SetDefault("fileio.stack_size", logpolicy.DefaultStackDepth)
	v.SetDefault("fileio.penalty", logpolicy.DefaultPenalty)
	v.SetDefault("fileio.primary_category", logpolicy.DefaultPrimaryCategory)
	v.SetDefault("fileio.fallback_category", classify.DefaultFallback)

	v.SetDefault("http.schemes", []string{"https"})
	v.SetDefault("http.timeout", stream.DefaultHTTPTimeout)
	v.SetDefault("http.user_agent", DefaultUserAgent)
	v.SetDefault("http.fallback", DefaultHTTPFallback)

	v.SetDefault("events.text", true)
	v.SetDefault("events.jsonl_path", "")
	v.SetDefault("metrics.listen", "")
	v.SetDefault("history.db_path", "")
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	cfg := &Config{Events: EventsConfig{Text: true}}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero values and normalizes case. Explicit values are
// preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyFileIODefaults(&cfg.FileIO)
	applyHTTPDefaults(&cfg.HTTP)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	cfg.Level = strings.ToLower(cfg.Level)
	if cfg.Level == "warning" {
		cfg.Level = "warn"
	}
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	cfg.Format = strings.ToLower(cfg.Format)
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

func applyFileIODefaults(cfg *FileIOConfig) {
	if cfg.StackSize < 1 {
		cfg.StackSize = logpolicy.DefaultStackDepth
	}
	if cfg.PrimaryCategory == "" {
		cfg.PrimaryCategory = logpolicy.DefaultPrimaryCategory
	}
	if cfg.FallbackCategory == "" {
		cfg.FallbackCategory = classify.DefaultFallback
	}
	weights := make(map[string]int, len(perf.Ops()))
	for op, w := range logpolicy.DefaultWeights() {
		weights[op.String()] = w
	}
	for name, w := range cfg.Weights {
		weights[strings.ToLower(name)] = w
	}
	cfg.Weights = weights
}

func applyHTTPDefaults(cfg *HTTPConfig) {
	if len(cfg.Schemes) == 0 {
		cfg.Schemes = []string{"https"}
	}
	for i, s := range cfg.Schemes {
		cfg.Schemes[i] = strings.ToLower(s)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = stream.DefaultHTTPTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Fallback == "" {
		cfg.Fallback = DefaultHTTPFallback
	}
}

// timeoutOrDefault guards callers that build options from a Config that
// skipped ApplyDefaults.
func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return stream.DefaultHTTPTimeout
	}
	return d
}
