package palmvec

import (
	"log/slog"

	"github.com/hupe1980/palmvec/embedding"
	"github.com/hupe1980/palmvec/match"
	"github.com/hupe1980/palmvec/resource"
)

// DefaultBatchWorkers bounds NormalizeBatch parallelism.
const DefaultBatchWorkers = 8

type options struct {
	embedding        embedding.Config
	match            match.Options
	metricsCollector MetricsCollector
	logger           *Logger
	decodeCacheSize  int
	resources        *resource.Controller
	batchWorkers     int
}

// Option configures an Engine.
type Option func(*options)

// WithEmbeddingConfig replaces the decoding and validation limits.
func WithEmbeddingConfig(cfg embedding.Config) Option {
	return func(o *options) {
		o.embedding = cfg
	}
}

// WithPolicy sets the normalization policy.
func WithPolicy(p embedding.Policy) Option {
	return func(o *options) {
		o.embedding.Policy = p
	}
}

// WithThreshold sets the inclusive match threshold.
func WithThreshold(t float64) Option {
	return func(o *options) {
		o.match.Threshold = t
	}
}

// WithMatchOptions replaces the matcher options.
func WithMatchOptions(mo match.Options) Option {
	return func(o *options) {
		o.match = mo
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
//
//	metrics := &palmvec.BasicMetricsCollector{}
//	eng, _ := palmvec.New(palmvec.WithMetricsCollector(metrics))
//	// ... use eng ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithDecodeCache keeps up to size normalized Base64 payloads in an LRU cache.
// Zero disables the cache.
func WithDecodeCache(size int) Option {
	return func(o *options) {
		o.decodeCacheSize = size
	}
}

// WithResourceController limits identification attempts.
func WithResourceController(c *resource.Controller) Option {
	return func(o *options) {
		o.resources = c
	}
}

// WithBatchWorkers bounds NormalizeBatch parallelism.
func WithBatchWorkers(n int) Option {
	return func(o *options) {
		o.batchWorkers = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		embedding:        embedding.DefaultConfig(),
		match:            match.DefaultOptions(),
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		batchWorkers:     DefaultBatchWorkers,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.batchWorkers <= 0 {
		o.batchWorkers = DefaultBatchWorkers
	}
	return o
}
