package iqdb

import (
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/honooru/iqdb/haar"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	decoder          haar.Decoder
	ingestLimiter    *rate.Limiter
}

// Option configures Engine construction behavior.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations. Pass nil to
// disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets
// it. Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithDecoder overrides the decode_and_resize collaborator used by
// AddImage and QueryFromBlob. Pass nil to restore haar.DefaultDecoder.
func WithDecoder(dec haar.Decoder) Option {
	return func(o *options) {
		o.decoder = dec
	}
}

// WithIngestRateLimit caps how fast AddImage may proceed, smoothing
// bursty bulk imports so they don't starve concurrent queries of the
// exclusive lock. A zero or negative r disables the limit.
func WithIngestRateLimit(r rate.Limit, burst int) Option {
	return func(o *options) {
		if r <= 0 {
			o.ingestLimiter = nil
			return
		}
		o.ingestLimiter = rate.NewLimiter(r, burst)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
