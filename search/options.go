package search

import (
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/marketrag/ingestion"
	"github.com/poiesic/marketrag/provider"
)

// ErrInvalidCacheTTL is returned by WithCacheTTL for negative durations.
var ErrInvalidCacheTTL = errors.New("cache TTL must not be negative")

type options struct {
	logger           *slog.Logger
	monitor          Monitor
	now              func() time.Time
	cacheTTL         time.Duration
	poolSize         int
	signalMargin     int
	strictTimestamps bool
	newsParams       NewsParams
	decisionParams   DecisionParams
	fallback         provider.Provider
}

// Option configures a NewsService or DecisionService.
type Option func(*options) error

func defaultOptions() *options {
	return &options{
		logger:         slog.Default(),
		monitor:        &noopMonitor{},
		now:            time.Now,
		cacheTTL:       DefaultCacheTTL,
		newsParams:     DefaultNewsParams(),
		decisionParams: DefaultDecisionParams(),
	}
}

func applyOptions(opts []Option) (*options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// pipelineOptions forwards the ingestion settings.
func (o *options) pipelineOptions() []ingestion.Option {
	opts := []ingestion.Option{
		ingestion.WithLogger(o.logger),
		ingestion.WithClock(o.now),
		ingestion.WithStrictTimestamps(o.strictTimestamps),
	}
	if o.poolSize > 0 {
		opts = append(opts, ingestion.WithPoolSize(o.poolSize))
	}
	if o.signalMargin > 0 {
		opts = append(opts, ingestion.WithSignalMargin(o.signalMargin))
	}
	return opts
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// WithMonitor sets the build and query observer.
// Default is a no-op monitor.
func WithMonitor(m Monitor) Option {
	return func(o *options) error {
		if m == nil {
			m = &noopMonitor{}
		}
		o.monitor = m
		return nil
	}
}

// WithClock sets the time source for recency scoring, cache expiry and build stamps.
// Default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			now = time.Now
		}
		o.now = now
		return nil
	}
}

// WithCacheTTL sets how long ranked results are reused.
// Default is DefaultCacheTTL. Zero disables reuse.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *options) error {
		if ttl < 0 {
			return ErrInvalidCacheTTL
		}
		o.cacheTTL = ttl
		return nil
	}
}

// WithPoolSize sets the ingestion worker pool size.
func WithPoolSize(size int) Option {
	return func(o *options) error {
		o.poolSize = size
		return nil
	}
}

// WithSignalMargin sets the keyword lead required to call an article bullish or bearish.
func WithSignalMargin(margin int) Option {
	return func(o *options) error {
		o.signalMargin = margin
		return nil
	}
}

// WithStrictTimestamps drops news rows with malformed published_at values.
func WithStrictTimestamps(strict bool) Option {
	return func(o *options) error {
		o.strictTimestamps = strict
		return nil
	}
}

// WithNewsParams overrides the news ranking parameters.
func WithNewsParams(p NewsParams) Option {
	return func(o *options) error {
		o.newsParams = p
		return nil
	}
}

// WithDecisionParams overrides the decision ranking parameters.
func WithDecisionParams(p DecisionParams) Option {
	return func(o *options) error {
		o.decisionParams = p
		return nil
	}
}

// WithFallback sets the provider a NewsService loads from when its primary fails.
func WithFallback(p provider.Provider) Option {
	return func(o *options) error {
		o.fallback = p
		return nil
	}
}
