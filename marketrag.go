// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package marketrag retrieves ticker-scoped market news and event evidence.
//
// An Engine wires configuration, pseudo-embedders, document providers and the two
// retrieval services (news and decision) into one handle:
//
//	cfg, errs := config.Load("marketrag.yaml")
//	...
//	engine, err := marketrag.NewEngine(cfg, marketrag.WithRegisterer(prometheus.DefaultRegisterer))
//	if err != nil {
//		return err
//	}
//	defer engine.Close()
//
//	news, err := engine.News().Search(ctx, search.NewsQuery{Tickers: []string{"QQQ"}})
package marketrag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/marketrag/ai/hashing"
	"github.com/poiesic/marketrag/config"
	"github.com/poiesic/marketrag/provider"
	"github.com/poiesic/marketrag/search"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrInvalidConfig wraps the validation errors of a rejected configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

// feedBackoff is the first retry delay of a failed feed fetch.
const feedBackoff = 500 * time.Millisecond

// Engine owns the news and decision services built from one configuration.
type Engine struct {
	news     *search.NewsService
	decision *search.DecisionService
	metrics  *search.Metrics
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	logger     *slog.Logger
	registerer prometheus.Registerer
	client     *http.Client
	now        func() time.Time
}

// WithLogger sets the logger handed to every component.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRegisterer registers the engine metrics with reg.
// Without it metrics are still collected but never exported.
func WithRegisterer(reg prometheus.Registerer) EngineOption {
	return func(o *engineOptions) {
		o.registerer = reg
	}
}

// WithHTTPClient sets the client used to fetch feeds.
func WithHTTPClient(client *http.Client) EngineOption {
	return func(o *engineOptions) {
		o.client = client
	}
}

// WithClock sets the time source used for recency and cache expiry.
func WithClock(now func() time.Time) EngineOption {
	return func(o *engineOptions) {
		o.now = now
	}
}

// NewEngine validates cfg and creates both retrieval services. Nothing is loaded
// until Build or the first query.
func NewEngine(cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}

	metrics := search.NewMetrics()
	if options.registerer != nil {
		if err := metrics.Register(options.registerer); err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}

	providerOpts := []provider.Option{
		provider.WithLogger(options.logger),
		provider.WithTimeout(cfg.News.FeedTimeout),
		provider.WithRetry(cfg.News.FeedRetries, feedBackoff),
		provider.WithRateLimit(cfg.News.FeedRate, 1),
	}
	if options.client != nil {
		providerOpts = append(providerOpts, provider.WithHTTPClient(options.client))
	}

	searchOpts := []search.Option{
		search.WithLogger(options.logger),
		search.WithMonitor(metrics),
		search.WithCacheTTL(cfg.CacheTTL),
		search.WithPoolSize(cfg.PoolSize),
		search.WithSignalMargin(cfg.SignalMargin),
		search.WithStrictTimestamps(cfg.StrictTimestamps),
		search.WithNewsParams(cfg.NewsParams()),
		search.WithDecisionParams(cfg.DecisionParams()),
	}
	if options.now != nil {
		searchOpts = append(searchOpts, search.WithClock(options.now))
	}

	news, err := newNewsService(cfg, providerOpts, searchOpts)
	if err != nil {
		return nil, err
	}
	decision, err := newDecisionService(cfg, providerOpts, searchOpts)
	if err != nil {
		news.Close()
		return nil, err
	}

	return &Engine{
		news:     news,
		decision: decision,
		metrics:  metrics,
		logger:   options.logger.With("component", "engine"),
	}, nil
}

// newNewsService reads feeds first when any are configured, with the news file as
// fallback. Without feeds the news file is the only source.
func newNewsService(cfg *config.Config, providerOpts []provider.Option, searchOpts []search.Option) (*search.NewsService, error) {
	embedder, err := hashing.New(cfg.News.EmbedDim)
	if err != nil {
		return nil, err
	}

	var primary, fallback provider.Provider
	if cfg.News.DataPath != "" {
		if primary, err = provider.NewNewsFile(cfg.News.DataPath, providerOpts...); err != nil {
			return nil, err
		}
	}
	if len(cfg.News.Feeds) > 0 {
		feed, err := provider.NewFeed(cfg.News.Feeds, providerOpts...)
		if err != nil {
			return nil, err
		}
		primary, fallback = feed, primary
	}

	if fallback != nil {
		searchOpts = append(searchOpts, search.WithFallback(fallback))
	}
	return search.NewNewsService(embedder, primary, searchOpts...)
}

func newDecisionService(cfg *config.Config, providerOpts []provider.Option, searchOpts []search.Option) (*search.DecisionService, error) {
	embedder, err := hashing.New(cfg.Decision.EmbedDim)
	if err != nil {
		return nil, err
	}

	var sources []provider.Provider
	if cfg.Decision.RawDir != "" {
		raw, err := provider.NewRawDigestDir(cfg.Decision.RawDir, providerOpts...)
		if err != nil {
			return nil, err
		}
		sources = append(sources, raw)
	}
	if cfg.Decision.BriefDir != "" {
		brief, err := provider.NewBriefDir(cfg.Decision.BriefDir, providerOpts...)
		if err != nil {
			return nil, err
		}
		sources = append(sources, brief)
	}
	return search.NewDecisionService(embedder, sources, searchOpts...)
}

// News returns the news retrieval service.
func (e *Engine) News() *search.NewsService {
	return e.news
}

// Decision returns the decision retrieval service.
func (e *Engine) Decision() *search.DecisionService {
	return e.decision
}

// Metrics returns the collectors fed by both services.
func (e *Engine) Metrics() *search.Metrics {
	return e.metrics
}

// BuildAll rebuilds both indexes, keyed by variant. A service whose build fails keeps
// its previous index; the failures are joined into the returned error.
func (e *Engine) BuildAll(ctx context.Context) (map[string]*search.BuildResult, error) {
	results := make(map[string]*search.BuildResult, 2)
	var errs []error

	if res, err := e.news.Build(ctx); err != nil {
		errs = append(errs, fmt.Errorf("news: %w", err))
	} else {
		results[search.VariantNews] = res
	}
	if res, err := e.decision.Build(ctx); err != nil {
		errs = append(errs, fmt.Errorf("decision: %w", err))
	} else {
		results[search.VariantDecision] = res
	}

	if err := errors.Join(errs...); err != nil {
		e.logger.Error("index build failed", "err", err)
		return results, err
	}
	return results, nil
}

// Close releases both services' worker pools.
func (e *Engine) Close() {
	e.news.Close()
	e.decision.Close()
}
